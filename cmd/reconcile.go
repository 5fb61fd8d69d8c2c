package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/grana/internal/cli"
)

var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Recompute balances and limits from the ledger",
	Long: "Recompute every account balance and card limit of the owner from the\n" +
		"transaction history, correcting and reporting any cached value that drifted.",
	RunE: runReconcile,
}

func init() {
	rootCmd.AddCommand(reconcileCmd)
}

func runReconcile(cmd *cobra.Command, _ []string) error {
	e, done, err := openEngine(cmd)
	if err != nil {
		return err
	}
	defer done()

	drifts, err := e.Reconcile(cmd.Context(), owner())
	if err != nil {
		return err
	}
	if len(drifts) == 0 {
		fmt.Println("\n  All balances match the ledger.")
		return nil
	}

	rows := make([][]string, 0, len(drifts))
	for _, d := range drifts {
		log(cmd).Warn().Str("entity", d.Entity).Str("id", d.ID.String()).
			Str("cached", d.Cached.String()).Str("ledger", d.Ledger.String()).Msg("drift corrected")
		rows = append(rows, []string{
			d.Entity,
			d.Name,
			cli.ShortID(d.ID),
			cli.FormatMoney(d.Cached),
			cli.FormatMoney(d.Ledger),
			cli.FormatSigned(d.Ledger - d.Cached),
		})
	}
	fmt.Println()
	fmt.Print(cli.RenderTable(cli.Table{
		Title:    fmt.Sprintf("Corrected %d cached values", len(drifts)),
		Headers:  []string{"Kind", "Name", "ID", "Was", "Now", "Delta"},
		Rows:     rows,
		TextCols: 3,
	}))
	return nil
}
