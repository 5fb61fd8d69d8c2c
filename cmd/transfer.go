package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/grana/internal/cli"
	"github.com/theirongolddev/grana/internal/ledger"
)

var (
	flagTransferDesc     string
	flagTransferDate     string
	flagTransferCategory string
	flagTransferTags     string
)

var transferCmd = &cobra.Command{
	Use:   "transfer <from> <to> <amount>",
	Short: "Move money between two of your accounts",
	Args:  cobra.ExactArgs(3),
	RunE:  runTransfer,
}

func init() {
	transferCmd.Flags().StringVar(&flagTransferDesc, "desc", "", "Description (default \""+ledger.DefaultTransferDescription+"\")")
	transferCmd.Flags().StringVarP(&flagTransferDate, "date", "d", "", "Date as YYYY-MM-DD (default today)")
	transferCmd.Flags().StringVarP(&flagTransferCategory, "category", "c", "", "Category name (default transfer)")
	transferCmd.Flags().StringVarP(&flagTransferTags, "tags", "t", "", "Comma-separated tags")
	rootCmd.AddCommand(transferCmd)
}

func runTransfer(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	amount, err := parseAmount("amount", args[2])
	if err != nil {
		return err
	}

	e, done, err := openEngine(cmd)
	if err != nil {
		return err
	}
	defer done()

	from, err := resolveAccount(ctx, e, args[0])
	if err != nil {
		return err
	}
	to, err := resolveAccount(ctx, e, args[1])
	if err != nil {
		return err
	}
	date, err := parseDate(e, flagTransferDate)
	if err != nil {
		return err
	}
	category, err := resolveCategory(ctx, e, flagTransferCategory)
	if err != nil {
		return err
	}

	tx, err := e.CreateTransfer(ctx, ledger.TransferRequest{
		Owner:       owner(),
		From:        from.ID,
		To:          to.ID,
		Amount:      amount,
		Date:        date,
		Description: flagTransferDesc,
		Category:    category,
		Tags:        parseTags(flagTransferTags),
	})
	if err != nil {
		return err
	}

	fmt.Printf("\n  Transferred %s from %q to %q (%s).\n\n", cli.FormatMoney(tx.Amount), from.Name, to.Name, cli.ShortID(tx.ID))
	return nil
}
