package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/grana/internal/cli"
	"github.com/theirongolddev/grana/internal/engine"
	"github.com/theirongolddev/grana/internal/model"
	"github.com/theirongolddev/grana/internal/money"
)

var (
	flagAccountType    string
	flagAccountBank    string
	flagAccountInitial string
	flagAccountAll     bool
)

var accountCmd = &cobra.Command{
	Use:     "account",
	Aliases: []string{"accounts"},
	Short:   "Manage bank accounts",
	RunE:    runAccountList,
}

var accountAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Open a bank account",
	Args:  cobra.ExactArgs(1),
	RunE:  runAccountAdd,
}

var accountListCmd = &cobra.Command{
	Use:   "list",
	Short: "List accounts with their balances",
	RunE:  runAccountList,
}

var accountCloseCmd = &cobra.Command{
	Use:   "close <account>",
	Short: "Deactivate an account; its history is kept",
	Args:  cobra.ExactArgs(1),
	RunE:  func(cmd *cobra.Command, args []string) error { return setAccountActive(cmd, args[0], false) },
}

var accountReopenCmd = &cobra.Command{
	Use:   "reopen <account>",
	Short: "Reactivate a closed account",
	Args:  cobra.ExactArgs(1),
	RunE:  func(cmd *cobra.Command, args []string) error { return setAccountActive(cmd, args[0], true) },
}

func init() {
	accountAddCmd.Flags().StringVarP(&flagAccountType, "type", "t", "checking", "checking, savings, investment or cash")
	accountAddCmd.Flags().StringVar(&flagAccountBank, "bank", "", "Bank name")
	accountAddCmd.Flags().StringVar(&flagAccountInitial, "initial", "0", "Opening balance")
	accountListCmd.Flags().BoolVarP(&flagAccountAll, "all", "a", false, "Include closed accounts")

	accountCmd.AddCommand(accountAddCmd, accountListCmd, accountCloseCmd, accountReopenCmd)
	rootCmd.AddCommand(accountCmd)
}

func runAccountAdd(cmd *cobra.Command, args []string) error {
	typ, err := model.ParseAccountType(flagAccountType)
	if err != nil {
		return err
	}
	initial, err := parseAmount("initial", flagAccountInitial)
	if err != nil {
		return err
	}

	e, done, err := openEngine(cmd)
	if err != nil {
		return err
	}
	defer done()

	a, err := e.OpenAccount(cmd.Context(), engine.AccountInput{
		Owner:          owner(),
		Name:           args[0],
		Type:           typ,
		Bank:           flagAccountBank,
		InitialBalance: initial,
	})
	if err != nil {
		return err
	}
	fmt.Printf("\n  Opened %s account %q (%s) with %s.\n\n", a.Type, a.Name, cli.ShortID(a.ID), cli.FormatMoney(a.CurrentBalance))
	return nil
}

func runAccountList(cmd *cobra.Command, _ []string) error {
	e, done, err := openEngine(cmd)
	if err != nil {
		return err
	}
	defer done()

	accounts, err := e.Accounts(cmd.Context(), owner())
	if err != nil {
		return err
	}
	if len(accounts) == 0 {
		fmt.Println("\n  No accounts yet. Add one with `grana account add <name>`.")
		return nil
	}

	var rows [][]string
	var total money.Amount
	for _, a := range accounts {
		if !a.Active && !flagAccountAll {
			continue
		}
		status := ""
		if !a.Active {
			status = "closed"
		} else {
			total += a.CurrentBalance
		}
		rows = append(rows, []string{
			a.Name,
			string(a.Type),
			a.Bank,
			cli.ShortID(a.ID),
			status,
			cli.FormatMoney(a.CurrentBalance),
		})
	}
	rows = append(rows, []string{"---"}, []string{"Total", "", "", "", "", cli.FormatMoney(total)})

	fmt.Println()
	fmt.Print(cli.RenderTable(cli.Table{
		Title:    "Accounts",
		Headers:  []string{"Name", "Type", "Bank", "ID", "Status", "Balance"},
		Rows:     rows,
		TextCols: 5,
	}))
	return nil
}

func setAccountActive(cmd *cobra.Command, ref string, active bool) error {
	e, done, err := openEngine(cmd)
	if err != nil {
		return err
	}
	defer done()

	a, err := resolveAccount(cmd.Context(), e, ref)
	if err != nil {
		return err
	}
	updated, err := e.SetAccountActive(cmd.Context(), a.ID, active)
	if err != nil {
		return err
	}
	verb := "Closed"
	if updated.Active {
		verb = "Reopened"
	}
	fmt.Printf("\n  %s account %q.\n\n", verb, updated.Name)
	return nil
}
