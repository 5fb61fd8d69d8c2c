package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/grana/internal/cli"
	"github.com/theirongolddev/grana/internal/engine"
)

var (
	flagCardBank    string
	flagCardLimit   string
	flagCardClosing int
	flagCardDue     int
)

var cardCmd = &cobra.Command{
	Use:     "card",
	Aliases: []string{"cards"},
	Short:   "Manage credit cards",
	RunE:    runCardList,
}

var cardAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Register a credit card",
	Args:  cobra.ExactArgs(1),
	RunE:  runCardAdd,
}

var cardListCmd = &cobra.Command{
	Use:   "list",
	Short: "List cards with limit usage",
	RunE:  runCardList,
}

var cardCloseCmd = &cobra.Command{
	Use:   "close <card>",
	Short: "Deactivate a card",
	Args:  cobra.ExactArgs(1),
	RunE:  runCardClose,
}

func init() {
	cardAddCmd.Flags().StringVar(&flagCardBank, "bank", "", "Issuing bank")
	cardAddCmd.Flags().StringVarP(&flagCardLimit, "limit", "l", "", "Credit limit")
	cardAddCmd.Flags().IntVar(&flagCardClosing, "closing", 1, "Statement closing day (1-31)")
	cardAddCmd.Flags().IntVar(&flagCardDue, "due", 10, "Payment due day (1-31)")
	_ = cardAddCmd.MarkFlagRequired("limit")

	cardCmd.AddCommand(cardAddCmd, cardListCmd, cardCloseCmd)
	rootCmd.AddCommand(cardCmd)
}

func runCardAdd(cmd *cobra.Command, args []string) error {
	limit, err := parseAmount("limit", flagCardLimit)
	if err != nil {
		return err
	}

	e, done, err := openEngine(cmd)
	if err != nil {
		return err
	}
	defer done()

	c, err := e.OpenCard(cmd.Context(), engine.CardInput{
		Owner:      owner(),
		Name:       args[0],
		Bank:       flagCardBank,
		Limit:      limit,
		ClosingDay: flagCardClosing,
		DueDay:     flagCardDue,
	})
	if err != nil {
		return err
	}
	fmt.Printf("\n  Registered card %q (%s) with a %s limit.\n\n", c.Name, cli.ShortID(c.ID), cli.FormatMoney(c.CreditLimit))
	return nil
}

func runCardList(cmd *cobra.Command, _ []string) error {
	e, done, err := openEngine(cmd)
	if err != nil {
		return err
	}
	defer done()

	cards, err := e.Cards(cmd.Context(), owner())
	if err != nil {
		return err
	}
	if len(cards) == 0 {
		fmt.Println("\n  No credit cards yet. Add one with `grana card add <name> --limit <amount>`.")
		return nil
	}

	rows := make([][]string, 0, len(cards))
	for _, c := range cards {
		name := c.Name
		if !c.Active {
			name += " (closed)"
		}
		rows = append(rows, []string{
			name,
			c.Bank,
			cli.ShortID(c.ID),
			strconv.Itoa(c.ClosingDay) + "/" + strconv.Itoa(c.DueDay),
			cli.FormatMoney(c.CreditLimit),
			cli.FormatMoney(c.UsedLimit()),
			cli.FormatMoney(c.AvailableLimit),
			cli.LevelStyle(cli.UsageLevel(c.UsagePercentage())).Render(cli.FormatPercent(c.UsagePercentage())),
		})
	}

	fmt.Println()
	fmt.Print(cli.RenderTable(cli.Table{
		Title:    "Credit cards",
		Headers:  []string{"Name", "Bank", "ID", "Close/Due", "Limit", "Used", "Available", "Usage"},
		Rows:     rows,
		TextCols: 4,
	}))
	return nil
}

func runCardClose(cmd *cobra.Command, args []string) error {
	e, done, err := openEngine(cmd)
	if err != nil {
		return err
	}
	defer done()

	c, err := resolveCard(cmd.Context(), e, args[0])
	if err != nil {
		return err
	}
	if _, err := e.SetCardActive(cmd.Context(), c.ID, false); err != nil {
		return err
	}
	fmt.Printf("\n  Closed card %q.\n\n", c.Name)
	return nil
}
