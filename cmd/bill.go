package cmd

import (
	"context"
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/theirongolddev/grana/internal/cli"
	"github.com/theirongolddev/grana/internal/engine"
	"github.com/theirongolddev/grana/internal/model"
)

var (
	flagBillMonth string
	flagBillFrom  string
	flagBillDate  string
	flagBillDesc  string
	flagBillDays  int
)

var billCmd = &cobra.Command{
	Use:     "bill",
	Aliases: []string{"bills"},
	Short:   "Manage credit card bills",
	RunE:    runBillList,
}

var billOpenCmd = &cobra.Command{
	Use:   "open <card>",
	Short: "Open the bill of a card for a month",
	Args:  cobra.ExactArgs(1),
	RunE:  runBillOpen,
}

var billListCmd = &cobra.Command{
	Use:   "list [card]",
	Short: "List bills, of one card or all of them",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runBillList,
}

var billRefreshCmd = &cobra.Command{
	Use:   "refresh <bill>",
	Short: "Recompute a bill's total from the ledger",
	Args:  cobra.ExactArgs(1),
	RunE:  runBillRefresh,
}

var billCloseCmd = &cobra.Command{
	Use:   "close <bill>",
	Short: "Close a bill on or after its closing date",
	Args:  cobra.ExactArgs(1),
	RunE:  runBillClose,
}

var billPayCmd = &cobra.Command{
	Use:   "pay <bill> <amount>",
	Short: "Record a bill payment",
	Args:  cobra.ExactArgs(2),
	RunE:  runBillPay,
}

var billUpcomingCmd = &cobra.Command{
	Use:   "upcoming",
	Short: "Unpaid bills due soon",
	RunE:  runBillUpcoming,
}

var billOverdueCmd = &cobra.Command{
	Use:   "overdue",
	Short: "Unpaid bills past their due date",
	RunE:  runBillOverdue,
}

func init() {
	billOpenCmd.Flags().StringVarP(&flagBillMonth, "month", "m", "", "Reference month as YYYY-MM (default current)")
	billPayCmd.Flags().StringVar(&flagBillFrom, "from", "", "Account to post the payment on as an expense")
	billPayCmd.Flags().StringVarP(&flagBillDate, "date", "d", "", "Payment date as YYYY-MM-DD (default today)")
	billPayCmd.Flags().StringVar(&flagBillDesc, "desc", "", "Description of the posted expense")
	billUpcomingCmd.Flags().IntVar(&flagBillDays, "days", model.UpcomingBillDays, "Look-ahead in days")

	billCmd.AddCommand(billOpenCmd, billListCmd, billRefreshCmd, billCloseCmd, billPayCmd, billUpcomingCmd, billOverdueCmd)
	cardCmd.AddCommand(billCmd)
}

func runBillOpen(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	e, done, err := openEngine(cmd)
	if err != nil {
		return err
	}
	defer done()

	c, err := resolveCard(ctx, e, args[0])
	if err != nil {
		return err
	}
	month, err := parseMonth(e, flagBillMonth)
	if err != nil {
		return err
	}
	b, err := e.OpenBill(ctx, c.ID, month)
	if err != nil {
		return err
	}
	fmt.Printf("\n  Opened bill %s of %q for %s: %s, closes %s, due %s.\n\n",
		cli.ShortID(b.ID), c.Name, cli.FormatMonth(b.ReferenceMonth), cli.FormatMoney(b.Total),
		cli.FormatDate(b.ClosingDate), cli.FormatDate(b.DueDate))
	return nil
}

func runBillList(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	e, done, err := openEngine(cmd)
	if err != nil {
		return err
	}
	defer done()

	cards, err := e.Cards(ctx, owner())
	if err != nil {
		return err
	}
	if len(args) == 1 {
		c, err := resolveCard(ctx, e, args[0])
		if err != nil {
			return err
		}
		cards = []model.CreditCard{c}
	}
	bills, err := ownerBills(ctx, e, cards)
	if err != nil {
		return err
	}
	printBills(e, "Bills", cards, bills, "\n  No bills yet. Open one with `grana card bill open <card>`.")
	return nil
}

func runBillRefresh(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	e, done, err := openEngine(cmd)
	if err != nil {
		return err
	}
	defer done()

	id, err := resolveBill(ctx, e, args[0])
	if err != nil {
		return err
	}
	b, err := e.RefreshBill(ctx, id)
	if err != nil {
		return err
	}
	fmt.Printf("\n  Bill %s total is %s.\n\n", cli.ShortID(b.ID), cli.FormatMoney(b.Total))
	return nil
}

func runBillClose(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	e, done, err := openEngine(cmd)
	if err != nil {
		return err
	}
	defer done()

	id, err := resolveBill(ctx, e, args[0])
	if err != nil {
		return err
	}
	b, err := e.CloseBill(ctx, id)
	if err != nil {
		return err
	}
	fmt.Printf("\n  Closed bill %s at %s, due %s.\n\n", cli.ShortID(b.ID), cli.FormatMoney(b.Total), cli.FormatDate(b.DueDate))
	return nil
}

func runBillPay(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	amount, err := parseAmount("amount", args[1])
	if err != nil {
		return err
	}
	e, done, err := openEngine(cmd)
	if err != nil {
		return err
	}
	defer done()

	id, err := resolveBill(ctx, e, args[0])
	if err != nil {
		return err
	}
	p := model.BillPayment{Amount: amount, Description: flagBillDesc}
	if flagBillDate != "" {
		if p.Date, err = parseDate(e, flagBillDate); err != nil {
			return err
		}
	}
	if flagBillFrom != "" {
		a, err := resolveAccount(ctx, e, flagBillFrom)
		if err != nil {
			return err
		}
		p.From = &a.ID
	}

	b, tx, err := e.PayBill(ctx, id, p)
	if err != nil {
		return err
	}
	fmt.Printf("\n  Paid %s on bill %s: %s remaining, %s.\n", cli.FormatMoney(amount), cli.ShortID(b.ID),
		cli.FormatMoney(b.Remaining()), b.StatusAt(e.Today()))
	if tx != nil {
		fmt.Printf("  Posted expense %s.\n", cli.ShortID(tx.ID))
	}
	fmt.Println()
	return nil
}

func runBillUpcoming(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	e, done, err := openEngine(cmd)
	if err != nil {
		return err
	}
	defer done()

	bills, err := e.UpcomingBills(ctx, owner(), flagBillDays)
	if err != nil {
		return err
	}
	cards, err := e.Cards(ctx, owner())
	if err != nil {
		return err
	}
	printBills(e, fmt.Sprintf("Due within %s", cli.FormatDays(flagBillDays)), cards, bills, "\n  No unpaid bills due soon.")
	return nil
}

func runBillOverdue(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	e, done, err := openEngine(cmd)
	if err != nil {
		return err
	}
	defer done()

	bills, err := e.OverdueBills(ctx, owner())
	if err != nil {
		return err
	}
	cards, err := e.Cards(ctx, owner())
	if err != nil {
		return err
	}
	printBills(e, "Overdue bills", cards, bills, "\n  No overdue bills.")
	return nil
}

func ownerBills(ctx context.Context, e *engine.Engine, cards []model.CreditCard) ([]model.CreditCardBill, error) {
	var out []model.CreditCardBill
	for _, c := range cards {
		bills, err := e.CardBills(ctx, c.ID)
		if err != nil {
			return nil, err
		}
		out = append(out, bills...)
	}
	return out, nil
}

// resolveBill accepts a full id or a prefix of one of the owner's bills.
func resolveBill(ctx context.Context, e *engine.Engine, ref string) (uuid.UUID, error) {
	if id, err := uuid.Parse(ref); err == nil {
		b, err := e.Bill(ctx, id)
		if err != nil {
			return uuid.Nil, err
		}
		return b.ID, nil
	}
	cards, err := e.Cards(ctx, owner())
	if err != nil {
		return uuid.Nil, err
	}
	bills, err := ownerBills(ctx, e, cards)
	if err != nil {
		return uuid.Nil, err
	}
	ids := make([]uuid.UUID, len(bills))
	for i, b := range bills {
		ids[i] = b.ID
	}
	return cli.ResolveID(ref, ids)
}

func printBills(e *engine.Engine, title string, cards []model.CreditCard, bills []model.CreditCardBill, empty string) {
	if len(bills) == 0 {
		fmt.Println(empty)
		return
	}
	names := make(map[uuid.UUID]string, len(cards))
	for _, c := range cards {
		names[c.ID] = c.Name
	}
	today := e.Today()
	rows := make([][]string, 0, len(bills))
	for _, b := range bills {
		status := b.StatusAt(today)
		due := cli.FormatDate(b.DueDate)
		if status != model.BillPaid {
			due += " (" + dueIn(b.DaysUntilDue(today)) + ")"
		}
		rows = append(rows, []string{
			names[b.CardID],
			cli.FormatMonth(b.ReferenceMonth),
			cli.ShortID(b.ID),
			cli.FormatDate(b.PeriodStart) + " to " + cli.FormatDate(b.ClosingDate),
			due,
			billStatusStyle(status).Render(string(status)),
			cli.FormatMoney(b.Total),
			cli.FormatMoney(b.Paid),
			cli.FormatMoney(b.Remaining()),
		})
	}
	fmt.Println()
	fmt.Print(cli.RenderTable(cli.Table{
		Title:    title,
		Headers:  []string{"Card", "Month", "ID", "Cycle", "Due", "Status", "Total", "Paid", "Remaining"},
		Rows:     rows,
		TextCols: 6,
	}))
}

func dueIn(days int) string {
	switch {
	case days < 0:
		return cli.FormatDays(-days) + " late"
	case days == 0:
		return "today"
	}
	return "in " + cli.FormatDays(days)
}

func billStatusStyle(s model.BillStatus) lipgloss.Style {
	switch s {
	case model.BillOverdue:
		return cli.LevelStyle(model.LevelCritical)
	case model.BillClosed:
		return cli.LevelStyle(model.LevelMedium)
	}
	return cli.LevelStyle(model.LevelLow)
}
