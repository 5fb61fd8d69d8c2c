package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/grana/internal/cli"
	"github.com/theirongolddev/grana/internal/engine"
	"github.com/theirongolddev/grana/internal/model"
	"github.com/theirongolddev/grana/internal/money"
)

var flagSummaryMonth string

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Month summary: cash flow, budgets and goals",
	RunE:  runSummary,
}

func init() {
	summaryCmd.Flags().StringVarP(&flagSummaryMonth, "month", "m", "", "Month as YYYY-MM (default current)")
	rootCmd.AddCommand(summaryCmd)
}

// flow is the income and expense total of one month.
type flow struct {
	income, expense money.Amount
	count           int
}

func (f flow) net() money.Amount { return f.income - f.expense }

// savingsRate is the share of income kept, in percent.
func (f flow) savingsRate() float64 {
	if f.income <= 0 {
		return 0
	}
	return float64(f.net()) / float64(f.income) * 100
}

func monthFlow(ctx context.Context, e *engine.Engine, month time.Time) (flow, error) {
	txs, err := e.Transactions(ctx, model.TransactionFilter{
		Owner: owner(),
		From:  model.MonthStart(month),
		To:    model.NextMonth(month).AddDate(0, 0, -1),
	})
	if err != nil {
		return flow{}, err
	}
	f := flow{count: len(txs)}
	for _, t := range txs {
		switch t.Kind() {
		case model.KindIncome:
			f.income += t.Amount
		case model.KindExpense:
			f.expense += t.Amount
		}
	}
	return f, nil
}

func runSummary(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	e, closeEngine, err := openEngine(cmd)
	if err != nil {
		return err
	}
	defer closeEngine()

	month, err := parseMonth(e, flagSummaryMonth)
	if err != nil {
		return err
	}
	cur, err := monthFlow(ctx, e, month)
	if err != nil {
		return err
	}
	prev, err := monthFlow(ctx, e, model.MonthStart(month.AddDate(0, 0, -1)))
	if err != nil {
		return err
	}
	ov, err := e.MonthOverview(ctx, owner(), month)
	if err != nil {
		return err
	}
	alerts, err := e.ActiveAlerts(ctx, owner())
	if err != nil {
		return err
	}
	goalList, err := e.Goals(ctx, owner())
	if err != nil {
		return err
	}
	accounts, err := e.Accounts(ctx, owner())
	if err != nil {
		return err
	}
	cards, err := e.Cards(ctx, owner())
	if err != nil {
		return err
	}

	var cash, debt money.Amount
	for _, a := range accounts {
		if a.Active {
			cash += a.CurrentBalance
		}
	}
	for _, c := range cards {
		debt += c.UsedLimit()
	}
	var saved, target money.Amount
	achieved := 0
	for _, g := range goalList {
		saved += g.CurrentAmount
		target += g.TargetAmount
		if g.Achieved {
			achieved++
		}
	}

	expenseStr := cli.FormatMoney(cur.expense)
	if prev.expense > 0 {
		expenseStr += fmt.Sprintf("  (%s vs last month)", cli.FormatSigned(cur.expense-prev.expense))
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle("SUMMARY  " + cli.FormatMonth(month)))
	fmt.Println()

	rows := [][]string{
		{"Transactions", cli.FormatNumber(int64(cur.count))},
		{"Income", cli.FormatMoney(cur.income)},
		{"Expenses", expenseStr},
		{"Net", cli.FormatSigned(cur.net())},
		{"Savings rate", cli.FormatPercent(cur.savingsRate())},
		{"---"},
		{"Budgeted", cli.FormatMoney(ov.TotalBudget)},
		{"Spent", fmt.Sprintf("%s  (%s)", cli.FormatMoney(ov.TotalSpent), cli.FormatPercent(ov.Percentage()))},
		{"Over / near limit", fmt.Sprintf("%d / %d", ov.OverBudget, ov.NearLimit)},
		{"Active alerts", fmt.Sprintf("%d", len(alerts))},
		{"---"},
		{"Goals", fmt.Sprintf("%d  (%d achieved)", len(goalList), achieved)},
		{"Saved", fmt.Sprintf("%s of %s", cli.FormatMoney(saved), cli.FormatMoney(target))},
		{"---"},
		{"Cash", cli.FormatMoney(cash)},
		{"Card debt", cli.FormatMoney(debt)},
		{"Net worth", cli.FormatMoney(cash - debt)},
	}

	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"Metric", "Value"},
		Rows:    rows,
	}))
	return nil
}
