package cmd

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/theirongolddev/grana/internal/budget"
	"github.com/theirongolddev/grana/internal/cli"
	"github.com/theirongolddev/grana/internal/model"
)

var (
	flagBudgetMonth string
	flagAlertsCheck bool
)

var budgetCmd = &cobra.Command{
	Use:     "budget",
	Aliases: []string{"budgets"},
	Short:   "Monthly category budgets and alerts",
	RunE:    runBudgetOverview,
}

var budgetSetCmd = &cobra.Command{
	Use:   "set <category> <amount>",
	Short: "Create or change the budget of a category for a month",
	Args:  cobra.ExactArgs(2),
	RunE:  runBudgetSet,
}

var budgetShowCmd = &cobra.Command{
	Use:   "show <category>",
	Short: "Show the analysis of one budget",
	Args:  cobra.ExactArgs(1),
	RunE:  runBudgetShow,
}

var budgetOverviewCmd = &cobra.Command{
	Use:   "overview",
	Short: "Show every budget of a month",
	RunE:  runBudgetOverview,
}

var budgetAlertsCmd = &cobra.Command{
	Use:   "alerts",
	Short: "List active budget alerts",
	RunE:  runBudgetAlerts,
}

var budgetResolveCmd = &cobra.Command{
	Use:   "resolve <alert-id>",
	Short: "Dismiss an active alert",
	Args:  cobra.ExactArgs(1),
	RunE:  runBudgetResolve,
}

func init() {
	for _, c := range []*cobra.Command{budgetCmd, budgetSetCmd, budgetShowCmd, budgetOverviewCmd, budgetAlertsCmd} {
		c.Flags().StringVarP(&flagBudgetMonth, "month", "m", "", "Month as YYYY-MM (default current)")
	}
	budgetAlertsCmd.Flags().BoolVar(&flagAlertsCheck, "check", true, "Re-evaluate the month's budgets before listing")

	budgetCmd.AddCommand(budgetSetCmd, budgetShowCmd, budgetOverviewCmd, budgetAlertsCmd, budgetResolveCmd)
	rootCmd.AddCommand(budgetCmd)
}

func runBudgetSet(cmd *cobra.Command, args []string) error {
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

	month, err := parseMonth(e, flagBudgetMonth)
	if err != nil {
		return err
	}
	category, err := e.CategoryByName(ctx, args[0])
	if err != nil {
		return err
	}
	budgets, err := e.Budgets(ctx, owner(), month)
	if err != nil {
		return err
	}

	var b *model.Budget
	for _, existing := range budgets {
		if existing.CategoryID == category.ID {
			b, err = e.SetBudgetAmount(ctx, existing.ID, amount)
			break
		}
	}
	if b == nil && err == nil {
		b, err = e.CreateBudget(ctx, owner(), category.ID, month, amount)
	}
	if err != nil {
		return err
	}

	fmt.Printf("\n  Budget for %s in %s set to %s.\n\n", category.Name, cli.FormatMonth(b.Month), cli.FormatMoney(b.Amount))
	return nil
}

func runBudgetShow(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	e, done, err := openEngine(cmd)
	if err != nil {
		return err
	}
	defer done()

	month, err := parseMonth(e, flagBudgetMonth)
	if err != nil {
		return err
	}
	category, err := e.CategoryByName(ctx, args[0])
	if err != nil {
		return err
	}
	m, err := e.BudgetMetrics(ctx, owner(), category.ID, month)
	if err != nil {
		return err
	}

	style := cli.LevelStyle(m.AlertLevel)
	rows := [][]string{
		{"Budget", cli.FormatMoney(m.Budget.Amount)},
		{"Spent", cli.FormatMoney(m.Spent)},
		{"Remaining", cli.FormatMoney(m.Remaining)},
		{"Used", cli.RenderProgressBar(m.Percentage, 20, style)},
		{"---"},
		{"Daily average", cli.FormatMoney(m.DailyAverage)},
		{"Days elapsed", fmt.Sprintf("%d of %d", m.DaysElapsed, m.DaysInMonth)},
	}
	if m.Period == budget.PeriodCurrent {
		rows = append(rows,
			[]string{"Projected", cli.FormatMoney(m.ProjectedMonthly)},
			[]string{"Projected overspend", cli.FormatMoney(m.ProjectedOverspend)},
			[]string{"Limit reached in", cli.FormatDays(m.DaysUntilLimit)},
		)
	}
	rows = append(rows,
		[]string{"Trend", string(m.Trend)},
		[]string{"---"},
		[]string{"Level", style.Render(string(m.AlertLevel))},
	)

	fmt.Println()
	fmt.Print(cli.RenderTable(cli.Table{
		Title:    fmt.Sprintf("%s  %s", category.Name, cli.FormatMonth(m.Budget.Month)),
		Rows:     rows,
		TextCols: 2,
	}))
	fmt.Println()
	fmt.Println("  " + style.Render(m.Message()))
	for _, r := range m.Recommendations() {
		fmt.Println("  " + cli.Muted("• "+r))
	}
	fmt.Println()
	return nil
}

func runBudgetOverview(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	e, done, err := openEngine(cmd)
	if err != nil {
		return err
	}
	defer done()

	month, err := parseMonth(e, flagBudgetMonth)
	if err != nil {
		return err
	}
	ov, err := e.MonthOverview(ctx, owner(), month)
	if err != nil {
		return err
	}
	if len(ov.Budgets) == 0 {
		fmt.Printf("\n  No budgets for %s. Set one with `grana budget set <category> <amount>`.\n", cli.FormatMonth(month))
		return nil
	}
	names, err := loadNames(ctx, e)
	if err != nil {
		return err
	}

	rows := make([][]string, 0, len(ov.Budgets)+2)
	for _, m := range ov.Budgets {
		style := cli.LevelStyle(m.AlertLevel)
		rows = append(rows, []string{
			names.category(m.Budget.CategoryID),
			style.Render(string(m.AlertLevel)),
			string(m.Trend),
			cli.FormatMoney(m.Budget.Amount),
			cli.FormatMoney(m.Spent),
			cli.FormatMoney(m.Remaining),
			cli.FormatPercent(m.Percentage),
		})
	}
	rows = append(rows, []string{"---"}, []string{
		"Total", "", "",
		cli.FormatMoney(ov.TotalBudget),
		cli.FormatMoney(ov.TotalSpent),
		cli.FormatMoney(ov.TotalBudget - ov.TotalSpent),
		cli.FormatPercent(ov.Percentage()),
	})

	fmt.Println()
	fmt.Println(cli.RenderTitle("BUDGETS  " + cli.FormatMonth(ov.Month)))
	fmt.Println()
	fmt.Print(cli.RenderTable(cli.Table{
		Headers:  []string{"Category", "Level", "Trend", "Budget", "Spent", "Remaining", "Used"},
		Rows:     rows,
		TextCols: 3,
	}))
	if ov.OverBudget > 0 || ov.NearLimit > 0 {
		fmt.Printf("\n  %d over budget, %d near the limit\n", ov.OverBudget, ov.NearLimit)
	}
	return nil
}

func runBudgetAlerts(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	e, done, err := openEngine(cmd)
	if err != nil {
		return err
	}
	defer done()

	if flagAlertsCheck {
		month, err := parseMonth(e, flagBudgetMonth)
		if err != nil {
			return err
		}
		if _, err := e.GenerateAllAlerts(ctx, owner(), month); err != nil {
			return err
		}
	}
	alerts, err := e.ActiveAlerts(ctx, owner())
	if err != nil {
		return err
	}
	if len(alerts) == 0 {
		fmt.Println("\n  No active alerts.")
		return nil
	}

	rows := make([][]string, 0, len(alerts))
	for _, a := range alerts {
		rows = append(rows, []string{
			cli.ShortID(a.ID),
			cli.LevelStyle(a.Level).Render(string(a.Level)),
			string(a.Type),
			a.Message,
			cli.FormatDate(a.CreatedAt),
		})
	}
	fmt.Println()
	fmt.Print(cli.RenderTable(cli.Table{
		Title:    "Active alerts",
		Headers:  []string{"ID", "Level", "Type", "Message", "Since"},
		Rows:     rows,
		TextCols: 5,
	}))
	return nil
}

func runBudgetResolve(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	e, done, err := openEngine(cmd)
	if err != nil {
		return err
	}
	defer done()

	alerts, err := e.ActiveAlerts(ctx, owner())
	if err != nil {
		return err
	}
	ids := make([]uuid.UUID, len(alerts))
	for i, a := range alerts {
		ids[i] = a.ID
	}
	id, err := cli.ResolveID(args[0], ids)
	if err != nil {
		return err
	}
	a, err := e.ResolveAlert(ctx, id)
	if err != nil {
		return err
	}
	fmt.Printf("\n  Resolved %s alert %s.\n\n", a.Type, cli.ShortID(a.ID))
	return nil
}
