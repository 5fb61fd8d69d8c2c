package cmd

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/theirongolddev/grana/internal/cli"
	"github.com/theirongolddev/grana/internal/goals"
	"github.com/theirongolddev/grana/internal/model"
)

var (
	flagGoalBy    string
	flagGoalDesc  string
	flagGoalDate  string
	flagGoalFrom  string
	flagGoalPurge bool
)

var goalCmd = &cobra.Command{
	Use:     "goal",
	Aliases: []string{"goals"},
	Short:   "Savings goals",
	RunE:    runGoalList,
}

var goalAddCmd = &cobra.Command{
	Use:   "add <name> <target>",
	Short: "Create a savings goal",
	Args:  cobra.ExactArgs(2),
	RunE:  runGoalAdd,
}

var goalContributeCmd = &cobra.Command{
	Use:     "contribute <goal> <amount>",
	Aliases: []string{"save"},
	Short:   "Record money set aside for a goal",
	Args:    cobra.ExactArgs(2),
	RunE:    runGoalContribute,
}

var goalShowCmd = &cobra.Command{
	Use:   "show <goal>",
	Short: "Show progress, pace and advice for a goal",
	Args:  cobra.ExactArgs(1),
	RunE:  runGoalShow,
}

var goalListCmd = &cobra.Command{
	Use:   "list",
	Short: "List goals",
	RunE:  runGoalList,
}

var goalResetCmd = &cobra.Command{
	Use:   "reset <goal>",
	Short: "Set a goal's progress back to zero",
	Args:  cobra.ExactArgs(1),
	RunE:  runGoalReset,
}

func init() {
	goalAddCmd.Flags().StringVar(&flagGoalBy, "by", "", "Target date as YYYY-MM-DD")
	goalAddCmd.Flags().StringVar(&flagGoalDesc, "desc", "", "Description")
	_ = goalAddCmd.MarkFlagRequired("by")

	goalContributeCmd.Flags().StringVarP(&flagGoalDate, "date", "d", "", "Date as YYYY-MM-DD (default today)")
	goalContributeCmd.Flags().StringVar(&flagGoalDesc, "desc", "", "Description (default \""+goals.DefaultContributionDescription+"\")")
	goalContributeCmd.Flags().StringVar(&flagGoalFrom, "from", "", "Account the money came from (informational)")

	goalResetCmd.Flags().BoolVar(&flagGoalPurge, "purge", false, "Also delete the goal's contributions")

	goalCmd.AddCommand(goalAddCmd, goalContributeCmd, goalShowCmd, goalListCmd, goalResetCmd)
	rootCmd.AddCommand(goalCmd)
}

func runGoalAdd(cmd *cobra.Command, args []string) error {
	target, err := parseAmount("target", args[1])
	if err != nil {
		return err
	}
	by, err := model.ParseDate(flagGoalBy)
	if err != nil {
		return model.Invalid("target_date", "%q is not a YYYY-MM-DD date", flagGoalBy)
	}

	e, done, err := openEngine(cmd)
	if err != nil {
		return err
	}
	defer done()

	g, err := e.CreateGoal(cmd.Context(), goals.GoalInput{
		Owner:       owner(),
		Name:        args[0],
		Description: flagGoalDesc,
		Target:      target,
		TargetDate:  by,
	})
	if err != nil {
		return err
	}
	fmt.Printf("\n  Goal %q: save %s by %s (%s).\n\n", g.Name, cli.FormatMoney(g.TargetAmount), cli.FormatDate(g.TargetDate), cli.ShortID(g.ID))
	return nil
}

func runGoalContribute(cmd *cobra.Command, args []string) error {
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

	g, err := resolveGoal(ctx, e, args[0])
	if err != nil {
		return err
	}
	date, err := parseDate(e, flagGoalDate)
	if err != nil {
		return err
	}
	var source *uuid.UUID
	if flagGoalFrom != "" {
		a, err := resolveAccount(ctx, e, flagGoalFrom)
		if err != nil {
			return err
		}
		source = &a.ID
	}

	res, err := e.ContributeToGoal(ctx, g.ID, goals.ContributionInput{
		Amount:        amount,
		Description:   flagGoalDesc,
		Date:          date,
		SourceAccount: source,
	})
	if err != nil {
		return err
	}

	fmt.Printf("\n  Added %s to %q: %s of %s.\n", cli.FormatMoney(res.Contribution.Amount), res.Goal.Name,
		cli.FormatMoney(res.Goal.CurrentAmount), cli.FormatMoney(res.Goal.TargetAmount))
	if res.Achieved {
		fmt.Println("  " + cli.LevelStyle(model.LevelLow).Render("Goal achieved!"))
	}
	fmt.Println()
	return nil
}

func runGoalShow(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	e, done, err := openEngine(cmd)
	if err != nil {
		return err
	}
	defer done()

	g, err := resolveGoal(ctx, e, args[0])
	if err != nil {
		return err
	}
	r, err := e.GoalReport(ctx, g.ID)
	if err != nil {
		return err
	}

	status := paceStyle(r.Pace.Status)
	eta := "-"
	if r.Pace.EstimatedCompletion != nil {
		eta = cli.FormatDate(*r.Pace.EstimatedCompletion)
	}
	rows := [][]string{
		{"Target", cli.FormatMoney(r.Goal.TargetAmount) + " by " + cli.FormatDate(r.Goal.TargetDate)},
		{"Saved", cli.FormatMoney(r.Goal.CurrentAmount)},
		{"Remaining", cli.FormatMoney(r.Progress.Remaining)},
		{"Progress", cli.RenderProgressBar(r.Progress.Percentage, 20, status)},
		{"Days left", cli.FormatDays(r.Progress.DaysRemaining)},
		{"---"},
		{"Pace", status.Render(string(r.Pace.Status))},
		{"Needed per day", cli.FormatMoney(r.Pace.DailyNeeded)},
		{"Needed per week", cli.FormatMoney(r.Pace.WeeklyNeeded)},
		{"Needed per month", cli.FormatMoney(r.Pace.MonthlyNeeded)},
		{"Estimated finish", eta},
		{"Contributions", fmt.Sprintf("%d, trend %s", len(r.Contributions), r.Trend)},
	}
	if r.Contributed != r.Goal.CurrentAmount {
		rows = append(rows, []string{"Contributed (all)", cli.FormatMoney(r.Contributed)})
	}

	fmt.Println()
	fmt.Print(cli.RenderTable(cli.Table{
		Title:    r.Goal.Name,
		Rows:     rows,
		TextCols: 2,
	}))
	if len(r.Recommendations) > 0 {
		fmt.Println()
		for _, rec := range r.Recommendations {
			fmt.Println("  " + cli.Muted("• "+rec))
		}
	}
	fmt.Println()
	return nil
}

func runGoalList(cmd *cobra.Command, _ []string) error {
	e, done, err := openEngine(cmd)
	if err != nil {
		return err
	}
	defer done()

	list, err := e.Goals(cmd.Context(), owner())
	if err != nil {
		return err
	}
	if len(list) == 0 {
		fmt.Println("\n  No goals yet. Create one with `grana goal add <name> <target> --by YYYY-MM-DD`.")
		return nil
	}

	today := e.Today()
	rows := make([][]string, 0, len(list))
	for _, g := range list {
		p := goals.ProgressOf(g, today)
		pace := goals.PaceOf(g, today)
		rows = append(rows, []string{
			g.Name,
			cli.ShortID(g.ID),
			cli.FormatDate(g.TargetDate),
			paceStyle(pace.Status).Render(string(pace.Status)),
			cli.FormatMoney(g.CurrentAmount),
			cli.FormatMoney(g.TargetAmount),
			cli.FormatPercent(p.Percentage),
		})
	}
	fmt.Println()
	fmt.Print(cli.RenderTable(cli.Table{
		Title:    "Goals",
		Headers:  []string{"Name", "ID", "Due", "Pace", "Saved", "Target", "Done"},
		Rows:     rows,
		TextCols: 4,
	}))
	return nil
}

func runGoalReset(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	e, done, err := openEngine(cmd)
	if err != nil {
		return err
	}
	defer done()

	g, err := resolveGoal(ctx, e, args[0])
	if err != nil {
		return err
	}
	if _, err := e.ResetGoal(ctx, g.ID, flagGoalPurge); err != nil {
		return err
	}
	msg := "progress reset"
	if flagGoalPurge {
		msg += ", contributions deleted"
	}
	fmt.Printf("\n  Goal %q: %s.\n\n", g.Name, msg)
	return nil
}

func paceStyle(s goals.PaceStatus) lipgloss.Style {
	switch s {
	case goals.PaceAchieved, goals.PaceOnTrack:
		return cli.LevelStyle(model.LevelLow)
	case goals.PaceBehind:
		return cli.LevelStyle(model.LevelMedium)
	}
	return cli.LevelStyle(model.LevelCritical)
}
