package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/grana/internal/cli"
	"github.com/theirongolddev/grana/internal/goals"
	"github.com/theirongolddev/grana/internal/model"
	"github.com/theirongolddev/grana/internal/money"
	"github.com/theirongolddev/grana/internal/tui/components"
	"github.com/theirongolddev/grana/internal/tui/theme"
)

func (a App) renderGoalsTab(cw int) string {
	t := theme.Active
	rows := a.data.goals

	if len(rows) == 0 {
		return components.ContentCard("Goals",
			lipgloss.NewStyle().Foreground(t.TextMuted).Render("No goals yet: grana goal add <name> <target> --by YYYY-MM-DD"),
			cw, false)
	}

	var saved, target money.Amount
	achieved := 0
	for _, r := range rows {
		saved += r.goal.CurrentAmount
		target += r.goal.TargetAmount
		if r.goal.Achieved {
			achieved++
		}
	}
	var b strings.Builder
	metrics := []components.Metric{
		{Label: "Goals", Value: fmt.Sprintf("%d", len(rows)), Note: fmt.Sprintf("%d achieved", achieved)},
		{Label: "Saved", Value: cli.FormatMoney(saved), Color: t.Income},
		{Label: "Target", Value: cli.FormatMoney(target), Note: "still " + cli.FormatMoney(money.Max(target-saved, 0))},
	}
	b.WriteString(components.MetricRow(metrics, cw))
	b.WriteString("\n")

	inner := components.CardInnerWidth(cw)
	labelW := 18
	barW := max(inner-labelW-8, 4)
	dim := lipgloss.NewStyle().Foreground(t.TextDim)

	var lines []string
	for _, r := range rows {
		lines = append(lines, components.UsageBar(r.goal.Name, r.progress.Percentage, goalLevel(r.pace.Status), labelW, barW))
		status := lipgloss.NewStyle().Foreground(t.ForLevel(goalLevel(r.pace.Status))).Render(paceLabel(r.pace.Status))
		lines = append(lines, fmt.Sprintf("%*s%s %s", labelW+1, "", status, dim.Render(goalDetail(r))))
	}
	b.WriteString(components.ContentCard("Progress", strings.Join(lines, "\n"), cw, false))
	return b.String()
}

func goalDetail(r goalRow) string {
	g := r.goal
	parts := []string{cli.FormatMoney(g.CurrentAmount) + " of " + cli.FormatMoney(g.TargetAmount)}
	switch {
	case g.Achieved:
		if g.AchievedAt != nil {
			parts = append(parts, "reached "+cli.FormatDate(*g.AchievedAt))
		}
	case r.progress.Overdue:
		parts = append(parts, "target date passed "+cli.FormatDate(g.TargetDate))
	default:
		parts = append(parts,
			cli.FormatDays(r.progress.DaysRemaining)+" left",
			cli.FormatMoney(r.pace.MonthlyNeeded)+"/month needed")
		if r.pace.EstimatedCompletion != nil {
			parts = append(parts, "eta "+cli.FormatDate(*r.pace.EstimatedCompletion))
		}
	}
	return strings.Join(parts, " · ")
}

// goalLevel maps pace onto the alert color scale.
func goalLevel(s goals.PaceStatus) model.AlertLevel {
	switch s {
	case goals.PaceFarBehind:
		return model.LevelCritical
	case goals.PaceBehind:
		return model.LevelMedium
	}
	return model.LevelLow
}

func paceLabel(s goals.PaceStatus) string {
	switch s {
	case goals.PaceAchieved:
		return "achieved"
	case goals.PaceOnTrack:
		return "on track"
	case goals.PaceBehind:
		return "behind"
	}
	return "far behind"
}
