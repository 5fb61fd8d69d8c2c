package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/grana/internal/cli"
	"github.com/theirongolddev/grana/internal/model"
	"github.com/theirongolddev/grana/internal/tui/components"
	"github.com/theirongolddev/grana/internal/tui/theme"
)

func (a App) renderBudgetsTab(cw int) string {
	t := theme.Active
	ov := a.data.overview
	var b strings.Builder

	pct := ov.Percentage()
	metrics := []components.Metric{
		{Label: "Budgeted", Value: cli.FormatMoney(ov.TotalBudget), Note: fmt.Sprintf("%d budgets", len(ov.Budgets))},
		{Label: "Spent", Value: cli.FormatMoney(ov.TotalSpent), Note: cli.FormatPercent(pct), Color: t.ForLevel(cli.UsageLevel(pct))},
		{Label: "Over budget", Value: fmt.Sprintf("%d", ov.OverBudget), Color: t.Critical},
		{Label: "Near limit", Value: fmt.Sprintf("%d", ov.NearLimit), Color: t.Medium},
	}
	b.WriteString(components.MetricRow(metrics, cw))
	b.WriteString("\n")

	inner := components.CardInnerWidth(cw)
	muted := lipgloss.NewStyle().Foreground(t.TextMuted)
	dim := lipgloss.NewStyle().Foreground(t.TextDim)

	var body string
	if len(ov.Budgets) == 0 {
		body = muted.Render("No budgets for this month: grana budget set <category> <amount>")
	} else {
		labelW := 16
		barW := max(inner-labelW-8, 4)
		var lines []string
		for _, m := range ov.Budgets {
			lines = append(lines, components.UsageBar(a.data.name(m.Budget.CategoryID), m.Percentage, m.AlertLevel, labelW, barW))
			lines = append(lines, dim.Render(fmt.Sprintf("%*s%s of %s · %s · %s",
				labelW+1, "", cli.FormatMoney(m.Spent), cli.FormatMoney(m.Budget.Amount),
				trendLabel(m.Trend), cli.Truncate(m.Message(), max(inner-labelW-40, 10)))))
		}
		body = strings.Join(lines, "\n")
	}
	b.WriteString(components.ContentCard("Budgets · "+cli.FormatMonth(a.month), body, cw, false))
	b.WriteString("\n")

	b.WriteString(components.ContentCard("Active alerts", a.alertLines(inner), cw, len(a.data.alerts) > 0))
	return b.String()
}

func (a App) alertLines(w int) string {
	t := theme.Active
	if len(a.data.alerts) == 0 {
		return lipgloss.NewStyle().Foreground(t.TextMuted).Render("No active alerts.")
	}
	var lines []string
	for _, al := range a.data.alerts {
		level := lipgloss.NewStyle().Foreground(t.ForLevel(al.Level)).Bold(true).
			Render(fmt.Sprintf("%-8s", strings.ToUpper(string(al.Level))))
		id := lipgloss.NewStyle().Foreground(t.TextDim).Render(cli.ShortID(al.ID))
		lines = append(lines, level+" "+id+" "+cli.Truncate(al.Message, max(w-19, 10)))
	}
	return strings.Join(lines, "\n")
}

func trendLabel(tr model.Trend) string {
	switch tr {
	case model.TrendAccelerating:
		return "▲ accelerating"
	case model.TrendDecelerating:
		return "▼ slowing"
	case model.TrendStable:
		return "● stable"
	case model.TrendCompleted:
		return "month closed"
	}
	return "too early to tell"
}
