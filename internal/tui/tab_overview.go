package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/grana/internal/cli"
	"github.com/theirongolddev/grana/internal/tui/components"
	"github.com/theirongolddev/grana/internal/tui/theme"
)

func (a App) renderOverviewTab(cw int) string {
	t := theme.Active
	d := a.data
	var b strings.Builder

	// Row 1: headline numbers
	net := d.monthIncome - d.monthExpense
	netColor := t.Income
	if net < 0 {
		netColor = t.Expense
	}
	alertColor := t.TextPrimary
	if len(d.alerts) > 0 {
		alertColor = t.High
	}
	metrics := []components.Metric{
		{Label: "Net worth", Value: cli.FormatMoney(d.netWorth()), Note: fmt.Sprintf("%d accounts · %d cards", len(d.accounts), len(d.cards))},
		{Label: "Income", Value: cli.FormatMoney(d.monthIncome), Note: cli.FormatMonth(a.month), Color: t.Income},
		{Label: "Expenses", Value: cli.FormatMoney(d.monthExpense), Note: "net " + cli.FormatSigned(net), Color: netColor},
		{Label: "Alerts", Value: fmt.Sprintf("%d", len(d.alerts)), Note: fmt.Sprintf("%d over · %d near", d.overview.OverBudget, d.overview.NearLimit), Color: alertColor},
	}
	b.WriteString(components.MetricRow(metrics, cw))
	b.WriteString("\n")

	// Row 2: accounts next to cards
	halves := components.LayoutRow(cw, 2)
	accounts := components.ContentCard("Accounts", a.accountLines(components.CardInnerWidth(halves[0])), halves[0], false)
	cards := components.ContentCard("Credit cards", a.cardLines(components.CardInnerWidth(halves[1])), halves[1], false)
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, accounts, cards))
	b.WriteString("\n")

	// Row 3: daily spending
	spark := lipgloss.NewStyle().Foreground(t.Expense).Render(cli.RenderSparkline(d.dailyExpense))
	axis := lipgloss.NewStyle().Foreground(t.TextDim).
		Render(fmt.Sprintf("1%*d", max(len(d.dailyExpense)-1, 1), len(d.dailyExpense)))
	b.WriteString(components.ContentCard("Daily spending · "+cli.FormatMonth(a.month), spark+"\n"+axis, cw, false))

	return b.String()
}

func (a App) accountLines(w int) string {
	t := theme.Active
	muted := lipgloss.NewStyle().Foreground(t.TextMuted)
	if len(a.data.accounts) == 0 {
		return muted.Render("No accounts yet: grana account add <name>")
	}

	var lines []string
	for _, acc := range a.data.accounts {
		name := acc.Name
		nameStyle := lipgloss.NewStyle().Foreground(t.TextPrimary)
		if !acc.Active {
			name += " (closed)"
			nameStyle = muted
		}
		value := cli.FormatMoney(acc.CurrentBalance)
		valueStyle := lipgloss.NewStyle().Foreground(t.TextPrimary)
		if acc.CurrentBalance < 0 {
			valueStyle = valueStyle.Foreground(t.Expense)
		}
		nameW := max(w-lipgloss.Width(value)-1, 4)
		lines = append(lines, nameStyle.Render(fmt.Sprintf("%-*s", nameW, cli.Truncate(name, nameW)))+" "+valueStyle.Render(value))
	}
	return strings.Join(lines, "\n")
}

func (a App) cardLines(w int) string {
	t := theme.Active
	if len(a.data.cards) == 0 {
		return lipgloss.NewStyle().Foreground(t.TextMuted).Render("No cards yet: grana card add <name> --limit <amount>")
	}

	labelW := min(16, w/3)
	barW := max(w-labelW-8, 4)
	var lines []string
	for _, c := range a.data.cards {
		pct := c.UsagePercentage()
		lines = append(lines, components.UsageBar(c.Name, pct, cli.UsageLevel(pct), labelW, barW))
		lines = append(lines, lipgloss.NewStyle().Foreground(t.TextDim).Render(
			fmt.Sprintf("%s used · %s free", cli.FormatMoney(c.UsedLimit()), cli.FormatMoney(c.AvailableLimit))))
	}
	for _, b := range a.data.bills {
		color := t.Medium
		if b.IsOverdue(a.data.today) {
			color = t.Critical
		}
		lines = append(lines, lipgloss.NewStyle().Foreground(color).Render(cli.Truncate(
			fmt.Sprintf("bill %s %s due %s", a.data.name(b.CardID), cli.FormatMoney(b.Remaining()), cli.FormatDate(b.DueDate)), w)))
	}
	return strings.Join(lines, "\n")
}
