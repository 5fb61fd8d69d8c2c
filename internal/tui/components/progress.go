package components

import (
	"fmt"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/grana/internal/model"
	"github.com/theirongolddev/grana/internal/tui/theme"
)

// UsageBar renders a labeled bar for a 0-100 percentage colored by level.
// Percentages past 100 fill the bar; the label still shows the real value.
func UsageBar(label string, pct float64, level model.AlertLevel, labelW, barW int) string {
	t := theme.Active
	color := t.ForLevel(level)

	bar := progress.New(
		progress.WithSolidFill(string(color)),
		progress.WithWidth(max(barW, 4)),
		progress.WithoutPercentage(),
	)
	bar.EmptyColor = string(t.TextDim)

	labelStyle := lipgloss.NewStyle().Foreground(t.TextMuted)
	pctStyle := lipgloss.NewStyle().Foreground(color).Bold(true)

	return labelStyle.Render(fmt.Sprintf("%-*s", labelW, truncate(label, labelW))) + " " +
		bar.ViewAs(min(max(pct/100, 0), 1)) + " " +
		pctStyle.Render(fmt.Sprintf("%5.1f%%", pct))
}

func truncate(s string, n int) string {
	r := []rune(s)
	if n <= 0 || len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
