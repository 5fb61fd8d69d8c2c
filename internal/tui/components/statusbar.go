package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/grana/internal/tui/theme"
)

// RenderStatusBar renders the bottom status bar: key hints on the left and
// the right-hand info (owner, month, data age) right-aligned.
func RenderStatusBar(width int, right string) string {
	t := theme.Active

	style := lipgloss.NewStyle().
		Foreground(t.TextMuted).
		Background(t.Surface).
		Width(width)

	left := " [?]help  [r]efresh  [<>]month  [q]uit"
	if right != "" {
		right += " "
	}
	padding := max(width-lipgloss.Width(left)-lipgloss.Width(right), 0)
	return style.Render(left + strings.Repeat(" ", padding) + right)
}
