package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/grana/internal/tui/theme"
)

// Tab represents a single tab in the tab bar.
type Tab struct {
	Name   string
	Key    rune
	KeyPos int // position of the shortcut letter in the name
}

// Tabs defines all available tabs.
var Tabs = []Tab{
	{Name: "Overview", Key: 'o', KeyPos: 0},
	{Name: "Transactions", Key: 't', KeyPos: 0},
	{Name: "Budgets", Key: 'b', KeyPos: 0},
	{Name: "Goals", Key: 'g', KeyPos: 0},
}

const tabSeparator = " "

func renderTab(tab Tab, active bool) string {
	t := theme.Active
	if active {
		return lipgloss.NewStyle().
			Foreground(t.Accent).
			Background(t.SurfaceHover).
			Bold(true).
			Padding(0, 1).
			Render(tab.Name)
	}

	name := lipgloss.NewStyle().Foreground(t.TextMuted)
	key := lipgloss.NewStyle().Foreground(t.Accent).Bold(true)
	pad := lipgloss.NewStyle().Padding(0, 1)
	return pad.Render(name.Render(tab.Name[:tab.KeyPos]) +
		key.Render(tab.Name[tab.KeyPos:tab.KeyPos+1]) +
		name.Render(tab.Name[tab.KeyPos+1:]))
}

// RenderTabBar renders a one-row tab bar with the given active index.
func RenderTabBar(activeIdx int, width int) string {
	parts := make([]string, len(Tabs))
	for i, tab := range Tabs {
		parts[i] = renderTab(tab, i == activeIdx)
	}
	row := strings.Join(parts, tabSeparator)
	return lipgloss.NewStyle().Width(width).Render(row)
}

// TabAtX returns the tab index at column x of the tab bar, or -1.
func TabAtX(activeIdx, x int) int {
	pos := 0
	for i, tab := range Tabs {
		w := lipgloss.Width(renderTab(tab, i == activeIdx))
		if x >= pos && x < pos+w {
			return i
		}
		pos += w + lipgloss.Width(tabSeparator)
	}
	return -1
}

// TabIdxByKey returns the tab index for a given key press, or -1.
func TabIdxByKey(key rune) int {
	for i, tab := range Tabs {
		if tab.Key == key {
			return i
		}
	}
	return -1
}
