// Package theme defines color themes for the grana TUI dashboard.
package theme

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/grana/internal/model"
)

// Theme defines the color roles used throughout the TUI.
type Theme struct {
	Name         string
	Background   lipgloss.Color // Main app background
	Surface      lipgloss.Color // Card/panel backgrounds
	SurfaceHover lipgloss.Color // Active tab, selected row
	Border       lipgloss.Color
	BorderAccent lipgloss.Color // Focused cards
	TextDim      lipgloss.Color // Hints, disabled
	TextMuted    lipgloss.Color // Labels, metadata
	TextPrimary  lipgloss.Color
	Accent       lipgloss.Color
	AccentBright lipgloss.Color

	// Money direction
	Income   lipgloss.Color
	Expense  lipgloss.Color
	Transfer lipgloss.Color

	// Alert levels, lowest to highest
	Low      lipgloss.Color
	Medium   lipgloss.Color
	High     lipgloss.Color
	Critical lipgloss.Color
}

// Active is the currently selected theme.
var Active = FlexokiDark

// FlexokiDark is the default theme.
var FlexokiDark = Theme{
	Name:         "flexoki-dark",
	Background:   lipgloss.Color("#100F0F"),
	Surface:      lipgloss.Color("#1C1B1A"),
	SurfaceHover: lipgloss.Color("#282726"),
	Border:       lipgloss.Color("#403E3C"),
	BorderAccent: lipgloss.Color("#3AA99F"),
	TextDim:      lipgloss.Color("#575653"),
	TextMuted:    lipgloss.Color("#878580"),
	TextPrimary:  lipgloss.Color("#FFFCF0"),
	Accent:       lipgloss.Color("#3AA99F"),
	AccentBright: lipgloss.Color("#5BC8BE"),
	Income:       lipgloss.Color("#879A39"),
	Expense:      lipgloss.Color("#D14D41"),
	Transfer:     lipgloss.Color("#4385BE"),
	Low:          lipgloss.Color("#879A39"),
	Medium:       lipgloss.Color("#D0A215"),
	High:         lipgloss.Color("#DA702C"),
	Critical:     lipgloss.Color("#D14D41"),
}

// TokyoNight is a cool blue/purple theme.
var TokyoNight = Theme{
	Name:         "tokyo-night",
	Background:   lipgloss.Color("#1A1B26"),
	Surface:      lipgloss.Color("#24283B"),
	SurfaceHover: lipgloss.Color("#343A52"),
	Border:       lipgloss.Color("#565F89"),
	BorderAccent: lipgloss.Color("#7AA2F7"),
	TextDim:      lipgloss.Color("#565F89"),
	TextMuted:    lipgloss.Color("#A9B1D6"),
	TextPrimary:  lipgloss.Color("#C0CAF5"),
	Accent:       lipgloss.Color("#7AA2F7"),
	AccentBright: lipgloss.Color("#A9C1FF"),
	Income:       lipgloss.Color("#9ECE6A"),
	Expense:      lipgloss.Color("#F7768E"),
	Transfer:     lipgloss.Color("#7DCFFF"),
	Low:          lipgloss.Color("#9ECE6A"),
	Medium:       lipgloss.Color("#E0AF68"),
	High:         lipgloss.Color("#FF9E64"),
	Critical:     lipgloss.Color("#F7768E"),
}

// Terminal uses ANSI 16 colors only.
var Terminal = Theme{
	Name:         "terminal",
	Background:   lipgloss.Color("0"),
	Surface:      lipgloss.Color("0"),
	SurfaceHover: lipgloss.Color("8"),
	Border:       lipgloss.Color("8"),
	BorderAccent: lipgloss.Color("6"),
	TextDim:      lipgloss.Color("8"),
	TextMuted:    lipgloss.Color("7"),
	TextPrimary:  lipgloss.Color("15"),
	Accent:       lipgloss.Color("6"),
	AccentBright: lipgloss.Color("14"),
	Income:       lipgloss.Color("2"),
	Expense:      lipgloss.Color("1"),
	Transfer:     lipgloss.Color("4"),
	Low:          lipgloss.Color("2"),
	Medium:       lipgloss.Color("3"),
	High:         lipgloss.Color("11"),
	Critical:     lipgloss.Color("9"),
}

// All available themes.
var All = []Theme{FlexokiDark, TokyoNight, Terminal}

// ByName returns a theme by its name, defaulting to FlexokiDark.
func ByName(name string) Theme {
	for _, t := range All {
		if t.Name == name {
			return t
		}
	}
	return FlexokiDark
}

// SetActive sets the active theme by name.
func SetActive(name string) {
	Active = ByName(name)
}

// ForLevel is the color of an alert level.
func (t Theme) ForLevel(l model.AlertLevel) lipgloss.Color {
	switch l {
	case model.LevelCritical:
		return t.Critical
	case model.LevelHigh:
		return t.High
	case model.LevelMedium:
		return t.Medium
	}
	return t.Low
}

// ForKind is the color of a transaction kind.
func (t Theme) ForKind(k model.Kind) lipgloss.Color {
	switch k {
	case model.KindIncome:
		return t.Income
	case model.KindExpense:
		return t.Expense
	}
	return t.Transfer
}
