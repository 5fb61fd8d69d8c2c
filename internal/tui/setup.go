package tui

import (
	"errors"
	"strings"

	"github.com/charmbracelet/huh"

	"github.com/theirongolddev/grana/internal/config"
	"github.com/theirongolddev/grana/internal/money"
	"github.com/theirongolddev/grana/internal/tui/theme"
)

// SetupValues are the answers of the first-run form.
type SetupValues struct {
	Owner    string
	Currency string
	Theme    string
	Driver   string
	DSN      string
}

// SetupValuesFrom seeds the form with cfg.
func SetupValuesFrom(cfg config.Config) SetupValues {
	return SetupValues{
		Owner:    cfg.General.Owner,
		Currency: cfg.General.Currency,
		Theme:    cfg.Appearance.Theme,
		Driver:   cfg.Database.Driver,
		DSN:      cfg.Database.DSN,
	}
}

// Apply writes the answers into cfg.
func (v SetupValues) Apply(cfg *config.Config) {
	cfg.General.Owner = strings.TrimSpace(v.Owner)
	cfg.General.Currency = strings.ToUpper(strings.TrimSpace(v.Currency))
	cfg.Appearance.Theme = v.Theme
	cfg.Database.Driver = v.Driver
	cfg.Database.DSN = strings.TrimSpace(v.DSN)
}

func validateOwner(s string) error {
	if strings.TrimSpace(s) == "" {
		return errors.New("owner is required")
	}
	return nil
}

func validateCurrency(s string) error {
	if !money.KnownCurrency(strings.TrimSpace(s)) {
		return errors.New("use a three-letter ISO code with cents, e.g. BRL or USD")
	}
	return nil
}

// NewSetupForm builds the first-run wizard bound to vals. The database
// questions are only asked when withDatabase is set.
func NewSetupForm(vals *SetupValues, withDatabase bool) *huh.Form {
	themes := make([]huh.Option[string], len(theme.All))
	for i, t := range theme.All {
		themes[i] = huh.NewOption(t.Name, t.Name)
	}

	groups := []*huh.Group{
		huh.NewGroup(
			huh.NewNote().
				Title("Welcome to grana").
				Description("A few questions and your ledger is ready."),
			huh.NewInput().
				Title("Owner").
				Description("Name the ledger entries are recorded under.").
				Value(&vals.Owner).
				Validate(validateOwner),
			huh.NewInput().
				Title("Currency").
				Description("Used to display amounts.").
				Value(&vals.Currency).
				Validate(validateCurrency),
			huh.NewSelect[string]().
				Title("Color theme").
				Options(themes...).
				Value(&vals.Theme),
		),
	}
	if withDatabase {
		groups = append(groups, huh.NewGroup(
			huh.NewSelect[string]().
				Title("Database").
				Options(
					huh.NewOption("SQLite file (local)", "sqlite"),
					huh.NewOption("PostgreSQL server", "postgres"),
				).
				Value(&vals.Driver),
			huh.NewInput().
				Title("Database location").
				Description("SQLite path or postgres:// URL. Leave blank for the default SQLite file.").
				Value(&vals.DSN).
				Validate(func(s string) error {
					if vals.Driver == "postgres" && strings.TrimSpace(s) == "" {
						return errors.New("postgres needs a connection URL")
					}
					return nil
				}),
		))
	}
	return huh.NewForm(groups...).WithTheme(huh.ThemeCharm())
}
