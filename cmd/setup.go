package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/grana/internal/config"
	"github.com/theirongolddev/grana/internal/tui"
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "First-time setup wizard",
	RunE:  runSetup,
}

func init() {
	rootCmd.AddCommand(setupCmd)
}

func runSetup(cmd *cobra.Command, _ []string) error {
	vals := tui.SetupValuesFrom(cfg)
	if err := tui.NewSetupForm(&vals, true).Run(); err != nil {
		return fmt.Errorf("setup: %w", err)
	}

	vals.Apply(&cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := config.Save(cfg); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}

	e, closeEngine, err := openEngine(cmd)
	if err != nil {
		return err
	}
	defer closeEngine()
	cash, err := e.Bootstrap(cmd.Context(), owner())
	if err != nil {
		return err
	}
	log(cmd).Debug().Str("account", cash.ID.String()).Msg("ledger ready")

	fmt.Println()
	fmt.Printf("  Saved to %s\n", config.ConfigPath())
	fmt.Printf("  Ledger for %s is ready with a %q account.\n", owner(), cash.Name)
	fmt.Println("  Run `grana setup` anytime to reconfigure.")
	fmt.Println()
	return nil
}
