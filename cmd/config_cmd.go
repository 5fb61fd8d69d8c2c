package cmd

import (
	"fmt"
	"net/url"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/grana/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show current configuration",
	RunE:  runConfig,
}

func init() {
	rootCmd.AddCommand(configCmd)
}

func runConfig(_ *cobra.Command, _ []string) error {
	fmt.Printf("  Config file: %s\n", config.ConfigPath())
	if config.Exists() {
		fmt.Println("  Status: loaded")
	} else {
		fmt.Println("  Status: using defaults (no config file)")
	}
	fmt.Println()

	fmt.Println("  [Database]")
	fmt.Printf("    Driver:       %s\n", cfg.Database.Driver)
	fmt.Printf("    DSN:          %s\n", maskDSN(cfg.DSN()))
	if cfg.Database.Driver == "sqlite" {
		fmt.Printf("    Busy timeout: %dms\n", cfg.Database.BusyTimeoutMS)
	}
	fmt.Println()

	fmt.Println("  [General]")
	fmt.Printf("    Owner:    %s\n", cfg.General.Owner)
	fmt.Printf("    Currency: %s\n", cfg.General.Currency)
	fmt.Println()

	fmt.Println("  [Appearance]")
	fmt.Printf("    Theme: %s\n", cfg.Appearance.Theme)
	fmt.Println()

	fmt.Println("  [Log]")
	fmt.Printf("    Level: %s\n", cfg.Log.Level)
	fmt.Println()

	fmt.Println("  Run `grana setup` to reconfigure.")
	return nil
}

// maskDSN hides the password of a postgres URL.
func maskDSN(dsn string) string {
	u, err := url.Parse(dsn)
	if err != nil || u.User == nil {
		return dsn
	}
	return u.Redacted()
}
