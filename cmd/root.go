// Package cmd implements the grana CLI commands.
package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/theirongolddev/grana/internal/cli"
	"github.com/theirongolddev/grana/internal/config"
	"github.com/theirongolddev/grana/internal/engine"
	"github.com/theirongolddev/grana/internal/logger"
)

var (
	flagDB       string
	flagDriver   string
	flagOwner    string
	flagLogLevel string
	flagEnvFile  string
)

// cfg is the effective configuration after file, environment and flags.
var cfg config.Config

var rootCmd = &cobra.Command{
	Use:           "grana",
	Short:         "Personal finance ledger",
	Long:          "Track accounts, cards, transactions, budgets and savings goals from the terminal.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		if err := config.LoadEnvFile(flagEnvFile); err != nil {
			return err
		}
		loaded, err := config.Read()
		if err != nil {
			return err
		}
		cfg = loaded
		config.ApplyEnv(&cfg)
		if flagDriver != "" {
			cfg.Database.Driver = flagDriver
		}
		if flagDB != "" {
			cfg.Database.DSN = flagDB
		}
		if flagOwner != "" {
			cfg.General.Owner = flagOwner
		}
		if flagLogLevel != "" {
			cfg.Log.Level = flagLogLevel
		}
		if err := cfg.Validate(); err != nil {
			return err
		}
		cli.Currency = cfg.General.Currency

		cmd.SetContext(logger.WithContext(cmd.Context(), logger.New(cfg.Log.Level)))
		return nil
	},
}

// Execute is the main entry point called from main.go.
func Execute() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "  %s\n", describeError(err))
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagDB, "db", "", "Database path (sqlite) or URL (postgres)")
	rootCmd.PersistentFlags().StringVar(&flagDriver, "driver", "", "Database driver: sqlite or postgres")
	rootCmd.PersistentFlags().StringVarP(&flagOwner, "owner", "o", "", "Ledger owner (default from config)")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&flagEnvFile, "env-file", "", "Load environment from this file (default .env)")
}

// openEngine opens the configured store. Callers defer the returned close.
func openEngine(cmd *cobra.Command) (*engine.Engine, func(), error) {
	ctx := cmd.Context()
	e, err := engine.Open(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	return e, func() {
		if err := e.Close(); err != nil {
			logger.FromContext(ctx).Warn().Err(err).Msg("closing store")
		}
	}, nil
}

func owner() string { return cfg.General.Owner }

func log(cmd *cobra.Command) *zerolog.Logger { return logger.FromContext(cmd.Context()) }
