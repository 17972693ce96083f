package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-authgate/config"
	"github.com/goliatone/go-authgate/logging"
)

// Global flags available to all subcommands.
var configFile string

// NewRootCmd creates the root command for the authgate CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "authgate",
		Short: "authgate - credential verification and bearer token service",
		Long: `authgate verifies user credentials, issues signed time bound bearer
tokens and resolves presented tokens back to identities.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path")
	config.RegisterFlags(cmd.PersistentFlags())

	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewMigrateCmd())
	cmd.AddCommand(NewUserCmd())
	cmd.AddCommand(NewHashPasswordCmd())

	return cmd
}

// loadConfig reads and validates configuration for cmd and installs the
// default logger.
func loadConfig(cmd *cobra.Command, requireSigningKey bool) (config.Config, *slog.Logger, error) {
	cfg, err := config.Load(configFile, cmd.Flags())
	if err != nil {
		return config.Config{}, nil, err
	}

	if requireSigningKey {
		if err := cfg.Validate(); err != nil {
			return config.Config{}, nil, err
		}
	}

	logger := logging.SetDefault("authgate", version, cfg.Log.Format, logging.ParseLevel(cfg.Log.Level))
	return cfg, logger, nil
}
