package main

import (
	"github.com/spf13/cobra"
)

// NewMigrateCmd creates the migrate subcommand.
func NewMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or upgrade the identity store schema",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := loadConfig(cmd, false)
			if err != nil {
				return err
			}

			_, closeStore, err := openBackend(cmd.Context(), cfg.Store, true)
			if err != nil {
				return err
			}
			defer closeStore()

			logger.Info("schema is up to date", "driver", cfg.Store.Driver)
			return nil
		},
	}
}
