package main

import (
	"errors"

	"github.com/spf13/cobra"

	auth "github.com/goliatone/go-authgate"
	"github.com/goliatone/go-authgate/config"
)

// NewUserCmd creates the user subcommand group.
func NewUserCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage identities in the configured store",
	}
	cmd.AddCommand(newUserCreateCmd())
	return cmd
}

func newUserCreateCmd() *cobra.Command {
	var username, email, password string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an identity with a hashed password",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if username == "" || email == "" || password == "" {
				return errors.New("--username, --email and --password are required")
			}

			cfg, logger, err := loadConfig(cmd, false)
			if err != nil {
				return err
			}

			store, closeStore, err := openBackend(cmd.Context(), cfg.Store, cfg.Store.Driver == config.DriverSQLite)
			if err != nil {
				return err
			}
			defer closeStore()

			identity, err := store.Create(cmd.Context(), username, email, auth.HashPassword(password))
			if err != nil {
				return err
			}

			logger.Info("identity created", "user_id", identity.ID, "username", identity.Username)
			cmd.Println(identity.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&username, "username", "", "unique username")
	cmd.Flags().StringVar(&email, "email", "", "unique email")
	cmd.Flags().StringVar(&password, "password", "", "plaintext password, hashed before storage")

	return cmd
}

// NewHashPasswordCmd prints the stored digest for a plaintext password.
func NewHashPasswordCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hash-password <plaintext>",
		Short: "Print the credential digest of a password",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.Println(auth.HashPassword(args[0]))
			return nil
		},
	}
}
