package cli

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/spf13/cobra"

	"ourlife/backend/config"
	"ourlife/backend/models"
	"ourlife/backend/security"
	"ourlife/backend/services"
)

// NewUserCommand creates the user command and its subcommands.
func NewUserCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage user accounts",
	}

	cmd.AddCommand(newUserAddCommand(rootOpts))
	cmd.AddCommand(newUserDeleteCommand(rootOpts))
	cmd.AddCommand(newUserListCommand(rootOpts))
	cmd.AddCommand(newUserAdminCommand(rootOpts, "grant-admin", true))
	cmd.AddCommand(newUserAdminCommand(rootOpts, "revoke-admin", false))
	cmd.AddCommand(newUserPasswordCommand(rootOpts))

	return cmd
}

// withUsers runs fn against a user service over the configured database.
func withUsers(rootOpts *RootOptions, fn func(ctx context.Context, users *services.UserService) error) error {
	cfg, db, err := rootOpts.openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	users, err := newUserService(cfg, db)
	if err != nil {
		return err
	}
	return fn(context.Background(), users)
}

func newUserService(cfg config.Config, db *sql.DB) (*services.UserService, error) {
	cipher, err := security.NewCipher(cfg.EncryptionKey)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize encryption: %w", err)
	}
	return services.NewUserService(db, cipher, services.NewAccessGraph(db), cfg.BcryptCost, cfg.DefaultEventColor), nil
}

func newUserAddCommand(rootOpts *RootOptions) *cobra.Command {
	var password string
	var admin bool

	cmd := &cobra.Command{
		Use:   "add <username>",
		Short: "Create a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withUsers(rootOpts, func(ctx context.Context, users *services.UserService) error {
				u, err := users.Create(ctx, models.NewUserRequest{Username: args[0], Password: password, IsAdmin: admin})
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Created user %s (admin: %v)\n", u.Username, u.IsAdmin)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&password, "password", "p", "", "initial password (required)")
	cmd.Flags().BoolVar(&admin, "admin", false, "grant admin access")
	cmd.MarkFlagRequired("password")

	return cmd
}

func newUserDeleteCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <username>",
		Short: "Delete a user with their grants and records",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withUsers(rootOpts, func(ctx context.Context, users *services.UserService) error {
				if err := users.Delete(ctx, args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted user %s\n", args[0])
				return nil
			})
		},
	}
}

func newUserListCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List users",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withUsers(rootOpts, func(ctx context.Context, users *services.UserService) error {
				list, err := users.List(ctx)
				if err != nil {
					return err
				}
				for _, u := range list {
					role := "user"
					if u.IsAdmin {
						role = "admin"
					}
					fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", u.Username, role)
				}
				return nil
			})
		},
	}
}

func newUserAdminCommand(rootOpts *RootOptions, use string, admin bool) *cobra.Command {
	short := "Grant admin access to a user"
	if !admin {
		short = "Remove admin access from a user"
	}

	return &cobra.Command{
		Use:   use + " <username>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withUsers(rootOpts, func(ctx context.Context, users *services.UserService) error {
				if err := users.SetAdmin(ctx, args[0], admin); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "User %s admin: %v\n", args[0], admin)
				return nil
			})
		},
	}
}

func newUserPasswordCommand(rootOpts *RootOptions) *cobra.Command {
	var password string

	cmd := &cobra.Command{
		Use:   "reset-password <username>",
		Short: "Set a new password for a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withUsers(rootOpts, func(ctx context.Context, users *services.UserService) error {
				if err := users.ResetPassword(ctx, args[0], password); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Password updated for %s\n", args[0])
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&password, "password", "p", "", "new password (required)")
	cmd.MarkFlagRequired("password")

	return cmd
}
