package cli

import (
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"ourlife/backend/database"
	"ourlife/backend/migrations"
)

type migrateOptions struct {
	reset bool
	seed  bool
}

// NewMigrateCommand creates the migrate command.
func NewMigrateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &migrateOptions{}

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		Long: `Apply pending database migrations and exit.

With --reset the database file is removed first. Resetting is refused when
APP_ENV is production.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigrate(cmd, rootOpts, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.reset, "reset", false, "delete the database before migrating")
	cmd.Flags().BoolVar(&opts.seed, "seed", false, "seed demo users and records")

	return cmd
}

func runMigrate(cmd *cobra.Command, rootOpts *RootOptions, opts *migrateOptions) error {
	cfg, err := rootOpts.loadConfig()
	if err != nil {
		return err
	}

	if opts.reset {
		if cfg.IsProduction() {
			return errors.New("refusing to reset the database in production")
		}
		log.Printf("Resetting database at %s", cfg.DBPath)
		for _, suffix := range []string{"", "-wal", "-shm"} {
			if err := os.Remove(cfg.DBPath + suffix); err != nil && !os.IsNotExist(err) {
				return fmt.Errorf("failed to remove database: %w", err)
			}
		}
	}

	db, err := database.Open(cfg.DBPath)
	if err != nil {
		return err
	}
	defer db.Close()

	err = migrations.RunMigrations(db, migrations.Options{
		SeedTestData: cfg.SeedTestData || opts.seed,
		BcryptCost:   cfg.BcryptCost,
	})
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	applied, err := migrations.AppliedMigrations(db)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Migrations completed successfully (%d applied)\n", len(applied))
	return nil
}
