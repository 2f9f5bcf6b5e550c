package cli

import (
	"database/sql"
	"fmt"

	"github.com/spf13/cobra"

	"ourlife/backend/config"
	"ourlife/backend/database"
	"ourlife/backend/migrations"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	ConfigPath string
	DBPath     string
}

// NewRootCommand creates the root command for the ourlife CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "ourlife",
		Short: "OurLife - shared budget and calendar backend",
		Long: `Backend for a shared household ledger and calendar.

Users record transactions and calendar events and may be granted read
access to each other's records.`,
		SilenceUsage: true,
	}

	// Global flags
	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "path to a YAML config file")
	cmd.PersistentFlags().StringVar(&opts.DBPath, "db", "", "SQLite database path (overrides config and DB_PATH)")

	// Add subcommands
	cmd.AddCommand(NewServeCommand(opts))
	cmd.AddCommand(NewMigrateCommand(opts))
	cmd.AddCommand(NewUserCommand(opts))
	cmd.AddCommand(NewAccessCommand(opts))

	return cmd
}

func (o *RootOptions) loadConfig() (config.Config, error) {
	cfg, err := config.Load(o.ConfigPath)
	if err != nil {
		return config.Config{}, err
	}
	if o.DBPath != "" {
		cfg.DBPath = o.DBPath
	}
	return cfg, nil
}

// openDB opens the configured database and brings its schema up to date.
func (o *RootOptions) openDB() (config.Config, *sql.DB, error) {
	cfg, err := o.loadConfig()
	if err != nil {
		return config.Config{}, nil, err
	}

	db, err := database.Open(cfg.DBPath)
	if err != nil {
		return config.Config{}, nil, err
	}

	opts := migrations.Options{SeedTestData: cfg.SeedTestData, BcryptCost: cfg.BcryptCost}
	if err := migrations.RunMigrations(db, opts); err != nil {
		db.Close()
		return config.Config{}, nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return cfg, db, nil
}
