package migrations

import (
	"database/sql"
	"fmt"
	"log"
)

// Options controls environment-dependent migrations.
type Options struct {
	// SeedTestData inserts demo users and records. Never set in production.
	SeedTestData bool
	// BcryptCost is used when hashing seeded passwords.
	BcryptCost int
}

type migration struct {
	name string
	fn   func(*sql.DB) error
}

// RunMigrations executes all migrations in the correct order
func RunMigrations(db *sql.DB, opts Options) error {
	log.Println("Running migrations...")

	// Create migrations table if it doesn't exist
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS migrations (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL UNIQUE,
			applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		);
	`)
	if err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	migrations := []migration{
		{"base_schema", CreateBaseSchema},
		{"add_event_transaction_link", AddEventTransactionLink},
		{"add_budget_lines", AddBudgetLines},
		{"add_owner_indexes", AddOwnerIndexes},
		{"backfill_transaction_colors", BackfillTransactionColors},
		{"add_period_cycles", AddPeriodCycles},
	}
	if opts.SeedTestData {
		migrations = append(migrations, migration{"seed_test_data", func(db *sql.DB) error {
			return SeedTestData(db, opts.BcryptCost)
		}})
	}

	// Run each migration if it hasn't been applied yet
	for _, m := range migrations {
		var count int
		err := db.QueryRow("SELECT COUNT(*) FROM migrations WHERE name = ?", m.name).Scan(&count)
		if err != nil {
			return fmt.Errorf("failed to check migration status: %w", err)
		}

		if count > 0 {
			log.Printf("Skipping already applied migration: %s", m.name)
			continue
		}

		log.Printf("Applying migration: %s", m.name)
		if err := m.fn(db); err != nil {
			return fmt.Errorf("failed to apply migration %s: %w", m.name, err)
		}

		if _, err := db.Exec("INSERT INTO migrations (name) VALUES (?)", m.name); err != nil {
			return fmt.Errorf("failed to record migration: %w", err)
		}
	}

	log.Println("All migrations completed successfully")
	return nil
}

// AppliedMigrations returns the names of recorded migrations in apply order.
func AppliedMigrations(db *sql.DB) ([]string, error) {
	rows, err := db.Query("SELECT name FROM migrations ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("failed to list migrations: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}
