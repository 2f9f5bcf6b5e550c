package migrations

import (
	"database/sql"
	"fmt"
	"log"
)

// AddBudgetLines creates the monthly budget table.
func AddBudgetLines(db *sql.DB) error {
	log.Println("Adding budget_lines table...")

	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS budget_lines (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			owner TEXT NOT NULL REFERENCES users(username) ON DELETE CASCADE,
			category TEXT NOT NULL,
			amount TEXT NOT NULL,
			month INTEGER NOT NULL CHECK (month BETWEEN 1 AND 12),
			year INTEGER NOT NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		);

		CREATE INDEX IF NOT EXISTS idx_budget_lines_owner_period ON budget_lines (owner, year, month);
	`)
	if err != nil {
		return fmt.Errorf("failed to create budget_lines table: %w", err)
	}

	return nil
}
