package migrations

import (
	"database/sql"
	"fmt"
	"log"
)

// AddPeriodCycles creates the cycle tracking table. Symptoms are stored
// encrypted.
func AddPeriodCycles(db *sql.DB) error {
	log.Println("Adding period_cycles table...")

	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS period_cycles (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			owner TEXT NOT NULL REFERENCES users(username) ON DELETE CASCADE,
			start_date TEXT NOT NULL,
			end_date TEXT NOT NULL DEFAULT '',
			cycle_length INTEGER NOT NULL CHECK (cycle_length > 0),
			symptoms TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		);

		CREATE INDEX IF NOT EXISTS idx_period_cycles_owner_start ON period_cycles (owner, start_date);
	`)
	if err != nil {
		return fmt.Errorf("failed to create period_cycles table: %w", err)
	}

	return nil
}
