package migrations

import (
	"database/sql"
	"fmt"
	"log"

	"ourlife/backend/database"
)

// AddEventTransactionLink adds calendar_events.transaction_id so a mirrored
// event references its transaction directly. Rows created before this column
// existed keep a NULL link and are matched by (owner, kind, amount, date).
func AddEventTransactionLink(db *sql.DB) error {
	log.Println("Adding transaction_id column to calendar_events table...")

	err := database.AddColumn(db, "calendar_events", "transaction_id",
		"INTEGER REFERENCES transactions(id) ON DELETE CASCADE")
	if err != nil {
		return fmt.Errorf("error adding transaction_id column: %w", err)
	}

	_, err = db.Exec(`CREATE INDEX IF NOT EXISTS idx_calendar_events_transaction_id ON calendar_events (transaction_id)`)
	if err != nil {
		return fmt.Errorf("error indexing transaction_id: %w", err)
	}

	log.Println("Event transaction link added successfully")
	return nil
}
