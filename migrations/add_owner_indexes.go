package migrations

import (
	"database/sql"
	"fmt"
)

// AddOwnerIndexes indexes the columns used by visibility-filtered scans and
// by grant cascades.
func AddOwnerIndexes(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_transactions_owner ON transactions (owner);
		CREATE INDEX IF NOT EXISTS idx_calendar_events_owner ON calendar_events (owner);
		CREATE INDEX IF NOT EXISTS idx_user_access_target ON user_access (target);
	`)
	if err != nil {
		return fmt.Errorf("failed to create owner indexes: %w", err)
	}

	return nil
}
