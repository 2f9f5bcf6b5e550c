package migrations

import (
	"database/sql"
	"fmt"
	"log"
)

// CreateBaseSchema creates the users, transactions, calendar_events and
// user_access tables.
func CreateBaseSchema(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS users (
			username TEXT PRIMARY KEY,
			password_hash TEXT NOT NULL,
			profile_pic_url TEXT NOT NULL DEFAULT '',
			email TEXT NOT NULL DEFAULT '',
			phone TEXT NOT NULL DEFAULT '',
			address TEXT NOT NULL DEFAULT '',
			event_color TEXT NOT NULL DEFAULT '#3b82f6',
			is_admin BOOLEAN NOT NULL DEFAULT 0,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		);

		CREATE TABLE IF NOT EXISTS transactions (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			owner TEXT NOT NULL REFERENCES users(username) ON DELETE CASCADE,
			description TEXT NOT NULL CHECK (description <> ''),
			amount TEXT NOT NULL,
			kind TEXT NOT NULL CHECK (kind IN ('income', 'expense')),
			date TEXT NOT NULL,
			color TEXT NOT NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		);

		CREATE TABLE IF NOT EXISTS calendar_events (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			owner TEXT NOT NULL REFERENCES users(username) ON DELETE CASCADE,
			title TEXT NOT NULL,
			date TEXT NOT NULL,
			financial BOOLEAN NOT NULL DEFAULT 0,
			kind TEXT,
			amount TEXT,
			event_color TEXT NOT NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		);

		CREATE TABLE IF NOT EXISTS user_access (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			viewer TEXT NOT NULL REFERENCES users(username) ON DELETE CASCADE,
			target TEXT NOT NULL REFERENCES users(username) ON DELETE CASCADE,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			UNIQUE(viewer, target),
			CHECK (viewer <> target)
		);
	`)
	if err != nil {
		return fmt.Errorf("failed to create base schema: %w", err)
	}

	log.Println("Base schema created successfully")
	return nil
}
