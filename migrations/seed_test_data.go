package migrations

import (
	"database/sql"
	"fmt"
	"log"
	"os"

	"ourlife/backend/models"
	"ourlife/backend/security"
)

// SeedPassword is the password given to every seeded user.
const SeedPassword = "changeme"

// SeedTestData seeds demo users, a grant and a linked transaction/event pair
// for development and PR environments.
func SeedTestData(db *sql.DB, bcryptCost int) error {
	// Check if we're in production - we should NEVER run this in production
	if os.Getenv("APP_ENV") == "production" {
		log.Println("Refusing to seed test data in production environment")
		return nil
	}

	log.Println("Seeding test data for development/PR environment...")

	hash, err := security.HashPassword(SeedPassword, bcryptCost)
	if err != nil {
		return fmt.Errorf("failed to hash seed password: %w", err)
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	defaultUsers := []struct {
		username   string
		isAdmin    bool
		eventColor string
	}{
		{username: "admin", isAdmin: true, eventColor: "#2dd4bf"},
		{username: "alice", isAdmin: false, eventColor: "#3b82f6"},
		{username: "bob", isAdmin: false, eventColor: "#f97316"},
	}

	for _, u := range defaultUsers {
		_, err = tx.Exec(`
			INSERT INTO users (username, password_hash, is_admin, event_color)
			VALUES (?, ?, ?, ?)
			ON CONFLICT(username) DO NOTHING
		`, u.username, hash, u.isAdmin, u.eventColor)
		if err != nil {
			return fmt.Errorf("failed to insert user %s: %w", u.username, err)
		}
	}

	// bob can read alice's ledger and calendar
	_, err = tx.Exec(`INSERT INTO user_access (viewer, target) VALUES ('bob', 'alice') ON CONFLICT DO NOTHING`)
	if err != nil {
		return fmt.Errorf("failed to insert access grant: %w", err)
	}

	sampleTransactions := []struct {
		owner       string
		description string
		amount      string
		kind        string
		date        string
		eventTitle  string
	}{
		{owner: "alice", description: "Salary", amount: "5000", kind: models.KindIncome, date: "2025-07-01", eventTitle: "Salary (income)"},
		{owner: "alice", description: "Rent", amount: "1200", kind: models.KindExpense, date: "2025-07-03", eventTitle: "Rent (expense)"},
		{owner: "bob", description: "Groceries", amount: "42.5", kind: models.KindExpense, date: "2025-07-05"},
	}

	for _, s := range sampleTransactions {
		res, err := tx.Exec(`
			INSERT INTO transactions (owner, description, amount, kind, date, color)
			VALUES (?, ?, ?, ?, ?, ?)
		`, s.owner, s.description, s.amount, s.kind, s.date, models.ColorForKind(s.kind))
		if err != nil {
			return fmt.Errorf("failed to insert transaction %s: %w", s.description, err)
		}

		if s.eventTitle == "" {
			continue
		}

		txID, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to read transaction id: %w", err)
		}

		_, err = tx.Exec(`
			INSERT INTO calendar_events (owner, title, date, financial, kind, amount, event_color, transaction_id)
			SELECT ?, ?, ?, 1, ?, ?, event_color, ? FROM users WHERE username = ?
		`, s.owner, s.eventTitle, s.date, s.kind, s.amount, txID, s.owner)
		if err != nil {
			return fmt.Errorf("failed to insert calendar event %s: %w", s.eventTitle, err)
		}
	}

	_, err = tx.Exec(`
		INSERT INTO calendar_events (owner, title, date, financial, event_color)
		VALUES ('bob', 'Dentist', '2025-07-10T09:30:00Z', 0, '#f97316')
	`)
	if err != nil {
		return fmt.Errorf("failed to insert calendar event: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.Println("Test data seeded successfully")
	return nil
}
