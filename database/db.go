package database

import (
	"database/sql"
	"fmt"
	"log"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// DSN builds the go-sqlite3 connection string for path. The parameters are
// applied per pooled connection, which matters for foreign_keys: a PRAGMA run
// once through db.Exec only reaches one connection.
func DSN(path string) string {
	params := "_journal=WAL&_timeout=10000&_busy_timeout=10000&_foreign_keys=on"
	if strings.Contains(path, "?") {
		return path + "&" + params
	}
	return path + "?" + params
}

// Open opens the SQLite database at path and verifies the connection.
func Open(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", DSN(path))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Minute * 5)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	var fk int
	if err := db.QueryRow("PRAGMA foreign_keys").Scan(&fk); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to read foreign_keys pragma: %w", err)
	}
	if fk != 1 {
		db.Close()
		return nil, fmt.Errorf("foreign key enforcement is not enabled")
	}

	log.Printf("Opened SQLite database at %s", path)
	return db, nil
}

// TableExists reports whether a table with the given name exists.
func TableExists(db *sql.DB, table string) (bool, error) {
	var count int
	err := db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name = ?", table).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// CheckColumnExists checks if a column exists in a table
func CheckColumnExists(db *sql.DB, tableName, columnName string) (bool, error) {
	var count int
	err := db.QueryRow("SELECT COUNT(*) FROM pragma_table_info(?) WHERE name = ?", tableName, columnName).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// AddColumn adds a column to a table if it doesn't exist
func AddColumn(db *sql.DB, tableName, columnName, columnType string) error {
	exists, err := CheckColumnExists(db, tableName, columnName)
	if err != nil {
		return err
	}

	if !exists {
		query := fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", tableName, columnName, columnType)
		if _, err := db.Exec(query); err != nil {
			return err
		}
	}

	return nil
}
