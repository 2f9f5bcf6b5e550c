package services

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"ourlife/backend/database"
	"ourlife/backend/migrations"
	"ourlife/backend/security"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := database.Open(filepath.Join(t.TempDir(), "services.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, migrations.RunMigrations(db, migrations.Options{BcryptCost: bcrypt.MinCost}))
	return db
}

func insertUsers(t *testing.T, db *sql.DB, usernames ...string) {
	t.Helper()
	for _, u := range usernames {
		_, err := db.Exec(`INSERT INTO users (username, password_hash) VALUES (?, 'x')`, u)
		require.NoError(t, err)
	}
}

func countRows(t *testing.T, db *sql.DB, query string, args ...interface{}) int {
	t.Helper()
	var n int
	require.NoError(t, db.QueryRow(query, args...).Scan(&n))
	return n
}

func newTestUserService(t *testing.T, db *sql.DB) *UserService {
	t.Helper()
	cipher, err := security.NewCipher("test-secret")
	require.NoError(t, err)
	return NewUserService(db, cipher, NewAccessGraph(db), bcrypt.MinCost, "")
}

var ctx = context.Background()
