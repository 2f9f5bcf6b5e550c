package database

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDSN(t *testing.T) {
	assert.Equal(t, "a.db?_journal=WAL&_timeout=10000&_busy_timeout=10000&_foreign_keys=on", DSN("a.db"))
	assert.Equal(t, "file:a.db?cache=shared&_journal=WAL&_timeout=10000&_busy_timeout=10000&_foreign_keys=on", DSN("file:a.db?cache=shared"))
}

func TestOpen_EnablesForeignKeys(t *testing.T) {
	db, err := Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	defer db.Close()

	// Every pooled connection must enforce foreign keys, not just the first.
	for i := 0; i < 3; i++ {
		conn, err := db.Conn(t.Context())
		require.NoError(t, err)
		var fk int
		require.NoError(t, conn.QueryRowContext(t.Context(), "PRAGMA foreign_keys").Scan(&fk))
		assert.Equal(t, 1, fk)
		defer conn.Close()
	}
}

func TestColumnHelpers(t *testing.T) {
	db, err := Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	defer db.Close()

	_, err = db.Exec(`CREATE TABLE things (id INTEGER PRIMARY KEY)`)
	require.NoError(t, err)

	exists, err := TableExists(db, "things")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = TableExists(db, "missing")
	require.NoError(t, err)
	assert.False(t, exists)

	exists, err = CheckColumnExists(db, "things", "label")
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, AddColumn(db, "things", "label", "TEXT"))
	// Adding twice is a no-op
	require.NoError(t, AddColumn(db, "things", "label", "TEXT"))

	exists, err = CheckColumnExists(db, "things", "label")
	require.NoError(t, err)
	assert.True(t, exists)
}
