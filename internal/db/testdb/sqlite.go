package testdb

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/6529-Collections/marketview/internal/db"
	"github.com/stretchr/testify/require"
)

// SetupTestDB opens a migrated SQLite database in a per-test directory.
func SetupTestDB(t *testing.T) (*sql.DB, func()) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sqlite", "test.sqlite")
	sqlDB, err := db.OpenSqlite(path)
	require.NoError(t, err)

	cleanup := func() {
		sqlDB.Close()
	}
	return sqlDB, cleanup
}
