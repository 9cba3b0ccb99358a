// Package testutil provides a per-test SQLite database for vaultcli's
// repository and usecase tests: each test gets its own file under
// t.TempDir(), so there is nothing to truncate between tests.
package testutil

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/allisson/vaultcli/internal/database"
	"github.com/allisson/vaultcli/internal/migrations"
)

// SetupSQLiteDB creates a fresh, migrated SQLite database under a temp
// directory unique to t, and registers cleanup to close it.
func SetupSQLiteDB(t *testing.T) *sql.DB {
	t.Helper()

	path := filepath.Join(t.TempDir(), "vault.db")
	db, err := database.Connect(database.Config{Path: path})
	require.NoError(t, err, "failed to open sqlite test database")

	err = migrations.Run(db)
	require.NoError(t, err, "failed to run migrations on test database")

	t.Cleanup(func() {
		_ = db.Close()
	})

	return db
}
