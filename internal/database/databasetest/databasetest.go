// Package databasetest opens migrated throwaway databases for tests.
package databasetest

import (
	"path/filepath"
	"testing"

	"dont-get-fat/internal/database"
)

// New creates a migrated SQLite database in a temporary directory.
// The database is closed when the test completes.
func New(t *testing.T) *database.DB {
	t.Helper()
	db, err := database.NewDB(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() {
		db.Close()
	})
	return db
}
