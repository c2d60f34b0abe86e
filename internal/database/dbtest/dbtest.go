// Package dbtest opens throwaway SQLite databases with the schema applied.
package dbtest

import (
	"context"
	"path/filepath"
	"testing"

	"f1fantasy/internal/database"
	"f1fantasy/migrations"
)

// New returns a migrated database in t's temp dir, closed on cleanup.
func New(t testing.TB) *database.DB {
	t.Helper()

	db, err := database.Initialize(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := db.RunMigrations(context.Background(), migrations.FS); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}
	return db
}
