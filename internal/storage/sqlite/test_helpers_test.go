package sqlite

import (
	"path/filepath"
	"testing"
)

// setupTestDB opens a migrated database in a temporary directory.
func setupTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "groundplane.db"))
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// insertTestRun creates a run and returns its id.
func insertTestRun(t *testing.T, db *DB) string {
	t.Helper()
	run := &Run{Source: "test"}
	if err := NewRunStore(db.DB).Insert(run); err != nil {
		t.Fatalf("Failed to insert run: %v", err)
	}
	return run.RunID
}
