package database

import (
	"path/filepath"
	"testing"
)

func setupTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := NewDB(Config{DatabasePath: filepath.Join(t.TempDir(), "test.db")})
	if err != nil {
		t.Fatalf("NewDB: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestMigrationsAreIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	db, err := NewDB(Config{DatabasePath: path})
	if err != nil {
		t.Fatalf("first open: %v", err)
	}
	db.Close()

	// Reopening the same file must not re-run applied migrations.
	db, err = NewDB(Config{DatabasePath: path})
	if err != nil {
		t.Fatalf("second open: %v", err)
	}
	db.Close()
}

func TestNewDBRequiresPath(t *testing.T) {
	if _, err := NewDB(Config{}); err == nil {
		t.Fatal("expected error for empty database path")
	}
}
