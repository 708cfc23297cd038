package sqlite_test

import (
	"database/sql"
	"testing"

	_ "github.com/mattn/go-sqlite3"

	"github.com/example/lms/internal/db"
)

// setupTestDB creates an in-memory database with the authoritative schema.
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	testDB, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	// Every connection to :memory: is a separate database.
	testDB.SetMaxOpenConns(1)
	t.Cleanup(func() { testDB.Close() })
	if _, err := testDB.Exec(db.GetSchemaSQL()); err != nil {
		t.Fatalf("failed to create schema: %v", err)
	}
	return testDB
}

// countLeaves returns the number of rows in the nodes table.
func countLeaves(t *testing.T, database *sql.DB) int {
	t.Helper()
	var n int
	if err := database.QueryRow("SELECT COUNT(*) FROM nodes").Scan(&n); err != nil {
		t.Fatalf("failed to count leaves: %v", err)
	}
	return n
}

// seedLeaf inserts a raw leaf row holding the given JSON value.
func seedLeaf(t *testing.T, database *sql.DB, path, value string) {
	t.Helper()
	if _, err := database.Exec("INSERT INTO nodes (path, value) VALUES (?, ?)", path, value); err != nil {
		t.Fatalf("failed to seed leaf %s: %v", path, err)
	}
}
