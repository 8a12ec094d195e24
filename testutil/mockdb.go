package testutil

import (
	"database/sql"
	"testing"

	_ "modernc.org/sqlite"
)

const createKVTableSQL = `
	CREATE TABLE IF NOT EXISTS kv (
		key TEXT PRIMARY KEY,
		value TEXT
	)`

// CreateInMemoryDB creates an in-memory SQLite database with the kv table
func CreateInMemoryDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("Failed to create in-memory database: %v", err)
	}
	// Each pooled connection would get its own empty :memory: database.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(createKVTableSQL); err != nil {
		db.Close()
		t.Fatalf("Failed to create kv table: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	return db
}

// InsertKV inserts a raw row into the kv table
func InsertKV(t *testing.T, db *sql.DB, key, value string) {
	t.Helper()
	if _, err := db.Exec("INSERT OR REPLACE INTO kv (key, value) VALUES (?, ?)", key, value); err != nil {
		t.Fatalf("Failed to insert %s: %v", key, err)
	}
}

// InsertNullKV inserts a row whose value is NULL
func InsertNullKV(t *testing.T, db *sql.DB, key string) {
	t.Helper()
	if _, err := db.Exec("INSERT OR REPLACE INTO kv (key, value) VALUES (?, NULL)", key); err != nil {
		t.Fatalf("Failed to insert %s: %v", key, err)
	}
}

// CountKV returns the number of rows in the kv table
func CountKV(t *testing.T, db *sql.DB) int {
	t.Helper()
	var n int
	if err := db.QueryRow("SELECT COUNT(*) FROM kv").Scan(&n); err != nil {
		t.Fatalf("Failed to count rows: %v", err)
	}
	return n
}
