package internal

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// KeyValueStore is the on-device persistence the identity, conversation and
// game stores are built on. Missing keys report ok=false, not an error.
type KeyValueStore interface {
	Get(key string) (string, bool, error)
	Set(key, value string) error
	Delete(key string) error
}

const createKVTableSQL = `
CREATE TABLE IF NOT EXISTS kv (
	key TEXT PRIMARY KEY,
	value TEXT
)`

// OpenDatabase opens (creating if needed) the SQLite state database
func OpenDatabase(path string) (*sql.DB, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, &StorageError{Path: path, Op: "open", Err: err}
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// One connection: every caller sees the same (possibly in-memory) database
	// and writes are serialised.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("database ping failed: %w", err)
	}

	if _, err := db.Exec(createKVTableSQL); err != nil {
		db.Close()
		return nil, &StorageError{Path: path, Op: "open", Err: err}
	}

	return db, nil
}

// SQLiteStore implements KeyValueStore on the kv table
type SQLiteStore struct {
	db   *sql.DB
	path string
}

// NewSQLiteStore wraps an open database that already has the kv table
func NewSQLiteStore(db *sql.DB, path string) *SQLiteStore {
	return &SQLiteStore{db: db, path: path}
}

// OpenSQLiteStore opens the database at path and returns a ready store
func OpenSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := OpenDatabase(path)
	if err != nil {
		return nil, err
	}
	return NewSQLiteStore(db, path), nil
}

// Path returns the database location
func (s *SQLiteStore) Path() string {
	return s.path
}

// Close closes the underlying database
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Get returns the value stored under key
func (s *SQLiteStore) Get(key string) (string, bool, error) {
	var value sql.NullString
	err := s.db.QueryRow("SELECT value FROM kv WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, &StorageError{Path: s.path, Op: "get", Err: err}
	}
	if !value.Valid {
		return "", false, nil
	}
	return value.String, true, nil
}

// Set stores value under key, replacing any previous value
func (s *SQLiteStore) Set(key, value string) error {
	_, err := s.db.Exec(
		"INSERT INTO kv (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value",
		key, value,
	)
	if err != nil {
		return &StorageError{Path: s.path, Op: "set", Err: err}
	}
	return nil
}

// Delete removes key; deleting a missing key is not an error
func (s *SQLiteStore) Delete(key string) error {
	if _, err := s.db.Exec("DELETE FROM kv WHERE key = ?", key); err != nil {
		return &StorageError{Path: s.path, Op: "delete", Err: err}
	}
	return nil
}

// QueryKV lists key-value pairs whose key matches a LIKE pattern
func QueryKV(db *sql.DB, pattern string) ([]KeyValuePair, error) {
	query := "SELECT key, value FROM kv WHERE key LIKE ? AND value IS NOT NULL ORDER BY key"
	rows, err := db.Query(query, pattern)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	var pairs []KeyValuePair
	for rows.Next() {
		var pair KeyValuePair
		var value sql.NullString
		if err := rows.Scan(&pair.Key, &value); err != nil {
			return nil, fmt.Errorf("scan failed: %w", err)
		}
		if value.Valid {
			pair.Value = value.String
			pairs = append(pairs, pair)
		}
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return pairs, nil
}

// Entries lists every persisted key with the given prefix
func (s *SQLiteStore) Entries(prefix string) ([]KeyValuePair, error) {
	return QueryKV(s.db, prefix+"%")
}

// KeyValuePair represents a row of the kv table
type KeyValuePair struct {
	Key   string
	Value string
}
