package internal

import (
	"path/filepath"
	"testing"

	"github.com/iksnae/gamehelp/testutil"
)

func TestOpenDatabase(t *testing.T) {
	tests := []struct {
		name    string
		path    func(t *testing.T) string
		wantErr bool
	}{
		{
			name: "creates file and parent directories",
			path: func(t *testing.T) string {
				return filepath.Join(testutil.CreateTempDir(t), "nested", "state.db")
			},
		},
		{
			name: "in memory",
			path: func(t *testing.T) string { return ":memory:" },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, err := OpenDatabase(tt.path(t))
			if (err != nil) != tt.wantErr {
				t.Fatalf("OpenDatabase() error = %v, wantErr %v", err, tt.wantErr)
			}
			defer db.Close()

			if _, err := db.Exec("INSERT INTO kv (key, value) VALUES ('k', 'v')"); err != nil {
				t.Errorf("kv table should exist: %v", err)
			}
		})
	}
}

func TestSQLiteStore_GetSetDelete(t *testing.T) {
	db := testutil.CreateInMemoryDB(t)
	store := NewSQLiteStore(db, ":memory:")

	if _, ok, err := store.Get("missing"); ok || err != nil {
		t.Errorf("Get(missing) = ok %v, err %v; want absent", ok, err)
	}

	if err := store.Set("a", "1"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if err := store.Set("a", "2"); err != nil {
		t.Fatalf("Set() overwrite error = %v", err)
	}
	if v, ok, _ := store.Get("a"); !ok || v != "2" {
		t.Errorf("Get(a) = %q, %v; want 2", v, ok)
	}
	if n := testutil.CountKV(t, db); n != 1 {
		t.Errorf("row count = %d, want 1", n)
	}

	if err := store.Delete("a"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if err := store.Delete("a"); err != nil {
		t.Errorf("Delete() of missing key error = %v", err)
	}
	if _, ok, _ := store.Get("a"); ok {
		t.Error("Get(a) after delete should be absent")
	}
}

func TestSQLiteStore_NullValueIsAbsent(t *testing.T) {
	db := testutil.CreateInMemoryDB(t)
	testutil.InsertNullKV(t, db, KeyThreadID)
	store := NewSQLiteStore(db, ":memory:")

	if _, ok, err := store.Get(KeyThreadID); ok || err != nil {
		t.Errorf("Get(null) = ok %v, err %v; want absent", ok, err)
	}
}

func TestSQLiteStore_Entries(t *testing.T) {
	db := testutil.CreateInMemoryDB(t)
	testutil.InsertKV(t, db, KeyGame, "elden-ring")
	testutil.InsertKV(t, db, KeySessionID, testutil.SessionID1)
	testutil.InsertKV(t, db, "other.key", "x")
	store := NewSQLiteStore(db, ":memory:")

	pairs, err := store.Entries("gamehelp.")
	if err != nil {
		t.Fatalf("Entries() error = %v", err)
	}
	if len(pairs) != 2 {
		t.Fatalf("Entries() len = %d, want 2", len(pairs))
	}
	if pairs[0].Key != KeyGame || pairs[1].Key != KeySessionID {
		t.Errorf("Entries() not sorted by key: %+v", pairs)
	}
}

func TestSQLiteStore_ClosedDatabase(t *testing.T) {
	db, err := OpenDatabase(":memory:")
	if err != nil {
		t.Fatalf("OpenDatabase() error = %v", err)
	}
	store := NewSQLiteStore(db, ":memory:")
	store.Close()

	err = store.Set("k", "v")
	if _, ok := err.(*StorageError); !ok {
		t.Errorf("Set() on closed db error = %T, want *StorageError", err)
	}
}

func TestOpenSQLiteStore_Persists(t *testing.T) {
	path := filepath.Join(testutil.CreateTempDir(t), "state.db")

	first, err := OpenSQLiteStore(path)
	if err != nil {
		t.Fatalf("OpenSQLiteStore() error = %v", err)
	}
	if err := first.Set(KeyGame, "hollow-knight"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	first.Close()

	second, err := OpenSQLiteStore(path)
	if err != nil {
		t.Fatalf("reopen error = %v", err)
	}
	defer second.Close()
	if v, ok, _ := second.Get(KeyGame); !ok || v != "hollow-knight" {
		t.Errorf("Get() after reopen = %q, %v", v, ok)
	}
	if second.Path() != path {
		t.Errorf("Path() = %q, want %q", second.Path(), path)
	}
}
