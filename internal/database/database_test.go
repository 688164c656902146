package database

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

func TestDefaultPathOverride(t *testing.T) {
	t.Cleanup(ResetPath)

	path := filepath.Join(t.TempDir(), "tsm.db")
	SetPath(path)

	got, err := DefaultPath()
	if err != nil {
		t.Fatalf("DefaultPath error: %v", err)
	}
	if got != path {
		t.Fatalf("DefaultPath = %q, want %q", got, path)
	}
}

func TestOpenCreatesDatabase(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested")
	path := filepath.Join(dir, "tsm.db")

	db, err := Open(path)
	if err != nil {
		t.Fatalf("Open error: %v", err)
	}
	t.Cleanup(func() {
		_ = db.Close()
	})

	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected database file: %v", err)
	}
	if runtime.GOOS != "windows" {
		info, err := os.Stat(dir)
		if err != nil {
			t.Fatal(err)
		}
		if perm := info.Mode().Perm(); perm != 0o700 {
			t.Errorf("dir perm = %o, want 700", perm)
		}
	}
}

func TestMigrateRunsOnce(t *testing.T) {
	db, err := Open(filepath.Join(t.TempDir(), "tsm.db"))
	if err != nil {
		t.Fatalf("Open error: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	// A second CREATE without IF NOT EXISTS would fail if applied twice.
	const ddl = `CREATE TABLE widgets (id INTEGER PRIMARY KEY);`
	for i := 0; i < 2; i++ {
		if err := Migrate(db, "001_widgets", ddl); err != nil {
			t.Fatalf("Migrate #%d: %v", i+1, err)
		}
	}

	var n int
	if err := db.QueryRow(`SELECT COUNT(*) FROM schema_migrations`).Scan(&n); err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("schema_migrations rows = %d, want 1", n)
	}
}

func TestMigrateFailureRollsBack(t *testing.T) {
	db, err := Open(filepath.Join(t.TempDir(), "tsm.db"))
	if err != nil {
		t.Fatalf("Open error: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err := Migrate(db, "001_broken", `CREATE TABLE oops (`); err == nil {
		t.Fatal("expected error for invalid DDL")
	}

	var n int
	if err := db.QueryRow(`SELECT COUNT(*) FROM schema_migrations WHERE name = '001_broken'`).Scan(&n); err != nil {
		t.Fatal(err)
	}
	if n != 0 {
		t.Error("failed migration should not be recorded")
	}
}
