package db

import (
	"path/filepath"
	"testing"
)

func TestNew_CreatesDatabase(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "nested", "test.db")

	database, err := New(dbPath, nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer database.Close()

	for _, table := range []string{"media", "projects", "exports", "config", "_migrations"} {
		var name string
		err := database.Conn().QueryRow(
			"SELECT name FROM sqlite_master WHERE type='table' AND name=?", table,
		).Scan(&name)
		if err != nil {
			t.Errorf("table %s not found: %v", table, err)
		}
	}
}

func TestNew_Pragmas(t *testing.T) {
	database, err := New(filepath.Join(t.TempDir(), "test.db"), nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer database.Close()

	var journalMode string
	if err := database.Conn().QueryRow("PRAGMA journal_mode").Scan(&journalMode); err != nil {
		t.Fatalf("PRAGMA journal_mode error = %v", err)
	}
	if journalMode != "wal" {
		t.Errorf("journal_mode = %s, want wal", journalMode)
	}

	var fk int
	if err := database.Conn().QueryRow("PRAGMA foreign_keys").Scan(&fk); err != nil {
		t.Fatalf("PRAGMA foreign_keys error = %v", err)
	}
	if fk != 1 {
		t.Errorf("foreign_keys = %d, want 1", fk)
	}
}

func TestNew_MigrationsIdempotent(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")

	db1, err := New(dbPath, nil)
	if err != nil {
		t.Fatalf("first New() error = %v", err)
	}
	db1.Close()

	db2, err := New(dbPath, nil)
	if err != nil {
		t.Fatalf("second New() error = %v", err)
	}
	defer db2.Close()

	var count int
	if err := db2.Conn().QueryRow("SELECT COUNT(*) FROM _migrations").Scan(&count); err != nil {
		t.Fatalf("count migrations error = %v", err)
	}
	if count != 2 {
		t.Errorf("migration count = %d, want 2", count)
	}
}

func TestNew_FailsInterruptedExports(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")

	db1, err := New(dbPath, nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	_, err = db1.Conn().Exec(`
		INSERT INTO exports (id, status, progress, format, quality, resolution, fps, created_at, updated_at)
		VALUES ('running-export', 'running', 42, 'mp4', 'high', '1080p', 30, datetime('now'), datetime('now')),
		       ('done-export', 'completed', 100, 'mp4', 'high', '1080p', 30, datetime('now'), datetime('now'))
	`)
	if err != nil {
		t.Fatalf("insert export error = %v", err)
	}
	db1.Close()

	db2, err := New(dbPath, nil)
	if err != nil {
		t.Fatalf("second New() error = %v", err)
	}
	defer db2.Close()

	var status, errMsg string
	err = db2.Conn().QueryRow("SELECT status, error FROM exports WHERE id = 'running-export'").Scan(&status, &errMsg)
	if err != nil {
		t.Fatalf("query export error = %v", err)
	}
	if status != "failed" {
		t.Errorf("export status = %s, want failed", status)
	}
	if errMsg != "interrupted by restart" {
		t.Errorf("export error = %s, want 'interrupted by restart'", errMsg)
	}

	if err := db2.Conn().QueryRow("SELECT status FROM exports WHERE id = 'done-export'").Scan(&status); err != nil {
		t.Fatalf("query export error = %v", err)
	}
	if status != "completed" {
		t.Errorf("completed export status = %s, want untouched", status)
	}
}
