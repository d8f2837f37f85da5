package db

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestOpenUsesWAL(t *testing.T) {
	db, err := Open(DefaultOptions(filepath.Join(t.TempDir(), "state.db")))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer db.Close()

	mode, err := pragma(context.Background(), db, "journal_mode")
	if err != nil {
		t.Fatalf("pragma(journal_mode) error = %v", err)
	}
	if mode != "wal" {
		t.Fatalf("journal_mode = %q, want wal", mode)
	}
	timeout, err := pragma(context.Background(), db, "busy_timeout")
	if err != nil {
		t.Fatalf("pragma(busy_timeout) error = %v", err)
	}
	if timeout != "5000" {
		t.Fatalf("busy_timeout = %q, want 5000", timeout)
	}
}

func TestOpenEmptyPathError(t *testing.T) {
	if _, err := Open(DefaultOptions("  ")); err == nil {
		t.Fatalf("expected empty path error")
	}
}

func TestOpenWithoutWAL(t *testing.T) {
	db, err := Open(Options{Path: filepath.Join(t.TempDir(), "state.db")})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer db.Close()

	mode, err := pragma(context.Background(), db, "journal_mode")
	if err != nil {
		t.Fatalf("pragma(journal_mode) error = %v", err)
	}
	if mode == "wal" {
		t.Fatalf("expected rollback journal when WAL is off")
	}
}

func TestReadDuringJournalWrite(t *testing.T) {
	db, err := OpenState(context.Background(), filepath.Join(t.TempDir(), DefaultStateFile))
	if err != nil {
		t.Fatalf("OpenState() error = %v", err)
	}
	defer db.Close()

	ctx := context.Background()
	q := NewQueries(db)
	if err := q.PutState(ctx, "prod", "refreshToken", "r1"); err != nil {
		t.Fatalf("PutState() error = %v", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		t.Fatalf("BeginTx() error = %v", err)
	}
	defer tx.Rollback()
	if _, err := tx.ExecContext(ctx, `UPDATE client_state SET value = ? WHERE context = ?`, "r2", "prod"); err != nil {
		t.Fatalf("UPDATE in tx error = %v", err)
	}

	readCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	row, err := q.GetState(readCtx, "prod", "refreshToken")
	if err != nil {
		t.Fatalf("GetState() during write error = %v", err)
	}
	if row.Value != "r1" {
		t.Fatalf("GetState() = %q, want committed value r1", row.Value)
	}
}

func TestOpenStateRestrictsPermissions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "panelctl", DefaultStateFile)
	db, err := OpenState(context.Background(), path)
	if err != nil {
		t.Fatalf("OpenState() error = %v", err)
	}
	defer db.Close()

	dir, err := os.Stat(filepath.Dir(path))
	if err != nil {
		t.Fatalf("stat state dir: %v", err)
	}
	if perm := dir.Mode().Perm(); perm != 0o700 {
		t.Fatalf("state dir mode = %o, want 700", perm)
	}
	file, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat state file: %v", err)
	}
	if perm := file.Mode().Perm(); perm != 0o600 {
		t.Fatalf("state file mode = %o, want 600", perm)
	}
}

func TestPragmaErrorOnClosedDB(t *testing.T) {
	db, err := Open(DefaultOptions(filepath.Join(t.TempDir(), "state.db")))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if err := db.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if _, err := pragma(context.Background(), db, "journal_mode"); err == nil {
		t.Fatalf("expected pragma error on closed db")
	}
}
