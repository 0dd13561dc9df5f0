package db

import (
	"bytes"
	"compress/gzip"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := NewDB(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to create database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// TestPragmasApplied verifies that essential PRAGMAs are set on all databases
func TestPragmasApplied(t *testing.T) {
	db := newTestDB(t)

	var journalMode string
	if err := db.QueryRow("PRAGMA journal_mode").Scan(&journalMode); err != nil {
		t.Fatalf("Failed to query journal_mode: %v", err)
	}
	if journalMode != "wal" {
		t.Errorf("Expected journal_mode=wal, got %s", journalMode)
	}

	var busyTimeout int
	if err := db.QueryRow("PRAGMA busy_timeout").Scan(&busyTimeout); err != nil {
		t.Fatalf("Failed to query busy_timeout: %v", err)
	}
	if busyTimeout != 5000 {
		t.Errorf("Expected busy_timeout=5000, got %d", busyTimeout)
	}

	var fk int
	if err := db.QueryRow("PRAGMA foreign_keys").Scan(&fk); err != nil {
		t.Fatalf("Failed to query foreign_keys: %v", err)
	}
	if fk != 1 {
		t.Errorf("Expected foreign_keys=1, got %d", fk)
	}
}

func TestNewDB_AppliesMigrations(t *testing.T) {
	db := newTestDB(t)

	version, dirty, err := db.MigrateVersion()
	if err != nil {
		t.Fatalf("MigrateVersion: %v", err)
	}
	if version != 2 || dirty {
		t.Errorf("version = %d dirty = %v, want 2 false", version, dirty)
	}

	for _, table := range []string{"footprints", "view_bookmarks"} {
		var n int
		err := db.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?`, table).Scan(&n)
		if err != nil || n != 1 {
			t.Errorf("table %s missing (n=%d, err=%v)", table, n, err)
		}
	}

	// Reopening an up-to-date database is a no-op.
	again, err := NewDB(db.Path())
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	again.Close()
}

func TestMigrateDownAndUp(t *testing.T) {
	db := newTestDB(t)

	if err := db.MigrateDown(); err != nil {
		t.Fatalf("MigrateDown: %v", err)
	}
	version, _, _ := db.MigrateVersion()
	if version != 1 {
		t.Errorf("version after down = %d, want 1", version)
	}
	var n int
	db.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='view_bookmarks'`).Scan(&n)
	if n != 0 {
		t.Error("view_bookmarks should be dropped")
	}

	if err := db.MigrateUp(); err != nil {
		t.Fatalf("MigrateUp: %v", err)
	}
	version, _, _ = db.MigrateVersion()
	if version != 2 {
		t.Errorf("version after up = %d, want 2", version)
	}
}

func TestBookmarkFootprintSetNull(t *testing.T) {
	db := newTestDB(t)

	if _, err := db.Exec(`INSERT INTO footprints (footprint_id, vertices_json, created_at_ns, updated_at_ns) VALUES ('a', '[]', 1, 1)`); err != nil {
		t.Fatalf("insert footprint: %v", err)
	}
	if _, err := db.Exec(`INSERT INTO view_bookmarks (bookmark_id, name, yaw_deg, pitch_deg, scale, footprint_id, created_at_ns) VALUES ('b', 'x', 0, 0, 1, 'a', 1)`); err != nil {
		t.Fatalf("insert bookmark: %v", err)
	}
	if _, err := db.Exec(`DELETE FROM footprints WHERE footprint_id = 'a'`); err != nil {
		t.Fatalf("delete footprint: %v", err)
	}

	var fp *string
	if err := db.QueryRow(`SELECT footprint_id FROM view_bookmarks WHERE bookmark_id = 'b'`).Scan(&fp); err != nil {
		t.Fatalf("select bookmark: %v", err)
	}
	if fp != nil {
		t.Errorf("footprint_id = %q, want NULL", *fp)
	}
}

func TestRunMigrateCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cli.db")

	var out bytes.Buffer
	if err := RunMigrateCommand([]string{"up"}, path, &out); err != nil {
		t.Fatalf("migrate up: %v", err)
	}
	if !strings.Contains(out.String(), "Current version: 2") {
		t.Errorf("unexpected output: %s", out.String())
	}

	out.Reset()
	if err := RunMigrateCommand([]string{"down"}, path, &out); err != nil {
		t.Fatalf("migrate down: %v", err)
	}
	if !strings.Contains(out.String(), "Current version: 1") {
		t.Errorf("unexpected output: %s", out.String())
	}

	out.Reset()
	if err := RunMigrateCommand([]string{"status"}, path, &out); err != nil {
		t.Fatalf("migrate status: %v", err)
	}
	if !strings.Contains(out.String(), "dirty: false") {
		t.Errorf("unexpected output: %s", out.String())
	}

	out.Reset()
	if err := RunMigrateCommand([]string{"force", "2"}, path, &out); err != nil {
		t.Fatalf("migrate force: %v", err)
	}

	for _, args := range [][]string{nil, {"sideways"}, {"force"}, {"force", "x"}} {
		if err := RunMigrateCommand(args, path, io.Discard); err == nil {
			t.Errorf("RunMigrateCommand(%v) should fail", args)
		}
	}

	out.Reset()
	if err := RunMigrateCommand([]string{"help"}, path, &out); err != nil {
		t.Fatalf("migrate help: %v", err)
	}
	if !strings.Contains(out.String(), "Usage: grismview migrate") {
		t.Errorf("help output missing usage: %s", out.String())
	}
}

func TestAttachAdminRoutes(t *testing.T) {
	db := newTestDB(t)
	mux := http.NewServeMux()
	if err := db.AttachAdminRoutes(mux); err != nil {
		t.Fatalf("AttachAdminRoutes: %v", err)
	}

	t.Run("backup endpoint", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/debug/backup", nil)
		req.RemoteAddr = "127.0.0.1:12345"
		w := httptest.NewRecorder()
		mux.ServeHTTP(w, req)

		if w.Code == http.StatusNotFound {
			t.Fatal("Route /debug/backup should be registered, got 404")
		}
		if w.Code != http.StatusOK {
			// Debug access may be refused outside a tailnet.
			return
		}
		if w.Header().Get("Content-Type") != "application/gzip" {
			t.Errorf("Content-Type = %q", w.Header().Get("Content-Type"))
		}
		gz, err := gzip.NewReader(w.Body)
		if err != nil {
			t.Fatalf("gzip reader: %v", err)
		}
		head := make([]byte, 16)
		if _, err := io.ReadFull(gz, head); err != nil {
			t.Fatalf("read backup: %v", err)
		}
		if string(head) != "SQLite format 3\x00" {
			t.Errorf("backup is not a SQLite file: %q", head)
		}
	})

	t.Run("tailsql endpoint", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/debug/tailsql/", nil)
		req.RemoteAddr = "127.0.0.1:12345"
		w := httptest.NewRecorder()
		mux.ServeHTTP(w, req)
		if w.Code == http.StatusNotFound {
			t.Error("Route /debug/tailsql/ should be registered, got 404")
		}
	})
}
