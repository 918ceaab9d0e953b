package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
)

// createTestStore opens a fresh bundle in a temp dir.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fixtures.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOpen_CreatesNewBundle(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fixtures.db")

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer s.Close()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Error("bundle file was not created")
	}
}

func TestOpen_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fixtures.db")

	for i := 0; i < 3; i++ {
		s, err := Open(path)
		if err != nil {
			t.Fatalf("Open() iteration %d failed: %v", i, err)
		}
		s.Close()
	}

	s, err := Open(path)
	if err != nil {
		t.Fatalf("final Open() failed: %v", err)
	}
	defer s.Close()

	for _, table := range []string{"bundle", "fixtures"} {
		var name string
		err := s.db.QueryRow(
			"SELECT name FROM sqlite_master WHERE type='table' AND name=?",
			table,
		).Scan(&name)
		if err != nil {
			t.Errorf("table %q not found after idempotent opens: %v", table, err)
		}
	}
}

func TestOpen_InvalidPath(t *testing.T) {
	_, err := Open("/nonexistent/dir/fixtures.db")
	if err == nil {
		t.Error("expected error for invalid path, got nil")
	}
}

func TestClose_NilDB(t *testing.T) {
	s := &Store{db: nil}
	if err := s.Close(); err != nil {
		t.Errorf("Close() on nil db should not error: %v", err)
	}
}

// pragma reads a single pragma value.
func pragma(t *testing.T, s *Store, name string) string {
	t.Helper()
	var value string
	if err := s.db.QueryRow("PRAGMA " + name).Scan(&value); err != nil {
		t.Fatalf("PRAGMA %s failed: %v", name, err)
	}
	return value
}

func TestPragmas(t *testing.T) {
	s := createTestStore(t)

	tests := []struct {
		name     string
		expected string
	}{
		{"journal_mode", "delete"},
		{"synchronous", "2"},
		{"busy_timeout", "5000"},
	}
	for _, tt := range tests {
		if got := pragma(t, s, tt.name); got != tt.expected {
			t.Errorf("%s = %q, expected %q", tt.name, got, tt.expected)
		}
	}
}

func TestOpen_LeavesSingleFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "fixtures.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	if _, err := s.Pack(context.Background(), writeFixtures(t, map[string]string{"a.txt": "a"}), []string{"a.txt"}); err != nil {
		t.Fatalf("Pack() failed: %v", err)
	}
	s.Close()

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		names := make([]string, len(entries))
		for i, e := range entries {
			names[i] = e.Name()
		}
		t.Errorf("bundle directory holds %v, want only fixtures.db", names)
	}
}

func TestMigrations_SetUserVersion(t *testing.T) {
	s := createTestStore(t)

	if got := pragma(t, s, "user_version"); got != strconv.Itoa(schemaVersion) {
		t.Errorf("user_version = %s, want %d", got, schemaVersion)
	}

	var name string
	err := s.db.QueryRow(
		"SELECT name FROM sqlite_master WHERE type='index' AND name='idx_fixtures_digest'",
	).Scan(&name)
	if err != nil {
		t.Errorf("digest index missing: %v", err)
	}
}

func TestMigrations_UpgradeOldBundle(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fixtures.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	if _, err := s.db.Exec("DROP INDEX idx_fixtures_digest; PRAGMA user_version = 0"); err != nil {
		t.Fatal(err)
	}
	s.Close()

	s, err = Open(path)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer s.Close()

	var name string
	if err := s.db.QueryRow("SELECT name FROM sqlite_master WHERE name='idx_fixtures_digest'").Scan(&name); err != nil {
		t.Errorf("migration did not recreate digest index: %v", err)
	}
}

func TestOpenReadOnly(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fixtures.db")
	w, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	if _, err := w.Pack(context.Background(), writeFixtures(t, map[string]string{"a.txt": "a"}), []string{"a.txt"}); err != nil {
		t.Fatalf("Pack() failed: %v", err)
	}
	w.Close()

	r, err := OpenReadOnly(path)
	if err != nil {
		t.Fatalf("OpenReadOnly() failed: %v", err)
	}
	defer r.Close()

	names, err := r.Names(context.Background())
	if err != nil {
		t.Fatalf("Names() failed: %v", err)
	}
	if len(names) != 1 || names[0] != "a.txt" {
		t.Errorf("Names() = %v, want [a.txt]", names)
	}
	if _, err := r.Pack(context.Background(), writeFixtures(t, map[string]string{"a.txt": "a"}), []string{"a.txt"}); err == nil {
		t.Error("Pack() on a read-only bundle should fail")
	}
}

func TestOpenReadOnly_MissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.db")
	if _, err := OpenReadOnly(path); err == nil {
		t.Fatal("expected error for missing bundle")
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("OpenReadOnly must not create the bundle")
	}
}

func TestOpenReadOnly_NewerSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fixtures.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	if _, err := s.db.Exec(fmt.Sprintf("PRAGMA user_version = %d", schemaVersion+1)); err != nil {
		t.Fatal(err)
	}
	s.Close()

	_, err = OpenReadOnly(path)
	if err == nil || !strings.Contains(err.Error(), "schema version") {
		t.Errorf("OpenReadOnly() error = %v, want schema version error", err)
	}
}
