package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"sync"
	"testing"

	"github.com/roach88/docgolden/internal/fixture"
)

func writeFixtures(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for name, content := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return root
}

func TestPack_PreservesOrder(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)
	root := writeFixtures(t, map[string]string{
		"b.docx":         "bbb",
		"a.docx":         "aa",
		"images/pic.png": "png",
	})

	names := []string{"b.docx", "images/pic.png", "a.docx"}
	info, err := s.Pack(ctx, root, names)
	if err != nil {
		t.Fatalf("Pack() failed: %v", err)
	}
	if info.Count != 3 || info.Root != root || info.ID == "" {
		t.Errorf("unexpected info: %+v", info)
	}

	got, err := s.Names(ctx)
	if err != nil {
		t.Fatalf("Names() failed: %v", err)
	}
	if !reflect.DeepEqual(got, names) {
		t.Errorf("Names() = %v, want %v", got, names)
	}

	data, err := s.Get(ctx, "images/pic.png")
	if err != nil {
		t.Fatalf("Get() failed: %v", err)
	}
	if string(data) != "png" {
		t.Errorf("Get() = %q, want %q", data, "png")
	}

	stored, err := s.Info(ctx)
	if err != nil {
		t.Fatalf("Info() failed: %v", err)
	}
	if !reflect.DeepEqual(stored, info) {
		t.Errorf("Info() = %+v, want %+v", stored, info)
	}
}

func TestPack_ReplacesContents(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)
	root := writeFixtures(t, map[string]string{"a.docx": "a", "b.docx": "b"})

	first, err := s.Pack(ctx, root, []string{"a.docx", "b.docx"})
	if err != nil {
		t.Fatalf("first Pack() failed: %v", err)
	}
	second, err := s.Pack(ctx, root, []string{"b.docx"})
	if err != nil {
		t.Fatalf("second Pack() failed: %v", err)
	}
	if first.ID == second.ID {
		t.Error("each pack should get a fresh bundle id")
	}

	names, _ := s.Names(ctx)
	if !reflect.DeepEqual(names, []string{"b.docx"}) {
		t.Errorf("Names() = %v, want [b.docx]", names)
	}
	if _, err := s.Get(ctx, "a.docx"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get(a.docx) error = %v, want ErrNotFound", err)
	}
}

func TestPack_MissingFileKeepsPreviousContents(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)
	root := writeFixtures(t, map[string]string{"a.docx": "a"})

	if _, err := s.Pack(ctx, root, []string{"a.docx"}); err != nil {
		t.Fatalf("Pack() failed: %v", err)
	}
	_, err := s.Pack(ctx, root, []string{"a.docx", "gone.docx"})
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("Pack() error = %v, want os.ErrNotExist", err)
	}

	names, _ := s.Names(ctx)
	if !reflect.DeepEqual(names, []string{"a.docx"}) {
		t.Errorf("rollback failed: Names() = %v", names)
	}
}

func TestNames_EmptyBundle(t *testing.T) {
	s := createTestStore(t)

	names, err := s.Names(context.Background())
	if err != nil {
		t.Fatalf("Names() failed: %v", err)
	}
	if names == nil || len(names) != 0 {
		t.Errorf("Names() = %#v, want empty non-nil slice", names)
	}

	info, err := s.Info(context.Background())
	if err != nil {
		t.Fatalf("Info() failed: %v", err)
	}
	if info.ID != "" {
		t.Errorf("unpacked bundle has id %q", info.ID)
	}
}

func TestGet_DetectsCorruption(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)
	root := writeFixtures(t, map[string]string{"a.docx": "original"})
	if _, err := s.Pack(ctx, root, []string{"a.docx"}); err != nil {
		t.Fatalf("Pack() failed: %v", err)
	}

	if _, err := s.db.Exec(`UPDATE fixtures SET content = ? WHERE name = ?`, []byte("edited"), "a.docx"); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Get(ctx, "a.docx"); !errors.Is(err, ErrCorrupt) {
		t.Errorf("Get() error = %v, want ErrCorrupt", err)
	}
}

func TestFetch_DrivesFixtureLoader(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)
	root := writeFixtures(t, map[string]string{
		"logo.png":   "png",
		".gitignore": "x",
	})
	if _, err := s.Pack(ctx, root, []string{"logo.png", ".gitignore"}); err != nil {
		t.Fatalf("Pack() failed: %v", err)
	}

	loader := fixture.NewLoader(fixture.LoaderConfig{Lister: s, Source: s})
	if err := loader.Load(ctx); err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	data, ok := loader.Store().Asset("logo.png")
	if !ok || string(data) != "png" {
		t.Errorf("asset logo.png = %q, %v", data, ok)
	}
	if _, ok := loader.Store().Asset(".gitignore"); ok {
		t.Error("hidden fixture should be skipped")
	}
}

func TestFetch_MissingName(t *testing.T) {
	s := createTestStore(t)

	var wg sync.WaitGroup
	wg.Add(1)
	s.Fetch(context.Background(), "nope.docx", func(name string, data []byte, err error) {
		defer wg.Done()
		if name != "nope.docx" {
			t.Errorf("name = %q", name)
		}
		if !errors.Is(err, ErrNotFound) {
			t.Errorf("err = %v, want ErrNotFound", err)
		}
	})
	wg.Wait()
}
