package storage

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func tempContent(t *testing.T) *FS {
	t.Helper()
	dir := t.TempDir()
	fs, err := NewFS(dir)
	if err != nil {
		t.Fatalf("NewFS: %v", err)
	}
	return fs
}

func TestWriteAndRead(t *testing.T) {
	s := tempContent(t)
	content := []byte("---\ntitle: Dal\n---\nLentils.\n")
	if err := s.Write("dal.md", content); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, err := s.Read("dal.md")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(got) != string(content) {
		t.Errorf("content mismatch: got %q", got)
	}
}

func TestWriteCreatesSubdirs(t *testing.T) {
	s := tempContent(t)
	if err := s.Write("desserts/flan.md", []byte("caramel")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, err := s.Read("desserts/flan.md")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(got) != "caramel" {
		t.Errorf("content = %q", got)
	}
}

func TestDelete(t *testing.T) {
	s := tempContent(t)
	_ = s.Write("gone.md", []byte("bye"))
	if err := s.Delete("gone.md"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := s.Read("gone.md"); err == nil {
		t.Error("expected error reading deleted file")
	}
}

func TestCreate_DoesNotClobber(t *testing.T) {
	s := tempContent(t)
	if err := s.Create("tart.md", []byte("first")); err != nil {
		t.Fatalf("Create: %v", err)
	}
	err := s.Create("tart.md", []byte("second"))
	if !errors.Is(err, os.ErrExist) {
		t.Fatalf("second Create err = %v, want os.ErrExist", err)
	}
	got, _ := s.Read("tart.md")
	if string(got) != "first" {
		t.Errorf("content = %q, want original", got)
	}
	matches, _ := filepath.Glob(filepath.Join(s.Root(), ".cookbook-tmp-*"))
	if len(matches) != 0 {
		t.Errorf("leftover temp files: %v", matches)
	}
}

func TestIsRecipeFile(t *testing.T) {
	cases := map[string]bool{
		"soup.md":          true,
		"desserts/tart.md": true,
		".draft.md":        false,
		"notes.txt":        false,
		"md":               false,
	}
	for name, want := range cases {
		if got := IsRecipeFile(name); got != want {
			t.Errorf("IsRecipeFile(%q) = %v, want %v", name, got, want)
		}
	}
}

func TestList(t *testing.T) {
	s := tempContent(t)
	_ = s.Write("b-soup.md", []byte("b"))
	_ = s.Write("a-bread.md", []byte("a"))
	_ = s.Write("sub/c-cake.md", []byte("c"))
	_ = s.Write("readme.txt", []byte("not md"))
	_ = os.WriteFile(filepath.Join(s.Root(), ".draft.md"), []byte("hidden"), 0o644)

	items, err := s.List("")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	want := []string{"a-bread.md", "b-soup.md", "sub/c-cake.md"}
	if len(items) != len(want) {
		t.Fatalf("len = %d, want %d (%+v)", len(items), len(want), items)
	}
	for i, p := range want {
		if items[i].Path != p {
			t.Errorf("items[%d].Path = %q, want %q", i, items[i].Path, p)
		}
		if items[i].Size != 1 || items[i].ModTime.IsZero() {
			t.Errorf("items[%d] = %+v, want size 1 and a mod time", i, items[i])
		}
	}
}

func TestTraversalBlocked(t *testing.T) {
	s := tempContent(t)

	cases := []string{
		"../../etc/passwd",
		"../outside.md",
		"/etc/shadow",
		"sub/../../escape.md",
	}
	for _, p := range cases {
		if _, err := s.Read(p); err == nil {
			t.Errorf("expected error for path %q", p)
		}
		if err := s.Write(p, []byte("x")); err == nil {
			t.Errorf("expected error for write to %q", p)
		}
	}
}

func TestAtomicWriteNoLeftovers(t *testing.T) {
	s := tempContent(t)
	_ = s.Write("atomic.md", []byte("original content"))

	updated := []byte("updated content")
	if err := s.Write("atomic.md", updated); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, _ := s.Read("atomic.md")
	if string(got) != string(updated) {
		t.Errorf("expected updated content, got %q", got)
	}

	matches, _ := filepath.Glob(filepath.Join(s.root, ".cookbook-tmp-*"))
	if len(matches) != 0 {
		t.Errorf("leftover temp files: %v", matches)
	}
}

func TestNewFS_NonExistentDir(t *testing.T) {
	_, err := NewFS(filepath.Join(t.TempDir(), "missing"))
	if err == nil {
		t.Error("expected error for non-existent dir")
	}
}

func TestNewFS_FileNotDir(t *testing.T) {
	f, _ := os.CreateTemp("", "cookbook-test-*")
	_ = f.Close()
	defer os.Remove(f.Name())
	_, err := NewFS(f.Name())
	if err == nil {
		t.Error("expected error when root is a file")
	}
}
