// Package testutil provides shared test helpers for content directories,
// catalogs and index databases.
package testutil

import (
	"path/filepath"
	"testing"

	"github.com/starford/cookbook/internal/catalog"
	"github.com/starford/cookbook/internal/index"
	"github.com/starford/cookbook/internal/storage"
)

// TestDB creates a temporary SQLite index that is closed on cleanup.
func TestDB(t *testing.T) *index.DB {
	t.Helper()
	db, err := index.Open(filepath.Join(t.TempDir(), "cookbook-test.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// TestContent creates a temporary content directory seeded with files
// (relative path to content) and returns its root and a storage provider.
func TestContent(t *testing.T, files map[string]string) (string, *storage.FS) {
	t.Helper()
	root := t.TempDir()
	store, err := storage.NewFS(root)
	if err != nil {
		t.Fatal(err)
	}
	for p, content := range files {
		if err := store.Write(p, []byte(content)); err != nil {
			t.Fatal(err)
		}
	}
	return root, store
}

// TestHolder returns a catalog holder whose catalogs read from store.
func TestHolder(store storage.Provider, opts ...catalog.Option) *catalog.Holder {
	return catalog.NewHolder(func() *catalog.Catalog { return catalog.New(store, opts...) })
}
