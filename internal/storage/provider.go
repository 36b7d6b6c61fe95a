// Package storage reads and writes recipe Markdown files under a content root.
package storage

import "github.com/starford/cookbook/internal/models"

// Provider is the interface for recipe file operations. Paths are slash
// separated and relative to the content root.
type Provider interface {
	// List returns every recipe file under dir in lexical path order.
	List(dir string) ([]models.RecipeFile, error)
	Read(path string) ([]byte, error)
	// Write atomically creates or replaces path.
	Write(path string, content []byte) error
	// Create atomically writes a new file and fails with os.ErrExist if
	// path is already taken.
	Create(path string, content []byte) error
	Delete(path string) error
}
