package index

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/starford/cookbook/internal/models"
)

// RecipeRow represents a row in the recipes table.
type RecipeRow struct {
	Slug      string
	Path      string
	Title     string
	Category  string
	Checksum  string
	Tags      []string
	UpdatedAt time.Time
}

const defaultSearchLimit = 20

// SearchResult represents one search hit.
type SearchResult struct {
	Slug    string `json:"slug"`
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
}

// RowFromRecipe maps an assembled recipe to its index row and searchable body.
func RowFromRecipe(r models.Recipe) (RecipeRow, string) {
	tags := r.Tags
	if tags == nil {
		tags = []string{}
	}
	row := RecipeRow{
		Slug:      r.Slug,
		Path:      r.Path,
		Title:     r.Title,
		Category:  r.Category,
		Checksum:  r.Checksum,
		Tags:      tags,
		UpdatedAt: time.Now(),
	}
	parts := []string{r.Intro}
	parts = append(parts, r.Ingredients...)
	parts = append(parts, r.Instructions...)
	if r.Notes != "" {
		parts = append(parts, r.Notes)
	}
	return row, strings.Join(parts, "\n")
}

// UpsertRecipe inserts or replaces a recipe and its FTS entry within a transaction.
func (db *DB) UpsertRecipe(r RecipeRow, body string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	tagsJSON, _ := json.Marshal(r.Tags)

	// Body is kept on the row for the LIKE fallback search.
	_, err = tx.Exec(`
		INSERT INTO recipes (slug, path, title, category, checksum, tags, body, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(slug) DO UPDATE SET
			path       = excluded.path,
			title      = excluded.title,
			category   = excluded.category,
			checksum   = excluded.checksum,
			tags       = excluded.tags,
			body       = excluded.body,
			updated_at = excluded.updated_at
	`, r.Slug, r.Path, r.Title, r.Category, r.Checksum, string(tagsJSON), body, r.UpdatedAt)
	if err != nil {
		return fmt.Errorf("index: upsert recipe: %w", err)
	}

	// No-op when FTS5 is not compiled in.
	if err := ftsUpsert(tx, r.Slug, r.Title, body, r.Category, r.Tags); err != nil {
		return err
	}

	return tx.Commit()
}

// DeleteRecipe removes a recipe and its FTS entry.
func (db *DB) DeleteRecipe(slug string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if err := ftsDelete(tx, slug); err != nil {
		return err
	}
	if _, err := tx.Exec(`DELETE FROM recipes WHERE slug = ?`, slug); err != nil {
		return fmt.Errorf("index: delete recipe: %w", err)
	}

	return tx.Commit()
}

// GetChecksum returns the stored checksum for a recipe, or empty string if not found.
func (db *DB) GetChecksum(slug string) (string, error) {
	var cs string
	err := db.conn.QueryRow(`SELECT checksum FROM recipes WHERE slug = ?`, slug).Scan(&cs)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("index: get checksum: %w", err)
	}
	return cs, nil
}

// AllChecksums returns the stored checksum of every indexed recipe, keyed by slug.
func (db *DB) AllChecksums() (map[string]string, error) {
	rows, err := db.conn.Query(`SELECT slug, checksum FROM recipes`)
	if err != nil {
		return nil, fmt.Errorf("index: all checksums: %w", err)
	}
	defer rows.Close()
	out := make(map[string]string)
	for rows.Next() {
		var slug, cs string
		if err := rows.Scan(&slug, &cs); err != nil {
			return nil, err
		}
		out[slug] = cs
	}
	return out, rows.Err()
}

// Count returns the number of indexed recipes.
func (db *DB) Count() (int, error) {
	var n int
	if err := db.conn.QueryRow(`SELECT count(*) FROM recipes`).Scan(&n); err != nil {
		return 0, fmt.Errorf("index: count: %w", err)
	}
	return n, nil
}
