//go:build !sqlite_fts5

package index

import (
	"database/sql"
	"fmt"
	"strings"
	"unicode/utf8"
)

func initFTS(*sql.DB) error { return nil }

func dropFTS(*sql.DB) error { return nil }

func ftsUpsert(*sql.Tx, string, string, string, string, []string) error { return nil }

func ftsDelete(*sql.Tx, string) error { return nil }

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// Search matches recipes containing every query word in the title, body,
// tags or category. Title hits rank first.
func (db *DB) Search(query string, limit int) ([]SearchResult, error) {
	if limit <= 0 {
		limit = defaultSearchLimit
	}
	terms := strings.Fields(query)
	if len(terms) == 0 {
		return []SearchResult{}, nil
	}

	var (
		conds []string
		args  []any
	)
	for _, term := range terms {
		like := "%" + likeEscaper.Replace(term) + "%"
		conds = append(conds, `(title LIKE ? ESCAPE '\' OR body LIKE ? ESCAPE '\' OR tags LIKE ? ESCAPE '\' OR category LIKE ? ESCAPE '\')`)
		args = append(args, like, like, like, like)
	}
	args = append(args, "%"+likeEscaper.Replace(terms[0])+"%", limit)

	rows, err := db.conn.Query(`
		SELECT slug, title, body
		FROM recipes
		WHERE `+strings.Join(conds, " AND ")+`
		ORDER BY (title LIKE ? ESCAPE '\') DESC, title
		LIMIT ?
	`, args...)
	if err != nil {
		return nil, fmt.Errorf("index: search: %w", err)
	}
	defer rows.Close()

	out := []SearchResult{}
	for rows.Next() {
		var (
			r    SearchResult
			body string
		)
		if err := rows.Scan(&r.Slug, &r.Title, &body); err != nil {
			return nil, err
		}
		r.Snippet = snippet(body, terms[0])
		out = append(out, r)
	}
	return out, rows.Err()
}

// snippetRadius is how many runes of context surround the first hit.
const snippetRadius = 80

// snippet cuts a window of body around the first case-insensitive
// occurrence of term, or the start of body when term only matched elsewhere.
func snippet(body, term string) string {
	body = strings.Join(strings.Fields(body), " ")
	at := strings.Index(strings.ToLower(body), strings.ToLower(term))
	if at < 0 {
		at = 0
	}
	runes := []rune(body)
	center := utf8.RuneCountInString(body[:at])
	start := max(center-snippetRadius, 0)
	end := min(center+snippetRadius, len(runes))

	s := string(runes[start:end])
	if start > 0 {
		s = "..." + s
	}
	if end < len(runes) {
		s += "..."
	}
	return s
}
