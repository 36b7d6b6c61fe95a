package catalog

import (
	"slices"
	"sort"
	"strings"

	"github.com/starford/cookbook/internal/models"
)

// AllFilter is the filter value meaning "no restriction".
const AllFilter = "All"

// Filter narrows a recipe listing. Empty fields and AllFilter match everything.
type Filter struct {
	Query    string
	Category string
	Tag      string
}

func active(v string) bool {
	return v != "" && v != AllFilter
}

// Match reports whether r passes every active condition of f: the query is
// a case-insensitive substring of the title, the category matches exactly,
// and the tag is one of the recipe's tags.
func (f Filter) Match(r models.Recipe) bool {
	if f.Query != "" && !strings.Contains(strings.ToLower(r.Title), strings.ToLower(f.Query)) {
		return false
	}
	if active(f.Category) && r.Category != f.Category {
		return false
	}
	if active(f.Tag) && !slices.Contains(r.Tags, f.Tag) {
		return false
	}
	return true
}

// Search returns the recipes matching f, newest first.
func (c *Catalog) Search(f Filter) []models.Recipe {
	all := c.All()
	out := make([]models.Recipe, 0, len(all))
	for _, r := range all {
		if f.Match(r) {
			out = append(out, r)
		}
	}
	return out
}

// Categories returns each distinct category in first-seen order.
func (c *Catalog) Categories() []string {
	seen := make(map[string]struct{})
	out := []string{}
	for _, r := range c.All() {
		if _, ok := seen[r.Category]; ok {
			continue
		}
		seen[r.Category] = struct{}{}
		out = append(out, r.Category)
	}
	return out
}

// Tags returns every distinct tag, sorted.
func (c *Catalog) Tags() []string {
	seen := make(map[string]struct{})
	out := []string{}
	for _, r := range c.All() {
		for _, t := range r.Tags {
			if _, ok := seen[t]; ok {
				continue
			}
			seen[t] = struct{}{}
			out = append(out, t)
		}
	}
	sort.Strings(out)
	return out
}

// Stats summarises the catalog.
func (c *Catalog) Stats() models.Stats {
	cats := c.Categories()
	return models.Stats{
		TotalRecipes:    c.Len(),
		Categories:      cats,
		TotalCategories: len(cats),
	}
}
