// Package models defines the domain types for the cookbook.
package models

import "time"

// Recipe is an assembled recipe: frontmatter fields with defaults applied,
// plus the segmented body. It is read-only once built.
type Recipe struct {
	Slug           string    `json:"slug"`
	Path           string    `json:"path"`
	Title          string    `json:"title"`
	Date           string    `json:"date"`
	PublishedAt    time.Time `json:"published_at"`
	DisplayDate    string    `json:"display_date"`
	Source         string    `json:"source"`
	Category       string    `json:"category"`
	Tags           []string  `json:"tags"`
	PrepTime       string    `json:"prep_time"`
	CookTime       string    `json:"cook_time"`
	TotalTime      string    `json:"total_time"`
	Servings       string    `json:"servings"`
	Description    string    `json:"description"`
	HeroImage      string    `json:"hero_image,omitempty"`
	ThumbnailImage string    `json:"thumbnail_image,omitempty"`
	Images         []string  `json:"images"`
	Content        string    `json:"content"`
	Intro          string    `json:"intro"`
	Ingredients    []string  `json:"ingredients"`
	Instructions   []string  `json:"instructions"`
	Notes          string    `json:"notes"`
	Checksum       string    `json:"checksum"`
}

// RecipeFile is a recipe file found on disk.
type RecipeFile struct {
	Path    string
	Size    int64
	ModTime time.Time
}

// Stats summarises the catalog.
type Stats struct {
	TotalRecipes    int      `json:"total_recipes"`
	Categories      []string `json:"categories"`
	TotalCategories int      `json:"total_categories"`
}

// ShareMeta carries the page metadata used for link previews.
type ShareMeta struct {
	Title       string            `json:"title"`
	Description string            `json:"description"`
	Image       string            `json:"image,omitempty"`
	URL         string            `json:"url,omitempty"`
	Tags        map[string]string `json:"tags"`
}

// FormatDate renders t as "02 Jan 2006". The zero time renders empty.
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("02 Jan 2006")
}
