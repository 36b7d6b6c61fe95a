package catalog

import (
	"path"
	"regexp"
	"strings"
	"time"

	"github.com/starford/cookbook/internal/checksum"
	"github.com/starford/cookbook/internal/models"
	"github.com/starford/cookbook/internal/parser"
)

// Field defaults applied when frontmatter omits a value.
const (
	DefaultTitle    = "Untitled Recipe"
	DefaultSource   = "Unknown"
	DefaultCategory = "Uncategorized"
)

const excerptRunes = 200

var excerptStripRe = regexp.MustCompile(`[#*_\[\]]`)

var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.000Z",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

// SlugFromPath returns the file name without directory and .md extension.
func SlugFromPath(p string) string {
	return strings.TrimSuffix(path.Base(p), ".md")
}

// ParseDate accepts the date shapes the content uses. Unparseable input
// yields the zero time.
func ParseDate(s string) time.Time {
	s = strings.Trim(strings.TrimSpace(s), `"'`)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

// Assemble builds a Recipe from a raw file, applying field defaults. now
// stands in for a missing date.
func Assemble(p string, data []byte, d parser.Dialect, now time.Time) models.Recipe {
	doc := parser.Parse(data, d)
	fm := doc.Frontmatter

	date := fm.Text("date", now.UTC().Format(time.RFC3339))
	published := ParseDate(date)

	description := fm.Text("description", "")

	return models.Recipe{
		Slug:           SlugFromPath(p),
		Path:           p,
		Title:          fm.Text("title", DefaultTitle),
		Date:           date,
		PublishedAt:    published,
		DisplayDate:    models.FormatDate(published),
		Source:         fm.Text("source", DefaultSource),
		Category:       fm.Text("category", DefaultCategory),
		Tags:           listOrEmpty(fm, "tags"),
		PrepTime:       fm.Text("prepTime", ""),
		CookTime:       fm.Text("cookTime", ""),
		TotalTime:      fm.Text("totalTime", ""),
		Servings:       fm.Text("servings", ""),
		Description:    description,
		HeroImage:      fm.Text("heroImage", ""),
		ThumbnailImage: fm.Text("thumbnailImage", ""),
		Images:         listOrEmpty(fm, "images"),
		Content:        doc.Body,
		Intro:          intro(description, doc.Sections.Intro, doc.Body),
		Ingredients:    doc.Sections.Ingredients,
		Instructions:   doc.Sections.Instructions,
		Notes:          doc.Sections.Notes,
		Checksum:       checksum.Sum(data),
	}
}

func listOrEmpty(fm parser.Frontmatter, key string) []string {
	if items := fm.Strings(key); items != nil {
		return items
	}
	return []string{}
}

// intro prefers the description, then the segmented intro, then a plain
// excerpt of the body.
func intro(description, segmented, body string) string {
	if description != "" {
		return description
	}
	if segmented != "" {
		return segmented
	}
	return Excerpt(body)
}

// Excerpt returns the first 200 runes of body with Markdown emphasis,
// heading and link characters removed, followed by "...".
func Excerpt(body string) string {
	r := []rune(body)
	if len(r) > excerptRunes {
		r = r[:excerptRunes]
	}
	return excerptStripRe.ReplaceAllString(string(r), "") + "..."
}
