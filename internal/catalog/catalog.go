// Package catalog assembles recipe files into an immutable, lazily loaded
// collection and answers lookups and filters over it.
package catalog

import (
	"fmt"
	"io"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/starford/cookbook/internal/models"
	"github.com/starford/cookbook/internal/parser"
	"github.com/starford/cookbook/internal/storage"
)

// Option configures a Catalog.
type Option func(*Catalog)

// WithDialect sets the body dialect used to segment recipes.
func WithDialect(d parser.Dialect) Option {
	return func(c *Catalog) { c.dialect = d }
}

// WithLogger sets the logger used for per-file warnings.
func WithLogger(l *slog.Logger) Option {
	return func(c *Catalog) { c.logger = l }
}

// WithClock overrides the time source used for missing dates.
func WithClock(now func() time.Time) Option {
	return func(c *Catalog) { c.now = now }
}

// Catalog is the set of recipes read from a storage provider. It is loaded
// at most once; after that its contents never change and may be shared by
// concurrent readers.
type Catalog struct {
	store   storage.Provider
	dialect parser.Dialect
	logger  *slog.Logger
	now     func() time.Time

	once    sync.Once
	loadErr error
	recipes []models.Recipe
	bySlug  map[string]int
}

// New returns an unloaded catalog over store.
func New(store storage.Provider, opts ...Option) *Catalog {
	c := &Catalog{
		store:   store,
		dialect: parser.DialectStandard,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Load reads and assembles every recipe file. Only the first call does any
// work; later calls return the first call's result. Unreadable files are
// logged and skipped; only a failed listing is an error.
func (c *Catalog) Load() error {
	c.once.Do(func() {
		c.loadErr = c.load()
	})
	return c.loadErr
}

func (c *Catalog) load() error {
	files, err := c.store.List("")
	if err != nil {
		return fmt.Errorf("catalog: list: %w", err)
	}

	now := c.now()
	recipes := make([]models.Recipe, 0, len(files))
	seen := make(map[string]string, len(files))
	for _, f := range files {
		data, err := c.store.Read(f.Path)
		if err != nil {
			c.logger.Warn("catalog: read failed", slog.String("path", f.Path), slog.String("error", err.Error()))
			continue
		}
		r := Assemble(f.Path, data, c.dialect, now)
		if prev, dup := seen[r.Slug]; dup {
			c.logger.Warn("catalog: duplicate slug skipped",
				slog.String("slug", r.Slug),
				slog.String("path", f.Path),
				slog.String("kept", prev))
			continue
		}
		seen[r.Slug] = f.Path
		recipes = append(recipes, r)
	}

	sort.SliceStable(recipes, func(i, j int) bool {
		a, b := recipes[i], recipes[j]
		if !a.PublishedAt.Equal(b.PublishedAt) {
			return a.PublishedAt.After(b.PublishedAt)
		}
		return a.Slug < b.Slug
	})

	c.recipes = recipes
	c.bySlug = make(map[string]int, len(recipes))
	for i, r := range recipes {
		c.bySlug[r.Slug] = i
	}
	c.logger.Debug("catalog: loaded", slog.Int("recipes", len(recipes)))
	return nil
}

// All returns every recipe, newest first. The slice is shared and must not
// be modified. A failed load yields an empty result.
func (c *Catalog) All() []models.Recipe {
	if err := c.Load(); err != nil {
		c.logger.Warn("catalog: load failed", slog.String("error", err.Error()))
	}
	return c.recipes
}

// BySlug looks up a single recipe.
func (c *Catalog) BySlug(slug string) (models.Recipe, bool) {
	_ = c.All()
	i, ok := c.bySlug[slug]
	if !ok {
		return models.Recipe{}, false
	}
	return c.recipes[i], true
}

// Len returns the number of recipes.
func (c *Catalog) Len() int {
	return len(c.All())
}

// Holder owns the current catalog and swaps in fresh ones on reload. A
// loaded catalog is never modified; readers holding an older one keep a
// consistent view. Reloads are serialized, so a slow reload can never
// install a view older than the one it replaces.
type Holder struct {
	mu      sync.Mutex
	current atomic.Pointer[Catalog]
	build   func() *Catalog
}

// NewHolder returns a holder whose catalogs come from build. The first
// catalog is created immediately but loaded lazily.
func NewHolder(build func() *Catalog) *Holder {
	h := &Holder{build: build}
	h.current.Store(build())
	return h
}

// Current returns the catalog in use.
func (h *Holder) Current() *Catalog {
	return h.current.Load()
}

// Reload builds and loads a new catalog, replacing the current one only
// when loading succeeds.
func (h *Holder) Reload() (*Catalog, error) {
	_, next, err := h.Refresh()
	return next, err
}

// Refresh is Reload that also returns the catalog it replaced. On failure
// both results are the unchanged current catalog.
func (h *Holder) Refresh() (prev, next *Catalog, err error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	prev = h.current.Load()
	next = h.build()
	if err := next.Load(); err != nil {
		return prev, prev, err
	}
	h.current.Store(next)
	return prev, next, nil
}

// Change reports how slug differs from prev to next: "created", "updated"
// (checksum changed), "deleted", or "" when nothing changed.
func Change(prev, next *Catalog, slug string) string {
	before, hadBefore := prev.BySlug(slug)
	after, hasAfter := next.BySlug(slug)
	switch {
	case hadBefore && hasAfter:
		if before.Checksum != after.Checksum {
			return "updated"
		}
	case hasAfter:
		return "created"
	case hadBefore:
		return "deleted"
	}
	return ""
}
