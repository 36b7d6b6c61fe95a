// Package recipeservice coordinates the recipe catalog, content storage and
// search index behind the HTTP and MCP surfaces.
package recipeservice

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/starford/cookbook/internal/apperr"
	"github.com/starford/cookbook/internal/catalog"
	"github.com/starford/cookbook/internal/index"
	"github.com/starford/cookbook/internal/models"
	"github.com/starford/cookbook/internal/parser"
	"github.com/starford/cookbook/internal/storage"
)

const (
	defaultLimit = 50
	maxLimit     = 500
)

// EventFunc receives "created", "updated" or "deleted" for a recipe slug
// after a write through the service has been applied and changed the
// catalog.
type EventFunc func(kind, slug string)

// RecipeListItem is a lightweight item in a list response.
type RecipeListItem struct {
	Slug           string   `json:"slug"`
	Title          string   `json:"title"`
	DisplayDate    string   `json:"display_date"`
	Category       string   `json:"category"`
	Tags           []string `json:"tags"`
	Intro          string   `json:"intro"`
	TotalTime      string   `json:"total_time"`
	ThumbnailImage string   `json:"thumbnail_image,omitempty"`
}

// ListParams narrows and pages a listing.
type ListParams struct {
	Filter catalog.Filter
	Limit  int
	Offset int
}

// Option configures a Service.
type Option func(*Service)

// WithDialect sets the body dialect used when rendering authored recipes.
func WithDialect(d parser.Dialect) Option {
	return func(s *Service) { s.dialect = d }
}

// WithBaseURL sets the public site URL used for share metadata.
func WithBaseURL(u string) Option {
	return func(s *Service) { s.baseURL = strings.TrimRight(u, "/") }
}

// WithLogger sets the service logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// WithEvents registers a callback for applied writes.
func WithEvents(fn EventFunc) Option {
	return func(s *Service) { s.events = fn }
}

// Service coordinates catalog, storage and index operations.
type Service struct {
	// writeMu serializes Create, Update and Delete so the If-Match check
	// and the write it guards cannot interleave with another write.
	writeMu sync.Mutex

	holder  *catalog.Holder
	store   storage.Provider
	db      index.RecipeIndex
	dialect parser.Dialect
	baseURL string
	logger  *slog.Logger
	events  EventFunc
}

// NewService creates a new recipe service.
func NewService(holder *catalog.Holder, store storage.Provider, db index.RecipeIndex, opts ...Option) *Service {
	s := &Service{
		holder:  holder,
		store:   store,
		db:      db,
		dialect: parser.DialectStandard,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// List returns one page of recipes matching p.Filter, newest first, and the
// total number of matches.
func (s *Service) List(_ context.Context, p ListParams) ([]RecipeListItem, int) {
	matches := s.holder.Current().Search(p.Filter)
	total := len(matches)

	limit := p.Limit
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	offset := max(p.Offset, 0)
	if offset > total {
		offset = total
	}
	end := min(offset+limit, total)

	items := make([]RecipeListItem, 0, end-offset)
	for _, r := range matches[offset:end] {
		items = append(items, listItem(r))
	}
	return items, total
}

// Get returns a recipe by slug.
func (s *Service) Get(_ context.Context, slug string) (*models.Recipe, error) {
	r, ok := s.holder.Current().BySlug(slug)
	if !ok {
		return nil, apperr.ErrNotFound
	}
	return &r, nil
}

// Stats summarises the current catalog.
func (s *Service) Stats(_ context.Context) models.Stats {
	return s.holder.Current().Stats()
}

// Tags returns every tag in use, sorted.
func (s *Service) Tags(_ context.Context) []string {
	return s.holder.Current().Tags()
}

// Categories returns every category in use.
func (s *Service) Categories(_ context.Context) []string {
	return s.holder.Current().Categories()
}

// Search delegates full-text search to the index.
func (s *Service) Search(_ context.Context, query string, limit int) ([]index.SearchResult, error) {
	results, err := s.db.Search(query, limit)
	if err != nil {
		return nil, err
	}
	return nonNilSlice(results), nil
}

// ShareMeta builds link-preview metadata for a recipe.
func (s *Service) ShareMeta(ctx context.Context, slug string) (*models.ShareMeta, error) {
	r, err := s.Get(ctx, slug)
	if err != nil {
		return nil, err
	}

	description := r.Description
	if description == "" {
		description = r.Intro
	}
	image := r.ThumbnailImage
	if image == "" {
		image = r.HeroImage
	}
	image = s.absoluteURL(image)
	pageURL := s.absoluteURL("/recipes/" + r.Slug)

	card := "summary"
	if image != "" {
		card = "summary_large_image"
	}
	tags := map[string]string{
		"og:type":             "article",
		"og:title":            r.Title,
		"og:description":      description,
		"twitter:card":        card,
		"twitter:title":       r.Title,
		"twitter:description": description,
	}
	if pageURL != "" {
		tags["og:url"] = pageURL
	}
	if image != "" {
		tags["og:image"] = image
		tags["twitter:image"] = image
	}

	return &models.ShareMeta{
		Title:       r.Title,
		Description: description,
		Image:       image,
		URL:         pageURL,
		Tags:        tags,
	}, nil
}

// absoluteURL joins p onto the base URL. Absolute URLs pass through; an
// empty p stays empty.
func (s *Service) absoluteURL(p string) string {
	if p == "" || strings.HasPrefix(p, "http://") || strings.HasPrefix(p, "https://") {
		return p
	}
	if s.baseURL == "" {
		return p
	}
	return s.baseURL + "/" + strings.TrimLeft(p, "/")
}

// refresh swaps in a freshly loaded catalog, brings the index up to date and
// announces how each of slugs changed against the catalog it replaced. If
// the watcher reloaded first, there is no difference left and nothing is
// announced twice.
func (s *Service) refresh(slugs ...string) error {
	prev, next, err := s.holder.Refresh()
	if err != nil {
		return err
	}
	if err := index.Sync(s.db, next, s.logger); err != nil {
		s.logger.Warn("recipeservice: sync failed", slog.String("error", err.Error()))
	}
	for _, slug := range slugs {
		if kind := catalog.Change(prev, next, slug); kind != "" {
			s.emit(kind, slug)
		}
	}
	return nil
}

func (s *Service) emit(kind, slug string) {
	if s.events != nil {
		s.events(kind, slug)
	}
}

func listItem(r models.Recipe) RecipeListItem {
	thumb := r.ThumbnailImage
	if thumb == "" {
		thumb = r.HeroImage
	}
	return RecipeListItem{
		Slug:           r.Slug,
		Title:          r.Title,
		DisplayDate:    r.DisplayDate,
		Category:       r.Category,
		Tags:           nonNilSlice(r.Tags),
		Intro:          r.Intro,
		TotalTime:      r.TotalTime,
		ThumbnailImage: thumb,
	}
}

func nonNilSlice[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
