package recipeservice

import (
	"context"
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/cookbook/internal/apperr"
	"github.com/starford/cookbook/internal/catalog"
	"github.com/starford/cookbook/internal/checksum"
	"github.com/starford/cookbook/internal/models"
	"github.com/starford/cookbook/internal/parser"
	"github.com/starford/cookbook/internal/storage"
)

// Categories accepted for authored recipes.
var Categories = []string{"Breakfast", "Lunch", "Dinner", "Dessert", "Appetizer", "Snack"}

var slugStripRe = regexp.MustCompile(`[^\w-]+`)

// RecipeInput is the authored form of a recipe.
type RecipeInput struct {
	Title          string   `json:"title"`
	Date           string   `json:"date"`
	Source         string   `json:"source"`
	Category       string   `json:"category"`
	Tags           []string `json:"tags"`
	PrepTime       string   `json:"prep_time"`
	CookTime       string   `json:"cook_time"`
	TotalTime      string   `json:"total_time"`
	Servings       string   `json:"servings"`
	Description    string   `json:"description,omitempty"`
	HeroImage      string   `json:"hero_image,omitempty"`
	ThumbnailImage string   `json:"thumbnail_image,omitempty"`
	Images         []string `json:"images,omitempty"`
	Intro          string   `json:"intro,omitempty"`
	Ingredients    []string `json:"ingredients"`
	Instructions   []string `json:"instructions"`
	Notes          string   `json:"notes,omitempty"`
}

// Validate checks the fields an authored recipe must carry.
func (in RecipeInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Title, validation.Required),
		validation.Field(&in.Date, validation.Required, validation.By(parseableDate)),
		validation.Field(&in.Source, validation.Required),
		validation.Field(&in.Category, validation.Required, validation.In(anySlice(Categories)...)),
		validation.Field(&in.Tags, validation.Required, validation.Each(validation.Required)),
		validation.Field(&in.PrepTime, validation.Required),
		validation.Field(&in.CookTime, validation.Required),
		validation.Field(&in.TotalTime, validation.Required),
		validation.Field(&in.Servings, validation.Required),
	)
}

func parseableDate(v interface{}) error {
	s, _ := v.(string)
	if s != "" && catalog.ParseDate(s).IsZero() {
		return errors.New("must be a valid date")
	}
	return nil
}

func anySlice(ss []string) []interface{} {
	out := make([]interface{}, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}

// Slugify lowercases title, turns spaces into dashes and drops anything that
// is not a word character or dash.
func Slugify(title string) string {
	s := strings.ToLower(strings.TrimSpace(title))
	s = strings.ReplaceAll(s, " ", "-")
	return slugStripRe.ReplaceAllString(s, "")
}

// Frontmatter builds the header written for in.
func (in RecipeInput) Frontmatter() parser.Frontmatter {
	var fm parser.Frontmatter
	set := func(key, v string) {
		if v = oneLine(v); v != "" {
			fm.Set(key, parser.Scalar(v))
		}
	}
	setList := func(key string, items []string) {
		var clean []string
		for _, item := range items {
			if item = oneLine(item); item != "" {
				clean = append(clean, item)
			}
		}
		if len(clean) > 0 {
			fm.Set(key, parser.List(clean...))
		}
	}

	set("title", in.Title)
	set("date", in.Date)
	set("source", in.Source)
	set("category", in.Category)
	setList("tags", in.Tags)
	set("prepTime", in.PrepTime)
	set("cookTime", in.CookTime)
	set("totalTime", in.TotalTime)
	set("servings", in.Servings)
	set("description", in.Description)
	set("heroImage", in.HeroImage)
	set("thumbnailImage", in.ThumbnailImage)
	setList("images", in.Images)
	return fm
}

// Document renders in as a complete recipe file.
func (in RecipeInput) Document(d parser.Dialect) []byte {
	body := parser.RenderBody(parser.Body{
		Intro:        in.Intro,
		Ingredients:  trimAll(in.Ingredients),
		Instructions: trimAll(in.Instructions),
		Notes:        in.Notes,
	}, d)
	return []byte(parser.Compose(in.Frontmatter(), body))
}

// Create validates in, writes it as <slug>.md and returns the stored recipe.
func (s *Service) Create(_ context.Context, in RecipeInput) (*models.Recipe, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if err := in.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", apperr.ErrInvalid, err)
	}
	slug := Slugify(in.Title)
	if slug == "" {
		return nil, fmt.Errorf("%w: title yields an empty slug", apperr.ErrInvalid)
	}
	if _, ok := s.holder.Current().BySlug(slug); ok {
		return nil, apperr.ErrAlreadyExists
	}
	if err := s.store.Create(slug+storage.RecipeExt, in.Document(s.dialect)); err != nil {
		if errors.Is(err, os.ErrExist) {
			return nil, apperr.ErrAlreadyExists
		}
		return nil, fmt.Errorf("recipeservice: write: %w", err)
	}
	return s.applied(slug)
}

// Update rewrites the recipe file behind slug. A non-empty ifMatch (bare
// checksum or entity tag) must name the file currently on disk. The slug is
// kept even when the title changes.
func (s *Service) Update(_ context.Context, slug string, in RecipeInput, ifMatch string) (*models.Recipe, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	r, ok := s.holder.Current().BySlug(slug)
	if !ok {
		return nil, apperr.ErrNotFound
	}
	existing, err := s.store.Read(r.Path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, apperr.ErrNotFound
		}
		return nil, fmt.Errorf("recipeservice: read: %w", err)
	}
	if !checksum.Match(ifMatch, existing) {
		return nil, apperr.ErrConflict
	}
	if err := in.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", apperr.ErrInvalid, err)
	}

	if err := s.store.Write(r.Path, in.Document(s.dialect)); err != nil {
		return nil, fmt.Errorf("recipeservice: write: %w", err)
	}
	return s.applied(slug)
}

// Delete removes the recipe file behind slug.
func (s *Service) Delete(_ context.Context, slug string) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	r, ok := s.holder.Current().BySlug(slug)
	if !ok {
		return apperr.ErrNotFound
	}
	if err := s.store.Delete(r.Path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return apperr.ErrNotFound
		}
		return fmt.Errorf("recipeservice: delete: %w", err)
	}
	if err := s.refresh(slug); err != nil {
		return fmt.Errorf("recipeservice: reload: %w", err)
	}
	return nil
}

// applied reloads after a write and returns the recipe as now stored.
func (s *Service) applied(slug string) (*models.Recipe, error) {
	if err := s.refresh(slug); err != nil {
		return nil, fmt.Errorf("recipeservice: reload: %w", err)
	}
	r, ok := s.holder.Current().BySlug(slug)
	if !ok {
		return nil, fmt.Errorf("recipeservice: %s missing after write: %w", slug, apperr.ErrNotFound)
	}
	return &r, nil
}

func oneLine(s string) string {
	return strings.TrimSpace(strings.Join(strings.Fields(s), " "))
}

func trimAll(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
