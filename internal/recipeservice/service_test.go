package recipeservice

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/cookbook/internal/apperr"
	"github.com/starford/cookbook/internal/catalog"
	"github.com/starford/cookbook/internal/checksum"
	"github.com/starford/cookbook/internal/index"
	"github.com/starford/cookbook/internal/parser"
	"github.com/starford/cookbook/internal/storage"
)

type event struct{ kind, slug string }

type testEnv struct {
	svc    *Service
	db     *index.DB
	root   string
	events []event
}

func newTestEnv(t *testing.T, opts ...Option) *testEnv {
	t.Helper()
	root := t.TempDir()
	store, err := storage.NewFS(root)
	require.NoError(t, err)

	db, err := index.Open(filepath.Join(t.TempDir(), "index.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	env := &testEnv{db: db, root: root}
	holder := catalog.NewHolder(func() *catalog.Catalog { return catalog.New(store) })
	opts = append([]Option{WithEvents(func(kind, slug string) {
		env.events = append(env.events, event{kind, slug})
	})}, opts...)
	env.svc = NewService(holder, store, db, opts...)
	return env
}

func (e *testEnv) seed(t *testing.T, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(e.root, name), []byte(content), 0o644))
	require.NoError(t, e.svc.refresh())
}

func validInput() RecipeInput {
	return RecipeInput{
		Title:        "Lemon Tart!",
		Date:         "2025-03-01",
		Source:       "Family",
		Category:     "Dessert",
		Tags:         []string{"citrus", "baking"},
		PrepTime:     "30 min",
		CookTime:     "25 min",
		TotalTime:    "55 min",
		Servings:     "8",
		Intro:        "Bright and sharp.",
		Ingredients:  []string{"For the crust:", "200g flour", "100g butter"},
		Instructions: []string{"Blind bake the crust.", "Fill and bake."},
	}
}

func TestSlugify(t *testing.T) {
	assert.Equal(t, "lemon-tart", Slugify("Lemon Tart!"))
	assert.Equal(t, "mac--cheese", Slugify("Mac & Cheese"))
	assert.Equal(t, "caf_au_lait", Slugify("Caf_au_lait"))
	assert.Equal(t, "", Slugify("!!!"))
}

func TestRecipeInput_Validate(t *testing.T) {
	require.NoError(t, validInput().Validate())

	in := validInput()
	in.Category = "Brunch"
	assert.Error(t, in.Validate())

	in = validInput()
	in.Date = "someday"
	assert.Error(t, in.Validate())

	in = validInput()
	in.Tags = nil
	assert.Error(t, in.Validate())

	in = validInput()
	in.Servings = ""
	assert.Error(t, in.Validate())
}

func TestRecipeInput_DocumentRoundTrip(t *testing.T) {
	in := validInput()
	doc := parser.Parse(in.Document(parser.DialectStandard), parser.DialectStandard)

	assert.Equal(t, "Lemon Tart!", doc.Frontmatter.Text("title", ""))
	assert.Equal(t, []string{"citrus", "baking"}, doc.Frontmatter.Strings("tags"))
	assert.Equal(t, "Bright and sharp.", doc.Sections.Intro)
	assert.Equal(t, in.Ingredients, doc.Sections.Ingredients)
	assert.Equal(t, in.Instructions, doc.Sections.Instructions)
}

func TestCreate(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	r, err := env.svc.Create(ctx, validInput())
	require.NoError(t, err)
	assert.Equal(t, "lemon-tart", r.Slug)
	assert.Equal(t, "Dessert", r.Category)
	assert.Equal(t, "01 Mar 2025", r.DisplayDate)
	assert.FileExists(t, filepath.Join(env.root, "lemon-tart.md"))

	cs, err := env.db.GetChecksum("lemon-tart")
	require.NoError(t, err)
	assert.Equal(t, r.Checksum, cs)
	assert.Equal(t, []event{{"created", "lemon-tart"}}, env.events)

	_, err = env.svc.Create(ctx, validInput())
	assert.ErrorIs(t, err, apperr.ErrAlreadyExists)
}

func TestCreate_FileOnDiskNotYetLoaded(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, os.WriteFile(filepath.Join(env.root, "lemon-tart.md"), []byte("---\ntitle: Other\n---\n"), 0o644))

	_, err := env.svc.Create(context.Background(), validInput())
	assert.ErrorIs(t, err, apperr.ErrAlreadyExists)

	data, err := os.ReadFile(filepath.Join(env.root, "lemon-tart.md"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "title: Other")
}

func TestCreate_Invalid(t *testing.T) {
	env := newTestEnv(t)
	in := validInput()
	in.Source = ""
	_, err := env.svc.Create(context.Background(), in)
	assert.ErrorIs(t, err, apperr.ErrInvalid)

	in = validInput()
	in.Title = "???"
	_, err = env.svc.Create(context.Background(), in)
	assert.ErrorIs(t, err, apperr.ErrInvalid)
	assert.Empty(t, env.events)
}

func TestUpdate_OptimisticLocking(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	created, err := env.svc.Create(ctx, validInput())
	require.NoError(t, err)

	in := validInput()
	in.Title = "Lemon Meringue Tart"
	updated, err := env.svc.Update(ctx, "lemon-tart", in, created.Checksum)
	require.NoError(t, err)
	assert.Equal(t, "lemon-tart", updated.Slug)
	assert.Equal(t, "Lemon Meringue Tart", updated.Title)
	assert.NotEqual(t, created.Checksum, updated.Checksum)

	_, err = env.svc.Update(ctx, "lemon-tart", in, created.Checksum)
	assert.ErrorIs(t, err, apperr.ErrConflict)

	_, err = env.svc.Update(ctx, "lemon-tart", in, "")
	assert.NoError(t, err)

	_, err = env.svc.Update(ctx, "ghost", in, "")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestUpdate_ConcurrentSameIfMatch(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	created, err := env.svc.Create(ctx, validInput())
	require.NoError(t, err)

	const writers = 8
	var wg sync.WaitGroup
	errs := make([]error, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			in := validInput()
			in.Intro = fmt.Sprintf("Edit number %d.", i)
			_, errs[i] = env.svc.Update(ctx, "lemon-tart", in, created.Checksum)
		}(i)
	}
	wg.Wait()

	var ok, conflicts int
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, apperr.ErrConflict):
			conflicts++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, writers-1, conflicts)
}

func TestRefresh_ReportsEachChangeOnce(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.svc.Create(context.Background(), validInput())
	require.NoError(t, err)

	// A second reload over the same files, as the file watcher would run.
	require.NoError(t, env.svc.refresh("lemon-tart"))
	assert.Equal(t, []event{{"created", "lemon-tart"}}, env.events)
}

func TestDelete(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	_, err := env.svc.Create(ctx, validInput())
	require.NoError(t, err)

	require.NoError(t, env.svc.Delete(ctx, "lemon-tart"))
	_, err = env.svc.Get(ctx, "lemon-tart")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	cs, _ := env.db.GetChecksum("lemon-tart")
	assert.Empty(t, cs)
	assert.Equal(t, event{"deleted", "lemon-tart"}, env.events[len(env.events)-1])

	assert.ErrorIs(t, env.svc.Delete(ctx, "lemon-tart"), apperr.ErrNotFound)
}

func TestList_FilterAndPaging(t *testing.T) {
	env := newTestEnv(t)
	env.seed(t, "a.md", "---\ntitle: Apple Pie\ndate: 2025-01-03\ncategory: Dessert\ntags:\n  - fruit\n---\n")
	env.seed(t, "b.md", "---\ntitle: Banana Bread\ndate: 2025-01-02\ncategory: Breakfast\ntags:\n  - fruit\n---\n")
	env.seed(t, "c.md", "---\ntitle: Carrot Soup\ndate: 2025-01-01\ncategory: Lunch\n---\n")
	ctx := context.Background()

	items, total := env.svc.List(ctx, ListParams{})
	assert.Equal(t, 3, total)
	require.Len(t, items, 3)
	assert.Equal(t, "a", items[0].Slug)

	items, total = env.svc.List(ctx, ListParams{Filter: catalog.Filter{Tag: "fruit"}, Limit: 1, Offset: 1})
	assert.Equal(t, 2, total)
	require.Len(t, items, 1)
	assert.Equal(t, "b", items[0].Slug)

	items, total = env.svc.List(ctx, ListParams{Offset: 10})
	assert.Equal(t, 3, total)
	assert.Empty(t, items)

	assert.Equal(t, []string{"fruit"}, env.svc.Tags(ctx))
	assert.Equal(t, []string{"Dessert", "Breakfast", "Lunch"}, env.svc.Categories(ctx))
	assert.Equal(t, 3, env.svc.Stats(ctx).TotalRecipes)
}

func TestSearch(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.svc.Create(context.Background(), validInput())
	require.NoError(t, err)

	results, err := env.svc.Search(context.Background(), "butter", 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "lemon-tart", results[0].Slug)

	results, err = env.svc.Search(context.Background(), "nothingmatches", 10)
	require.NoError(t, err)
	assert.NotNil(t, results)
	assert.Empty(t, results)
}

func TestShareMeta(t *testing.T) {
	env := newTestEnv(t, WithBaseURL("https://cook.example.com/"))
	env.seed(t, "pho.md", "---\ntitle: Pho\nthumbnailImage: /images/pho-thumb.webp\nheroImage: /images/pho.webp\n---\nA fragrant broth.\n")
	env.seed(t, "plain.md", "---\ntitle: Plain\ndescription: Nothing to see\n---\n")
	ctx := context.Background()

	meta, err := env.svc.ShareMeta(ctx, "pho")
	require.NoError(t, err)
	assert.Equal(t, "Pho", meta.Title)
	assert.Equal(t, "A fragrant broth.", meta.Description)
	assert.Equal(t, "https://cook.example.com/images/pho-thumb.webp", meta.Image)
	assert.Equal(t, "https://cook.example.com/recipes/pho", meta.URL)
	assert.Equal(t, "summary_large_image", meta.Tags["twitter:card"])

	meta, err = env.svc.ShareMeta(ctx, "plain")
	require.NoError(t, err)
	assert.Equal(t, "Nothing to see", meta.Description)
	assert.Empty(t, meta.Image)
	assert.Equal(t, "summary", meta.Tags["twitter:card"])
	assert.NotContains(t, meta.Tags, "og:image")

	_, err = env.svc.ShareMeta(ctx, "missing")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestUpdate_ChecksumOfDiskFile(t *testing.T) {
	env := newTestEnv(t)
	content := "---\ntitle: Toast\n---\n"
	env.seed(t, "toast.md", content)

	in := validInput()
	in.Title = "Toast"
	_, err := env.svc.Update(context.Background(), "toast", in, checksum.Sum([]byte(content)))
	require.NoError(t, err)
}
