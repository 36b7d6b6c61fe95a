package index

import (
	"log/slog"

	"github.com/starford/cookbook/internal/catalog"
)

// Sync brings the index up to date with a loaded catalog:
//   - new/changed recipes are upserted
//   - recipes no longer in the catalog are deleted from the index
func Sync(db RecipeIndex, cat *catalog.Catalog, logger *slog.Logger) error {
	if err := cat.Load(); err != nil {
		return err
	}

	checksums, err := db.AllChecksums()
	if err != nil {
		return err
	}

	recipes := cat.All()
	live := make(map[string]struct{}, len(recipes))
	for _, r := range recipes {
		live[r.Slug] = struct{}{}

		if checksums[r.Slug] == r.Checksum {
			continue
		}

		row, body := RowFromRecipe(r)
		if err := db.UpsertRecipe(row, body); err != nil {
			logger.Warn("sync: index failed", slog.String("slug", r.Slug), slog.String("error", err.Error()))
		} else {
			logger.Debug("sync: indexed", slog.String("slug", r.Slug))
		}
	}

	// Remove stale entries.
	for slug := range checksums {
		if _, ok := live[slug]; !ok {
			if err := db.DeleteRecipe(slug); err != nil {
				logger.Warn("sync: delete failed", slog.String("slug", slug), slog.String("error", err.Error()))
			} else {
				logger.Debug("sync: removed stale", slog.String("slug", slug))
			}
		}
	}

	return nil
}
