package index

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/starford/cookbook/internal/catalog"
	"github.com/starford/cookbook/internal/storage"
)

// EventCallback is called after a watcher-driven catalog reload, once per
// recipe that changed. kind is one of "created", "updated", "deleted".
type EventCallback func(kind string, slug string)

const reloadDelay = 200 * time.Millisecond

// Watch starts an fsnotify watcher on the content root and reloads the
// catalog held by holder whenever recipe files change, until ctx is
// cancelled. Bursts of events are coalesced into a single reload; after each
// reload the index is synced and cb (if non-nil) is told which recipes were
// created, updated or deleted.
//
// New directories created at runtime are automatically added to the watch
// list.
func Watch(ctx context.Context, db RecipeIndex, holder *catalog.Holder, root string, logger *slog.Logger, cb EventCallback) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := addDirsRecursive(w, root); err != nil {
		return err
	}

	// Pin the pre-change view so reload diffs have a baseline.
	if err := holder.Current().Load(); err != nil {
		logger.Warn("watcher: initial load failed", slog.String("error", err.Error()))
	}

	logger.Info("watcher: started", slog.String("root", root))

	pending := make(map[string]struct{})
	var reloadTimer *time.Timer
	var reloadCh <-chan time.Time

	scheduleReload := func(slug string) {
		if slug != "" {
			pending[slug] = struct{}{}
		}
		if reloadTimer == nil {
			reloadTimer = time.NewTimer(reloadDelay)
			reloadCh = reloadTimer.C
		} else {
			reloadTimer.Reset(reloadDelay)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if reloadTimer != nil {
				reloadTimer.Stop()
			}
			logger.Info("watcher: stopped")
			return nil

		case <-reloadCh:
			slugs := pending
			pending = make(map[string]struct{})
			reload(db, holder, logger, slugs, cb)

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}

			absPath := ev.Name

			if ev.Op&fsnotify.Create != 0 {
				if info, statErr := os.Stat(absPath); statErr == nil && info.IsDir() {
					if addErr := addDirsRecursive(w, absPath); addErr != nil {
						logger.Warn("watcher: add new dir failed",
							slog.String("path", absPath),
							slog.String("error", addErr.Error()))
					} else {
						logger.Debug("watcher: watching new dir", slog.String("path", absPath))
					}
					for _, slug := range recipeSlugsIn(absPath) {
						scheduleReload(slug)
					}
					scheduleReload("")
					continue
				}
			}

			if !storage.IsRecipeFile(absPath) {
				continue
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			logger.Debug("watcher: change", slog.String("path", absPath), slog.String("op", ev.Op.String()))
			scheduleReload(catalog.SlugFromPath(filepath.ToSlash(absPath)))

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}

// reload swaps in a fresh catalog, syncs the index and reports how each
// pending slug changed against the catalog the reload replaced. A change the
// recipe service already reloaded for shows no difference here, so it is
// reported once.
func reload(db RecipeIndex, holder *catalog.Holder, logger *slog.Logger, slugs map[string]struct{}, cb EventCallback) {
	prev, next, err := holder.Refresh()
	if err != nil {
		logger.Warn("watcher: reload failed", slog.String("error", err.Error()))
		return
	}
	if err := Sync(db, next, logger); err != nil {
		logger.Warn("watcher: sync failed", slog.String("error", err.Error()))
	}
	logger.Debug("watcher: catalog reloaded", slog.Int("recipes", next.Len()))

	if cb == nil {
		return
	}
	ordered := make([]string, 0, len(slugs))
	for slug := range slugs {
		ordered = append(ordered, slug)
	}
	sort.Strings(ordered)
	for _, slug := range ordered {
		if kind := catalog.Change(prev, next, slug); kind != "" {
			cb(kind, slug)
		}
	}
}

// recipeSlugsIn lists the slugs of recipe files already present in a newly
// created directory.
func recipeSlugsIn(dir string) []string {
	var out []string
	_ = filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || !storage.IsRecipeFile(p) {
			return nil
		}
		out = append(out, catalog.SlugFromPath(filepath.ToSlash(p)))
		return nil
	})
	return out
}

// addDirsRecursive adds root and all its non-hidden subdirectories to the watcher.
func addDirsRecursive(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if p != root && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		return w.Add(p)
	})
}
