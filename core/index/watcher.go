package index

import (
	"context"
	"io/fs"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce coalesces bursts of file events before re-indexing.
const DefaultDebounce = 500 * time.Millisecond

// Watcher monitors the index's docs and code roots and triggers a full
// re-index after changes settle. New directories are added to the watch as
// they appear; deny-listed directories are never watched.
type Watcher struct {
	ix       *Index
	fsw      *fsnotify.Watcher
	debounce time.Duration
	logger   *slog.Logger
}

// NewWatcher creates a watcher over the index's configured roots.
func NewWatcher(ix *Index, debounce time.Duration) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	w := &Watcher{
		ix:       ix,
		fsw:      fsw,
		debounce: debounce,
		logger:   ix.logger,
	}

	for _, root := range []string{ix.cfg.DocsDir, ix.cfg.CodeDir} {
		if root == "" {
			continue
		}
		w.addRecursive(root)
	}

	return w, nil
}

// Run processes file events until the context is cancelled. Each settled
// burst of changes triggers one Reindex.
func (w *Watcher) Run(ctx context.Context) {
	defer w.fsw.Close()

	var timer *time.Timer
	var fire <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if event.Op.Has(fsnotify.Create) {
				w.addRecursive(event.Name)
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
				fire = timer.C
			} else {
				timer.Reset(w.debounce)
			}

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watch error", "error", err)

		case <-fire:
			timer = nil
			fire = nil
			if err := w.ix.Reindex(ctx); err != nil {
				w.logger.Warn("reindex after change failed", "error", err)
			}
		}
	}
}

// addRecursive watches path and any subdirectories, honoring the exact-name
// directory deny-list. Non-directories and unreadable paths are ignored.
func (w *Watcher) addRecursive(path string) {
	skip := make(map[string]struct{}, len(w.ix.cfg.ExcludeDirs))
	for _, d := range w.ix.cfg.ExcludeDirs {
		skip[d] = struct{}{}
	}

	_ = filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
		if err != nil || !d.IsDir() {
			return nil
		}
		if _, excluded := skip[d.Name()]; excluded {
			return fs.SkipDir
		}
		if addErr := w.fsw.Add(p); addErr != nil {
			w.logger.Debug("watch add failed", "path", p, "error", addErr)
		}
		return nil
	})
}
