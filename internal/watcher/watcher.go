// Package watcher triggers a callback when the catalog file changes on disk.
package watcher

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/gcbaptista/doc-search-index/internal/logger"
)

// DefaultDebounce is the quiet period after the last change before the
// callback runs.
const DefaultDebounce = 500 * time.Millisecond

// CatalogWatcher watches a single catalog file. It watches the parent
// directory rather than the file itself, so catalogs replaced by rename
// (as editors and extractors do) keep being tracked.
type CatalogWatcher struct {
	path     string
	debounce time.Duration
	onChange func(ctx context.Context) error
	fsw      *fsnotify.Watcher
	fire     chan struct{}
	log      *slog.Logger

	mu    sync.Mutex
	timer *time.Timer
}

// New starts watching path. onChange runs on the Run goroutine once events
// for the file have been quiet for debounce; a non-positive debounce uses
// DefaultDebounce.
func New(path string, debounce time.Duration, onChange func(ctx context.Context) error) (*CatalogWatcher, error) {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve catalog path %s: %w", path, err)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create file watcher: %w", err)
	}
	if err := fsw.Add(filepath.Dir(abs)); err != nil {
		_ = fsw.Close()
		return nil, fmt.Errorf("watch directory of %s: %w", abs, err)
	}

	return &CatalogWatcher{
		path:     abs,
		debounce: debounce,
		onChange: onChange,
		fsw:      fsw,
		fire:     make(chan struct{}, 1),
		log:      logger.WithComponent("watcher"),
	}, nil
}

// Run processes file events until ctx is cancelled, then releases the
// watcher. Callback errors are logged and do not stop the watcher.
func (w *CatalogWatcher) Run(ctx context.Context) error {
	defer func() {
		w.mu.Lock()
		if w.timer != nil {
			w.timer.Stop()
		}
		w.mu.Unlock()
		_ = w.fsw.Close()
	}()

	w.log.Info("watching catalog", "path", w.path, "debounce", w.debounce)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			if w.relevant(event) {
				w.schedule()
			}
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.log.Warn("file watcher error", "error", err)
		case <-w.fire:
			w.log.Info("catalog changed, rebuilding", "path", w.path)
			if err := w.onChange(ctx); err != nil {
				w.log.Error("rebuild after catalog change failed", "path", w.path, "error", err)
			}
		}
	}
}

// relevant reports whether event may have changed the catalog contents.
// Removals and renames away are ignored: the previous index stays until a
// new catalog appears.
func (w *CatalogWatcher) relevant(event fsnotify.Event) bool {
	if filepath.Clean(event.Name) != w.path {
		return false
	}
	return event.Has(fsnotify.Write) || event.Has(fsnotify.Create)
}

// schedule (re)starts the debounce timer.
func (w *CatalogWatcher) schedule() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, func() {
		select {
		case w.fire <- struct{}{}:
		default:
			// A rebuild is already queued
		}
	})
}
