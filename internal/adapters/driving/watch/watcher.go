// Package watch ingests document files as they appear in a directory.
package watch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/hybridrag/internal/logger"
)

// DefaultDebounce is how long a file must stay quiet before it is handled.
const DefaultDebounce = 500 * time.Millisecond

// Handler reacts to settled file changes.
type Handler interface {
	// FileChanged is called when a matching file was created or written.
	FileChanged(ctx context.Context, path string) error

	// FileRemoved is called when a matching file was removed or renamed away.
	FileRemoved(ctx context.Context, path string) error
}

// Action is what a filesystem event asks of the handler.
type Action int

// Actions.
const (
	ActionNone Action = iota
	ActionChanged
	ActionRemoved
)

// Watcher debounces filesystem events for one directory and dispatches
// them to a Handler. Only files accepted by Match are considered.
type Watcher struct {
	dir      string
	handler  Handler
	debounce time.Duration

	// Match filters file paths. Hidden files are always ignored.
	Match func(path string) bool

	mu      sync.Mutex
	pending map[string]*time.Timer
	wg      sync.WaitGroup
}

// New creates a watcher for dir.
func New(dir string, handler Handler, debounce time.Duration) *Watcher {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Watcher{
		dir:      dir,
		handler:  handler,
		debounce: debounce,
		Match:    func(string) bool { return true },
		pending:  make(map[string]*time.Timer),
	}
}

// Scan hands every matching file already in the directory to the handler.
func (w *Watcher) Scan(ctx context.Context) error {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		return fmt.Errorf("reading %s: %w", w.dir, err)
	}
	var errs []error
	for _, e := range entries {
		path := filepath.Join(w.dir, e.Name())
		if e.IsDir() || isHidden(path) || !w.Match(path) {
			continue
		}
		if err := w.handler.FileChanged(ctx, path); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Run watches the directory until ctx is cancelled. Handler errors are
// logged; they do not stop the watcher.
func (w *Watcher) Run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer fsw.Close()

	if err := fsw.Add(w.dir); err != nil {
		return fmt.Errorf("watching %s: %w", w.dir, err)
	}
	logger.Info("Watching %s", w.dir)

	defer w.wg.Wait()
	defer w.stopPending()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if action := w.handleEvent(event); action != ActionNone {
				w.schedule(ctx, event.Name, action)
			}
		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			logger.Warn("Watcher error: %v", err)
		}
	}
}

// handleEvent classifies a raw fsnotify event.
func (w *Watcher) handleEvent(event fsnotify.Event) Action {
	if isHidden(event.Name) || !w.Match(event.Name) {
		return ActionNone
	}

	switch {
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		return ActionRemoved
	case event.Has(fsnotify.Create), event.Has(fsnotify.Write):
		info, err := os.Stat(event.Name)
		if err != nil || info.IsDir() {
			return ActionNone
		}
		return ActionChanged
	default:
		return ActionNone
	}
}

// schedule runs the action for path once events for it stop arriving.
func (w *Watcher) schedule(ctx context.Context, path string, action Action) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if t, ok := w.pending[path]; ok {
		if t.Stop() {
			w.wg.Done()
		}
	}
	w.wg.Add(1)
	var timer *time.Timer
	timer = time.AfterFunc(w.debounce, func() {
		defer w.wg.Done()
		w.mu.Lock()
		if w.pending[path] == timer {
			delete(w.pending, path)
		}
		w.mu.Unlock()

		if ctx.Err() != nil {
			return
		}
		w.dispatch(ctx, path, action)
	})
	w.pending[path] = timer
}

func (w *Watcher) dispatch(ctx context.Context, path string, action Action) {
	var err error
	switch action {
	case ActionChanged:
		err = w.handler.FileChanged(ctx, path)
	case ActionRemoved:
		err = w.handler.FileRemoved(ctx, path)
	}
	if err != nil {
		logger.Error("Handling %s: %v", path, err)
	}
}

func (w *Watcher) stopPending() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for path, t := range w.pending {
		if t.Stop() {
			w.wg.Done()
		}
		delete(w.pending, path)
	}
}

// isHidden reports whether the file name starts with a dot.
func isHidden(path string) bool {
	return strings.HasPrefix(filepath.Base(path), ".")
}
