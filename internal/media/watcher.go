package media

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// SourceWatcher tracks clip source files on disk and reports when one goes
// missing or comes back. Directories are watched rather than the files
// themselves, because a removed file takes its watch with it.
type SourceWatcher struct {
	fsw    *fsnotify.Watcher
	logger *slog.Logger

	mu       sync.Mutex
	sources  map[string]struct{} // absolute tracked file paths
	dirRefs  map[string]int      // watched directory refcounts
	onChange func(path string, present bool)
}

func NewSourceWatcher(logger *slog.Logger) (*SourceWatcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("cannot create filesystem watcher: %w", err)
	}
	return &SourceWatcher{
		fsw:     fsw,
		logger:  logger,
		sources: map[string]struct{}{},
		dirRefs: map[string]int{},
	}, nil
}

// OnChange registers the callback invoked when a tracked source appears or
// disappears. Must be set before Run.
func (w *SourceWatcher) OnChange(fn func(path string, present bool)) {
	w.mu.Lock()
	w.onChange = fn
	w.mu.Unlock()
}

// WatchSource starts tracking one source file.
func (w *SourceWatcher) WatchSource(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("cannot resolve source path: %w", err)
	}
	dir := filepath.Dir(abs)

	w.mu.Lock()
	defer w.mu.Unlock()

	if _, tracked := w.sources[abs]; tracked {
		return nil
	}
	if w.dirRefs[dir] == 0 {
		if err := w.fsw.Add(dir); err != nil {
			return fmt.Errorf("cannot watch directory %s: %w", dir, err)
		}
	}
	w.dirRefs[dir]++
	w.sources[abs] = struct{}{}

	if w.logger != nil {
		w.logger.Debug("watching source", "path", abs)
	}
	return nil
}

// UnwatchSource stops tracking one source file, dropping the directory watch
// when it was the last tracked file there.
func (w *SourceWatcher) UnwatchSource(path string) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return
	}
	dir := filepath.Dir(abs)

	w.mu.Lock()
	defer w.mu.Unlock()

	if _, tracked := w.sources[abs]; !tracked {
		return
	}
	delete(w.sources, abs)
	w.dirRefs[dir]--
	if w.dirRefs[dir] <= 0 {
		delete(w.dirRefs, dir)
		w.fsw.Remove(dir)
	}
}

// Run consumes filesystem events until the context is cancelled.
func (w *SourceWatcher) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handleEvent(ev)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			if w.logger != nil {
				w.logger.Warn("filesystem watcher error", "error", err)
			}
		}
	}
}

func (w *SourceWatcher) handleEvent(ev fsnotify.Event) {
	abs, err := filepath.Abs(ev.Name)
	if err != nil {
		return
	}

	w.mu.Lock()
	_, tracked := w.sources[abs]
	fn := w.onChange
	w.mu.Unlock()

	if !tracked || fn == nil {
		return
	}

	switch {
	case ev.Op.Has(fsnotify.Remove) || ev.Op.Has(fsnotify.Rename):
		if w.logger != nil {
			w.logger.Info("source went offline", "path", abs)
		}
		fn(abs, false)
	case ev.Op.Has(fsnotify.Create):
		if w.logger != nil {
			w.logger.Info("source came back", "path", abs)
		}
		fn(abs, true)
	}
}

func (w *SourceWatcher) Close() error {
	return w.fsw.Close()
}
