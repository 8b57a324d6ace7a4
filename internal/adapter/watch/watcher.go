// Package watch feeds working tree edits back into a session.
package watch

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/bkyoung/inline-reviews/internal/usecase/session"
)

// defaultDebounce coalesces the bursts of events editors emit per save.
const defaultDebounce = 300 * time.Millisecond

// Session is the subset of session operations the watcher drives.
type Session interface {
	// ResolveRelativePath maps an absolute path into the repository, when
	// it lies inside it.
	ResolveRelativePath(absolutePath string) (string, bool)

	// UpdateEditorContent re-resolves a tracked file after its content
	// changed on disk. Untracked paths are a no-op.
	UpdateEditorContent(ctx context.Context, relativePath string) error
}

// Watcher observes the directories of tracked files and triggers a session
// refresh once edits to a file settle.
type Watcher struct {
	session  Session
	logger   session.Logger
	debounce time.Duration

	fs *fsnotify.Watcher

	mu     sync.Mutex
	timers map[string]*time.Timer
	closed bool
}

// NewWatcher creates a watcher delivering debounced edit notifications to
// the session. A non-positive debounce falls back to the default.
func NewWatcher(sess Session, debounce time.Duration, logger session.Logger) (*Watcher, error) {
	if sess == nil {
		return nil, errors.New("session is required")
	}
	if debounce <= 0 {
		debounce = defaultDebounce
	}

	fs, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}

	return &Watcher{
		session:  sess,
		logger:   logger,
		debounce: debounce,
		fs:       fs,
		timers:   make(map[string]*time.Timer),
	}, nil
}

// WatchFiles registers the directories containing the given repository
// relative paths. Watching the directory rather than the file survives the
// rename-and-replace dance most editors save with.
func (w *Watcher) WatchFiles(root string, relativePaths []string) error {
	seen := make(map[string]bool)
	for _, relative := range relativePaths {
		dir := filepath.Dir(filepath.Join(root, filepath.FromSlash(relative)))
		if seen[dir] {
			continue
		}
		seen[dir] = true
		if err := w.fs.Add(dir); err != nil {
			return fmt.Errorf("watch %s: %w", dir, err)
		}
	}
	return nil
}

// WatchedDirs returns the directories currently registered.
func (w *Watcher) WatchedDirs() []string {
	return w.fs.WatchList()
}

// Run processes filesystem events until the context is cancelled or the
// watcher is closed.
func (w *Watcher) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.fs.Events:
			if !ok {
				return
			}
			w.handleEvent(ctx, event)
		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			if w.logger != nil {
				w.logger.LogWarning(ctx, "Filesystem watch error", map[string]interface{}{
					"error": err.Error(),
				})
			}
		}
	}
}

// handleEvent schedules a refresh for content-changing events on paths
// inside the repository. Filtering untracked files is left to the session,
// which already knows what it tracks.
func (w *Watcher) handleEvent(ctx context.Context, event fsnotify.Event) {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
		return
	}

	relative, ok := w.session.ResolveRelativePath(event.Name)
	if !ok {
		return
	}

	w.schedule(ctx, relative)
}

// schedule arms or re-arms the per-path debounce timer.
func (w *Watcher) schedule(ctx context.Context, relative string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return
	}
	if timer, exists := w.timers[relative]; exists {
		timer.Stop()
	}
	w.timers[relative] = time.AfterFunc(w.debounce, func() {
		w.fire(ctx, relative)
	})
}

// fire runs once a path's edits settle.
func (w *Watcher) fire(ctx context.Context, relative string) {
	w.mu.Lock()
	delete(w.timers, relative)
	w.mu.Unlock()

	if ctx.Err() != nil {
		return
	}

	if err := w.session.UpdateEditorContent(ctx, relative); err != nil {
		if w.logger != nil {
			w.logger.LogWarning(ctx, "Working tree refresh failed", map[string]interface{}{
				"file":  relative,
				"error": err.Error(),
			})
		}
	}
}

// Close stops all pending timers and releases the underlying watcher.
func (w *Watcher) Close() error {
	w.mu.Lock()
	w.closed = true
	for _, timer := range w.timers {
		timer.Stop()
	}
	w.timers = make(map[string]*time.Timer)
	w.mu.Unlock()

	return w.fs.Close()
}
