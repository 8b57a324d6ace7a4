package watch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bkyoung/inline-reviews/internal/usecase/session"
)

// recordingSession resolves paths against a root and records refreshes.
type recordingSession struct {
	root string
	err  error

	mu     sync.Mutex
	calls  []string
	notify chan string
}

func newRecordingSession(root string) *recordingSession {
	return &recordingSession{root: root, notify: make(chan string, 16)}
}

func (r *recordingSession) ResolveRelativePath(absolutePath string) (string, bool) {
	rel, err := filepath.Rel(r.root, absolutePath)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return "", false
	}
	return filepath.ToSlash(rel), true
}

func (r *recordingSession) UpdateEditorContent(ctx context.Context, relative string) error {
	r.mu.Lock()
	r.calls = append(r.calls, relative)
	r.mu.Unlock()
	r.notify <- relative
	return r.err
}

func (r *recordingSession) callCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.calls)
}

type recordingLogger struct {
	mu       sync.Mutex
	warnings []string
}

func (l *recordingLogger) LogWarning(ctx context.Context, message string, fields map[string]interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.warnings = append(l.warnings, message)
}

func (l *recordingLogger) LogInfo(ctx context.Context, message string, fields map[string]interface{}) {
}

func (l *recordingLogger) warningCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.warnings)
}

func newTestWatcher(t *testing.T, sess Session, debounce time.Duration, logger session.Logger) *Watcher {
	t.Helper()
	w, err := NewWatcher(sess, debounce, logger)
	require.NoError(t, err)
	t.Cleanup(func() { w.Close() })
	return w
}

func waitNotify(t *testing.T, ch <-chan string) string {
	t.Helper()
	select {
	case relative := <-ch:
		return relative
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for refresh")
		return ""
	}
}

func assertNoNotify(t *testing.T, ch <-chan string, within time.Duration) {
	t.Helper()
	select {
	case relative := <-ch:
		t.Fatalf("unexpected refresh for %s", relative)
	case <-time.After(within):
	}
}

func TestNewWatcher_RequiresSession(t *testing.T) {
	_, err := NewWatcher(nil, 0, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "session is required")
}

func TestWatcher_DebouncesRapidEvents(t *testing.T) {
	root := t.TempDir()
	sess := newRecordingSession(root)
	w := newTestWatcher(t, sess, 30*time.Millisecond, nil)

	ctx := context.Background()
	event := fsnotify.Event{Name: filepath.Join(root, "pkg", "a.go"), Op: fsnotify.Write}
	w.handleEvent(ctx, event)
	w.handleEvent(ctx, event)
	w.handleEvent(ctx, event)

	relative := waitNotify(t, sess.notify)
	assert.Equal(t, "pkg/a.go", relative)

	assertNoNotify(t, sess.notify, 100*time.Millisecond)
	assert.Equal(t, 1, sess.callCount())
}

func TestWatcher_SeparatePathsFireIndependently(t *testing.T) {
	root := t.TempDir()
	sess := newRecordingSession(root)
	w := newTestWatcher(t, sess, 20*time.Millisecond, nil)

	ctx := context.Background()
	w.handleEvent(ctx, fsnotify.Event{Name: filepath.Join(root, "a.go"), Op: fsnotify.Write})
	w.handleEvent(ctx, fsnotify.Event{Name: filepath.Join(root, "b.go"), Op: fsnotify.Write})

	got := map[string]bool{
		waitNotify(t, sess.notify): true,
		waitNotify(t, sess.notify): true,
	}
	assert.True(t, got["a.go"], "a.go should refresh")
	assert.True(t, got["b.go"], "b.go should refresh")
}

func TestWatcher_IgnoresChmodEvents(t *testing.T) {
	root := t.TempDir()
	sess := newRecordingSession(root)
	w := newTestWatcher(t, sess, 10*time.Millisecond, nil)

	w.handleEvent(context.Background(), fsnotify.Event{
		Name: filepath.Join(root, "a.go"),
		Op:   fsnotify.Chmod,
	})

	assertNoNotify(t, sess.notify, 60*time.Millisecond)
}

func TestWatcher_IgnoresPathsOutsideRepository(t *testing.T) {
	root := t.TempDir()
	elsewhere := t.TempDir()
	sess := newRecordingSession(root)
	w := newTestWatcher(t, sess, 10*time.Millisecond, nil)

	w.handleEvent(context.Background(), fsnotify.Event{
		Name: filepath.Join(elsewhere, "a.go"),
		Op:   fsnotify.Write,
	})

	assertNoNotify(t, sess.notify, 60*time.Millisecond)
}

func TestWatcher_RenameTriggersRefresh(t *testing.T) {
	root := t.TempDir()
	sess := newRecordingSession(root)
	w := newTestWatcher(t, sess, 10*time.Millisecond, nil)

	// Editors commonly save by writing a temp file and renaming over the
	// original.
	w.handleEvent(context.Background(), fsnotify.Event{
		Name: filepath.Join(root, "a.go"),
		Op:   fsnotify.Rename,
	})

	assert.Equal(t, "a.go", waitNotify(t, sess.notify))
}

func TestWatcher_WatchFilesDeduplicatesDirectories(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "pkg"), 0o755))

	sess := newRecordingSession(root)
	w := newTestWatcher(t, sess, 10*time.Millisecond, nil)

	err := w.WatchFiles(root, []string{"pkg/a.go", "pkg/b.go", "top.go"})
	require.NoError(t, err)

	assert.Len(t, w.WatchedDirs(), 2)
}

func TestWatcher_WatchFilesMissingDirectoryFails(t *testing.T) {
	root := t.TempDir()
	sess := newRecordingSession(root)
	w := newTestWatcher(t, sess, 10*time.Millisecond, nil)

	err := w.WatchFiles(root, []string{"nope/a.go"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "watch")
}

func TestWatcher_CloseStopsPendingTimers(t *testing.T) {
	root := t.TempDir()
	sess := newRecordingSession(root)
	w, err := NewWatcher(sess, 50*time.Millisecond, nil)
	require.NoError(t, err)

	w.handleEvent(context.Background(), fsnotify.Event{
		Name: filepath.Join(root, "a.go"),
		Op:   fsnotify.Write,
	})
	require.NoError(t, w.Close())

	assertNoNotify(t, sess.notify, 120*time.Millisecond)
}

func TestWatcher_LogsRefreshFailures(t *testing.T) {
	root := t.TempDir()
	sess := newRecordingSession(root)
	sess.err = errors.New("boom")
	logger := &recordingLogger{}
	w := newTestWatcher(t, sess, 10*time.Millisecond, logger)

	w.handleEvent(context.Background(), fsnotify.Event{
		Name: filepath.Join(root, "a.go"),
		Op:   fsnotify.Write,
	})

	waitNotify(t, sess.notify)
	require.Eventually(t, func() bool {
		return logger.warningCount() == 1
	}, 2*time.Second, 10*time.Millisecond)
}

func TestWatcher_CancelledContextSkipsRefresh(t *testing.T) {
	root := t.TempDir()
	sess := newRecordingSession(root)
	w := newTestWatcher(t, sess, 20*time.Millisecond, nil)

	ctx, cancel := context.WithCancel(context.Background())
	w.handleEvent(ctx, fsnotify.Event{
		Name: filepath.Join(root, "a.go"),
		Op:   fsnotify.Write,
	})
	cancel()

	assertNoNotify(t, sess.notify, 80*time.Millisecond)
}
