package session

import (
	"sync"

	"github.com/bkyoung/inline-reviews/internal/diff"
)

// File tracks the live review state of one pull-request file: its diff
// against the merge base, the commit its current content is attributed
// to, and the comment threads anchored into that diff. All reconciled
// fields are replaced together under the lock, so readers never observe
// a half-applied update.
type File struct {
	relativePath string

	mu            sync.RWMutex
	contentSource ContentSource
	baseSha       string
	commitSha     string
	diff          diff.ParsedDiff
	threads       []Thread
}

// fileState is a fully staged reconciliation result, applied atomically.
type fileState struct {
	baseSha   string
	commitSha string
	diff      diff.ParsedDiff
	threads   []Thread
}

func newFile(relativePath string) *File {
	return &File{relativePath: relativePath}
}

// RelativePath returns the normalized repository-relative path.
func (f *File) RelativePath() string {
	return f.relativePath
}

// BaseSha returns the pull request's base commit recorded at the last
// full reconciliation.
func (f *File) BaseSha() string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.baseSha
}

// CommitSha returns the commit the current content is attributed to, or
// "" when local modifications make attribution impossible.
func (f *File) CommitSha() string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.commitSha
}

// Diff returns the hunks between the merge base and the current content.
func (f *File) Diff() diff.ParsedDiff {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.diff
}

// Threads returns a snapshot of the file's comment threads. Mutating the
// returned slice does not affect the file.
func (f *File) Threads() []Thread {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := make([]Thread, len(f.threads))
	copy(out, f.threads)
	return out
}

func (f *File) source() ContentSource {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.contentSource
}

// swapSource records a new content source and reports whether it
// differed from the recorded one. A nil source never clears an existing
// one.
func (f *File) swapSource(src ContentSource) bool {
	if src == nil {
		return false
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.contentSource == src {
		return false
	}
	f.contentSource = src
	return true
}

// apply replaces every reconciled field with the staged result.
func (f *File) apply(st fileState) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.baseSha = st.baseSha
	f.commitSha = st.commitSha
	f.diff = st.diff
	f.threads = st.threads
}

// applyRefresh replaces the diff and commit attribution and rematches
// the existing threads in place. A successful rematch always updates the
// line number and clears staleness. On a miss, resetUnmatched selects
// between the editor-update policy (report -1 and mark stale) and the
// source-swap policy (keep the previous number and staleness untouched).
// It returns how many threads missed.
func (f *File) applyRefresh(commitSha string, d diff.ParsedDiff, resetUnmatched bool) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.commitSha = commitSha
	f.diff = d

	misses := 0
	for i := range f.threads {
		n := diff.MatchLineNumber(d, f.threads[i].DiffMatch)
		if n >= 0 {
			f.threads[i].LineNumber = n
			f.threads[i].IsStale = false
			continue
		}
		misses++
		if resetUnmatched {
			f.threads[i].LineNumber = -1
			f.threads[i].IsStale = true
		}
	}
	return misses
}
