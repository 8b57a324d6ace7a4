// Package session coordinates live tracking of inline review threads for
// one pull request against one local repository checkout. It owns the
// registry of per-file state and reconciles that state whenever the pull
// request snapshot, an editor buffer, or a content source changes.
package session

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"github.com/bkyoung/inline-reviews/internal/diff"
	"github.com/bkyoung/inline-reviews/internal/domain"
)

// Session tracks one pull request for one user. File entries are created
// lazily on first access and live for the session's lifetime. All
// reconciliation passes run strictly sequentially against the snapshot
// captured when the pass starts.
type Session struct {
	user       string
	repo       domain.Repository
	checkedOut bool
	deps       Deps

	registry *fileRegistry

	mu       sync.Mutex
	pr       *domain.PullRequest
	allFiles []*File
}

// NewSession validates the dependencies and returns a session primed
// with the given pull request snapshot. checkedOut reports whether the
// local repository has the pull request's head branch checked out.
func NewSession(user string, pr *domain.PullRequest, repo domain.Repository, checkedOut bool, deps Deps) (*Session, error) {
	if pr == nil {
		return nil, errors.New("pull request snapshot is required")
	}
	if deps.Git == nil {
		return nil, errors.New("git service is required")
	}
	return &Session{
		user:       user,
		repo:       repo,
		checkedOut: checkedOut,
		deps:       deps,
		registry:   newFileRegistry(),
		pr:         pr,
	}, nil
}

// User returns the reviewing user's login.
func (s *Session) User() string { return s.user }

// Repository returns the repository this session reviews.
func (s *Session) Repository() domain.Repository { return s.repo }

// CheckedOut reports whether the pull request branch is checked out
// locally.
func (s *Session) CheckedOut() bool { return s.checkedOut }

// PullRequest returns the current snapshot.
func (s *Session) PullRequest() *domain.PullRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pr
}

// GetFile returns the tracked entry for relativePath, creating and
// reconciling it on first access. Backslash separators are normalized to
// forward slashes before lookup. source may be nil when the caller has
// no live buffer; supplying a source different from the recorded one
// swaps it and refreshes the entry against the new content.
func (s *Session) GetFile(ctx context.Context, relativePath string, source ContentSource) (*File, error) {
	relativePath = normalizePath(relativePath)

	file, created, err := s.registry.getOrCreate(relativePath, func(f *File) error {
		// Not yet published, so the field write needs no lock. Attaching
		// the source first lets the initial reconciliation read from it.
		f.contentSource = source
		return s.reconcileFile(ctx, f, s.snapshot())
	})
	if err != nil {
		return nil, fmt.Errorf("reconcile %s: %w", relativePath, err)
	}
	if created {
		s.notify(file, UpdateReasonCreate)
		return file, nil
	}

	if file.swapSource(source) {
		if err := s.refreshFile(ctx, file, s.snapshot(), false); err != nil {
			return nil, fmt.Errorf("refresh %s: %w", relativePath, err)
		}
		s.notify(file, UpdateReasonSourceChange)
	}
	return file, nil
}

// GetAllFiles returns entries for every path the snapshot reports
// changed, creating any that are missing. The list is computed once and
// cached for the session's lifetime: later calls return the cached list
// even if a newer snapshot reports a different changed-file set.
func (s *Session) GetAllFiles(ctx context.Context) ([]*File, error) {
	s.mu.Lock()
	cached := s.allFiles
	pr := s.pr
	s.mu.Unlock()
	if cached != nil {
		return cached, nil
	}

	files := make([]*File, 0, len(pr.ChangedFiles))
	for _, path := range pr.ChangedFiles {
		file, err := s.GetFile(ctx, path, nil)
		if err != nil {
			return nil, err
		}
		files = append(files, file)
	}

	s.mu.Lock()
	if s.allFiles == nil {
		s.allFiles = files
	}
	files = s.allFiles
	s.mu.Unlock()
	return files, nil
}

// SetPullRequest replaces the session's snapshot and reconciles every
// already-created entry against it, strictly sequentially. Paths not yet
// tracked are untouched. On error the failing file keeps its previous
// state and the remaining files are not visited.
func (s *Session) SetPullRequest(ctx context.Context, pr *domain.PullRequest) error {
	if pr == nil {
		return errors.New("pull request snapshot is required")
	}
	s.mu.Lock()
	s.pr = pr
	s.mu.Unlock()

	s.logInfo(ctx, "Pull request snapshot replaced", map[string]interface{}{
		"pr_number": pr.Number,
		"head_sha":  pr.HeadSha,
	})
	return s.reconcileAll(ctx, pr, UpdateReasonSnapshot)
}

// AddComment appends a review comment to the snapshot and reconciles
// every tracked entry, so a comment on an already-threaded anchor joins
// its thread and a new anchor becomes a new thread. It never creates
// file entries, even for a comment on an untracked path.
func (s *Session) AddComment(ctx context.Context, comment domain.ReviewComment) error {
	s.mu.Lock()
	s.pr = s.pr.WithComment(comment)
	pr := s.pr
	s.mu.Unlock()

	return s.reconcileAll(ctx, pr, UpdateReasonComment)
}

// UpdateEditorContent refreshes a tracked entry after its live content
// changed. Threads whose fingerprint no longer matches report line -1
// and are marked stale until a later refresh re-resolves them. An
// untracked path is a no-op.
func (s *Session) UpdateEditorContent(ctx context.Context, relativePath string) error {
	relativePath = normalizePath(relativePath)
	file, ok := s.registry.get(relativePath)
	if !ok {
		return nil
	}
	if err := s.refreshFile(ctx, file, s.snapshot(), true); err != nil {
		return fmt.Errorf("refresh %s: %w", relativePath, err)
	}
	s.notify(file, UpdateReasonEditorContent)
	return nil
}

// ResolveRelativePath maps an absolute path to the normalized
// repository-relative form used as a registry key. ok is false when the
// path lies outside the repository root or is the root itself.
func (s *Session) ResolveRelativePath(absolutePath string) (string, bool) {
	if s.repo.LocalPath == "" || absolutePath == "" {
		return "", false
	}
	rel, err := filepath.Rel(s.repo.LocalPath, absolutePath)
	if err != nil {
		return "", false
	}
	rel = filepath.ToSlash(rel)
	if rel == "." || rel == ".." || strings.HasPrefix(rel, "../") {
		return "", false
	}
	return rel, true
}

// reconcileAll runs a full pass over the tracked entries in creation
// order, against the one snapshot captured by the caller.
func (s *Session) reconcileAll(ctx context.Context, pr *domain.PullRequest, reason UpdateReason) error {
	for _, file := range s.registry.all() {
		if err := s.reconcileFile(ctx, file, pr); err != nil {
			return fmt.Errorf("reconcile %s: %w", file.RelativePath(), err)
		}
		s.notify(file, reason)
	}
	return nil
}

// reconcileFile recomputes one entry's full state against the snapshot:
// current content, commit attribution, diff versus the merge base, and
// wholesale-rebuilt threads. Everything is staged and applied together,
// so a collaborator failure leaves the previous state intact.
func (s *Session) reconcileFile(ctx context.Context, file *File, pr *domain.PullRequest) error {
	content, err := s.fileContent(ctx, file, pr)
	if err != nil {
		return err
	}
	commitSha, err := s.resolveCommitSha(ctx, pr, file.RelativePath(), content)
	if err != nil {
		return err
	}
	mergeBase, err := s.deps.Git.MergeBase(ctx, pr)
	if err != nil {
		return err
	}
	d, err := s.deps.Git.Diff(ctx, mergeBase, file.RelativePath(), content)
	if err != nil {
		return err
	}

	threads := BuildThreads(file.RelativePath(), pr.ReviewComments)
	for i := range threads {
		threads[i].LineNumber = diff.MatchLineNumber(d, threads[i].DiffMatch)
	}

	file.apply(fileState{
		baseSha:   pr.BaseSha,
		commitSha: commitSha,
		diff:      d,
		threads:   threads,
	})
	return nil
}

// refreshFile recomputes content, attribution, and diff for one entry
// and rematches its existing threads in place. resetUnmatched selects
// the editor-update miss policy over the source-swap one.
func (s *Session) refreshFile(ctx context.Context, file *File, pr *domain.PullRequest, resetUnmatched bool) error {
	content, err := s.fileContent(ctx, file, pr)
	if err != nil {
		return err
	}
	commitSha, err := s.resolveCommitSha(ctx, pr, file.RelativePath(), content)
	if err != nil {
		return err
	}
	mergeBase, err := s.deps.Git.MergeBase(ctx, pr)
	if err != nil {
		return err
	}
	d, err := s.deps.Git.Diff(ctx, mergeBase, file.RelativePath(), content)
	if err != nil {
		return err
	}

	misses := file.applyRefresh(commitSha, d, resetUnmatched)
	if misses > 0 && resetUnmatched {
		s.logWarning(ctx, "Comment thread anchors displaced by edit", map[string]interface{}{
			"file":    file.RelativePath(),
			"threads": misses,
		})
	}
	return nil
}

// fileContent reads the entry's present-moment content: the live source
// when one is attached, the working tree when the branch is checked out,
// the immutable head revision otherwise.
func (s *Session) fileContent(ctx context.Context, file *File, pr *domain.PullRequest) ([]byte, error) {
	if src := file.source(); src != nil {
		return src.Content(ctx)
	}
	if s.checkedOut {
		abs := filepath.Join(s.repo.LocalPath, filepath.FromSlash(file.RelativePath()))
		return s.deps.Git.ReadFile(ctx, abs)
	}
	return s.deps.Git.ExtractFile(ctx, pr.Number, pr.HeadSha, file.RelativePath())
}

// resolveCommitSha decides which commit the current content belongs to.
// A session not checked out to the pull request branch always holds the
// immutable head revision. A checked-out file matching the pushed tip is
// attributed to the tip; anything else is locally modified and resolves
// to "".
func (s *Session) resolveCommitSha(ctx context.Context, pr *domain.PullRequest, relativePath string, content []byte) (string, error) {
	if !s.checkedOut {
		return pr.HeadSha, nil
	}
	unmodified, err := s.deps.Git.IsUnmodifiedAndPushed(ctx, relativePath, content)
	if err != nil {
		return "", err
	}
	if !unmodified {
		return "", nil
	}
	return s.deps.Git.TipSha(ctx)
}

func (s *Session) snapshot() *domain.PullRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pr
}

func (s *Session) notify(file *File, reason UpdateReason) {
	if s.deps.OnFileReconciled != nil {
		s.deps.OnFileReconciled(file, reason)
	}
}

func (s *Session) logInfo(ctx context.Context, message string, fields map[string]interface{}) {
	if s.deps.Logger != nil {
		s.deps.Logger.LogInfo(ctx, message, fields)
	}
}

func (s *Session) logWarning(ctx context.Context, message string, fields map[string]interface{}) {
	if s.deps.Logger != nil {
		s.deps.Logger.LogWarning(ctx, message, fields)
	}
}

// normalizePath converts backslash separators to the forward-slash form
// used as registry keys.
func normalizePath(p string) string {
	return strings.ReplaceAll(p, "\\", "/")
}
