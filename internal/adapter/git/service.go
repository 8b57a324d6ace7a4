// Package git implements the session's GitService port backed by go-git.
package git

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"sync"

	goGit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"

	"github.com/bkyoung/inline-reviews/internal/diff"
	"github.com/bkyoung/inline-reviews/internal/domain"
)

// Service answers content and ancestry questions about one local
// repository. Merge bases are cached per commit pair, since a session
// asks for the same pair on every reconciliation.
type Service struct {
	repoDir string

	mu         sync.Mutex
	mergeBases map[string]string
}

// NewService constructs a git service for the provided repository
// directory.
func NewService(repoDir string) *Service {
	return &Service{
		repoDir:    repoDir,
		mergeBases: make(map[string]string),
	}
}

// Diff computes the hunks between the file's content at baseSha and the
// supplied current content. A file absent at baseSha diffs against empty
// content, so every current line is an addition.
func (s *Service) Diff(ctx context.Context, baseSha, relativePath string, content []byte) (diff.ParsedDiff, error) {
	repo, err := s.open()
	if err != nil {
		return diff.ParsedDiff{}, err
	}
	commit, err := repo.CommitObject(plumbing.NewHash(baseSha))
	if err != nil {
		return diff.ParsedDiff{}, fmt.Errorf("resolve commit %s: %w", shortSha(baseSha), err)
	}
	old, err := fileAtCommit(commit, relativePath)
	if err != nil {
		return diff.ParsedDiff{}, fmt.Errorf("read %s at %s: %w", relativePath, shortSha(baseSha), err)
	}
	return diff.Compute(old, content), nil
}

// MergeBase returns the common ancestor of the pull request's base and
// head commits, fetching the pull ref when the head is not known
// locally.
func (s *Service) MergeBase(ctx context.Context, pr *domain.PullRequest) (string, error) {
	key := pr.BaseSha + ".." + pr.HeadSha
	s.mu.Lock()
	if sha, ok := s.mergeBases[key]; ok {
		s.mu.Unlock()
		return sha, nil
	}
	s.mu.Unlock()

	repo, err := s.open()
	if err != nil {
		return "", err
	}
	baseCommit, err := repo.CommitObject(plumbing.NewHash(pr.BaseSha))
	if err != nil {
		return "", fmt.Errorf("resolve commit %s: %w", shortSha(pr.BaseSha), err)
	}
	headCommit, err := s.commitWithPullFallback(ctx, repo, pr.Number, pr.HeadSha)
	if err != nil {
		return "", err
	}

	bases, err := baseCommit.MergeBase(headCommit)
	if err != nil {
		return "", fmt.Errorf("merge base: %w", err)
	}
	if len(bases) == 0 {
		return "", fmt.Errorf("no common ancestor between %s and %s", shortSha(pr.BaseSha), shortSha(pr.HeadSha))
	}
	sha := bases[0].Hash.String()

	s.mu.Lock()
	s.mergeBases[key] = sha
	s.mu.Unlock()
	return sha, nil
}

// IsUnmodifiedAndPushed reports whether content is byte-identical to the
// file at the checked-out tip and the tip is reachable from its
// remote-tracking ref.
func (s *Service) IsUnmodifiedAndPushed(ctx context.Context, relativePath string, content []byte) (bool, error) {
	repo, err := s.open()
	if err != nil {
		return false, err
	}
	head, err := repo.Head()
	if err != nil {
		return false, fmt.Errorf("resolve HEAD: %w", err)
	}
	headCommit, err := repo.CommitObject(head.Hash())
	if err != nil {
		return false, fmt.Errorf("resolve HEAD commit: %w", err)
	}
	tracked, err := fileAtCommit(headCommit, relativePath)
	if err != nil {
		return false, fmt.Errorf("read %s at HEAD: %w", relativePath, err)
	}
	if tracked == nil || !bytes.Equal(tracked, content) {
		return false, nil
	}
	return headPushed(repo, head, headCommit)
}

// TipSha returns the commit hash of the checked-out HEAD.
func (s *Service) TipSha(ctx context.Context) (string, error) {
	repo, err := s.open()
	if err != nil {
		return "", err
	}
	head, err := repo.Head()
	if err != nil {
		return "", fmt.Errorf("resolve HEAD: %w", err)
	}
	return head.Hash().String(), nil
}

// CurrentBranch returns the name of the checked-out branch.
func (s *Service) CurrentBranch(ctx context.Context) (string, error) {
	repo, err := s.open()
	if err != nil {
		return "", err
	}
	head, err := repo.Head()
	if err != nil {
		return "", fmt.Errorf("resolve HEAD: %w", err)
	}
	name := head.Name()
	if name.IsBranch() {
		return name.Short(), nil
	}
	return "", fmt.Errorf("detached HEAD")
}

// ExtractFile returns the file's bytes at the given commit, or empty
// content when the file does not exist there. An unknown commit triggers
// a fetch of the pull request's head ref before giving up.
func (s *Service) ExtractFile(ctx context.Context, prNumber int, commitSha, relativePath string) ([]byte, error) {
	repo, err := s.open()
	if err != nil {
		return nil, err
	}
	commit, err := s.commitWithPullFallback(ctx, repo, prNumber, commitSha)
	if err != nil {
		return nil, err
	}
	content, err := fileAtCommit(commit, relativePath)
	if err != nil {
		return nil, fmt.Errorf("read %s at %s: %w", relativePath, shortSha(commitSha), err)
	}
	return content, nil
}

// ReadFile returns working-tree content for an absolute path. A missing
// file yields empty content, matching how a deleted file diffs.
func (s *Service) ReadFile(ctx context.Context, absolutePath string) ([]byte, error) {
	content, err := os.ReadFile(absolutePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read %s: %w", absolutePath, err)
	}
	return content, nil
}

func (s *Service) open() (*goGit.Repository, error) {
	repo, err := goGit.PlainOpenWithOptions(s.repoDir, &goGit.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, fmt.Errorf("open repo: %w", err)
	}
	return repo, nil
}

// commitWithPullFallback resolves a commit, fetching refs/pull/N/head
// from origin when the object is not in the local store. GitHub serves
// pull head commits on that ref even for forks.
func (s *Service) commitWithPullFallback(ctx context.Context, repo *goGit.Repository, prNumber int, sha string) (*object.Commit, error) {
	commit, err := repo.CommitObject(plumbing.NewHash(sha))
	if err == nil {
		return commit, nil
	}
	if !errors.Is(err, plumbing.ErrObjectNotFound) {
		return nil, fmt.Errorf("resolve commit %s: %w", shortSha(sha), err)
	}
	if err := fetchPullHead(ctx, repo, prNumber); err != nil {
		return nil, err
	}
	commit, err = repo.CommitObject(plumbing.NewHash(sha))
	if err != nil {
		return nil, fmt.Errorf("resolve commit %s after fetching pull ref: %w", shortSha(sha), err)
	}
	return commit, nil
}

func fetchPullHead(ctx context.Context, repo *goGit.Repository, prNumber int) error {
	spec := config.RefSpec(fmt.Sprintf("+refs/pull/%d/head:refs/pull/%d/head", prNumber, prNumber))
	err := repo.FetchContext(ctx, &goGit.FetchOptions{
		RemoteName: "origin",
		RefSpecs:   []config.RefSpec{spec},
		Tags:       goGit.NoTags,
	})
	if err != nil && !errors.Is(err, goGit.NoErrAlreadyUpToDate) {
		return fmt.Errorf("fetch pull ref %d: %w", prNumber, err)
	}
	return nil
}

// headPushed reports whether the checked-out branch tip is the remote
// tip or an ancestor of it.
func headPushed(repo *goGit.Repository, head *plumbing.Reference, headCommit *object.Commit) (bool, error) {
	if !head.Name().IsBranch() {
		return false, nil
	}
	remoteRef, err := repo.Reference(plumbing.NewRemoteReferenceName("origin", head.Name().Short()), true)
	if err != nil {
		if errors.Is(err, plumbing.ErrReferenceNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("resolve remote ref: %w", err)
	}
	if remoteRef.Hash() == head.Hash() {
		return true, nil
	}
	remoteCommit, err := repo.CommitObject(remoteRef.Hash())
	if err != nil {
		return false, fmt.Errorf("resolve remote commit: %w", err)
	}
	return headCommit.IsAncestor(remoteCommit)
}

// fileAtCommit returns the blob content of relativePath at the commit,
// or nil when the path does not exist there.
func fileAtCommit(commit *object.Commit, relativePath string) ([]byte, error) {
	file, err := commit.File(relativePath)
	if err != nil {
		if errors.Is(err, object.ErrFileNotFound) {
			return nil, nil
		}
		return nil, err
	}
	content, err := file.Contents()
	if err != nil {
		return nil, err
	}
	return []byte(content), nil
}

func shortSha(sha string) string {
	if len(sha) > 8 {
		return sha[:8]
	}
	return sha
}
