package session

import (
	"context"

	"github.com/bkyoung/inline-reviews/internal/diff"
	"github.com/bkyoung/inline-reviews/internal/domain"
)

// GitService abstracts the repository operations reconciliation needs.
type GitService interface {
	// Diff computes the unified diff between the file's content at
	// baseSha and the supplied current content.
	Diff(ctx context.Context, baseSha, relativePath string, content []byte) (diff.ParsedDiff, error)

	// MergeBase returns the common ancestor commit of the pull request's
	// base and head.
	MergeBase(ctx context.Context, pr *domain.PullRequest) (string, error)

	// IsUnmodifiedAndPushed reports whether content is byte-identical to
	// the file at the checked-out tip and that tip has been pushed.
	IsUnmodifiedAndPushed(ctx context.Context, relativePath string, content []byte) (bool, error)

	// TipSha returns the commit hash of the checked-out HEAD.
	TipSha(ctx context.Context) (string, error)

	// ExtractFile returns the file's bytes at the given commit. The pull
	// request number lets the implementation fetch the pull ref when the
	// commit is not known locally.
	ExtractFile(ctx context.Context, prNumber int, commitSha, relativePath string) ([]byte, error)

	// ReadFile returns working-tree content for an absolute path. A
	// missing file yields empty content rather than an error.
	ReadFile(ctx context.Context, absolutePath string) ([]byte, error)
}

// ContentSource supplies live file content, typically an open editor
// buffer. Source identity is interface equality: supplying a different
// source for a tracked file swaps it and triggers a targeted refresh.
type ContentSource interface {
	Content(ctx context.Context) ([]byte, error)
}

// Logger provides structured logging for session reconciliation.
type Logger interface {
	// LogWarning logs a warning message with structured fields.
	LogWarning(ctx context.Context, message string, fields map[string]interface{})

	// LogInfo logs an informational message with structured fields.
	LogInfo(ctx context.Context, message string, fields map[string]interface{})
}

// UpdateReason identifies which operation reconciled a file.
type UpdateReason string

const (
	UpdateReasonCreate        UpdateReason = "create"
	UpdateReasonSnapshot      UpdateReason = "snapshot"
	UpdateReasonComment       UpdateReason = "comment"
	UpdateReasonEditorContent UpdateReason = "editor-content"
	UpdateReasonSourceChange  UpdateReason = "source-change"
)

// Deps captures the session's outbound dependencies.
type Deps struct {
	Git    GitService
	Logger Logger // Optional: structured logging for reconciliation

	// OnFileReconciled, when set, is invoked after a file's
	// reconciliation completes and all locks are released. It runs on
	// the reconciling goroutine and must not call back into the Session.
	OnFileReconciled func(file *File, reason UpdateReason)
}
