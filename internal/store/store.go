package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Store defines the persistence layer for reconciliation history.
type Store interface {
	// SaveRun persists a run together with its thread positions.
	SaveRun(ctx context.Context, run Run) error

	// LatestRun returns the most recent run for a pull request, positions
	// included. Returns ErrNotFound when none has been recorded.
	LatestRun(ctx context.Context, repository string, prNumber int) (Run, error)

	// ListRuns returns the most recent runs for a pull request, newest
	// first, without their positions.
	ListRuns(ctx context.Context, repository string, prNumber, limit int) ([]Run, error)

	// Close releases the underlying connection.
	Close() error
}

// ErrNotFound reports that no run matches the query.
var ErrNotFound = errors.New("run not found")

// Run captures the thread positions resolved during one reconciliation pass
// over a pull request.
type Run struct {
	RunID      string
	Repository string
	PRNumber   int
	HeadSha    string
	CreatedAt  time.Time
	Positions  []ThreadPosition
}

// ThreadPosition records where one comment thread anchored during a run.
// LineNumber is -1 when the thread's anchor was not found in the diff.
type ThreadPosition struct {
	Path             string
	OriginalCommitID string
	OriginalPosition int
	LineNumber       int
	Stale            bool
}

// NewRun creates a run with a fresh unique ID. Positions are appended by the
// caller before saving.
func NewRun(repository string, prNumber int, headSha string, at time.Time) Run {
	return Run{
		RunID:      uuid.NewString(),
		Repository: repository,
		PRNumber:   prNumber,
		HeadSha:    headSha,
		CreatedAt:  at,
	}
}
