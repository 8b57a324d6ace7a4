// Package store bridges session state into the persistence layer.
package store

import (
	"context"
	"fmt"
	"time"

	"github.com/bkyoung/inline-reviews/internal/store"
	"github.com/bkyoung/inline-reviews/internal/usecase/session"
)

// Recorder persists the thread positions a session has resolved, so later
// runs can report how anchors drifted.
type Recorder struct {
	store store.Store
}

// NewRecorder creates a new session-to-store recorder.
func NewRecorder(s store.Store) *Recorder {
	return &Recorder{store: s}
}

// Record captures every thread of the given files as one run and saves it.
// File order determines position order, so runs built from the same session
// state compare cleanly.
func (r *Recorder) Record(ctx context.Context, sess *session.Session, files []*session.File, at time.Time) (store.Run, error) {
	pr := sess.PullRequest()

	run := store.NewRun(sess.Repository().FullName(), pr.Number, pr.HeadSha, at)
	for _, file := range files {
		for _, thread := range file.Threads() {
			run.Positions = append(run.Positions, store.ThreadPosition{
				Path:             thread.Path,
				OriginalCommitID: thread.OriginalCommitID,
				OriginalPosition: thread.OriginalPosition,
				LineNumber:       thread.LineNumber,
				Stale:            thread.IsStale,
			})
		}
	}

	if err := r.store.SaveRun(ctx, run); err != nil {
		return store.Run{}, fmt.Errorf("save run: %w", err)
	}

	return run, nil
}

// Previous returns the last recorded run for the session's pull request.
// Callers compare it against a fresh Record to surface drift, so it must be
// read before recording.
func (r *Recorder) Previous(ctx context.Context, sess *session.Session) (store.Run, error) {
	pr := sess.PullRequest()
	return r.store.LatestRun(ctx, sess.Repository().FullName(), pr.Number)
}

// List returns recorded runs for a pull request, newest first, capped at
// limit. The returned runs carry metadata only, without positions.
func (r *Recorder) List(ctx context.Context, repository string, prNumber, limit int) ([]store.Run, error) {
	return r.store.ListRuns(ctx, repository, prNumber, limit)
}

// Close closes the underlying store.
func (r *Recorder) Close() error {
	return r.store.Close()
}
