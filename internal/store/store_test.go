package store_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bkyoung/inline-reviews/internal/store"
)

func TestNewRun(t *testing.T) {
	at := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)

	run := store.NewRun("bkyoung/inline-reviews", 42, "head111", at)

	assert.NotEmpty(t, run.RunID)
	assert.Equal(t, "bkyoung/inline-reviews", run.Repository)
	assert.Equal(t, 42, run.PRNumber)
	assert.Equal(t, "head111", run.HeadSha)
	assert.True(t, at.Equal(run.CreatedAt))
	assert.Empty(t, run.Positions)
}

func TestNewRun_IDsAreUnique(t *testing.T) {
	at := time.Now()
	seen := make(map[string]bool)

	for i := 0; i < 100; i++ {
		run := store.NewRun("repo", 1, "sha", at)
		require.False(t, seen[run.RunID], "duplicate run ID %s", run.RunID)
		seen[run.RunID] = true
	}
}

func TestThreadPositionKey(t *testing.T) {
	p := store.ThreadPosition{
		Path:             "internal/session/file.go",
		OriginalCommitID: "abc123",
		OriginalPosition: 7,
		LineNumber:       42,
	}

	assert.Equal(t, "internal/session/file.go:abc123:7", p.Key())
}

func TestThreadPositionKey_IgnoresResolvedState(t *testing.T) {
	a := store.ThreadPosition{Path: "a.go", OriginalCommitID: "sha", OriginalPosition: 3, LineNumber: 10}
	b := store.ThreadPosition{Path: "a.go", OriginalCommitID: "sha", OriginalPosition: 3, LineNumber: -1, Stale: true}

	assert.Equal(t, a.Key(), b.Key(), "key identifies the anchor, not the resolution")
}
