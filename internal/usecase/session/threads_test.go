package session_test

import (
	"testing"

	"github.com/bkyoung/inline-reviews/internal/diff"
	"github.com/bkyoung/inline-reviews/internal/domain"
	"github.com/bkyoung/inline-reviews/internal/usecase/session"
)

const groupHunk = "@@ -4,4 +4,5 @@\n one\n two\n+three\n four\n five"

func reviewComment(id int64, path, commit string, position int, hunk string) domain.ReviewComment {
	return domain.ReviewComment{
		ID:               id,
		Path:             path,
		Body:             "looks odd",
		Author:           "reviewer",
		DiffHunk:         hunk,
		OriginalCommitID: commit,
		OriginalPosition: diff.IntPtr(position),
	}
}

func TestBuildThreads_GroupsByCommitAndPosition(t *testing.T) {
	comments := []domain.ReviewComment{
		reviewComment(7, "a.go", "sha1", 3, groupHunk),
		reviewComment(2, "a.go", "sha1", 3, groupHunk),
		reviewComment(5, "a.go", "sha1", 9, groupHunk),
	}

	threads := session.BuildThreads("a.go", comments)
	if len(threads) != 2 {
		t.Fatalf("expected 2 threads, got %d", len(threads))
	}

	first := threads[0]
	if first.OriginalPosition != 3 {
		t.Fatalf("expected first thread at position 3, got %d", first.OriginalPosition)
	}
	if len(first.Comments) != 2 {
		t.Fatalf("expected 2 comments in first thread, got %d", len(first.Comments))
	}
	if first.Comments[0].ID != 2 || first.Comments[1].ID != 7 {
		t.Fatalf("expected comments ordered by id, got %d then %d", first.Comments[0].ID, first.Comments[1].ID)
	}

	second := threads[1]
	if second.OriginalPosition != 9 || len(second.Comments) != 1 || second.Comments[0].ID != 5 {
		t.Fatalf("unexpected second thread: %+v", second)
	}

	for _, thread := range threads {
		if thread.Path != "a.go" {
			t.Fatalf("expected thread path a.go, got %s", thread.Path)
		}
		if thread.LineNumber != -1 {
			t.Fatalf("expected unmatched line number -1, got %d", thread.LineNumber)
		}
		if thread.IsStale {
			t.Fatal("expected freshly built thread to not be stale")
		}
	}
}

func TestBuildThreads_SkipsOtherPathsAndOutdatedComments(t *testing.T) {
	comments := []domain.ReviewComment{
		reviewComment(1, "b.go", "sha1", 3, groupHunk),
		{ID: 2, Path: "a.go", Body: "outdated", OriginalCommitID: "sha1"},
	}

	threads := session.BuildThreads("a.go", comments)
	if len(threads) != 0 {
		t.Fatalf("expected no threads, got %d", len(threads))
	}
}

func TestBuildThreads_OrdersByCommitThenPosition(t *testing.T) {
	comments := []domain.ReviewComment{
		reviewComment(1, "a.go", "shaB", 1, groupHunk),
		reviewComment(2, "a.go", "shaA", 8, groupHunk),
		reviewComment(3, "a.go", "shaA", 2, groupHunk),
	}

	threads := session.BuildThreads("a.go", comments)
	if len(threads) != 3 {
		t.Fatalf("expected 3 threads, got %d", len(threads))
	}

	type anchor struct {
		commit   string
		position int
	}
	got := []anchor{}
	for _, thread := range threads {
		got = append(got, anchor{thread.OriginalCommitID, thread.OriginalPosition})
	}
	want := []anchor{{"shaA", 2}, {"shaA", 8}, {"shaB", 1}}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected thread order %v, got %v", want, got)
		}
	}
}

func TestBuildThreads_FingerprintIsReversedHunkTail(t *testing.T) {
	threads := session.BuildThreads("a.go", []domain.ReviewComment{
		reviewComment(1, "a.go", "sha1", 5, groupHunk),
	})
	if len(threads) != 1 {
		t.Fatalf("expected 1 thread, got %d", len(threads))
	}

	fingerprint := threads[0].DiffMatch
	if len(fingerprint) != 5 {
		t.Fatalf("expected 5 fingerprint lines, got %d", len(fingerprint))
	}
	if fingerprint[0].Content != "five" || fingerprint[0].Type != diff.LineContext {
		t.Fatalf("expected fingerprint to start at the hunk's last line, got %+v", fingerprint[0])
	}
	if fingerprint[2].Content != "three" || fingerprint[2].Type != diff.LineAddition {
		t.Fatalf("expected addition preserved in fingerprint, got %+v", fingerprint[2])
	}
	if fingerprint[4].Content != "one" {
		t.Fatalf("expected fingerprint to end at the hunk's first line, got %+v", fingerprint[4])
	}
}

func TestBuildThreads_MalformedHunkYieldsEmptyFingerprint(t *testing.T) {
	threads := session.BuildThreads("a.go", []domain.ReviewComment{
		reviewComment(1, "a.go", "sha1", 5, "not a diff at all"),
	})
	if len(threads) != 1 {
		t.Fatalf("expected 1 thread, got %d", len(threads))
	}
	if len(threads[0].DiffMatch) != 0 {
		t.Fatalf("expected empty fingerprint, got %d lines", len(threads[0].DiffMatch))
	}
}
