package domain_test

import (
	"testing"

	"github.com/bkyoung/inline-reviews/internal/domain"
)

func TestPullRequest_WithComment_AppendsWithoutMutating(t *testing.T) {
	original := &domain.PullRequest{
		Number:  42,
		HeadSha: "abc123",
		ReviewComments: []domain.ReviewComment{
			{ID: 1, Path: "main.go", Body: "first"},
		},
	}

	next := original.WithComment(domain.ReviewComment{ID: 2, Path: "main.go", Body: "second"})

	if len(original.ReviewComments) != 1 {
		t.Fatalf("original mutated: %d comments, want 1", len(original.ReviewComments))
	}
	if len(next.ReviewComments) != 2 {
		t.Fatalf("expected 2 comments on copy, got %d", len(next.ReviewComments))
	}
	if next.ReviewComments[1].ID != 2 {
		t.Errorf("appended comment ID = %d, want 2", next.ReviewComments[1].ID)
	}
	if next.Number != 42 || next.HeadSha != "abc123" {
		t.Errorf("copy lost snapshot fields: %+v", next)
	}
}

func TestPullRequest_WithComment_EmptyList(t *testing.T) {
	original := &domain.PullRequest{Number: 7}

	next := original.WithComment(domain.ReviewComment{ID: 10})

	if len(original.ReviewComments) != 0 {
		t.Fatalf("original mutated: %d comments, want 0", len(original.ReviewComments))
	}
	if len(next.ReviewComments) != 1 || next.ReviewComments[0].ID != 10 {
		t.Errorf("unexpected comments on copy: %+v", next.ReviewComments)
	}
}
