package github

import (
	"sort"

	"github.com/bkyoung/inline-reviews/internal/domain"
)

// MapPullRequest assembles a domain snapshot from the API responses.
// Review comments are ordered by ascending identifier, which is posting
// order, so thread grouping downstream is deterministic.
func MapPullRequest(pull PullResponse, files []FileResponse, comments []CommentResponse) *domain.PullRequest {
	changed := make([]string, 0, len(files))
	for _, file := range files {
		changed = append(changed, file.Filename)
	}

	mapped := make([]domain.ReviewComment, 0, len(comments))
	for _, comment := range comments {
		mapped = append(mapped, MapComment(comment))
	}
	sort.Slice(mapped, func(i, j int) bool { return mapped[i].ID < mapped[j].ID })

	return &domain.PullRequest{
		Number:         pull.Number,
		Title:          pull.Title,
		Author:         pull.User.Login,
		BaseRefName:    pull.Base.Ref,
		HeadRefName:    pull.Head.Ref,
		BaseSha:        pull.Base.Sha,
		HeadSha:        pull.Head.Sha,
		ChangedFiles:   changed,
		ReviewComments: mapped,
	}
}

// MapComment converts one review comment to its domain form.
func MapComment(comment CommentResponse) domain.ReviewComment {
	return domain.ReviewComment{
		ID:               comment.ID,
		Path:             comment.Path,
		Body:             comment.Body,
		Author:           comment.User.Login,
		DiffHunk:         comment.DiffHunk,
		OriginalCommitID: comment.OriginalCommitID,
		OriginalPosition: comment.OriginalPosition,
		CreatedAt:        comment.CreatedAt,
	}
}
