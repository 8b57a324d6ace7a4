package github

import "time"

// GitHub Pull Requests API types.
// See: https://docs.github.com/en/rest/pulls/pulls#get-a-pull-request

// PullResponse is the subset of GET /repos/{owner}/{repo}/pulls/{pull_number}
// the session needs.
type PullResponse struct {
	Number int    `json:"number"`
	Title  string `json:"title"`
	User   User   `json:"user"`
	Base   Ref    `json:"base"`
	Head   Ref    `json:"head"`
}

// Ref identifies one side of the pull request.
type Ref struct {
	Ref string `json:"ref"`
	Sha string `json:"sha"`
}

// User represents a GitHub user in the response.
type User struct {
	Login string `json:"login"`
	ID    int64  `json:"id"`
	Type  string `json:"type"` // "User" or "Bot"
}

// FileResponse is one entry of GET /repos/{owner}/{repo}/pulls/{pull_number}/files.
type FileResponse struct {
	Filename         string `json:"filename"`
	Status           string `json:"status"` // added, removed, modified, renamed
	PreviousFilename string `json:"previous_filename,omitempty"`
}

// CommentResponse is one entry of GET /repos/{owner}/{repo}/pulls/{pull_number}/comments.
type CommentResponse struct {
	ID       int64  `json:"id"`
	Path     string `json:"path"`
	Body     string `json:"body"`
	User     User   `json:"user"`
	DiffHunk string `json:"diff_hunk"`

	// CommitID and Position track the comment against the current head;
	// GitHub nulls Position when the comment is outdated. The original
	// pair is immutable and anchors relocation.
	CommitID         string `json:"commit_id"`
	Position         *int   `json:"position"`
	OriginalCommitID string `json:"original_commit_id"`
	OriginalPosition *int   `json:"original_position"`

	InReplyToID int64     `json:"in_reply_to_id,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// ErrorResponse represents an error response from the GitHub API.
type ErrorResponse struct {
	Message          string `json:"message"`
	DocumentationURL string `json:"documentation_url"`
	Errors           []struct {
		Resource string `json:"resource"`
		Field    string `json:"field"`
		Code     string `json:"code"`
		Message  string `json:"message"`
	} `json:"errors,omitempty"`
}
