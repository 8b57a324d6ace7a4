package domain

import "time"

// PullRequest is a snapshot of a pull request's review state as
// materialized by a provider. Snapshots are immutable by convention:
// sessions replace them as a whole rather than editing them in place.
type PullRequest struct {
	Number         int             `json:"number"`
	Title          string          `json:"title"`
	Author         string          `json:"author"`
	BaseRefName    string          `json:"baseRefName"`
	HeadRefName    string          `json:"headRefName"`
	BaseSha        string          `json:"baseSha"`
	HeadSha        string          `json:"headSha"`
	ChangedFiles   []string        `json:"changedFiles"`
	ReviewComments []ReviewComment `json:"reviewComments"`
}

// ReviewComment is one immutable inline review comment record.
// OriginalPosition is nil when the provider discarded the comment's
// diff position (resolved or outdated beyond recovery).
type ReviewComment struct {
	ID               int64     `json:"id"`
	Path             string    `json:"path"`
	Body             string    `json:"body"`
	Author           string    `json:"author"`
	DiffHunk         string    `json:"diffHunk"`
	OriginalCommitID string    `json:"originalCommitId"`
	OriginalPosition *int      `json:"originalPosition"`
	CreatedAt        time.Time `json:"createdAt"`
}

// Repository identifies the local clone a session operates on.
type Repository struct {
	Owner     string `json:"owner"`
	Name      string `json:"name"`
	LocalPath string `json:"localPath"`
}

// FullName returns the owner/name form used to address the repository
// remotely.
func (r Repository) FullName() string {
	return r.Owner + "/" + r.Name
}

// WithComment returns a copy of the snapshot with the comment appended.
// The receiver is left untouched.
func (pr *PullRequest) WithComment(c ReviewComment) *PullRequest {
	next := *pr
	next.ReviewComments = make([]ReviewComment, 0, len(pr.ReviewComments)+1)
	next.ReviewComments = append(next.ReviewComments, pr.ReviewComments...)
	next.ReviewComments = append(next.ReviewComments, c)
	return &next
}
