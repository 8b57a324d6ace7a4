// Package json serializes resolved thread positions for machine consumers.
package json

import (
	"encoding/json"
	"fmt"
	"io"
)

// Thread is one comment thread's resolved position. A Line of -1 marks a
// thread whose anchor is not present in the current diff.
type Thread struct {
	OriginalCommitID string `json:"originalCommitId"`
	OriginalPosition int    `json:"originalPosition"`
	Line             int    `json:"line"`
	Stale            bool   `json:"stale"`
	Comments         int    `json:"comments"`
}

// File is one tracked file with its threads. An empty CommitSha means the
// content does not correspond to any known commit.
type File struct {
	Path      string   `json:"path"`
	BaseSha   string   `json:"baseSha"`
	CommitSha string   `json:"commitSha"`
	Threads   []Thread `json:"threads"`
}

// Snapshot is the full position state for a pull request at one point in
// time.
type Snapshot struct {
	Repository string `json:"repository"`
	PRNumber   int    `json:"prNumber"`
	Title      string `json:"title"`
	HeadSha    string `json:"headSha"`
	CheckedOut bool   `json:"checkedOut"`
	Files      []File `json:"files"`
}

// Write encodes the snapshot as indented JSON followed by a newline.
func Write(w io.Writer, snapshot Snapshot) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(snapshot); err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	return nil
}
