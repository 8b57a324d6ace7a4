package github

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/bkyoung/inline-reviews/internal/domain"
)

// SnapshotFile is the on-disk form of a captured pull request. It holds
// the raw API shapes, so a capture made with curl against the three pull
// endpoints loads without massaging.
type SnapshotFile struct {
	Pull     PullResponse      `json:"pull"`
	Files    []FileResponse    `json:"files"`
	Comments []CommentResponse `json:"comments"`
}

// LoadSnapshotFile reads a captured snapshot from disk and maps it the
// same way the live API path does. It serves offline runs and tests.
func LoadSnapshotFile(path string) (*domain.PullRequest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	var snap SnapshotFile
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("parse snapshot %s: %w", path, err)
	}
	return MapPullRequest(snap.Pull, snap.Files, snap.Comments), nil
}
