package github_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bkyoung/inline-reviews/internal/adapter/github"
)

func TestLoadSnapshotFile(t *testing.T) {
	content := `{
		"pull": {
			"number": 7,
			"title": "Improve parser",
			"user": {"login": "octocat"},
			"base": {"ref": "main", "sha": "base000"},
			"head": {"ref": "feature/parser", "sha": "head111"}
		},
		"files": [
			{"filename": "parser.go", "status": "modified"}
		],
		"comments": [
			{
				"id": 12,
				"path": "parser.go",
				"body": "check this",
				"user": {"login": "reviewer"},
				"diff_hunk": "@@ -1,2 +1,3 @@\n a\n+b\n c",
				"original_commit_id": "head111",
				"original_position": 2,
				"created_at": "2026-02-14T09:30:00Z"
			}
		]
	}`

	path := filepath.Join(t.TempDir(), "snapshot.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	pr, err := github.LoadSnapshotFile(path)
	require.NoError(t, err)

	assert.Equal(t, 7, pr.Number)
	assert.Equal(t, "octocat", pr.Author)
	assert.Equal(t, []string{"parser.go"}, pr.ChangedFiles)
	require.Len(t, pr.ReviewComments, 1)
	comment := pr.ReviewComments[0]
	assert.Equal(t, int64(12), comment.ID)
	assert.Equal(t, "reviewer", comment.Author)
	require.NotNil(t, comment.OriginalPosition)
	assert.Equal(t, 2, *comment.OriginalPosition)
}

func TestLoadSnapshotFile_MissingFile(t *testing.T) {
	_, err := github.LoadSnapshotFile(filepath.Join(t.TempDir(), "absent.json"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read snapshot")
}

func TestLoadSnapshotFile_InvalidJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	_, err := github.LoadSnapshotFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse snapshot")
}
