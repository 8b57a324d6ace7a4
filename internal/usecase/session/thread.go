package session

import (
	"sort"

	"github.com/bkyoung/inline-reviews/internal/diff"
	"github.com/bkyoung/inline-reviews/internal/domain"
)

// matchLines is the number of trailing hunk lines captured as a thread's
// relocation fingerprint.
const matchLines = 5

// Thread is a group of review comments sharing one inline anchor. The
// fingerprint captured from the original diff hunk lets the thread be
// relocated in later diffs as the file changes underneath it.
type Thread struct {
	Path             string
	OriginalCommitID string
	OriginalPosition int

	// DiffMatch holds the trailing lines of the original hunk in reverse
	// order, so DiffMatch[0] is the line the thread was anchored to.
	DiffMatch []diff.Line

	// Comments are ordered by ascending identifier.
	Comments []domain.ReviewComment

	// LineNumber is the anchor's position in the current content, or -1
	// when the fingerprint cannot be located.
	LineNumber int

	// IsStale reports that a live content update displaced the anchor
	// and it has not been re-resolved since.
	IsStale bool
}

// BuildThreads groups the snapshot's review comments for one path into
// threads. Comments without a recorded original position are outdated
// top-level review remarks and are skipped. Thread order is
// deterministic: by original commit, then original position.
func BuildThreads(relativePath string, comments []domain.ReviewComment) []Thread {
	type anchor struct {
		commit   string
		position int
	}

	groups := make(map[anchor][]domain.ReviewComment)
	for _, c := range comments {
		if c.Path != relativePath || c.OriginalPosition == nil {
			continue
		}
		k := anchor{commit: c.OriginalCommitID, position: *c.OriginalPosition}
		groups[k] = append(groups[k], c)
	}

	anchors := make([]anchor, 0, len(groups))
	for k := range groups {
		anchors = append(anchors, k)
	}
	sort.Slice(anchors, func(i, j int) bool {
		if anchors[i].commit != anchors[j].commit {
			return anchors[i].commit < anchors[j].commit
		}
		return anchors[i].position < anchors[j].position
	})

	threads := make([]Thread, 0, len(anchors))
	for _, k := range anchors {
		group := groups[k]
		sort.Slice(group, func(i, j int) bool { return group[i].ID < group[j].ID })
		threads = append(threads, Thread{
			Path:             relativePath,
			OriginalCommitID: k.commit,
			OriginalPosition: k.position,
			DiffMatch:        threadFingerprint(group[0].DiffHunk),
			Comments:         group,
			LineNumber:       -1,
		})
	}
	return threads
}

// threadFingerprint parses the hunk fragment stored with a comment and
// captures its trailing lines as the relocation anchor. All comments in
// a thread carry the same fragment, so any one of them serves. A
// malformed fragment yields an empty fingerprint, which never matches.
func threadFingerprint(hunk string) []diff.Line {
	parsed, err := diff.Parse(hunk)
	if err != nil {
		return nil
	}
	return diff.TrailingLines(parsed, matchLines)
}
