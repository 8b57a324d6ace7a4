// Package diff provides utilities for parsing unified diff hunks,
// computing fresh diffs between two versions of a file, and relocating
// anchored lines between the two.
//
// Review comments are anchored to a short run of trailing hunk lines
// captured when the comment was posted. Matching that run against the
// file's current diff (see Match and MatchLineNumber) recovers the
// comment's present-day line number after the file has been edited.
//
// Position is 1-indexed from the first @@ hunk header, counting all
// lines in the diff (context, additions, and deletions), matching
// GitHub's review comment position semantics.
package diff
