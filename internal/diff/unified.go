package diff

import (
	"bytes"
	"strings"

	gitdiff "github.com/go-git/go-git/v5/utils/diff"
	"github.com/sergi/go-diff/diffmatchpatch"
)

// DefaultContextLines is the number of unchanged lines kept around each
// change, matching git's default unified context width.
const DefaultContextLines = 3

// Compute builds the unified diff between two versions of a file's
// content, in the same Hunk representation Parse produces. Anchors
// parsed from stored hunk fragments can therefore be matched directly
// against freshly computed diffs. Identical contents yield an empty
// ParsedDiff.
func Compute(oldContent, newContent []byte) ParsedDiff {
	if bytes.Equal(oldContent, newContent) {
		return ParsedDiff{}
	}

	ops := gitdiff.Do(string(oldContent), string(newContent))

	var all []Line
	oldLine := 1
	newLine := 1
	for _, op := range ops {
		for _, text := range splitLines(op.Text) {
			switch op.Type {
			case diffmatchpatch.DiffEqual:
				all = append(all, Line{
					Type:    LineContext,
					Content: text,
					OldLine: IntPtr(oldLine),
					NewLine: IntPtr(newLine),
				})
				oldLine++
				newLine++
			case diffmatchpatch.DiffDelete:
				all = append(all, Line{
					Type:    LineDeletion,
					Content: text,
					OldLine: IntPtr(oldLine),
				})
				oldLine++
			case diffmatchpatch.DiffInsert:
				all = append(all, Line{
					Type:    LineAddition,
					Content: text,
					NewLine: IntPtr(newLine),
				})
				newLine++
			}
		}
	}

	return groupIntoHunks(all, DefaultContextLines)
}

// groupIntoHunks collapses a full-file line sequence into hunks, keeping
// up to context unchanged lines around each change and merging changes
// whose context windows touch. Positions are assigned 1-indexed across
// all hunks, matching Parse.
func groupIntoHunks(lines []Line, context int) ParsedDiff {
	var changed []int
	for i, l := range lines {
		if l.Type != LineContext {
			changed = append(changed, i)
		}
	}
	if len(changed) == 0 {
		return ParsedDiff{}
	}

	type span struct{ from, to int }
	var spans []span
	cur := span{
		from: max(0, changed[0]-context),
		to:   min(len(lines)-1, changed[0]+context),
	}
	for _, idx := range changed[1:] {
		from := max(0, idx-context)
		to := min(len(lines)-1, idx+context)
		if from <= cur.to+1 {
			if to > cur.to {
				cur.to = to
			}
			continue
		}
		spans = append(spans, cur)
		cur = span{from: from, to: to}
	}
	spans = append(spans, cur)

	result := ParsedDiff{}
	position := 0
	for _, sp := range spans {
		hunk := Hunk{}
		for i := sp.from; i <= sp.to; i++ {
			line := lines[i]
			position++
			line.Position = position
			if line.OldLine != nil {
				if hunk.OldLines == 0 {
					hunk.OldStart = *line.OldLine
				}
				hunk.OldLines++
			}
			if line.NewLine != nil {
				if hunk.NewLines == 0 {
					hunk.NewStart = *line.NewLine
				}
				hunk.NewLines++
			}
			hunk.Lines = append(hunk.Lines, line)
		}
		// A hunk with no lines on one side starts at the line before the
		// change on that side, per unified diff convention.
		if hunk.OldLines == 0 {
			hunk.OldStart = precedingOldLine(lines, sp.from)
		}
		if hunk.NewLines == 0 {
			hunk.NewStart = precedingNewLine(lines, sp.from)
		}
		result.Hunks = append(result.Hunks, hunk)
	}

	return result
}

func precedingOldLine(lines []Line, from int) int {
	for i := from - 1; i >= 0; i-- {
		if lines[i].OldLine != nil {
			return *lines[i].OldLine
		}
	}
	return 0
}

func precedingNewLine(lines []Line, from int) int {
	for i := from - 1; i >= 0; i-- {
		if lines[i].NewLine != nil {
			return *lines[i].NewLine
		}
	}
	return 0
}

// splitLines splits diff operation text into lines, dropping the empty
// trailing element produced by a terminal newline.
func splitLines(text string) []string {
	if text == "" {
		return nil
	}
	lines := strings.Split(text, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}
