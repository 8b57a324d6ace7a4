package diff

// Match scans the diff for a contiguous run of lines equal, by content
// and change-type, to the target fingerprint and returns the line
// corresponding to the fingerprint's last line, or nil when the
// fingerprint appears nowhere.
//
// The target is reverse-ordered as captured at comment time: target[0]
// is the final line of the anchored run, target[1] the line before it,
// and so on. Runs never span hunk boundaries. When duplicated context
// makes several runs match, the first in diff order wins.
func Match(d ParsedDiff, target []Line) *Line {
	if len(target) == 0 {
		return nil
	}

	for _, hunk := range d.Hunks {
		for i := len(target) - 1; i < len(hunk.Lines); i++ {
			if runEndsAt(hunk.Lines, i, target) {
				line := hunk.Lines[i]
				return &line
			}
		}
	}

	return nil
}

// MatchLineNumber resolves a fingerprint to an externally reported line
// number. A matched deletion reports its old line number minus one (the
// line before it, since the deleted line no longer exists in current
// content); any other match reports its new line number minus one.
// Returns -1 when the fingerprint does not match.
func MatchLineNumber(d ParsedDiff, target []Line) int {
	line := Match(d, target)
	if line == nil {
		return -1
	}

	if line.Type == LineDeletion {
		if line.OldLine == nil {
			return -1
		}
		return *line.OldLine - 1
	}

	if line.NewLine == nil {
		return -1
	}
	return *line.NewLine - 1
}

// TrailingLines returns up to n trailing lines of the final hunk in
// reverse order, the shape Match expects as a fingerprint. An empty
// diff yields nil.
func TrailingLines(d ParsedDiff, n int) []Line {
	if len(d.Hunks) == 0 || n <= 0 {
		return nil
	}

	lines := d.Hunks[len(d.Hunks)-1].Lines
	if len(lines) == 0 {
		return nil
	}

	count := min(n, len(lines))
	target := make([]Line, 0, count)
	for i := len(lines) - 1; i >= len(lines)-count; i-- {
		target = append(target, lines[i])
	}
	return target
}

// runEndsAt reports whether the run ending at lines[end] equals the
// reverse-ordered target.
func runEndsAt(lines []Line, end int, target []Line) bool {
	for k := range target {
		got := lines[end-k]
		if got.Type != target[k].Type || got.Content != target[k].Content {
			return false
		}
	}
	return true
}
