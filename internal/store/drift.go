package store

import "fmt"

// Key identifies a thread across runs by its immutable anchor.
// Format: <path>:<original commit>:<original position>
func (p ThreadPosition) Key() string {
	return fmt.Sprintf("%s:%s:%d", p.Path, p.OriginalCommitID, p.OriginalPosition)
}

// Delta reports a thread whose resolved position changed between two runs.
type Delta struct {
	Key          string
	Path         string
	PreviousLine int
	CurrentLine  int
	WasStale     bool
	IsStale      bool
}

// Moved reports whether the thread resolved to a different line.
func (d Delta) Moved() bool {
	return d.PreviousLine != d.CurrentLine
}

// Lost reports whether the thread's anchor disappeared in the current run.
func (d Delta) Lost() bool {
	return d.PreviousLine != -1 && d.CurrentLine == -1
}

// Drift lists threads whose resolved line or staleness changed between two
// runs, in the current run's position order. Threads present in only one of
// the runs are skipped.
func Drift(previous, current Run) []Delta {
	prior := make(map[string]ThreadPosition, len(previous.Positions))
	for _, p := range previous.Positions {
		prior[p.Key()] = p
	}

	var deltas []Delta
	for _, c := range current.Positions {
		p, ok := prior[c.Key()]
		if !ok {
			continue
		}
		if p.LineNumber == c.LineNumber && p.Stale == c.Stale {
			continue
		}
		deltas = append(deltas, Delta{
			Key:          c.Key(),
			Path:         c.Path,
			PreviousLine: p.LineNumber,
			CurrentLine:  c.LineNumber,
			WasStale:     p.Stale,
			IsStale:      c.Stale,
		})
	}
	return deltas
}
