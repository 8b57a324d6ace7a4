package cli

import "golang.org/x/term"

const (
	ansiRed    = "\033[31m"
	ansiYellow = "\033[33m"
	ansiReset  = "\033[0m"
)

// isTerminal reports whether the file descriptor is attached to a
// terminal, so pipes and CI logs receive plain output.
func isTerminal(fd uintptr) bool {
	return term.IsTerminal(int(fd))
}

// paint wraps s in the ANSI color code when color output is enabled.
func paint(code, s string, enabled bool) string {
	if !enabled {
		return s
	}
	return code + s + ansiReset
}
