// Package markdown renders session thread positions into report files.
package markdown

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/bkyoung/inline-reviews/internal/usecase/session"
)

type clock func() string

// Writer renders resolved thread positions into Markdown files.
type Writer struct {
	now clock
}

// NewWriter constructs a Markdown writer with a timestamp supplier.
func NewWriter(now clock) *Writer {
	return &Writer{now: now}
}

// Report carries everything the position summary renders.
type Report struct {
	OutputDir  string
	Repository string
	PRNumber   int
	Title      string
	HeadSha    string
	Files      []FileReport
}

// FileReport is one tracked file's resolved state.
type FileReport struct {
	Path      string
	BaseSha   string
	CommitSha string
	Threads   []session.Thread
}

// Write persists the position report to disk and returns its path.
// The filename is stable per pull request, so successive runs overwrite.
func (w *Writer) Write(ctx context.Context, report Report) (string, error) {
	if err := os.MkdirAll(report.OutputDir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}

	filename := fmt.Sprintf("ir-pr-%d-positions.md", report.PRNumber)
	path := filepath.Join(report.OutputDir, filename)

	content := w.buildContent(report)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("write markdown: %w", err)
	}

	return path, nil
}

func (w *Writer) buildContent(report Report) string {
	var builder strings.Builder
	caser := cases.Title(language.English)

	builder.WriteString("# Inline Review Positions\n\n")
	builder.WriteString(fmt.Sprintf("- Repository: %s\n", report.Repository))
	builder.WriteString(fmt.Sprintf("- Pull Request: #%d %s\n", report.PRNumber, report.Title))
	builder.WriteString(fmt.Sprintf("- Head: %s\n", report.HeadSha))
	builder.WriteString(fmt.Sprintf("- Generated: %s\n\n", w.now()))

	if len(report.Files) == 0 {
		builder.WriteString("No tracked files.\n")
		return builder.String()
	}

	for _, file := range report.Files {
		builder.WriteString(fmt.Sprintf("## %s\n\n", file.Path))
		builder.WriteString(fmt.Sprintf("- Base: %s\n", file.BaseSha))
		builder.WriteString(fmt.Sprintf("- Commit: %s\n\n", commitLabel(file.CommitSha)))

		if len(file.Threads) == 0 {
			builder.WriteString("No comment threads.\n\n")
			continue
		}

		for _, thread := range file.Threads {
			builder.WriteString(fmt.Sprintf("### %s (%s)\n", threadTitle(thread), caser.String(threadStatus(thread))))
			builder.WriteString(fmt.Sprintf("- Line: %s\n", lineLabel(thread.LineNumber)))
			builder.WriteString(fmt.Sprintf("- Anchor: %s at position %d\n", thread.OriginalCommitID, thread.OriginalPosition))
			builder.WriteString(fmt.Sprintf("- Comments: %d\n", len(thread.Comments)))
			builder.WriteString("\n")
		}
	}

	return builder.String()
}

// threadStatus classifies a thread for the report heading.
func threadStatus(thread session.Thread) string {
	switch {
	case thread.IsStale:
		return "stale"
	case thread.LineNumber == -1:
		return "unmatched"
	default:
		return "anchored"
	}
}

// threadTitle derives a heading from the thread's first comment.
func threadTitle(thread session.Thread) string {
	if len(thread.Comments) == 0 {
		return "Thread"
	}
	body := thread.Comments[0].Body
	if i := strings.IndexByte(body, '\n'); i >= 0 {
		body = body[:i]
	}
	body = strings.TrimSpace(body)
	if body == "" {
		return "Thread"
	}
	runes := []rune(body)
	if len(runes) > 60 {
		return string(runes[:60]) + "..."
	}
	return body
}

func commitLabel(sha string) string {
	if sha == "" {
		return "local edits"
	}
	return sha
}

func lineLabel(line int) string {
	if line == -1 {
		return "not located in current diff"
	}
	return fmt.Sprintf("%d", line)
}
