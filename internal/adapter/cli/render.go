package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/bkyoung/inline-reviews/internal/adapter/output/json"
	"github.com/bkyoung/inline-reviews/internal/adapter/output/markdown"
	"github.com/bkyoung/inline-reviews/internal/store"
	"github.com/bkyoung/inline-reviews/internal/usecase/session"
)

// renderStatus prints the resolved positions for every tracked file.
func renderStatus(w io.Writer, sess *session.Session, files []*session.File, colored bool) {
	pr := sess.PullRequest()
	_, _ = fmt.Fprintf(w, "PR #%d %s\n", pr.Number, pr.Title)
	_, _ = fmt.Fprintf(w, "head %s, %d tracked file(s)\n", pr.HeadSha, len(files))
	for _, file := range files {
		_, _ = fmt.Fprintln(w)
		renderFile(w, file, colored)
	}
}

// renderFile prints one file's threads in the compact list form.
func renderFile(w io.Writer, file *session.File, colored bool) {
	_, _ = fmt.Fprintf(w, "%s (%s)\n", file.RelativePath(), commitLabel(file.CommitSha()))
	threads := file.Threads()
	if len(threads) == 0 {
		_, _ = fmt.Fprintln(w, "  no comment threads")
		return
	}
	for _, thread := range threads {
		_, _ = fmt.Fprintf(w, "  %s  %s@%d  %d comment(s)%s\n",
			lineCell(thread, colored), thread.OriginalCommitID, thread.OriginalPosition,
			len(thread.Comments), staleSuffix(thread.IsStale, colored))
	}
}

func commitLabel(sha string) string {
	if sha == "" {
		return "local edits"
	}
	return "commit " + sha
}

func lineCell(thread session.Thread, colored bool) string {
	if thread.LineNumber == -1 {
		return paint(ansiRed, "lost", colored)
	}
	return fmt.Sprintf("line %d", thread.LineNumber)
}

func staleSuffix(stale, colored bool) string {
	if !stale {
		return ""
	}
	return "  " + paint(ansiYellow, "[stale]", colored)
}

// renderJSON emits the machine readable form of the resolved positions.
func renderJSON(w io.Writer, sess *session.Session, files []*session.File) error {
	pr := sess.PullRequest()
	snapshot := json.Snapshot{
		Repository: sess.Repository().FullName(),
		PRNumber:   pr.Number,
		Title:      pr.Title,
		HeadSha:    pr.HeadSha,
		CheckedOut: sess.CheckedOut(),
		Files:      make([]json.File, 0, len(files)),
	}
	for _, file := range files {
		entry := json.File{
			Path:      file.RelativePath(),
			BaseSha:   file.BaseSha(),
			CommitSha: file.CommitSha(),
			Threads:   []json.Thread{},
		}
		for _, thread := range file.Threads() {
			entry.Threads = append(entry.Threads, json.Thread{
				OriginalCommitID: thread.OriginalCommitID,
				OriginalPosition: thread.OriginalPosition,
				Line:             thread.LineNumber,
				Stale:            thread.IsStale,
				Comments:         len(thread.Comments),
			})
		}
		snapshot.Files = append(snapshot.Files, entry)
	}
	return json.Write(w, snapshot)
}

// renderDrift prints how positions changed since the previous recorded run.
func renderDrift(w io.Writer, previous, current store.Run, colored bool) {
	deltas := store.Drift(previous, current)
	since := previous.CreatedAt.UTC().Format(time.RFC3339)
	if len(deltas) == 0 {
		_, _ = fmt.Fprintf(w, "\nno drift since %s\n", since)
		return
	}
	_, _ = fmt.Fprintf(w, "\ndrift since %s:\n", since)
	for _, delta := range deltas {
		switch {
		case delta.Lost():
			_, _ = fmt.Fprintf(w, "  %s: %s, was line %d\n", delta.Key, paint(ansiRed, "anchor lost", colored), delta.PreviousLine)
		case delta.PreviousLine == -1 && delta.CurrentLine != -1:
			_, _ = fmt.Fprintf(w, "  %s: anchor restored at line %d%s\n", delta.Key, delta.CurrentLine, staleDelta(delta, colored))
		case delta.Moved():
			_, _ = fmt.Fprintf(w, "  %s: line %d -> %d%s\n", delta.Key, delta.PreviousLine, delta.CurrentLine, staleDelta(delta, colored))
		default:
			_, _ = fmt.Fprintf(w, "  %s: line %d%s\n", delta.Key, delta.CurrentLine, staleDelta(delta, colored))
		}
	}
}

func staleDelta(delta store.Delta, colored bool) string {
	switch {
	case delta.IsStale && !delta.WasStale:
		return "  " + paint(ansiYellow, "[stale]", colored)
	case !delta.IsStale && delta.WasStale:
		return "  [stale cleared]"
	default:
		return ""
	}
}

// buildReport collects the report input the markdown writer renders.
func buildReport(outputDir string, sess *session.Session, files []*session.File) markdown.Report {
	pr := sess.PullRequest()
	report := markdown.Report{
		OutputDir:  outputDir,
		Repository: sess.Repository().FullName(),
		PRNumber:   pr.Number,
		Title:      pr.Title,
		HeadSha:    pr.HeadSha,
		Files:      make([]markdown.FileReport, 0, len(files)),
	}
	for _, file := range files {
		report.Files = append(report.Files, markdown.FileReport{
			Path:      file.RelativePath(),
			BaseSha:   file.BaseSha(),
			CommitSha: file.CommitSha(),
			Threads:   file.Threads(),
		})
	}
	return report
}
