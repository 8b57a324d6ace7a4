package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/bkyoung/inline-reviews/internal/usecase/session"
)

func threadsCommand(deps Dependencies) *cobra.Command {
	var flags snapshotFlags

	cmd := &cobra.Command{
		Use:   "threads <path>",
		Short: "Show the comment threads anchored in one file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			sess, err := loadSession(ctx, deps, flags, nil)
			if err != nil {
				return err
			}
			file, err := sess.GetFile(ctx, args[0], nil)
			if err != nil {
				return err
			}
			renderThreads(cmd.OutOrStdout(), file, isTerminal(os.Stdout.Fd()))
			return nil
		},
	}

	flags.register(cmd, deps)
	return cmd
}

// renderThreads prints one file's threads with their comment bodies.
func renderThreads(w io.Writer, file *session.File, colored bool) {
	_, _ = fmt.Fprintf(w, "%s (%s)\n", file.RelativePath(), commitLabel(file.CommitSha()))
	threads := file.Threads()
	if len(threads) == 0 {
		_, _ = fmt.Fprintln(w, "  no comment threads")
		return
	}
	for _, thread := range threads {
		_, _ = fmt.Fprintf(w, "\n%s  %s@%d%s\n",
			lineCell(thread, colored), thread.OriginalCommitID, thread.OriginalPosition,
			staleSuffix(thread.IsStale, colored))
		for _, comment := range thread.Comments {
			_, _ = fmt.Fprintf(w, "  %s: %s\n", comment.Author, firstLine(comment.Body))
		}
	}
}

// firstLine reduces a comment body to its first line for list output.
func firstLine(body string) string {
	if i := strings.IndexByte(body, '\n'); i >= 0 {
		body = body[:i]
	}
	return strings.TrimSpace(body)
}
