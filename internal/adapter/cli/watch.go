package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/bkyoung/inline-reviews/internal/usecase/session"
)

func watchCommand(deps Dependencies) *cobra.Command {
	var flags snapshotFlags
	var debounce time.Duration

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Re-resolve thread positions as the working tree changes",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()
			colored := isTerminal(os.Stdout.Fd())

			onReconciled := func(file *session.File, reason session.UpdateReason) {
				if reason != session.UpdateReasonEditorContent && reason != session.UpdateReasonSourceChange {
					return
				}
				_, _ = fmt.Fprintln(out)
				renderFile(out, file, colored)
			}

			sess, err := loadSession(ctx, deps, flags, onReconciled)
			if err != nil {
				return err
			}
			files, err := sess.GetAllFiles(ctx)
			if err != nil {
				return err
			}
			renderStatus(out, sess, files, colored)

			if !sess.CheckedOut() {
				_, _ = fmt.Fprintln(cmd.ErrOrStderr(), "warning: pull request branch is not checked out; edits cannot move resolved positions")
			}

			watcher, err := deps.NewWatcher(sess, debounce)
			if err != nil {
				return fmt.Errorf("start watcher: %w", err)
			}
			defer func() { _ = watcher.Close() }()

			if err := watcher.WatchFiles(sess.Repository().LocalPath, sess.PullRequest().ChangedFiles); err != nil {
				return fmt.Errorf("watch files: %w", err)
			}

			_, _ = fmt.Fprintln(out, "\nwatching for edits, interrupt to stop")
			watcher.Run(ctx)
			return nil
		},
	}

	flags.register(cmd, deps)
	defaultDebounce := deps.DefaultDebounce
	if defaultDebounce <= 0 {
		defaultDebounce = 300 * time.Millisecond
	}
	cmd.Flags().DurationVar(&debounce, "debounce", defaultDebounce, "Delay before re-resolving after an edit")
	return cmd
}
