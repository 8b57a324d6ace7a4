package cli

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/bkyoung/inline-reviews/internal/store"
)

func statusCommand(deps Dependencies) *cobra.Command {
	var flags snapshotFlags
	var asJSON bool
	var outputDir string

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Resolve and print current thread positions",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			sess, err := loadSession(ctx, deps, flags, nil)
			if err != nil {
				return err
			}
			files, err := sess.GetAllFiles(ctx)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			colored := !asJSON && isTerminal(os.Stdout.Fd())

			if asJSON {
				if err := renderJSON(out, sess, files); err != nil {
					return err
				}
			} else {
				renderStatus(out, sess, files, colored)
			}

			if deps.Historian != nil {
				previous, err := deps.Historian.Previous(ctx, sess)
				havePrevious := err == nil
				if err != nil && !errors.Is(err, store.ErrNotFound) {
					return fmt.Errorf("load previous run: %w", err)
				}
				current, err := deps.Historian.Record(ctx, sess, files, time.Now().UTC())
				if err != nil {
					return fmt.Errorf("record run: %w", err)
				}
				if havePrevious && !asJSON {
					renderDrift(out, previous, current, colored)
				}
			}

			if deps.Reports != nil {
				path, err := deps.Reports.Write(ctx, buildReport(outputDir, sess, files))
				if err != nil {
					return fmt.Errorf("write report: %w", err)
				}
				target := out
				if asJSON {
					// Keep the JSON payload on stdout parseable.
					target = cmd.ErrOrStderr()
				}
				_, _ = fmt.Fprintf(target, "report: %s\n", path)
			}
			return nil
		},
	}

	flags.register(cmd, deps)
	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit machine readable output")
	outputDefault := deps.DefaultOutput
	if outputDefault == "" {
		outputDefault = "out"
	}
	cmd.Flags().StringVar(&outputDir, "output", outputDefault, "Directory to write the position report")
	return cmd
}
