package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/bkyoung/inline-reviews/internal/domain"
)

func runsCommand(deps Dependencies) *cobra.Command {
	var owner string
	var repo string
	var prNumber int
	var limit int

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List recorded reconciliation runs for a pull request",
		RunE: func(cmd *cobra.Command, args []string) error {
			if deps.Historian == nil {
				return fmt.Errorf("run history is disabled; enable store in the configuration")
			}
			if owner == "" || repo == "" {
				return fmt.Errorf("repository not specified; pass --owner and --repo or set github.owner and github.repo in the configuration")
			}
			if prNumber <= 0 {
				return fmt.Errorf("--pr must be a positive integer")
			}

			repository := domain.Repository{Owner: owner, Name: repo}.FullName()
			runs, err := deps.Historian.List(cmd.Context(), repository, prNumber, limit)
			if err != nil {
				return fmt.Errorf("list runs: %w", err)
			}

			out := cmd.OutOrStdout()
			if len(runs) == 0 {
				_, _ = fmt.Fprintln(out, "no recorded runs")
				return nil
			}
			for _, run := range runs {
				_, _ = fmt.Fprintf(out, "%s  %s  head %s\n",
					run.CreatedAt.UTC().Format(time.RFC3339), shortRunID(run.RunID), run.HeadSha)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&owner, "owner", deps.DefaultOwner, "Repository owner")
	cmd.Flags().StringVar(&repo, "repo", deps.DefaultRepo, "Repository name")
	cmd.Flags().IntVar(&prNumber, "pr", 0, "Pull request number")
	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of runs to list")
	return cmd
}

// shortRunID abbreviates a run identifier for list output.
func shortRunID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
