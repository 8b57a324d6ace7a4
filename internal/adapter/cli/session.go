package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bkyoung/inline-reviews/internal/domain"
	"github.com/bkyoung/inline-reviews/internal/usecase/session"
)

// snapshotFlags select the pull request and checkout a command works on.
type snapshotFlags struct {
	owner    string
	repo     string
	prNumber int
	snapshot string
	user     string
}

func (f *snapshotFlags) register(cmd *cobra.Command, deps Dependencies) {
	cmd.Flags().StringVar(&f.owner, "owner", deps.DefaultOwner, "Repository owner")
	cmd.Flags().StringVar(&f.repo, "repo", deps.DefaultRepo, "Repository name")
	cmd.Flags().IntVar(&f.prNumber, "pr", 0, "Pull request number")
	cmd.Flags().StringVar(&f.snapshot, "snapshot", "", "Read the pull request snapshot from a JSON file instead of the API")
	cmd.Flags().StringVar(&f.user, "user", deps.DefaultUser, "Login recorded as the reviewing user")
}

// fetchSnapshot loads the pull request from the snapshot file when one is
// given, otherwise from the API.
func fetchSnapshot(ctx context.Context, deps Dependencies, flags snapshotFlags) (*domain.PullRequest, error) {
	if flags.snapshot != "" {
		return deps.LoadSnapshot(flags.snapshot)
	}
	if flags.owner == "" || flags.repo == "" {
		return nil, fmt.Errorf("repository not specified; pass --owner and --repo or set github.owner and github.repo in the configuration")
	}
	if flags.prNumber <= 0 {
		return nil, fmt.Errorf("--pr must be a positive integer")
	}
	return deps.Fetcher.GetPullRequest(ctx, flags.owner, flags.repo, flags.prNumber)
}

// loadSession builds a reconciled session for the selected pull request.
// The checked-out flag compares the local branch against the pull request
// head; a failed branch lookup counts as detached.
func loadSession(ctx context.Context, deps Dependencies, flags snapshotFlags, onReconciled func(*session.File, session.UpdateReason)) (*session.Session, error) {
	pr, err := fetchSnapshot(ctx, deps, flags)
	if err != nil {
		return nil, err
	}

	checkedOut := false
	if branch, err := deps.Git.CurrentBranch(ctx); err != nil {
		if deps.Logger != nil {
			deps.Logger.LogWarning(ctx, "Branch detection failed; treating the checkout as detached", map[string]interface{}{
				"error": err.Error(),
			})
		}
	} else {
		checkedOut = branch == pr.HeadRefName
	}

	repo := domain.Repository{Owner: flags.owner, Name: flags.repo, LocalPath: deps.RepositoryDir}
	return session.NewSession(flags.user, pr, repo, checkedOut, session.Deps{
		Git:              deps.Git,
		Logger:           deps.Logger,
		OnFileReconciled: onReconciled,
	})
}
