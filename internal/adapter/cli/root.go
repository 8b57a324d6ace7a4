package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/bkyoung/inline-reviews/internal/adapter/output/markdown"
	"github.com/bkyoung/inline-reviews/internal/domain"
	"github.com/bkyoung/inline-reviews/internal/store"
	"github.com/bkyoung/inline-reviews/internal/usecase/session"
)

// ErrVersionRequested indicates the user requested the CLI version and no further work should be done.
var ErrVersionRequested = errors.New("version requested")

// SnapshotFetcher loads a pull request snapshot from the hosting service.
type SnapshotFetcher interface {
	GetPullRequest(ctx context.Context, owner, repo string, number int) (*domain.PullRequest, error)
}

// GitService is the git surface the commands need: the session's port
// plus branch detection for the checked-out test.
type GitService interface {
	session.GitService
	CurrentBranch(ctx context.Context) (string, error)
}

// Historian records reconciliation runs and reports earlier ones. A nil
// Historian disables run history.
type Historian interface {
	Previous(ctx context.Context, sess *session.Session) (store.Run, error)
	Record(ctx context.Context, sess *session.Session, files []*session.File, at time.Time) (store.Run, error)
	List(ctx context.Context, repository string, prNumber, limit int) ([]store.Run, error)
}

// Watcher follows working tree edits for a session's tracked files.
type Watcher interface {
	WatchFiles(root string, relativePaths []string) error
	Run(ctx context.Context)
	Close() error
}

// WatcherFactory builds a watcher bound to one session.
type WatcherFactory func(sess *session.Session, debounce time.Duration) (Watcher, error)

// ReportWriter persists a position report and returns its path.
type ReportWriter interface {
	Write(ctx context.Context, report markdown.Report) (string, error)
}

// Arguments encapsulates IO writers injected from the host process.
type Arguments struct {
	OutWriter io.Writer
	ErrWriter io.Writer
}

// Dependencies captures the collaborators for the CLI.
type Dependencies struct {
	Fetcher      SnapshotFetcher
	LoadSnapshot func(path string) (*domain.PullRequest, error)
	Git          GitService
	Logger       session.Logger
	Historian    Historian
	NewWatcher   WatcherFactory
	Reports      ReportWriter
	Args         Arguments

	DefaultOwner    string
	DefaultRepo     string
	DefaultUser     string
	DefaultOutput   string
	DefaultDebounce time.Duration
	RepositoryDir   string
	Version         string
}

// NewRootCommand constructs the root Cobra command.
func NewRootCommand(deps Dependencies) *cobra.Command {
	versionString := deps.Version
	if versionString == "" {
		versionString = "v0.0.0"
	}

	root := &cobra.Command{
		Use:   "ir",
		Short: "Track inline review comment positions across local edits",
	}
	root.SilenceUsage = true
	root.SilenceErrors = true

	outWriter := deps.Args.OutWriter
	if outWriter == nil {
		outWriter = os.Stdout
	}
	errWriter := deps.Args.ErrWriter
	if errWriter == nil {
		errWriter = os.Stderr
	}
	root.SetOut(outWriter)
	root.SetErr(errWriter)

	root.AddCommand(statusCommand(deps))
	root.AddCommand(watchCommand(deps))
	root.AddCommand(threadsCommand(deps))
	root.AddCommand(runsCommand(deps))
	root.AddCommand(versionCommand(versionString))

	var showVersion bool
	root.PersistentFlags().BoolVarP(&showVersion, "version", "v", false, "Show version and exit")
	versionHandler := func(cmd *cobra.Command, args []string) error {
		if showVersion {
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), versionString)
			return ErrVersionRequested
		}
		return nil
	}
	root.PersistentPreRunE = versionHandler
	root.PreRunE = versionHandler
	root.RunE = func(cmd *cobra.Command, args []string) error {
		if err := versionHandler(cmd, args); err != nil {
			return err
		}
		return cmd.Help()
	}

	return root
}

func versionCommand(version string) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the ir version",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), version)
			return nil
		},
	}
}
