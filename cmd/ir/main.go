package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/bkyoung/inline-reviews/internal/adapter/cli"
	"github.com/bkyoung/inline-reviews/internal/adapter/git"
	githubadapter "github.com/bkyoung/inline-reviews/internal/adapter/github"
	"github.com/bkyoung/inline-reviews/internal/adapter/observability"
	"github.com/bkyoung/inline-reviews/internal/adapter/output/markdown"
	storeadapter "github.com/bkyoung/inline-reviews/internal/adapter/store"
	"github.com/bkyoung/inline-reviews/internal/adapter/store/sqlite"
	"github.com/bkyoung/inline-reviews/internal/adapter/watch"
	"github.com/bkyoung/inline-reviews/internal/config"
	"github.com/bkyoung/inline-reviews/internal/usecase/session"
	"github.com/bkyoung/inline-reviews/internal/version"
)

const defaultDebounce = 300 * time.Millisecond

func main() {
	if err := run(); err != nil {
		log.Println(err)
		os.Exit(1)
	}
}

func run() error {
	// Cancellable context with signal handling for graceful shutdown.
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.LoadWithOptions(config.LoaderOptions{
		ConfigPaths: defaultConfigPaths(),
		FileName:    ".inline-reviews",
		EnvPrefix:   "IR",
	})
	if err != nil {
		return fmt.Errorf("config load failed: %w", err)
	}

	repoDir := cfg.Git.RepositoryDir
	if repoDir == "" {
		repoDir = "."
	}
	gitService := git.NewService(repoDir)

	client := githubadapter.NewClient(cfg.GitHub.Token)
	if cfg.GitHub.BaseURL != "" {
		client.SetBaseURL(cfg.GitHub.BaseURL)
	}
	applyHTTPConfig(client, cfg.HTTP)

	logger := buildLogger(cfg.Observability)

	var historian cli.Historian
	if cfg.Store.Enabled {
		storeDir := filepath.Dir(cfg.Store.Path)
		if err := os.MkdirAll(storeDir, 0o755); err != nil {
			log.Printf("warning: failed to create store directory: %v", err)
		} else {
			sqliteStore, err := sqlite.NewStore(cfg.Store.Path)
			if err != nil {
				log.Printf("warning: failed to initialize store: %v", err)
			} else {
				recorder := storeadapter.NewRecorder(sqliteStore)
				defer func() { _ = recorder.Close() }()
				historian = recorder
			}
		}
	}

	// Timestamp function for deterministic report headers.
	nowFunc := func() string {
		return time.Now().UTC().Format("20060102T150405Z")
	}

	root := cli.NewRootCommand(cli.Dependencies{
		Fetcher:      client,
		LoadSnapshot: githubadapter.LoadSnapshotFile,
		Git:          gitService,
		Logger:       logger,
		Historian:    historian,
		NewWatcher: func(sess *session.Session, debounce time.Duration) (cli.Watcher, error) {
			return watch.NewWatcher(sess, debounce, logger)
		},
		Reports:         markdown.NewWriter(nowFunc),
		DefaultOwner:    cfg.GitHub.Owner,
		DefaultRepo:     cfg.GitHub.Repo,
		DefaultUser:     cfg.GitHub.User,
		DefaultOutput:   cfg.Output.Directory,
		DefaultDebounce: parseDebounce(cfg.Watch.Debounce),
		RepositoryDir:   repoDir,
		Version:         version.Value(),
	})

	if err := root.ExecuteContext(ctx); err != nil {
		if errors.Is(err, cli.ErrVersionRequested) {
			return nil
		}
		return fmt.Errorf("command failed: %w", err)
	}
	return nil
}

func defaultConfigPaths() []string {
	paths := []string{"."}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "ir"))
	}
	return paths
}

// applyHTTPConfig copies the HTTP section onto the API client, keeping
// the client defaults for anything unset or unparseable.
func applyHTTPConfig(client *githubadapter.Client, cfg config.HTTPConfig) {
	if cfg.Timeout != "" {
		if d, err := time.ParseDuration(cfg.Timeout); err == nil && d > 0 {
			client.SetTimeout(d)
		} else {
			log.Printf("warning: invalid http timeout %q, using default", cfg.Timeout)
		}
	}
	if cfg.MaxRetries > 0 {
		client.SetMaxRetries(cfg.MaxRetries)
	}
	if cfg.InitialBackoff != "" {
		if d, err := time.ParseDuration(cfg.InitialBackoff); err == nil && d > 0 {
			client.SetInitialBackoff(d)
		} else {
			log.Printf("warning: invalid http initial backoff %q, using default", cfg.InitialBackoff)
		}
	}
	if cfg.MaxBackoff != "" {
		if d, err := time.ParseDuration(cfg.MaxBackoff); err == nil && d > 0 {
			client.SetMaxBackoff(d)
		} else {
			log.Printf("warning: invalid http max backoff %q, using default", cfg.MaxBackoff)
		}
	}
	if cfg.BackoffMultiplier > 0 {
		client.SetBackoffMultiplier(cfg.BackoffMultiplier)
	}
}

// buildLogger constructs the structured logger, or nil when logging is
// disabled so collaborators skip it entirely.
func buildLogger(cfg config.ObservabilityConfig) session.Logger {
	if !cfg.Logging.Enabled {
		return nil
	}
	level, err := observability.ParseLevel(cfg.Logging.Level)
	if err != nil {
		log.Printf("warning: %v, using info", err)
		level = observability.LogLevelInfo
	}
	format, err := observability.ParseFormat(cfg.Logging.Format)
	if err != nil {
		log.Printf("warning: %v, using human", err)
		format = observability.LogFormatHuman
	}
	return observability.NewLogger(level, format)
}

// parseDebounce reads the watch debounce interval from configuration.
func parseDebounce(raw string) time.Duration {
	if raw == "" {
		return defaultDebounce
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		log.Printf("warning: invalid watch debounce %q, using %s", raw, defaultDebounce)
		return defaultDebounce
	}
	return d
}

// Compile-time interface compliance checks
var _ cli.SnapshotFetcher = (*githubadapter.Client)(nil)
var _ cli.GitService = (*git.Service)(nil)
var _ session.GitService = (*git.Service)(nil)
var _ session.Logger = (*observability.Logger)(nil)
var _ cli.Historian = (*storeadapter.Recorder)(nil)
var _ cli.Watcher = (*watch.Watcher)(nil)
var _ cli.ReportWriter = (*markdown.Writer)(nil)
