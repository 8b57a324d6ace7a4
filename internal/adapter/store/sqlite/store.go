package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/bkyoung/inline-reviews/internal/store"
)

// Store implements the store.Store interface using SQLite.
type Store struct {
	db *sql.DB
}

// NewStore creates a new SQLite store at the given path.
// Use ":memory:" for in-memory database (useful for testing).
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	s := &Store{db: db}

	if err := s.createSchema(); err != nil {
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return s, nil
}

// createSchema creates all tables and indexes if they don't exist.
func (s *Store) createSchema() error {
	schema := `
	-- One row per reconciliation pass over a pull request
	CREATE TABLE IF NOT EXISTS runs (
		run_id TEXT PRIMARY KEY,
		repository TEXT NOT NULL,
		pr_number INTEGER NOT NULL,
		head_sha TEXT NOT NULL,
		created_at INTEGER NOT NULL
	);

	-- Resolved thread positions captured during a run
	CREATE TABLE IF NOT EXISTS thread_positions (
		position_id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL,
		path TEXT NOT NULL,
		original_commit TEXT NOT NULL,
		original_position INTEGER NOT NULL,
		line_number INTEGER NOT NULL,
		stale INTEGER DEFAULT 0,
		FOREIGN KEY (run_id) REFERENCES runs(run_id) ON DELETE CASCADE
	);

	-- Indexes for performance
	CREATE INDEX IF NOT EXISTS idx_runs_pr ON runs(repository, pr_number, created_at DESC);
	CREATE INDEX IF NOT EXISTS idx_positions_run ON thread_positions(run_id);
	`

	_, err := s.db.Exec(schema)
	return err
}

// SaveRun stores a run and its thread positions in a single transaction.
func (s *Store) SaveRun(ctx context.Context, run store.Run) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO runs (run_id, repository, pr_number, head_sha, created_at)
		VALUES (?, ?, ?, ?, ?)
	`,
		run.RunID,
		run.Repository,
		run.PRNumber,
		run.HeadSha,
		run.CreatedAt.Unix(),
	); err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO thread_positions (run_id, path, original_commit, original_position, line_number, stale)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, position := range run.Positions {
		stale := 0
		if position.Stale {
			stale = 1
		}

		if _, err := stmt.ExecContext(ctx,
			run.RunID,
			position.Path,
			position.OriginalCommitID,
			position.OriginalPosition,
			position.LineNumber,
			stale,
		); err != nil {
			return fmt.Errorf("failed to insert thread position: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// LatestRun retrieves the most recent run for a pull request, positions
// included.
func (s *Store) LatestRun(ctx context.Context, repository string, prNumber int) (store.Run, error) {
	query := `
		SELECT run_id, repository, pr_number, head_sha, created_at
		FROM runs
		WHERE repository = ? AND pr_number = ?
		ORDER BY created_at DESC, rowid DESC
		LIMIT 1
	`

	var run store.Run
	var createdAt int64

	err := s.db.QueryRowContext(ctx, query, repository, prNumber).Scan(
		&run.RunID,
		&run.Repository,
		&run.PRNumber,
		&run.HeadSha,
		&createdAt,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return store.Run{}, fmt.Errorf("latest run for %s#%d: %w", repository, prNumber, store.ErrNotFound)
		}
		return store.Run{}, fmt.Errorf("failed to get latest run: %w", err)
	}

	run.CreatedAt = time.Unix(createdAt, 0)

	positions, err := s.loadPositions(ctx, run.RunID)
	if err != nil {
		return store.Run{}, err
	}
	run.Positions = positions

	return run, nil
}

// ListRuns retrieves the most recent runs for a pull request, newest first,
// limited by the given count. Positions are not loaded.
func (s *Store) ListRuns(ctx context.Context, repository string, prNumber, limit int) ([]store.Run, error) {
	query := `
		SELECT run_id, repository, pr_number, head_sha, created_at
		FROM runs
		WHERE repository = ? AND pr_number = ?
		ORDER BY created_at DESC, rowid DESC
		LIMIT ?
	`

	rows, err := s.db.QueryContext(ctx, query, repository, prNumber, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []store.Run
	for rows.Next() {
		var run store.Run
		var createdAt int64

		if err := rows.Scan(
			&run.RunID,
			&run.Repository,
			&run.PRNumber,
			&run.HeadSha,
			&createdAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}

		run.CreatedAt = time.Unix(createdAt, 0)
		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating runs: %w", err)
	}

	return runs, nil
}

// loadPositions retrieves the thread positions for a run in insertion order.
func (s *Store) loadPositions(ctx context.Context, runID string) ([]store.ThreadPosition, error) {
	query := `
		SELECT path, original_commit, original_position, line_number, stale
		FROM thread_positions
		WHERE run_id = ?
		ORDER BY position_id ASC
	`

	rows, err := s.db.QueryContext(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to get thread positions: %w", err)
	}
	defer rows.Close()

	var positions []store.ThreadPosition
	for rows.Next() {
		var position store.ThreadPosition
		var stale int

		if err := rows.Scan(
			&position.Path,
			&position.OriginalCommitID,
			&position.OriginalPosition,
			&position.LineNumber,
			&stale,
		); err != nil {
			return nil, fmt.Errorf("failed to scan thread position: %w", err)
		}

		position.Stale = stale == 1
		positions = append(positions, position)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating thread positions: %w", err)
	}

	return positions, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}
