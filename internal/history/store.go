package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// timeLayout is fixed width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// ErrRunNotFound reports a lookup for an unknown run ID.
var ErrRunNotFound = errors.New("run not found")

// Failure is one file that could not be cataloged during a run.
type Failure struct {
	Path  string
	Stage string
	Cause string
}

// Run is the ledger entry for one pipeline run.
type Run struct {
	ID             string
	StartedAt      time.Time
	FinishedAt     time.Time
	State          string
	Resume         bool
	Interrupted    bool
	Roots          []string
	Found          int
	SkippedDone    int
	SkippedInvalid int
	Duplicates     int
	Processed      int
	Failed         int
	Snapshots      int
	ByCategory     map[string]int
	Error          string
	Failures       []Failure
}

// Elapsed is the wall time of the run.
func (r Run) Elapsed() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// Store persists run history in SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open creates or opens the ledger at path and applies migrations.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create history directory: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: path}
	if _, err := store.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Record stores a finished run and its failures in one transaction.
func (s *Store) Record(ctx context.Context, run Run) error {
	roots, err := json.Marshal(nonNilStrings(run.Roots))
	if err != nil {
		return fmt.Errorf("encode roots: %w", err)
	}
	categories := run.ByCategory
	if categories == nil {
		categories = map[string]int{}
	}
	catJSON, err := json.Marshal(categories)
	if err != nil {
		return fmt.Errorf("encode categories: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin record tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (
            id, started_at, finished_at, state, resume, interrupted, roots_json,
            found, skipped_done, skipped_invalid, duplicates, processed, failed,
            snapshots, categories_json, error_message
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID,
		run.StartedAt.UTC().Format(timeLayout),
		run.FinishedAt.UTC().Format(timeLayout),
		run.State,
		run.Resume,
		run.Interrupted,
		string(roots),
		run.Found,
		run.SkippedDone,
		run.SkippedInvalid,
		run.Duplicates,
		run.Processed,
		run.Failed,
		run.Snapshots,
		string(catJSON),
		nullableString(run.Error),
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	for _, f := range run.Failures {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO run_failures (run_id, path, stage, cause) VALUES (?, ?, ?, ?)",
			run.ID, f.Path, f.Stage, f.Cause,
		); err != nil {
			return fmt.Errorf("insert failure: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit run: %w", err)
	}
	return nil
}

const runColumns = `id, started_at, finished_at, state, resume, interrupted, roots_json,
    found, skipped_done, skipped_invalid, duplicates, processed, failed,
    snapshots, categories_json, error_message`

// List returns the most recent runs first. limit <= 0 returns all runs.
func (s *Store) List(ctx context.Context, limit int) ([]Run, error) {
	query := "SELECT " + runColumns + " FROM runs ORDER BY started_at DESC"
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// Get returns one run with its failures.
func (s *Store) Get(ctx context.Context, id string) (Run, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+runColumns+" FROM runs WHERE id = ?", id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	if err != nil {
		return Run{}, err
	}
	run.Failures, err = s.Failures(ctx, id)
	return run, err
}

// Failures returns the failed files of a run in the order they were recorded.
func (s *Store) Failures(ctx context.Context, runID string) ([]Failure, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT path, stage, cause FROM run_failures WHERE run_id = ? ORDER BY id", runID)
	if err != nil {
		return nil, fmt.Errorf("query failures: %w", err)
	}
	defer rows.Close()

	var out []Failure
	for rows.Next() {
		var f Failure
		if err := rows.Scan(&f.Path, &f.Stage, &f.Cause); err != nil {
			return nil, fmt.Errorf("scan failure: %w", err)
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (Run, error) {
	var (
		run                 Run
		started, finished   string
		rootsJSON, catJSON  string
		errorMessage        sql.NullString
		resume, interrupted bool
	)
	err := row.Scan(
		&run.ID, &started, &finished, &run.State, &resume, &interrupted, &rootsJSON,
		&run.Found, &run.SkippedDone, &run.SkippedInvalid, &run.Duplicates,
		&run.Processed, &run.Failed, &run.Snapshots, &catJSON, &errorMessage,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Run{}, err
		}
		return Run{}, fmt.Errorf("scan run: %w", err)
	}
	run.Resume, run.Interrupted = resume, interrupted
	run.Error = errorMessage.String
	if run.StartedAt, err = time.Parse(timeLayout, started); err != nil {
		return Run{}, fmt.Errorf("parse started_at: %w", err)
	}
	if run.FinishedAt, err = time.Parse(timeLayout, finished); err != nil {
		return Run{}, fmt.Errorf("parse finished_at: %w", err)
	}
	if err := json.Unmarshal([]byte(rootsJSON), &run.Roots); err != nil {
		return Run{}, fmt.Errorf("decode roots: %w", err)
	}
	if err := json.Unmarshal([]byte(catJSON), &run.ByCategory); err != nil {
		return Run{}, fmt.Errorf("decode categories: %w", err)
	}
	return run, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func nonNilStrings(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
