// Package store keeps a history of tool runs in a SQLite database, so the
// provenance of a generated dataset (which directories, how many images,
// what was skipped) can be looked up later.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // SQLite driver
)

// FileName is the database file created inside the history directory.
const FileName = "history.db"

// Status values of a run.
const (
	StatusOK     = "ok"
	StatusFailed = "failed"
)

// Run is one invocation of a tool.
type Run struct {
	ID          string    `json:"id"`
	Tool        string    `json:"tool"`
	StartedAt   time.Time `json:"started_at"`
	FinishedAt  time.Time `json:"finished_at"`
	Input       string    `json:"input"`
	Output      string    `json:"output"`
	Images      int       `json:"images"`
	Annotations int       `json:"annotations"`
	Skipped     int       `json:"skipped"`
	Status      string    `json:"status"`
	Message     string    `json:"message,omitempty"`
}

// Finish sets the end time and status from err.
func (r *Run) Finish(err error) {
	r.FinishedAt = time.Now()
	if err != nil {
		r.Status = StatusFailed
		r.Message = err.Error()
		return
	}
	r.Status = StatusOK
}

// Store is an open history database.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens or creates the history database in dir.
func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create history directory: %w", err)
	}
	path := filepath.Join(dir, FileName)

	db, err := sql.Open("sqlite", path+"?mode=rwc")
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}
	db.SetMaxOpenConns(1)

	s := &Store{db: db, path: path}
	if err := s.createTables(context.Background()); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}
	return s, nil
}

// Path returns the database file path.
func (s *Store) Path() string { return s.path }

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createTables(ctx context.Context) error {
	const schema = `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		tool TEXT NOT NULL,
		started_at TEXT NOT NULL,
		finished_at TEXT NOT NULL,
		input TEXT,
		output TEXT,
		images INTEGER DEFAULT 0,
		annotations INTEGER DEFAULT 0,
		skipped INTEGER DEFAULT 0,
		status TEXT NOT NULL,
		message TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at);
	`
	_, err := s.db.ExecContext(ctx, schema)
	return err
}

// Record stores r, assigning an ID when it has none, and returns the ID.
func (s *Store) Record(ctx context.Context, r Run) (string, error) {
	if r.Tool == "" {
		return "", errors.New("run has no tool name")
	}
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.Status == "" {
		r.Status = StatusOK
	}
	if r.FinishedAt.IsZero() {
		r.FinishedAt = time.Now()
	}
	if r.StartedAt.IsZero() {
		r.StartedAt = r.FinishedAt
	}

	const query = `
	INSERT INTO runs (id, tool, started_at, finished_at, input, output, images, annotations, skipped, status, message)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := s.db.ExecContext(ctx, query,
		r.ID, r.Tool,
		r.StartedAt.UTC().Format(time.RFC3339Nano),
		r.FinishedAt.UTC().Format(time.RFC3339Nano),
		r.Input, r.Output, r.Images, r.Annotations, r.Skipped, r.Status, r.Message,
	)
	if err != nil {
		return "", fmt.Errorf("failed to record run: %w", err)
	}
	return r.ID, nil
}

// List returns the most recent runs first. A limit of zero or less returns
// every run.
func (s *Store) List(ctx context.Context, limit int) ([]Run, error) {
	query := `
	SELECT id, tool, started_at, finished_at, input, output, images, annotations, skipped, status, message
	FROM runs ORDER BY started_at DESC, rowid DESC`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var (
			r                 Run
			started, finished string
			input, output     sql.NullString
			message           sql.NullString
		)
		if err := rows.Scan(&r.ID, &r.Tool, &started, &finished, &input, &output,
			&r.Images, &r.Annotations, &r.Skipped, &r.Status, &message); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		if r.StartedAt, err = time.Parse(time.RFC3339Nano, started); err != nil {
			return nil, fmt.Errorf("run %s: bad start time: %w", r.ID, err)
		}
		if r.FinishedAt, err = time.Parse(time.RFC3339Nano, finished); err != nil {
			return nil, fmt.Errorf("run %s: bad finish time: %w", r.ID, err)
		}
		r.Input, r.Output, r.Message = input.String, output.String, message.String
		runs = append(runs, r)
	}
	return runs, rows.Err()
}
