// Package history keeps a SQLite log of process runs so a user can see
// how the collection and its categorization changed over time.
package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// Run statuses.
const (
	StatusSucceeded = "succeeded"
	StatusFailed    = "failed"
)

// Run is one recorded pipeline invocation.
type Run struct {
	ID            string         `json:"run_id"`
	Command       string         `json:"command"`
	Status        string         `json:"status"`
	StartedAt     time.Time      `json:"started_at"`
	FinishedAt    time.Time      `json:"finished_at"`
	Games         int            `json:"games"`
	Plays         int            `json:"plays"`
	Appended      int            `json:"appended"`
	Uncategorized int            `json:"uncategorized"`
	Error         string         `json:"error,omitempty"`
	Categories    map[string]int `json:"categories,omitempty"`
}

// timeLayout is fixed-width so stored timestamps sort as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Store is an open history database.
type Store struct {
	db *sql.DB
}

// Open opens or creates the history database at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create history dir: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open history: %w", err)
	}
	db.SetMaxOpenConns(1)

	for _, stmt := range append([]string{"PRAGMA foreign_keys = ON"}, schemaDDL...) {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("initialize history schema: %w", err)
		}
	}
	return &Store{db: db}, nil
}

// Close releases the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// NewRunID returns a time-ordered run identifier.
func NewRunID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New().String()
	}
	return id.String()
}

// Record stores run. An empty ID is filled with NewRunID.
func (s *Store) Record(ctx context.Context, run *Run) error {
	if run.ID == "" {
		run.ID = NewRunID()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	var errText sql.NullString
	if run.Error != "" {
		errText = sql.NullString{String: run.Error, Valid: true}
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (run_id, command, status, started_at, finished_at, games, plays, appended, uncategorized, error)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.Command, run.Status,
		run.StartedAt.UTC().Format(timeLayout),
		run.FinishedAt.UTC().Format(timeLayout),
		run.Games, run.Plays, run.Appended, run.Uncategorized, errText,
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	categories := make([]string, 0, len(run.Categories))
	for c := range run.Categories {
		categories = append(categories, c)
	}
	sort.Strings(categories)
	for _, c := range categories {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO run_categories (run_id, category, games) VALUES (?, ?, ?)`,
			run.ID, c, run.Categories[c],
		); err != nil {
			return fmt.Errorf("insert run category %q: %w", c, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit run: %w", err)
	}
	return nil
}

// List returns up to limit runs, newest first. A limit below one returns
// every run.
func (s *Store) List(ctx context.Context, limit int) ([]Run, error) {
	query := `SELECT run_id, command, status, started_at, finished_at, games, plays, appended, uncategorized, error
		FROM runs ORDER BY started_at DESC, run_id DESC`
	var args []any
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var (
			r                 Run
			started, finished string
			errText           sql.NullString
		)
		if err := rows.Scan(&r.ID, &r.Command, &r.Status, &started, &finished,
			&r.Games, &r.Plays, &r.Appended, &r.Uncategorized, &errText); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		if r.StartedAt, err = time.Parse(timeLayout, started); err != nil {
			return nil, fmt.Errorf("run %s: started_at: %w", r.ID, err)
		}
		if r.FinishedAt, err = time.Parse(timeLayout, finished); err != nil {
			return nil, fmt.Errorf("run %s: finished_at: %w", r.ID, err)
		}
		r.Error = errText.String
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	rows.Close()

	for i := range runs {
		cats, err := s.categories(ctx, runs[i].ID)
		if err != nil {
			return nil, err
		}
		runs[i].Categories = cats
	}
	return runs, nil
}

func (s *Store) categories(ctx context.Context, runID string) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT category, games FROM run_categories WHERE run_id = ?`, runID)
	if err != nil {
		return nil, fmt.Errorf("query run categories: %w", err)
	}
	defer rows.Close()

	var out map[string]int
	for rows.Next() {
		var (
			c string
			n int
		)
		if err := rows.Scan(&c, &n); err != nil {
			return nil, fmt.Errorf("scan run category: %w", err)
		}
		if out == nil {
			out = make(map[string]int)
		}
		out[c] = n
	}
	return out, rows.Err()
}

// ErrEmpty reports that no run has been recorded yet.
var ErrEmpty = errors.New("no runs recorded")

// Latest returns the most recent run or ErrEmpty.
func (s *Store) Latest(ctx context.Context) (Run, error) {
	runs, err := s.List(ctx, 1)
	if err != nil {
		return Run{}, err
	}
	if len(runs) == 0 {
		return Run{}, ErrEmpty
	}
	return runs[0], nil
}
