package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/neboloop/surfer/internal/lifecycle"
	"github.com/neboloop/surfer/internal/logging"
)

// Run statuses
const (
	RunRunning     = "running"
	RunCompleted   = "completed"
	RunFailed      = "failed"
	RunCancelled   = "cancelled"
	RunInterrupted = "interrupted"
)

// DefaultListLimit is used by ListRuns for a non-positive limit.
const DefaultListLimit = 20

// ErrNotFound is returned for an unknown run ID.
var ErrNotFound = errors.New("run not found")

// Run is one web agent job as recorded in agent_runs.
type Run struct {
	ID         string     `json:"id"`
	Task       string     `json:"task"`
	Status     string     `json:"status"`
	Result     string     `json:"result,omitempty"`
	Error      string     `json:"error,omitempty"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}

// Store wraps the database handle.
type Store struct {
	db *sql.DB
}

// NewStore wraps an already migrated database.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// RecordStart inserts a running row.
func (s *Store) RecordStart(ctx context.Context, id, task string, startedAt time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO agent_runs (id, task, status, started_at) VALUES (?, ?, ?, ?)`,
		id, task, RunRunning, startedAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("record start: %w", err)
	}
	return nil
}

// RecordFinish stores the terminal status of a run.
func (s *Store) RecordFinish(ctx context.Context, id, status, result, errMsg string, finishedAt time.Time) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE agent_runs SET status = ?, result = ?, error = ?, finished_at = ? WHERE id = ?`,
		status, result, errMsg, finishedAt.UnixMilli(), id)
	if err != nil {
		return fmt.Errorf("record finish: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("record finish %s: %w", id, ErrNotFound)
	}
	return nil
}

// MarkInterrupted closes out rows left running by a previous process.
func (s *Store) MarkInterrupted(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE agent_runs SET status = ?, finished_at = ? WHERE status = ?`,
		RunInterrupted, time.Now().UnixMilli(), RunRunning)
	if err != nil {
		return 0, fmt.Errorf("mark interrupted: %w", err)
	}
	return res.RowsAffected()
}

const runColumns = `id, task, status, result, error, started_at, finished_at`

// GetRun returns one run.
func (s *Store) GetRun(ctx context.Context, id string) (*Run, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM agent_runs WHERE id = ?`, id)
	r, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return r, err
}

// ListRuns returns the most recent runs, newest first.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+runColumns+` FROM agent_runs ORDER BY started_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *r)
	}
	return runs, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(sc scanner) (*Run, error) {
	var (
		r        Run
		started  int64
		finished sql.NullInt64
	)
	if err := sc.Scan(&r.ID, &r.Task, &r.Status, &r.Result, &r.Error, &started, &finished); err != nil {
		return nil, err
	}
	r.StartedAt = time.UnixMilli(started)
	if finished.Valid {
		t := time.UnixMilli(finished.Int64)
		r.FinishedAt = &t
	}
	return &r, nil
}

// Subscribe records agent run lifecycle events into the store.
func (s *Store) Subscribe(events *lifecycle.Manager) {
	events.OnAgentRun(func(e lifecycle.Event, d lifecycle.AgentRunEventData) {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		var err error
		switch e {
		case lifecycle.EventAgentRunStart:
			err = s.RecordStart(ctx, d.JobID, d.Task, d.StartedAt)
		case lifecycle.EventAgentRunComplete:
			err = s.RecordFinish(ctx, d.JobID, RunCompleted, d.Result, "", d.FinishedAt)
		case lifecycle.EventAgentRunError:
			err = s.RecordFinish(ctx, d.JobID, RunFailed, "", errString(d.Error), d.FinishedAt)
		case lifecycle.EventAgentRunCancelled:
			err = s.RecordFinish(ctx, d.JobID, RunCancelled, "", errString(d.Error), d.FinishedAt)
		}
		if err != nil {
			logging.Warnf("[db] %s for %s: %v", e, d.JobID, err)
		}
	})
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
