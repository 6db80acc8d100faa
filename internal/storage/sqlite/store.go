// Package sqlite provides a SQLite-backed run journal.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	sqlitemigrate "github.com/louisbranch/diagramharness/internal/platform/storage/sqlitemigrate"
	"github.com/louisbranch/diagramharness/internal/storage"
	"github.com/louisbranch/diagramharness/internal/storage/filter"
	"github.com/louisbranch/diagramharness/internal/storage/sqlite/migrations"
	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"
)

const defaultQueryLimit = 100

// ErrAlreadyRecorded indicates the step of a run was already journaled.
var ErrAlreadyRecorded = errors.New("step already recorded")

// Store persists step runs in SQLite.
type Store struct {
	sqlDB *sql.DB
}

var _ storage.JournalStore = (*Store)(nil)

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// Open opens a SQLite journal and applies embedded migrations.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	cleanPath := filepath.Clean(path)
	dsn := cleanPath + "?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=5000&_synchronous=NORMAL"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := sqlitemigrate.ApplyMigrations(context.Background(), sqlDB, migrations.FS, ""); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{sqlDB: sqlDB}, nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// RecordStep inserts one step run.
func (s *Store) RecordStep(ctx context.Context, step storage.StepRun) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	runID := strings.TrimSpace(step.RunID)
	if runID == "" {
		return fmt.Errorf("run id is required")
	}
	if step.StepIndex < 0 {
		return fmt.Errorf("step index must not be negative")
	}
	if strings.TrimSpace(step.Kind) == "" {
		return fmt.Errorf("step kind is required")
	}
	if strings.TrimSpace(step.Outcome) == "" {
		return fmt.Errorf("step outcome is required")
	}
	createdAt := step.CreatedAt.UTC()
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	_, err := s.sqlDB.ExecContext(
		ctx,
		`INSERT INTO step_runs (
		   run_id,
		   scenario,
		   step_index,
		   kind,
		   name,
		   outcome,
		   error,
		   seq,
		   duration_ms,
		   created_at
		 ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		runID,
		strings.TrimSpace(step.Scenario),
		step.StepIndex,
		step.Kind,
		step.Name,
		step.Outcome,
		step.Error,
		int64(step.Seq),
		step.Duration.Milliseconds(),
		toMillis(createdAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrAlreadyRecorded
		}
		return fmt.Errorf("record step: %w", err)
	}
	return nil
}

// ListSteps returns the steps of one run in step order.
func (s *Store) ListSteps(ctx context.Context, runID string) ([]storage.StepRun, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}
	runID = strings.TrimSpace(runID)
	if runID == "" {
		return nil, fmt.Errorf("run id is required")
	}

	rows, err := s.sqlDB.QueryContext(ctx, selectSteps+` WHERE run_id = ? ORDER BY step_index`, runID)
	if err != nil {
		return nil, fmt.Errorf("list steps: %w", err)
	}
	steps, err := scanSteps(rows)
	if err != nil {
		return nil, err
	}
	if len(steps) == 0 {
		return nil, storage.ErrNotFound
	}
	return steps, nil
}

// QuerySteps returns the newest steps matching an AIP-160 filter.
func (s *Store) QuerySteps(ctx context.Context, query storage.StepQuery) ([]storage.StepRun, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}
	cond, err := filter.ParseStepFilter(query.Filter)
	if err != nil {
		return nil, err
	}
	limit := query.Limit
	if limit <= 0 {
		limit = defaultQueryLimit
	}

	statement := selectSteps
	params := cond.Params
	if cond.Clause != "" {
		statement += " WHERE " + cond.Clause
	}
	statement += " ORDER BY created_at DESC, run_id, step_index LIMIT ?"
	params = append(params, limit)

	rows, err := s.sqlDB.QueryContext(ctx, statement, params...)
	if err != nil {
		return nil, fmt.Errorf("query steps: %w", err)
	}
	return scanSteps(rows)
}

const selectSteps = `SELECT run_id, scenario, step_index, kind, name, outcome, error, seq, duration_ms, created_at FROM step_runs`

func scanSteps(rows *sql.Rows) ([]storage.StepRun, error) {
	defer rows.Close()

	var steps []storage.StepRun
	for rows.Next() {
		var (
			step       storage.StepRun
			seq        int64
			durationMS int64
			createdAt  int64
		)
		if err := rows.Scan(
			&step.RunID,
			&step.Scenario,
			&step.StepIndex,
			&step.Kind,
			&step.Name,
			&step.Outcome,
			&step.Error,
			&seq,
			&durationMS,
			&createdAt,
		); err != nil {
			return nil, fmt.Errorf("scan step: %w", err)
		}
		step.Seq = uint64(seq)
		step.Duration = time.Duration(durationMS) * time.Millisecond
		step.CreatedAt = fromMillis(createdAt)
		steps = append(steps, step)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate steps: %w", err)
	}
	return steps, nil
}

func isUniqueViolation(err error) bool {
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code() == sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY ||
			sqliteErr.Code() == sqlite3lib.SQLITE_CONSTRAINT_UNIQUE
	}
	return strings.Contains(strings.ToLower(err.Error()), "unique constraint failed")
}
