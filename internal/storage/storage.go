package storage

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound indicates a requested record is missing.
var ErrNotFound = errors.New("record not found")

// StepRun is one executed step of a scenario run.
type StepRun struct {
	RunID     string
	Scenario  string
	StepIndex int
	Kind      string
	Name      string
	Outcome   string
	Error     string
	Seq       uint64
	Duration  time.Duration
	CreatedAt time.Time
}

// StepQuery selects journaled steps. Filter is an AIP-160 expression over
// run_id, scenario, step_index, kind, name, outcome and created_at.
type StepQuery struct {
	Filter string
	Limit  int
}

// JournalStore persists scenario step runs.
type JournalStore interface {
	RecordStep(ctx context.Context, step StepRun) error
	ListSteps(ctx context.Context, runID string) ([]StepRun, error)
	QuerySteps(ctx context.Context, query StepQuery) ([]StepRun, error)
}
