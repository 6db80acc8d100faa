package scenario

import (
	"context"
	"log"
	"time"

	"github.com/louisbranch/diagramharness/internal/storage"
	"github.com/louisbranch/diagramharness/internal/tools/stepper"
)

// journalObserver records every executed step of one run. Journal failures
// are logged and never fail the scenario.
type journalObserver struct {
	store    storage.JournalStore
	runID    string
	scenario string
	logger   *log.Logger
	now      func() time.Time
}

func newJournalObserver(store storage.JournalStore, runID, scenario string, logger *log.Logger) *journalObserver {
	return &journalObserver{
		store:    store,
		runID:    runID,
		scenario: scenario,
		logger:   logger,
		now:      time.Now,
	}
}

func (o *journalObserver) ObserveStep(ctx context.Context, record stepper.StepRecord) {
	run := storage.StepRun{
		RunID:     o.runID,
		Scenario:  o.scenario,
		StepIndex: record.Index,
		Kind:      string(record.Kind),
		Name:      record.Name,
		Outcome:   string(record.Outcome),
		Seq:       record.Seq,
		Duration:  record.Duration,
		CreatedAt: o.now().UTC(),
	}
	if record.Err != nil {
		run.Error = record.Err.Error()
	}
	// The step context may already be cancelled when the step failed on it.
	if err := o.store.RecordStep(context.WithoutCancel(ctx), run); err != nil && o.logger != nil {
		o.logger.Printf("journal step %d of run %s: %v", record.Index, o.runID, err)
	}
}
