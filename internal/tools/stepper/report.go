package stepper

import (
	"context"
	"fmt"
	"time"
)

// StepKind identifies what a step does.
type StepKind string

const (
	StepConsume StepKind = "consume"
	StepQuiet   StepKind = "expect_no_event"
	StepAction  StepKind = "action"
	StepCancel  StepKind = "cancel"
)

// Outcome is the result of one step.
type Outcome string

const (
	OutcomeSucceeded Outcome = "succeeded"
	OutcomeFailed    Outcome = "failed"
	OutcomeSkipped   Outcome = "skipped"
)

// StepRecord describes one step of a verified sequence. Seq is the refresh
// sequence number for consume steps.
type StepRecord struct {
	Index    int
	Kind     StepKind
	Name     string
	Outcome  Outcome
	Err      error
	Seq      uint64
	Duration time.Duration
}

// Report lists every scheduled step in order. Steps after a failure are
// reported as skipped and were never run.
type Report struct {
	Steps  []StepRecord
	Events int
}

// Executed counts the steps that ran.
func (r Report) Executed() int {
	count := 0
	for _, step := range r.Steps {
		if step.Outcome != OutcomeSkipped {
			count++
		}
	}
	return count
}

// StepObserver receives a record after each executed step.
type StepObserver interface {
	ObserveStep(ctx context.Context, record StepRecord)
}

// StepError is returned by Verify for the first failing step.
type StepError struct {
	Index int
	Kind  StepKind
	Name  string
	Err   error
}

// Error implements the error interface.
func (e *StepError) Error() string {
	return fmt.Sprintf("step %d (%s %q): %v", e.Index+1, e.Kind, e.Name, e.Err)
}

// Unwrap returns the step failure.
func (e *StepError) Unwrap() error {
	return e.Err
}
