// Package stepper runs an ordered pipeline of verification steps and
// deferred actions against a stream of diagram refresh events.
package stepper

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/louisbranch/diagramharness/internal/diagram/event"
	apperrors "github.com/louisbranch/diagramharness/internal/platform/errors"
	"github.com/louisbranch/diagramharness/internal/platform/timeouts"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/louisbranch/diagramharness/internal/tools/stepper"

type step struct {
	kind   StepKind
	name   string
	assert func(event.Refreshed) error
	window time.Duration
	action Action
}

// Sequence is an ordered verification pipeline bound to one event stream.
// Steps run strictly one after another; a Sequence is not safe for
// concurrent use and can be verified once.
type Sequence struct {
	source   event.Stream
	slot     *SnapshotSlot
	steps    []step
	timeout  time.Duration
	logger   *log.Logger
	verbose  bool
	observer StepObserver
	tracer   trace.Tracer
	verified bool
}

// Option configures a Sequence.
type Option func(*Sequence)

// WithTimeout bounds each consume step and each action.
func WithTimeout(timeout time.Duration) Option {
	return func(s *Sequence) {
		if timeout > 0 {
			s.timeout = timeout
		}
	}
}

// WithLogger logs step progress when verbose is set.
func WithLogger(logger *log.Logger, verbose bool) Option {
	return func(s *Sequence) {
		s.logger = logger
		s.verbose = verbose
	}
}

// WithObserver reports every executed step to observer.
func WithObserver(observer StepObserver) Option {
	return func(s *Sequence) {
		s.observer = observer
	}
}

// WithSnapshotSlot shares an existing slot instead of a fresh one.
func WithSnapshotSlot(slot *SnapshotSlot) Option {
	return func(s *Sequence) {
		if slot != nil {
			s.slot = slot
		}
	}
}

// New binds a sequence to source.
func New(source event.Stream, opts ...Option) *Sequence {
	s := &Sequence{
		source:  source,
		slot:    NewSnapshotSlot(),
		timeout: timeouts.StepWait,
		tracer:  otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Slot returns the snapshot slot written by consume steps.
func (s *Sequence) Slot() *SnapshotSlot {
	return s.slot
}

// Len returns the number of scheduled steps.
func (s *Sequence) Len() int {
	return len(s.steps)
}

// ConsumeNext waits for exactly the next event, publishes its diagram to the
// slot and runs assert on it. A nil assert accepts any event.
func (s *Sequence) ConsumeNext(name string, assert func(event.Refreshed) error) *Sequence {
	s.steps = append(s.steps, step{kind: StepConsume, name: name, assert: assert})
	return s
}

// ExpectNoEvent fails if any event arrives within window.
func (s *Sequence) ExpectNoEvent(name string, window time.Duration) *Sequence {
	s.steps = append(s.steps, step{kind: StepQuiet, name: name, window: window})
	return s
}

// Then schedules action after the previously scheduled step.
func (s *Sequence) Then(action Action) *Sequence {
	name := ""
	if action != nil {
		name = action.Name()
	}
	s.steps = append(s.steps, step{kind: StepAction, name: name, action: action})
	return s
}

// ThenCancel closes the stream once every previous step succeeded.
func (s *Sequence) ThenCancel() *Sequence {
	s.steps = append(s.steps, step{kind: StepCancel, name: "cancel subscription"})
	return s
}

// Verify runs the steps in order and stops at the first failure or when ctx
// ends. Nothing scheduled after that point runs.
func (s *Sequence) Verify(ctx context.Context) (Report, error) {
	report := Report{Steps: make([]StepRecord, len(s.steps))}
	for i, st := range s.steps {
		report.Steps[i] = StepRecord{Index: i, Kind: st.kind, Name: st.name, Outcome: OutcomeSkipped}
	}
	if s.verified {
		return report, errors.New("sequence already verified")
	}
	s.verified = true
	if s.source == nil {
		return report, apperrors.New(apperrors.CodeMissingArgument, "event source is required")
	}

	for i, st := range s.steps {
		if err := ctx.Err(); err != nil {
			return report, &StepError{Index: i, Kind: st.kind, Name: st.name, Err: err}
		}

		s.logf("step %d/%d start: %s %q", i+1, len(s.steps), st.kind, st.name)
		stepCtx, span := s.tracer.Start(ctx, "step."+string(st.kind), trace.WithAttributes(
			attribute.Int("step.index", i),
			attribute.String("step.name", st.name),
		))
		start := time.Now()
		observed, err := s.runStep(stepCtx, st)
		record := StepRecord{
			Index:    i,
			Kind:     st.kind,
			Name:     st.name,
			Outcome:  OutcomeSucceeded,
			Duration: time.Since(start),
		}
		if observed != nil {
			record.Seq = observed.Seq
			report.Events++
			span.SetAttributes(attribute.String("event.seq", strconv.FormatUint(observed.Seq, 10)))
		}
		if err != nil {
			record.Outcome = OutcomeFailed
			record.Err = err
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()

		report.Steps[i] = record
		if s.observer != nil {
			s.observer.ObserveStep(ctx, record)
		}
		if err != nil {
			s.logf("step %d/%d failed: %v", i+1, len(s.steps), err)
			return report, &StepError{Index: i, Kind: st.kind, Name: st.name, Err: err}
		}
		s.logf("step %d/%d done (%s)", i+1, len(s.steps), record.Duration)
	}
	return report, nil
}

// runStep returns the event the step observed, if any.
func (s *Sequence) runStep(ctx context.Context, st step) (*event.Refreshed, error) {
	switch st.kind {
	case StepConsume:
		return s.consume(ctx, st)
	case StepQuiet:
		return s.quiet(ctx, st)
	case StepAction:
		if st.action == nil {
			return nil, apperrors.New(apperrors.CodeMissingArgument, "action is required")
		}
		actionCtx, cancel := context.WithTimeout(ctx, s.timeout)
		defer cancel()
		return nil, st.action.Run(actionCtx)
	case StepCancel:
		return nil, s.source.Close()
	default:
		return nil, fmt.Errorf("unknown step kind %q", st.kind)
	}
}

func (s *Sequence) consume(ctx context.Context, st step) (*event.Refreshed, error) {
	timer := time.NewTimer(s.timeout)
	defer timer.Stop()

	select {
	case evt, ok := <-s.source.Events():
		if !ok {
			return nil, apperrors.Wrap(apperrors.CodeSubscriptionClosed, "subscription ended before expected event", s.source.Err())
		}
		s.slot.Publish(evt.Diagram)
		if st.assert != nil {
			if err := st.assert(evt); err != nil {
				return &evt, err
			}
		}
		return &evt, nil
	case <-timer.C:
		return nil, apperrors.WithMetadata(apperrors.CodeEventTimeout, "expected refresh event never arrived", map[string]string{
			"step":    st.name,
			"timeout": s.timeout.String(),
		})
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (s *Sequence) quiet(ctx context.Context, st step) (*event.Refreshed, error) {
	timer := time.NewTimer(st.window)
	defer timer.Stop()

	select {
	case evt, ok := <-s.source.Events():
		if !ok {
			return nil, apperrors.Wrap(apperrors.CodeSubscriptionClosed, "subscription ended during quiet window", s.source.Err())
		}
		return &evt, apperrors.WithMetadata(apperrors.CodeUnexpectedEvent, "unexpected refresh event", map[string]string{
			"step":  st.name,
			"seq":   strconv.FormatUint(evt.Seq, 10),
			"cause": evt.Cause,
		})
	case <-timer.C:
		return nil, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (s *Sequence) logf(format string, args ...any) {
	if !s.verbose || s.logger == nil {
		return
	}
	s.logger.Printf(format, args...)
}
