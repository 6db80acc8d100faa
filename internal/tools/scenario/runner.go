package scenario

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/louisbranch/diagramharness/internal/diagram/event"
	"github.com/louisbranch/diagramharness/internal/diagram/naming"
	"github.com/louisbranch/diagramharness/internal/diagram/toolid"
	"github.com/louisbranch/diagramharness/internal/platform/discovery"
	platformgrpc "github.com/louisbranch/diagramharness/internal/platform/grpc"
	platformid "github.com/louisbranch/diagramharness/internal/platform/id"
	"github.com/louisbranch/diagramharness/internal/platform/timeouts"
	"github.com/louisbranch/diagramharness/internal/storage"
	"github.com/louisbranch/diagramharness/internal/storage/sqlite"
	"github.com/louisbranch/diagramharness/internal/tools/nodecreation"
	"github.com/louisbranch/diagramharness/internal/tools/stepper"
	"github.com/louisbranch/diagramharness/internal/transport/diagramgrpc"
	"google.golang.org/grpc"
)

// DefaultDescription is the diagram description opened when a diagram step
// names none.
const DefaultDescription = "General View"

// Config controls scenario execution.
type Config struct {
	GRPCAddr   string
	Timeout    time.Duration
	Assertions AssertionMode
	Verbose    bool
	Logger     *log.Logger
	// JournalPath enables the step journal when set.
	JournalPath string
	// Prefix is the diagram prefix used for description names.
	Prefix string
}

// DefaultConfig returns default runner configuration.
func DefaultConfig() Config {
	return Config{
		GRPCAddr:   discovery.DefaultGRPCAddr(discovery.ServiceDiagram),
		Timeout:    timeouts.StepWait,
		Assertions: AssertionStrict,
		Verbose:    false,
		Prefix:     naming.DefaultPrefix,
	}
}

// Runner executes Lua scenarios against the diagram gRPC API.
type Runner struct {
	conn       *grpc.ClientConn
	client     diagramClient
	journal    storage.JournalStore
	closers    []func() error
	names      naming.Namer
	assertions Assertions
	logger     *log.Logger
	verbose    bool
	timeout    time.Duration
	newID      func() string
}

// NewRunner connects to gRPC and prepares a scenario runner.
func NewRunner(ctx context.Context, cfg Config) (*Runner, error) {
	if cfg.GRPCAddr == "" {
		return nil, errors.New("grpc address is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = log.New(os.Stderr, "", 0)
	}
	var logf func(string, ...any)
	if cfg.Verbose {
		logf = logger.Printf
	}
	conn, err := platformgrpc.DialWithHealth(ctx, nil, cfg.GRPCAddr, diagramgrpc.ServiceName, timeouts.GRPCDial, logf, platformgrpc.DefaultClientDialOptions()...)
	if err != nil {
		return nil, fmt.Errorf("dial gRPC: %w", err)
	}

	deps := runnerDeps{client: diagramgrpc.NewClient(conn)}
	var journal *sqlite.Store
	if cfg.JournalPath != "" {
		journal, err = sqlite.Open(cfg.JournalPath)
		if err != nil {
			_ = conn.Close()
			return nil, fmt.Errorf("open journal: %w", err)
		}
		deps.journal = journal
	}

	r, err := newRunnerWithDeps(cfg, deps)
	if err != nil {
		if journal != nil {
			_ = journal.Close()
		}
		_ = conn.Close()
		return nil, err
	}
	r.conn = conn
	if journal != nil {
		r.closers = append(r.closers, journal.Close)
	}
	return r, nil
}

// newRunnerWithDeps builds a Runner from pre-built dependencies.
// Config defaults (logger, timeout, prefix) are applied here so they are testable.
func newRunnerWithDeps(cfg Config, deps runnerDeps) (*Runner, error) {
	if deps.client == nil {
		return nil, errors.New("diagram client is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.New(os.Stderr, "", 0)
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = timeouts.StepWait
	}

	newID := deps.newID
	if newID == nil {
		newID = platformid.MustNewID
	}

	return &Runner{
		client:     deps.client,
		journal:    deps.journal,
		names:      naming.NewGenerator(cfg.Prefix),
		assertions: Assertions{Mode: cfg.Assertions, Logger: logger},
		logger:     logger,
		verbose:    cfg.Verbose,
		timeout:    timeout,
		newID:      newID,
	}, nil
}

// Close releases resources held by the runner.
func (r *Runner) Close() error {
	var errs []error
	for _, closeFn := range r.closers {
		errs = append(errs, closeFn())
	}
	if r.conn != nil {
		errs = append(errs, r.conn.Close())
	}
	return errors.Join(errs...)
}

// RunFile loads and executes a scenario file.
func RunFile(ctx context.Context, cfg Config, path string) error {
	scenario, err := LoadScenarioFromFile(path)
	if err != nil {
		return err
	}

	runner, err := NewRunner(ctx, cfg)
	if err != nil {
		return err
	}
	defer runner.Close()

	_, err = runner.RunScenario(ctx, scenario)
	return err
}

// RunScenario opens the diagram described by the first step, schedules every
// other step on a step sequence bound to the diagram's refresh stream, and
// verifies it. The initial snapshot is consumed before the first scheduled
// step.
func (r *Runner) RunScenario(ctx context.Context, scenario *Scenario) (stepper.Report, error) {
	if scenario == nil {
		return stepper.Report{}, errors.New("scenario is required")
	}
	if len(scenario.Steps) == 0 || scenario.Steps[0].Kind != StepDiagram {
		return stepper.Report{}, r.failf("scenario %q must start with a diagram step", scenario.Name)
	}
	r.logf("scenario start: %s (%d steps)", scenario.Name, len(scenario.Steps))

	state, err := r.openDiagram(ctx, scenario, scenario.Steps[0])
	if err != nil {
		return stepper.Report{}, fmt.Errorf("step 1 (%s): %w", StepDiagram, err)
	}
	stream, err := r.client.Subscribe(ctx, state.sessionID, state.diagramID)
	if err != nil {
		return stepper.Report{}, fmt.Errorf("subscribe: %w", err)
	}
	defer stream.Close()

	opts := []stepper.Option{
		stepper.WithTimeout(r.timeout),
		stepper.WithLogger(r.logger, r.verbose),
	}
	if r.journal != nil {
		opts = append(opts, stepper.WithObserver(newJournalObserver(r.journal, r.newID(), scenario.Name, r.logger)))
	}
	seq := stepper.New(stream, opts...)

	svc, err := r.nodeService(state)
	if err != nil {
		return stepper.Report{}, err
	}

	seq.ConsumeNext("initial snapshot", func(evt event.Refreshed) error {
		if evt.Diagram == nil || evt.Diagram.ID != state.diagramID {
			return r.failf("initial snapshot is not diagram %s", state.diagramID)
		}
		return nil
	})
	for index, step := range scenario.Steps[1:] {
		if err := r.scheduleStep(seq, svc, state, step); err != nil {
			return stepper.Report{}, fmt.Errorf("step %d (%s): %w", index+2, step.Kind, err)
		}
	}

	start := time.Now()
	report, err := seq.Verify(ctx)
	if err != nil {
		return report, fmt.Errorf("scenario %s: %w", scenario.Name, err)
	}
	r.logf("scenario done: %s (%d steps, %d events, %s)", scenario.Name, report.Executed(), report.Events, time.Since(start))
	return report, nil
}

// scenarioState is the opened diagram a scenario runs against.
type scenarioState struct {
	sessionID     string
	diagramID     string
	descriptionID string
}

func (r *Runner) openDiagram(ctx context.Context, scenario *Scenario, step Step) (*scenarioState, error) {
	seeds, err := readSeeds(step.Args)
	if err != nil {
		return nil, r.failf("%v", err)
	}
	description := optionalString(step.Args, "description", DefaultDescription)
	descriptionID := optionalString(step.Args, "description_id", toolid.Description(description))
	sessionID := optionalString(step.Args, "session", r.newID())

	openCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	diagram, err := r.client.OpenDiagram(openCtx, event.OpenDiagram{
		SessionID:     sessionID,
		DescriptionID: descriptionID,
		Label:         optionalString(step.Args, "label", scenario.Name),
		Seeds:         seeds,
	})
	if err != nil {
		return nil, fmt.Errorf("open diagram: %w", err)
	}
	r.logf("diagram opened: %s (session %s)", diagram.ID, sessionID)
	return &scenarioState{
		sessionID:     sessionID,
		diagramID:     diagram.ID,
		descriptionID: descriptionID,
	}, nil
}

func (r *Runner) nodeService(state *scenarioState) (*nodecreation.Service, error) {
	deriver, err := nodecreation.NewDeriver(r.names, state.descriptionID)
	if err != nil {
		return nil, err
	}
	tester, err := nodecreation.NewTester(r.client)
	if err != nil {
		return nil, err
	}
	return nodecreation.NewService(state.sessionID, deriver, tester)
}

func (r *Runner) logf(format string, args ...any) {
	if !r.verbose || r.logger == nil {
		return
	}
	r.logger.Printf(format, args...)
}
