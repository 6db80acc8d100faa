// Package journal parses journal command flags and prints journaled
// scenario steps.
package journal

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"text/tabwriter"

	entrypoint "github.com/louisbranch/diagramharness/internal/platform/cmd"
	"github.com/louisbranch/diagramharness/internal/storage"
	"github.com/louisbranch/diagramharness/internal/storage/sqlite"
)

// Config holds journal command configuration.
type Config struct {
	Path   string `env:"JOURNAL_PATH"`
	RunID  string `env:"JOURNAL_RUN_ID"`
	Filter string `env:"JOURNAL_FILTER"`
	Limit  int    `env:"JOURNAL_LIMIT" envDefault:"100"`
}

// ParseConfig parses environment and flags into a Config. Flags win over
// DIAGRAM_HARNESS_JOURNAL_* values.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	fs.StringVar(&cfg.Path, "journal", "", "sqlite step journal path")
	fs.StringVar(&cfg.RunID, "run", "", "list every step of one run")
	fs.StringVar(&cfg.Filter, "filter", "", `AIP-160 filter, e.g. outcome = "failed"`)
	fs.IntVar(&cfg.Limit, "limit", 100, "maximum steps returned by -filter")
	if err := entrypoint.ParseConfigFromArgs(&cfg, fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run prints the selected steps to out.
func Run(ctx context.Context, cfg Config, out io.Writer) error {
	if cfg.Path == "" {
		return errors.New("journal path is required")
	}
	if out == nil {
		out = io.Discard
	}

	store, err := sqlite.Open(cfg.Path)
	if err != nil {
		return err
	}
	defer store.Close()

	var steps []storage.StepRun
	if cfg.RunID != "" {
		steps, err = store.ListSteps(ctx, cfg.RunID)
	} else {
		steps, err = store.QuerySteps(ctx, storage.StepQuery{Filter: cfg.Filter, Limit: cfg.Limit})
	}
	if errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("run %s not found", cfg.RunID)
	}
	if err != nil {
		return err
	}
	return writeSteps(out, steps)
}

func writeSteps(out io.Writer, steps []storage.StepRun) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "RUN\tSCENARIO\tSTEP\tKIND\tNAME\tOUTCOME\tSEQ\tDURATION\tERROR")
	for _, step := range steps {
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\t%s\t%d\t%s\t%s\n",
			step.RunID, step.Scenario, step.StepIndex+1, step.Kind, step.Name,
			step.Outcome, step.Seq, step.Duration, step.Error)
	}
	return w.Flush()
}
