// Package scenario parses scenario command flags and runs Lua scenario
// scripts against the diagram service.
package scenario

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"time"

	entrypoint "github.com/louisbranch/diagramharness/internal/platform/cmd"
	"github.com/louisbranch/diagramharness/internal/platform/discovery"
	"github.com/louisbranch/diagramharness/internal/tools/scenario"
)

// Config holds scenario command configuration.
type Config struct {
	GRPCAddr    string        `env:"DIAGRAM_ADDR"`
	Scenario    string        `env:"SCENARIO_FILE"`
	Assertions  bool          `env:"SCENARIO_ASSERT"   envDefault:"true"`
	Verbose     bool          `env:"SCENARIO_VERBOSE"`
	Timeout     time.Duration `env:"SCENARIO_TIMEOUT"  envDefault:"5s"`
	Prefix      string        `env:"DIAGRAM_PREFIX"    envDefault:"GV"`
	JournalPath string        `env:"JOURNAL_PATH"`
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}

	fs.StringVar(&cfg.GRPCAddr, "grpc-addr", cfg.GRPCAddr, "diagram service address")
	fs.StringVar(&cfg.Scenario, "scenario", cfg.Scenario, "path to scenario lua file")
	fs.BoolVar(&cfg.Assertions, "assert", cfg.Assertions, "enable assertions (disable to log expectations)")
	fs.BoolVar(&cfg.Verbose, "verbose", cfg.Verbose, "enable verbose logging")
	fs.DurationVar(&cfg.Timeout, "timeout", cfg.Timeout, "timeout per step")
	fs.StringVar(&cfg.Prefix, "prefix", cfg.Prefix, "diagram prefix used in description names")
	fs.StringVar(&cfg.JournalPath, "journal", cfg.JournalPath, "sqlite step journal path (empty disables)")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	cfg.GRPCAddr = discovery.OrDefaultGRPCAddr(cfg.GRPCAddr, discovery.ServiceDiagram)
	return cfg, nil
}

// Run executes the scenario command.
func Run(ctx context.Context, cfg Config, out io.Writer, errOut io.Writer) error {
	if out == nil {
		out = io.Discard
	}
	if errOut == nil {
		errOut = io.Discard
	}
	if cfg.Scenario == "" {
		return errors.New("scenario path is required")
	}

	mode := scenario.AssertionStrict
	if !cfg.Assertions {
		mode = scenario.AssertionLogOnly
	}

	logger := log.New(errOut, "", 0)
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceScenario, func(ctx context.Context) error {
		if err := scenario.RunFile(ctx, scenario.Config{
			GRPCAddr:    cfg.GRPCAddr,
			Timeout:     cfg.Timeout,
			Assertions:  mode,
			Verbose:     cfg.Verbose,
			Logger:      logger,
			JournalPath: cfg.JournalPath,
			Prefix:      cfg.Prefix,
		}, cfg.Scenario); err != nil {
			return err
		}
		fmt.Fprintf(out, "scenario passed: %s\n", cfg.Scenario)
		return nil
	})
}
