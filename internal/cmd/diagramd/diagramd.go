// Package diagramd parses diagram service flags and starts the in-memory
// diagram service.
package diagramd

import (
	"context"
	"flag"
	"fmt"
	"time"

	"github.com/louisbranch/diagramharness/internal/diagram/naming"
	entrypoint "github.com/louisbranch/diagramharness/internal/platform/cmd"
	"github.com/louisbranch/diagramharness/internal/platform/discovery"
	"github.com/louisbranch/diagramharness/internal/server"
)

// Config holds diagram service configuration.
type Config struct {
	Port     int    `env:"DIAGRAM_PORT"`
	Addr     string `env:"DIAGRAM_ADDR"`
	Prefix   string `env:"DIAGRAM_PREFIX"    envDefault:"GV"`
	MaxConns int    `env:"DIAGRAM_MAX_CONNS" envDefault:"64"`
	// ShutdownTimeout bounds the telemetry flush on exit.
	ShutdownTimeout time.Duration `env:"DIAGRAM_SHUTDOWN_TIMEOUT" envDefault:"5s"`
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	if cfg.Port == 0 {
		cfg.Port = discovery.DefaultGRPCPort(discovery.ServiceDiagram)
	}
	fs.IntVar(&cfg.Port, "port", cfg.Port, "The diagram service port")
	fs.StringVar(&cfg.Addr, "addr", cfg.Addr, "The diagram service listen address (overrides -port)")
	fs.StringVar(&cfg.Prefix, "prefix", cfg.Prefix, "The diagram prefix used in description names")
	fs.IntVar(&cfg.MaxConns, "max-conns", cfg.MaxConns, "Maximum concurrent connections (0 for unlimited)")
	fs.DurationVar(&cfg.ShutdownTimeout, "shutdown-timeout", cfg.ShutdownTimeout, "How long to wait for telemetry to flush on exit")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run serves the general view until ctx ends.
func Run(ctx context.Context, cfg Config) error {
	options := entrypoint.RunOptions{ShutdownTimeout: cfg.ShutdownTimeout}
	return entrypoint.RunWithTelemetryAndOptions(ctx, entrypoint.ServiceDiagram, options, func(ctx context.Context) error {
		addr := cfg.Addr
		if addr == "" {
			addr = fmt.Sprintf(":%d", cfg.Port)
		}
		listener, err := server.Listen(addr, cfg.MaxConns)
		if err != nil {
			return err
		}
		srv := server.NewWithListener(listener, server.NewGeneralView(naming.NewGenerator(cfg.Prefix)))
		return srv.Serve(ctx)
	})
}
