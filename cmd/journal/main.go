// Package main prints scenario steps recorded in the step journal.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/louisbranch/diagramharness/internal/platform/config"

	journalcmd "github.com/louisbranch/diagramharness/internal/cmd/journal"
)

func main() {
	cfg, err := journalcmd.ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		config.Exitf("Error: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := journalcmd.Run(ctx, cfg, os.Stdout); err != nil {
		config.Exitf("Error: %v", err)
	}
}
