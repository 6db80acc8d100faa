package diagramd

import (
	"context"
	"flag"
	"testing"
	"time"
)

func TestParseConfigDefaults(t *testing.T) {
	fs := flag.NewFlagSet("diagramd", flag.ContinueOnError)
	cfg, err := ParseConfig(fs, nil)
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.Port != 8082 {
		t.Fatalf("expected default port 8082, got %d", cfg.Port)
	}
	if cfg.Addr != "" {
		t.Fatalf("expected empty addr, got %q", cfg.Addr)
	}
	if cfg.Prefix != "GV" {
		t.Fatalf("expected default prefix GV, got %q", cfg.Prefix)
	}
	if cfg.MaxConns != 64 {
		t.Fatalf("expected default max conns 64, got %d", cfg.MaxConns)
	}
	if cfg.ShutdownTimeout != 5*time.Second {
		t.Fatalf("expected default shutdown timeout 5s, got %s", cfg.ShutdownTimeout)
	}
}

func TestParseConfigOverrides(t *testing.T) {
	t.Setenv("DIAGRAM_HARNESS_DIAGRAM_PREFIX", "IV")
	fs := flag.NewFlagSet("diagramd", flag.ContinueOnError)
	cfg, err := ParseConfig(fs, []string{"-addr", "127.0.0.1:9999", "-max-conns", "0", "-shutdown-timeout", "250ms"})
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.Addr != "127.0.0.1:9999" {
		t.Fatalf("expected addr override, got %q", cfg.Addr)
	}
	if cfg.Prefix != "IV" {
		t.Fatalf("expected env prefix IV, got %q", cfg.Prefix)
	}
	if cfg.MaxConns != 0 {
		t.Fatalf("expected max conns 0, got %d", cfg.MaxConns)
	}
	if cfg.ShutdownTimeout != 250*time.Millisecond {
		t.Fatalf("expected shutdown timeout 250ms, got %s", cfg.ShutdownTimeout)
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- Run(ctx, Config{Addr: "127.0.0.1:0", MaxConns: 4})
	}()
	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("run: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("run did not stop")
	}
}

func TestRunFailsOnBadAddress(t *testing.T) {
	if err := Run(context.Background(), Config{Addr: "not-an-address"}); err == nil {
		t.Fatal("expected listen error")
	}
}
