package scenario

import (
	"bytes"
	"context"
	"flag"
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/louisbranch/diagramharness/internal/diagram/naming"
	"github.com/louisbranch/diagramharness/internal/server"
)

func TestParseConfigDefaults(t *testing.T) {
	fs := flag.NewFlagSet("scenario", flag.ContinueOnError)

	cfg, err := ParseConfig(fs, nil)
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.GRPCAddr != "diagramd:8082" {
		t.Fatalf("expected default grpc addr, got %q", cfg.GRPCAddr)
	}
	if !cfg.Assertions {
		t.Fatal("expected assertions to default to true")
	}
	if cfg.Timeout != 5*time.Second {
		t.Fatalf("expected default timeout 5s, got %s", cfg.Timeout)
	}
	if cfg.JournalPath != "" {
		t.Fatalf("expected journal disabled, got %q", cfg.JournalPath)
	}
}

func TestParseConfigOverrides(t *testing.T) {
	t.Setenv("DIAGRAM_HARNESS_SCENARIO_FILE", "from-env.lua")
	fs := flag.NewFlagSet("scenario", flag.ContinueOnError)

	cfg, err := ParseConfig(fs, []string{"-assert=false", "-timeout", "2s", "-journal", "runs.db"})
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.Scenario != "from-env.lua" {
		t.Fatalf("expected env scenario, got %q", cfg.Scenario)
	}
	if cfg.Assertions {
		t.Fatal("expected assertions disabled")
	}
	if cfg.Timeout != 2*time.Second || cfg.JournalPath != "runs.db" {
		t.Fatalf("unexpected overrides: %+v", cfg)
	}
}

func TestRunRequiresScenario(t *testing.T) {
	if err := Run(context.Background(), Config{}, nil, nil); err == nil {
		t.Fatal("expected scenario path error")
	}
}

func TestRunAgainstLiveService(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	srv := server.NewWithListener(listener, server.NewGeneralView(naming.NewGenerator("")))
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx) }()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	dir := t.TempDir()
	path := filepath.Join(dir, "create.lua")
	script := `
local scene = Scenario.new("create")
scene:diagram({nodes = {{kind = "Package", label = "pkg1"}}})
scene:create_node({parent = "Package", label = "pkg1", child = "Action"})
scene:expect_refresh({nodes = 2, has_label = "action1"})
return scene
`
	if err := os.WriteFile(path, []byte(script), 0o600); err != nil {
		t.Fatalf("write scenario: %v", err)
	}

	var out bytes.Buffer
	cfg := Config{
		GRPCAddr:    listener.Addr().String(),
		Scenario:    path,
		Assertions:  true,
		Timeout:     2 * time.Second,
		Prefix:      "GV",
		JournalPath: filepath.Join(dir, "journal.db"),
	}
	if err := Run(context.Background(), cfg, &out, nil); err != nil {
		t.Fatalf("run: %v", err)
	}
	if !strings.Contains(out.String(), "scenario passed") {
		t.Fatalf("output = %q, want pass line", out.String())
	}
}
