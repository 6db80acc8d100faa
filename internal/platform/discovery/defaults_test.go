package discovery

import "testing"

func TestDefaultGRPCAddr(t *testing.T) {
	if got := DefaultGRPCAddr(ServiceDiagram); got != "diagramd:8082" {
		t.Fatalf("DefaultGRPCAddr(%q) = %q, want diagramd:8082", ServiceDiagram, got)
	}
	if got := DefaultGRPCAddr(" diagramd "); got != "diagramd:8082" {
		t.Fatalf("expected trimmed service lookup, got %q", got)
	}
	if got := DefaultGRPCAddr("unknown"); got != "" {
		t.Fatalf("expected empty addr for unknown service, got %q", got)
	}
}

func TestDefaultGRPCPort(t *testing.T) {
	if got := DefaultGRPCPort(ServiceDiagram); got != 8082 {
		t.Fatalf("DefaultGRPCPort = %d, want 8082", got)
	}
	if got := DefaultGRPCPort("unknown"); got != 0 {
		t.Fatalf("DefaultGRPCPort(unknown) = %d, want 0", got)
	}
}

func TestOrDefaultGRPCAddr(t *testing.T) {
	if got := OrDefaultGRPCAddr(" custom:9000 ", ServiceDiagram); got != "custom:9000" {
		t.Fatalf("expected explicit grpc addr to win, got %q", got)
	}
	if got := OrDefaultGRPCAddr("", ServiceDiagram); got != "diagramd:8082" {
		t.Fatalf("expected default grpc addr, got %q", got)
	}
}
