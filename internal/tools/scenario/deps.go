package scenario

import (
	"context"

	"github.com/louisbranch/diagramharness/internal/diagram/event"
	"github.com/louisbranch/diagramharness/internal/diagram/naming"
	"github.com/louisbranch/diagramharness/internal/storage"
)

// diagramClient is the live diagram service as seen by the runner.
type diagramClient interface {
	OpenDiagram(ctx context.Context, req event.OpenDiagram) (*event.Diagram, error)
	InvokeTool(ctx context.Context, inv event.ToolInvocation) error
	Connect(ctx context.Context, sessionID, diagramID string, kind naming.Kind, label, sourceID, targetID string) (event.Edge, error)
	Subscribe(ctx context.Context, sessionID, diagramID string) (event.Stream, error)
}

// runnerDeps bundles injectable dependencies for runner construction.
type runnerDeps struct {
	client  diagramClient
	journal storage.JournalStore
	newID   func() string
}
