package nodecreation

import (
	"context"
	"fmt"

	"github.com/louisbranch/diagramharness/internal/diagram/event"
	apperrors "github.com/louisbranch/diagramharness/internal/platform/errors"
	"github.com/louisbranch/diagramharness/internal/tools/stepper"
)

// Client is the live tool-creation service.
type Client interface {
	InvokeTool(ctx context.Context, inv event.ToolInvocation) error
}

// Tester invokes creation tools on elements of the latest snapshot. It does
// not wait for the resulting refresh event.
type Tester struct {
	client Client
}

// NewTester wraps client.
func NewTester(client Client) (*Tester, error) {
	if client == nil {
		return nil, apperrors.New(apperrors.CodeMissingArgument, "tool client is required")
	}
	return &Tester{client: client}, nil
}

// CreateNode invokes toolID on the node labelled targetLabel.
func (t *Tester) CreateNode(ctx context.Context, sessionID string, slot *stepper.SnapshotSlot, targetLabel, toolID string, vars []event.ToolVariable) error {
	diagram, err := latest(slot, targetLabel, toolID)
	if err != nil {
		return err
	}
	node, ok := diagram.FindNodeByLabel(targetLabel)
	if !ok {
		return targetNotFound("node", targetLabel, toolID)
	}
	return t.invoke(ctx, sessionID, diagram.ID, node.ID, targetLabel, toolID, vars)
}

// CreateNodeOnEdge invokes toolID on the edge labelled targetLabel.
func (t *Tester) CreateNodeOnEdge(ctx context.Context, sessionID string, slot *stepper.SnapshotSlot, targetLabel, toolID string, vars []event.ToolVariable) error {
	diagram, err := latest(slot, targetLabel, toolID)
	if err != nil {
		return err
	}
	edge, ok := diagram.FindEdgeByLabel(targetLabel)
	if !ok {
		return targetNotFound("edge", targetLabel, toolID)
	}
	return t.invoke(ctx, sessionID, diagram.ID, edge.ID, targetLabel, toolID, vars)
}

func (t *Tester) invoke(ctx context.Context, sessionID, diagramID, targetID, targetLabel, toolID string, vars []event.ToolVariable) error {
	if vars == nil {
		vars = []event.ToolVariable{}
	}
	err := t.client.InvokeTool(ctx, event.ToolInvocation{
		SessionID:       sessionID,
		DiagramID:       diagramID,
		TargetElementID: targetID,
		ToolID:          toolID,
		Variables:       vars,
	})
	if err != nil {
		return fmt.Errorf("invoke tool %s on %q: %w", toolID, targetLabel, err)
	}
	return nil
}

func latest(slot *stepper.SnapshotSlot, targetLabel, toolID string) (*event.Diagram, error) {
	if slot == nil {
		return nil, apperrors.New(apperrors.CodeMissingArgument, "snapshot slot is required")
	}
	diagram, ok := slot.Latest()
	if !ok || diagram == nil {
		return nil, apperrors.WithMetadata(apperrors.CodeSnapshotMissing, "no diagram snapshot observed yet", map[string]string{
			"tool_id":      toolID,
			"target_label": targetLabel,
		})
	}
	return diagram, nil
}

func targetNotFound(element, targetLabel, toolID string) error {
	return apperrors.WithMetadata(apperrors.CodeTargetNotFound, element+" not found in latest snapshot", map[string]string{
		"tool_id":      toolID,
		"target_label": targetLabel,
	})
}
