package memory

import (
	"context"
	"testing"
	"time"

	"github.com/louisbranch/diagramharness/internal/diagram/event"
	"github.com/louisbranch/diagramharness/internal/diagram/naming"
	"github.com/louisbranch/diagramharness/internal/diagram/toolid"
	apperrors "github.com/louisbranch/diagramharness/internal/platform/errors"
)

func newTestService(t *testing.T) (*Service, *Description, *event.Diagram) {
	t.Helper()
	names := naming.NewGenerator("")
	desc := NewDescription("General View", names).
		Node("Package", "Action", "Package").
		EdgeTool("Dependency", "New Binding", "Binding")
	svc := NewService(names)
	svc.Register(desc)

	diagram, err := svc.OpenDiagram(context.Background(), event.OpenDiagram{
		SessionID:     "s1",
		DescriptionID: desc.ID,
		Label:         "view1",
		Seeds:         []event.Seed{{Kind: "Package", Label: "pkg1"}, {Kind: "Package"}},
	})
	if err != nil {
		t.Fatalf("open diagram: %v", err)
	}
	return svc, desc, diagram
}

func receive(t *testing.T, stream event.Stream) event.Refreshed {
	t.Helper()
	select {
	case evt, ok := <-stream.Events():
		if !ok {
			t.Fatalf("stream closed: %v", stream.Err())
		}
		return evt
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for refresh")
	}
	return event.Refreshed{}
}

func TestDescriptionAssignsToolIDs(t *testing.T) {
	names := naming.NewGenerator("")
	desc := NewDescription("General View", names).Node("Package", "Action")
	if desc.ID != toolid.Description("General View") {
		t.Fatalf("description id = %s", desc.ID)
	}
	palette, ok := desc.NodePalette("GV Node Package")
	if !ok || len(palette.Tools) != 1 {
		t.Fatalf("palette = %+v, %v", palette, ok)
	}
	tool := palette.Tools[0]
	if tool.Name != "New Action" || tool.Creates != "Action" {
		t.Fatalf("tool = %+v", tool)
	}
	if tool.ID != toolid.NodeTool(desc.ID, "GV Node Package", "New Action") {
		t.Fatalf("tool id = %s", tool.ID)
	}
	if _, ok := (*Palette)(nil).ToolByID(tool.ID); ok {
		t.Fatal("expected nil palette to have no tools")
	}
}

func TestOpenDiagram(t *testing.T) {
	_, _, diagram := newTestService(t)
	if diagram.Label != "view1" || len(diagram.Nodes) != 2 {
		t.Fatalf("diagram = %+v", diagram)
	}
	if diagram.Nodes[0].Label != "pkg1" || diagram.Nodes[1].Label != "package1" {
		t.Fatalf("labels = %q %q", diagram.Nodes[0].Label, diagram.Nodes[1].Label)
	}
	if diagram.Nodes[0].DescriptionName != "GV Node Package" {
		t.Fatalf("description name = %q", diagram.Nodes[0].DescriptionName)
	}
}

func TestOpenDiagramErrors(t *testing.T) {
	svc := NewService(naming.NewGenerator(""))
	ctx := context.Background()
	if _, err := svc.OpenDiagram(ctx, event.OpenDiagram{DescriptionID: "x"}); !apperrors.IsCode(err, apperrors.CodeMissingArgument) {
		t.Fatalf("expected MISSING_REQUIRED_ARGUMENT, got %v", err)
	}
	if _, err := svc.OpenDiagram(ctx, event.OpenDiagram{SessionID: "s1", DescriptionID: "x"}); !apperrors.IsCode(err, apperrors.CodeDiagramNotFound) {
		t.Fatalf("expected DIAGRAM_NOT_FOUND, got %v", err)
	}
}

func TestSubscribeDeliversSnapshotThenRefreshes(t *testing.T) {
	svc, desc, diagram := newTestService(t)
	ctx := context.Background()

	stream, err := svc.Subscribe(ctx, "s1", diagram.ID)
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer stream.Close()

	initial := receive(t, stream)
	if initial.Seq != 0 || initial.Cause != "" || initial.Diagram.NodeCount() != 2 {
		t.Fatalf("initial = %+v", initial)
	}

	toolID := toolid.NodeTool(desc.ID, "GV Node Package", "New Action")
	err = svc.InvokeTool(ctx, event.ToolInvocation{
		SessionID:       "s1",
		DiagramID:       diagram.ID,
		TargetElementID: diagram.Nodes[0].ID,
		ToolID:          toolID,
		Variables:       []event.ToolVariable{{Name: LabelVariable, Value: "run"}},
	})
	if err != nil {
		t.Fatalf("invoke: %v", err)
	}

	refreshed := receive(t, stream)
	if refreshed.Seq != 1 || refreshed.Cause != toolID {
		t.Fatalf("refreshed = %+v", refreshed)
	}
	node, ok := refreshed.Diagram.FindNodeByLabel("run")
	if !ok || node.Kind != "Action" {
		t.Fatalf("expected created action, got %+v", node)
	}
	if initial.Diagram.NodeCount() != 2 {
		t.Fatal("expected earlier snapshot to be unchanged")
	}
}

func TestInvokeToolErrors(t *testing.T) {
	svc, desc, diagram := newTestService(t)
	ctx := context.Background()
	valid := toolid.NodeTool(desc.ID, "GV Node Package", "New Action")

	tests := []struct {
		name string
		inv  event.ToolInvocation
		code apperrors.Code
	}{
		{
			name: "unknown session",
			inv:  event.ToolInvocation{SessionID: "nope", DiagramID: diagram.ID},
			code: apperrors.CodeSessionNotFound,
		},
		{
			name: "unknown diagram",
			inv:  event.ToolInvocation{SessionID: "s1", DiagramID: "nope"},
			code: apperrors.CodeDiagramNotFound,
		},
		{
			name: "unknown target",
			inv:  event.ToolInvocation{SessionID: "s1", DiagramID: diagram.ID, TargetElementID: "nope", ToolID: valid},
			code: apperrors.CodeTargetNotFound,
		},
		{
			name: "tool not in palette",
			inv:  event.ToolInvocation{SessionID: "s1", DiagramID: diagram.ID, TargetElementID: diagram.Nodes[0].ID, ToolID: "bogus"},
			code: apperrors.CodeToolNotFound,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := svc.InvokeTool(ctx, tt.inv)
			if !apperrors.IsCode(err, tt.code) {
				t.Fatalf("expected %s, got %v", tt.code, err)
			}
		})
	}

	err := svc.InvokeTool(ctx, event.ToolInvocation{SessionID: "s1", DiagramID: diagram.ID, TargetElementID: diagram.Nodes[0].ID, ToolID: "bogus"})
	if got := apperrors.GetMetadata(err)["tool_id"]; got != "bogus" {
		t.Fatalf("tool_id metadata = %q", got)
	}
}

func TestConnectAndCreateOnEdge(t *testing.T) {
	svc, desc, diagram := newTestService(t)
	ctx := context.Background()

	edge, err := svc.Connect(ctx, "s1", diagram.ID, "Dependency", "", diagram.Nodes[0].ID, diagram.Nodes[1].ID)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	if edge.Label != "dependency1" || edge.DescriptionName != "GV Edge Dependency" {
		t.Fatalf("edge = %+v", edge)
	}
	if _, err := svc.Connect(ctx, "s1", diagram.ID, "Dependency", "", "nope", diagram.Nodes[1].ID); !apperrors.IsCode(err, apperrors.CodeTargetNotFound) {
		t.Fatalf("expected TARGET_NOT_FOUND, got %v", err)
	}

	err = svc.InvokeTool(ctx, event.ToolInvocation{
		SessionID:       "s1",
		DiagramID:       diagram.ID,
		TargetElementID: edge.ID,
		ToolID:          toolid.EdgeNodeTool(desc.ID, "GV Edge Dependency", "New Binding"),
	})
	if err != nil {
		t.Fatalf("invoke on edge: %v", err)
	}

	stream, err := svc.Subscribe(ctx, "s1", diagram.ID)
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer stream.Close()
	snapshot := receive(t, stream)
	if snapshot.Seq != 2 {
		t.Fatalf("seq = %d, want 2", snapshot.Seq)
	}
	got, ok := snapshot.Diagram.FindEdgeByLabel("dependency1")
	if !ok || len(got.Nodes) != 1 || got.Nodes[0].Label != "binding1" {
		t.Fatalf("edge = %+v", got)
	}
}

func TestSubscriptionEnds(t *testing.T) {
	svc, _, diagram := newTestService(t)

	ctx, cancel := context.WithCancel(context.Background())
	stream, err := svc.Subscribe(ctx, "s1", diagram.ID)
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	receive(t, stream)
	cancel()
	for range stream.Events() {
	}
	if stream.Err() != context.Canceled {
		t.Fatalf("err = %v, want context canceled", stream.Err())
	}

	closed, err := svc.Subscribe(context.Background(), "s1", diagram.ID)
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	if err := closed.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if closed.Err() != nil {
		t.Fatalf("err = %v, want nil after close", closed.Err())
	}
	if _, ok := <-closed.Events(); ok {
		t.Fatal("expected closed channel")
	}
	if _, err := svc.Subscribe(context.Background(), "nope", diagram.ID); !apperrors.IsCode(err, apperrors.CodeSessionNotFound) {
		t.Fatalf("expected SESSION_NOT_FOUND, got %v", err)
	}
}
