package memory

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"unicode"

	"github.com/google/uuid"
	"github.com/louisbranch/diagramharness/internal/diagram/event"
	"github.com/louisbranch/diagramharness/internal/diagram/naming"
	apperrors "github.com/louisbranch/diagramharness/internal/platform/errors"
)

// LabelVariable overrides the label of the created node when present in the
// invocation variables.
const LabelVariable = "label"

// Service keeps editing sessions and their diagrams in memory. Descriptions
// must be registered before the service is shared.
type Service struct {
	names naming.Namer
	newID func() string

	mu           sync.Mutex
	descriptions map[string]*Description
	sessions     map[string]map[string]*diagramState
}

type diagramState struct {
	sessionID   string
	diagram     *event.Diagram
	description *Description
	seq         uint64
	counters    map[naming.Kind]int
	subscribers map[*Subscription]struct{}
}

// NewService creates an empty service using names to label node
// descriptions of created nodes.
func NewService(names naming.Namer) *Service {
	return &Service{
		names:        names,
		newID:        uuid.NewString,
		descriptions: map[string]*Description{},
		sessions:     map[string]map[string]*diagramState{},
	}
}

// Register makes a description available to OpenDiagram.
func (s *Service) Register(desc *Description) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.descriptions[desc.ID] = desc
}

// OpenDiagram creates a diagram from a registered description, seeded with
// top-level nodes.
func (s *Service) OpenDiagram(ctx context.Context, req event.OpenDiagram) (*event.Diagram, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.SessionID) == "" {
		return nil, apperrors.New(apperrors.CodeMissingArgument, "session id is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	desc, ok := s.descriptions[req.DescriptionID]
	if !ok {
		return nil, apperrors.WithMetadata(apperrors.CodeDiagramNotFound, "diagram description not found",
			map[string]string{"description_id": req.DescriptionID})
	}

	state := &diagramState{
		sessionID: req.SessionID,
		diagram: &event.Diagram{
			ID:            s.newID(),
			DescriptionID: desc.ID,
			Label:         req.Label,
		},
		description: desc,
		counters:    map[naming.Kind]int{},
		subscribers: map[*Subscription]struct{}{},
	}
	for _, seed := range req.Seeds {
		kind := naming.Kind(seed.Kind)
		label := seed.Label
		if label == "" {
			label = state.nextLabel(kind)
		}
		state.diagram.Nodes = append(state.diagram.Nodes, s.newNode(kind, label))
	}

	diagrams, ok := s.sessions[req.SessionID]
	if !ok {
		diagrams = map[string]*diagramState{}
		s.sessions[req.SessionID] = diagrams
	}
	diagrams[state.diagram.ID] = state
	return cloneDiagram(state.diagram), nil
}

// InvokeTool applies a creation tool to a node or edge and notifies
// subscribers. A tool id absent from the target's palette fails with
// TOOL_NOT_FOUND and leaves the diagram untouched.
func (s *Service) InvokeTool(ctx context.Context, inv event.ToolInvocation) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	state, err := s.lookup(inv.SessionID, inv.DiagramID)
	if err != nil {
		return err
	}

	meta := map[string]string{
		"tool_id":           inv.ToolID,
		"target_element_id": inv.TargetElementID,
	}

	var created event.Node
	if node := findDiagramNode(state.diagram, inv.TargetElementID); node != nil {
		palette, _ := state.description.NodePalette(node.DescriptionName)
		tool, ok := palette.ToolByID(inv.ToolID)
		if !ok {
			return apperrors.WithMetadata(apperrors.CodeToolNotFound, "no matching tool on node", meta)
		}
		created = s.newNode(tool.Creates, labelFor(state, tool.Creates, inv.Variables))
		node.Children = append(node.Children, created)
	} else if edge := findEdgeByID(state.diagram.Edges, inv.TargetElementID); edge != nil {
		palette, _ := state.description.EdgePalette(edge.DescriptionName)
		tool, ok := palette.ToolByID(inv.ToolID)
		if !ok {
			return apperrors.WithMetadata(apperrors.CodeToolNotFound, "no matching tool on edge", meta)
		}
		created = s.newNode(tool.Creates, labelFor(state, tool.Creates, inv.Variables))
		edge.Nodes = append(edge.Nodes, created)
	} else {
		return apperrors.WithMetadata(apperrors.CodeTargetNotFound, "target element not found", meta)
	}

	state.publish(inv.ToolID)
	return nil
}

// Connect adds an edge of kind between two nodes and notifies subscribers.
func (s *Service) Connect(ctx context.Context, sessionID, diagramID string, kind naming.Kind, label, sourceID, targetID string) (event.Edge, error) {
	if err := ctx.Err(); err != nil {
		return event.Edge{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	state, err := s.lookup(sessionID, diagramID)
	if err != nil {
		return event.Edge{}, err
	}
	for _, id := range []string{sourceID, targetID} {
		if findNodeByID(state.diagram.Nodes, id) == nil {
			return event.Edge{}, apperrors.WithMetadata(apperrors.CodeTargetNotFound, "edge end not found",
				map[string]string{"element_id": id})
		}
	}
	if label == "" {
		label = state.nextLabel(kind)
	}
	edge := event.Edge{
		ID:              s.newID(),
		Label:           label,
		Kind:            string(kind),
		DescriptionName: s.names.EdgeName(kind),
		SourceID:        sourceID,
		TargetID:        targetID,
	}
	state.diagram.Edges = append(state.diagram.Edges, edge)
	state.publish("")
	return edge, nil
}

// Subscribe opens a stream of refresh events. The current snapshot is
// delivered first so the subscriber starts from a known state.
func (s *Service) Subscribe(ctx context.Context, sessionID, diagramID string) (event.Stream, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, err := s.lookup(sessionID, diagramID)
	if err != nil {
		return nil, err
	}
	sub := newSubscription(ctx, func(sub *Subscription) {
		s.mu.Lock()
		delete(state.subscribers, sub)
		s.mu.Unlock()
	})
	state.subscribers[sub] = struct{}{}
	sub.enqueue(event.Refreshed{
		Seq:       state.seq,
		SessionID: state.sessionID,
		Diagram:   cloneDiagram(state.diagram),
	})
	return sub, nil
}

func (s *Service) lookup(sessionID, diagramID string) (*diagramState, error) {
	diagrams, ok := s.sessions[sessionID]
	if !ok {
		return nil, apperrors.WithMetadata(apperrors.CodeSessionNotFound, "editing session not found",
			map[string]string{"session_id": sessionID})
	}
	state, ok := diagrams[diagramID]
	if !ok {
		return nil, apperrors.WithMetadata(apperrors.CodeDiagramNotFound, "diagram not found",
			map[string]string{"diagram_id": diagramID})
	}
	return state, nil
}

func (s *Service) newNode(kind naming.Kind, label string) event.Node {
	id := s.newID()
	return event.Node{
		ID:              id,
		Label:           label,
		Kind:            string(kind),
		DescriptionName: s.names.NodeName(kind),
		TargetObjectID:  "obj-" + id,
	}
}

func (st *diagramState) publish(cause string) {
	st.seq++
	evt := event.Refreshed{
		Seq:       st.seq,
		SessionID: st.sessionID,
		Diagram:   cloneDiagram(st.diagram),
		Cause:     cause,
	}
	for sub := range st.subscribers {
		sub.enqueue(evt)
	}
}

// nextLabel returns the default label for kind: "Action" gives "action1",
// then "action2".
func (st *diagramState) nextLabel(kind naming.Kind) string {
	st.counters[kind]++
	runes := []rune(string(kind))
	if len(runes) > 0 {
		runes[0] = unicode.ToLower(runes[0])
	}
	return fmt.Sprintf("%s%d", string(runes), st.counters[kind])
}

func labelFor(state *diagramState, kind naming.Kind, vars []event.ToolVariable) string {
	for _, v := range vars {
		if v.Name == LabelVariable && v.Value != "" {
			return v.Value
		}
	}
	return state.nextLabel(kind)
}

func findNodeByID(nodes []event.Node, id string) *event.Node {
	for i := range nodes {
		if nodes[i].ID == id {
			return &nodes[i]
		}
		if found := findNodeByID(nodes[i].Children, id); found != nil {
			return found
		}
		if found := findNodeByID(nodes[i].BorderNodes, id); found != nil {
			return found
		}
	}
	return nil
}

func findDiagramNode(d *event.Diagram, id string) *event.Node {
	if node := findNodeByID(d.Nodes, id); node != nil {
		return node
	}
	for i := range d.Edges {
		if node := findNodeByID(d.Edges[i].Nodes, id); node != nil {
			return node
		}
	}
	return nil
}

func findEdgeByID(edges []event.Edge, id string) *event.Edge {
	for i := range edges {
		if edges[i].ID == id {
			return &edges[i]
		}
	}
	return nil
}

func cloneDiagram(d *event.Diagram) *event.Diagram {
	out := *d
	out.Nodes = cloneNodes(d.Nodes)
	if d.Edges != nil {
		out.Edges = make([]event.Edge, len(d.Edges))
		for i, edge := range d.Edges {
			edge.Nodes = cloneNodes(edge.Nodes)
			out.Edges[i] = edge
		}
	}
	return &out
}

func cloneNodes(nodes []event.Node) []event.Node {
	if nodes == nil {
		return nil
	}
	out := make([]event.Node, len(nodes))
	for i, node := range nodes {
		node.Children = cloneNodes(node.Children)
		node.BorderNodes = cloneNodes(node.BorderNodes)
		out[i] = node
	}
	return out
}
