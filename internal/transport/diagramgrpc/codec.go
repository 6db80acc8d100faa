package diagramgrpc

import (
	"fmt"

	"github.com/louisbranch/diagramharness/internal/diagram/event"
	"google.golang.org/protobuf/types/known/structpb"
)

// Messages travel as google.protobuf.Struct. Field names are snake_case and
// numbers decode as float64.

func encodeOpenDiagram(req event.OpenDiagram) (*structpb.Struct, error) {
	seeds := make([]any, 0, len(req.Seeds))
	for _, seed := range req.Seeds {
		seeds = append(seeds, map[string]any{"kind": seed.Kind, "label": seed.Label})
	}
	return structpb.NewStruct(map[string]any{
		"session_id":     req.SessionID,
		"description_id": req.DescriptionID,
		"label":          req.Label,
		"seeds":          seeds,
	})
}

func decodeOpenDiagram(msg *structpb.Struct) event.OpenDiagram {
	m := msg.AsMap()
	req := event.OpenDiagram{
		SessionID:     stringField(m, "session_id"),
		DescriptionID: stringField(m, "description_id"),
		Label:         stringField(m, "label"),
	}
	for _, item := range listField(m, "seeds") {
		seed, ok := item.(map[string]any)
		if !ok {
			continue
		}
		req.Seeds = append(req.Seeds, event.Seed{Kind: stringField(seed, "kind"), Label: stringField(seed, "label")})
	}
	return req
}

func encodeInvocation(inv event.ToolInvocation) (*structpb.Struct, error) {
	vars := make([]any, 0, len(inv.Variables))
	for _, v := range inv.Variables {
		vars = append(vars, map[string]any{"name": v.Name, "value": v.Value, "type": v.Type})
	}
	return structpb.NewStruct(map[string]any{
		"session_id":        inv.SessionID,
		"diagram_id":        inv.DiagramID,
		"target_element_id": inv.TargetElementID,
		"tool_id":           inv.ToolID,
		"variables":         vars,
	})
}

func decodeInvocation(msg *structpb.Struct) event.ToolInvocation {
	m := msg.AsMap()
	inv := event.ToolInvocation{
		SessionID:       stringField(m, "session_id"),
		DiagramID:       stringField(m, "diagram_id"),
		TargetElementID: stringField(m, "target_element_id"),
		ToolID:          stringField(m, "tool_id"),
		Variables:       []event.ToolVariable{},
	}
	for _, item := range listField(m, "variables") {
		v, ok := item.(map[string]any)
		if !ok {
			continue
		}
		inv.Variables = append(inv.Variables, event.ToolVariable{
			Name:  stringField(v, "name"),
			Value: stringField(v, "value"),
			Type:  stringField(v, "type"),
		})
	}
	return inv
}

type connectRequest struct {
	SessionID string
	DiagramID string
	Kind      string
	Label     string
	SourceID  string
	TargetID  string
}

func encodeConnect(req connectRequest) (*structpb.Struct, error) {
	return structpb.NewStruct(map[string]any{
		"session_id": req.SessionID,
		"diagram_id": req.DiagramID,
		"kind":       req.Kind,
		"label":      req.Label,
		"source_id":  req.SourceID,
		"target_id":  req.TargetID,
	})
}

func decodeConnect(msg *structpb.Struct) connectRequest {
	m := msg.AsMap()
	return connectRequest{
		SessionID: stringField(m, "session_id"),
		DiagramID: stringField(m, "diagram_id"),
		Kind:      stringField(m, "kind"),
		Label:     stringField(m, "label"),
		SourceID:  stringField(m, "source_id"),
		TargetID:  stringField(m, "target_id"),
	}
}

func encodeSubscribe(sessionID, diagramID string) (*structpb.Struct, error) {
	return structpb.NewStruct(map[string]any{"session_id": sessionID, "diagram_id": diagramID})
}

func encodeRefreshed(evt event.Refreshed) (*structpb.Struct, error) {
	m := map[string]any{
		"seq":        float64(evt.Seq),
		"session_id": evt.SessionID,
		"cause":      evt.Cause,
	}
	if evt.Diagram != nil {
		m["diagram"] = diagramMap(evt.Diagram)
	}
	return structpb.NewStruct(m)
}

func decodeRefreshed(msg *structpb.Struct) (event.Refreshed, error) {
	m := msg.AsMap()
	evt := event.Refreshed{
		Seq:       uint64(numberField(m, "seq")),
		SessionID: stringField(m, "session_id"),
		Cause:     stringField(m, "cause"),
	}
	raw, ok := m["diagram"].(map[string]any)
	if !ok {
		return evt, fmt.Errorf("refresh event %d has no diagram", evt.Seq)
	}
	evt.Diagram = diagramFromMap(raw)
	return evt, nil
}

func encodeDiagram(d *event.Diagram) (*structpb.Struct, error) {
	return structpb.NewStruct(diagramMap(d))
}

func decodeDiagram(msg *structpb.Struct) *event.Diagram {
	return diagramFromMap(msg.AsMap())
}

func encodeEdge(edge event.Edge) (*structpb.Struct, error) {
	return structpb.NewStruct(edgeMap(edge))
}

func decodeEdge(msg *structpb.Struct) event.Edge {
	return edgeFromMap(msg.AsMap())
}

func diagramMap(d *event.Diagram) map[string]any {
	edges := make([]any, 0, len(d.Edges))
	for _, edge := range d.Edges {
		edges = append(edges, edgeMap(edge))
	}
	return map[string]any{
		"id":             d.ID,
		"description_id": d.DescriptionID,
		"label":          d.Label,
		"nodes":          nodeList(d.Nodes),
		"edges":          edges,
	}
}

func diagramFromMap(m map[string]any) *event.Diagram {
	d := &event.Diagram{
		ID:            stringField(m, "id"),
		DescriptionID: stringField(m, "description_id"),
		Label:         stringField(m, "label"),
		Nodes:         nodesFromList(listField(m, "nodes")),
	}
	for _, item := range listField(m, "edges") {
		if edge, ok := item.(map[string]any); ok {
			d.Edges = append(d.Edges, edgeFromMap(edge))
		}
	}
	return d
}

func edgeMap(edge event.Edge) map[string]any {
	return map[string]any{
		"id":               edge.ID,
		"label":            edge.Label,
		"kind":             edge.Kind,
		"description_name": edge.DescriptionName,
		"source_id":        edge.SourceID,
		"target_id":        edge.TargetID,
		"nodes":            nodeList(edge.Nodes),
	}
}

func edgeFromMap(m map[string]any) event.Edge {
	return event.Edge{
		ID:              stringField(m, "id"),
		Label:           stringField(m, "label"),
		Kind:            stringField(m, "kind"),
		DescriptionName: stringField(m, "description_name"),
		SourceID:        stringField(m, "source_id"),
		TargetID:        stringField(m, "target_id"),
		Nodes:           nodesFromList(listField(m, "nodes")),
	}
}

func nodeList(nodes []event.Node) []any {
	out := make([]any, 0, len(nodes))
	for _, node := range nodes {
		out = append(out, map[string]any{
			"id":               node.ID,
			"label":            node.Label,
			"kind":             node.Kind,
			"description_name": node.DescriptionName,
			"target_object_id": node.TargetObjectID,
			"children":         nodeList(node.Children),
			"border_nodes":     nodeList(node.BorderNodes),
		})
	}
	return out
}

func nodesFromList(items []any) []event.Node {
	if len(items) == 0 {
		return nil
	}
	out := make([]event.Node, 0, len(items))
	for _, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		out = append(out, event.Node{
			ID:              stringField(m, "id"),
			Label:           stringField(m, "label"),
			Kind:            stringField(m, "kind"),
			DescriptionName: stringField(m, "description_name"),
			TargetObjectID:  stringField(m, "target_object_id"),
			Children:        nodesFromList(listField(m, "children")),
			BorderNodes:     nodesFromList(listField(m, "border_nodes")),
		})
	}
	return out
}

func stringField(m map[string]any, key string) string {
	value, _ := m[key].(string)
	return value
}

func numberField(m map[string]any, key string) float64 {
	value, _ := m[key].(float64)
	return value
}

func listField(m map[string]any, key string) []any {
	value, _ := m[key].([]any)
	return value
}
