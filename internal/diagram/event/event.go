// Package event defines the diagram snapshots and refresh events the harness
// observes, and the tool invocations it sends back.
package event

// Node is one rendered diagram element. Border nodes sit on the node's edge
// and are searched after children.
type Node struct {
	ID              string
	Label           string
	Kind            string
	DescriptionName string
	TargetObjectID  string
	Children        []Node
	BorderNodes     []Node
}

// Edge connects two diagram elements and can own nodes created on it.
type Edge struct {
	ID              string
	Label           string
	Kind            string
	DescriptionName string
	SourceID        string
	TargetID        string
	Nodes           []Node
}

// Diagram is a rendered snapshot.
type Diagram struct {
	ID            string
	DescriptionID string
	Label         string
	Nodes         []Node
	Edges         []Edge
}

// Refreshed is emitted by the live service whenever the diagram mutates.
// Seq increases by one per event for a given diagram.
type Refreshed struct {
	Seq       uint64
	SessionID string
	Diagram   *Diagram
	// Cause is the tool id that produced the refresh, empty for the initial
	// snapshot sent on subscribe.
	Cause string
}

// ToolVariable is passed opaquely to the invoked tool.
type ToolVariable struct {
	Name  string
	Value string
	Type  string
}

// ToolInvocation asks the live service to run a creation tool on a target
// element of a diagram.
type ToolInvocation struct {
	SessionID       string
	DiagramID       string
	TargetElementID string
	ToolID          string
	Variables       []ToolVariable
}

// FindNodeByLabel returns the first node with label, depth first in document
// order (node, its children, its border nodes, then nodes owned by edges).
func (d *Diagram) FindNodeByLabel(label string) (Node, bool) {
	if d == nil {
		return Node{}, false
	}
	if node, ok := findNode(d.Nodes, label); ok {
		return node, true
	}
	for _, edge := range d.Edges {
		if node, ok := findNode(edge.Nodes, label); ok {
			return node, true
		}
	}
	return Node{}, false
}

// FindEdgeByLabel returns the first edge with label.
func (d *Diagram) FindEdgeByLabel(label string) (Edge, bool) {
	if d == nil {
		return Edge{}, false
	}
	for _, edge := range d.Edges {
		if edge.Label == label {
			return edge, true
		}
	}
	return Edge{}, false
}

// NodeCount counts every node, including children, border nodes and nodes
// owned by edges.
func (d *Diagram) NodeCount() int {
	if d == nil {
		return 0
	}
	count := countNodes(d.Nodes)
	for _, edge := range d.Edges {
		count += countNodes(edge.Nodes)
	}
	return count
}

func findNode(nodes []Node, label string) (Node, bool) {
	for _, node := range nodes {
		if node.Label == label {
			return node, true
		}
		if found, ok := findNode(node.Children, label); ok {
			return found, true
		}
		if found, ok := findNode(node.BorderNodes, label); ok {
			return found, true
		}
	}
	return Node{}, false
}

func countNodes(nodes []Node) int {
	count := len(nodes)
	for _, node := range nodes {
		count += countNodes(node.Children) + countNodes(node.BorderNodes)
	}
	return count
}
