// Package memory is an in-process diagram service. It assigns palette tool
// ids with toolid, applies creation tools and emits a refresh event to every
// subscriber after each mutation.
package memory

import (
	"github.com/louisbranch/diagramharness/internal/diagram/naming"
	"github.com/louisbranch/diagramharness/internal/diagram/toolid"
)

// Tool is one palette entry. Creates is the kind of the node it creates.
type Tool struct {
	ID      string
	Name    string
	Creates naming.Kind
}

// Palette groups the tools available on a node or edge description.
type Palette struct {
	DescriptionName string
	Kind            naming.Kind
	Tools           []Tool
}

// ToolByID returns the tool with id.
func (p *Palette) ToolByID(id string) (Tool, bool) {
	if p == nil {
		return Tool{}, false
	}
	for _, tool := range p.Tools {
		if tool.ID == id {
			return tool, true
		}
	}
	return Tool{}, false
}

// Description is a diagram description: named node and edge palettes whose
// tool ids are assigned when tools are added.
type Description struct {
	ID    string
	Name  string
	names naming.Namer
	nodes map[string]*Palette
	edges map[string]*Palette
}

// NewDescription creates an empty description named name.
func NewDescription(name string, names naming.Namer) *Description {
	return &Description{
		ID:    toolid.Description(name),
		Name:  name,
		names: names,
		nodes: map[string]*Palette{},
		edges: map[string]*Palette{},
	}
}

// Node registers a node description for owner with one conventional
// creation tool per child kind.
func (d *Description) Node(owner naming.Kind, children ...naming.Kind) *Description {
	palette := d.nodePalette(owner)
	for _, child := range children {
		d.addNodeTool(palette, d.names.CreationToolName(child), child)
	}
	return d
}

// NodeTool registers a node tool with an explicit name.
func (d *Description) NodeTool(owner naming.Kind, toolName string, creates naming.Kind) *Description {
	d.addNodeTool(d.nodePalette(owner), toolName, creates)
	return d
}

// EdgeTool registers a tool that creates a node on edges of kind owner.
func (d *Description) EdgeTool(owner naming.Kind, toolName string, creates naming.Kind) *Description {
	name := d.names.EdgeName(owner)
	palette, ok := d.edges[name]
	if !ok {
		palette = &Palette{DescriptionName: name, Kind: owner}
		d.edges[name] = palette
	}
	palette.Tools = append(palette.Tools, Tool{
		ID:      toolid.EdgeNodeTool(d.ID, name, toolName),
		Name:    toolName,
		Creates: creates,
	})
	return d
}

// NodePalette returns the palette of a node description by name.
func (d *Description) NodePalette(name string) (*Palette, bool) {
	palette, ok := d.nodes[name]
	return palette, ok
}

// EdgePalette returns the palette of an edge description by name.
func (d *Description) EdgePalette(name string) (*Palette, bool) {
	palette, ok := d.edges[name]
	return palette, ok
}

func (d *Description) nodePalette(owner naming.Kind) *Palette {
	name := d.names.NodeName(owner)
	palette, ok := d.nodes[name]
	if !ok {
		palette = &Palette{DescriptionName: name, Kind: owner}
		d.nodes[name] = palette
	}
	return palette
}

func (d *Description) addNodeTool(palette *Palette, toolName string, creates naming.Kind) {
	palette.Tools = append(palette.Tools, Tool{
		ID:      toolid.NodeTool(d.ID, palette.DescriptionName, toolName),
		Name:    toolName,
		Creates: creates,
	})
}
