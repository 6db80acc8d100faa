// Package nodecreation schedules node creation actions on a step sequence.
// It derives the palette tool id a live diagram service assigns to a
// creation tool and invokes that tool against the latest observed snapshot.
package nodecreation

import (
	"strings"

	"github.com/louisbranch/diagramharness/internal/diagram/naming"
	"github.com/louisbranch/diagramharness/internal/diagram/toolid"
	apperrors "github.com/louisbranch/diagramharness/internal/platform/errors"
)

// Deriver computes creation tool ids without querying the live service.
type Deriver struct {
	names         naming.Namer
	descriptionID string
}

// NewDeriver returns a deriver for tools of the description descriptionID.
func NewDeriver(names naming.Namer, descriptionID string) (*Deriver, error) {
	if names == nil {
		return nil, apperrors.New(apperrors.CodeMissingArgument, "namer is required")
	}
	if strings.TrimSpace(descriptionID) == "" {
		return nil, apperrors.New(apperrors.CodeMissingArgument, "description id is required")
	}
	return &Deriver{names: names, descriptionID: descriptionID}, nil
}

// DescriptionID returns the description the deriver targets.
func (d *Deriver) DescriptionID() string {
	return d.descriptionID
}

// NodeCreationID returns the id of toolName in the palette of owner's node
// description.
func (d *Deriver) NodeCreationID(owner naming.Kind, toolName string) string {
	return toolid.NodeTool(d.descriptionID, d.names.NodeName(owner), toolName)
}

// NodeCreationIDOnEdge returns the id of toolName in the palette of owner's
// edge description.
func (d *Deriver) NodeCreationIDOnEdge(owner naming.Kind, toolName string) string {
	return toolid.EdgeNodeTool(d.descriptionID, d.names.EdgeName(owner), toolName)
}

// ToolName returns the conventional creation tool name for child.
func (d *Deriver) ToolName(child naming.Kind) string {
	return d.names.CreationToolName(child)
}
