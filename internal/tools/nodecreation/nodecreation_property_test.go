//go:build property

package nodecreation_test

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/louisbranch/diagramharness/internal/diagram/naming"
	"github.com/louisbranch/diagramharness/internal/tools/nodecreation"
)

func newDeriver(t *testing.T) *nodecreation.Deriver {
	t.Helper()
	deriver, err := nodecreation.NewDeriver(naming.NewGenerator(""), "general-view")
	if err != nil {
		t.Fatalf("new deriver: %v", err)
	}
	return deriver
}

// Property: NodeCreationID(owner, tool) == NodeCreationID(owner, tool)
func TestNodeCreationIDDeterminism(t *testing.T) {
	first := newDeriver(t)
	second := newDeriver(t)

	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("node creation ids are stable across derivers", prop.ForAll(
		func(owner, tool string) bool {
			kind := naming.Kind(owner)
			return first.NodeCreationID(kind, tool) == second.NodeCreationID(kind, tool) &&
				first.NodeCreationIDOnEdge(kind, tool) == second.NodeCreationIDOnEdge(kind, tool)
		},
		gen.Identifier(),
		gen.AnyString(),
	))

	properties.TestingRun(t)
}

// Property: NodeCreationID(owner, tool) != NodeCreationIDOnEdge(owner, tool)
func TestNodeAndEdgeIDsNeverCollide(t *testing.T) {
	deriver := newDeriver(t)

	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("node and edge variants differ", prop.ForAll(
		func(owner, tool string) bool {
			kind := naming.Kind(owner)
			return deriver.NodeCreationID(kind, tool) != deriver.NodeCreationIDOnEdge(kind, tool)
		},
		gen.Identifier(),
		gen.AlphaString(),
	))

	properties.TestingRun(t)
}

// Property: an omitted tool name derives the id of the conventional name.
func TestConventionalToolName(t *testing.T) {
	deriver := newDeriver(t)
	names := naming.NewGenerator("")

	parameters := gopter.DefaultTestParameters()
	properties := gopter.NewProperties(parameters)

	properties.Property("ToolName matches CreationToolName", prop.ForAll(
		func(owner, child string) bool {
			tool := deriver.ToolName(naming.Kind(child))
			if tool != names.CreationToolName(naming.Kind(child)) {
				return false
			}
			return deriver.NodeCreationID(naming.Kind(owner), tool) ==
				deriver.NodeCreationID(naming.Kind(owner), names.CreationToolName(naming.Kind(child)))
		},
		gen.Identifier(),
		gen.Identifier(),
	))

	properties.TestingRun(t)
}
