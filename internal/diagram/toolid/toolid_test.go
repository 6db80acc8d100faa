package toolid

import (
	"testing"

	"github.com/google/uuid"
)

func TestNodeToolIsDeterministic(t *testing.T) {
	desc := Description("General View")
	first := NodeTool(desc, "GV Node Package", "New Action")
	second := NodeTool(desc, "GV Node Package", "New Action")
	if first != second {
		t.Fatalf("ids differ: %s vs %s", first, second)
	}
	if _, err := uuid.Parse(first); err != nil {
		t.Fatalf("id is not a UUID: %v", err)
	}
}

func TestNodeToolAndEdgeNodeToolDiffer(t *testing.T) {
	desc := Description("General View")
	if NodeTool(desc, "GV X", "New Y") == EdgeNodeTool(desc, "GV X", "New Y") {
		t.Fatal("node and edge scopes must not collide")
	}
}

func TestIDsDependOnEveryComponent(t *testing.T) {
	base := NodeTool("d1", "GV Node Package", "New Action")
	variants := []string{
		NodeTool("d2", "GV Node Package", "New Action"),
		NodeTool("d1", "GV Node Part", "New Action"),
		NodeTool("d1", "GV Node Package", "New Part"),
	}
	for i, variant := range variants {
		if variant == base {
			t.Fatalf("variant %d collides with base id", i)
		}
	}
}

// Pinned so an accidental change to the key layout fails loudly; the diagram
// service and every recorded scenario depend on these values.
func TestKnownKeyLayout(t *testing.T) {
	if got := Key("d1", "node", "GV Node Package", "tool", "New Action"); got != "d1/node/GV%20Node%20Package/tool/New%20Action" {
		t.Fatalf("key = %q", got)
	}
	want := uuid.NewSHA1(Namespace, []byte("d1/node/GV%20Node%20Package/tool/New%20Action")).String()
	if got := NodeTool("d1", "GV Node Package", "New Action"); got != want {
		t.Fatalf("NodeTool = %s, want %s", got, want)
	}
}

func TestSeparatorInsideNamesDoesNotCollide(t *testing.T) {
	tests := []struct {
		name  string
		left  string
		right string
	}{
		{
			name:  "node tool shifted across separator",
			left:  NodeTool("desc", "A/tool/B", "C"),
			right: NodeTool("desc", "A", "B/tool/C"),
		},
		{
			name:  "edge tool shifted across separator",
			left:  EdgeNodeTool("desc", "A/tool/B", "C"),
			right: EdgeNodeTool("desc", "A", "B/tool/C"),
		},
		{
			name:  "scope injected through description id",
			left:  NodeTool("desc/edge/X", "Y", "Z"),
			right: EdgeNodeTool("desc", "X/node/Y", "Z"),
		},
		{
			name:  "escaped form does not alias a raw slash",
			left:  NodeTool("desc", "A%2Ftool%2FB", "C"),
			right: NodeTool("desc", "A/tool/B", "C"),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.left == tt.right {
				t.Fatalf("ids collide: %s", tt.left)
			}
		})
	}
	if got := Key("a/b", "c"); got != "a%2Fb/c" {
		t.Fatalf("key = %q, want a%%2Fb/c", got)
	}
}
