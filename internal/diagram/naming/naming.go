// Package naming maps structural kinds to the display names the diagram
// description uses for node descriptions, edge descriptions and tools.
package naming

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// DefaultPrefix names the general view diagram description.
const DefaultPrefix = "GV"

// Kind is a structural type name such as "Package" or "PartUsage".
// Canonical kinds are ASCII CamelCase: an upper-case letter followed by
// letters only.
type Kind string

// ErrInvalidKind reports a kind that is not canonical CamelCase.
var ErrInvalidKind = errors.New("kind must be ASCII CamelCase")

// Validate reports whether k is canonical. Names are only injective over
// canonical kinds: "Part_Usage", "partUsage" and "Part Usage" all read as
// "Part Usage".
func (k Kind) Validate() error {
	if k == "" {
		return fmt.Errorf("%w: empty", ErrInvalidKind)
	}
	for i, r := range string(k) {
		switch {
		case r >= 'A' && r <= 'Z':
		case i > 0 && r >= 'a' && r <= 'z':
		default:
			return fmt.Errorf("%w: %q", ErrInvalidKind, string(k))
		}
	}
	return nil
}

// Namer is the kind-naming contract. Over canonical kinds (see
// Kind.Validate) implementations must be pure, deterministic and injective
// per method, and NodeName(k) must never equal EdgeName(k).
type Namer interface {
	NodeName(kind Kind) string
	EdgeName(kind Kind) string
	CreationToolName(kind Kind) string
}

// Generator derives names from a diagram prefix.
// A Caser is stateful, so Name builds one per call.
type Generator struct {
	prefix string
}

// NewGenerator returns a Generator for prefix, or DefaultPrefix when empty.
func NewGenerator(prefix string) *Generator {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &Generator{prefix: prefix}
}

// Prefix returns the diagram prefix.
func (g *Generator) Prefix() string {
	return g.prefix
}

// Name returns the display name of a kind: "PartUsage" becomes "Part Usage".
func (g *Generator) Name(kind Kind) string {
	title := cases.Title(language.English, cases.NoLower)
	words := SplitWords(string(kind))
	for i, word := range words {
		words[i] = title.String(word)
	}
	return strings.Join(words, " ")
}

// NodeName returns the node description name, e.g. "GV Node Package".
func (g *Generator) NodeName(kind Kind) string {
	return g.prefix + " Node " + g.Name(kind)
}

// EdgeName returns the edge description name, e.g. "GV Edge Dependency".
func (g *Generator) EdgeName(kind Kind) string {
	return g.prefix + " Edge " + g.Name(kind)
}

// CreationToolName returns the conventional creation tool name, e.g.
// "New Action".
func (g *Generator) CreationToolName(kind Kind) string {
	return "New " + g.Name(kind)
}

// SplitWords splits CamelCase, snake_case and spaced identifiers into words.
// Acronyms stay together: "HTTPServer" splits into "HTTP" and "Server".
func SplitWords(s string) []string {
	var words []string
	runes := []rune(strings.TrimSpace(s))
	start := -1
	flush := func(end int) {
		if start >= 0 && end > start {
			words = append(words, string(runes[start:end]))
		}
		start = -1
	}
	for i, r := range runes {
		if r == '_' || r == '-' || unicode.IsSpace(r) {
			flush(i)
			continue
		}
		if start < 0 {
			start = i
			continue
		}
		prev := runes[i-1]
		switch {
		case unicode.IsUpper(r) && unicode.IsLower(prev):
			flush(i)
			start = i
		case unicode.IsUpper(r) && unicode.IsUpper(prev) && i+1 < len(runes) && unicode.IsLower(runes[i+1]):
			flush(i)
			start = i
		}
	}
	flush(len(runes))
	return words
}
