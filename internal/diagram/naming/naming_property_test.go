//go:build property

package naming_test

import (
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/louisbranch/diagramharness/internal/diagram/naming"
)

// canonicalKind builds CamelCase kinds from letter-only words that each start
// with an upper-case letter.
func canonicalKind() gopter.Gen {
	word := gopter.CombineGens(gen.AlphaUpperChar(), gen.AlphaString()).
		Map(func(values []interface{}) string {
			return string(values[0].(rune)) + values[1].(string)
		})
	return gen.SliceOf(word).
		SuchThat(func(words []string) bool { return len(words) > 0 }).
		Map(func(words []string) naming.Kind {
			return naming.Kind(strings.Join(words, ""))
		})
}

// Property: dropping the spaces from Name(k) gives k back, so Name is
// injective over canonical kinds.
func TestNameRoundTripsCanonicalKinds(t *testing.T) {
	g := naming.NewGenerator("")

	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 300
	properties := gopter.NewProperties(parameters)

	properties.Property("name round trips", prop.ForAll(
		func(kind naming.Kind) bool {
			return kind.Validate() == nil &&
				strings.ReplaceAll(g.Name(kind), " ", "") == string(kind)
		},
		canonicalKind(),
	))

	properties.Property("distinct kinds get distinct tool names", prop.ForAll(
		func(a, b naming.Kind) bool {
			if a == b {
				return true
			}
			return g.NodeName(a) != g.NodeName(b) &&
				g.EdgeName(a) != g.EdgeName(b) &&
				g.CreationToolName(a) != g.CreationToolName(b)
		},
		canonicalKind(),
		canonicalKind(),
	))

	properties.TestingRun(t)
}

// Property: lower-casing the first letter or inserting an underscore or a
// space makes a kind non-canonical, so those aliases are rejected.
func TestMixedCaseAndUnderscoreKindsAreRejected(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 300
	properties := gopter.NewProperties(parameters)

	properties.Property("aliases fail validation", prop.ForAll(
		func(kind naming.Kind, cut int, sep string) bool {
			s := string(kind)
			lowered := naming.Kind(strings.ToLower(s[:1]) + s[1:])
			at := 1 + cut%len(s)
			spliced := naming.Kind(s[:at] + sep + s[at:])
			return lowered.Validate() != nil && spliced.Validate() != nil
		},
		canonicalKind(),
		gen.IntRange(0, 64),
		gen.OneConstOf("_", " ", "-"),
	))

	properties.TestingRun(t)
}
