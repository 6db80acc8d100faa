// Package toolid is the identifier format the diagram service uses to assign
// ids to descriptions and palette tools. Harness code derives ids with the
// same functions, so any change here changes both sides at once.
//
// An id is a name-based SHA-1 UUID in Namespace over a canonical key:
//
//	description/<descriptionName>
//	<descriptionID>/node/<nodeDescriptionName>/tool/<toolName>
//	<descriptionID>/edge/<edgeDescriptionName>/tool/<toolName>
//
// Every component is path-escaped before joining, so a "/" inside a name can
// never shift the key layout.
package toolid

import (
	"net/url"
	"strings"

	"github.com/google/uuid"
)

// Namespace scopes every derived id.
var Namespace = uuid.MustParse("6f1f0c4e-2d7a-5b8e-9c3a-4e5d6f7a8b9c")

const (
	sep        = "/"
	nodeScope  = "node"
	edgeScope  = "edge"
	toolScope  = "tool"
	descrScope = "description"
)

// Description returns the id of a diagram description.
func Description(name string) string {
	return derive(descrScope, name)
}

// NodeTool returns the id of a creation tool in the palette of a node
// description.
func NodeTool(descriptionID, nodeDescriptionName, toolName string) string {
	return derive(descriptionID, nodeScope, nodeDescriptionName, toolScope, toolName)
}

// EdgeNodeTool returns the id of a tool that creates a node on an edge of the
// given edge description.
func EdgeNodeTool(descriptionID, edgeDescriptionName, toolName string) string {
	return derive(descriptionID, edgeScope, edgeDescriptionName, toolScope, toolName)
}

// Key returns the canonical key for parts. Exposed for diagnostics.
func Key(parts ...string) string {
	escaped := make([]string, len(parts))
	for i, part := range parts {
		escaped[i] = url.PathEscape(part)
	}
	return strings.Join(escaped, sep)
}

func derive(parts ...string) string {
	return uuid.NewSHA1(Namespace, []byte(Key(parts...))).String()
}
