package scenario

import (
	"fmt"
	"sort"
	"strings"

	"github.com/louisbranch/diagramharness/internal/diagram/event"
)

func (r *Runner) failf(format string, args ...any) error {
	return r.assertions.Failf(format, args...)
}

func (r *Runner) assertf(format string, args ...any) error {
	return r.assertions.Assertf(format, args...)
}

func requiredString(args map[string]any, key string) string {
	value, ok := args[key]
	if !ok {
		return ""
	}
	text, ok := value.(string)
	if ok && text != "" {
		return text
	}
	return ""
}

func readInt(args map[string]any, key string) (int, bool) {
	value, ok := args[key]
	if !ok {
		return 0, false
	}
	switch typed := value.(type) {
	case int:
		return typed, true
	case float64:
		return int(typed), true
	default:
		return 0, false
	}
}

func optionalString(args map[string]any, key, fallback string) string {
	value, ok := args[key]
	if !ok {
		return fallback
	}
	text, ok := value.(string)
	if ok && text != "" {
		return text
	}
	return fallback
}

func optionalInt(args map[string]any, key string, fallback int) int {
	if value, ok := readInt(args, key); ok {
		return value
	}
	return fallback
}

func readStringSlice(args map[string]any, key string) []string {
	value, ok := args[key]
	if !ok {
		return nil
	}
	if text, ok := value.(string); ok {
		if trimmed := strings.TrimSpace(text); trimmed != "" {
			return []string{trimmed}
		}
		return nil
	}
	list, ok := value.([]any)
	if !ok {
		return nil
	}
	results := make([]string, 0, len(list))
	for _, entry := range list {
		text, ok := entry.(string)
		if !ok {
			continue
		}
		trimmed := strings.TrimSpace(text)
		if trimmed != "" {
			results = append(results, trimmed)
		}
	}
	return results
}

// readSeeds reads the nodes of a diagram step. Entries are either a kind
// string or a {kind, label} table.
func readSeeds(args map[string]any) ([]event.Seed, error) {
	value, ok := args["nodes"]
	if !ok {
		return nil, nil
	}
	list, ok := value.([]any)
	if !ok {
		return nil, fmt.Errorf("diagram nodes must be a list")
	}
	seeds := make([]event.Seed, 0, len(list))
	for i, entry := range list {
		switch typed := entry.(type) {
		case string:
			seeds = append(seeds, event.Seed{Kind: typed})
		case map[string]any:
			kind := requiredString(typed, "kind")
			if kind == "" {
				return nil, fmt.Errorf("diagram node %d kind is required", i+1)
			}
			seeds = append(seeds, event.Seed{Kind: kind, Label: optionalString(typed, "label", "")})
		default:
			return nil, fmt.Errorf("diagram node %d must be a kind or table", i+1)
		}
	}
	return seeds, nil
}

// readVariables reads tool variables. A map is ordered by name; a list of
// {name, value, type} tables keeps script order.
func readVariables(args map[string]any) ([]event.ToolVariable, error) {
	value, ok := args["variables"]
	if !ok {
		return nil, nil
	}
	switch typed := value.(type) {
	case map[string]any:
		names := make([]string, 0, len(typed))
		for name := range typed {
			names = append(names, name)
		}
		sort.Strings(names)
		vars := make([]event.ToolVariable, 0, len(names))
		for _, name := range names {
			vars = append(vars, event.ToolVariable{Name: name, Value: fmt.Sprint(typed[name]), Type: variableType(typed[name])})
		}
		return vars, nil
	case []any:
		vars := make([]event.ToolVariable, 0, len(typed))
		for i, entry := range typed {
			item, ok := entry.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("variable %d must be a table", i+1)
			}
			name := requiredString(item, "name")
			if name == "" {
				return nil, fmt.Errorf("variable %d name is required", i+1)
			}
			raw := item["value"]
			vars = append(vars, event.ToolVariable{
				Name:  name,
				Value: fmt.Sprint(raw),
				Type:  optionalString(item, "type", variableType(raw)),
			})
		}
		return vars, nil
	default:
		return nil, fmt.Errorf("variables must be a table")
	}
}

func variableType(value any) string {
	switch value.(type) {
	case bool:
		return "boolean"
	case int, float64:
		return "number"
	default:
		return "string"
	}
}
