// Package testutil provides shared helpers for server tests.
package testutil

import (
	"testing"

	"google.golang.org/protobuf/types/known/structpb"
)

// Struct builds a Struct message from a map payload for tests.
func Struct(t *testing.T, data map[string]any) *structpb.Struct {
	t.Helper()
	msg, err := structpb.NewStruct(data)
	if err != nil {
		t.Fatalf("build struct: %v", err)
	}
	return msg
}

// StructInt extracts a numeric value from a map payload for tests.
func StructInt(t *testing.T, data map[string]any, key string) int {
	t.Helper()
	value, ok := data[key]
	if !ok {
		t.Fatalf("payload missing %q", key)
	}
	switch typed := value.(type) {
	case int:
		return typed
	case int32:
		return int(typed)
	case int64:
		return int(typed)
	case float64:
		return int(typed)
	default:
		t.Fatalf("payload %q has type %T", key, value)
	}
	return 0
}

// StructList extracts a list value from a map payload for tests.
func StructList(t *testing.T, data map[string]any, key string) []any {
	t.Helper()
	value, ok := data[key].([]any)
	if !ok {
		t.Fatalf("payload %q is not a list: %T", key, data[key])
	}
	return value
}
