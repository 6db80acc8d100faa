// Package id generates opaque identifiers for scenario runs and editing
// sessions.
package id

import (
	"encoding/base32"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

var encoding = base32.StdEncoding.WithPadding(base32.NoPadding)

// NewID returns a random version 4 UUID as 26 lowercase base32 characters.
func NewID() (string, error) {
	value, err := uuid.NewRandom()
	if err != nil {
		return "", fmt.Errorf("generate id: %w", err)
	}
	return strings.ToLower(encoding.EncodeToString(value[:])), nil
}

// MustNewID is NewID for callers with no error path.
func MustNewID() string {
	value, err := NewID()
	if err != nil {
		panic(err)
	}
	return value
}
