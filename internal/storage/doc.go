// Package storage defines the persistence contract for the scenario run
// journal.
//
// A journal records one row per executed step of a verified sequence so a
// failing run can be inspected after the fact. Implementations live in
// subpackages (e.g. sqlite).
//
// # Error Types
//
//   - ErrNotFound: Indicates a requested run has no recorded steps.
package storage
