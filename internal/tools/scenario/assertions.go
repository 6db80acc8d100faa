package scenario

import (
	"fmt"
	"log"
)

// AssertionMode controls whether failed expectations stop a scenario.
type AssertionMode int

const (
	// AssertionStrict fails the step on the first unmet expectation.
	AssertionStrict AssertionMode = iota
	// AssertionLogOnly logs unmet expectations and keeps going.
	AssertionLogOnly
)

// Assertions reports expectation failures according to Mode.
type Assertions struct {
	Mode   AssertionMode
	Logger *log.Logger
}

// Failf returns an error regardless of mode. Use it for broken scenarios,
// not for unmet expectations.
func (a Assertions) Failf(format string, args ...any) error {
	return fmt.Errorf(format, args...)
}

// Assertf reports an unmet expectation: an error in strict mode, a log line
// in log-only mode.
func (a Assertions) Assertf(format string, args ...any) error {
	if a.Mode == AssertionLogOnly {
		if a.Logger != nil {
			a.Logger.Printf("assertion skipped: "+format, args...)
		}
		return nil
	}
	return fmt.Errorf(format, args...)
}
