package pages

import (
	"fmt"
	"strings"
	"time"
)

// TimeoutError is a bounded wait that ran out
type TimeoutError struct {
	Op      string
	Locator []string // Candidate labels, empty for page-level waits
	Timeout time.Duration
	Elapsed time.Duration
	Last    error // Last error seen while polling, if any
}

func (e *TimeoutError) Error() string {
	msg := fmt.Sprintf("%s: timed out after %s (limit %s)", e.Op, e.Elapsed.Round(time.Millisecond), e.Timeout)
	if len(e.Locator) > 0 {
		msg += " waiting for [" + strings.Join(e.Locator, " | ") + "]"
	}
	if e.Last != nil {
		msg += fmt.Sprintf(": last error: %v", e.Last)
	}
	return msg
}

func (e *TimeoutError) Unwrap() error {
	return e.Last
}

// AssertionError is a UI expectation that did not hold within its bound
type AssertionError struct {
	Assertion string
	Expected  string
	Actual    string
	Err       error
}

func (e *AssertionError) Error() string {
	return fmt.Sprintf("expect %s: want %q, got %q: %v", e.Assertion, e.Expected, e.Actual, e.Err)
}

func (e *AssertionError) Unwrap() error {
	return e.Err
}
