package session

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNoAuthenticator is returned by AcquireMultiUser when no login flow is configured
var ErrNoAuthenticator = errors.New("multi-user session requires an authenticator")

// SessionSetupError is a failure to create or log in one execution context
type SessionSetupError struct {
	Role  string
	Stage string // "open" or "login"
	Err   error
}

func (e *SessionSetupError) Error() string {
	if e.Role == "" {
		return fmt.Sprintf("session setup failed at %s: %v", e.Stage, e.Err)
	}
	return fmt.Sprintf("session setup failed for role %s at %s: %v", e.Role, e.Stage, e.Err)
}

func (e *SessionSetupError) Unwrap() error {
	return e.Err
}

// MultiUserError aggregates the roles that could not be set up
type MultiUserError struct {
	Failures []*SessionSetupError
}

func (e *MultiUserError) Error() string {
	parts := make([]string, len(e.Failures))
	for i, f := range e.Failures {
		parts[i] = f.Error()
	}
	return fmt.Sprintf("%d role(s) failed: %s", len(e.Failures), strings.Join(parts, "; "))
}

// Unwrap exposes every role failure to errors.Is / errors.As
func (e *MultiUserError) Unwrap() []error {
	out := make([]error, len(e.Failures))
	for i, f := range e.Failures {
		out[i] = f
	}
	return out
}

// Roles lists the failed roles in order
func (e *MultiUserError) Roles() []string {
	out := make([]string, len(e.Failures))
	for i, f := range e.Failures {
		out[i] = f.Role
	}
	return out
}
