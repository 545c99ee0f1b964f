package pages

import (
	"errors"
	"fmt"
)

// JobFormState tracks how far a job posting has progressed through the form
type JobFormState int

const (
	FormEmpty JobFormState = iota
	FileUploaded
	ParsingTriggered
	Parsed
	FieldsVerified
	Published
	SuccessConfirmed
	Viewable
)

var jobFormStateNames = map[JobFormState]string{
	FormEmpty:        "empty",
	FileUploaded:     "file_uploaded",
	ParsingTriggered: "parsing_triggered",
	Parsed:           "parsed",
	FieldsVerified:   "fields_verified",
	Published:        "published",
	SuccessConfirmed: "success_confirmed",
	Viewable:         "viewable",
}

func (s JobFormState) String() string {
	if name, ok := jobFormStateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("JobFormState(%d)", int(s))
}

// ErrInvalidTransition is wrapped by every TransitionError
var ErrInvalidTransition = errors.New("invalid job form transition")

// TransitionError reports a form operation called out of order
type TransitionError struct {
	Op   string
	From JobFormState
	To   JobFormState
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("%s: cannot move job form from %s to %s", e.Op, e.From, e.To)
}

func (e *TransitionError) Unwrap() error {
	return ErrInvalidTransition
}

// jobFormTransitions lists the states each state may move to
var jobFormTransitions = map[JobFormState][]JobFormState{
	FormEmpty:        {FileUploaded},
	FileUploaded:     {ParsingTriggered, FormEmpty},
	ParsingTriggered: {Parsed},
	Parsed:           {FieldsVerified, Published},
	FieldsVerified:   {Published},
	Published:        {SuccessConfirmed},
	SuccessConfirmed: {Viewable},
}

// CanTransition reports whether from may move to to
func CanTransition(from, to JobFormState) bool {
	for _, next := range jobFormTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// jobForm is the state holder embedded by the job details page
type jobForm struct {
	state JobFormState
}

// State returns the current form state
func (f *jobForm) State() JobFormState {
	return f.state
}

func (f *jobForm) require(op string, to JobFormState) error {
	if !CanTransition(f.state, to) {
		return &TransitionError{Op: op, From: f.state, To: to}
	}
	return nil
}

func (f *jobForm) advance(to JobFormState) {
	f.state = to
}
