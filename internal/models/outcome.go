package models

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

// OutcomeStatus is the result of one test phase as reported by the host runner
type OutcomeStatus string

const (
	OutcomePassed  OutcomeStatus = "passed"
	OutcomeFailed  OutcomeStatus = "failed"
	OutcomeErrored OutcomeStatus = "errored"
	OutcomeSkipped OutcomeStatus = "skipped"
)

// Phase identifies when an outcome was recorded
type Phase string

const (
	PhaseSetup    Phase = "setup"
	PhaseCall     Phase = "call"
	PhaseTeardown Phase = "teardown"
)

// ErrOutcomeRecorded is returned when a phase already has an outcome
var ErrOutcomeRecorded = errors.New("outcome already recorded for phase")

// TestOutcome is the result of a single test execution for one phase.
// The zero value means "not recorded" and is treated as not failed.
type TestOutcome struct {
	Status     OutcomeStatus `json:"status"`
	Phase      Phase         `json:"phase"`
	RecordedAt time.Time     `json:"recorded_at"`
}

// Recorded reports whether the runner supplied an outcome at all
func (o TestOutcome) Recorded() bool {
	return o.Status != ""
}

// Failed reports whether the outcome should be treated as a failure.
// Errors raised outside assertions count as failures.
func (o TestOutcome) Failed() bool {
	return o.Status == OutcomeFailed || o.Status == OutcomeErrored
}

func (o TestOutcome) String() string {
	if !o.Recorded() {
		return "unrecorded"
	}
	return fmt.Sprintf("%s@%s", o.Status, o.Phase)
}

// OutcomeRecorder collects per-phase outcomes for one test.
// Each phase can be recorded once; later attempts are rejected.
type OutcomeRecorder struct {
	mu       sync.Mutex
	outcomes map[Phase]TestOutcome
	now      func() time.Time
}

// NewOutcomeRecorder creates an empty recorder
func NewOutcomeRecorder() *OutcomeRecorder {
	return &OutcomeRecorder{
		outcomes: make(map[Phase]TestOutcome),
		now:      time.Now,
	}
}

// Record stores the outcome for a phase
func (r *OutcomeRecorder) Record(phase Phase, status OutcomeStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.outcomes[phase]; ok {
		return fmt.Errorf("%w: %s (%s)", ErrOutcomeRecorded, phase, existing.Status)
	}
	r.outcomes[phase] = TestOutcome{Status: status, Phase: phase, RecordedAt: r.now()}
	return nil
}

// Get returns the outcome recorded for a phase
func (r *OutcomeRecorder) Get(phase Phase) (TestOutcome, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.outcomes[phase]
	return o, ok
}

// Final returns the outcome that drives teardown decisions.
// A failed setup wins over the call phase; otherwise the call phase is used.
// If nothing was recorded the zero TestOutcome is returned.
func (r *OutcomeRecorder) Final() TestOutcome {
	r.mu.Lock()
	defer r.mu.Unlock()

	if setup, ok := r.outcomes[PhaseSetup]; ok && setup.Failed() {
		return setup
	}
	if call, ok := r.outcomes[PhaseCall]; ok {
		return call
	}
	return TestOutcome{}
}
