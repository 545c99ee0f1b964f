// -----------------------------------------------------------------------
// Resilient locator resolver - first candidate with a match wins
// -----------------------------------------------------------------------

package locator

import (
	"context"
	"fmt"
	"strings"

	"github.com/ternarybob/talentcheck/internal/common"
)

// Counter reports how many elements a candidate matches right now
type Counter interface {
	Count(ctx context.Context, c Candidate) (int, error)
}

// Resolved is the winning candidate
type Resolved struct {
	Candidate Candidate
	Index     int // Position in the candidate list
	Count     int // Matches at resolution time
}

// Attempt records what one candidate produced during resolution
type Attempt struct {
	Candidate Candidate
	Count     int
	Err       error
}

func (a Attempt) String() string {
	if a.Err != nil {
		return fmt.Sprintf("%s: error: %v", a.Candidate, a.Err)
	}
	return fmt.Sprintf("%s: %d matches", a.Candidate, a.Count)
}

// ResolutionError means no candidate matched. Attempts lists every candidate tried, in order.
type ResolutionError struct {
	Attempts []Attempt
}

// NoMatchError is the same failure under the name used by page objects
type NoMatchError = ResolutionError

func (e *ResolutionError) Error() string {
	if len(e.Attempts) == 0 {
		return "no locator candidates supplied"
	}
	lines := make([]string, len(e.Attempts))
	for i, a := range e.Attempts {
		lines[i] = fmt.Sprintf("  %d. %s", i+1, a)
	}
	return fmt.Sprintf("no locator candidate matched (%d tried):\n%s", len(e.Attempts), strings.Join(lines, "\n"))
}

// Resolver walks candidates strictly in order.
// It never waits, retries or touches the page beyond counting.
type Resolver struct {
	counter Counter
	logger  *common.Logger
}

// NewResolver creates a resolver over a counter
func NewResolver(counter Counter, logger *common.Logger) *Resolver {
	return &Resolver{counter: counter, logger: logger}
}

// Resolve returns the first candidate whose match count is greater than zero.
// Visibility is not considered; a counting error is recorded and the scan continues.
func (r *Resolver) Resolve(ctx context.Context, candidates Candidates) (Resolved, error) {
	attempts := make([]Attempt, 0, len(candidates))

	for i, c := range candidates {
		if err := ctx.Err(); err != nil {
			return Resolved{}, fmt.Errorf("resolution aborted after %d candidates: %w", i, err)
		}

		count, err := r.counter.Count(ctx, c)
		attempts = append(attempts, Attempt{Candidate: c, Count: count, Err: err})

		if err != nil {
			r.logger.Debug().Err(err).Str("candidate", c.String()).Msg("Candidate count failed")
			continue
		}
		if count > 0 {
			if i > 0 {
				r.logger.Debug().
					Str("candidate", c.String()).
					Int("position", i).
					Msg("Resolved by fallback candidate")
			}
			return Resolved{Candidate: c, Index: i, Count: count}, nil
		}
	}

	err := &ResolutionError{Attempts: attempts}
	r.logger.Debug().Strs("candidates", candidates.Labels()).Msg("No locator candidate matched")
	return Resolved{}, err
}
