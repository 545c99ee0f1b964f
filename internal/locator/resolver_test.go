package locator

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/talentcheck/internal/common"
)

// mapCounter returns preset counts keyed by query
type mapCounter struct {
	counts map[string]int
	errs   map[string]error
	calls  []string
}

func (m *mapCounter) Count(_ context.Context, c Candidate) (int, error) {
	m.calls = append(m.calls, c.Query)
	if err, ok := m.errs[c.Query]; ok {
		return 0, err
	}
	return m.counts[c.Query], nil
}

func newResolver(c Counter) *Resolver {
	return NewResolver(c, common.NopLogger("Resolver"))
}

func TestResolve_Precedence(t *testing.T) {
	candidates := Of(CSS("#primary"), CSS(".secondary"), CSS(".tertiary"))

	tests := []struct {
		name      string
		counts    map[string]int
		wantIndex int
		wantCalls int
	}{
		{"first wins even when later match more", map[string]int{"#primary": 1, ".secondary": 5, ".tertiary": 9}, 0, 1},
		{"second when first absent", map[string]int{".secondary": 2, ".tertiary": 1}, 1, 2},
		{"last resort", map[string]int{".tertiary": 1}, 2, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			counter := &mapCounter{counts: tt.counts}
			got, err := newResolver(counter).Resolve(context.Background(), candidates)
			require.NoError(t, err)
			assert.Equal(t, tt.wantIndex, got.Index)
			assert.Equal(t, candidates[tt.wantIndex], got.Candidate)
			assert.Equal(t, tt.counts[candidates[tt.wantIndex].Query], got.Count)
			assert.Len(t, counter.calls, tt.wantCalls, "candidates after the winner must not be evaluated")
		})
	}
}

func TestResolve_NoMatchNamesEveryCandidate(t *testing.T) {
	candidates := Of(
		CSS("input#upload"),
		Name("file"),
		XPath("//input[@type='file']"),
	)
	counter := &mapCounter{counts: map[string]int{}}

	_, err := newResolver(counter).Resolve(context.Background(), candidates)

	var resErr *ResolutionError
	require.ErrorAs(t, err, &resErr)
	require.Len(t, resErr.Attempts, 3)
	for i, c := range candidates {
		assert.Equal(t, c, resErr.Attempts[i].Candidate)
		assert.Contains(t, err.Error(), c.Query)
	}

	// Alias name refers to the same type
	var noMatch *NoMatchError
	assert.True(t, errors.As(err, &noMatch))
}

func TestResolve_CounterErrorContinues(t *testing.T) {
	candidates := Of(XPath("//bad["), CSS("button.publish"))
	counter := &mapCounter{
		counts: map[string]int{"button.publish": 1},
		errs:   map[string]error{"//bad[": errors.New("SyntaxError")},
	}

	got, err := newResolver(counter).Resolve(context.Background(), candidates)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Index)
}

func TestResolve_ErrorsRecordedInDiagnostics(t *testing.T) {
	candidates := Of(XPath("//bad["))
	counter := &mapCounter{errs: map[string]error{"//bad[": errors.New("SyntaxError")}}

	_, err := newResolver(counter).Resolve(context.Background(), candidates)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SyntaxError")
}

func TestResolve_EmptyCandidates(t *testing.T) {
	_, err := newResolver(&mapCounter{}).Resolve(context.Background(), nil)
	var resErr *ResolutionError
	require.ErrorAs(t, err, &resErr)
	assert.Empty(t, resErr.Attempts)
}

func TestResolve_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	counter := &mapCounter{counts: map[string]int{"#a": 1}}
	_, err := newResolver(counter).Resolve(ctx, Of(CSS("#a")))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, counter.calls)
}

func TestDocumentCounter(t *testing.T) {
	html := `<html><body>
		<div class="ant-layout">
			<input id="upload" type="file">
			<input name="position" value="Software Test Engineer testing">
			<input placeholder="Search here">
			<button>Publish</button>
			<button>Publish</button>
		</div>
	</body></html>`

	counter, err := NewDocumentCounter(strings.NewReader(html))
	require.NoError(t, err)

	resolver := newResolver(counter)
	tests := []struct {
		name       string
		candidates Candidates
		wantIndex  int
		wantCount  int
	}{
		{"id", Of(ID("missing"), ID("upload")), 1, 1},
		{"name", Of(Name("position")), 0, 1},
		{"placeholder", Of(Placeholder("Search here")), 0, 1},
		{"xpath skipped then css", Of(ButtonText("Publish"), CSS("button")), 1, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := resolver.Resolve(context.Background(), tt.candidates)
			require.NoError(t, err)
			assert.Equal(t, tt.wantIndex, got.Index)
			assert.Equal(t, tt.wantCount, got.Count)
		})
	}

	_, err = counter.Count(context.Background(), Text("Publish"))
	assert.ErrorIs(t, err, ErrUnsupportedStrategy)
}
