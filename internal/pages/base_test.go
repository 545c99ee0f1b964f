package pages

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/chromedp/chromedp/kb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/talentcheck/internal/common"
	"github.com/ternarybob/talentcheck/internal/locator"
	"github.com/ternarybob/talentcheck/internal/models"
)

func TestKeyFor(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Enter", kb.Enter},
		{"return", kb.Enter},
		{"Escape", kb.Escape},
		{"TAB", kb.Tab},
		{"ArrowDown", kb.ArrowDown},
		{"abc", "abc"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, KeyFor(tt.in), tt.in)
	}
}

func TestSampleText(t *testing.T) {
	html := `<html><head><style>.x{}</style></head><body>
		<script>var hidden = 1;</script>
		<h1>Post   New Job</h1>
		<p>View All
		Jobs</p>
	</body></html>`

	assert.Equal(t, "Post New Job View All Jobs", SampleText(html, 500))
	assert.Equal(t, "Post New", SampleText(html, 8))
	assert.Equal(t, "", SampleText("", 10))
}

func TestContainsFold(t *testing.T) {
	assert.True(t, ContainsFold("Software Test Engineer testing", "software test"))
	assert.True(t, ContainsFold("SproutsAI", "sproutsai"))
	assert.False(t, ContainsFold("QA Lead", "Software Test"))
	assert.True(t, ContainsFold("anything", ""))
}

func TestTruncateCountsRunes(t *testing.T) {
	assert.Equal(t, "₹20", truncate("₹200001", 3))
	assert.Equal(t, "short", truncate("short", 0))
}

func TestDescribeState(t *testing.T) {
	assert.Equal(t, "absent", describeState(ElementState{}))
	assert.Equal(t, "hidden", describeState(ElementState{Count: 1}))
	assert.Equal(t, "disabled", describeState(ElementState{Count: 1, Visible: true}))
	assert.Equal(t, "enabled", describeState(ElementState{Count: 1, Visible: true, Enabled: true}))
}

func TestPollTimesOutWithElapsed(t *testing.T) {
	b := &Base{logger: common.NopLogger("test"), interval: 5 * time.Millisecond}
	cs := locator.Of(locator.ButtonText("Parsed"))

	calls := 0
	err := b.poll(context.Background(), "wait for parsed", cs, 30*time.Millisecond, func(ctx context.Context) (bool, error) {
		calls++
		return false, errors.New("evaluate failed")
	})

	var terr *TimeoutError
	require.True(t, errors.As(err, &terr))
	assert.Equal(t, "wait for parsed", terr.Op)
	assert.Equal(t, 30*time.Millisecond, terr.Timeout)
	assert.GreaterOrEqual(t, terr.Elapsed, 30*time.Millisecond)
	assert.Equal(t, cs.Labels(), terr.Locator)
	assert.EqualError(t, terr.Last, "evaluate failed")
	assert.Greater(t, calls, 1)
}

func TestPollSucceeds(t *testing.T) {
	b := &Base{logger: common.NopLogger("test"), interval: time.Millisecond}

	calls := 0
	err := b.poll(context.Background(), "op", nil, time.Second, func(ctx context.Context) (bool, error) {
		calls++
		return calls == 3, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestPollAbortedByCaller(t *testing.T) {
	b := &Base{logger: common.NopLogger("test"), interval: time.Millisecond}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := b.poll(ctx, "op", nil, time.Second, func(ctx context.Context) (bool, error) {
		return false, nil
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)

	var terr *TimeoutError
	assert.False(t, errors.As(err, &terr))
}

func TestErrorMessages(t *testing.T) {
	terr := &TimeoutError{
		Op:      "wait visible",
		Locator: []string{"button Parsed"},
		Timeout: 150 * time.Second,
		Elapsed: 150 * time.Second,
	}
	assert.Equal(t, "wait visible: timed out after 2m30s (limit 2m30s) waiting for [button Parsed]", terr.Error())

	aerr := &AssertionError{Assertion: "value contains", Expected: "Software Test", Actual: "", Err: terr}
	assert.ErrorIs(t, aerr, terr)
	assert.Contains(t, aerr.Error(), `want "Software Test", got ""`)
}

func TestSalaryPattern(t *testing.T) {
	job := models.JobPosting{Currency: "₹", Duration: "Per day"}
	p := SalaryPattern(job)
	require.NotNil(t, p)
	assert.True(t, p.MatchString("Salary ₹200001 - ₹400002 Per day"))
	assert.False(t, p.MatchString("Salary $200001 Per day"))

	assert.Nil(t, SalaryPattern(models.JobPosting{}))

	// Currency symbols with regex meaning are quoted
	assert.True(t, SalaryPattern(models.JobPosting{Currency: "$", Duration: "Per hour"}).MatchString("$10 Per hour"))
}
