package models

import (
	"flag"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseVideoPolicy(t *testing.T) {
	for _, valid := range []string{"on", "off", "retain-on-failure", " off "} {
		_, err := ParseVideoPolicy(valid)
		assert.NoError(t, err, valid)
	}
	for _, invalid := range []string{"", "ON", "always", "retain_on_failure"} {
		_, err := ParseVideoPolicy(invalid)
		assert.Error(t, err, invalid)
	}
}

func TestVideoPolicyKeep(t *testing.T) {
	passed := TestOutcome{Status: OutcomePassed, Phase: PhaseCall}
	failed := TestOutcome{Status: OutcomeFailed, Phase: PhaseCall}
	errored := TestOutcome{Status: OutcomeErrored, Phase: PhaseCall}

	tests := []struct {
		policy  VideoPolicy
		outcome TestOutcome
		records bool
		keep    bool
	}{
		{VideoOn, passed, true, true},
		{VideoOn, failed, true, true},
		{VideoOff, passed, false, false},
		{VideoOff, failed, false, false},
		{VideoRetainOnFailure, passed, true, false},
		{VideoRetainOnFailure, failed, true, true},
		{VideoRetainOnFailure, errored, true, true},
		{VideoRetainOnFailure, TestOutcome{}, true, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.policy)+"/"+tt.outcome.String(), func(t *testing.T) {
			assert.Equal(t, tt.records, tt.policy.Records())
			assert.Equal(t, tt.keep, tt.policy.Keep(tt.outcome))
		})
	}
}

func TestVideoPolicyFlag(t *testing.T) {
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	policy := DefaultVideoPolicy
	fs.Var(&policy, "video", "video policy")

	require.NoError(t, fs.Parse([]string{"-video=off"}))
	assert.Equal(t, VideoOff, policy)

	fs = flag.NewFlagSet("test", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.Var(&policy, "video", "video policy")
	assert.Error(t, fs.Parse([]string{"-video=sometimes"}))
	assert.Equal(t, VideoOff, policy, "rejected value must not change the policy")
}
