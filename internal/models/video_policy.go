package models

import (
	"fmt"
	"strings"
)

// VideoPolicy governs whether session recordings are produced and kept
type VideoPolicy string

const (
	VideoOn              VideoPolicy = "on"
	VideoOff             VideoPolicy = "off"
	VideoRetainOnFailure VideoPolicy = "retain-on-failure"
)

// DefaultVideoPolicy is used when no flag or config value is supplied
const DefaultVideoPolicy = VideoRetainOnFailure

// ParseVideoPolicy accepts exactly on, off or retain-on-failure
func ParseVideoPolicy(s string) (VideoPolicy, error) {
	switch p := VideoPolicy(strings.TrimSpace(s)); p {
	case VideoOn, VideoOff, VideoRetainOnFailure:
		return p, nil
	default:
		return "", fmt.Errorf("invalid video policy %q (want on|off|retain-on-failure)", s)
	}
}

// Records reports whether a recording should be started at all
func (p VideoPolicy) Records() bool {
	return p != VideoOff
}

// Keep decides whether a finished recording survives teardown
func (p VideoPolicy) Keep(outcome TestOutcome) bool {
	switch p {
	case VideoOn:
		return true
	case VideoRetainOnFailure:
		return outcome.Failed()
	default:
		return false
	}
}

// String implements flag.Value
func (p *VideoPolicy) String() string {
	if p == nil || *p == "" {
		return string(DefaultVideoPolicy)
	}
	return string(*p)
}

// Set implements flag.Value
func (p *VideoPolicy) Set(s string) error {
	parsed, err := ParseVideoPolicy(s)
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}
