//go:build e2e

package ui

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/talentcheck/internal/harness"
	"github.com/ternarybob/talentcheck/internal/models"
	"github.com/ternarybob/talentcheck/internal/pages"
)

func TestVideoOff_LeavesNoRecording(t *testing.T) {
	s := requireSuite(t)
	if s.Config().VideoPolicy() != models.VideoOff {
		t.Skip("run with -video=off")
	}

	var contextID string
	t.Run("session", func(t *testing.T) {
		ec := s.Single(t)
		contextID = ec.ID()
		assert.Nil(t, ec.Recording())

		login := pages.NewLoginPage(ec, s.Logs())
		harness.Fatal(t, "open login", login.Open(s.Context(), s.Config().App.BaseURL))
	})
	require.NotEmpty(t, contextID)

	entries, err := os.ReadDir(s.Config().Artifacts.VideosDir)
	if os.IsNotExist(err) {
		return
	}
	require.NoError(t, err)

	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	assert.Empty(t, names, "videos dir must stay empty with -video=off (last context %s)", contextID)
}
