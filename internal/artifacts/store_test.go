package artifacts

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/talentcheck/internal/common"
	"github.com/ternarybob/talentcheck/internal/models"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	root := t.TempDir()
	s := NewStore(common.ArtifactsConfig{
		ScreenshotsDir: filepath.Join(root, "screenshots"),
		VideosDir:      filepath.Join(root, "videos"),
		SnapshotsDir:   filepath.Join(root, "snapshots"),
	}, common.NopLogger("ArtifactStore"))
	s.now = func() time.Time { return time.Date(2024, 3, 9, 14, 5, 7, 0, time.UTC) }
	return s
}

func TestSanitizeName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"TestLogin", "TestLogin"},
		{"TestCreateJob/RECRUITER", "TestCreateJob_RECRUITER"},
		{"TestX/with spaces & symbols!", "TestX_with_spaces_symbols"},
		{"///", "unnamed"},
		{"", "unnamed"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, SanitizeName(tt.in), tt.in)
	}
}

func TestStore_Paths(t *testing.T) {
	s := newTestStore(t)
	at := time.Date(2024, 3, 9, 14, 5, 7, 0, time.UTC)

	assert.Equal(t, "TestLogin_2024-03-09_14-05-07.png", filepath.Base(s.ScreenshotPath("TestLogin", at)))
	assert.Equal(t, "TestLogin_2024-03-09_14-05-07.md", filepath.Base(s.SnapshotPath("TestLogin", at)))
	assert.Equal(t, "ctx_abc.mjpeg", filepath.Base(s.VideoPath("ctx_abc")))
}

func TestStore_WriteScreenshot(t *testing.T) {
	s := newTestStore(t)

	rec, err := s.WriteScreenshot("TestCreateJob/RECRUITER", "ctx_1", []byte("\x89PNG fake"))
	require.NoError(t, err)

	assert.Equal(t, models.ArtifactImage, rec.Kind)
	assert.Equal(t, "ctx_1", rec.ContextID)
	assert.True(t, strings.HasPrefix(filepath.Base(rec.Path), "TestCreateJob_RECRUITER_"))

	data, err := os.ReadFile(rec.Path)
	require.NoError(t, err)
	assert.Equal(t, "\x89PNG fake", string(data))
}

func TestStore_WriteSnapshot(t *testing.T) {
	s := newTestStore(t)

	html := `<html><body><h1>Job Details</h1><p>Parsing <strong>failed</strong></p></body></html>`
	rec, err := s.WriteSnapshot("TestCreateJob", "ctx_1", "https://app.example.com/jobs/new", html)
	require.NoError(t, err)
	assert.Equal(t, models.ArtifactDOM, rec.Kind)

	data, err := os.ReadFile(rec.Path)
	require.NoError(t, err)
	content := string(data)
	assert.Contains(t, content, "# TestCreateJob")
	assert.Contains(t, content, "https://app.example.com/jobs/new")
	assert.Contains(t, content, "Job Details")
	assert.Contains(t, content, "**failed**")
}

func TestStore_ApplyVideoPolicy(t *testing.T) {
	passed := models.TestOutcome{Status: models.OutcomePassed, Phase: models.PhaseCall}
	failed := models.TestOutcome{Status: models.OutcomeFailed, Phase: models.PhaseCall}
	errored := models.TestOutcome{Status: models.OutcomeErrored, Phase: models.PhaseSetup}

	tests := []struct {
		name     string
		policy   models.VideoPolicy
		outcome  models.TestOutcome
		wantKept bool
	}{
		{"on passed", models.VideoOn, passed, true},
		{"on failed", models.VideoOn, failed, true},
		{"retain passed", models.VideoRetainOnFailure, passed, false},
		{"retain failed", models.VideoRetainOnFailure, failed, true},
		{"retain errored", models.VideoRetainOnFailure, errored, true},
		{"retain unrecorded", models.VideoRetainOnFailure, models.TestOutcome{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestStore(t)
			require.NoError(t, s.EnsureVideoDir())
			path := s.VideoPath("ctx_" + SanitizeName(tt.name))
			require.NoError(t, os.WriteFile(path, []byte("frames"), 0644))

			kept, err := s.ApplyVideoPolicy(tt.policy, models.ArtifactRecord{Path: path, Kind: models.ArtifactVideo}, tt.outcome)
			require.NoError(t, err)
			assert.Equal(t, tt.wantKept, kept)

			_, statErr := os.Stat(path)
			if tt.wantKept {
				assert.NoError(t, statErr)
			} else {
				assert.True(t, errors.Is(statErr, os.ErrNotExist))
			}
		})
	}
}

func TestStore_ApplyVideoPolicy_Off(t *testing.T) {
	s := newTestStore(t)
	for _, outcome := range []models.OutcomeStatus{models.OutcomePassed, models.OutcomeFailed} {
		kept, err := s.ApplyVideoPolicy(models.VideoOff, models.ArtifactRecord{}, models.TestOutcome{Status: outcome})
		require.NoError(t, err)
		assert.False(t, kept)
	}

	_, err := os.Stat(s.VideosDir())
	assert.True(t, errors.Is(err, os.ErrNotExist), "off must not create the videos directory")
}

func TestStore_ApplyVideoPolicy_MissingKeptFile(t *testing.T) {
	s := newTestStore(t)

	_, err := s.ApplyVideoPolicy(models.VideoOn, models.ArtifactRecord{Path: s.VideoPath("gone")}, models.TestOutcome{Status: models.OutcomePassed})
	var ioErr *ArtifactIOError
	require.ErrorAs(t, err, &ioErr)
	assert.Equal(t, "stat", ioErr.Op)

	// Deleting an already missing file is not an error
	kept, err := s.ApplyVideoPolicy(models.VideoRetainOnFailure, models.ArtifactRecord{Path: s.VideoPath("gone")}, models.TestOutcome{Status: models.OutcomePassed})
	assert.NoError(t, err)
	assert.False(t, kept)
}
