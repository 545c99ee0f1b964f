// -----------------------------------------------------------------------
// Artifact store - screenshot/video/snapshot naming and retention
// -----------------------------------------------------------------------

package artifacts

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	md "github.com/JohannesKaufmann/html-to-markdown"

	"github.com/ternarybob/talentcheck/internal/common"
	"github.com/ternarybob/talentcheck/internal/models"
)

// TimestampFormat is used in screenshot and snapshot file names
const TimestampFormat = "2006-01-02_15-04-05"

// VideoExt is the container written by Recording (concatenated JPEG frames)
const VideoExt = ".mjpeg"

var unsafeName = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// Store owns the artifact directories. Directories are created on first use
// and never removed; concurrent writers stay apart by test name + timestamp.
type Store struct {
	screenshotsDir string
	videosDir      string
	snapshotsDir   string
	logger         *common.Logger
	now            func() time.Time
}

// NewStore creates a store rooted at the configured directories
func NewStore(config common.ArtifactsConfig, logger *common.Logger) *Store {
	return &Store{
		screenshotsDir: config.ScreenshotsDir,
		videosDir:      config.VideosDir,
		snapshotsDir:   config.SnapshotsDir,
		logger:         logger,
		now:            time.Now,
	}
}

// SanitizeName converts a test name into a file-name-safe token.
// Subtest separators become underscores.
func SanitizeName(name string) string {
	name = strings.ReplaceAll(name, "/", "_")
	name = unsafeName.ReplaceAllString(name, "_")
	name = strings.Trim(name, "_")
	if name == "" {
		return "unnamed"
	}
	return name
}

// ScreenshotPath returns screenshots/<testName>_<timestamp>.png
func (s *Store) ScreenshotPath(testName string, at time.Time) string {
	return filepath.Join(s.screenshotsDir, fmt.Sprintf("%s_%s.png", SanitizeName(testName), at.Format(TimestampFormat)))
}

// SnapshotPath returns snapshots/<testName>_<timestamp>.md
func (s *Store) SnapshotPath(testName string, at time.Time) string {
	return filepath.Join(s.snapshotsDir, fmt.Sprintf("%s_%s.md", SanitizeName(testName), at.Format(TimestampFormat)))
}

// VideoPath returns videos/<contextID>.mjpeg
func (s *Store) VideoPath(contextID string) string {
	return filepath.Join(s.videosDir, SanitizeName(contextID)+VideoExt)
}

// VideosDir returns the recording directory
func (s *Store) VideosDir() string {
	return s.videosDir
}

// EnsureVideoDir creates the recording directory
func (s *Store) EnsureVideoDir() error {
	if err := os.MkdirAll(s.videosDir, 0755); err != nil {
		return &ArtifactIOError{Op: "mkdir", Path: s.videosDir, Err: err}
	}
	return nil
}

// WriteScreenshot saves PNG bytes for a test
func (s *Store) WriteScreenshot(testName, contextID string, png []byte) (models.ArtifactRecord, error) {
	at := s.now()
	path := s.ScreenshotPath(testName, at)
	if err := writeFile(path, png); err != nil {
		return models.ArtifactRecord{}, err
	}

	s.logger.Info().Str("path", path).Str("test", testName).Msg("Screenshot saved")
	return models.ArtifactRecord{
		Path:      path,
		Kind:      models.ArtifactImage,
		TestName:  testName,
		ContextID: contextID,
		CreatedAt: at,
	}, nil
}

// WriteSnapshot converts page HTML to markdown and saves it for a test
func (s *Store) WriteSnapshot(testName, contextID, pageURL, html string) (models.ArtifactRecord, error) {
	at := s.now()
	path := s.SnapshotPath(testName, at)

	converter := md.NewConverter(pageURL, true, nil)
	markdown, err := converter.ConvertString(html)
	if err != nil {
		s.logger.Warn().Err(err).Msg("HTML to markdown conversion failed, saving raw HTML")
		markdown = "```html\n" + html + "\n```"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", testName)
	fmt.Fprintf(&b, "- URL: %s\n- Captured: %s\n\n", pageURL, at.Format(time.RFC3339))
	b.WriteString(markdown)
	b.WriteString("\n")

	if err := writeFile(path, []byte(b.String())); err != nil {
		return models.ArtifactRecord{}, err
	}

	s.logger.Info().Str("path", path).Str("test", testName).Msg("DOM snapshot saved")
	return models.ArtifactRecord{
		Path:      path,
		Kind:      models.ArtifactDOM,
		TestName:  testName,
		ContextID: contextID,
		CreatedAt: at,
	}, nil
}

// ApplyVideoPolicy keeps or deletes a finished recording.
// It must run after the owning context is closed so the file is complete.
// Returns true when the file is kept.
func (s *Store) ApplyVideoPolicy(policy models.VideoPolicy, video models.ArtifactRecord, outcome models.TestOutcome) (bool, error) {
	if !policy.Records() {
		return false, nil
	}

	if policy.Keep(outcome) {
		if _, err := os.Stat(video.Path); err != nil {
			return false, &ArtifactIOError{Op: "stat", Path: video.Path, Err: err}
		}
		s.logger.Info().
			Str("path", video.Path).
			Str("policy", string(policy)).
			Str("outcome", outcome.String()).
			Msg("Recording kept")
		return true, nil
	}

	if err := os.Remove(video.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return false, &ArtifactIOError{Op: "delete", Path: video.Path, Err: err}
	}
	s.logger.Debug().
		Str("path", video.Path).
		Str("policy", string(policy)).
		Str("outcome", outcome.String()).
		Msg("Recording discarded")
	return false, nil
}

func writeFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return &ArtifactIOError{Op: "mkdir", Path: filepath.Dir(path), Err: err}
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return &ArtifactIOError{Op: "write", Path: path, Err: err}
	}
	return nil
}
