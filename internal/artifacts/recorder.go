// -----------------------------------------------------------------------
// Session recorder - screencast frames written as MJPEG
// -----------------------------------------------------------------------

package artifacts

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/ternarybob/talentcheck/internal/common"
	"github.com/ternarybob/talentcheck/internal/models"
)

// FrameHandler receives one decoded JPEG frame
type FrameHandler func(frame []byte)

// Screencaster is the page capability the recorder needs.
// StartScreencast must deliver frames to onFrame until StopScreencast returns.
type Screencaster interface {
	StartScreencast(ctx context.Context, quality, everyNthFrame int, onFrame FrameHandler) error
	StopScreencast(ctx context.Context) error
}

// RecordingOptions controls frame quality and rate
type RecordingOptions struct {
	FPS           int // Upper bound on frames written per second
	Quality       int // JPEG quality 1-100
	EveryNthFrame int // Ask the browser for every Nth compositor frame
}

// DefaultRecordingOptions matches the artifacts section defaults
func DefaultRecordingOptions() RecordingOptions {
	return RecordingOptions{FPS: 10, Quality: 70, EveryNthFrame: 1}
}

// RecordingOptionsFrom builds options from config
func RecordingOptionsFrom(config common.ArtifactsConfig) RecordingOptions {
	opts := DefaultRecordingOptions()
	if config.RecordingFPS > 0 {
		opts.FPS = config.RecordingFPS
	}
	if config.RecordingQuality > 0 {
		opts.Quality = config.RecordingQuality
	}
	return opts
}

// Recording is a live screencast being written to disk.
// The path is fixed when recording starts; the file is complete only after Stop.
type Recording struct {
	path      string
	contextID string
	startedAt time.Time
	source    Screencaster
	logger    *common.Logger

	mu       sync.Mutex
	file     *os.File
	limiter  *rate.Limiter
	frames   int
	dropped  int
	writeErr error

	stopOnce sync.Once
	stopErr  error
}

// StartRecording opens path and starts the screencast on source
func StartRecording(ctx context.Context, source Screencaster, path, contextID string, opts RecordingOptions, logger *common.Logger) (*Recording, error) {
	if opts.FPS <= 0 {
		opts.FPS = DefaultRecordingOptions().FPS
	}
	if opts.Quality <= 0 || opts.Quality > 100 {
		opts.Quality = DefaultRecordingOptions().Quality
	}
	if opts.EveryNthFrame <= 0 {
		opts.EveryNthFrame = 1
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, &ArtifactIOError{Op: "mkdir", Path: filepath.Dir(path), Err: err}
	}
	file, err := os.Create(path)
	if err != nil {
		return nil, &ArtifactIOError{Op: "create", Path: path, Err: err}
	}

	r := &Recording{
		path:      path,
		contextID: contextID,
		startedAt: time.Now(),
		source:    source,
		logger:    logger,
		file:      file,
		limiter:   rate.NewLimiter(rate.Limit(opts.FPS), 1),
	}

	if err := source.StartScreencast(ctx, opts.Quality, opts.EveryNthFrame, r.writeFrame); err != nil {
		file.Close()
		os.Remove(path)
		return nil, fmt.Errorf("failed to start screencast: %w", err)
	}

	logger.Debug().
		Str("path", path).
		Str("context_id", contextID).
		Int("fps", opts.FPS).
		Int("quality", opts.Quality).
		Msg("Recording started")
	return r, nil
}

func (r *Recording) writeFrame(frame []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.file == nil || len(frame) == 0 {
		return
	}
	if !r.limiter.Allow() {
		r.dropped++
		return
	}
	if _, err := r.file.Write(frame); err != nil {
		if r.writeErr == nil {
			r.writeErr = &ArtifactIOError{Op: "write", Path: r.path, Err: err}
			r.logger.Warn().Err(err).Str("path", r.path).Msg("Failed to write recording frame")
		}
		return
	}
	r.frames++
}

// Stop ends the screencast and closes the file. Safe to call more than once.
func (r *Recording) Stop(ctx context.Context) error {
	r.stopOnce.Do(func() {
		if err := r.source.StopScreencast(ctx); err != nil {
			// The page may already be gone; frames written so far are still valid
			r.logger.Debug().Err(err).Str("path", r.path).Msg("Stop screencast failed")
		}

		r.mu.Lock()
		defer r.mu.Unlock()

		if err := r.file.Close(); err != nil {
			r.stopErr = &ArtifactIOError{Op: "close", Path: r.path, Err: err}
		} else if r.writeErr != nil {
			r.stopErr = r.writeErr
		}
		r.file = nil

		r.logger.Debug().
			Str("path", r.path).
			Int("frames", r.frames).
			Int("dropped", r.dropped).
			Msg("Recording stopped")
	})
	return r.stopErr
}

// Path returns the file the recording writes to
func (r *Recording) Path() string {
	return r.path
}

// Frames returns the number of frames written so far
func (r *Recording) Frames() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.frames
}

// Record describes the recording as an artifact
func (r *Recording) Record(testName string) models.ArtifactRecord {
	return models.ArtifactRecord{
		Path:      r.path,
		Kind:      models.ArtifactVideo,
		TestName:  testName,
		ContextID: r.contextID,
		CreatedAt: r.startedAt,
	}
}
