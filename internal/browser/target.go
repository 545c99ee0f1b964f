package browser

import (
	"context"
	"encoding/base64"
	"fmt"
	"sync"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"

	"github.com/ternarybob/talentcheck/internal/artifacts"
	"github.com/ternarybob/talentcheck/internal/common"
)

// Target is one page inside its own browser context
type Target struct {
	id     string
	ctx    context.Context
	cancel context.CancelFunc
	logger *common.Logger

	listenOnce sync.Once
	mu         sync.Mutex
	onFrame    artifacts.FrameHandler
	closeOnce  sync.Once
	closeErr   error
}

// ID returns the CDP target id
func (t *Target) ID() string {
	return t.id
}

// Run executes actions against the page.
// ctx supplies the deadline and cancellation; the target's own context supplies the page.
func (t *Target) Run(ctx context.Context, actions ...chromedp.Action) error {
	runCtx, cancel := t.bind(ctx)
	defer cancel()
	return chromedp.Run(runCtx, actions...)
}

// Evaluate runs script on the page and decodes the returned value into res
func (t *Target) Evaluate(ctx context.Context, script string, res interface{}) error {
	return t.Run(ctx, chromedp.Evaluate(script, res))
}

func (t *Target) bind(ctx context.Context) (context.Context, context.CancelFunc) {
	var runCtx context.Context
	var cancel context.CancelFunc
	if deadline, ok := ctx.Deadline(); ok {
		runCtx, cancel = context.WithDeadline(t.ctx, deadline)
	} else {
		runCtx, cancel = context.WithCancel(t.ctx)
	}
	stop := context.AfterFunc(ctx, cancel)
	return runCtx, func() {
		stop()
		cancel()
	}
}

// CaptureScreenshot returns a full-page PNG
func (t *Target) CaptureScreenshot(ctx context.Context) ([]byte, error) {
	var buf []byte
	if err := t.Run(ctx, chromedp.FullScreenshot(&buf, 100)); err != nil {
		return nil, fmt.Errorf("failed to capture screenshot: %w", err)
	}
	return buf, nil
}

// PageSource returns the current URL and document HTML
func (t *Target) PageSource(ctx context.Context) (string, string, error) {
	var url, html string
	if err := t.Run(ctx,
		chromedp.Location(&url),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	); err != nil {
		return "", "", fmt.Errorf("failed to read page source: %w", err)
	}
	return url, html, nil
}

// StartScreencast streams JPEG frames to onFrame until StopScreencast
func (t *Target) StartScreencast(ctx context.Context, quality, everyNthFrame int, onFrame artifacts.FrameHandler) error {
	t.mu.Lock()
	t.onFrame = onFrame
	t.mu.Unlock()

	t.listenOnce.Do(func() {
		chromedp.ListenTarget(t.ctx, t.handleEvent)
	})

	return t.Run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		return page.StartScreencast().
			WithFormat(page.ScreencastFormatJpeg).
			WithQuality(int64(quality)).
			WithEveryNthFrame(int64(everyNthFrame)).
			Do(ctx)
	}))
}

// StopScreencast stops frame delivery
func (t *Target) StopScreencast(ctx context.Context) error {
	t.mu.Lock()
	t.onFrame = nil
	t.mu.Unlock()

	return t.Run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		return page.StopScreencast().Do(ctx)
	}))
}

func (t *Target) handleEvent(ev interface{}) {
	frame, ok := ev.(*page.EventScreencastFrame)
	if !ok {
		return
	}

	t.mu.Lock()
	handler := t.onFrame
	t.mu.Unlock()

	if handler != nil {
		if data, err := base64.StdEncoding.DecodeString(frame.Data); err == nil {
			handler(data)
		} else {
			t.logger.Debug().Err(err).Msg("Dropping undecodable screencast frame")
		}
	}

	// Chrome withholds the next frame until this one is acked
	sessionID := frame.SessionID
	common.SafeGo(t.logger, "screencast-ack", func() {
		_ = chromedp.Run(t.ctx, page.ScreencastFrameAck(sessionID))
	})
}

// Close disposes the page and its browser context
func (t *Target) Close(ctx context.Context) error {
	t.closeOnce.Do(func() {
		done := make(chan error, 1)
		go func() { done <- chromedp.Cancel(t.ctx) }()

		select {
		case err := <-done:
			t.closeErr = err
		case <-ctx.Done():
			t.closeErr = fmt.Errorf("target close: %w", ctx.Err())
		}
		t.cancel()

		t.logger.Debug().Str("target_id", t.id).Msg("Target closed")
	})
	return t.closeErr
}
