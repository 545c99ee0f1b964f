// -----------------------------------------------------------------------
// Browser driver - one Chromium process, isolated browser contexts
// -----------------------------------------------------------------------

package browser

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/chromedp/chromedp"

	"github.com/ternarybob/talentcheck/internal/common"
)

// ErrClosed is returned when a target is requested from a stopped browser
var ErrClosed = errors.New("browser closed")

// Browser owns the Chromium process shared by every execution context of a run
type Browser struct {
	ctx         context.Context
	cancel      context.CancelFunc
	cancelAlloc context.CancelFunc
	config      common.BrowserConfig
	logger      *common.Logger

	mu      sync.Mutex
	closed  bool
	targets int
}

// AllocatorOptions builds the exec allocator flags for a browser config
func AllocatorOptions(config common.BrowserConfig) []chromedp.ExecAllocatorOption {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", config.Headless),
		chromedp.Flag("disable-gpu", config.DisableGPU),
		chromedp.WindowSize(config.WindowWidth, config.WindowHeight),
	)
	if config.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(config.ExecPath))
	}
	if config.UserAgent != "" {
		opts = append(opts, chromedp.UserAgent(config.UserAgent))
	}
	return opts
}

// Launch starts Chromium. The process lives until Close or until ctx is done.
func Launch(ctx context.Context, config common.BrowserConfig, logger *common.Logger) (*Browser, error) {
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, AllocatorOptions(config)...)
	browserCtx, cancel := chromedp.NewContext(allocCtx)

	// An empty Run starts the browser process
	if err := chromedp.Run(browserCtx); err != nil {
		cancel()
		cancelAlloc()
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	logger.Info().
		Bool("headless", config.Headless).
		Int("width", config.WindowWidth).
		Int("height", config.WindowHeight).
		Msg("Browser launched")

	return &Browser{
		ctx:         browserCtx,
		cancel:      cancel,
		cancelAlloc: cancelAlloc,
		config:      config,
		logger:      logger,
	}, nil
}

// NewTarget opens a page in a fresh browser context with its own cookie jar and storage
func (b *Browser) NewTarget(ctx context.Context) (*Target, error) {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil, ErrClosed
	}
	b.targets++
	b.mu.Unlock()

	tctx, cancel := chromedp.NewContext(b.ctx, chromedp.WithNewBrowserContext())
	t := &Target{ctx: tctx, cancel: cancel, logger: b.logger}

	if err := t.Run(ctx, chromedp.EmulateViewport(int64(b.config.WindowWidth), int64(b.config.WindowHeight))); err != nil {
		cancel()
		return nil, fmt.Errorf("failed to open target: %w", err)
	}

	if c := chromedp.FromContext(tctx); c != nil && c.Target != nil {
		t.id = string(c.Target.TargetID)
	}

	b.logger.Debug().Str("target_id", t.id).Msg("Target opened in new browser context")
	return t, nil
}

// Close stops the browser process. Safe to call more than once.
func (b *Browser) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	opened := b.targets
	b.mu.Unlock()

	if err := chromedp.Cancel(b.ctx); err != nil {
		b.logger.Debug().Err(err).Msg("Browser cancel returned error")
	}
	b.cancel()
	b.cancelAlloc()

	b.logger.Info().Int("targets_opened", opened).Msg("Browser closed")
}
