package session

import (
	"context"
	"sync"
	"time"

	"github.com/chromedp/chromedp"

	"github.com/ternarybob/talentcheck/internal/artifacts"
	"github.com/ternarybob/talentcheck/internal/common"
	"github.com/ternarybob/talentcheck/internal/models"
)

// Target is the page an execution context drives
type Target interface {
	ID() string
	Run(ctx context.Context, actions ...chromedp.Action) error
	Evaluate(ctx context.Context, script string, res interface{}) error
	CaptureScreenshot(ctx context.Context) ([]byte, error)
	PageSource(ctx context.Context) (url string, html string, err error)
	artifacts.Screencaster
	Close(ctx context.Context) error
}

// TargetFactory opens a page in a fresh isolated browser context
type TargetFactory func(ctx context.Context) (Target, error)

// Authenticator logs an execution context in as a user
type Authenticator interface {
	Authenticate(ctx context.Context, ec *ExecutionContext, cred models.Credential) error
}

// State is the lifecycle position of an execution context
type State int

const (
	StateCreated State = iota
	StateActive
	StateClosing
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateActive:
		return "active"
	case StateClosing:
		return "closing"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// ExecutionContext is one isolated browser context with its page.
// Timeouts are fixed at creation.
type ExecutionContext struct {
	id               string
	role             string
	testName         string
	createdAt        time.Time
	actionTimeout    time.Duration
	parseWaitTimeout time.Duration
	target           Target
	recording        *artifacts.Recording
	videoPath        string
	logger           *common.Logger

	mu    sync.Mutex
	state State
}

// ID returns the context id (also the recording file name)
func (ec *ExecutionContext) ID() string { return ec.id }

// Role returns the user role, empty for single sessions
func (ec *ExecutionContext) Role() string { return ec.role }

// TestName returns the owning test
func (ec *ExecutionContext) TestName() string { return ec.testName }

// CreatedAt returns the acquisition time
func (ec *ExecutionContext) CreatedAt() time.Time { return ec.createdAt }

// ActionTimeout bounds every UI action
func (ec *ExecutionContext) ActionTimeout() time.Duration { return ec.actionTimeout }

// ParseWaitTimeout bounds document parsing waits
func (ec *ExecutionContext) ParseWaitTimeout() time.Duration { return ec.parseWaitTimeout }

// Target returns the page
func (ec *ExecutionContext) Target() Target { return ec.target }

// Recording returns the live recording, nil when video is off or recording failed to start
func (ec *ExecutionContext) Recording() *artifacts.Recording { return ec.recording }

// VideoPath is the recording path captured at acquisition, empty without a recording
func (ec *ExecutionContext) VideoPath() string { return ec.videoPath }

// Logger returns the provider's logger
func (ec *ExecutionContext) Logger() *common.Logger { return ec.logger }

// ArtifactName is the file-name stem for this context's screenshots and snapshots
func (ec *ExecutionContext) ArtifactName() string {
	if ec.role == "" {
		return ec.testName
	}
	return ec.testName + "_" + ec.role
}

// ActionContext derives a context bounded by the action timeout
func (ec *ExecutionContext) ActionContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, ec.actionTimeout)
}

// State returns the lifecycle state
func (ec *ExecutionContext) State() State {
	ec.mu.Lock()
	defer ec.mu.Unlock()
	return ec.state
}

func (ec *ExecutionContext) activate() {
	ec.mu.Lock()
	defer ec.mu.Unlock()
	if ec.state == StateCreated {
		ec.state = StateActive
	}
}

// beginClose moves to closing; false means the context is already closing or closed
func (ec *ExecutionContext) beginClose() bool {
	ec.mu.Lock()
	defer ec.mu.Unlock()
	if ec.state == StateClosing || ec.state == StateClosed {
		return false
	}
	ec.state = StateClosing
	return true
}

func (ec *ExecutionContext) markClosed() {
	ec.mu.Lock()
	defer ec.mu.Unlock()
	ec.state = StateClosed
}
