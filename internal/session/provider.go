// -----------------------------------------------------------------------
// Session fixture provider - isolated execution contexts and teardown
// -----------------------------------------------------------------------

package session

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/ternarybob/talentcheck/internal/artifacts"
	"github.com/ternarybob/talentcheck/internal/common"
	"github.com/ternarybob/talentcheck/internal/models"
)

// Options are fixed for every context the provider creates
type Options struct {
	ActionTimeout    time.Duration
	ParseWaitTimeout time.Duration
	TeardownTimeout  time.Duration
	VideoPolicy      models.VideoPolicy
	Recording        artifacts.RecordingOptions
	DOMSnapshots     bool
	Authenticator    Authenticator
	Report           *artifacts.Report
	OnClose          func() // Called once by Close, after live contexts are released
}

// OptionsFromConfig maps the harness config onto provider options
func OptionsFromConfig(config *common.Config) Options {
	return Options{
		ActionTimeout:    config.Timeouts.ActionTimeout(),
		ParseWaitTimeout: config.Timeouts.ParseWaitTimeout(),
		TeardownTimeout:  config.Timeouts.TeardownTimeout(),
		VideoPolicy:      config.VideoPolicy(),
		Recording:        artifacts.RecordingOptionsFrom(config.Artifacts),
		DOMSnapshots:     config.Artifacts.DOMSnapshots,
	}
}

func (o Options) withDefaults() Options {
	if o.ActionTimeout <= 0 {
		o.ActionTimeout = 60 * time.Second
	}
	if o.ParseWaitTimeout <= 0 {
		o.ParseWaitTimeout = 150 * time.Second
	}
	if o.TeardownTimeout <= 0 {
		o.TeardownTimeout = 15 * time.Second
	}
	if o.VideoPolicy == "" {
		o.VideoPolicy = models.DefaultVideoPolicy
	}
	return o
}

// Provider creates execution contexts and tears them down with artifact capture
type Provider struct {
	newTarget TargetFactory
	store     *artifacts.Store
	opts      Options
	logger    *common.Logger

	mu        sync.Mutex
	live      map[string]*ExecutionContext
	closeOnce sync.Once
}

// NewProvider creates a provider over a target factory
func NewProvider(factory TargetFactory, store *artifacts.Store, opts Options, logs *common.LoggerFactory) *Provider {
	return &Provider{
		newTarget: factory,
		store:     store,
		opts:      opts.withDefaults(),
		logger:    logs.For("SessionProvider"),
		live:      make(map[string]*ExecutionContext),
	}
}

// Options returns the effective options
func (p *Provider) Options() Options {
	return p.opts
}

// Live returns the number of contexts not yet released
func (p *Provider) Live() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.live)
}

// AcquireSingle returns one fresh isolated context
func (p *Provider) AcquireSingle(ctx context.Context, testName string) (*ExecutionContext, error) {
	ec, err := p.open(ctx, testName, "")
	if err != nil {
		return nil, err
	}
	p.logger.Info().Str("context_id", ec.id).Str("test", testName).Msg("Session acquired")
	return ec, nil
}

// AcquireMultiUser opens and logs in one context per role, in role order.
// A role that fails is released at once and left out of the map; the
// returned *MultiUserError lists every failure. Successful roles stay live.
func (p *Provider) AcquireMultiUser(ctx context.Context, testName string, creds models.CredentialSet) (map[string]*ExecutionContext, error) {
	if p.opts.Authenticator == nil {
		return nil, ErrNoAuthenticator
	}

	sessions := make(map[string]*ExecutionContext, creds.Len())
	var failures []*SessionSetupError

	for _, role := range creds.Roles() {
		cred, _ := creds.Get(role)

		ec, err := p.open(ctx, testName, role)
		if err != nil {
			p.logger.Error().Err(err).Str("role", role).Msg("Failed to open session for role")
			failures = append(failures, asSetupError(err, role))
			continue
		}

		if err := p.opts.Authenticator.Authenticate(ctx, ec, cred); err != nil {
			p.logger.Error().
				Err(err).
				Str("role", role).
				Str("context_id", ec.id).
				Msg("Login failed for role, releasing its session")
			p.Release(ec, models.TestOutcome{Status: models.OutcomeErrored, Phase: models.PhaseSetup, RecordedAt: time.Now()})
			failures = append(failures, &SessionSetupError{Role: role, Stage: "login", Err: err})
			continue
		}

		p.logger.Info().Str("role", role).Str("context_id", ec.id).Msg("Role logged in")
		sessions[role] = ec
	}

	if len(failures) > 0 {
		return sessions, &MultiUserError{Failures: failures}
	}
	return sessions, nil
}

func (p *Provider) open(ctx context.Context, testName, role string) (*ExecutionContext, error) {
	target, err := p.newTarget(ctx)
	if err != nil {
		return nil, &SessionSetupError{Role: role, Stage: "open", Err: err}
	}

	ec := &ExecutionContext{
		id:               common.NewContextID(),
		role:             role,
		testName:         testName,
		createdAt:        time.Now(),
		actionTimeout:    p.opts.ActionTimeout,
		parseWaitTimeout: p.opts.ParseWaitTimeout,
		target:           target,
		logger:           p.logger,
		state:            StateCreated,
	}

	if p.opts.VideoPolicy.Records() {
		path := p.store.VideoPath(ec.id)
		rec, err := artifacts.StartRecording(ctx, target, path, ec.id, p.opts.Recording, p.logger)
		if err != nil {
			p.logger.Warn().Err(err).Str("context_id", ec.id).Msg("Recording unavailable for session")
		} else {
			ec.recording = rec
			ec.videoPath = rec.Path()
		}
	}

	ec.activate()

	p.mu.Lock()
	p.live[ec.id] = ec
	p.mu.Unlock()

	p.logger.Debug().
		Str("context_id", ec.id).
		Str("role", role).
		Str("target_id", target.ID()).
		Str("video", ec.videoPath).
		Msg("Execution context created")
	return ec, nil
}

// Release tears a context down. On failure a screenshot (and DOM snapshot)
// is taken before the page closes; the recording is stopped, the page and
// its browser context are closed, and only then is the video policy applied.
// Releasing a context twice logs a warning and does nothing.
func (p *Provider) Release(ec *ExecutionContext, outcome models.TestOutcome) []models.ArtifactRecord {
	if ec == nil {
		return nil
	}
	if !ec.beginClose() {
		p.logger.Warn().Str("context_id", ec.id).Str("state", ec.State().String()).Msg("Release called on a closed session")
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), p.opts.TeardownTimeout)
	defer cancel()

	var records []models.ArtifactRecord

	if outcome.Failed() {
		records = append(records, p.captureFailure(ctx, ec)...)
	}

	if ec.recording != nil {
		if err := ec.recording.Stop(ctx); err != nil {
			p.logger.Warn().Err(err).Str("context_id", ec.id).Msg("Recording did not finalize cleanly")
		}
	}

	if err := ec.target.Close(ctx); err != nil {
		p.logger.Warn().Err(err).Str("context_id", ec.id).Msg("Failed to close browser context")
	}
	ec.markClosed()

	p.mu.Lock()
	delete(p.live, ec.id)
	p.mu.Unlock()

	if ec.recording != nil {
		video := ec.recording.Record(ec.ArtifactName())
		kept, err := p.store.ApplyVideoPolicy(p.opts.VideoPolicy, video, outcome)
		if err != nil {
			p.logger.Warn().Err(err).Str("path", ec.videoPath).Msg("Failed to apply video policy")
		} else if kept {
			records = append(records, video)
		}
	}

	if outcome.Failed() && p.opts.Report != nil {
		for i, rec := range records {
			attached, err := p.opts.Report.Attach(rec)
			if err != nil {
				p.logger.Warn().Err(err).Str("path", rec.Path).Msg("Failed to attach artifact to report")
				continue
			}
			records[i] = attached
		}
	}

	p.logger.Info().
		Str("context_id", ec.id).
		Str("test", ec.testName).
		Str("outcome", outcome.String()).
		Int("artifacts", len(records)).
		Msg("Session released")
	return records
}

func (p *Provider) captureFailure(ctx context.Context, ec *ExecutionContext) []models.ArtifactRecord {
	var records []models.ArtifactRecord

	png, err := ec.target.CaptureScreenshot(ctx)
	if err != nil {
		p.logger.Warn().Err(err).Str("context_id", ec.id).Msg("Failure screenshot not captured")
	} else if rec, err := p.store.WriteScreenshot(ec.ArtifactName(), ec.id, png); err != nil {
		p.logger.Warn().Err(err).Msg("Failure screenshot not saved")
	} else {
		records = append(records, rec)
	}

	if !p.opts.DOMSnapshots {
		return records
	}

	url, html, err := ec.target.PageSource(ctx)
	if err != nil {
		p.logger.Warn().Err(err).Str("context_id", ec.id).Msg("DOM snapshot not captured")
	} else if rec, err := p.store.WriteSnapshot(ec.ArtifactName(), ec.id, url, html); err != nil {
		p.logger.Warn().Err(err).Msg("DOM snapshot not saved")
	} else {
		records = append(records, rec)
	}
	return records
}

// ReleaseAll releases every context in role order. A panic or failure in one
// release is logged and the remaining contexts are still released.
func (p *Provider) ReleaseAll(sessions map[string]*ExecutionContext, outcome models.TestOutcome) []models.ArtifactRecord {
	roles := make([]string, 0, len(sessions))
	for role := range sessions {
		roles = append(roles, role)
	}
	sort.Strings(roles)

	var records []models.ArtifactRecord
	for _, role := range roles {
		records = append(records, p.releaseIsolated(role, sessions[role], outcome)...)
	}
	return records
}

func (p *Provider) releaseIsolated(role string, ec *ExecutionContext, outcome models.TestOutcome) (records []models.ArtifactRecord) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error().
				Str("role", role).
				Str("panic", fmt.Sprintf("%v", r)).
				Str("stack", common.GetStackTrace()).
				Msg("Session release panicked, continuing with remaining sessions")
			if ec != nil {
				ec.markClosed()
				p.mu.Lock()
				delete(p.live, ec.id)
				p.mu.Unlock()
			}
			records = nil
		}
	}()
	return p.Release(ec, outcome)
}

// Close releases any context still live and runs OnClose once
func (p *Provider) Close() {
	p.closeOnce.Do(func() {
		p.mu.Lock()
		leftover := make(map[string]*ExecutionContext, len(p.live))
		for id, ec := range p.live {
			leftover[id] = ec
		}
		p.mu.Unlock()

		if len(leftover) > 0 {
			p.logger.Warn().Int("sessions", len(leftover)).Msg("Releasing sessions left open at shutdown")
			p.ReleaseAll(leftover, models.TestOutcome{})
		}

		if p.opts.OnClose != nil {
			p.opts.OnClose()
		}
		p.logger.Info().Msg("Session provider closed")
	})
}

func asSetupError(err error, role string) *SessionSetupError {
	var se *SessionSetupError
	if errors.As(err, &se) {
		se.Role = role
		return se
	}
	return &SessionSetupError{Role: role, Stage: "open", Err: err}
}
