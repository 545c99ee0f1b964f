// -----------------------------------------------------------------------
// Test suite glue - binds *testing.T to the session provider
// -----------------------------------------------------------------------

package harness

import (
	"context"
	"errors"
	"testing"

	"github.com/ternarybob/talentcheck/internal/artifacts"
	"github.com/ternarybob/talentcheck/internal/browser"
	"github.com/ternarybob/talentcheck/internal/common"
	"github.com/ternarybob/talentcheck/internal/models"
	"github.com/ternarybob/talentcheck/internal/pages"
	"github.com/ternarybob/talentcheck/internal/session"
)

// Suite is shared by every test of a run: one browser, one provider
type Suite struct {
	ctx         context.Context
	config      *common.Config
	logs        *common.LoggerFactory
	logger      *common.Logger
	provider    *session.Provider
	report      *artifacts.Report
	credentials models.CredentialSet
}

// NewSuite launches the browser and builds the provider around it
func NewSuite(ctx context.Context, config *common.Config, logs *common.LoggerFactory) (*Suite, error) {
	b, err := browser.Launch(ctx, config.Browser, logs.For("Browser"))
	if err != nil {
		return nil, err
	}
	s, err := NewSuiteWithTargets(ctx, config, logs, session.BrowserTargets(b), b.Close)
	if err != nil {
		b.Close()
		return nil, err
	}
	return s, nil
}

// NewSuiteWithTargets builds a suite over any target factory. onClose runs
// once when the suite closes.
func NewSuiteWithTargets(ctx context.Context, config *common.Config, logs *common.LoggerFactory, factory session.TargetFactory, onClose func()) (*Suite, error) {
	logger := logs.For("Suite")

	creds, err := config.Credentials()
	if err != nil {
		var dropped *common.CredentialsError
		if !errors.As(err, &dropped) {
			return nil, err
		}
		for _, d := range dropped.Dropped {
			logger.Warn().Err(d.Err).Str("role", d.Role).Msg("Role dropped: credentials unusable")
		}
	}

	report := artifacts.NewReport(config.Artifacts.ReportDir, logs.For("Report"))

	opts := session.OptionsFromConfig(config)
	opts.Report = report
	opts.Authenticator = pages.NewLoginFlow(config.App.BaseURL, config.Timeouts.DashboardTimeout(), logs)
	opts.OnClose = func() {
		if err := report.WriteIndex(); err != nil {
			logger.Warn().Err(err).Msg("Failed to write report index")
		}
		if onClose != nil {
			onClose()
		}
	}

	store := artifacts.NewStore(config.Artifacts, logs.For("Artifacts"))
	provider := session.NewProvider(factory, store, opts, logs)

	logger.Info().
		Str("base_url", config.App.BaseURL).
		Str("video_policy", string(opts.VideoPolicy)).
		Strs("roles", creds.Roles()).
		Msg("Test suite ready")

	return &Suite{
		ctx:         ctx,
		config:      config,
		logs:        logs,
		logger:      logger,
		provider:    provider,
		report:      report,
		credentials: creds,
	}, nil
}

// Config returns the run configuration
func (s *Suite) Config() *common.Config { return s.config }

// Logs returns the logger factory page objects are built with
func (s *Suite) Logs() *common.LoggerFactory { return s.logs }

// Provider returns the session provider
func (s *Suite) Provider() *session.Provider { return s.provider }

// Credentials returns the configured role credentials
func (s *Suite) Credentials() models.CredentialSet { return s.credentials }

// Report returns the failure report, nil when no report dir is configured
func (s *Suite) Report() *artifacts.Report { return s.report }

// Context returns the suite's root context
func (s *Suite) Context() context.Context { return s.ctx }

// Single acquires one isolated context for t and releases it in t.Cleanup
func (s *Suite) Single(t testing.TB) *session.ExecutionContext {
	t.Helper()

	ec, err := s.provider.AcquireSingle(s.ctx, t.Name())
	if err != nil {
		t.Fatalf("session setup failed: %v", err)
	}

	outcome := models.NewOutcomeRecorder()

	t.Cleanup(func() {
		recordCall(t, outcome)
		s.provider.Release(ec, outcome.Final())
	})
	return ec
}

// MultiUser acquires one logged-in context per role (every configured role
// when none are named) and releases them in t.Cleanup. Roles that failed to
// log in are missing from the map and reported through the returned error.
// A partial login counts as an errored setup, so every surviving context
// keeps its screenshots and video even when the test itself passes.
func (s *Suite) MultiUser(t testing.TB, roles ...string) (map[string]*session.ExecutionContext, error) {
	t.Helper()

	creds := s.credentials
	if len(roles) > 0 {
		subset, err := s.credentials.Only(roles...)
		if err != nil {
			t.Fatalf("session setup failed: %v", err)
		}
		creds = subset
	}

	outcome := models.NewOutcomeRecorder()
	sessions, err := s.provider.AcquireMultiUser(s.ctx, t.Name(), creds)
	if err != nil {
		var multi *session.MultiUserError
		if !errors.As(err, &multi) {
			t.Fatalf("session setup failed: %v", err)
		}
		// Keep artifacts of the roles that did log in
		_ = outcome.Record(models.PhaseSetup, models.OutcomeErrored)
		t.Logf("login failed for roles %v: %v", multi.Roles(), err)
	}

	t.Cleanup(func() {
		recordCall(t, outcome)
		s.provider.ReleaseAll(sessions, outcome.Final())
	})
	return sessions, err
}

// Close releases anything still open, writes the report index and stops the browser
func (s *Suite) Close() {
	s.provider.Close()
}

// Outcome maps the state of t to a test outcome status.
// A test that failed and then skipped is reported failed, as go test does.
func Outcome(t testing.TB) models.OutcomeStatus {
	switch {
	case t.Failed():
		return models.OutcomeFailed
	case t.Skipped():
		return models.OutcomeSkipped
	default:
		return models.OutcomePassed
	}
}

// recordCall stores the call-phase outcome. Cleanup functions run after the
// test body returns, so t already carries its final state.
func recordCall(t testing.TB, outcome *models.OutcomeRecorder) {
	if err := outcome.Record(models.PhaseCall, Outcome(t)); err != nil {
		t.Logf("outcome: %v", err)
	}
}

// Fatal fails t with err, naming the step that produced it
func Fatal(t testing.TB, step string, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("%s: %v", step, err)
	}
}
