package session

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/talentcheck/internal/artifacts"
	"github.com/ternarybob/talentcheck/internal/common"
	"github.com/ternarybob/talentcheck/internal/models"
)

// eventLog records teardown steps across fakes
type eventLog struct {
	mu     sync.Mutex
	events []string
}

func (l *eventLog) add(format string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, fmt.Sprintf(format, args...))
}

func (l *eventLog) all() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.events...)
}

type fakeTarget struct {
	id       string
	log      *eventLog
	onFrame  artifacts.FrameHandler
	closeErr error
	closed   int
}

func (f *fakeTarget) ID() string { return f.id }

func (f *fakeTarget) Run(context.Context, ...chromedp.Action) error { return nil }

func (f *fakeTarget) Evaluate(context.Context, string, interface{}) error { return nil }

func (f *fakeTarget) CaptureScreenshot(context.Context) ([]byte, error) {
	f.log.add("%s:screenshot", f.id)
	return []byte("png"), nil
}

func (f *fakeTarget) PageSource(context.Context) (string, string, error) {
	f.log.add("%s:snapshot", f.id)
	return "https://app.example.com/dashboard", "<html><body><h1>Dashboard</h1></body></html>", nil
}

func (f *fakeTarget) StartScreencast(_ context.Context, _, _ int, onFrame artifacts.FrameHandler) error {
	f.onFrame = onFrame
	onFrame([]byte("jpeg"))
	return nil
}

func (f *fakeTarget) StopScreencast(context.Context) error {
	f.log.add("%s:stop-recording", f.id)
	return nil
}

func (f *fakeTarget) Close(context.Context) error {
	f.closed++
	f.log.add("%s:close", f.id)
	return f.closeErr
}

type fixture struct {
	provider *Provider
	log      *eventLog
	targets  []*fakeTarget
	root     string
}

func newFixture(t *testing.T, opts Options) *fixture {
	t.Helper()
	root := t.TempDir()
	f := &fixture{log: &eventLog{}, root: root}

	store := artifacts.NewStore(common.ArtifactsConfig{
		ScreenshotsDir: filepath.Join(root, "screenshots"),
		VideosDir:      filepath.Join(root, "videos"),
		SnapshotsDir:   filepath.Join(root, "snapshots"),
	}, common.NopLogger("ArtifactStore"))

	factory := func(context.Context) (Target, error) {
		tgt := &fakeTarget{id: fmt.Sprintf("t%d", len(f.targets)+1), log: f.log}
		f.targets = append(f.targets, tgt)
		return tgt, nil
	}

	f.provider = NewProvider(factory, store, opts, common.NewLoggerFactoryFrom(arbor.NewNoOpLogger()))
	return f
}

func (f *fixture) videoFiles(t *testing.T) []string {
	t.Helper()
	entries, err := os.ReadDir(filepath.Join(f.root, "videos"))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

var (
	passed = models.TestOutcome{Status: models.OutcomePassed, Phase: models.PhaseCall}
	failed = models.TestOutcome{Status: models.OutcomeFailed, Phase: models.PhaseCall}
)

func TestAcquireSingle_AppliesTimeouts(t *testing.T) {
	f := newFixture(t, Options{VideoPolicy: models.VideoOff})

	ec, err := f.provider.AcquireSingle(context.Background(), "TestLogin")
	require.NoError(t, err)

	assert.Equal(t, StateActive, ec.State())
	assert.Equal(t, "TestLogin", ec.ArtifactName())
	assert.Equal(t, 60*time.Second, ec.ActionTimeout())
	assert.Nil(t, ec.Recording())
	assert.Empty(t, ec.VideoPath())
	assert.Equal(t, 1, f.provider.Live())
}

func TestRelease_Idempotent(t *testing.T) {
	f := newFixture(t, Options{VideoPolicy: models.VideoOff})

	ec, err := f.provider.AcquireSingle(context.Background(), "TestLogin")
	require.NoError(t, err)

	f.provider.Release(ec, passed)
	assert.Equal(t, StateClosed, ec.State())

	assert.Nil(t, f.provider.Release(ec, failed))
	assert.Equal(t, 1, f.targets[0].closed)
	assert.Equal(t, 0, f.provider.Live())
	assert.NotContains(t, f.log.all(), "t1:screenshot", "second release must not capture")
}

func TestRelease_TeardownOrder(t *testing.T) {
	f := newFixture(t, Options{VideoPolicy: models.VideoRetainOnFailure, DOMSnapshots: true})

	ec, err := f.provider.AcquireSingle(context.Background(), "TestCreateJob")
	require.NoError(t, err)
	require.NotEmpty(t, ec.VideoPath())

	records := f.provider.Release(ec, failed)

	assert.Equal(t, []string{"t1:screenshot", "t1:snapshot", "t1:stop-recording", "t1:close"}, f.log.all())

	kinds := map[models.ArtifactKind]int{}
	for _, r := range records {
		kinds[r.Kind]++
		_, err := os.Stat(r.Path)
		assert.NoError(t, err, r.Path)
	}
	assert.Equal(t, map[models.ArtifactKind]int{models.ArtifactImage: 1, models.ArtifactDOM: 1, models.ArtifactVideo: 1}, kinds)
}

func TestRelease_VideoRetention(t *testing.T) {
	tests := []struct {
		name      string
		policy    models.VideoPolicy
		outcome   models.TestOutcome
		wantVideo bool
	}{
		{"on passed", models.VideoOn, passed, true},
		{"on failed", models.VideoOn, failed, true},
		{"off passed", models.VideoOff, passed, false},
		{"off failed", models.VideoOff, failed, false},
		{"retain passed", models.VideoRetainOnFailure, passed, false},
		{"retain failed", models.VideoRetainOnFailure, failed, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, Options{VideoPolicy: tt.policy})

			ec, err := f.provider.AcquireSingle(context.Background(), "TestRetention")
			require.NoError(t, err)
			expected := ec.VideoPath()

			f.provider.Release(ec, tt.outcome)

			videos := f.videoFiles(t)
			if tt.wantVideo {
				require.Len(t, videos, 1)
				assert.Equal(t, filepath.Base(expected), videos[0])
			} else {
				assert.Empty(t, videos)
			}
		})
	}
}

func TestRelease_CloseErrorStillClosed(t *testing.T) {
	f := newFixture(t, Options{VideoPolicy: models.VideoOff})

	ec, err := f.provider.AcquireSingle(context.Background(), "TestLogin")
	require.NoError(t, err)
	f.targets[0].closeErr = errors.New("websocket closed")

	f.provider.Release(ec, passed)
	assert.Equal(t, StateClosed, ec.State())
	assert.Equal(t, 0, f.provider.Live())
}

func TestRelease_AttachesToReport(t *testing.T) {
	reportDir := filepath.Join(t.TempDir(), "report")
	f := newFixture(t, Options{
		VideoPolicy: models.VideoOff,
		Report:      artifacts.NewReport(reportDir, common.NopLogger("Report")),
	})

	ec, err := f.provider.AcquireSingle(context.Background(), "TestLogin")
	require.NoError(t, err)

	records := f.provider.Release(ec, failed)
	require.Len(t, records, 1)
	assert.Equal(t, filepath.Join(reportDir, "attachments"), filepath.Dir(records[0].Path))
}

// roleAuthenticator rejects the roles listed in reject
type roleAuthenticator struct {
	reject map[string]bool
}

func (a roleAuthenticator) Authenticate(_ context.Context, ec *ExecutionContext, cred models.Credential) error {
	if a.reject[ec.Role()] {
		return fmt.Errorf("invalid credentials for %s", cred.Username)
	}
	return nil
}

func testCredentials() models.CredentialSet {
	return models.NewCredentialSet(map[string]models.Credential{
		"RECRUITER":      {Username: "recruiter@example.com", Password: "r"},
		"HIRING_MANAGER": {Username: "hm@example.com", Password: "h"},
		"ADMIN":          {Username: "admin@example.com", Password: "a"},
	})
}

func TestAcquireMultiUser_AllSucceed(t *testing.T) {
	f := newFixture(t, Options{VideoPolicy: models.VideoOff, Authenticator: roleAuthenticator{}})

	sessions, err := f.provider.AcquireMultiUser(context.Background(), "TestMulti", testCredentials())
	require.NoError(t, err)
	require.Len(t, sessions, 3)

	// Roles are opened in sorted order
	assert.Equal(t, "ADMIN", sessions["ADMIN"].Role())
	assert.Equal(t, "t1", sessions["ADMIN"].Target().ID())
	assert.Equal(t, "t2", sessions["HIRING_MANAGER"].Target().ID())
	assert.Equal(t, "t3", sessions["RECRUITER"].Target().ID())
	assert.Equal(t, "TestMulti_RECRUITER", sessions["RECRUITER"].ArtifactName())

	f.provider.ReleaseAll(sessions, passed)
	assert.Equal(t, 0, f.provider.Live())
	for _, tgt := range f.targets {
		assert.Equal(t, 1, tgt.closed)
	}
}

func TestAcquireMultiUser_OneInvalidCredential(t *testing.T) {
	f := newFixture(t, Options{
		VideoPolicy:   models.VideoOff,
		Authenticator: roleAuthenticator{reject: map[string]bool{"HIRING_MANAGER": true}},
	})

	sessions, err := f.provider.AcquireMultiUser(context.Background(), "TestMulti", testCredentials())

	var multiErr *MultiUserError
	require.ErrorAs(t, err, &multiErr)
	assert.Equal(t, []string{"HIRING_MANAGER"}, multiErr.Roles())

	var setupErr *SessionSetupError
	require.ErrorAs(t, err, &setupErr)
	assert.Equal(t, "login", setupErr.Stage)

	require.Len(t, sessions, 2)
	assert.NotContains(t, sessions, "HIRING_MANAGER")
	for _, ec := range sessions {
		assert.Equal(t, StateActive, ec.State())
	}

	// The failed role's context was released immediately, exactly once, with a screenshot
	assert.Equal(t, 1, f.targets[1].closed)
	assert.Contains(t, f.log.all(), "t2:screenshot")
	assert.Equal(t, 2, f.provider.Live())

	f.provider.ReleaseAll(sessions, passed)
	for _, tgt := range f.targets {
		assert.Equal(t, 1, tgt.closed, tgt.id)
	}
}

func TestAcquireMultiUser_RequiresAuthenticator(t *testing.T) {
	f := newFixture(t, Options{VideoPolicy: models.VideoOff})
	_, err := f.provider.AcquireMultiUser(context.Background(), "TestMulti", testCredentials())
	assert.ErrorIs(t, err, ErrNoAuthenticator)
}

// panicTarget panics on close to check release isolation
type panicTarget struct{ fakeTarget }

func (p *panicTarget) Close(context.Context) error { panic("driver crashed") }

func TestReleaseAll_IsolatesFailures(t *testing.T) {
	f := newFixture(t, Options{VideoPolicy: models.VideoOff})
	bad := &panicTarget{fakeTarget{id: "bad", log: f.log}}
	good := &fakeTarget{id: "good", log: f.log}

	next := []Target{bad, good}
	f.provider.newTarget = func(context.Context) (Target, error) {
		tgt := next[0]
		next = next[1:]
		return tgt, nil
	}

	a, err := f.provider.AcquireSingle(context.Background(), "TestA")
	require.NoError(t, err)
	b, err := f.provider.AcquireSingle(context.Background(), "TestB")
	require.NoError(t, err)

	assert.NotPanics(t, func() {
		f.provider.ReleaseAll(map[string]*ExecutionContext{"A": a, "B": b}, passed)
	})
	assert.Equal(t, 1, good.closed)
	assert.Equal(t, StateClosed, a.State())
	assert.Equal(t, 0, f.provider.Live())
}

func TestProvider_CloseReleasesLeftovers(t *testing.T) {
	closed := 0
	f := newFixture(t, Options{VideoPolicy: models.VideoOff, OnClose: func() { closed++ }})

	_, err := f.provider.AcquireSingle(context.Background(), "TestLeak")
	require.NoError(t, err)

	f.provider.Close()
	f.provider.Close()

	assert.Equal(t, 1, closed)
	assert.Equal(t, 1, f.targets[0].closed)
	assert.Equal(t, 0, f.provider.Live())
}

func TestOpenFailure(t *testing.T) {
	f := newFixture(t, Options{VideoPolicy: models.VideoOff})
	f.provider.newTarget = func(context.Context) (Target, error) {
		return nil, errors.New("browser gone")
	}

	_, err := f.provider.AcquireSingle(context.Background(), "TestLogin")
	var setupErr *SessionSetupError
	require.ErrorAs(t, err, &setupErr)
	assert.Equal(t, "open", setupErr.Stage)
}
