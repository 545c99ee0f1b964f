//go:build e2e

package ui

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/talentcheck/internal/harness"
	"github.com/ternarybob/talentcheck/internal/pages"
)

const recruiter = "RECRUITER"

func TestLogin_ValidCredentials(t *testing.T) {
	s := requireSuite(t)
	cred := requireCredential(t, recruiter)
	ctx := s.Context()

	ec := s.Single(t)
	login := pages.NewLoginPage(ec, s.Logs())
	harness.Fatal(t, "open login", login.Open(ctx, s.Config().App.BaseURL))
	harness.Fatal(t, "login", login.Login(ctx, cred.Username, cred.Password))

	dashboard := pages.NewDashboardPage(ec, s.Logs())
	require.True(t, dashboard.IsLoaded(ctx, s.Config().Timeouts.DashboardTimeout()), "dashboard should load after login")
}

func TestLogin_InvalidPassword(t *testing.T) {
	s := requireSuite(t)
	cred := requireCredential(t, recruiter)
	ctx := s.Context()

	ec := s.Single(t)
	login := pages.NewLoginPage(ec, s.Logs())
	harness.Fatal(t, "open login", login.Open(ctx, s.Config().App.BaseURL))
	harness.Fatal(t, "login", login.Login(ctx, cred.Username, cred.Password+"-wrong"))

	dashboard := pages.NewDashboardPage(ec, s.Logs())
	assert.False(t, dashboard.IsLoaded(ctx, s.Config().Timeouts.DashboardTimeout()), "dashboard must not load with a bad password")
	t.Logf("login error shown: %q", login.ErrorMessage(ctx))
}

func TestMultiUser_AllRolesReachDashboard(t *testing.T) {
	s := requireSuite(t)
	if s.Credentials().Len() < 2 {
		t.Skip("multi-user login needs at least two configured roles")
	}
	ctx := s.Context()

	sessions, err := s.MultiUser(t)
	require.NoError(t, err)
	require.Len(t, sessions, s.Credentials().Len())

	for role, ec := range sessions {
		dashboard := pages.NewDashboardPage(ec, s.Logs())
		assert.True(t, dashboard.IsLoaded(ctx, s.Config().Timeouts.DashboardTimeout()), "dashboard for %s", role)
	}
}
