package pages

import (
	"context"
	"fmt"
	"time"

	"github.com/ternarybob/talentcheck/internal/common"
	"github.com/ternarybob/talentcheck/internal/models"
	"github.com/ternarybob/talentcheck/internal/session"
)

// LoginPage is the sign-in form
type LoginPage struct {
	*Base
}

// NewLoginPage binds the login page to an execution context
func NewLoginPage(ec *session.ExecutionContext, logs *common.LoggerFactory) *LoginPage {
	return &LoginPage{Base: NewBase(ec, logs.For("LoginPage"))}
}

// Open navigates to <baseURL>/login whether or not baseURL already ends in /login
func (p *LoginPage) Open(ctx context.Context, baseURL string) error {
	url, err := common.JoinURL(baseURL, "/login")
	if err != nil {
		return err
	}
	p.logger.Info().Str("url", url).Msg("Opening login page")
	return p.Navigate(ctx, url)
}

// Login submits the credentials
func (p *LoginPage) Login(ctx context.Context, username, password string) error {
	p.logger.Info().Str("username", username).Msg("Signing in")
	if err := p.Fill(ctx, emailInput, username); err != nil {
		return fmt.Errorf("enter username: %w", err)
	}
	if err := p.Fill(ctx, passwordInput, password); err != nil {
		return fmt.Errorf("enter password: %w", err)
	}
	if err := p.Click(ctx, signInButton); err != nil {
		return fmt.Errorf("submit login: %w", err)
	}
	return nil
}

// ErrorMessage returns the visible login error, or "" when none is shown
func (p *LoginPage) ErrorMessage(ctx context.Context) string {
	if !p.IsVisible(ctx, loginErrorText) {
		return ""
	}
	text, err := p.Text(ctx, loginErrorText)
	if err != nil {
		return ""
	}
	return text
}

// LoginFlow signs an execution context in and waits for the dashboard
type LoginFlow struct {
	baseURL          string
	dashboardTimeout time.Duration
	logs             *common.LoggerFactory
}

var _ session.Authenticator = (*LoginFlow)(nil)

// NewLoginFlow creates the authenticator used for multi-user sessions
func NewLoginFlow(baseURL string, dashboardTimeout time.Duration, logs *common.LoggerFactory) *LoginFlow {
	return &LoginFlow{baseURL: baseURL, dashboardTimeout: dashboardTimeout, logs: logs}
}

// Authenticate implements session.Authenticator
func (f *LoginFlow) Authenticate(ctx context.Context, ec *session.ExecutionContext, cred models.Credential) error {
	login := NewLoginPage(ec, f.logs)
	if err := login.Open(ctx, f.baseURL); err != nil {
		return err
	}
	if err := login.Login(ctx, cred.Username, cred.Password); err != nil {
		return err
	}

	dashboard := NewDashboardPage(ec, f.logs)
	if err := dashboard.WaitLoaded(ctx, f.dashboardTimeout); err != nil {
		if msg := login.ErrorMessage(ctx); msg != "" {
			return fmt.Errorf("login rejected: %s: %w", msg, err)
		}
		return fmt.Errorf("dashboard did not load after login: %w", err)
	}
	return nil
}
