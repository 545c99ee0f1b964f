package pages

import (
	"context"
	"fmt"
	"time"

	"github.com/ternarybob/talentcheck/internal/common"
	"github.com/ternarybob/talentcheck/internal/session"
)

// DashboardPage is the landing page after login
type DashboardPage struct {
	*Base
}

// NewDashboardPage binds the dashboard to an execution context
func NewDashboardPage(ec *session.ExecutionContext, logs *common.LoggerFactory) *DashboardPage {
	return &DashboardPage{Base: NewBase(ec, logs.For("DashboardPage"))}
}

// WaitLoaded waits for the layout root and the post-new-job control
func (p *DashboardPage) WaitLoaded(ctx context.Context, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)

	if err := p.WaitVisible(ctx, dashboardRoot, timeout); err != nil {
		return err
	}
	return p.WaitVisible(ctx, postNewJobButton, time.Until(deadline))
}

// IsLoaded reports whether the dashboard became ready within timeout.
// On failure the start of the page text is logged.
func (p *DashboardPage) IsLoaded(ctx context.Context, timeout time.Duration) bool {
	if err := p.WaitLoaded(ctx, timeout); err != nil {
		p.logger.Error().
			Err(err).
			Str("dom_sample", p.DOMSample(ctx, 500)).
			Msg("Dashboard not loaded")
		return false
	}
	p.logger.Info().Msg("Dashboard loaded")
	return true
}

// ClickPostNewJob opens the job details form
func (p *DashboardPage) ClickPostNewJob(ctx context.Context) error {
	p.logger.Info().Msg("Clicking Post New Job")
	if err := p.Click(ctx, postNewJobButton); err != nil {
		return fmt.Errorf("post new job: %w", err)
	}
	return nil
}

// ViewAllJobs opens the job list
func (p *DashboardPage) ViewAllJobs(ctx context.Context) error {
	p.logger.Info().Msg("Clicking View All Jobs")
	if err := p.Click(ctx, viewAllJobsButton); err != nil {
		return fmt.Errorf("view all jobs: %w", err)
	}
	return nil
}
