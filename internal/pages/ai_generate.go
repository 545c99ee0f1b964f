package pages

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/ternarybob/talentcheck/internal/common"
	"github.com/ternarybob/talentcheck/internal/session"
)

// CompanyDetails is what the AI flow enters for a new company
type CompanyDetails struct {
	Name string
	URL  string
	City string
}

// AIGenerateRequest drives one AI-assisted job generation
type AIGenerateRequest struct {
	Company        CompanyDetails
	Template       string
	AdditionalInfo string
}

// AIGeneratePage is the generate-with-AI variant of the job form
type AIGeneratePage struct {
	*Base
}

// NewAIGeneratePage binds the AI generation flow to an execution context
func NewAIGeneratePage(ec *session.ExecutionContext, logs *common.LoggerFactory) *AIGeneratePage {
	return &AIGeneratePage{Base: NewBase(ec, logs.For("AIGeneratePage"))}
}

// StartAIGeneration switches the job form into AI mode
func (p *AIGeneratePage) StartAIGeneration(ctx context.Context) error {
	p.logger.Info().Msg("Starting AI generation")
	if err := p.Click(ctx, generateAIButton); err != nil {
		return fmt.Errorf("generate with ai: %w", err)
	}
	return nil
}

// AddCompany creates the company, then edits its city and closes the details modal
func (p *AIGeneratePage) AddCompany(ctx context.Context, company CompanyDetails, timeout time.Duration) error {
	if err := p.Fill(ctx, companyInput, company.Name); err != nil {
		return fmt.Errorf("company search: %w", err)
	}
	if err := p.Click(ctx, addCompanyText); err != nil {
		return fmt.Errorf("add company: %w", err)
	}
	if err := p.ExpectVisible(ctx, addCompanyHeading, timeout); err != nil {
		return fmt.Errorf("add company: %w", err)
	}

	if err := p.Fill(ctx, companyNameInput, company.Name); err != nil {
		return fmt.Errorf("company name: %w", err)
	}
	if company.URL != "" {
		if err := p.Fill(ctx, companyURLInput, company.URL); err != nil {
			return fmt.Errorf("company url: %w", err)
		}
	}
	if err := p.Click(ctx, saveButton); err != nil {
		return fmt.Errorf("save company: %w", err)
	}
	// Enrichment of the company profile runs server side before its heading shows
	if err := p.ExpectVisible(ctx, headingNamed(company.Name), 3*timeout); err != nil {
		return fmt.Errorf("company details: %w", err)
	}
	p.logger.Info().Str("company", company.Name).Msg("Company added")

	if company.City == "" {
		return p.closeModal(ctx)
	}
	if err := p.Click(ctx, cityEditButton); err != nil {
		return fmt.Errorf("edit city: %w", err)
	}
	if err := p.Fill(ctx, cityInput, company.City); err != nil {
		return fmt.Errorf("edit city: %w", err)
	}
	if err := p.Click(ctx, updateButton); err != nil {
		return fmt.Errorf("update city: %w", err)
	}
	if err := p.ExpectVisible(ctx, textExactly(company.City), p.ec.ActionTimeout()); err != nil {
		return fmt.Errorf("update city: %w", err)
	}
	return p.closeModal(ctx)
}

// SearchTemplate picks a job template by search term and adds free-text guidance
func (p *AIGeneratePage) SearchTemplate(ctx context.Context, term, additional string) error {
	if err := p.Fill(ctx, templateSearchInput, term); err != nil {
		return fmt.Errorf("template search: %w", err)
	}
	if err := p.Click(ctx, fetchTemplateText); err != nil {
		return fmt.Errorf("fetch template: %w", err)
	}
	if additional == "" {
		return nil
	}
	if err := p.Fill(ctx, additionalInput, additional); err != nil {
		return fmt.Errorf("additional info: %w", err)
	}
	return nil
}

// Generate starts generation and waits for the job-generated notice. A zero timeout
// uses the context's parse-wait timeout.
func (p *AIGeneratePage) Generate(ctx context.Context, timeout time.Duration) error {
	if timeout <= 0 {
		timeout = p.ec.ParseWaitTimeout()
	}
	p.logger.Info().Msg("Generating job")
	if err := p.Click(ctx, generateJobButton); err != nil {
		return fmt.Errorf("generate job: %w", err)
	}
	if err := p.WaitVisible(ctx, jobGeneratedText, timeout); err != nil {
		return fmt.Errorf("generate job: %w", err)
	}
	return nil
}

// Publish waits for publish to enable, publishes and opens the job
func (p *AIGeneratePage) Publish(ctx context.Context) error {
	timeout := p.ec.ActionTimeout()
	if err := p.ExpectEnabled(ctx, publishButton, timeout); err != nil {
		return fmt.Errorf("publish: %w", err)
	}
	if err := p.Click(ctx, publishButton); err != nil {
		return fmt.Errorf("publish: %w", err)
	}
	if err := p.Click(ctx, viewJobButton); err != nil {
		return fmt.Errorf("view job: %w", err)
	}
	return nil
}

// VerifyGenerated checks the published job shows location and the requested experience band
func (p *AIGeneratePage) VerifyGenerated(ctx context.Context, location string, experience *regexp.Regexp) error {
	timeout := p.ec.ActionTimeout()
	if location != "" {
		if err := p.ExpectVisible(ctx, textExactly(location), timeout); err != nil {
			return fmt.Errorf("generated location: %w", err)
		}
	}
	if experience != nil {
		if err := p.ExpectPageTextMatches(ctx, experience, timeout); err != nil {
			return fmt.Errorf("generated experience: %w", err)
		}
	}
	return nil
}

// Run drives the whole flow from the job form to the published job
func (p *AIGeneratePage) Run(ctx context.Context, req AIGenerateRequest, modalTimeout time.Duration) error {
	if err := p.StartAIGeneration(ctx); err != nil {
		return err
	}
	if err := p.AddCompany(ctx, req.Company, modalTimeout); err != nil {
		return err
	}
	if err := p.SearchTemplate(ctx, req.Template, req.AdditionalInfo); err != nil {
		return err
	}
	if err := p.Generate(ctx, 0); err != nil {
		return err
	}
	return p.Publish(ctx)
}

func (p *AIGeneratePage) closeModal(ctx context.Context) error {
	if err := p.Click(ctx, modalCloseButton); err != nil {
		return fmt.Errorf("close company modal: %w", err)
	}
	return nil
}
