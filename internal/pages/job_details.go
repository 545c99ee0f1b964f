package pages

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"time"

	"github.com/ternarybob/talentcheck/internal/common"
	"github.com/ternarybob/talentcheck/internal/locator"
	"github.com/ternarybob/talentcheck/internal/models"
	"github.com/ternarybob/talentcheck/internal/session"
)

// JobCreatedMessage is shown in the success modal after publishing
const JobCreatedMessage = "Job Created Successfully!"

// JobDetailsPage is the multi-step job posting form
type JobDetailsPage struct {
	*Base
	jobForm
}

// NewJobDetailsPage binds the job form to an execution context. The form starts empty.
func NewJobDetailsPage(ec *session.ExecutionContext, logs *common.LoggerFactory) *JobDetailsPage {
	return &JobDetailsPage{Base: NewBase(ec, logs.For("JobDetailsPage"))}
}

// UploadDocument sets the job description file and waits for the autofill control
func (p *JobDetailsPage) UploadDocument(ctx context.Context, path string) error {
	const op = "upload document"
	if err := p.require(op, FileUploaded); err != nil {
		return err
	}

	p.logger.Info().Str("file", path).Msg("Uploading job document")
	if err := p.Upload(ctx, uploadInput, path); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := p.WaitVisible(ctx, autofillButton, p.ec.ActionTimeout()); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	p.advance(FileUploaded)
	return nil
}

// RemoveUploadedDocument discards the uploaded file and returns the form to empty
func (p *JobDetailsPage) RemoveUploadedDocument(ctx context.Context) error {
	const op = "remove document"
	if err := p.require(op, FormEmpty); err != nil {
		return err
	}
	if err := p.Click(ctx, removeUploadLink); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := p.WaitVisible(ctx, uploadInput, p.ec.ActionTimeout()); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	p.advance(FormEmpty)
	return nil
}

// TriggerParsing clicks autofill
func (p *JobDetailsPage) TriggerParsing(ctx context.Context) error {
	const op = "trigger parsing"
	if err := p.require(op, ParsingTriggered); err != nil {
		return err
	}
	p.logger.Info().Msg("Triggering autofill")
	if err := p.Click(ctx, autofillButton); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	p.advance(ParsingTriggered)
	return nil
}

// WaitForParsedState waits for the parse-complete indicator. A zero timeout uses
// the context's parse-wait timeout.
func (p *JobDetailsPage) WaitForParsedState(ctx context.Context, timeout time.Duration) error {
	const op = "wait for parsed"
	if err := p.require(op, Parsed); err != nil {
		return err
	}
	if timeout <= 0 {
		timeout = p.ec.ParseWaitTimeout()
	}

	start := time.Now()
	if err := p.WaitVisible(ctx, parsedButton, timeout); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	p.logger.Info().Str("elapsed", time.Since(start).Round(time.Second).String()).Msg("Document parsed")
	p.advance(Parsed)
	return nil
}

// VerifyAutofilledFields checks the parsed values against job, ignoring case
func (p *JobDetailsPage) VerifyAutofilledFields(ctx context.Context, job models.JobPosting) error {
	const op = "verify autofilled fields"
	if err := p.require(op, FieldsVerified); err != nil {
		return err
	}

	timeout := p.ec.ActionTimeout()
	if err := p.ExpectValueContains(ctx, jobTitleInput, job.JobTitle, timeout); err != nil {
		return fmt.Errorf("%s: job title: %w", op, err)
	}
	if job.CompanyName != "" {
		if err := p.ExpectValueContains(ctx, companyInput, job.CompanyName, timeout); err != nil {
			return fmt.Errorf("%s: company: %w", op, err)
		}
	}
	if job.Location != "" {
		if err := p.ExpectVisible(ctx, buttonNamed(job.Location), timeout); err != nil {
			return fmt.Errorf("%s: location: %w", op, err)
		}
	}
	p.advance(FieldsVerified)
	return nil
}

// FillBasicJobDetails enters position, internal title and headcount
func (p *JobDetailsPage) FillBasicJobDetails(ctx context.Context, job models.JobPosting) error {
	if job.Position != "" {
		if err := p.Fill(ctx, jobTitleInput, job.Position); err != nil {
			return fmt.Errorf("position: %w", err)
		}
	}
	if job.InternalTitle != "" {
		if err := p.Fill(ctx, internalTitle, job.InternalTitle); err != nil {
			return fmt.Errorf("internal title: %w", err)
		}
	}
	if job.Headcount > 0 {
		if err := p.Fill(ctx, headcountInput, strconv.Itoa(job.Headcount)); err != nil {
			return fmt.Errorf("headcount: %w", err)
		}
	}
	return nil
}

// AddJobTypeAndDepartment adds a custom job type, picks Full-time and sets the department
func (p *JobDetailsPage) AddJobTypeAndDepartment(ctx context.Context, job models.JobPosting) error {
	timeout := p.ec.ActionTimeout()
	if job.JobType != "" {
		if err := p.enterTag(ctx, jobTypeInput, job.JobType); err != nil {
			return fmt.Errorf("job type: %w", err)
		}
		if err := p.WaitVisible(ctx, buttonNamed(job.JobType), timeout); err != nil {
			return fmt.Errorf("job type: %w", err)
		}
	}
	if err := p.Click(ctx, fullTimeButton); err != nil {
		return fmt.Errorf("full-time: %w", err)
	}
	if job.Department != "" {
		if err := p.enterTag(ctx, departmentInput, job.Department); err != nil {
			return fmt.Errorf("department: %w", err)
		}
	}
	return nil
}

// SelectLocation picks on-site and inserts the work location
func (p *JobDetailsPage) SelectLocation(ctx context.Context, job models.JobPosting) error {
	if err := p.Click(ctx, onSiteButton); err != nil {
		return fmt.Errorf("on-site: %w", err)
	}
	if job.WorkLocation == "" {
		return nil
	}
	if err := p.Fill(ctx, locationSearch, job.WorkLocation); err != nil {
		return fmt.Errorf("location: %w", err)
	}
	if err := p.Click(ctx, textExactly(job.WorkLocation)); err != nil {
		return fmt.Errorf("location: %w", err)
	}
	return nil
}

// FillSalaryDetails enters currency, band, duration and note
func (p *JobDetailsPage) FillSalaryDetails(ctx context.Context, job models.JobPosting) error {
	if job.Currency != "" {
		if err := p.Select(ctx, currencySelect, job.Currency); err != nil {
			return fmt.Errorf("currency: %w", err)
		}
	}
	if err := p.Fill(ctx, salaryMinInput, strconv.Itoa(job.SalaryMin)); err != nil {
		return fmt.Errorf("salary min: %w", err)
	}
	if err := p.Fill(ctx, salaryMaxInput, strconv.Itoa(job.SalaryMax)); err != nil {
		return fmt.Errorf("salary max: %w", err)
	}
	if job.Duration != "" {
		if err := p.Select(ctx, salaryDuration, job.Duration); err != nil {
			return fmt.Errorf("duration: %w", err)
		}
	}
	if job.SalaryNote != "" {
		if err := p.Fill(ctx, salaryNoteInput, job.SalaryNote); err != nil {
			return fmt.Errorf("salary note: %w", err)
		}
	}
	return nil
}

// PreviewJob opens the preview and checks the salary line is rendered
func (p *JobDetailsPage) PreviewJob(ctx context.Context, job models.JobPosting) error {
	timeout := p.ec.ActionTimeout()
	if err := p.Click(ctx, previewButton); err != nil {
		return fmt.Errorf("preview: %w", err)
	}
	if err := p.ExpectVisible(ctx, descriptionHeader, timeout); err != nil {
		return fmt.Errorf("preview: %w", err)
	}
	if pattern := SalaryPattern(job); pattern != nil {
		if err := p.ExpectPageTextMatches(ctx, pattern, timeout); err != nil {
			return fmt.Errorf("preview salary: %w", err)
		}
	}
	return nil
}

// SalaryPattern matches the preview's "<currency> ... <duration>" line, nil when neither is set
func SalaryPattern(job models.JobPosting) *regexp.Regexp {
	if job.Currency == "" && job.Duration == "" {
		return nil
	}
	return regexp.MustCompile(regexp.QuoteMeta(job.Currency) + ".*" + regexp.QuoteMeta(job.Duration))
}

// EnableDefaultScreeningQuestions switches on each default question and waits for it to appear
func (p *JobDetailsPage) EnableDefaultScreeningQuestions(ctx context.Context) error {
	timeout := p.ec.ActionTimeout()
	for _, q := range screeningQuestions {
		if err := p.Click(ctx, buttonNamed(q.Toggle)); err != nil {
			return fmt.Errorf("screening question %q: %w", q.Toggle, err)
		}
		if err := p.WaitVisible(ctx, buttonNamed(q.Question), timeout); err != nil {
			return fmt.Errorf("screening question %q: %w", q.Toggle, err)
		}
	}
	return nil
}

// PublishJob waits for publish to become enabled and clicks it
func (p *JobDetailsPage) PublishJob(ctx context.Context) error {
	const op = "publish"
	if err := p.require(op, Published); err != nil {
		return err
	}
	if err := p.ExpectEnabled(ctx, publishButton, p.ec.ActionTimeout()); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	p.logger.Info().Msg("Publishing job")
	if err := p.Click(ctx, publishButton); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	p.advance(Published)
	return nil
}

// VerifySuccessModal waits for the success modal to carry the job-created message
func (p *JobDetailsPage) VerifySuccessModal(ctx context.Context, timeout time.Duration) error {
	const op = "verify success modal"
	if err := p.require(op, SuccessConfirmed); err != nil {
		return err
	}
	if err := p.ExpectContainsText(ctx, successModal, JobCreatedMessage, timeout); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	p.logger.Info().Msg("Job creation confirmed")
	p.advance(SuccessConfirmed)
	return nil
}

// ClickViewJob opens the created job and selects its All tab
func (p *JobDetailsPage) ClickViewJob(ctx context.Context, timeout time.Duration) error {
	const op = "view job"
	if err := p.require(op, Viewable); err != nil {
		return err
	}
	if err := p.Click(ctx, viewJobButton); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := p.WaitVisible(ctx, allTabButton, timeout); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := p.Click(ctx, allTabButton); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	p.advance(Viewable)
	return nil
}

// enterTag types into a tag input and commits with Enter
func (p *JobDetailsPage) enterTag(ctx context.Context, input locator.Candidates, value string) error {
	if err := p.Click(ctx, input); err != nil {
		return err
	}
	if err := p.Fill(ctx, input, value); err != nil {
		return err
	}
	return p.PressKey(ctx, "Enter")
}
