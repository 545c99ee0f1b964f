package fixtures

import (
	"fmt"
	"strings"

	"github.com/ternarybob/talentcheck/internal/models"
)

// SampleJob is the posting the create-job scenarios upload and expect back
func SampleJob() models.JobPosting {
	return models.JobPosting{
		JobTitle:      "Software Test",
		CompanyName:   "SproutsAI",
		Location:      "Hyderabad",
		Position:      "Software Test Engineer testing",
		InternalTitle: "testing",
		Headcount:     1,
		JobType:       "Test",
		Department:    "QA",
		WorkLocation:  "India",
		Currency:      "₹",
		SalaryMin:     200001,
		SalaryMax:     400002,
		Duration:      "Per day",
		SalaryNote:    "testing salary note",
	}
}

// JobDescriptionMarkdown is the document body the parser is expected to
// read the title, company and location from
func JobDescriptionMarkdown(job models.JobPosting) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# %s Engineer\n\n", job.JobTitle)
	fmt.Fprintf(&b, "**Company:** %s\n\n", job.CompanyName)
	fmt.Fprintf(&b, "**Location:** %s\n\n", job.Location)
	if job.Department != "" {
		fmt.Fprintf(&b, "**Department:** %s\n\n", job.Department)
	}
	b.WriteString("## About the role\n\n")
	fmt.Fprintf(&b, "%s is hiring a %s Engineer to own test planning and automation for its recruiting platform.\n\n", job.CompanyName, job.JobTitle)

	b.WriteString("## Responsibilities\n\n")
	b.WriteString("- Design and maintain end-to-end UI test suites\n")
	b.WriteString("- Review requirements and write test plans\n")
	b.WriteString("- Triage failures with screenshots and recordings\n\n")

	b.WriteString("## Requirements\n\n")
	b.WriteString("- 2 to 5 years of software testing experience\n")
	b.WriteString("- Familiarity with browser automation\n\n")

	if job.Description != "" {
		b.WriteString(job.Description)
		b.WriteString("\n\n")
	}

	b.WriteString("---\n\n")
	b.WriteString("| Field | Value |\n|-------|-------|\n")
	fmt.Fprintf(&b, "| Position | %s |\n", job.JobTitle)
	fmt.Fprintf(&b, "| Company | %s |\n", job.CompanyName)
	fmt.Fprintf(&b, "| Location | %s |\n", job.Location)
	return b.String()
}
