package pages

import (
	"fmt"

	"github.com/ternarybob/talentcheck/internal/locator"
)

// Login
var (
	emailInput     = locator.Of(locator.CSS(`input[type="email"]`), locator.Name("email"), locator.Placeholder("Email"))
	passwordInput  = locator.Of(locator.CSS(`input[type="password"]`), locator.Name("password"))
	signInButton   = locator.Of(locator.ButtonText("Sign in"), locator.ButtonText("Sign In"), locator.CSS(`button[type="submit"]`))
	loginErrorText = locator.Of(locator.CSS(`.error-message, div[role="alert"]`), locator.CSS(".ant-message-error"))
)

// Dashboard
var (
	dashboardRoot     = locator.Of(locator.CSS("div.ant-layout"), locator.CSS("main"))
	postNewJobButton  = locator.Of(locator.ButtonText("Post New Job"), locator.ButtonText("Post new job"))
	viewAllJobsButton = locator.Of(locator.ButtonText("View All Jobs"), locator.ButtonText("View all jobs"))
)

// Job details form
var (
	generateAIButton  = locator.Of(locator.ButtonText("Generate with AI"))
	uploadInput       = locator.Of(locator.CSS("input#upload"), locator.CSS(`input[type="file"]`))
	autofillButton    = locator.Of(locator.ButtonText("Click to autofill"))
	parsedButton      = locator.Of(locator.ButtonText("Parsed"))
	removeUploadLink  = locator.Of(locator.TextExact("Remove"), locator.ButtonText("Remove"))
	jobTitleInput     = locator.Of(locator.CSS(`input[name="position"]`), locator.Placeholder("Job title"))
	companyInput      = locator.Of(locator.Placeholder("Search here"), locator.CSS(`#companySection input`))
	internalTitle     = locator.Of(locator.ID("internal-job-title"), locator.Name("internalJobTitle"))
	headcountInput    = locator.Of(locator.ID("headcount"), locator.Name("headcount"))
	jobTypeInput      = locator.Of(locator.CSS(`#Job-type input[placeholder="Type here"]`), locator.CSS("#Job-type input"))
	fullTimeButton    = locator.Of(locator.ButtonExact("Full-time"), locator.ButtonText("Full-time"))
	departmentInput   = textbox("Department")
	onSiteButton      = locator.Of(locator.ButtonExact("On-site"), locator.ButtonText("On-site"))
	locationSearch    = textbox("Press Enter to insert")
	currencySelect    = locator.Of(locator.CSS(`select[name="expectedSalaryCurrency"]`))
	salaryMinInput    = locator.Of(locator.CSS(`input[name="expectedSalaryMin"]`))
	salaryMaxInput    = locator.Of(locator.CSS(`input[name="expectedSalaryMax"]`))
	salaryDuration    = locator.Of(locator.CSS(`select[name="expectedSalaryDuration"]`))
	salaryNoteInput   = textbox("Enter your salary note")
	previewButton     = locator.Of(locator.ButtonExact("Preview"), locator.ButtonText("Preview"))
	descriptionHeader = locator.Of(locator.Heading("Description"))
	publishButton     = locator.Of(locator.ButtonExact("Publish"), locator.ButtonText("Publish"))
	successModal      = locator.Of(locator.CSS("#custom-modal"), locator.CSS(`[role="dialog"]`))
	viewJobButton     = locator.Of(locator.ButtonText("View Job"))
	allTabButton      = locator.Of(
		locator.XPath("//*[@id='job-tablayout-parent']//button[normalize-space(.)='All']"),
		locator.XPath("//*[@id='job-tablayout-parent']//*[@role='tab' and normalize-space(.)='All']"),
	)
)

// AI generation
var (
	addCompanyText      = textNamed("Add Company")
	addCompanyHeading   = locator.Of(locator.Heading("Add Company Details"))
	companyNameInput    = textbox("Enter company name")
	companyURLInput     = textbox("Enter company URL")
	saveButton          = locator.Of(locator.ButtonExact("Save"))
	cityEditButton      = locator.Of(locator.CSS(`#field-city [title="Edit"]`))
	cityInput           = locator.Of(locator.CSS("#field-city input"), locator.CSS("#field-city textarea"))
	updateButton        = locator.Of(locator.ButtonExact("Update"), locator.ButtonText("Update"))
	modalCloseButton    = locator.Of(locator.CSS("#custom-modal button"))
	templateSearchInput = textbox("Search template")
	fetchTemplateText   = textNamed("Fetch template for")
	additionalInput     = textbox("Enter any additional")
	generateJobButton   = locator.Of(locator.ButtonText("Generate job"))
	jobGeneratedText    = textNamed("Job generated")
)

// Default screening questions: toggle button and the question it adds
var screeningQuestions = []struct {
	Toggle   string
	Question string
}{
	{"Background check", "Question 1"},
	{"Industry experience", "Question 3"},
	{"Visa status", "Question 5"},
	{"Work authorization", "Question 6"},
	{"Remote work", "Question 7"},
}

// textbox matches an input or textarea by accessible name, placeholder prefix first
func textbox(name string) locator.Candidates {
	lit := locator.XPathLiteral(name)
	return locator.Of(
		locator.CSS(fmt.Sprintf(`input[placeholder^=%q], textarea[placeholder^=%q]`, name, name)),
		locator.XPath(fmt.Sprintf("//*[(self::input or self::textarea) and starts-with(@aria-label, %s)]", lit)),
		locator.XPath(fmt.Sprintf("//label[contains(normalize-space(.), %s)]/following::*[self::input or self::textarea][1]", lit)),
	)
}

func buttonNamed(name string) locator.Candidates {
	return locator.Of(locator.ButtonExact(name), locator.ButtonText(name), locator.Role("button", name))
}

func headingNamed(name string) locator.Candidates {
	return locator.Of(locator.Heading(name))
}

func textNamed(name string) locator.Candidates {
	return locator.Of(locator.Text(name))
}

func textExactly(name string) locator.Candidates {
	return locator.Of(locator.TextExact(name))
}
