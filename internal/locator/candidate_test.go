package locator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestXPathLiteral(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Publish", "'Publish'"},
		{"Don't save", `"Don't save"`},
		{`He said "it's"`, `concat('He said "it', "'", 's"')`},
		{"", "''"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, XPathLiteral(tt.in), tt.in)
	}
}

func TestBuilders(t *testing.T) {
	assert.Equal(t, Candidate{Label: "id upload", Strategy: StrategyCSS, Query: "#upload"}, ID("upload"))
	assert.Equal(t, `#\31 23`, ID("123").Query)
	assert.Equal(t, `[name="position"]`, Name("position").Query)
	assert.Equal(t, `[placeholder="Search here"]`, Placeholder("Search here").Query)
	assert.Equal(t, "//button[contains(normalize-space(.), 'Click to autofill')]", ButtonText("Click to autofill").Query)
	assert.Equal(t, StrategyXPath, Text("Parsed").Strategy)
	assert.Equal(t, `[role="alert"]`, Role("alert", "").Query)
	assert.Equal(t, StrategyXPath, Role("tab", "All").Strategy)

	assert.Equal(t, "//button[normalize-space(.)='Save']", ButtonExact("Save").Query)
	assert.Equal(t, "//*[text()[normalize-space(.)='Tirupati']]", TextExact("Tirupati").Query)
	assert.Contains(t, Heading("Description").Query, "contains(normalize-space(.), 'Description')")

	c := CSS(".error-message").WithLabel("login error")
	assert.Equal(t, "login error (css .error-message)", c.String())
}

func TestCandidateString_NamesQueryOnce(t *testing.T) {
	tests := []struct {
		c    Candidate
		want string
	}{
		{CSS("#x"), "css #x"},
		{XPath("//button"), "xpath //button"},
		{ID("x"), "id x (css #x)"},
		{ButtonText("Save"), "button Save (xpath //button[contains(normalize-space(.), 'Save')])"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.c.String())
	}

	err := &ResolutionError{Attempts: []Attempt{{Candidate: CSS("#x")}}}
	assert.Equal(t, "no locator candidate matched (1 tried):\n  1. css #x: 0 matches", err.Error())
}

func TestCountScript(t *testing.T) {
	script, err := CountScript(CSS(`input[name="position"]`))
	require.NoError(t, err)
	assert.Equal(t, `document.querySelectorAll("input[name=\"position\"]").length`, script)

	script, err = CountScript(XPath("//button"))
	require.NoError(t, err)
	assert.Contains(t, script, `document.evaluate("//button"`)
	assert.Contains(t, script, "snapshotLength")

	_, err = CountScript(Candidate{Strategy: "aria", Query: "x"})
	assert.ErrorIs(t, err, ErrUnsupportedStrategy)
}

func TestElementsExpr(t *testing.T) {
	expr, err := ElementsExpr(CSS("#custom-modal button"))
	require.NoError(t, err)
	assert.Equal(t, `Array.from(document.querySelectorAll("#custom-modal button"))`, expr)

	expr, err = ElementsExpr(Text("Job generated"))
	require.NoError(t, err)
	assert.Contains(t, expr, "snapshotItem(i)")

	_, err = ElementsExpr(Candidate{Strategy: "aria"})
	assert.ErrorIs(t, err, ErrUnsupportedStrategy)
}

func TestQueryOptions(t *testing.T) {
	assert.Len(t, QueryOptions(CSS("a")), 1)
	assert.Len(t, QueryOptions(XPath("//a")), 1)
}
