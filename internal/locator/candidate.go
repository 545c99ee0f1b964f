package locator

import (
	"fmt"
	"strings"
)

// Strategy is how a candidate query is interpreted
type Strategy string

const (
	StrategyCSS   Strategy = "css"
	StrategyXPath Strategy = "xpath"
)

// Candidate is one way of finding an element. It is purely descriptive.
type Candidate struct {
	Label    string   // Human-readable description used in diagnostics
	Strategy Strategy
	Query    string
}

func (c Candidate) String() string {
	if c.Label != "" {
		return fmt.Sprintf("%s (%s %s)", c.Label, c.Strategy, c.Query)
	}
	return fmt.Sprintf("%s %s", c.Strategy, c.Query)
}

// Candidates is an ordered list; earlier entries take precedence
type Candidates []Candidate

// Of builds a candidate list
func Of(candidates ...Candidate) Candidates {
	return Candidates(candidates)
}

// Labels returns the diagnostic strings of every candidate in order
func (cs Candidates) Labels() []string {
	out := make([]string, len(cs))
	for i, c := range cs {
		out[i] = c.String()
	}
	return out
}

// CSS matches a CSS selector. The query is its own description; use WithLabel to name it.
func CSS(selector string) Candidate {
	return Candidate{Strategy: StrategyCSS, Query: selector}
}

// XPath matches an XPath expression
func XPath(expr string) Candidate {
	return Candidate{Strategy: StrategyXPath, Query: expr}
}

// ID matches an element id
func ID(id string) Candidate {
	return Candidate{Label: "id " + id, Strategy: StrategyCSS, Query: "#" + cssIdent(id)}
}

// Name matches the name attribute
func Name(name string) Candidate {
	return Candidate{Label: "name " + name, Strategy: StrategyCSS, Query: fmt.Sprintf(`[name=%q]`, name)}
}

// Placeholder matches the placeholder attribute
func Placeholder(text string) Candidate {
	return Candidate{Label: "placeholder " + text, Strategy: StrategyCSS, Query: fmt.Sprintf(`[placeholder=%q]`, text)}
}

// ButtonText matches a button whose normalized text contains text
func ButtonText(text string) Candidate {
	return Candidate{
		Label:    "button " + text,
		Strategy: StrategyXPath,
		Query:    fmt.Sprintf("//button[contains(normalize-space(.), %s)]", XPathLiteral(text)),
	}
}

// ButtonExact matches a button whose normalized text equals text
func ButtonExact(text string) Candidate {
	return Candidate{
		Label:    "button = " + text,
		Strategy: StrategyXPath,
		Query:    fmt.Sprintf("//button[normalize-space(.)=%s]", XPathLiteral(text)),
	}
}

// Heading matches h1-h6 or role=heading elements containing text
func Heading(text string) Candidate {
	return Candidate{
		Label:    "heading " + text,
		Strategy: StrategyXPath,
		Query: fmt.Sprintf("//*[(self::h1 or self::h2 or self::h3 or self::h4 or self::h5 or self::h6 or @role='heading') and contains(normalize-space(.), %s)]",
			XPathLiteral(text)),
	}
}

// TextExact matches elements with a direct text node equal to text
func TextExact(text string) Candidate {
	return Candidate{
		Label:    "text = " + text,
		Strategy: StrategyXPath,
		Query:    fmt.Sprintf("//*[text()[normalize-space(.)=%s]]", XPathLiteral(text)),
	}
}

// Text matches the innermost elements whose normalized text contains text
func Text(text string) Candidate {
	lit := XPathLiteral(text)
	return Candidate{
		Label:    "text " + text,
		Strategy: StrategyXPath,
		Query:    fmt.Sprintf("//*[contains(normalize-space(.), %s) and not(*[contains(normalize-space(.), %s)])]", lit, lit),
	}
}

// Role matches an ARIA role, optionally narrowed by accessible text
func Role(role, name string) Candidate {
	if name == "" {
		return Candidate{Label: "role " + role, Strategy: StrategyCSS, Query: fmt.Sprintf(`[role=%q]`, role)}
	}
	return Candidate{
		Label:    fmt.Sprintf("role %s %q", role, name),
		Strategy: StrategyXPath,
		Query: fmt.Sprintf("//*[@role=%s and (contains(normalize-space(.), %s) or @aria-label=%s)]",
			XPathLiteral(role), XPathLiteral(name), XPathLiteral(name)),
	}
}

// WithLabel returns a copy with a diagnostic label
func (c Candidate) WithLabel(label string) Candidate {
	c.Label = label
	return c
}

// XPathLiteral quotes s for use inside an XPath expression.
// Strings containing both quote kinds are built with concat().
func XPathLiteral(s string) string {
	if !strings.Contains(s, "'") {
		return "'" + s + "'"
	}
	if !strings.Contains(s, `"`) {
		return `"` + s + `"`
	}
	parts := strings.Split(s, "'")
	quoted := make([]string, 0, len(parts)*2)
	for i, p := range parts {
		if i > 0 {
			quoted = append(quoted, `"'"`)
		}
		if p != "" {
			quoted = append(quoted, "'"+p+"'")
		}
	}
	return "concat(" + strings.Join(quoted, ", ") + ")"
}

func cssIdent(id string) string {
	var b strings.Builder
	for i, r := range id {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r == '_', r == '-', r >= 0x80:
			b.WriteRune(r)
		case r >= '0' && r <= '9' && i > 0:
			b.WriteRune(r)
		default:
			fmt.Fprintf(&b, `\%x `, r)
		}
	}
	return b.String()
}
