package pages

import (
	"encoding/json"
	"fmt"

	"github.com/ternarybob/talentcheck/internal/locator"
)

// ElementState is what the page reports about a candidate's preferred match
type ElementState struct {
	Count   int    `json:"count"`
	Visible bool   `json:"visible"`
	Text    string `json:"text"`
	Value   string `json:"value"`
	Enabled bool   `json:"enabled"`
}

// point is a viewport coordinate for mouse input
type point struct {
	Found bool    `json:"found"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
}

const visibleFn = `e => { const r = e.getBoundingClientRect(); const s = getComputedStyle(e); return r.width > 0 && r.height > 0 && s.visibility !== 'hidden' && s.display !== 'none'; }`

// elementScript wraps body so that `els` holds every match and `e` the first visible one
func elementScript(c locator.Candidate, body string) (string, error) {
	expr, err := locator.ElementsExpr(c)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("(() => { const els = %s; const visible = %s; const e = els.find(visible) || els[0]; %s })()", expr, visibleFn, body), nil
}

func stateScript(c locator.Candidate) (string, error) {
	return elementScript(c, `if (!e) return {count: 0}; return {count: els.length, visible: visible(e), text: (e.innerText || e.textContent || '').trim(), value: ('value' in e && e.value != null) ? String(e.value) : '', enabled: !e.disabled && e.getAttribute('aria-disabled') !== 'true'};`)
}

func pointScript(c locator.Candidate) (string, error) {
	return elementScript(c, `if (!e) return {found: false}; e.scrollIntoView({block: 'center', inline: 'center'}); const r = e.getBoundingClientRect(); return {found: true, x: r.left + r.width / 2, y: r.top + r.height / 2};`)
}

func scrollScript(c locator.Candidate) (string, error) {
	return elementScript(c, `if (!e) return false; e.scrollIntoView({block: 'center'}); return true;`)
}

// fillScript sets the value through the native setter so framework change tracking sees it
func fillScript(c locator.Candidate, value string) (string, error) {
	v, err := json.Marshal(value)
	if err != nil {
		return "", err
	}
	return elementScript(c, fmt.Sprintf(`if (!e) return false; e.focus(); const d = Object.getOwnPropertyDescriptor(Object.getPrototypeOf(e), 'value'); if (d && d.set) { d.set.call(e, %[1]s); } else { e.value = %[1]s; } e.dispatchEvent(new Event('input', {bubbles: true})); e.dispatchEvent(new Event('change', {bubbles: true})); return true;`, v))
}

// selectScript picks an option by value, label or visible text
func selectScript(c locator.Candidate, option string) (string, error) {
	v, err := json.Marshal(option)
	if err != nil {
		return "", err
	}
	return elementScript(c, fmt.Sprintf(`if (!e || !e.options) return false; const o = Array.from(e.options).find(o => o.value === %[1]s || o.label === %[1]s || o.text.trim() === %[1]s); if (!o) return false; const d = Object.getOwnPropertyDescriptor(Object.getPrototypeOf(e), 'value'); if (d && d.set) { d.set.call(e, o.value); } else { e.value = o.value; } e.dispatchEvent(new Event('input', {bubbles: true})); e.dispatchEvent(new Event('change', {bubbles: true})); return true;`, v))
}

func checkScript(c locator.Candidate) (string, error) {
	return elementScript(c, `if (!e) return false; if (!e.checked) e.click(); return !!e.checked;`)
}

const pageTextScript = `document.body ? document.body.innerText : ''`
