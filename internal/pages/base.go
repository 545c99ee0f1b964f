// -----------------------------------------------------------------------
// Page object base - resolver-backed actions with bounded waits
// -----------------------------------------------------------------------

package pages

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/chromedp/cdproto/input"
	"github.com/chromedp/chromedp"
	"github.com/chromedp/chromedp/kb"

	"github.com/ternarybob/talentcheck/internal/common"
	"github.com/ternarybob/talentcheck/internal/locator"
	"github.com/ternarybob/talentcheck/internal/session"
)

// VisibilityWindow bounds IsVisible
const VisibilityWindow = 2 * time.Second

// DefaultPollInterval is how often bounded waits re-check the page
const DefaultPollInterval = 250 * time.Millisecond

// Base holds what every page object needs: the execution context's page,
// the resolver over it and the page's component logger.
type Base struct {
	ec       *session.ExecutionContext
	target   session.Target
	resolver *locator.Resolver
	logger   *common.Logger
	interval time.Duration
}

// NewBase binds a page object to an execution context
func NewBase(ec *session.ExecutionContext, logger *common.Logger) *Base {
	target := ec.Target()
	return &Base{
		ec:       ec,
		target:   target,
		resolver: locator.NewResolver(locator.NewBrowserCounter(target), logger),
		logger:   logger,
		interval: DefaultPollInterval,
	}
}

// Context returns the execution context the page drives
func (b *Base) Context() *session.ExecutionContext {
	return b.ec
}

// Navigate loads url within the action timeout
func (b *Base) Navigate(ctx context.Context, url string) error {
	actx, cancel := b.ec.ActionContext(ctx)
	defer cancel()

	b.logger.Debug().Str("url", url).Msg("Navigating")
	if err := b.target.Run(actx, chromedp.Navigate(url)); err != nil {
		return fmt.Errorf("navigate to %s: %w", url, err)
	}
	return nil
}

// Click waits for a visible match and clicks its centre
func (b *Base) Click(ctx context.Context, cs locator.Candidates) error {
	actx, cancel := b.ec.ActionContext(ctx)
	defer cancel()

	c, _, err := b.waitState(actx, "click", cs, b.ec.ActionTimeout(), isVisible)
	if err != nil {
		return err
	}
	p, err := b.point(actx, c)
	if err != nil {
		return err
	}
	if err := b.target.Run(actx, chromedp.MouseClickXY(p.X, p.Y)); err != nil {
		return fmt.Errorf("click %s: %w", c, err)
	}
	return nil
}

// Fill replaces the value of a visible input
func (b *Base) Fill(ctx context.Context, cs locator.Candidates, text string) error {
	actx, cancel := b.ec.ActionContext(ctx)
	defer cancel()

	c, _, err := b.waitState(actx, "fill", cs, b.ec.ActionTimeout(), isVisible)
	if err != nil {
		return err
	}
	script, err := fillScript(c, text)
	if err != nil {
		return err
	}
	var ok bool
	if err := b.target.Evaluate(actx, script, &ok); err != nil {
		return fmt.Errorf("fill %s: %w", c, err)
	}
	if !ok {
		return fmt.Errorf("fill %s: element disappeared", c)
	}
	return nil
}

// Clear empties a visible input
func (b *Base) Clear(ctx context.Context, cs locator.Candidates) error {
	return b.Fill(ctx, cs, "")
}

// Text returns the visible text of the preferred match
func (b *Base) Text(ctx context.Context, cs locator.Candidates) (string, error) {
	actx, cancel := b.ec.ActionContext(ctx)
	defer cancel()

	_, st, err := b.waitState(actx, "text", cs, b.ec.ActionTimeout(), isVisible)
	if err != nil {
		return "", err
	}
	return st.Text, nil
}

// Value returns the current value of the preferred match
func (b *Base) Value(ctx context.Context, cs locator.Candidates) (string, error) {
	actx, cancel := b.ec.ActionContext(ctx)
	defer cancel()

	_, st, err := b.waitState(actx, "value", cs, b.ec.ActionTimeout(), isPresent)
	if err != nil {
		return "", err
	}
	return st.Value, nil
}

// Select chooses an option of a <select> by value, label or text
func (b *Base) Select(ctx context.Context, cs locator.Candidates, option string) error {
	actx, cancel := b.ec.ActionContext(ctx)
	defer cancel()

	c, _, err := b.waitState(actx, "select", cs, b.ec.ActionTimeout(), isVisible)
	if err != nil {
		return err
	}
	script, err := selectScript(c, option)
	if err != nil {
		return err
	}
	var ok bool
	if err := b.target.Evaluate(actx, script, &ok); err != nil {
		return fmt.Errorf("select %q in %s: %w", option, c, err)
	}
	if !ok {
		return fmt.Errorf("select %q in %s: option not found", option, c)
	}
	return nil
}

// Check ticks a checkbox if it is not already ticked
func (b *Base) Check(ctx context.Context, cs locator.Candidates) error {
	actx, cancel := b.ec.ActionContext(ctx)
	defer cancel()

	c, _, err := b.waitState(actx, "check", cs, b.ec.ActionTimeout(), isPresent)
	if err != nil {
		return err
	}
	script, err := checkScript(c)
	if err != nil {
		return err
	}
	var checked bool
	if err := b.target.Evaluate(actx, script, &checked); err != nil {
		return fmt.Errorf("check %s: %w", c, err)
	}
	if !checked {
		return fmt.Errorf("check %s: still unchecked", c)
	}
	return nil
}

// Hover moves the mouse over the preferred match
func (b *Base) Hover(ctx context.Context, cs locator.Candidates) error {
	actx, cancel := b.ec.ActionContext(ctx)
	defer cancel()

	c, _, err := b.waitState(actx, "hover", cs, b.ec.ActionTimeout(), isVisible)
	if err != nil {
		return err
	}
	p, err := b.point(actx, c)
	if err != nil {
		return err
	}
	return b.target.Run(actx, chromedp.ActionFunc(func(ctx context.Context) error {
		return input.DispatchMouseEvent(input.MouseMoved, p.X, p.Y).Do(ctx)
	}))
}

// ScrollIntoView scrolls the preferred match to the centre of the viewport
func (b *Base) ScrollIntoView(ctx context.Context, cs locator.Candidates) error {
	actx, cancel := b.ec.ActionContext(ctx)
	defer cancel()

	c, _, err := b.waitState(actx, "scroll", cs, b.ec.ActionTimeout(), isPresent)
	if err != nil {
		return err
	}
	script, err := scrollScript(c)
	if err != nil {
		return err
	}
	var ok bool
	return b.target.Evaluate(actx, script, &ok)
}

// Upload sets the files of an <input type="file">. The input may be hidden.
func (b *Base) Upload(ctx context.Context, cs locator.Candidates, path string) error {
	actx, cancel := b.ec.ActionContext(ctx)
	defer cancel()

	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("upload %s: %w", path, err)
	}

	c, _, err := b.waitState(actx, "upload", cs, b.ec.ActionTimeout(), isPresent)
	if err != nil {
		return err
	}
	if err := b.target.Run(actx, chromedp.SetUploadFiles(c.Query, []string{abs}, locator.QueryOptions(c)...)); err != nil {
		return fmt.Errorf("upload %s to %s: %w", abs, c, err)
	}
	b.logger.Debug().Str("file", abs).Str("input", c.String()).Msg("File set on input")
	return nil
}

// PressKey sends a named key ("Enter", "Escape", "Tab", ...) or literal text
func (b *Base) PressKey(ctx context.Context, key string) error {
	actx, cancel := b.ec.ActionContext(ctx)
	defer cancel()
	return b.target.Run(actx, chromedp.KeyEvent(KeyFor(key)))
}

// KeyFor maps a key name to the chromedp key sequence
func KeyFor(key string) string {
	switch strings.ToLower(key) {
	case "enter", "return":
		return kb.Enter
	case "escape", "esc":
		return kb.Escape
	case "tab":
		return kb.Tab
	case "backspace":
		return kb.Backspace
	case "delete":
		return kb.Delete
	case "arrowdown", "down":
		return kb.ArrowDown
	case "arrowup", "up":
		return kb.ArrowUp
	default:
		return key
	}
}

// WaitVisible waits up to timeout for a visible match
func (b *Base) WaitVisible(ctx context.Context, cs locator.Candidates, timeout time.Duration) error {
	_, _, err := b.waitState(ctx, "wait visible", cs, timeout, isVisible)
	return err
}

// IsVisible checks for a visible match for at most two seconds
func (b *Base) IsVisible(ctx context.Context, cs locator.Candidates) bool {
	return b.WaitVisible(ctx, cs, VisibilityWindow) == nil
}

// ExpectVisible asserts a visible match appears within timeout
func (b *Base) ExpectVisible(ctx context.Context, cs locator.Candidates, timeout time.Duration) error {
	if err := b.WaitVisible(ctx, cs, timeout); err != nil {
		return &AssertionError{Assertion: "visible", Expected: strings.Join(cs.Labels(), " | "), Actual: "not visible", Err: err}
	}
	return nil
}

// ExpectEnabled asserts a visible, enabled match appears within timeout
func (b *Base) ExpectEnabled(ctx context.Context, cs locator.Candidates, timeout time.Duration) error {
	_, st, err := b.waitState(ctx, "expect enabled", cs, timeout, func(st ElementState) bool {
		return st.Visible && st.Enabled
	})
	if err != nil {
		return &AssertionError{Assertion: "enabled", Expected: "enabled", Actual: describeState(st), Err: err}
	}
	return nil
}

// ExpectHasText asserts the match's normalized text equals text
func (b *Base) ExpectHasText(ctx context.Context, cs locator.Candidates, text string, timeout time.Duration) error {
	want := normalizeSpace(text)
	_, st, err := b.waitState(ctx, "expect text", cs, timeout, func(st ElementState) bool {
		return st.Visible && normalizeSpace(st.Text) == want
	})
	if err != nil {
		return &AssertionError{Assertion: "has text", Expected: text, Actual: st.Text, Err: err}
	}
	return nil
}

// ExpectContainsText asserts the match's text contains text
func (b *Base) ExpectContainsText(ctx context.Context, cs locator.Candidates, text string, timeout time.Duration) error {
	want := normalizeSpace(text)
	_, st, err := b.waitState(ctx, "expect contains text", cs, timeout, func(st ElementState) bool {
		return st.Visible && strings.Contains(normalizeSpace(st.Text), want)
	})
	if err != nil {
		return &AssertionError{Assertion: "contains text", Expected: text, Actual: st.Text, Err: err}
	}
	return nil
}

// ExpectValueContains asserts the match's value contains substr, ignoring case
func (b *Base) ExpectValueContains(ctx context.Context, cs locator.Candidates, substr string, timeout time.Duration) error {
	_, st, err := b.waitState(ctx, "expect value", cs, timeout, func(st ElementState) bool {
		return ContainsFold(st.Value, substr)
	})
	if err != nil {
		return &AssertionError{Assertion: "value contains", Expected: substr, Actual: st.Value, Err: err}
	}
	return nil
}

// ExpectPageTextMatches asserts the page's visible text matches pattern within timeout
func (b *Base) ExpectPageTextMatches(ctx context.Context, pattern *regexp.Regexp, timeout time.Duration) error {
	var last string
	err := b.poll(ctx, "expect page text", nil, timeout, func(ctx context.Context) (bool, error) {
		var text string
		if err := b.target.Evaluate(ctx, pageTextScript, &text); err != nil {
			return false, err
		}
		last = text
		return pattern.MatchString(text), nil
	})
	if err != nil {
		return &AssertionError{Assertion: "page text matches", Expected: pattern.String(), Actual: truncate(last, 200), Err: err}
	}
	return nil
}

// DOMSample returns the first n characters of the page's body text for diagnostics
func (b *Base) DOMSample(ctx context.Context, n int) string {
	sctx, cancel := context.WithTimeout(ctx, VisibilityWindow)
	defer cancel()

	_, html, err := b.target.PageSource(sctx)
	if err != nil {
		return ""
	}
	return SampleText(html, n)
}

// SampleText extracts whitespace-collapsed body text from html
func SampleText(html string, n int) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return ""
	}
	doc.Find("script, style, noscript").Remove()
	return truncate(normalizeSpace(doc.Find("body").Text()), n)
}

// waitState polls until a candidate resolves and its preferred match satisfies ok
func (b *Base) waitState(ctx context.Context, op string, cs locator.Candidates, timeout time.Duration, ok func(ElementState) bool) (locator.Candidate, ElementState, error) {
	var found locator.Candidate
	var last ElementState

	err := b.poll(ctx, op, cs, timeout, func(ctx context.Context) (bool, error) {
		resolved, err := b.resolver.Resolve(ctx, cs)
		if err != nil {
			return false, err
		}
		st, err := b.state(ctx, resolved.Candidate)
		if err != nil {
			return false, err
		}
		found, last = resolved.Candidate, st
		return ok(st), nil
	})
	return found, last, err
}

// poll runs check until it reports true or timeout elapses
func (b *Base) poll(ctx context.Context, op string, cs locator.Candidates, timeout time.Duration, check func(ctx context.Context) (bool, error)) error {
	start := time.Now()
	wctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(b.interval)
	defer ticker.Stop()

	var last error
	for {
		done, err := check(wctx)
		if done {
			return nil
		}
		if err != nil && !errors.Is(err, context.DeadlineExceeded) && !errors.Is(err, context.Canceled) {
			last = err
		}

		select {
		case <-wctx.Done():
			if errors.Is(ctx.Err(), context.Canceled) {
				return fmt.Errorf("%s aborted: %w", op, ctx.Err())
			}
			terr := &TimeoutError{Op: op, Timeout: timeout, Elapsed: time.Since(start), Last: last}
			if len(cs) > 0 {
				terr.Locator = cs.Labels()
			}
			b.logger.Warn().Str("op", op).Str("elapsed", terr.Elapsed.Round(time.Millisecond).String()).Msg("Wait timed out")
			return terr
		case <-ticker.C:
		}
	}
}

func (b *Base) state(ctx context.Context, c locator.Candidate) (ElementState, error) {
	script, err := stateScript(c)
	if err != nil {
		return ElementState{}, err
	}
	var st ElementState
	if err := b.target.Evaluate(ctx, script, &st); err != nil {
		return ElementState{}, err
	}
	return st, nil
}

func (b *Base) point(ctx context.Context, c locator.Candidate) (point, error) {
	script, err := pointScript(c)
	if err != nil {
		return point{}, err
	}
	var p point
	if err := b.target.Evaluate(ctx, script, &p); err != nil {
		return point{}, fmt.Errorf("locate %s: %w", c, err)
	}
	if !p.Found {
		return point{}, fmt.Errorf("locate %s: element disappeared", c)
	}
	return p, nil
}

func isVisible(st ElementState) bool { return st.Count > 0 && st.Visible }

func isPresent(st ElementState) bool { return st.Count > 0 }

func describeState(st ElementState) string {
	switch {
	case st.Count == 0:
		return "absent"
	case !st.Visible:
		return "hidden"
	case !st.Enabled:
		return "disabled"
	default:
		return "enabled"
	}
}

// ContainsFold reports whether substr is within s, ignoring case
func ContainsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

func normalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func truncate(s string, n int) string {
	r := []rune(s)
	if n <= 0 || len(r) <= n {
		return s
	}
	return string(r[:n])
}
