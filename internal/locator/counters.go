package locator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/PuerkitoBio/goquery"
	"github.com/chromedp/chromedp"
)

// ErrUnsupportedStrategy is returned by counters that cannot evaluate a strategy
var ErrUnsupportedStrategy = errors.New("unsupported locator strategy")

// Evaluator runs a script on a live page and decodes its result into res
type Evaluator interface {
	Evaluate(ctx context.Context, script string, res interface{}) error
}

// BrowserCounter counts matches on the live page
type BrowserCounter struct {
	eval Evaluator
}

// NewBrowserCounter creates a counter over a page
func NewBrowserCounter(eval Evaluator) *BrowserCounter {
	return &BrowserCounter{eval: eval}
}

// CountScript returns the JavaScript expression that counts a candidate's matches
func CountScript(c Candidate) (string, error) {
	query, err := json.Marshal(c.Query)
	if err != nil {
		return "", err
	}
	switch c.Strategy {
	case StrategyCSS:
		return fmt.Sprintf("document.querySelectorAll(%s).length", query), nil
	case StrategyXPath:
		return fmt.Sprintf("document.evaluate(%s, document, null, XPathResult.ORDERED_NODE_SNAPSHOT_TYPE, null).snapshotLength", query), nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedStrategy, c.Strategy)
	}
}

// ElementsExpr returns a JavaScript expression evaluating to an array of the candidate's matches
func ElementsExpr(c Candidate) (string, error) {
	query, err := json.Marshal(c.Query)
	if err != nil {
		return "", err
	}
	switch c.Strategy {
	case StrategyCSS:
		return fmt.Sprintf("Array.from(document.querySelectorAll(%s))", query), nil
	case StrategyXPath:
		return fmt.Sprintf("(() => { const r = document.evaluate(%s, document, null, XPathResult.ORDERED_NODE_SNAPSHOT_TYPE, null); const out = []; for (let i = 0; i < r.snapshotLength; i++) out.push(r.snapshotItem(i)); return out; })()", query), nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedStrategy, c.Strategy)
	}
}

// QueryOptions returns the chromedp selector options for a candidate
func QueryOptions(c Candidate) []chromedp.QueryOption {
	if c.Strategy == StrategyXPath {
		return []chromedp.QueryOption{chromedp.BySearch}
	}
	return []chromedp.QueryOption{chromedp.ByQuery}
}

// Count implements Counter
func (b *BrowserCounter) Count(ctx context.Context, c Candidate) (int, error) {
	script, err := CountScript(c)
	if err != nil {
		return 0, err
	}
	var n int
	if err := b.eval.Evaluate(ctx, script, &n); err != nil {
		return 0, err
	}
	return n, nil
}

// DocumentCounter counts CSS matches in a static HTML document
type DocumentCounter struct {
	doc *goquery.Document
}

// NewDocumentCounter parses html
func NewDocumentCounter(r io.Reader) (*DocumentCounter, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse document: %w", err)
	}
	return &DocumentCounter{doc: doc}, nil
}

// Count implements Counter. XPath candidates are reported as unsupported.
func (d *DocumentCounter) Count(_ context.Context, c Candidate) (int, error) {
	if c.Strategy != StrategyCSS {
		return 0, fmt.Errorf("%w: %s", ErrUnsupportedStrategy, c.Strategy)
	}
	return d.doc.Find(c.Query).Length(), nil
}
