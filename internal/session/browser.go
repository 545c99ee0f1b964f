package session

import (
	"context"

	"github.com/ternarybob/talentcheck/internal/browser"
)

// BrowserTargets opens each execution context in a new browser context of b
func BrowserTargets(b *browser.Browser) TargetFactory {
	return func(ctx context.Context) (Target, error) {
		t, err := b.NewTarget(ctx)
		if err != nil {
			return nil, err
		}
		return t, nil
	}
}

var _ Target = (*browser.Target)(nil)
