package httpclient

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/ternarybob/talentcheck/internal/common"
)

// NewDefaultHTTPClient creates a simple HTTP client with a timeout
func NewDefaultHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout: timeout,
	}
}

// CheckLogin requests the application's login page once.
// Any status below 500 counts as reachable; auth redirects are fine.
func CheckLogin(ctx context.Context, client *http.Client, baseURL string) error {
	loginURL, err := common.JoinURL(baseURL, "/login")
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, loginURL, nil)
	if err != nil {
		return err
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", loginURL, err)
	}
	resp.Body.Close()

	if resp.StatusCode >= http.StatusInternalServerError {
		return fmt.Errorf("%s: status %d", loginURL, resp.StatusCode)
	}
	return nil
}

// WaitForLogin polls CheckLogin every 500ms until it succeeds or timeout elapses
func WaitForLogin(ctx context.Context, baseURL string, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	client := NewDefaultHTTPClient(5 * time.Second)

	var lastErr error
	for {
		if lastErr = CheckLogin(ctx, client, baseURL); lastErr == nil {
			return nil
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("application did not respond within %v: %w", timeout, lastErr)
		case <-time.After(500 * time.Millisecond):
		}
	}
}
