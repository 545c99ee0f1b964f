package common

import (
	"fmt"
	"net/url"
	"strings"
)

// JoinURL appends a route to a base URL, tolerating trailing slashes on the base
// and a base that already ends with the route.
func JoinURL(baseURL, route string) (string, error) {
	parsed, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil {
		return "", fmt.Errorf("invalid base URL %q: %w", baseURL, err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return "", fmt.Errorf("invalid base URL %q: scheme and host required", baseURL)
	}

	base := strings.TrimRight(parsed.String(), "/")
	route = "/" + strings.TrimLeft(route, "/")
	if route == "/" || strings.HasSuffix(base, route) {
		return base, nil
	}
	return base + route, nil
}
