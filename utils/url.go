package utils

import (
	"net/url"
	"strings"
)

// SanitizeReturnURL validates a post-login return target. Only relative paths
// within the app are accepted; absolute URLs, protocol-relative URLs, and
// anything unparseable fall back to the given default. This keeps handoff and
// login redirects from becoming open redirectors.
func SanitizeReturnURL(raw, fallback string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fallback
	}

	// Protocol-relative ("//evil.com") and backslash tricks are rejected
	// before parsing.
	if strings.HasPrefix(raw, "//") || strings.Contains(raw, "\\") {
		return fallback
	}
	if !strings.HasPrefix(raw, "/") {
		return fallback
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return fallback
	}
	if parsed.Scheme != "" || parsed.Host != "" {
		return fallback
	}

	clean := parsed.Path
	if parsed.RawQuery != "" {
		clean += "?" + parsed.RawQuery
	}
	return clean
}
