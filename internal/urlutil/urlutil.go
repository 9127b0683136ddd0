// Package urlutil provides URL manipulation utilities.
package urlutil

import (
	"fmt"
	"net"
	"net/url"
	"strings"
)

// URL scheme constants.
const (
	SchemeHTTP  = "http"
	SchemeHTTPS = "https"
)

// NormalizeBaseURL normalizes a base URL for consistent use:
//   - Adds http:// scheme if no scheme provided
//   - Removes trailing slash for clean path joining
//
// Examples:
//
//	"www.mysite.com"         -> "http://www.mysite.com"
//	"https://mysite.com/"    -> "https://mysite.com"
//	"http://localhost:11470/" -> "http://localhost:11470"
func NormalizeBaseURL(baseURL string) string {
	if baseURL == "" {
		return ""
	}

	baseURL = strings.TrimSpace(baseURL)

	if !strings.HasPrefix(baseURL, "http://") && !strings.HasPrefix(baseURL, "https://") {
		baseURL = "http://" + baseURL
	}

	baseURL = strings.TrimSuffix(baseURL, "/")

	return baseURL
}

// JoinPath joins a base URL with a path, ensuring single slashes.
func JoinPath(baseURL, path string) string {
	if baseURL == "" {
		return path
	}

	baseURL = strings.TrimSuffix(baseURL, "/")

	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}

	return baseURL + path
}

// IsLocalURL reports whether the URL points at a server on the local host
// (hostname "localhost" or "127.0.0.1"). Local streaming servers are trusted
// and network-unconstrained, so callers skip compatibility probing for them.
func IsLocalURL(u string) bool {
	parsed, err := url.Parse(NormalizeBaseURL(u))
	if err != nil {
		return false
	}

	host := parsed.Hostname()
	if host == "" {
		// url.Parse treats "localhost:11470" as scheme "localhost"; the
		// normalization above prevents that, but guard anyway.
		host = parsed.Scheme
	}

	switch strings.ToLower(host) {
	case "localhost", "127.0.0.1":
		return true
	}
	return false
}

// IsRemoteURL checks if a URL is a remote URL that can be fetched.
func IsRemoteURL(u string) bool {
	return strings.HasPrefix(u, "http://") ||
		strings.HasPrefix(u, "https://") ||
		strings.HasPrefix(u, "//")
}

// GetScheme returns the scheme of a URL (http, https) or empty string if unknown.
func GetScheme(u string) string {
	parsed, err := url.Parse(u)
	if err != nil {
		return ""
	}
	return strings.ToLower(parsed.Scheme)
}

// ValidateBaseURL checks that a base URL is usable as a streaming-server
// endpoint. Returns nil if valid, or an error describing the problem.
func ValidateBaseURL(u string) error {
	if u == "" {
		return fmt.Errorf("base URL is required")
	}

	parsed, err := url.Parse(NormalizeBaseURL(u))
	if err != nil {
		return fmt.Errorf("invalid URL format: %w", err)
	}

	switch strings.ToLower(parsed.Scheme) {
	case SchemeHTTP, SchemeHTTPS:
	default:
		return fmt.Errorf("unsupported URL scheme: %s (supported: http, https)", parsed.Scheme)
	}

	if parsed.Hostname() == "" {
		return fmt.Errorf("base URL has no host")
	}

	if port := parsed.Port(); port != "" {
		if _, err := net.LookupPort("tcp", port); err != nil {
			return fmt.Errorf("invalid port %q: %w", port, err)
		}
	}

	return nil
}
