// Package server provides security utilities for HTTP servers.
package server

import (
	"net/http"
	"regexp"
	"strings"
)

// CSPConfig holds Content-Security-Policy configuration.
type CSPConfig struct {
	// DefaultSrc specifies default source for all directives
	DefaultSrc []string
	// ConnectSrc specifies valid sources for fetch, XMLHttpRequest, WebSocket
	ConnectSrc []string
	// FrameAncestors specifies valid parents that may embed the page
	FrameAncestors []string
	// BaseURI restricts URLs that can be used in <base> element
	BaseURI []string
	// FormAction restricts URLs that can be used as form action targets
	FormAction []string
	// UpgradeInsecureRequests forces HTTPS
	UpgradeInsecureRequests bool
}

// DefaultCSPConfig returns a secure same-origin CSP configuration.
func DefaultCSPConfig() CSPConfig {
	return CSPConfig{
		DefaultSrc:              []string{"'self'"},
		ConnectSrc:              []string{"'self'"},
		FrameAncestors:          []string{"'none'"},
		BaseURI:                 []string{"'self'"},
		FormAction:              []string{"'self'"},
		UpgradeInsecureRequests: false, // Set to true in production with HTTPS
	}
}

// APICSPConfig returns a strict CSP configuration for REST API endpoints.
// APIs don't need to load resources, so this is very restrictive.
func APICSPConfig() CSPConfig {
	return CSPConfig{
		DefaultSrc:              []string{"'none'"},
		FrameAncestors:          []string{"'none'"},
		BaseURI:                 []string{"'none'"},
		FormAction:              []string{"'none'"},
		UpgradeInsecureRequests: false,
	}
}

// BuildCSPHeader builds a Content-Security-Policy header value from config.
func (cfg CSPConfig) BuildCSPHeader() string {
	var directives []string

	if len(cfg.DefaultSrc) > 0 {
		directives = append(directives, "default-src "+strings.Join(cfg.DefaultSrc, " "))
	}
	if len(cfg.ConnectSrc) > 0 {
		directives = append(directives, "connect-src "+strings.Join(cfg.ConnectSrc, " "))
	}
	if len(cfg.FrameAncestors) > 0 {
		directives = append(directives, "frame-ancestors "+strings.Join(cfg.FrameAncestors, " "))
	}
	if len(cfg.BaseURI) > 0 {
		directives = append(directives, "base-uri "+strings.Join(cfg.BaseURI, " "))
	}
	if len(cfg.FormAction) > 0 {
		directives = append(directives, "form-action "+strings.Join(cfg.FormAction, " "))
	}
	if cfg.UpgradeInsecureRequests {
		directives = append(directives, "upgrade-insecure-requests")
	}

	return strings.Join(directives, "; ")
}

// CSPMiddleware adds Content-Security-Policy headers with custom configuration.
func CSPMiddleware(cfg CSPConfig, next http.Handler) http.Handler {
	cspHeader := cfg.BuildCSPHeader()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if cspHeader != "" {
			w.Header().Set("Content-Security-Policy", cspHeader)
		}
		next.ServeHTTP(w, r)
	})
}

// SecurityHeadersWithCSP adds comprehensive security headers including CSP.
func SecurityHeadersWithCSP(cfg CSPConfig, next http.Handler) http.Handler {
	cspHeader := cfg.BuildCSPHeader()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("X-XSS-Protection", "1; mode=block")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		if cspHeader != "" {
			w.Header().Set("Content-Security-Policy", cspHeader)
		}

		next.ServeHTTP(w, r)
	})
}

// ValidateAlphanumeric checks if a string contains only alphanumeric
// characters, hyphens, and underscores. Useful for validating
// identifiers like translation codes and job IDs.
func ValidateAlphanumeric(input string) bool {
	if input == "" {
		return false
	}

	match, _ := regexp.MatchString(`^[a-zA-Z0-9_-]+$`, input)
	return match
}

// ValidateIdentifier validates that a string is a valid identifier.
// Identifiers must:
// - Start with a letter or underscore
// - Contain only letters, numbers, underscores, and hyphens
// - Be between 1 and 64 characters
func ValidateIdentifier(input string) bool {
	if len(input) == 0 || len(input) > 64 {
		return false
	}

	match, _ := regexp.MatchString(`^[a-zA-Z_][a-zA-Z0-9_-]*$`, input)
	return match
}

// SanitizeUserInput performs general sanitization on user input.
// It trims whitespace and removes control characters.
func SanitizeUserInput(input string) string {
	input = strings.TrimSpace(input)
	input = strings.ReplaceAll(input, "\x00", "")

	var result strings.Builder
	for _, r := range input {
		// Allow printable characters, newline, and tab
		if r >= 0x20 || r == '\n' || r == '\t' {
			result.WriteRune(r)
		}
	}

	return result.String()
}

// LimitStringLength truncates a string to a maximum length.
func LimitStringLength(input string, maxLength int) string {
	if len(input) <= maxLength {
		return input
	}
	return input[:maxLength]
}

// ValidateContentType checks if a Content-Type header is in the allowed list.
func ValidateContentType(contentType string, allowed []string) bool {
	parts := strings.Split(contentType, ";")
	mediaType := strings.TrimSpace(parts[0])

	for _, allowedType := range allowed {
		if strings.EqualFold(mediaType, allowedType) {
			return true
		}
	}

	return false
}
