// Package validation checks URL-shaped configuration values.
package validation

import (
	"fmt"
	"net/url"
	"strings"
)

// URLValidationError describes why a configured URL was rejected.
type URLValidationError struct {
	Field   string
	Message string
	URL     string
}

func (e URLValidationError) Error() string {
	return fmt.Sprintf("%s: %s (url: %s)", e.Field, e.Message, e.URL)
}

// ValidateURL checks that urlString is an absolute http(s) URL. Empty input
// is accepted. With requireHTTPS only https passes.
func ValidateURL(urlString, fieldName string, requireHTTPS bool) error {
	if urlString == "" {
		return nil
	}

	parsed, err := url.Parse(urlString)
	if err != nil {
		return URLValidationError{Field: fieldName, Message: "invalid URL format", URL: urlString}
	}
	if parsed.Scheme == "" {
		return URLValidationError{Field: fieldName, Message: "URL must include a scheme (http:// or https://)", URL: urlString}
	}
	if parsed.Host == "" {
		return URLValidationError{Field: fieldName, Message: "URL must include a host", URL: urlString}
	}

	scheme := strings.ToLower(parsed.Scheme)
	if requireHTTPS && scheme != "https" {
		return URLValidationError{Field: fieldName, Message: "URL must use HTTPS in production", URL: urlString}
	}
	if scheme != "http" && scheme != "https" {
		return URLValidationError{Field: fieldName, Message: "URL scheme must be http or https", URL: urlString}
	}
	return nil
}

// ValidateOrigin checks a CORS origin: scheme and host (with optional port)
// and nothing else. Browsers send origins without a trailing slash, so one
// here would never match.
func ValidateOrigin(origin, fieldName string, requireHTTPS bool) error {
	if origin == "" {
		return URLValidationError{Field: fieldName, Message: "origin must not be empty", URL: origin}
	}
	if err := ValidateURL(origin, fieldName, requireHTTPS); err != nil {
		return err
	}

	parsed, _ := url.Parse(origin)
	switch {
	case parsed.Path != "":
		return URLValidationError{Field: fieldName, Message: "origin must not contain a path", URL: origin}
	case parsed.RawQuery != "" || parsed.ForceQuery:
		return URLValidationError{Field: fieldName, Message: "origin must not contain query parameters", URL: origin}
	case parsed.Fragment != "":
		return URLValidationError{Field: fieldName, Message: "origin must not contain a fragment", URL: origin}
	case parsed.User != nil:
		return URLValidationError{Field: fieldName, Message: "origin must not contain credentials", URL: origin}
	}
	return nil
}
