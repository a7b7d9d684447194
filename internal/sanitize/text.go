// Package sanitize normalises free-text request fields before they are stored.
// Content is kept byte for byte apart from surrounding whitespace; responses
// are JSON, so no markup is ever interpreted.
package sanitize

import "strings"

// Text trims surrounding whitespace. Use for: event titles.
func Text(input string) string {
	return strings.TrimSpace(input)
}

// OptionalText trims a nullable field, mapping nil and blank input to nil.
// Use for: event descriptions and links.
func OptionalText(input *string) *string {
	if input == nil {
		return nil
	}
	out := strings.TrimSpace(*input)
	if out == "" {
		return nil
	}
	return &out
}
