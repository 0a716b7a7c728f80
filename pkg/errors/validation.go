package errors

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/google/uuid"
)

// MaxQueryDepth bounds graph queries issued against the store.
const MaxQueryDepth = 10

// ValidateEntityID validates an entity identifier for safety.
//
// The rules are intentionally loose since the prefix convention is not
// enforced here (unknown prefixes resolve to the Unknown type):
//   - No empty ids
//   - No control characters or whitespace
//   - Maximum length of 128 characters
func ValidateEntityID(id string) error {
	if id == "" {
		return New(ErrCodeInvalidEntityID, "entity id cannot be empty")
	}

	if len(id) > 128 {
		return New(ErrCodeInvalidEntityID, "entity id too long (max 128 characters)")
	}

	for _, r := range id {
		if unicode.IsControl(r) || unicode.IsSpace(r) {
			return New(ErrCodeInvalidEntityID, "entity id contains invalid characters: %q", id)
		}
	}

	return nil
}

// ValidateSessionID validates a layout session identifier.
// Session ids are UUIDs generated by the server.
func ValidateSessionID(id string) error {
	if id == "" {
		return New(ErrCodeInvalidInput, "session id cannot be empty")
	}
	if _, err := uuid.Parse(id); err != nil {
		return Wrap(ErrCodeInvalidInput, err, "invalid session id: %q", id)
	}
	return nil
}

// ValidateURL validates a URL string for safety.
// It ensures the URL has a safe scheme (http or https).
func ValidateURL(rawURL string) error {
	if rawURL == "" {
		return New(ErrCodeInvalidInput, "URL cannot be empty")
	}

	// Simple scheme validation without full URL parsing
	if !strings.HasPrefix(rawURL, "http://") && !strings.HasPrefix(rawURL, "https://") {
		return New(ErrCodeInvalidInput, "URL must use http or https scheme")
	}

	return nil
}

// ValidateDepth validates a graph query depth.
func ValidateDepth(depth int) error {
	if depth < 0 || depth > MaxQueryDepth {
		return New(ErrCodeInvalidInput, "depth must be between 0 and %d, got %d", MaxQueryDepth, depth)
	}
	return nil
}

// formatRegex matches render format names.
var formatRegex = regexp.MustCompile(`^[a-z]{2,8}$`)

// ValidateFormat validates a render format against a set of supported names.
func ValidateFormat(format string, supported map[string]bool) error {
	if !formatRegex.MatchString(format) {
		return New(ErrCodeInvalidFormat, "invalid format: %q", format)
	}
	if !supported[format] {
		return New(ErrCodeInvalidFormat, "unsupported format: %q", format)
	}
	return nil
}
