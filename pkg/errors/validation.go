package errors

import (
	"net/url"
	"regexp"
	"strings"
	"unicode"
)

// idRegex matches identifiers accepted for pages, panels and templates.
var idRegex = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._:-]*$`)

// ValidateID validates a page or template identifier for safety.
// It rejects identifiers that could be used for path traversal or injection
// when they end up in cache keys, file names or database queries.
//
// The validation rules are intentionally conservative:
//   - No empty identifiers
//   - Maximum length of 128 characters
//   - Letters, digits and . _ : - only, starting with a letter or digit
//   - No path traversal sequences (..)
func ValidateID(id string) error {
	if id == "" {
		return New(ErrCodeInvalidID, "id cannot be empty")
	}
	if len(id) > 128 {
		return New(ErrCodeInvalidID, "id too long (max 128 characters)")
	}
	if strings.Contains(id, "..") {
		return New(ErrCodeInvalidID, "id cannot contain path traversal sequences (..)")
	}
	if !idRegex.MatchString(id) {
		return New(ErrCodeInvalidID, "invalid id: %q", id)
	}
	return nil
}

// ValidateImageURL validates a panel image reference.
//
// Accepted forms:
//   - http:// and https:// URLs with a host
//   - file:// URLs
//   - bare filesystem paths (no scheme)
//
// Control characters and null bytes are always rejected.
func ValidateImageURL(raw string) error {
	if raw == "" {
		return New(ErrCodeInvalidURL, "image URL cannot be empty")
	}
	for _, r := range raw {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidURL, "image URL contains invalid control characters")
		}
	}

	u, err := url.Parse(raw)
	if err != nil {
		return Wrap(ErrCodeInvalidURL, err, "malformed image URL")
	}
	switch u.Scheme {
	case "http", "https":
		if u.Host == "" {
			return New(ErrCodeInvalidURL, "image URL has no host: %q", raw)
		}
	case "file", "":
	default:
		return New(ErrCodeInvalidURL, "unsupported image URL scheme %q", u.Scheme)
	}
	return nil
}
