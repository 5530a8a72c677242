package utils

import (
	"errors"
	"regexp"
	"strings"
	"unicode/utf8"
)

var (
	// Bus ids are UUIDs; keep a little slack for hand-entered ids.
	validIDPattern = regexp.MustCompile(`^[a-zA-Z0-9_.-]+$`)

	// Detect potentially dangerous characters - more focused on injection patterns
	dangerousPattern = regexp.MustCompile(`[<>]|--|\/\*|\*\/|;.*--`)

	htmlTagPattern = regexp.MustCompile(`<[^>]*>`)
)

// ValidateID validates that an ID is safe and within reasonable limits
func ValidateID(id string) error {
	if id == "" {
		return errors.New("id cannot be empty")
	}

	if len(id) > 100 {
		return errors.New("id too long (max 100 characters)")
	}

	if !validIDPattern.MatchString(id) {
		return errors.New("id contains invalid characters")
	}

	return nil
}

// ValidateQuery validates search query strings. Bus names are written in
// Bengali and Hindi too, so the length limit counts characters, not bytes.
func ValidateQuery(query string) error {
	if query == "" {
		return nil
	}

	if utf8.RuneCountInString(query) > 200 {
		return errors.New("query too long (max 200 characters)")
	}

	if dangerousPattern.MatchString(query) {
		return errors.New("query contains invalid characters")
	}

	return nil
}

// ValidateStopName validates a stop name taken from a URL path.
func ValidateStopName(name string) error {
	if strings.TrimSpace(name) == "" {
		return errors.New("stop name cannot be empty")
	}
	return ValidateQuery(name)
}

// SanitizeInput removes HTML tags and trims whitespace.
func SanitizeInput(input string) string {
	sanitized := htmlTagPattern.ReplaceAllString(input, "")
	return strings.TrimSpace(sanitized)
}

// ValidateAndSanitizeQuery validates and sanitizes a search query
func ValidateAndSanitizeQuery(query string) (string, error) {
	if err := ValidateQuery(query); err != nil {
		return "", err
	}

	return SanitizeInput(query), nil
}
