// utils/validator.go - Input validation
package utils

import (
	"regexp"
	"strings"
)

var (
	emailRegex  = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	apiKeyRegex = regexp.MustCompile(`^[0-9A-Za-z]+$`)
)

// ValidateEmail checks if email is valid
func ValidateEmail(email string) bool {
	return emailRegex.MatchString(email)
}

// ValidateAPIKey checks the RQC API key format: alphanumeric, 1-64 chars.
func ValidateAPIKey(key string) (bool, string) {
	if len(key) == 0 || len(key) > 64 {
		return false, "API key must be between 1 and 64 characters"
	}
	if !apiKeyRegex.MatchString(key) {
		return false, "The API key must only contain alphanumeric characters"
	}
	return true, ""
}

// SanitizeInput removes potentially harmful characters
func SanitizeInput(input string) string {
	input = strings.TrimSpace(input)
	input = strings.ReplaceAll(input, "\x00", "")
	return input
}
