package utils

import (
	"regexp"
	"strings"
)

var (
	emailRegex    = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
	usernameRegex = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)
)

// ValidateEmail validates an email address
func ValidateEmail(email string) bool {
	return emailRegex.MatchString(email)
}

// ValidateUsername validates username format: letters, digits, underscores
// and hyphens only
func ValidateUsername(username string) bool {
	return usernameRegex.MatchString(username)
}

// SanitizeEmail sanitizes an email address
func SanitizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// SanitizeUsername sanitizes a username
func SanitizeUsername(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}

// SanitizeName trims a display name. Case is preserved.
func SanitizeName(name string) string {
	return strings.TrimSpace(name)
}

// MaskEmail masks an email address for display.
// Example: john.doe@example.com -> j******e@e*****e.com
// Segments of one or two characters collapse to "first*". Masking is
// display-only, not security-bearing; malformed input is returned as-is.
func MaskEmail(email string) string {
	local, domain, ok := strings.Cut(email, "@")
	if !ok || local == "" || domain == "" {
		return email
	}

	domainName, domainExt, ok := cutLast(domain, '.')
	if !ok || domainName == "" || domainExt == "" {
		return email
	}

	return maskSegment(local) + "@" + maskSegment(domainName) + "." + domainExt
}

func maskSegment(s string) string {
	runes := []rune(s)
	if len(runes) <= 2 {
		return string(runes[:1]) + "*"
	}
	return string(runes[0]) + strings.Repeat("*", len(runes)-2) + string(runes[len(runes)-1])
}

func cutLast(s string, sep byte) (before, after string, found bool) {
	idx := strings.LastIndexByte(s, sep)
	if idx < 0 {
		return s, "", false
	}
	return s[:idx], s[idx+1:], true
}
