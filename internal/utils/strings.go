package utils

import (
	"strconv"
	"strings"
	"unicode"
)

// DefaultAttendeeAge is substituted when an age input cannot be parsed.
// Matches the longstanding enrollment form behavior: junk input falls back
// to 18 instead of failing, while a parsed value below 18 is still rejected
// by the flow's own validation.
const DefaultAttendeeAge = 18

// ParseAge parses a free-form age input. Unparseable or non-positive input
// yields DefaultAttendeeAge; see the enrollment flow for the minimum-age
// check applied to values that do parse.
func ParseAge(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n <= 0 {
		return DefaultAttendeeAge
	}
	return n
}

// NormalizeEmail lowercases and trims an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// NormalizePhone strips everything but digits and a leading +.
func NormalizePhone(phone string) string {
	cleaned := strings.TrimSpace(phone)
	if cleaned == "" {
		return ""
	}
	var b strings.Builder
	for i, r := range cleaned {
		if i == 0 && r == '+' {
			b.WriteRune(r)
		} else if unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// IsValidEmail performs a basic shape check: one @, non-empty local part,
// dotted domain.
func IsValidEmail(email string) bool {
	normalized := NormalizeEmail(email)
	if normalized == "" {
		return false
	}
	parts := strings.Split(normalized, "@")
	if len(parts) != 2 {
		return false
	}
	local, dom := parts[0], parts[1]
	return len(local) > 0 && len(dom) > 2 && strings.Contains(dom, ".")
}

// IsValidPhone checks a minimum digit count after normalization.
func IsValidPhone(phone string) bool {
	normalized := NormalizePhone(phone)
	if len(normalized) < 7 {
		return false
	}
	first := rune(normalized[0])
	return first == '+' || unicode.IsDigit(first)
}
