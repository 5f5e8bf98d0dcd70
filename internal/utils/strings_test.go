package utils

import "testing"

func TestParseAge(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"25", 25},
		{" 30 ", 30},
		{"abc", 18},
		{"", 18},
		{"-5", 18},
		{"0", 18},
		{"17", 17}, // parses fine; the minimum-age check lives elsewhere
	}

	for _, tt := range tests {
		if got := ParseAge(tt.in); got != tt.want {
			t.Errorf("ParseAge(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestIsValidEmail(t *testing.T) {
	valid := []string{"a@b.co", "Test.User@Example.COM", " padded@mail.org "}
	for _, e := range valid {
		if !IsValidEmail(e) {
			t.Errorf("IsValidEmail(%q) = false, want true", e)
		}
	}

	invalid := []string{"", "plain", "two@@at.com", "@nodomain.com", "user@nodot"}
	for _, e := range invalid {
		if IsValidEmail(e) {
			t.Errorf("IsValidEmail(%q) = true, want false", e)
		}
	}
}

func TestNormalizePhone(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"+1 (555) 123-4567", "+15551234567"},
		{"555 123 4567", "5551234567"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := NormalizePhone(tt.in); got != tt.want {
			t.Errorf("NormalizePhone(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
