package errors

import (
	"net/mail"
	"regexp"
	"strings"
	"unicode"
)

// hexColorRegex matches #RGB and #RRGGBB colour literals.
var hexColorRegex = regexp.MustCompile(`^#([0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

// ValidateHexColor validates a caption colour literal.
func ValidateHexColor(s string) error {
	if s == "" {
		return New(ErrCodeInvalidSettings, "color cannot be empty")
	}
	if !hexColorRegex.MatchString(s) {
		return New(ErrCodeInvalidSettings, "invalid color %q (want #RGB or #RRGGBB)", s)
	}
	return nil
}

// ValidateEmail validates a recipient email address.
// Display-name forms ("Ann <ann@example.com>") are rejected; deep links
// need the bare address.
func ValidateEmail(addr string) error {
	if addr == "" {
		return New(ErrCodeMissingContact, "email address cannot be empty")
	}
	parsed, err := mail.ParseAddress(addr)
	if err != nil || parsed.Address != addr {
		return New(ErrCodeInvalidInput, "invalid email address: %q", addr)
	}
	return nil
}

// ValidatePhone validates a recipient phone number.
// Any formatting is accepted as long as 7 to 15 digits remain once
// separators are stripped (E.164 upper bound).
func ValidatePhone(phone string) error {
	if strings.TrimSpace(phone) == "" {
		return New(ErrCodeMissingContact, "phone number cannot be empty")
	}
	digits := 0
	for _, r := range phone {
		switch {
		case unicode.IsDigit(r):
			digits++
		case r == '+' || r == '-' || r == ' ' || r == '(' || r == ')' || r == '.':
		default:
			return New(ErrCodeInvalidInput, "phone number contains invalid character %q", r)
		}
	}
	if digits < 7 || digits > 15 {
		return New(ErrCodeInvalidInput, "phone number must contain 7-15 digits, got %d", digits)
	}
	return nil
}

// ValidateFilename validates an artifact filename for safety.
// It ensures the filename is a simple basename without path components.
func ValidateFilename(filename string) error {
	if filename == "" {
		return New(ErrCodeInvalidPath, "filename cannot be empty")
	}

	if strings.ContainsAny(filename, "/\\") {
		return New(ErrCodeInvalidPath, "filename cannot contain path separators")
	}

	if strings.HasPrefix(filename, ".") {
		return New(ErrCodeInvalidPath, "filename cannot be a hidden file")
	}

	for _, r := range filename {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "filename contains invalid control characters")
		}
	}

	return nil
}

// ValidateURL validates a URL string for safety.
// It ensures the URL has a safe scheme (http or https).
func ValidateURL(rawURL string) error {
	if rawURL == "" {
		return New(ErrCodeInvalidInput, "URL cannot be empty")
	}

	if !strings.HasPrefix(rawURL, "http://") && !strings.HasPrefix(rawURL, "https://") {
		return New(ErrCodeInvalidInput, "URL must use http or https scheme")
	}

	return nil
}
