package validation

import (
	"strings"
	"unicode"
)

// StripUnprintable removes non-printable characters, allowing common whitespace
// like space, tab, newline, and carriage return.
func StripUnprintable(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsPrint(r) || r == '\t' || r == '\n' || r == '\r' {
			return r
		}
		return -1
	}, s)
}

// CleanField sanitizes one upstream-supplied text field: control characters
// are stripped and surrounding whitespace trimmed.
func CleanField(s string) string {
	return strings.TrimSpace(StripUnprintable(s))
}
