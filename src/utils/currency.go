package utils

import (
	"fmt"
	"strings"
)

// FormatCurrency renders a monetary value with two decimal places, grouping
// the integer part by thousands. Separators are explicit parameters so the
// locale rule is testable in isolation.
func FormatCurrency(value float64, thousandsSep, decimalSep string) string {
	negative := value < 0
	if negative {
		value = -value
	}

	s := fmt.Sprintf("%.2f", value)
	intPart := s[:len(s)-3]
	decPart := s[len(s)-2:]

	var b strings.Builder
	for i, digit := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteString(thousandsSep)
		}
		b.WriteRune(digit)
	}

	out := b.String() + decimalSep + decPart
	if negative {
		out = "-" + out
	}
	return out
}

// FormatBRL renders a value as Brazilian real currency text,
// e.g. 1234567.89 -> "R$ 1.234.567,89".
func FormatBRL(value float64) string {
	return "R$ " + FormatCurrency(value, ".", ",")
}
