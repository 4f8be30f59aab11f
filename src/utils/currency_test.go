package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatCurrency(t *testing.T) {
	tests := []struct {
		name     string
		value    float64
		expected string
	}{
		{"zero", 0, "0,00"},
		{"cents only", 0.5, "0,50"},
		{"no grouping", 999.99, "999,99"},
		{"one group", 1000, "1.000,00"},
		{"two groups", 1234567.89, "1.234.567,89"},
		{"rounds to two decimals", 10.999, "11,00"},
		{"negative", -1234.5, "-1.234,50"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, FormatCurrency(tt.value, ".", ","))
		})
	}
}

func TestFormatCurrencyCustomSeparators(t *testing.T) {
	assert.Equal(t, "1,234,567.89", FormatCurrency(1234567.89, ",", "."))
}

func TestFormatBRL(t *testing.T) {
	assert.Equal(t, "R$ 1.234.567,89", FormatBRL(1234567.89))
	assert.Equal(t, "R$ 0,00", FormatBRL(0))
}
