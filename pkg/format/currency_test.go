package format

import (
	"math"
	"testing"
)

func TestEuro(t *testing.T) {
	tests := []struct {
		name     string
		amount   float64
		expected string
	}{
		{"Zero", 0, "€0.00"},
		{"Small", 12.5, "€12.50"},
		{"Thousands", 1234.56, "€1,234.56"},
		{"Millions", 1234567.891, "€1,234,567.89"},
		{"Negative", -1347.13, "-€1,347.13"},
		{"Negative rounds to zero", -0.001, "€0.00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Euro(tt.amount); got != tt.expected {
				t.Errorf("Euro(%v) = %q, expected %q", tt.amount, got, tt.expected)
			}
		})
	}
}

func TestCents(t *testing.T) {
	tests := []struct {
		cents    int64
		expected string
	}{
		{0, "€0.00"},
		{5, "€0.05"},
		{134713, "€1,347.13"},
		{30000000, "€300,000.00"},
		{-250050, "-€2,500.50"},
	}

	for _, tt := range tests {
		if got := Cents(tt.cents); got != tt.expected {
			t.Errorf("Cents(%d) = %q, expected %q", tt.cents, got, tt.expected)
		}
	}
}

func TestNumericCurrency(t *testing.T) {
	if got := NumericCurrency(-1234.5); got != "-1,234.50" {
		t.Errorf("NumericCurrency(-1234.5) = %q", got)
	}
	if got := NumericCurrency(999); got != "999.00" {
		t.Errorf("NumericCurrency(999) = %q", got)
	}
}

func TestPercentAndYears(t *testing.T) {
	if got := Percent(3.5); got != "3.50%" {
		t.Errorf("Percent(3.5) = %q", got)
	}
	if got := Years(1.5833); got != "1.6 years" {
		t.Errorf("Years(1.5833) = %q", got)
	}
	if got := Years(math.Inf(1)); got != "never" {
		t.Errorf("Years(+Inf) = %q", got)
	}
}
