package format

import (
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// Euro returns a currency string with a euro sign and thousands separators (e.g., "-€1,234.56").
func Euro(amount float64) string {
	formatted := formatPositiveCurrency(math.Abs(amount))
	if amount < 0 && formatted != "0.00" {
		return "-€" + formatted
	}
	return "€" + formatted
}

// Cents formats an integer cent amount as euros without going through a float.
func Cents(cents int64) string {
	value := decimal.New(cents, -2)
	formatted := groupThousands(value.Abs().StringFixed(2))
	if value.IsNegative() {
		return "-€" + formatted
	}
	return "€" + formatted
}

// NumericCurrency returns a currency string without a currency symbol but with separators (e.g., "-1,234.56").
func NumericCurrency(amount float64) string {
	formatted := formatPositiveCurrency(math.Abs(amount))
	if amount < 0 && formatted != "0.00" {
		return "-" + formatted
	}
	return formatted
}

// Percent formats an annual rate, e.g. "3.50%".
func Percent(rate float64) string {
	return fmt.Sprintf("%.2f%%", rate)
}

// Years formats a breakeven duration, "never" for +Inf.
func Years(years float64) string {
	if math.IsInf(years, 0) || math.IsNaN(years) {
		return "never"
	}
	return fmt.Sprintf("%.1f years", years)
}

func formatPositiveCurrency(value float64) string {
	return groupThousands(fmt.Sprintf("%.2f", value))
}

func groupThousands(formatted string) string {
	parts := strings.SplitN(formatted, ".", 2)
	intPart := parts[0]
	decPart := "00"
	if len(parts) == 2 {
		decPart = parts[1]
	}

	if len(intPart) > 3 {
		var builder strings.Builder
		for i, digit := range intPart {
			if i > 0 && (len(intPart)-i)%3 == 0 {
				builder.WriteByte(',')
			}
			builder.WriteRune(digit)
		}
		intPart = builder.String()
	}

	return intPart + "." + decPart
}
