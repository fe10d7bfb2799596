// Package mathutil provides common mathematical utility functions.
package mathutil

import (
	"math"

	"github.com/iwvelando/mortgage-forecast/pkg/constants"
	"github.com/shopspring/decimal"
)

// Round rounds a value to two decimals, i.e. to represent real currency.
// Used for making logical comparisons.
func Round(val float64) float64 {
	return math.Round(val*constants.DecimalPrecision) / constants.DecimalPrecision
}

// RoundTo rounds a value to the given number of decimal places using decimal
// arithmetic so that values such as 2.675 round half away from zero.
func RoundTo(val float64, places int32) float64 {
	if math.IsNaN(val) || math.IsInf(val, 0) {
		return val
	}
	return decimal.NewFromFloat(val).Round(places).InexactFloat64()
}

// RoundCents rounds a fractional cent amount to whole cents.
func RoundCents(val float64) int64 {
	return int64(math.Round(val))
}

// EurosToCents converts a euro amount into integer cents.
func EurosToCents(euros float64) int64 {
	return decimal.NewFromFloat(euros).Mul(decimal.NewFromInt(constants.CentsPerEuro)).Round(0).IntPart()
}

// CentsToEuros converts integer cents into a euro amount.
func CentsToEuros(cents int64) float64 {
	return decimal.New(cents, -2).InexactFloat64()
}

// IsZero checks if a value is effectively zero (within tolerance)
func IsZero(val float64) bool {
	return math.Abs(val) <= constants.CurrencyTolerance
}

// IsPositive checks if a value is positive (greater than tolerance)
func IsPositive(val float64) bool {
	return val > constants.CurrencyTolerance
}

// WithinTolerance checks if two values are within a specified tolerance
func WithinTolerance(val1, val2, tolerance float64) bool {
	return math.Abs(val1-val2) <= tolerance
}

// MinInt64 returns the minimum of two int64 values
func MinInt64(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}

// MaxInt64 returns the maximum of two int64 values
func MaxInt64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}

// CalculatePercentage calculates what percentage value is of total
func CalculatePercentage(value, total float64) float64 {
	if total == 0 {
		return 0
	}
	return (value / total) * constants.PercentageMultiplier
}

// ApplyPercentage applies a percentage to a value
func ApplyPercentage(value, percentage float64) float64 {
	return value * percentage / constants.PercentageMultiplier
}

// MonthlyRate converts an annual percentage rate into a monthly decimal rate.
func MonthlyRate(annualRatePct float64) float64 {
	return annualRatePct / (constants.PercentageMultiplier * constants.MonthsPerYear)
}

// MonthlyCompoundRate converts an annual percentage growth rate into the
// equivalent monthly compounding rate, i.e. (1+a)^(1/12) - 1.
func MonthlyCompoundRate(annualRatePct float64) float64 {
	return math.Pow(1+annualRatePct/constants.PercentageMultiplier, 1.0/constants.MonthsPerYear) - 1
}
