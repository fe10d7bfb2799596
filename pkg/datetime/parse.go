// Package datetime provides date and time utility functions.
package datetime

import (
	"fmt"
	"strings"
	"time"

	"github.com/iwvelando/mortgage-forecast/pkg/constants"
)

const (
	// DateTimeLayout is the format expected in config files and is also the output
	// date format.
	DateTimeLayout = constants.DateTimeLayout
)

// ParseStartDate parses an optional mortgage start date. An empty string
// yields a nil date, meaning the schedule is mortgage-relative only.
func ParseStartDate(date string) (*time.Time, error) {
	trimmed := strings.TrimSpace(date)
	if trimmed == "" {
		return nil, nil
	}
	t, err := time.Parse(DateTimeLayout, trimmed)
	if err != nil {
		return nil, fmt.Errorf("invalid start date %q: %w", date, err)
	}
	return &t, nil
}

// MonthDate returns the calendar month of the given 1-based mortgage month.
func MonthDate(start time.Time, month int) time.Time {
	first := time.Date(start.Year(), start.Month(), 1, 0, 0, 0, 0, time.UTC)
	return first.AddDate(0, month-1, 0)
}

// CalendarYear returns the calendar year of the given mortgage month.
func CalendarYear(start time.Time, month int) int {
	return MonthDate(start, month).Year()
}

// LastMonthOfCalendarYear returns the mortgage month that falls in December
// of the calendar year containing the given mortgage month.
func LastMonthOfCalendarYear(start time.Time, month int) int {
	return month + int(time.December-MonthDate(start, month).Month())
}

// LastMonthOfMortgageYear returns the final month of the 12-month
// mortgage-relative block containing the given month.
func LastMonthOfMortgageYear(month int) int {
	if month < 1 {
		return constants.MonthsPerYear
	}
	return ((month-1)/constants.MonthsPerYear + 1) * constants.MonthsPerYear
}

// MortgageYear returns the 1-based mortgage-relative year of a month.
func MortgageYear(month int) int {
	if month < 1 {
		return 1
	}
	return (month-1)/constants.MonthsPerYear + 1
}

// FormatMonth formats the calendar month of a mortgage month, or returns a
// mortgage-relative label when no start date is known.
func FormatMonth(start *time.Time, month int) string {
	if start == nil {
		return fmt.Sprintf("Month %d", month)
	}
	return MonthDate(*start, month).Format(DateTimeLayout)
}
