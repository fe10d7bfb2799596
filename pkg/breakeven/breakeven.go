// Package breakeven simulates rent-vs-buy, remortgage and cashback
// decisions month by month and reports when each decision pays for itself.
//
// Amounts are euros. A nil breakeven month means the breakeven never
// happens within the horizon; the matching Years value is +Inf.
package breakeven

import (
	"encoding/json"
	"math"

	"github.com/iwvelando/mortgage-forecast/pkg/constants"
	"github.com/iwvelando/mortgage-forecast/pkg/loans"
	"github.com/iwvelando/mortgage-forecast/pkg/mathutil"
)

// Years is a breakeven duration in years. +Inf means never and encodes as
// JSON null.
type Years float64

// Never reports whether the breakeven does not happen.
func (y Years) Never() bool {
	return math.IsInf(float64(y), 1)
}

// MarshalJSON encodes +Inf as null.
func (y Years) MarshalJSON() ([]byte, error) {
	if math.IsInf(float64(y), 0) || math.IsNaN(float64(y)) {
		return []byte("null"), nil
	}
	return json.Marshal(mathutil.RoundTo(float64(y), 2))
}

// UnmarshalJSON decodes null as +Inf.
func (y *Years) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*y = Years(math.Inf(1))
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*y = Years(v)
	return nil
}

func yearsFor(month *int) Years {
	if month == nil {
		return Years(math.Inf(1))
	}
	return Years(float64(*month) / constants.MonthsPerYear)
}

func monthPtr(month int) *int {
	return &month
}

// isYearEnd reports whether month closes a 12-month block or the horizon.
func isYearEnd(month, horizon int) bool {
	return month%constants.MonthsPerYear == 0 || month == horizon
}

// amortize applies one monthly payment to a balance and returns the new
// balance and the interest charged.
func amortize(balance, annualRatePct, payment float64) (float64, float64) {
	if !mathutil.IsPositive(balance) {
		return 0, 0
	}
	interest := loans.CalculateInterestPayment(balance, annualRatePct)
	principal := payment - interest
	if principal > balance {
		principal = balance
	}
	balance -= principal
	if mathutil.IsZero(balance) {
		balance = 0
	}
	return balance, interest
}
