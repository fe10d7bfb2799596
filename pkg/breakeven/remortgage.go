package breakeven

import (
	"github.com/iwvelando/mortgage-forecast/pkg/constants"
	"github.com/iwvelando/mortgage-forecast/pkg/loans"
	"github.com/iwvelando/mortgage-forecast/pkg/mathutil"
)

// RemortgageInput describes switching an outstanding balance to a new rate.
type RemortgageInput struct {
	OutstandingBalance  float64 `json:"outstandingBalance" yaml:"outstandingBalance" validate:"gt=0"`
	RemainingTermMonths int     `json:"remainingTermMonths" yaml:"remainingTermMonths" validate:"gt=0"`
	CurrentRate         float64 `json:"currentRate" yaml:"currentRate" validate:"gte=0"`
	NewRate             float64 `json:"newRate" yaml:"newRate" validate:"gte=0"`
	SwitchingCosts      float64 `json:"switchingCosts" yaml:"switchingCosts" validate:"gte=0"`
	Cashback            float64 `json:"cashback" yaml:"cashback" validate:"gte=0"`
}

// RemortgageSnapshot compares both loans at the end of a month.
type RemortgageSnapshot struct {
	Month                     int     `json:"month"`
	Year                      int     `json:"year"`
	CurrentBalance            float64 `json:"currentBalance"`
	NewBalance                float64 `json:"newBalance"`
	CumulativeSavings         float64 `json:"cumulativeSavings"`
	CumulativeInterestSavings float64 `json:"cumulativeInterestSavings"`
	NetPosition               float64 `json:"netPosition"`
}

// RemortgageResult reports when the switch pays for itself.
type RemortgageResult struct {
	CurrentMonthlyPayment float64              `json:"currentMonthlyPayment"`
	NewMonthlyPayment     float64              `json:"newMonthlyPayment"`
	MonthlySavings        float64              `json:"monthlySavings"`
	NetSwitchingCost      float64              `json:"netSwitchingCost"`
	BreakevenMonth        *int                 `json:"breakevenMonth"`
	BreakevenYears        Years                `json:"breakevenYears"`
	TotalSavings          float64              `json:"totalSavings"`
	InterestSaved         float64              `json:"interestSaved"`
	YearlySnapshots       []RemortgageSnapshot `json:"yearlySnapshots"`
	MonthlyDetail         []RemortgageSnapshot `json:"monthlyDetail"`
}

// CalculateRemortgage runs the current and the new loan side by side over
// the remaining term. Breakeven is the first month cumulative payment
// savings cover the switching costs net of cashback.
func CalculateRemortgage(in RemortgageInput) RemortgageResult {
	netCost := in.SwitchingCosts - in.Cashback
	result := RemortgageResult{
		NetSwitchingCost: netCost,
		BreakevenYears:   yearsFor(nil),
		YearlySnapshots:  []RemortgageSnapshot{},
		MonthlyDetail:    []RemortgageSnapshot{},
	}
	if in.OutstandingBalance <= 0 || in.RemainingTermMonths <= 0 {
		return result
	}

	currentPayment := loans.CalculateMonthlyPayment(in.OutstandingBalance, in.CurrentRate, in.RemainingTermMonths)
	newPayment := loans.CalculateMonthlyPayment(in.OutstandingBalance, in.NewRate, in.RemainingTermMonths)
	result.CurrentMonthlyPayment = mathutil.Round(currentPayment)
	result.NewMonthlyPayment = mathutil.Round(newPayment)
	result.MonthlySavings = mathutil.Round(currentPayment - newPayment)

	currentBalance := in.OutstandingBalance
	newBalance := in.OutstandingBalance
	var savings, interestSavings float64

	for month := 1; month <= in.RemainingTermMonths; month++ {
		var currentInterest, newInterest float64
		currentBalance, currentInterest = amortize(currentBalance, in.CurrentRate, currentPayment)
		newBalance, newInterest = amortize(newBalance, in.NewRate, newPayment)
		savings += currentPayment - newPayment
		interestSavings += currentInterest - newInterest

		if result.BreakevenMonth == nil && savings >= netCost {
			result.BreakevenMonth = monthPtr(month)
		}

		snapshot := RemortgageSnapshot{
			Month:                     month,
			Year:                      (month-1)/constants.MonthsPerYear + 1,
			CurrentBalance:            mathutil.Round(currentBalance),
			NewBalance:                mathutil.Round(newBalance),
			CumulativeSavings:         mathutil.Round(savings),
			CumulativeInterestSavings: mathutil.Round(interestSavings),
			NetPosition:               mathutil.Round(savings - netCost),
		}
		if month <= constants.MonthlyDetailMonths {
			result.MonthlyDetail = append(result.MonthlyDetail, snapshot)
		}
		if isYearEnd(month, in.RemainingTermMonths) {
			result.YearlySnapshots = append(result.YearlySnapshots, snapshot)
		}
	}

	result.TotalSavings = mathutil.Round(savings - netCost)
	result.InterestSaved = mathutil.Round(interestSavings)
	result.BreakevenYears = yearsFor(result.BreakevenMonth)
	return result
}
