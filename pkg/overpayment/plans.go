package overpayment

import (
	"time"

	"github.com/iwvelando/mortgage-forecast/pkg/datetime"
	"github.com/iwvelando/mortgage-forecast/pkg/loans"
	"github.com/iwvelando/mortgage-forecast/pkg/mathutil"
	"github.com/iwvelando/mortgage-forecast/pkg/rates"
)

// YearlyPlan is the fee-free allowance for one allowance window of a rate
// period.
type YearlyPlan struct {
	Year                int   `json:"year"`
	StartMonth          int   `json:"startMonth"`
	EndMonth            int   `json:"endMonth"`
	StartingBalance     int64 `json:"startingBalance"`     // cents, projected
	MaxMonthlyAllowance int64 `json:"maxMonthlyAllowance"` // cents
	MaxTotalAllowance   int64 `json:"maxTotalAllowance"`   // cents, over the window
}

// Months returns the number of months in the window.
func (p YearlyPlan) Months() int {
	return p.EndMonth - p.StartMonth + 1
}

// AllowanceWindowEnd returns the last month of the allowance year containing
// month: December of its calendar year when startDate is known, otherwise the
// end of its 12-month mortgage-relative block.
func AllowanceWindowEnd(month int, startDate *time.Time) int {
	if startDate != nil {
		return datetime.LastMonthOfCalendarYear(*startDate, month)
	}
	return datetime.LastMonthOfMortgageYear(month)
}

// CalculateYearlyOverpaymentPlans splits a rate period into allowance
// windows. Constant policies get a single plan spanning the period.
// Balance-based policies get one plan per allowance year, each computed from
// the balance projected at the window start; planning stops once the
// projection reaches zero. With a self-build, windows start after
// constructionEndMonth.
func CalculateYearlyOverpaymentPlans(policy Policy, period rates.ResolvedRatePeriod, mortgageAmount int64, totalMonths int, startDate *time.Time, constructionEndMonth int) []YearlyPlan {
	if mortgageAmount <= 0 || totalMonths <= 0 {
		return nil
	}
	first := period.StartMonth
	if constructionEndMonth > 0 && first <= constructionEndMonth {
		first = constructionEndMonth + 1
	}
	last := period.EndMonth(totalMonths)
	if first > last {
		return nil
	}

	// The projection amortizes the full amount from the end of construction.
	amortizationStart := constructionEndMonth
	amortizationMonths := totalMonths - amortizationStart
	projectBalance := func(month int) int64 {
		paid := month - 1 - amortizationStart
		return mathutil.RoundCents(loans.CalculateRemainingBalance(float64(mortgageAmount), period.Rate.Rate, amortizationMonths, paid))
	}
	monthlyPayment := mathutil.RoundCents(loans.CalculateMonthlyPayment(float64(mortgageAmount), period.Rate.Rate, amortizationMonths))

	if IsConstantAllowancePolicy(policy) {
		balance := projectBalance(first)
		monthly := CalculateMaxMonthlyOverpayment(policy, balance, monthlyPayment)
		plan := YearlyPlan{
			Year:                1,
			StartMonth:          first,
			EndMonth:            last,
			StartingBalance:     balance,
			MaxMonthlyAllowance: monthly,
		}
		plan.MaxTotalAllowance = monthly * int64(plan.Months())
		return []YearlyPlan{plan}
	}

	var plans []YearlyPlan
	year := 1
	for start := first; start <= last; {
		balance := projectBalance(start)
		if balance <= 0 {
			break
		}
		end := AllowanceWindowEnd(start, startDate)
		if end > last {
			end = last
		}
		monthly := CalculateMaxMonthlyOverpayment(policy, balance, monthlyPayment)
		plan := YearlyPlan{
			Year:                year,
			StartMonth:          start,
			EndMonth:            end,
			StartingBalance:     balance,
			MaxMonthlyAllowance: monthly,
		}
		plan.MaxTotalAllowance = monthly * int64(plan.Months())
		plans = append(plans, plan)

		start = end + 1
		year++
	}
	return plans
}
