// Package aprc computes the annual percentage rate of charge of a mortgage
// and infers unpublished follow-on rates from a published APRC.
//
// Amounts are euros.
package aprc

import (
	"math"

	"github.com/iwvelando/mortgage-forecast/pkg/constants"
	"github.com/iwvelando/mortgage-forecast/pkg/loans"
	"github.com/iwvelando/mortgage-forecast/pkg/mathutil"
)

// Config describes the loan and the fees included in the APRC.
type Config struct {
	LoanAmount         float64 `json:"loanAmount" yaml:"loanAmount" validate:"gt=0"`
	TermMonths         int     `json:"termMonths" yaml:"termMonths" validate:"gt=0"`
	ValuationFee       float64 `json:"valuationFee" yaml:"valuationFee" validate:"gte=0"`
	SecurityReleaseFee float64 `json:"securityReleaseFee" yaml:"securityReleaseFee" validate:"gte=0"`
}

// Solution is the outcome of the Newton-Raphson solve.
type Solution struct {
	Aprc          float64 `json:"aprc"` // % rounded to 2 decimals
	EffectiveRate float64 `json:"effectiveRate"`
	MonthlyRate   float64 `json:"monthlyRate"`
	Iterations    int     `json:"iterations"`
	Converged     bool    `json:"converged"`
}

// CashFlows returns the amount actually advanced and the monthly repayments
// the borrower makes: fixed-rate payments for fixedTermMonths, then
// follow-on payments on the remaining balance. The security release fee is
// added to the final repayment.
func CashFlows(fixedRate float64, fixedTermMonths int, followOnRate float64, cfg Config) (float64, []float64) {
	if cfg.LoanAmount <= 0 || cfg.TermMonths <= 0 {
		return 0, nil
	}
	advanced := cfg.LoanAmount - cfg.ValuationFee
	flows := make([]float64, cfg.TermMonths)

	fixedPayment := loans.CalculateMonthlyPayment(cfg.LoanAmount, fixedRate, cfg.TermMonths)
	followOnPayment := fixedPayment
	if fixedTermMonths < cfg.TermMonths {
		followOnPayment = loans.CalculateFollowOnPayment(cfg.LoanAmount, fixedRate, fixedTermMonths, followOnRate, cfg.TermMonths)
	}
	for i := range flows {
		if i < fixedTermMonths {
			flows[i] = fixedPayment
		} else {
			flows[i] = followOnPayment
		}
	}
	flows[len(flows)-1] += cfg.SecurityReleaseFee
	return advanced, flows
}

// SolveAprc finds the monthly rate at which the repayments discount to the
// amount advanced, and converts it to an effective annual percentage.
func SolveAprc(fixedRate float64, fixedTermMonths int, followOnRate float64, cfg Config) Solution {
	advanced, flows := CashFlows(fixedRate, fixedTermMonths, followOnRate, cfg)
	if len(flows) == 0 {
		return Solution{}
	}

	m := mathutil.MonthlyRate(fixedRate)
	solution := Solution{}
	for solution.Iterations < constants.AprcMaxIterations {
		solution.Iterations++
		npv, derivative := netPresentValue(advanced, flows, m)
		if math.Abs(derivative) < constants.AprcDerivativeFloor {
			break
		}
		step := npv / derivative
		m -= step
		if mathutil.WithinTolerance(step, 0, constants.AprcTolerance) {
			solution.Converged = true
			break
		}
	}

	solution.MonthlyRate = m
	solution.EffectiveRate = (math.Pow(1+m, constants.MonthsPerYear) - 1) * constants.PercentageMultiplier
	solution.Aprc = mathutil.RoundTo(solution.EffectiveRate, 2)
	return solution
}

// CalculateAprc returns the APRC in percent, rounded to 2 decimals. When the
// fixed term covers the whole loan the follow-on rate is ignored.
func CalculateAprc(fixedRate float64, fixedTermMonths int, followOnRate float64, cfg Config) float64 {
	return SolveAprc(fixedRate, fixedTermMonths, followOnRate, cfg).Aprc
}

// InferFollowOnRate bisects the follow-on rate that reproduces an observed
// APRC. The APRC rises with the follow-on rate, so the bracket always
// narrows towards the answer. The result is rounded to 2 decimals.
func InferFollowOnRate(fixedRate float64, fixedTermYears int, observedAprc float64, cfg Config) float64 {
	fixedTermMonths := fixedTermYears * constants.MonthsPerYear
	lower := constants.FollowOnRateMin
	upper := constants.FollowOnRateMax

	for i := 0; i < constants.FollowOnRateMaxIterations && upper-lower > constants.FollowOnRateTolerance; i++ {
		mid := (lower + upper) / 2
		if SolveAprc(fixedRate, fixedTermMonths, mid, cfg).EffectiveRate < observedAprc {
			lower = mid
		} else {
			upper = mid
		}
	}
	return mathutil.RoundTo((lower+upper)/2, 2)
}

// netPresentValue returns the NPV of the repayments less the amount advanced
// at monthly rate m, and its derivative with respect to m.
func netPresentValue(advanced float64, flows []float64, m float64) (float64, float64) {
	npv := -advanced
	derivative := 0.0
	discount := 1.0
	base := 1 + m
	for k, flow := range flows {
		discount /= base
		npv += flow * discount
		derivative -= float64(k+1) * flow * discount / base
	}
	return npv, derivative
}
