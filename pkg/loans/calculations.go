// Package loans provides the closed-form annuity formulas shared by the
// simulator, the APRC solver and the breakeven simulators.
//
// The functions are unit-agnostic: callers pass euros or cents consistently
// and get the same unit back.
package loans

import (
	"math"

	"github.com/iwvelando/mortgage-forecast/pkg/mathutil"
)

// CalculateMonthlyPayment calculates the monthly payment for a loan using the standard amortization formula.
func CalculateMonthlyPayment(principal, annualInterestRate float64, termMonths int) float64 {
	if termMonths <= 0 || principal <= 0 {
		return 0
	}
	if annualInterestRate == 0 {
		// For zero interest, simply divide the principal by term
		return principal / float64(termMonths)
	}

	periodicInterestRate := mathutil.MonthlyRate(annualInterestRate)
	power := math.Pow(1.00+periodicInterestRate, float64(termMonths))
	discountFactor := (power - 1.00) / power
	return principal * periodicInterestRate / discountFactor
}

// CalculateInterestPayment calculates the interest portion of a payment.
func CalculateInterestPayment(remainingPrincipal, annualInterestRate float64) float64 {
	return remainingPrincipal * mathutil.MonthlyRate(annualInterestRate)
}

// CalculateRemainingBalance returns the outstanding balance after paidMonths
// scheduled payments on a loan amortizing over totalMonths.
func CalculateRemainingBalance(principal, annualInterestRate float64, totalMonths, paidMonths int) float64 {
	if paidMonths <= 0 {
		return principal
	}
	if paidMonths >= totalMonths || principal <= 0 {
		return 0
	}
	if annualInterestRate == 0 {
		return principal * (1 - float64(paidMonths)/float64(totalMonths))
	}

	r := mathutil.MonthlyRate(annualInterestRate)
	total := math.Pow(1+r, float64(totalMonths))
	paid := math.Pow(1+r, float64(paidMonths))
	return principal * (total - paid) / (total - 1)
}

// CalculateFollowOnPayment returns the monthly payment once a fixed period
// ends: the balance left after fixedTermMonths at the fixed rate, amortized
// at the follow-on rate over the rest of the term.
func CalculateFollowOnPayment(principal, fixedRate float64, fixedTermMonths int, followOnRate float64, totalMonths int) float64 {
	if fixedTermMonths >= totalMonths {
		return 0
	}
	balance := CalculateRemainingBalance(principal, fixedRate, totalMonths, fixedTermMonths)
	return CalculateMonthlyPayment(balance, followOnRate, totalMonths-fixedTermMonths)
}

// CalculateTotalRepayable sums every payment over the term: fixed-period
// payments followed by follow-on payments. It returns nil when the term
// extends past the fixed period but no follow-on rate is known.
func CalculateTotalRepayable(principal, fixedRate float64, fixedTermMonths int, followOnRate *float64, totalMonths int) *float64 {
	if totalMonths <= 0 {
		return nil
	}

	fixedPayment := CalculateMonthlyPayment(principal, fixedRate, totalMonths)
	if fixedTermMonths >= totalMonths {
		total := fixedPayment * float64(totalMonths)
		return &total
	}
	if followOnRate == nil {
		return nil
	}

	followOnPayment := CalculateFollowOnPayment(principal, fixedRate, fixedTermMonths, *followOnRate, totalMonths)
	total := fixedPayment*float64(fixedTermMonths) + followOnPayment*float64(totalMonths-fixedTermMonths)
	return &total
}

// CalculateCostOfCreditPercent returns the cost of credit as a percentage of
// the principal, or nil when the total repayable is unknown.
func CalculateCostOfCreditPercent(totalRepayable *float64, principal float64) *float64 {
	if totalRepayable == nil || principal == 0 {
		return nil
	}
	pct := mathutil.CalculatePercentage(*totalRepayable-principal, principal)
	return &pct
}

// CalculateRemainingTermMonths returns the number of monthly payments of the
// given size needed to clear balance. It returns -1 when the payment does not
// cover the monthly interest.
func CalculateRemainingTermMonths(balance, annualInterestRate, payment float64) int {
	if balance <= 0 {
		return 0
	}
	if payment <= 0 {
		return -1
	}
	if annualInterestRate == 0 {
		return int(math.Ceil(balance/payment - 1e-9))
	}

	r := mathutil.MonthlyRate(annualInterestRate)
	if payment <= balance*r {
		return -1
	}
	n := -math.Log(1-r*balance/payment) / math.Log(1+r)
	return int(math.Ceil(n - 1e-9))
}
