// Package overpayment implements lender overpayment policies: fee-free
// allowances during fixed-rate periods, transaction limits, and the
// schedule of configured overpayments.
//
// Balances and allowances are integer cents; policy amounts configured in
// euros (flat allowances, minimum amounts) are converted on use.
package overpayment

import (
	"math"

	"github.com/iwvelando/mortgage-forecast/pkg/constants"
	"github.com/iwvelando/mortgage-forecast/pkg/mathutil"
)

// AllowanceType selects how the fee-free allowance is expressed.
type AllowanceType string

const (
	// AllowancePercentage is a percentage of the balance or monthly payment.
	AllowancePercentage AllowanceType = "percentage"
	// AllowanceFlat is a fixed euro amount per year.
	AllowanceFlat AllowanceType = "flat"
)

// AllowanceBasis is what a percentage allowance is taken of.
type AllowanceBasis string

const (
	// BasisBalance takes the percentage of the outstanding balance per year.
	BasisBalance AllowanceBasis = "balance"
	// BasisMonthly takes the percentage of the monthly payment per month.
	BasisMonthly AllowanceBasis = "monthly"
)

// TransactionPeriod is the window over which transactions are counted.
type TransactionPeriod string

const (
	// TransactionsPerYear resets the count every year.
	TransactionsPerYear TransactionPeriod = "year"
	// TransactionsPerFixedPeriod counts across the whole fixed-rate period.
	TransactionsPerFixedPeriod TransactionPeriod = "fixed_period"
)

// Policy governs fee-free overpayments during fixed-rate periods.
type Policy struct {
	ID                    string            `json:"id" yaml:"id"`
	Label                 string            `json:"label,omitempty" yaml:"label,omitempty"`
	AllowanceType         AllowanceType     `json:"allowanceType" yaml:"allowanceType"`
	AllowanceValue        float64           `json:"allowanceValue" yaml:"allowanceValue"`
	AllowanceBasis        AllowanceBasis    `json:"allowanceBasis,omitempty" yaml:"allowanceBasis,omitempty"`
	MinAmount             *float64          `json:"minAmount,omitempty" yaml:"minAmount,omitempty"` // euros
	MaxTransactions       *int              `json:"maxTransactions,omitempty" yaml:"maxTransactions,omitempty"`
	MaxTransactionsPeriod TransactionPeriod `json:"maxTransactionsPeriod,omitempty" yaml:"maxTransactionsPeriod,omitempty"`
}

// CalculateMaxMonthlyOverpayment returns the per-month fee-free allowance in
// cents. Percentage-of-balance allowances are annual and spread over twelve
// months; percentage-of-payment allowances are already monthly; flat
// allowances are annual euro amounts. MinAmount raises the result when set.
func CalculateMaxMonthlyOverpayment(policy Policy, balanceCents, monthlyPaymentCents int64) int64 {
	var amount int64
	switch policy.AllowanceType {
	case AllowancePercentage:
		if policy.AllowanceBasis == BasisMonthly {
			amount = int64(math.Floor(mathutil.ApplyPercentage(float64(monthlyPaymentCents), policy.AllowanceValue)))
		} else {
			amount = int64(math.Floor(mathutil.ApplyPercentage(float64(balanceCents), policy.AllowanceValue) / constants.MonthsPerYear))
		}
	case AllowanceFlat:
		amount = int64(math.Floor(float64(mathutil.EurosToCents(policy.AllowanceValue)) / constants.MonthsPerYear))
	}

	if policy.MinAmount != nil {
		amount = mathutil.MaxInt64(amount, mathutil.EurosToCents(*policy.MinAmount))
	}
	return amount
}

// IsConstantAllowancePolicy reports whether the allowance is independent of
// the outstanding balance.
func IsConstantAllowancePolicy(policy Policy) bool {
	switch policy.AllowanceType {
	case AllowanceFlat:
		return true
	case AllowancePercentage:
		return policy.AllowanceBasis == BasisMonthly
	default:
		return true
	}
}

// FindPolicy returns the policy with the given id.
func FindPolicy(policies []Policy, id string) (Policy, bool) {
	if id == "" {
		return Policy{}, false
	}
	for _, policy := range policies {
		if policy.ID == id {
			return policy, true
		}
	}
	return Policy{}, false
}
