// Package amortization runs the month-by-month mortgage simulation and
// derives yearly aggregates, summaries, milestones and completeness reports
// from the resulting schedule.
//
// All monetary amounts are integer cents.
package amortization

import (
	"time"

	"github.com/iwvelando/mortgage-forecast/pkg/overpayment"
	"github.com/iwvelando/mortgage-forecast/pkg/rates"
	"github.com/iwvelando/mortgage-forecast/pkg/selfbuild"
)

// Input is the mortgage being simulated.
type Input struct {
	MortgageAmount int64      `json:"mortgageAmount"` // cents
	PropertyValue  int64      `json:"propertyValue"`  // cents
	TermMonths     int        `json:"termMonths"`
	StartDate      *time.Time `json:"startDate,omitempty"`
	Ber            string     `json:"ber,omitempty"`
}

// SimulationState is everything one simulation run needs besides the catalog.
type SimulationState struct {
	Input        Input                `json:"input"`
	RatePeriods  []rates.RatePeriod   `json:"ratePeriods"`
	Overpayments []overpayment.Config `json:"overpayments"`
	SelfBuild    *selfbuild.Config    `json:"selfBuild,omitempty"`
}

// Catalog holds the rates, lenders and policies periods are resolved against.
type Catalog struct {
	Rates       []rates.MortgageRate `json:"rates"`
	CustomRates []rates.MortgageRate `json:"customRates,omitempty"`
	Lenders     []rates.Lender       `json:"lenders"`
	Policies    []overpayment.Policy `json:"policies"`
}

// PolicyForLender returns the overpayment policy attached to a lender.
func (c Catalog) PolicyForLender(lenderID string) (overpayment.Policy, bool) {
	for _, lender := range c.Lenders {
		if lender.ID == lenderID {
			return overpayment.FindPolicy(c.Policies, lender.OverpaymentPolicyID)
		}
	}
	return overpayment.Policy{}, false
}

// Month is one row of the amortization schedule.
type Month struct {
	Month                  int             `json:"month"`
	Date                   string          `json:"date,omitempty"`
	OpeningBalance         int64           `json:"openingBalance"`
	ClosingBalance         int64           `json:"closingBalance"`
	ScheduledPayment       int64           `json:"scheduledPayment"`
	InterestPortion        int64           `json:"interestPortion"`
	PrincipalPortion       int64           `json:"principalPortion"`
	Overpayment            int64           `json:"overpayment"`
	TotalPayment           int64           `json:"totalPayment"`
	Rate                   float64         `json:"rate"`
	RatePeriodID           string          `json:"ratePeriodId"`
	RateType               rates.RateType  `json:"rateType"`
	CumulativeInterest     int64           `json:"cumulativeInterest"`
	CumulativePrincipal    int64           `json:"cumulativePrincipal"`
	CumulativeOverpayments int64           `json:"cumulativeOverpayments"`
	CumulativeTotal        int64           `json:"cumulativeTotal"`
	Phase                  selfbuild.Phase `json:"phase,omitempty"`
	IsInterestOnly         bool            `json:"isInterestOnly,omitempty"`
	DrawdownThisMonth      int64           `json:"drawdownThisMonth,omitempty"`
	CumulativeDrawn        int64           `json:"cumulativeDrawn,omitempty"`
}

// WarningType names a policy advisory.
type WarningType string

const (
	// WarningAllowanceExceeded flags overpayments above the fee-free allowance.
	WarningAllowanceExceeded WarningType = "allowance_exceeded"
	// WarningTransactionLimitExceeded flags too many overpayment transactions.
	WarningTransactionLimitExceeded WarningType = "transaction_limit_exceeded"
	// WarningEarlyRedemption flags a payoff inside a fixed-rate commitment.
	WarningEarlyRedemption WarningType = "early_redemption"
)

// Warning is a non-fatal policy advisory attached to a month.
type Warning struct {
	Type     WarningType `json:"type"`
	Month    int         `json:"month"`
	ConfigID string      `json:"configId,omitempty"`
	Message  string      `json:"message"`
}

// Result is the output of a simulation.
type Result struct {
	Months   []Month   `json:"months"`
	Warnings []Warning `json:"warnings"`
}

// MilestoneType names a point of interest in the schedule.
type MilestoneType string

const (
	MilestoneMortgageStart        MilestoneType = "mortgage_start"
	MilestonePrincipal25Percent   MilestoneType = "principal_25_percent"
	MilestonePrincipal50Percent   MilestoneType = "principal_50_percent"
	MilestoneLTV80Percent         MilestoneType = "ltv_80_percent"
	MilestoneConstructionComplete MilestoneType = "construction_complete"
	MilestoneFullPaymentsStart    MilestoneType = "full_payments_start"
	MilestoneMortgageComplete     MilestoneType = "mortgage_complete"
)

// Milestone marks the first month an event happens. Value is in cents for
// balance and principal milestones and a percentage for LTV.
type Milestone struct {
	Type  MilestoneType `json:"type"`
	Month int           `json:"month"`
	Date  string        `json:"date,omitempty"`
	Value float64       `json:"value"`
	Label string        `json:"label"`
}

// YearSummary aggregates the months of one mortgage or calendar year.
type YearSummary struct {
	Year           int    `json:"year"`
	Label          string `json:"label"`
	StartMonth     int    `json:"startMonth"`
	EndMonth       int    `json:"endMonth"`
	OpeningBalance int64  `json:"openingBalance"`
	ClosingBalance int64  `json:"closingBalance"`
	Interest       int64  `json:"interest"`
	Principal      int64  `json:"principal"`
	Overpayments   int64  `json:"overpayments"`
	TotalPaid      int64  `json:"totalPaid"`
	Drawdowns      int64  `json:"drawdowns,omitempty"`
}

// Summary is the headline outcome of a simulation.
type Summary struct {
	TotalInterest    int64 `json:"totalInterest"`
	TotalPaid        int64 `json:"totalPaid"`
	ActualTermMonths int   `json:"actualTermMonths"`
	InterestSaved    int64 `json:"interestSaved"`
	MonthsSaved      int   `json:"monthsSaved"`
	PaidOff          bool  `json:"paidOff"`
}

// Completeness reports whether the simulation covered the whole mortgage.
type Completeness struct {
	Complete        bool  `json:"complete"`
	SimulatedMonths int   `json:"simulatedMonths"`
	MissingMonths   int   `json:"missingMonths"`
	FinalBalance    int64 `json:"finalBalance"`
}
