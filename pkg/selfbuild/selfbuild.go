// Package selfbuild tracks staged drawdowns of a self-build mortgage and the
// construction, interest-only and repayment phases that follow from them.
//
// Amounts are integer cents.
package selfbuild

import (
	"math"

	"github.com/iwvelando/mortgage-forecast/pkg/constants"
	"github.com/iwvelando/mortgage-forecast/pkg/mathutil"
)

// Phase is the self-build phase of a mortgage month.
type Phase string

const (
	// PhaseConstruction lasts until the final drawdown month inclusive.
	PhaseConstruction Phase = "construction"
	// PhaseInterestOnly follows construction for InterestOnlyMonths months.
	PhaseInterestOnly Phase = "interest_only"
	// PhaseRepayment is full amortization for the rest of the term.
	PhaseRepayment Phase = "repayment"
)

// rank orders phases temporally.
func (p Phase) rank() int {
	switch p {
	case PhaseConstruction:
		return 0
	case PhaseInterestOnly:
		return 1
	case PhaseRepayment:
		return 2
	default:
		return -1
	}
}

// Before reports whether p comes strictly before other.
func (p Phase) Before(other Phase) bool {
	return p.rank() < other.rank()
}

// RepaymentType selects what is paid during construction.
type RepaymentType string

const (
	// RepaymentInterestOnly pays interest only while construction runs.
	RepaymentInterestOnly RepaymentType = "interest_only"
	// RepaymentInterestAndCapital amortizes the drawn balance during construction.
	RepaymentInterestAndCapital RepaymentType = "interest_and_capital"
)

// DrawdownStage is one staged release of funds.
type DrawdownStage struct {
	ID     string `json:"id" yaml:"id"`
	Month  int    `json:"month" yaml:"month"`
	Amount int64  `json:"amount" yaml:"amount"` // cents
	Label  string `json:"label,omitempty" yaml:"label,omitempty"`
}

// Config describes a self-build drawdown schedule.
type Config struct {
	Enabled                   bool            `json:"enabled" yaml:"enabled"`
	InterestOnlyMonths        int             `json:"interestOnlyMonths" yaml:"interestOnlyMonths"`
	ConstructionRepaymentType RepaymentType   `json:"constructionRepaymentType" yaml:"constructionRepaymentType"`
	DrawdownStages            []DrawdownStage `json:"drawdownStages" yaml:"drawdownStages"`
}

// IsActive reports whether the config should drive a simulation.
func (c *Config) IsActive() bool {
	return c != nil && c.Enabled && len(c.DrawdownStages) > 0
}

// FinalDrawdownMonth returns the latest stage month, or 0 without stages.
func FinalDrawdownMonth(cfg Config) int {
	final := 0
	for _, stage := range cfg.DrawdownStages {
		if stage.Month > final {
			final = stage.Month
		}
	}
	return final
}

// FirstDrawdownMonth returns the earliest stage month, or 0 without stages.
func FirstDrawdownMonth(cfg Config) int {
	first := 0
	for _, stage := range cfg.DrawdownStages {
		if first == 0 || stage.Month < first {
			first = stage.Month
		}
	}
	return first
}

// AlignToFirstDrawdown returns a copy of cfg with every stage shifted so the
// earliest falls in month 1. The mortgage starts when funds are first
// released, so stage months are effectively counted from the first drawdown.
func AlignToFirstDrawdown(cfg Config) Config {
	shift := FirstDrawdownMonth(cfg) - 1
	if shift <= 0 {
		return cfg
	}
	aligned := cfg
	aligned.DrawdownStages = make([]DrawdownStage, len(cfg.DrawdownStages))
	for i, stage := range cfg.DrawdownStages {
		stage.Month -= shift
		aligned.DrawdownStages[i] = stage
	}
	return aligned
}

// InterestOnlyEndMonth returns the last month of the interest-only phase. It
// equals the final drawdown month when there are no interest-only months.
func InterestOnlyEndMonth(cfg Config) int {
	return FinalDrawdownMonth(cfg) + cfg.InterestOnlyMonths
}

// DeterminePhase returns the phase of the given month.
func DeterminePhase(month int, cfg Config) Phase {
	final := FinalDrawdownMonth(cfg)
	switch {
	case month <= final:
		return PhaseConstruction
	case month <= final+cfg.InterestOnlyMonths:
		return PhaseInterestOnly
	default:
		return PhaseRepayment
	}
}

// IsInterestOnlyMonth reports whether no capital is repaid in the month.
// With interest_and_capital construction only the interest-only phase
// qualifies; otherwise construction months do too.
func IsInterestOnlyMonth(month int, cfg Config) bool {
	phase := DeterminePhase(month, cfg)
	if cfg.ConstructionRepaymentType == RepaymentInterestAndCapital {
		return phase == PhaseInterestOnly
	}
	return phase == PhaseConstruction || phase == PhaseInterestOnly
}

// InitialBalance returns the balance the mortgage opens with: every stage
// scheduled in the earliest drawdown month.
func InitialBalance(cfg Config) int64 {
	first := FirstDrawdownMonth(cfg)
	var total int64
	for _, stage := range cfg.DrawdownStages {
		if stage.Month == first {
			total += stage.Amount
		}
	}
	return total
}

// DrawdownForMonth returns the funds released in the month on top of the
// opening balance. The earliest stage month is part of InitialBalance and
// always yields 0.
func DrawdownForMonth(month int, cfg Config) int64 {
	if month == FirstDrawdownMonth(cfg) {
		return 0
	}
	var total int64
	for _, stage := range cfg.DrawdownStages {
		if stage.Month == month {
			total += stage.Amount
		}
	}
	return total
}

// CumulativeDrawn returns everything released up to and including the month.
func CumulativeDrawn(month int, cfg Config) int64 {
	first := FirstDrawdownMonth(cfg)
	var total int64
	for _, stage := range cfg.DrawdownStages {
		if stage.Month <= month || stage.Month == first {
			total += stage.Amount
		}
	}
	return total
}

// TotalDrawdown returns the sum of all stage amounts.
func TotalDrawdown(cfg Config) int64 {
	var total int64
	for _, stage := range cfg.DrawdownStages {
		total += stage.Amount
	}
	return total
}

// InterestOnlyPayment returns the interest-only payment on a balance,
// rounded to whole cents.
func InterestOnlyPayment(balanceCents int64, annualRatePct float64) int64 {
	return mathutil.RoundCents(float64(balanceCents) * mathutil.MonthlyRate(annualRatePct))
}

// RemainingTermFromRepayment returns the months left for full amortization
// once the interest-only phase ends.
func RemainingTermFromRepayment(totalTermMonths, interestOnlyEndMonth int) int {
	return totalTermMonths - interestOnlyEndMonth
}

// DrawdownValidation is the outcome of ValidateDrawdownTotal. Difference is
// mortgage amount minus staged total, so a positive value means under-drawn.
type DrawdownValidation struct {
	Valid      bool  `json:"valid"`
	Difference int64 `json:"difference"`
}

// ValidateDrawdownTotal checks that the stages add up to the mortgage amount.
func ValidateDrawdownTotal(cfg Config, mortgageAmount int64) DrawdownValidation {
	diff := mortgageAmount - TotalDrawdown(cfg)
	return DrawdownValidation{
		Valid:      math.Abs(float64(diff)) < constants.DrawdownTolerance,
		Difference: diff,
	}
}
