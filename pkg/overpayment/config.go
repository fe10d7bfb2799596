package overpayment

import (
	"github.com/iwvelando/mortgage-forecast/pkg/constants"
)

// Type distinguishes one-off from recurring overpayments.
type Type string

const (
	// TypeOneTime fires once, at StartMonth.
	TypeOneTime Type = "one_time"
	// TypeRecurring fires on every Frequency step from StartMonth.
	TypeRecurring Type = "recurring"
)

// Frequency is the cadence of a recurring overpayment.
type Frequency string

const (
	FrequencyMonthly   Frequency = "monthly"
	FrequencyQuarterly Frequency = "quarterly"
	FrequencyYearly    Frequency = "yearly"
)

// Months returns the interval of the frequency in months. Unknown or empty
// frequencies are monthly.
func (f Frequency) Months() int {
	switch f {
	case FrequencyQuarterly:
		return constants.QuarterlyFrequency
	case FrequencyYearly:
		return constants.AnnualFrequency
	default:
		return constants.MonthlyFrequency
	}
}

// Effect is what an overpayment does to the rest of the mortgage.
type Effect string

const (
	// EffectReduceTerm keeps the payment and shortens the mortgage.
	EffectReduceTerm Effect = "reduce_term"
	// EffectReducePayment keeps the term and lowers the payment.
	EffectReducePayment Effect = "reduce_payment"
)

// Config is one scheduled overpayment. RatePeriodID, when set, restricts the
// overpayment to months inside that rate period.
type Config struct {
	ID           string    `json:"id" yaml:"id"`
	RatePeriodID string    `json:"ratePeriodId,omitempty" yaml:"ratePeriodId,omitempty"`
	Type         Type      `json:"type" yaml:"type"`
	Frequency    Frequency `json:"frequency,omitempty" yaml:"frequency,omitempty"`
	Amount       int64     `json:"amount" yaml:"amount"` // cents
	StartMonth   int       `json:"startMonth" yaml:"startMonth"`
	EndMonth     *int      `json:"endMonth,omitempty" yaml:"endMonth,omitempty"`
	Effect       Effect    `json:"effect" yaml:"effect"`
	Enabled      bool      `json:"enabled" yaml:"enabled"`
}

// FiresInMonth reports whether the overpayment is due in the month.
func (c Config) FiresInMonth(month int) bool {
	if !c.Enabled || c.Amount <= 0 || month < c.StartMonth {
		return false
	}
	switch c.Type {
	case TypeOneTime:
		return month == c.StartMonth
	case TypeRecurring:
		if c.EndMonth != nil && month > *c.EndMonth {
			return false
		}
		return (month-c.StartMonth)%c.Frequency.Months() == 0
	default:
		return false
	}
}

// AmountForMonth returns the cents due in the month, 0 when it does not fire.
func (c Config) AmountForMonth(month int) int64 {
	if !c.FiresInMonth(month) {
		return 0
	}
	return c.Amount
}

// AppliesToPeriod reports whether the overpayment may run inside the period.
func (c Config) AppliesToPeriod(periodID string) bool {
	return c.RatePeriodID == "" || c.RatePeriodID == periodID
}
