// Package rates models the mortgage rate catalog and resolves a configured
// rate timeline into concrete, month-addressable periods.
package rates

import (
	"fmt"

	"github.com/iwvelando/mortgage-forecast/pkg/constants"
	"github.com/iwvelando/mortgage-forecast/pkg/mathutil"
)

// RateType distinguishes fixed from variable rates.
type RateType string

const (
	// RateTypeFixed is guaranteed for FixedTerm years.
	RateTypeFixed RateType = "fixed"
	// RateTypeVariable floats immediately.
	RateTypeVariable RateType = "variable"
)

// MortgageRate is an immutable catalog entry.
type MortgageRate struct {
	ID          string   `json:"id" yaml:"id"`
	LenderID    string   `json:"lenderId" yaml:"lenderId"`
	Name        string   `json:"name,omitempty" yaml:"name,omitempty"`
	Type        RateType `json:"type" yaml:"type"`
	Rate        float64  `json:"rate" yaml:"rate"`                               // % p.a.
	FixedTerm   int      `json:"fixedTerm,omitempty" yaml:"fixedTerm,omitempty"` // years
	MinLTV      float64  `json:"minLtv" yaml:"minLtv"`
	MaxLTV      float64  `json:"maxLtv" yaml:"maxLtv"`
	MinLoan     *float64 `json:"minLoan,omitempty" yaml:"minLoan,omitempty"` // euros
	BuyerTypes  []string `json:"buyerTypes,omitempty" yaml:"buyerTypes,omitempty"`
	BerEligible []string `json:"berEligible,omitempty" yaml:"berEligible,omitempty"`
	NewBusiness *bool    `json:"newBusiness,omitempty" yaml:"newBusiness,omitempty"`
	Perks       []string `json:"perks,omitempty" yaml:"perks,omitempty"`
}

// IsFixed reports whether the rate is a fixed rate.
func (r MortgageRate) IsFixed() bool {
	return r.Type == RateTypeFixed
}

// FixedTermMonths returns the fixed term in months, or 0 for variable rates.
func (r MortgageRate) FixedTermMonths() int {
	if r.Type != RateTypeFixed {
		return 0
	}
	return r.FixedTerm * constants.MonthsPerYear
}

// IsFollowOn reports whether the rate is explicitly marked as an existing
// customer rate.
func (r MortgageRate) IsFollowOn() bool {
	return r.NewBusiness != nil && !*r.NewBusiness
}

// AcceptsBer reports whether the rate is available for the given BER rating.
// Rates without a BER restriction accept every rating.
func (r MortgageRate) AcceptsBer(ber string) bool {
	if ber == "" || len(r.BerEligible) == 0 {
		return true
	}
	for _, eligible := range r.BerEligible {
		if eligible == ber {
			return true
		}
	}
	return false
}

// Lender is a catalog entry optionally referencing an overpayment policy.
type Lender struct {
	ID                  string `json:"id" yaml:"id"`
	Name                string `json:"name" yaml:"name"`
	OverpaymentPolicyID string `json:"overpaymentPolicyId,omitempty" yaml:"overpaymentPolicyId,omitempty"`
}

// RatePeriod is one configured segment of the rate timeline.
// DurationMonths of 0 means "until the end of the mortgage".
type RatePeriod struct {
	ID             string `json:"id" yaml:"id"`
	LenderID       string `json:"lenderId" yaml:"lenderId"`
	RateID         string `json:"rateId" yaml:"rateId"`
	IsCustom       bool   `json:"isCustom,omitempty" yaml:"isCustom,omitempty"`
	DurationMonths int    `json:"durationMonths" yaml:"durationMonths"`
}

// ResolvedRatePeriod is a RatePeriod joined with its rate snapshot.
type ResolvedRatePeriod struct {
	RatePeriod
	Rate       MortgageRate `json:"rate"`
	StartMonth int          `json:"startMonth"`
	Label      string       `json:"label"`
}

// IsUntilEnd reports whether the period runs to the end of the mortgage.
func (p ResolvedRatePeriod) IsUntilEnd() bool {
	return p.DurationMonths <= 0
}

// EndMonth returns the last month covered by the period.
func (p ResolvedRatePeriod) EndMonth(totalMonths int) int {
	if p.IsUntilEnd() {
		return totalMonths
	}
	end := p.StartMonth + p.DurationMonths - 1
	if end > totalMonths {
		return totalMonths
	}
	return end
}

// CommittedEndMonth returns the last month of the rate's fixed commitment.
// For fixed periods running until the end of the mortgage the commitment is
// the rate's own fixed term.
func (p ResolvedRatePeriod) CommittedEndMonth(totalMonths int) int {
	if !p.IsUntilEnd() {
		return p.EndMonth(totalMonths)
	}
	if term := p.Rate.FixedTermMonths(); term > 0 {
		end := p.StartMonth + term - 1
		if end < totalMonths {
			return end
		}
	}
	return totalMonths
}

// Contains reports whether the month falls inside the period.
func (p ResolvedRatePeriod) Contains(month, totalMonths int) bool {
	return month >= p.StartMonth && month <= p.EndMonth(totalMonths)
}

// ResolveRatePeriods joins every configured period with its rate and assigns
// consecutive start months beginning at month 1. Periods whose rate cannot be
// found are left out but keep their months, so the timeline has a gap where
// they were. Nothing follows an until-end period.
func ResolveRatePeriods(periods []RatePeriod, catalog, custom []MortgageRate, lenders []Lender) []ResolvedRatePeriod {
	catalogByID := indexRates(catalog)
	customByID := indexRates(custom)
	lenderNames := make(map[string]string, len(lenders))
	for _, lender := range lenders {
		lenderNames[lender.ID] = lender.Name
	}

	resolved := make([]ResolvedRatePeriod, 0, len(periods))
	month := 1
	for _, period := range periods {
		lookup := catalogByID
		if period.IsCustom {
			lookup = customByID
		}
		rate, ok := lookup[period.RateID]
		if !ok {
			if period.DurationMonths <= 0 {
				break
			}
			month += period.DurationMonths
			continue
		}

		resolved = append(resolved, ResolvedRatePeriod{
			RatePeriod: period,
			Rate:       rate,
			StartMonth: month,
			Label:      PeriodLabel(lenderNames[period.LenderID], rate),
		})
		if period.DurationMonths <= 0 {
			break
		}
		month += period.DurationMonths
	}
	return resolved
}

// FindPeriodForMonth returns the period active in the given month.
func FindPeriodForMonth(periods []ResolvedRatePeriod, month, totalMonths int) (ResolvedRatePeriod, bool) {
	for _, period := range periods {
		if period.Contains(month, totalMonths) {
			return period, true
		}
	}
	return ResolvedRatePeriod{}, false
}

// PeriodLabel builds the display label of a rate period.
func PeriodLabel(lenderName string, rate MortgageRate) string {
	var label string
	switch rate.Type {
	case RateTypeFixed:
		label = fmt.Sprintf("%d-Year Fixed @ %.2f%%", rate.FixedTerm, rate.Rate)
	case RateTypeVariable:
		label = fmt.Sprintf("Variable @ %.2f%%", rate.Rate)
	default:
		label = fmt.Sprintf("%.2f%%", rate.Rate)
	}
	if lenderName != "" {
		return lenderName + " " + label
	}
	return label
}

// CalculateLTV returns the loan-to-value percentage of a balance.
func CalculateLTV(balanceCents, propertyValueCents int64) float64 {
	if propertyValueCents <= 0 {
		return 0
	}
	return mathutil.CalculatePercentage(float64(balanceCents), float64(propertyValueCents))
}

func indexRates(rates []MortgageRate) map[string]MortgageRate {
	index := make(map[string]MortgageRate, len(rates))
	for _, rate := range rates {
		index[rate.ID] = rate
	}
	return index
}
