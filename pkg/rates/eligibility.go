package rates

import (
	"fmt"

	"github.com/iwvelando/mortgage-forecast/pkg/loans"
	"github.com/iwvelando/mortgage-forecast/pkg/mathutil"
)

// FindVariableRate returns the variable rate a fixed rate rolls onto.
//
// Candidates must be variable, from the same lender, accept the BER rating
// when one is given, and overlap the fixed rate's LTV bracket (or contain ltv
// when it is supplied). Among the matches an explicit follow-on rate
// (NewBusiness == false) wins; otherwise the first match is returned.
func FindVariableRate(fixedRate MortgageRate, candidates []MortgageRate, ltv *float64, ber string) (MortgageRate, bool) {
	var first *MortgageRate
	for i := range candidates {
		candidate := candidates[i]
		if candidate.Type != RateTypeVariable || candidate.LenderID != fixedRate.LenderID {
			continue
		}
		if !candidate.AcceptsBer(ber) {
			continue
		}
		if ltv != nil {
			if *ltv < candidate.MinLTV || *ltv > candidate.MaxLTV {
				continue
			}
		} else if candidate.MinLTV >= fixedRate.MaxLTV || candidate.MaxLTV <= fixedRate.MinLTV {
			continue
		}

		if candidate.IsFollowOn() {
			return candidate, true
		}
		if first == nil {
			first = &candidates[i]
		}
	}
	if first == nil {
		return MortgageRate{}, false
	}
	return *first, true
}

// IsRateEligibleForBalance reports whether a rate can be taken for the given
// balance and property value. Both the LTV bracket and the minimum loan are
// boundary-inclusive.
func IsRateEligibleForBalance(rate MortgageRate, balanceCents, propertyValueCents int64) bool {
	ltv := CalculateLTV(balanceCents, propertyValueCents)
	if ltv < rate.MinLTV || ltv > rate.MaxLTV {
		return false
	}
	if rate.MinLoan != nil && balanceCents < mathutil.EurosToCents(*rate.MinLoan) {
		return false
	}
	return true
}

// CanRateBeRepeated reports whether a fixed rate can be selected again on
// renewal. New-business-only fixed rates cannot.
func CanRateBeRepeated(rate MortgageRate) bool {
	if rate.Type != RateTypeFixed {
		return false
	}
	return rate.NewBusiness == nil || !*rate.NewBusiness
}

// RepeatingConfig describes a forecast of successive fixed-rate cycles.
type RepeatingConfig struct {
	FixedRate        MortgageRate
	AllRates         []MortgageRate
	LenderName       string
	PeriodStartMonth int
	TotalTermMonths  int
	StartingBalance  int64 // cents, at PeriodStartMonth
	PropertyValue    int64 // cents
	Ber              string
	IncludeBuffers   bool
	IDPrefix         string
}

// GenerateRepeatingRatePeriods renews the fixed rate cycle after cycle while a
// full cycle still fits in the term and the projected balance stays eligible.
// With IncludeBuffers, a one-month variable buffer follows each cycle and a
// trailing until-end variable period absorbs whatever the cycles leave over.
func GenerateRepeatingRatePeriods(cfg RepeatingConfig) []ResolvedRatePeriod {
	cycleMonths := cfg.FixedRate.FixedTermMonths()
	if cycleMonths <= 0 {
		return nil
	}
	month := cfg.PeriodStartMonth
	if month < 1 {
		month = 1
	}
	if cfg.TotalTermMonths-month+1 <= 0 {
		return nil
	}

	prefix := cfg.IDPrefix
	if prefix == "" {
		prefix = cfg.FixedRate.ID
	}

	var periods []ResolvedRatePeriod
	balance := float64(cfg.StartingBalance)
	cycle := 1

	addTrailingVariable := func() {
		if !cfg.IncludeBuffers || cfg.TotalTermMonths-month+1 <= 0 {
			return
		}
		variable, ok := FindVariableRate(cfg.FixedRate, cfg.AllRates, ltvPointer(balance, cfg.PropertyValue), cfg.Ber)
		if !ok {
			return
		}
		periods = append(periods, ResolvedRatePeriod{
			RatePeriod: RatePeriod{
				ID:             fmt.Sprintf("%s-variable-end", prefix),
				LenderID:       variable.LenderID,
				RateID:         variable.ID,
				DurationMonths: 0,
			},
			Rate:       variable,
			StartMonth: month,
			Label:      PeriodLabel(cfg.LenderName, variable) + " (until end)",
		})
	}

	for {
		remaining := cfg.TotalTermMonths - month + 1
		if remaining < cycleMonths {
			addTrailingVariable()
			break
		}
		if !IsRateEligibleForBalance(cfg.FixedRate, mathutil.RoundCents(balance), cfg.PropertyValue) {
			addTrailingVariable()
			break
		}

		periods = append(periods, ResolvedRatePeriod{
			RatePeriod: RatePeriod{
				ID:             fmt.Sprintf("%s-cycle-%d", prefix, cycle),
				LenderID:       cfg.FixedRate.LenderID,
				RateID:         cfg.FixedRate.ID,
				DurationMonths: cycleMonths,
			},
			Rate:       cfg.FixedRate,
			StartMonth: month,
			Label:      fmt.Sprintf("%s, Cycle %d", PeriodLabel(cfg.LenderName, cfg.FixedRate), cycle),
		})
		balance = loans.CalculateRemainingBalance(balance, cfg.FixedRate.Rate, remaining, cycleMonths)
		month += cycleMonths

		if cfg.IncludeBuffers {
			if cfg.TotalTermMonths-month+1 <= 0 {
				break
			}
			variable, ok := FindVariableRate(cfg.FixedRate, cfg.AllRates, ltvPointer(balance, cfg.PropertyValue), cfg.Ber)
			if !ok {
				break
			}
			periods = append(periods, ResolvedRatePeriod{
				RatePeriod: RatePeriod{
					ID:             fmt.Sprintf("%s-buffer-%d", prefix, cycle),
					LenderID:       variable.LenderID,
					RateID:         variable.ID,
					DurationMonths: 1,
				},
				Rate:       variable,
				StartMonth: month,
				Label:      fmt.Sprintf("Variable Buffer, Cycle %d", cycle),
			})
			balance = loans.CalculateRemainingBalance(balance, variable.Rate, cfg.TotalTermMonths-month+1, 1)
			month++
		}
		cycle++
	}

	return periods
}

func ltvPointer(balance float64, propertyValue int64) *float64 {
	if propertyValue <= 0 {
		return nil
	}
	ltv := mathutil.CalculatePercentage(balance, float64(propertyValue))
	return &ltv
}
