package rates

// BufferSuggestion recommends a variable-rate period after a fixed period.
type BufferSuggestion struct {
	AfterPeriodID  string       `json:"afterPeriodId"`
	AfterIndex     int          `json:"afterIndex"`
	StartMonth     int          `json:"startMonth"`
	DurationMonths int          `json:"durationMonths"`
	Rate           MortgageRate `json:"rate"`
	Trailing       bool         `json:"trailing"`
	Reason         string       `json:"reason"`
}

// CalculateBufferSuggestions recommends a one-month variable buffer after any
// fixed period whose natural follow-on rate is not what comes next, and an
// until-end variable period when the timeline ends on a fixed period that is
// not itself until-end.
func CalculateBufferSuggestions(periods []ResolvedRatePeriod, allRates []MortgageRate, totalMonths int) []BufferSuggestion {
	var suggestions []BufferSuggestion
	for i, period := range periods {
		if period.Rate.Type != RateTypeFixed || period.IsUntilEnd() {
			continue
		}
		startMonth := period.EndMonth(totalMonths) + 1
		if startMonth > totalMonths {
			continue
		}
		followOn, ok := FindVariableRate(period.Rate, allRates, nil, "")
		if !ok {
			continue
		}

		if i == len(periods)-1 {
			suggestions = append(suggestions, BufferSuggestion{
				AfterPeriodID:  period.ID,
				AfterIndex:     i,
				StartMonth:     startMonth,
				DurationMonths: 0,
				Rate:           followOn,
				Trailing:       true,
				Reason:         "rate timeline ends before the mortgage term",
			})
			continue
		}

		next := periods[i+1]
		if next.Rate.ID == followOn.ID && !next.IsCustom {
			continue
		}
		suggestions = append(suggestions, BufferSuggestion{
			AfterPeriodID:  period.ID,
			AfterIndex:     i,
			StartMonth:     startMonth,
			DurationMonths: 1,
			Rate:           followOn,
			Reason:         "fixed period rolls onto " + followOn.ID + " before the next configured rate",
		})
	}
	return suggestions
}
