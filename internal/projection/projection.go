// Package projection defines the data structures related to a given
// projection and includes functions for computing the projections of every
// configured scenario and standalone analysis.
package projection

import (
	"fmt"

	"github.com/iwvelando/mortgage-forecast/internal/config"
	"github.com/iwvelando/mortgage-forecast/pkg/amortization"
	"github.com/iwvelando/mortgage-forecast/pkg/aprc"
	"github.com/iwvelando/mortgage-forecast/pkg/breakeven"
	"github.com/iwvelando/mortgage-forecast/pkg/constants"
	"github.com/iwvelando/mortgage-forecast/pkg/overpayment"
	"github.com/iwvelando/mortgage-forecast/pkg/rates"
	"github.com/iwvelando/mortgage-forecast/pkg/selfbuild"
	"go.uber.org/zap"
)

// Projection holds all information related to a specific scenario run.
type Projection struct {
	Name             string                     `json:"name"`
	Input            amortization.Input         `json:"input"`
	Periods          []rates.ResolvedRatePeriod `json:"periods"`
	Months           []amortization.Month       `json:"months"`
	Years            []amortization.YearSummary `json:"years"`
	Summary          amortization.Summary       `json:"summary"`
	BaselineInterest int64                      `json:"baselineInterest"`
	Milestones       []amortization.Milestone   `json:"milestones"`
	Completeness     amortization.Completeness  `json:"completeness"`
	Warnings         []amortization.Warning     `json:"warnings"`
	Buffers          []rates.BufferSuggestion   `json:"bufferSuggestions"`
	OverpaymentPlans []PeriodPlans              `json:"overpaymentPlans"`
}

// PeriodPlans is the fee-free overpayment allowance of one fixed period.
type PeriodPlans struct {
	PeriodID string                   `json:"periodId"`
	Label    string                   `json:"label"`
	PolicyID string                   `json:"policyId"`
	Plans    []overpayment.YearlyPlan `json:"plans"`
}

// AprcResult is the outcome of one configured APRC case.
type AprcResult struct {
	Name             string        `json:"name"`
	FixedRate        float64       `json:"fixedRate"`
	FixedTermYears   int           `json:"fixedTermYears"`
	FollowOnRate     float64       `json:"followOnRate"`
	FollowOnInferred bool          `json:"followOnInferred"`
	ObservedAprc     *float64      `json:"observedAprc,omitempty"`
	Solution         aprc.Solution `json:"solution"`
}

// BreakevenResults holds whichever breakeven analyses were configured.
type BreakevenResults struct {
	RentVsBuy  *breakeven.RentVsBuyResult  `json:"rentVsBuy,omitempty"`
	Remortgage *breakeven.RemortgageResult `json:"remortgage,omitempty"`
	Cashback   *breakeven.CashbackResult   `json:"cashback,omitempty"`
}

// GetProjections processes the Projections for all active Scenarios.
func GetProjections(logger *zap.Logger, conf config.Configuration) ([]Projection, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	results := []Projection{}
	for _, scenario := range conf.Scenarios {
		if !scenario.Active {
			logger.Debug(fmt.Sprintf("skipping scenario %s because it is inactive", scenario.Name),
				zap.String("op", "projection.GetProjections"),
			)
			continue
		}

		result, err := GetProjection(logger, conf, scenario)
		if err != nil {
			return results, fmt.Errorf("scenario %s: %w", scenario.Name, err)
		}
		results = append(results, result)
	}

	return results, nil
}

// GetProjection simulates a single scenario against the configured catalog.
func GetProjection(logger *zap.Logger, conf config.Configuration, scenario config.Scenario) (Projection, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	state, err := scenario.ToSimulationState()
	if err != nil {
		return Projection{}, err
	}
	catalog := conf.CatalogFor(scenario)
	term := state.Input.TermMonths
	simulator := amortization.NewSimulator(logger)

	periods := rates.ResolveRatePeriods(state.RatePeriods, catalog.Rates, catalog.CustomRates, catalog.Lenders)
	if len(periods) < len(state.RatePeriods) {
		logger.Warn(fmt.Sprintf("scenario %s: %d rate periods reference unknown rates, their months are left uncovered",
			scenario.Name, len(state.RatePeriods)-len(periods)),
			zap.String("op", "projection.GetProjection"),
		)
	}
	if scenario.RepeatingRates != nil {
		periods = extendWithRepeatingRates(logger, conf, scenario, state, periods, catalog, simulator)
	}

	result := simulator.SimulateResolved(state, periods, catalog)
	baseline := amortization.CalculateBaselineResolved(state, periods, catalog)

	projection := Projection{
		Name:             scenario.Name,
		Input:            state.Input,
		Periods:          periods,
		Months:           result.Months,
		Years:            amortization.AggregateByYear(result.Months, state.Input.StartDate),
		Summary:          amortization.CalculateSummary(result.Months, baseline),
		BaselineInterest: baseline.Interest,
		Milestones:       amortization.CalculateMilestones(result.Months, state.Input, state.SelfBuild),
		Completeness:     amortization.CalculateSimulationCompleteness(result.Months, term),
		Warnings:         result.Warnings,
		Buffers:          rates.CalculateBufferSuggestions(periods, allRates(catalog), term),
		OverpaymentPlans: overpaymentPlans(state, periods, catalog),
	}
	if projection.Buffers == nil {
		projection.Buffers = []rates.BufferSuggestion{}
	}

	for _, warning := range result.Warnings {
		logger.Warn(fmt.Sprintf("scenario %s: %s", scenario.Name, warning.Message),
			zap.String("op", "projection.GetProjection"),
			zap.String("type", string(warning.Type)),
			zap.Int("month", warning.Month),
		)
	}
	if !projection.Completeness.Complete {
		logger.Warn(fmt.Sprintf("scenario %s: simulation stopped at month %d with %d months uncovered",
			scenario.Name, projection.Completeness.SimulatedMonths, projection.Completeness.MissingMonths),
			zap.String("op", "projection.GetProjection"),
		)
	}
	logger.Debug(fmt.Sprintf("scenario %s: %d months simulated, total interest %d cents",
		scenario.Name, len(result.Months), projection.Summary.TotalInterest),
		zap.String("op", "projection.GetProjection"),
	)

	return projection, nil
}

// extendWithRepeatingRates appends renewed fixed-rate cycles after the last
// configured period. The starting balance of the first cycle comes from a
// simulation of the configured periods alone.
func extendWithRepeatingRates(logger *zap.Logger, conf config.Configuration, scenario config.Scenario, state amortization.SimulationState, periods []rates.ResolvedRatePeriod, catalog amortization.Catalog, simulator *amortization.Simulator) []rates.ResolvedRatePeriod {
	repeating := scenario.RepeatingRates
	term := state.Input.TermMonths

	rate, ok := conf.FindRate(scenario, repeating.RateID, repeating.IsCustom)
	if !ok {
		logger.Warn(fmt.Sprintf("scenario %s: repeating rate %s not found", scenario.Name, repeating.RateID),
			zap.String("op", "projection.extendWithRepeatingRates"),
		)
		return periods
	}
	if !rates.CanRateBeRepeated(rate) {
		logger.Warn(fmt.Sprintf("scenario %s: rate %s cannot be renewed", scenario.Name, rate.ID),
			zap.String("op", "projection.extendWithRepeatingRates"),
		)
		return periods
	}

	startMonth := 1
	balance := state.Input.MortgageAmount
	if len(periods) > 0 {
		last := periods[len(periods)-1]
		end := last.EndMonth(term)
		if last.IsUntilEnd() || end >= term {
			return periods
		}
		partial := simulator.SimulateResolved(state, periods, catalog)
		if len(partial.Months) == 0 {
			return periods
		}
		balance = partial.Months[len(partial.Months)-1].ClosingBalance
		if balance <= 0 {
			return periods
		}
		startMonth = end + 1
	}

	lenderID := repeating.LenderID
	if lenderID == "" {
		lenderID = rate.LenderID
	}
	generated := rates.GenerateRepeatingRatePeriods(rates.RepeatingConfig{
		FixedRate:        rate,
		AllRates:         allRates(catalog),
		LenderName:       conf.LenderName(lenderID),
		PeriodStartMonth: startMonth,
		TotalTermMonths:  term,
		StartingBalance:  balance,
		PropertyValue:    state.Input.PropertyValue,
		Ber:              state.Input.Ber,
		IncludeBuffers:   repeating.IncludeBuffers,
	})
	logger.Debug(fmt.Sprintf("scenario %s: generated %d repeating periods from month %d",
		scenario.Name, len(generated), startMonth),
		zap.String("op", "projection.extendWithRepeatingRates"),
	)

	extended := make([]rates.ResolvedRatePeriod, 0, len(periods)+len(generated))
	extended = append(extended, periods...)
	return append(extended, generated...)
}

// overpaymentPlans lists the allowance windows of every fixed period whose
// lender has an overpayment policy.
func overpaymentPlans(state amortization.SimulationState, periods []rates.ResolvedRatePeriod, catalog amortization.Catalog) []PeriodPlans {
	constructionEnd := selfbuild.NewStrategy(state.SelfBuild).ConstructionEndMonth()
	plans := []PeriodPlans{}
	for _, period := range periods {
		if !period.Rate.IsFixed() {
			continue
		}
		policy, ok := catalog.PolicyForLender(period.LenderID)
		if !ok {
			continue
		}
		windows := overpayment.CalculateYearlyOverpaymentPlans(policy, period, state.Input.MortgageAmount,
			state.Input.TermMonths, state.Input.StartDate, constructionEnd)
		if len(windows) == 0 {
			continue
		}
		plans = append(plans, PeriodPlans{
			PeriodID: period.ID,
			Label:    period.Label,
			PolicyID: policy.ID,
			Plans:    windows,
		})
	}
	return plans
}

// GetAprcResults solves every configured APRC case, inferring the follow-on
// rate when only the published APRC is known.
func GetAprcResults(logger *zap.Logger, conf config.Configuration) []AprcResult {
	if logger == nil {
		logger = zap.NewNop()
	}

	results := []AprcResult{}
	for _, c := range conf.Aprc {
		cfg := c.ToAprcConfig()
		result := AprcResult{
			Name:           c.Name,
			FixedRate:      c.FixedRate,
			FixedTermYears: c.FixedTermYears,
			FollowOnRate:   c.FollowOnRate,
			ObservedAprc:   c.ObservedAprc,
		}
		if c.FollowOnRate <= 0 && c.ObservedAprc != nil {
			result.FollowOnRate = aprc.InferFollowOnRate(c.FixedRate, c.FixedTermYears, *c.ObservedAprc, cfg)
			result.FollowOnInferred = true
			logger.Debug(fmt.Sprintf("aprc %s: inferred follow-on rate %.2f%% from APRC %.2f%%",
				c.Name, result.FollowOnRate, *c.ObservedAprc),
				zap.String("op", "projection.GetAprcResults"),
			)
		}
		result.Solution = aprc.SolveAprc(c.FixedRate, c.FixedTermYears*constants.MonthsPerYear, result.FollowOnRate, cfg)
		if !result.Solution.Converged {
			logger.Warn(fmt.Sprintf("aprc %s: solver did not converge after %d iterations", c.Name, result.Solution.Iterations),
				zap.String("op", "projection.GetAprcResults"),
			)
		}
		results = append(results, result)
	}
	return results
}

// GetBreakevenResults runs the configured breakeven analyses.
func GetBreakevenResults(logger *zap.Logger, conf config.Configuration) BreakevenResults {
	if logger == nil {
		logger = zap.NewNop()
	}

	var results BreakevenResults
	if in := conf.Breakeven.RentVsBuy; in != nil {
		result := breakeven.CalculateRentVsBuy(*in)
		results.RentVsBuy = &result
		logger.Debug(fmt.Sprintf("rent vs buy: breakeven after %v years", result.BreakevenYears),
			zap.String("op", "projection.GetBreakevenResults"),
		)
	}
	if in := conf.Breakeven.Remortgage; in != nil {
		result := breakeven.CalculateRemortgage(*in)
		results.Remortgage = &result
		logger.Debug(fmt.Sprintf("remortgage: breakeven after %v years", result.BreakevenYears),
			zap.String("op", "projection.GetBreakevenResults"),
		)
	}
	if in := conf.Breakeven.Cashback; in != nil {
		result := breakeven.CompareCashbackOptions(*in)
		results.Cashback = &result
		logger.Debug(fmt.Sprintf("cashback: lowest net cost option %s over %d months",
			result.LowestNetCostOption, result.ComparisonMonths),
			zap.String("op", "projection.GetBreakevenResults"),
		)
	}
	return results
}

func allRates(catalog amortization.Catalog) []rates.MortgageRate {
	all := make([]rates.MortgageRate, 0, len(catalog.Rates)+len(catalog.CustomRates))
	all = append(all, catalog.Rates...)
	return append(all, catalog.CustomRates...)
}
