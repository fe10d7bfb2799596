// Package validation provides configuration validation utilities.
package validation

import (
	"fmt"

	"github.com/iwvelando/mortgage-forecast/pkg/amortization"
	"github.com/iwvelando/mortgage-forecast/pkg/mathutil"
	"github.com/iwvelando/mortgage-forecast/pkg/rates"
	"github.com/iwvelando/mortgage-forecast/pkg/selfbuild"
)

// ValidateDrawdownTotal checks that self-build drawdown stages add up to the
// mortgage amount.
func ValidateDrawdownTotal(scenarioName string, cfg *selfbuild.Config, mortgageAmount int64) string {
	if !cfg.IsActive() {
		return ""
	}
	result := selfbuild.ValidateDrawdownTotal(*cfg, mortgageAmount)
	if result.Valid {
		return ""
	}
	return fmt.Sprintf("Scenario '%s' drawdown stages total %.2f but the mortgage is %.2f (difference %.2f)",
		scenarioName,
		mathutil.CentsToEuros(selfbuild.TotalDrawdown(*cfg)),
		mathutil.CentsToEuros(mortgageAmount),
		mathutil.CentsToEuros(result.Difference))
}

// ValidateRateCoverage checks that the resolved rate timeline reaches the end
// of the mortgage term.
func ValidateRateCoverage(scenarioName string, periods []rates.ResolvedRatePeriod, termMonths int) string {
	if termMonths <= 0 {
		return ""
	}
	if len(periods) == 0 {
		return fmt.Sprintf("Scenario '%s' has no rate periods - nothing will be simulated", scenarioName)
	}
	next := 1
	for _, period := range periods {
		if period.StartMonth > next {
			return fmt.Sprintf("Scenario '%s' rate periods leave months %d to %d uncovered - the simulation stops at month %d",
				scenarioName, next, period.StartMonth-1, next)
		}
		next = period.EndMonth(termMonths) + 1
	}
	last := periods[len(periods)-1]
	if last.IsUntilEnd() {
		return ""
	}
	if end := last.EndMonth(termMonths); end < termMonths {
		return fmt.Sprintf("Scenario '%s' rate periods end at month %d of %d - months %d to %d are not covered",
			scenarioName, end, termMonths, end+1, termMonths)
	}
	return ""
}

// ValidateRateReferences reports rate periods whose rate cannot be found in
// the catalog or the scenario's custom rates.
func ValidateRateReferences(scenarioName string, periods []rates.RatePeriod, catalog amortization.Catalog) []string {
	var warnings []string
	for _, period := range periods {
		pool := catalog.Rates
		if period.IsCustom {
			pool = catalog.CustomRates
		}
		if !containsRate(pool, period.RateID) {
			warnings = append(warnings, fmt.Sprintf("Scenario '%s' rate period '%s' references unknown rate '%s'",
				scenarioName, period.ID, period.RateID))
		}
	}
	return warnings
}

// ValidateOverpaymentPeriods reports overpayments scoped to a rate period that
// does not exist.
func ValidateOverpaymentPeriods(scenarioName string, state amortization.SimulationState) []string {
	known := make(map[string]bool, len(state.RatePeriods))
	for _, period := range state.RatePeriods {
		known[period.ID] = true
	}
	var warnings []string
	for _, config := range state.Overpayments {
		if config.RatePeriodID != "" && !known[config.RatePeriodID] {
			warnings = append(warnings, fmt.Sprintf("Scenario '%s' overpayment '%s' references unknown rate period '%s' and will never apply",
				scenarioName, config.ID, config.RatePeriodID))
		}
	}
	return warnings
}

// ValidateInitialLTV checks that the first rate period accepts the starting
// loan-to-value.
func ValidateInitialLTV(scenarioName string, periods []rates.ResolvedRatePeriod, input amortization.Input) string {
	if len(periods) == 0 || input.PropertyValue <= 0 {
		return ""
	}
	first := periods[0]
	if !rates.IsRateEligibleForBalance(first.Rate, input.MortgageAmount, input.PropertyValue) {
		return fmt.Sprintf("Scenario '%s' starting LTV %.1f%% is outside the %.0f-%.0f%% band of rate '%s'",
			scenarioName, rates.CalculateLTV(input.MortgageAmount, input.PropertyValue),
			first.Rate.MinLTV, first.Rate.MaxLTV, first.Rate.ID)
	}
	return ""
}

// ConfigValidator validates every active scenario and collects warnings.
type ConfigValidator struct {
	Catalog   amortization.Catalog
	Scenarios []ScenarioConfig
}

// ScenarioConfig is the subset of a scenario that advisories look at.
type ScenarioConfig struct {
	Name        string
	Active      bool
	State       amortization.SimulationState
	CustomRates []rates.MortgageRate
	// Repeating scenarios extend their own timeline, so gaps are expected.
	Repeating bool
}

// ValidateAll validates the entire configuration and returns warnings
func (cv *ConfigValidator) ValidateAll() []string {
	var warnings []string

	for _, scenario := range cv.Scenarios {
		if !scenario.Active {
			continue
		}
		catalog := cv.Catalog
		catalog.CustomRates = scenario.CustomRates
		state := scenario.State

		if warning := ValidateDrawdownTotal(scenario.Name, state.SelfBuild, state.Input.MortgageAmount); warning != "" {
			warnings = append(warnings, warning)
		}

		warnings = append(warnings, ValidateRateReferences(scenario.Name, state.RatePeriods, catalog)...)
		warnings = append(warnings, ValidateOverpaymentPeriods(scenario.Name, state)...)

		resolved := rates.ResolveRatePeriods(state.RatePeriods, catalog.Rates, catalog.CustomRates, catalog.Lenders)
		if !scenario.Repeating {
			if warning := ValidateRateCoverage(scenario.Name, resolved, state.Input.TermMonths); warning != "" {
				warnings = append(warnings, warning)
			}
		}
		if warning := ValidateInitialLTV(scenario.Name, resolved, state.Input); warning != "" {
			warnings = append(warnings, warning)
		}
	}

	return warnings
}

func containsRate(pool []rates.MortgageRate, id string) bool {
	for _, rate := range pool {
		if rate.ID == id {
			return true
		}
	}
	return false
}
