// Package config defines conversion utilities for configuration objects.
package config

import (
	"github.com/iwvelando/mortgage-forecast/pkg/amortization"
	"github.com/iwvelando/mortgage-forecast/pkg/aprc"
	"github.com/iwvelando/mortgage-forecast/pkg/constants"
	"github.com/iwvelando/mortgage-forecast/pkg/datetime"
	"github.com/iwvelando/mortgage-forecast/pkg/mathutil"
	"github.com/iwvelando/mortgage-forecast/pkg/overpayment"
	"github.com/iwvelando/mortgage-forecast/pkg/rates"
	"github.com/iwvelando/mortgage-forecast/pkg/selfbuild"
)

// Catalog returns the shared catalog without any scenario's custom rates.
func (c *Configuration) Catalog() amortization.Catalog {
	return amortization.Catalog{
		Rates:    c.RateCatalog.Rates,
		Lenders:  c.RateCatalog.Lenders,
		Policies: c.RateCatalog.Policies,
	}
}

// CatalogFor returns the catalog a scenario resolves against, including its
// custom rates.
func (c *Configuration) CatalogFor(scenario Scenario) amortization.Catalog {
	catalog := c.Catalog()
	catalog.CustomRates = scenario.CustomRates
	return catalog
}

// Term returns the mortgage term in months.
func (m MortgageConfig) Term() int {
	if m.TermMonths > 0 {
		return m.TermMonths
	}
	return m.TermYears * constants.MonthsPerYear
}

// ToSimulationState converts a scenario into the engine's input, moving
// every amount from euros to cents.
func (s Scenario) ToSimulationState() (amortization.SimulationState, error) {
	startDate, err := datetime.ParseStartDate(s.Mortgage.StartDate)
	if err != nil {
		return amortization.SimulationState{}, err
	}

	state := amortization.SimulationState{
		Input: amortization.Input{
			MortgageAmount: mathutil.EurosToCents(s.Mortgage.Amount),
			PropertyValue:  mathutil.EurosToCents(s.Mortgage.PropertyValue),
			TermMonths:     s.Mortgage.Term(),
			StartDate:      startDate,
			Ber:            s.Mortgage.Ber,
		},
		RatePeriods:  append([]rates.RatePeriod(nil), s.RatePeriods...),
		Overpayments: make([]overpayment.Config, 0, len(s.Overpayments)),
		SelfBuild:    s.SelfBuild.ToSelfBuild(),
	}
	for _, config := range s.Overpayments {
		state.Overpayments = append(state.Overpayments, config.ToOverpayment())
	}
	return state, nil
}

// ToOverpayment converts the overpayment to cents and fills in defaults.
func (o OverpaymentConfig) ToOverpayment() overpayment.Config {
	effect := overpayment.Effect(o.Effect)
	if effect == "" {
		effect = overpayment.EffectReduceTerm
	}
	enabled := true
	if o.Enabled != nil {
		enabled = *o.Enabled
	}
	return overpayment.Config{
		ID:           o.ID,
		RatePeriodID: o.RatePeriodID,
		Type:         overpayment.Type(o.Type),
		Frequency:    overpayment.Frequency(o.Frequency),
		Amount:       mathutil.EurosToCents(o.Amount),
		StartMonth:   o.StartMonth,
		EndMonth:     o.EndMonth,
		Effect:       effect,
		Enabled:      enabled,
	}
}

// ToSelfBuild converts the self-build schedule to cents. A nil config stays nil.
func (sb *SelfBuildConfig) ToSelfBuild() *selfbuild.Config {
	if sb == nil {
		return nil
	}
	repayment := selfbuild.RepaymentType(sb.ConstructionRepaymentType)
	if repayment == "" {
		repayment = selfbuild.RepaymentInterestOnly
	}
	cfg := &selfbuild.Config{
		Enabled:                   sb.Enabled,
		InterestOnlyMonths:        sb.InterestOnlyMonths,
		ConstructionRepaymentType: repayment,
		DrawdownStages:            make([]selfbuild.DrawdownStage, 0, len(sb.DrawdownStages)),
	}
	for _, stage := range sb.DrawdownStages {
		cfg.DrawdownStages = append(cfg.DrawdownStages, selfbuild.DrawdownStage{
			ID:     stage.ID,
			Month:  stage.Month,
			Amount: mathutil.EurosToCents(stage.Amount),
			Label:  stage.Label,
		})
	}
	return cfg
}

// ToAprcConfig returns the loan and fees of an APRC case.
func (a AprcCase) ToAprcConfig() aprc.Config {
	return aprc.Config{
		LoanAmount:         a.LoanAmount,
		TermMonths:         a.TermMonths,
		ValuationFee:       a.ValuationFee,
		SecurityReleaseFee: a.SecurityReleaseFee,
	}
}

// FindRate looks a rate up in the scenario's custom rates or the catalog.
func (c *Configuration) FindRate(scenario Scenario, rateID string, isCustom bool) (rates.MortgageRate, bool) {
	pool := c.RateCatalog.Rates
	if isCustom {
		pool = scenario.CustomRates
	}
	for _, rate := range pool {
		if rate.ID == rateID {
			return rate, true
		}
	}
	return rates.MortgageRate{}, false
}

// LenderName returns the display name of a lender, or "" when unknown.
func (c *Configuration) LenderName(lenderID string) string {
	for _, lender := range c.RateCatalog.Lenders {
		if lender.ID == lenderID {
			return lender.Name
		}
	}
	return ""
}
