package validation

import (
	"strings"
	"testing"

	"github.com/iwvelando/mortgage-forecast/pkg/amortization"
	"github.com/iwvelando/mortgage-forecast/pkg/overpayment"
	"github.com/iwvelando/mortgage-forecast/pkg/rates"
	"github.com/iwvelando/mortgage-forecast/pkg/selfbuild"
)

func testCatalog() amortization.Catalog {
	return amortization.Catalog{
		Rates: []rates.MortgageRate{
			{ID: "fixed-3", LenderID: "aib", Type: rates.RateTypeFixed, Rate: 3.5, FixedTerm: 3, MinLTV: 0, MaxLTV: 80},
			{ID: "variable", LenderID: "aib", Type: rates.RateTypeVariable, Rate: 4.0, MinLTV: 0, MaxLTV: 90},
		},
		Lenders: []rates.Lender{{ID: "aib", Name: "AIB"}},
	}
}

func testState() amortization.SimulationState {
	return amortization.SimulationState{
		Input: amortization.Input{
			MortgageAmount: 30000000,
			PropertyValue:  40000000,
			TermMonths:     360,
		},
		RatePeriods: []rates.RatePeriod{
			{ID: "p1", LenderID: "aib", RateID: "fixed-3", DurationMonths: 36},
			{ID: "p2", LenderID: "aib", RateID: "variable"},
		},
	}
}

func TestValidateDrawdownTotal(t *testing.T) {
	stages := []selfbuild.DrawdownStage{
		{ID: "s1", Month: 1, Amount: 10000000},
		{ID: "s2", Month: 6, Amount: 20000000},
	}

	tests := []struct {
		name       string
		cfg        *selfbuild.Config
		amount     int64
		expectWarn bool
	}{
		{"Nil config", nil, 30000000, false},
		{"Disabled", &selfbuild.Config{Enabled: false, DrawdownStages: stages}, 25000000, false},
		{"Matching total", &selfbuild.Config{Enabled: true, DrawdownStages: stages}, 30000000, false},
		{"Under drawn", &selfbuild.Config{Enabled: true, DrawdownStages: stages}, 31000000, true},
		{"Over drawn", &selfbuild.Config{Enabled: true, DrawdownStages: stages}, 29000000, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			warning := ValidateDrawdownTotal("Build", tt.cfg, tt.amount)
			if tt.expectWarn && warning == "" {
				t.Errorf("expected a warning but got none")
			}
			if !tt.expectWarn && warning != "" {
				t.Errorf("unexpected warning: %s", warning)
			}
		})
	}

	warning := ValidateDrawdownTotal("Build", &selfbuild.Config{Enabled: true, DrawdownStages: stages}, 31000000)
	if !strings.Contains(warning, "difference 10000.00") {
		t.Errorf("warning should report the difference, got %s", warning)
	}
}

func TestValidateRateCoverage(t *testing.T) {
	catalog := testCatalog()
	resolve := func(periods []rates.RatePeriod) []rates.ResolvedRatePeriod {
		return rates.ResolveRatePeriods(periods, catalog.Rates, nil, catalog.Lenders)
	}

	tests := []struct {
		name     string
		periods  []rates.RatePeriod
		contains string
	}{
		{
			name:    "Until end covers the term",
			periods: testState().RatePeriods,
		},
		{
			name:     "Gap at the end",
			periods:  []rates.RatePeriod{{ID: "p1", LenderID: "aib", RateID: "fixed-3", DurationMonths: 36}},
			contains: "months 37 to 360",
		},
		{
			name:     "No periods",
			periods:  nil,
			contains: "no rate periods",
		},
		{
			name: "Unknown rate leaves a gap",
			periods: []rates.RatePeriod{
				{ID: "p1", LenderID: "aib", RateID: "fixed-3", DurationMonths: 36},
				{ID: "p2", LenderID: "aib", RateID: "unknown", DurationMonths: 24},
				{ID: "p3", LenderID: "aib", RateID: "variable", DurationMonths: 0},
			},
			contains: "months 37 to 60 uncovered",
		},
		{
			name: "Durations exactly fill the term",
			periods: []rates.RatePeriod{
				{ID: "p1", LenderID: "aib", RateID: "fixed-3", DurationMonths: 36},
				{ID: "p2", LenderID: "aib", RateID: "variable", DurationMonths: 324},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			warning := ValidateRateCoverage("Scenario", resolve(tt.periods), 360)
			if tt.contains == "" && warning != "" {
				t.Errorf("unexpected warning: %s", warning)
			}
			if tt.contains != "" && !strings.Contains(warning, tt.contains) {
				t.Errorf("expected warning containing %q, got %q", tt.contains, warning)
			}
		})
	}
}

func TestValidateRateReferences(t *testing.T) {
	catalog := testCatalog()
	catalog.CustomRates = []rates.MortgageRate{{ID: "my-rate", Type: rates.RateTypeVariable, Rate: 3.9, MaxLTV: 100}}

	periods := []rates.RatePeriod{
		{ID: "p1", LenderID: "aib", RateID: "fixed-3", DurationMonths: 36},
		{ID: "p2", LenderID: "aib", RateID: "missing", DurationMonths: 12},
		{ID: "p3", RateID: "my-rate", IsCustom: true, DurationMonths: 12},
		{ID: "p4", RateID: "fixed-3", IsCustom: true},
	}

	warnings := ValidateRateReferences("Scenario", periods, catalog)
	if len(warnings) != 2 {
		t.Fatalf("expected 2 warnings, got %d: %v", len(warnings), warnings)
	}
	if !strings.Contains(warnings[0], "'missing'") {
		t.Errorf("unexpected first warning: %s", warnings[0])
	}
	if !strings.Contains(warnings[1], "'p4'") {
		t.Errorf("custom period should only match custom rates: %s", warnings[1])
	}
}

func TestValidateOverpaymentPeriods(t *testing.T) {
	state := testState()
	state.Overpayments = []overpayment.Config{
		{ID: "any", Type: overpayment.TypeOneTime, Amount: 100000, StartMonth: 5, Enabled: true},
		{ID: "scoped", RatePeriodID: "p1", Type: overpayment.TypeOneTime, Amount: 100000, StartMonth: 5, Enabled: true},
		{ID: "orphan", RatePeriodID: "p9", Type: overpayment.TypeOneTime, Amount: 100000, StartMonth: 5, Enabled: true},
	}

	warnings := ValidateOverpaymentPeriods("Scenario", state)
	if len(warnings) != 1 || !strings.Contains(warnings[0], "'orphan'") {
		t.Errorf("expected a single warning for the orphan overpayment, got %v", warnings)
	}
}

func TestValidateInitialLTV(t *testing.T) {
	catalog := testCatalog()
	periods := rates.ResolveRatePeriods(testState().RatePeriods, catalog.Rates, nil, catalog.Lenders)

	input := testState().Input
	if warning := ValidateInitialLTV("Scenario", periods, input); warning != "" {
		t.Errorf("75%% LTV should be eligible, got %s", warning)
	}

	input.PropertyValue = 33000000
	warning := ValidateInitialLTV("Scenario", periods, input)
	if !strings.Contains(warning, "90.9%") {
		t.Errorf("expected LTV warning, got %q", warning)
	}

	input.PropertyValue = 0
	if warning := ValidateInitialLTV("Scenario", periods, input); warning != "" {
		t.Errorf("unknown property value should not warn, got %s", warning)
	}
}

func TestConfigValidatorValidateAll(t *testing.T) {
	gap := testState()
	gap.RatePeriods = gap.RatePeriods[:1]

	cv := ConfigValidator{
		Catalog: testCatalog(),
		Scenarios: []ScenarioConfig{
			{Name: "Clean", Active: true, State: testState()},
			{Name: "Gap", Active: true, State: gap},
			{Name: "Gap repeating", Active: true, State: gap, Repeating: true},
			{Name: "Inactive gap", Active: false, State: gap},
		},
	}

	warnings := cv.ValidateAll()
	if len(warnings) != 1 {
		t.Fatalf("expected 1 warning, got %d: %v", len(warnings), warnings)
	}
	if !strings.Contains(warnings[0], "Scenario 'Gap' rate periods end at month 36") {
		t.Errorf("unexpected warning: %s", warnings[0])
	}
}
