// Package config defines the data structures related to configuration and
// includes functions for loading, validating and converting the config.
package config

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/iwvelando/mortgage-forecast/pkg/breakeven"
	"github.com/iwvelando/mortgage-forecast/pkg/constants"
	"github.com/iwvelando/mortgage-forecast/pkg/datetime"
	"github.com/iwvelando/mortgage-forecast/pkg/overpayment"
	"github.com/iwvelando/mortgage-forecast/pkg/rates"
	"github.com/iwvelando/mortgage-forecast/pkg/validation"
	"github.com/spf13/viper"
)

// DateTimeLayout is the format expected in config files and is also the output
// date format.
const DateTimeLayout = constants.DateTimeLayout

// Configuration holds all configuration for mortgage-forecast. RateCatalog is
// the "catalog" section of the file.
type Configuration struct {
	Logging     LoggingConfig   `yaml:"logging,omitempty"`
	Output      OutputConfig    `yaml:"output,omitempty"`
	RateCatalog CatalogConfig   `mapstructure:"catalog" yaml:"catalog"`
	Scenarios   []Scenario      `yaml:"scenarios" validate:"dive"`
	Aprc        []AprcCase      `yaml:"aprc,omitempty" validate:"dive"`
	Breakeven   BreakevenConfig `yaml:"breakeven,omitempty"`
}

// LoggingConfig holds logging configuration options
type LoggingConfig struct {
	Level      string `yaml:"level,omitempty" validate:"omitempty,oneof=debug info warn warning error"`
	Format     string `yaml:"format,omitempty" validate:"omitempty,oneof=json console"`
	OutputFile string `yaml:"outputFile,omitempty"` // optional file output
}

// OutputConfig holds output format configuration options
type OutputConfig struct {
	Format string `yaml:"format,omitempty"` // pretty, csv, json
}

// CatalogConfig is the shared rate catalog every scenario resolves against.
type CatalogConfig struct {
	Lenders  []rates.Lender       `yaml:"lenders" validate:"dive"`
	Policies []overpayment.Policy `yaml:"policies,omitempty" validate:"dive"`
	Rates    []rates.MortgageRate `yaml:"rates" validate:"dive"`
}

// Scenario holds one mortgage and its rate timeline.
type Scenario struct {
	Name           string                `yaml:"name" validate:"required"`
	Active         bool                  `yaml:"active"`
	Mortgage       MortgageConfig        `yaml:"mortgage"`
	CustomRates    []rates.MortgageRate  `yaml:"customRates,omitempty" validate:"dive"`
	RatePeriods    []rates.RatePeriod    `yaml:"ratePeriods" validate:"dive"`
	Overpayments   []OverpaymentConfig   `yaml:"overpayments,omitempty" validate:"dive"`
	SelfBuild      *SelfBuildConfig      `yaml:"selfBuild,omitempty"`
	RepeatingRates *RepeatingRatesConfig `yaml:"repeatingRates,omitempty"`
}

// MortgageConfig describes the loan. Amounts are euros. Either TermMonths or
// TermYears must be set; TermMonths wins when both are.
type MortgageConfig struct {
	Amount        float64 `yaml:"amount" validate:"gt=0"`
	PropertyValue float64 `yaml:"propertyValue" validate:"gte=0"`
	TermMonths    int     `yaml:"termMonths,omitempty" validate:"required_without=TermYears,gte=0"`
	TermYears     int     `yaml:"termYears,omitempty" validate:"gte=0"`
	StartDate     string  `yaml:"startDate,omitempty"`
	Ber           string  `yaml:"ber,omitempty"`
}

// OverpaymentConfig is an overpayment with its amount in euros. Enabled
// defaults to true when omitted.
type OverpaymentConfig struct {
	ID           string  `yaml:"id" validate:"required"`
	RatePeriodID string  `yaml:"ratePeriodId,omitempty"`
	Type         string  `yaml:"type" validate:"oneof=one_time recurring"`
	Frequency    string  `yaml:"frequency,omitempty" validate:"omitempty,oneof=monthly quarterly yearly"`
	Amount       float64 `yaml:"amount" validate:"gt=0"`
	StartMonth   int     `yaml:"startMonth" validate:"gte=1"`
	EndMonth     *int    `yaml:"endMonth,omitempty"`
	Effect       string  `yaml:"effect,omitempty" validate:"omitempty,oneof=reduce_term reduce_payment"`
	Enabled      *bool   `yaml:"enabled,omitempty"`
}

// SelfBuildConfig is a self-build drawdown schedule with amounts in euros.
type SelfBuildConfig struct {
	Enabled                   bool                  `yaml:"enabled"`
	InterestOnlyMonths        int                   `yaml:"interestOnlyMonths" validate:"gte=0"`
	ConstructionRepaymentType string                `yaml:"constructionRepaymentType,omitempty" validate:"omitempty,oneof=interest_only interest_and_capital"`
	DrawdownStages            []DrawdownStageConfig `yaml:"drawdownStages" validate:"dive"`
}

// DrawdownStageConfig is one release of funds, in euros.
type DrawdownStageConfig struct {
	ID     string  `yaml:"id" validate:"required"`
	Month  int     `yaml:"month" validate:"gte=1"`
	Amount float64 `yaml:"amount" validate:"gt=0"`
	Label  string  `yaml:"label,omitempty"`
}

// RepeatingRatesConfig extends a scenario's timeline by renewing a fixed rate
// after the configured periods run out.
type RepeatingRatesConfig struct {
	RateID         string `yaml:"rateId" validate:"required"`
	LenderID       string `yaml:"lenderId,omitempty"`
	IsCustom       bool   `yaml:"isCustom,omitempty"`
	IncludeBuffers bool   `yaml:"includeBuffers"`
}

// AprcCase is one APRC calculation. When ObservedAprc is set and
// FollowOnRate is not, the follow-on rate is inferred first.
type AprcCase struct {
	Name               string   `yaml:"name" validate:"required"`
	FixedRate          float64  `yaml:"fixedRate" validate:"gte=0"`
	FixedTermYears     int      `yaml:"fixedTermYears" validate:"gte=0"`
	FollowOnRate       float64  `yaml:"followOnRate,omitempty" validate:"gte=0"`
	ObservedAprc       *float64 `yaml:"observedAprc,omitempty"`
	LoanAmount         float64  `yaml:"loanAmount" validate:"gt=0"`
	TermMonths         int      `yaml:"termMonths" validate:"gt=0"`
	ValuationFee       float64  `yaml:"valuationFee" validate:"gte=0"`
	SecurityReleaseFee float64  `yaml:"securityReleaseFee" validate:"gte=0"`
}

// BreakevenConfig holds the optional standalone breakeven analyses.
type BreakevenConfig struct {
	RentVsBuy  *breakeven.RentVsBuyInput  `yaml:"rentVsBuy,omitempty"`
	Remortgage *breakeven.RemortgageInput `yaml:"remortgage,omitempty"`
	Cashback   *breakeven.CashbackInput   `yaml:"cashback,omitempty"`
}

// LoadConfiguration takes a file path as input and loads the YAML-formatted
// configuration there.
func LoadConfiguration(configPath string) (*Configuration, error) {
	v := viper.New()
	v.SetConfigFile(configPath)
	v.AutomaticEnv()

	v.SetConfigType("yml")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file, %w", err)
	}

	return decode(v)
}

// LoadConfigurationFromReader loads a configuration of the given type
// (yaml or json) from a reader.
func LoadConfigurationFromReader(r io.Reader, configType string) (*Configuration, error) {
	v := viper.New()
	v.SetConfigType(configType)

	if err := v.ReadConfig(r); err != nil {
		return nil, fmt.Errorf("error reading config, %w", err)
	}

	return decode(v)
}

func decode(v *viper.Viper) (*Configuration, error) {
	var configuration Configuration
	if err := v.Unmarshal(&configuration); err != nil {
		return nil, fmt.Errorf("unable to decode into struct, %w", err)
	}
	return &configuration, nil
}

// Validate checks struct constraints and start dates. All violations are
// reported in a single error.
func (c *Configuration) Validate() error {
	problems, err := structProblems(c)
	if err != nil {
		return err
	}

	for _, scenario := range c.Scenarios {
		if _, err := datetime.ParseStartDate(scenario.Mortgage.StartDate); err != nil {
			problems = append(problems, fmt.Sprintf("scenario %s: %v", scenario.Name, err))
		}
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return nil
}

// ValidateInput checks the validate tags of a standalone analysis input such
// as an APRC case or a breakeven request.
func ValidateInput(input interface{}) error {
	problems, err := structProblems(input)
	if err != nil {
		return err
	}
	if len(problems) > 0 {
		return fmt.Errorf("invalid input: %s", strings.Join(problems, "; "))
	}
	return nil
}

func structProblems(v interface{}) ([]string, error) {
	var problems []string
	if err := newValidator().Struct(v); err != nil {
		var validationErrors validator.ValidationErrors
		if !errors.As(err, &validationErrors) {
			return nil, err
		}
		for _, e := range validationErrors {
			problems = append(problems, describe(e))
		}
	}
	return problems, nil
}

// ValidateConfiguration performs general validation of the configuration and returns warnings
func (c *Configuration) ValidateConfiguration() []string {
	var warnings []string
	var scenarios []validation.ScenarioConfig
	for _, scenario := range c.Scenarios {
		state, err := scenario.ToSimulationState()
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("Scenario '%s' cannot be simulated: %v", scenario.Name, err))
			continue
		}
		scenarios = append(scenarios, validation.ScenarioConfig{
			Name:        scenario.Name,
			Active:      scenario.Active,
			State:       state,
			CustomRates: scenario.CustomRates,
			Repeating:   scenario.RepeatingRates != nil,
		})
	}

	cv := validation.ConfigValidator{
		Catalog:   c.Catalog(),
		Scenarios: scenarios,
	}
	return append(warnings, cv.ValidateAll()...)
}

func newValidator() *validator.Validate {
	validate := validator.New()
	validate.RegisterStructValidation(validateRate, rates.MortgageRate{})
	validate.RegisterStructValidation(validateRatePeriod, rates.RatePeriod{})
	validate.RegisterStructValidation(validatePolicy, overpayment.Policy{})
	validate.RegisterStructValidation(validateLender, rates.Lender{})
	return validate
}

func validateRate(sl validator.StructLevel) {
	rate := sl.Current().Interface().(rates.MortgageRate)
	if rate.ID == "" {
		sl.ReportError(rate.ID, "id", "ID", "required", "")
	}
	switch rate.Type {
	case rates.RateTypeFixed:
		if rate.FixedTerm <= 0 {
			sl.ReportError(rate.FixedTerm, "fixedTerm", "FixedTerm", "gt", "0")
		}
	case rates.RateTypeVariable:
	default:
		sl.ReportError(rate.Type, "type", "Type", "oneof", "fixed variable")
	}
	if rate.Rate < 0 {
		sl.ReportError(rate.Rate, "rate", "Rate", "gte", "0")
	}
	if rate.MaxLTV < rate.MinLTV {
		sl.ReportError(rate.MaxLTV, "maxLtv", "MaxLTV", "gtefield", "MinLTV")
	}
}

func validateRatePeriod(sl validator.StructLevel) {
	period := sl.Current().Interface().(rates.RatePeriod)
	if period.ID == "" {
		sl.ReportError(period.ID, "id", "ID", "required", "")
	}
	if period.RateID == "" {
		sl.ReportError(period.RateID, "rateId", "RateID", "required", "")
	}
	if period.DurationMonths < 0 {
		sl.ReportError(period.DurationMonths, "durationMonths", "DurationMonths", "gte", "0")
	}
}

func validatePolicy(sl validator.StructLevel) {
	policy := sl.Current().Interface().(overpayment.Policy)
	if policy.ID == "" {
		sl.ReportError(policy.ID, "id", "ID", "required", "")
	}
	switch policy.AllowanceType {
	case overpayment.AllowancePercentage, overpayment.AllowanceFlat:
	default:
		sl.ReportError(policy.AllowanceType, "allowanceType", "AllowanceType", "oneof", "percentage flat")
	}
	if policy.AllowanceValue < 0 {
		sl.ReportError(policy.AllowanceValue, "allowanceValue", "AllowanceValue", "gte", "0")
	}
}

func validateLender(sl validator.StructLevel) {
	lender := sl.Current().Interface().(rates.Lender)
	if lender.ID == "" {
		sl.ReportError(lender.ID, "id", "ID", "required", "")
	}
}

func describe(e validator.FieldError) string {
	if e.Param() != "" {
		return fmt.Sprintf("%s: %s=%s", e.Namespace(), e.Tag(), e.Param())
	}
	return fmt.Sprintf("%s: %s", e.Namespace(), e.Tag())
}
