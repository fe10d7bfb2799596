// Package constants provides shared constants for the mortgage-forecast application.
package constants

// DateTimeLayout is the format expected in config files for mortgage start
// dates and is also the output date format.
const DateTimeLayout = "2006-01"

// Financial constants
const (
	// MonthsPerYear is the number of months in a year
	MonthsPerYear = 12

	// DecimalPrecision is the precision for currency rounding (2 decimal places)
	DecimalPrecision = 100

	// CentsPerEuro converts euro amounts into integer cents
	CentsPerEuro = 100

	// PercentageMultiplier is used for percentage conversions
	PercentageMultiplier = 100.0

	// CurrencyTolerance is the tolerance for currency comparisons (1 cent)
	CurrencyTolerance = 0.01

	// DrawdownTolerance is the tolerance, in cents, when comparing drawdown
	// stage totals against the mortgage amount
	DrawdownTolerance = 1.0
)

// Overpayment schedule frequencies, in months.
const (
	// MonthlyFrequency is the interval for monthly recurring overpayments
	MonthlyFrequency = 1

	// QuarterlyFrequency is the interval for quarterly recurring overpayments
	QuarterlyFrequency = 3

	// AnnualFrequency is the interval for yearly recurring overpayments
	AnnualFrequency = 12
)

// Loan-to-value thresholds.
const (
	// MilestoneLTV is the LTV threshold reported by the ltv_80_percent milestone
	MilestoneLTV = 80.0
)

// APRC solver parameters.
const (
	// AprcTolerance is the Newton-Raphson convergence tolerance on the monthly rate
	AprcTolerance = 1e-12

	// AprcMaxIterations caps Newton-Raphson iterations
	AprcMaxIterations = 200

	// AprcDerivativeFloor stops Newton-Raphson when the NPV derivative underflows
	AprcDerivativeFloor = 1e-15

	// FollowOnRateMin is the lower bracket of the follow-on rate bisection
	FollowOnRateMin = 0.01

	// FollowOnRateMax is the upper bracket of the follow-on rate bisection
	FollowOnRateMax = 15.0

	// FollowOnRateTolerance is the bisection bracket width at which the search stops
	FollowOnRateTolerance = 0.001

	// FollowOnRateMaxIterations caps bisection iterations
	FollowOnRateMaxIterations = 100
)

// Breakeven simulator parameters.
const (
	// MonthlyDetailMonths is how many leading months of detail breakeven results carry
	MonthlyDetailMonths = 48
)

// Output format constants
const (
	// OutputFormatPretty is the human-readable output format
	OutputFormatPretty = "pretty"

	// OutputFormatCSV is the CSV output format
	OutputFormatCSV = "csv"

	// OutputFormatJSON is the JSON output format
	OutputFormatJSON = "json"
)

// Configuration file constants
const (
	// DefaultConfigFile is the default configuration file name
	DefaultConfigFile = "config.yaml"

	// ExampleConfigFile is the example configuration file name
	ExampleConfigFile = "config.yaml.example"

	// DefaultServerConfigFile is the default server configuration file name
	DefaultServerConfigFile = "server-config.yaml"
)

// Server configuration defaults
const (
	// DefaultServerAddress is the default HTTP listen address for the API
	DefaultServerAddress = ":8080"

	// DefaultMaxUploadSizeBytes is the default maximum request body size (256 KB)
	DefaultMaxUploadSizeBytes int64 = 256 * 1024

	// DefaultCacheTTLSeconds is how long API responses stay cached
	DefaultCacheTTLSeconds = 300

	// DefaultCacheMaxEntries bounds the in-memory response cache
	DefaultCacheMaxEntries = 1000
)
