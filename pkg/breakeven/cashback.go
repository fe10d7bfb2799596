package breakeven

import (
	"math"

	"github.com/iwvelando/mortgage-forecast/pkg/constants"
	"github.com/iwvelando/mortgage-forecast/pkg/loans"
	"github.com/iwvelando/mortgage-forecast/pkg/mathutil"
)

// CashbackOption is one offer in a cashback comparison.
type CashbackOption struct {
	Label           string  `json:"label" yaml:"label" validate:"required"`
	Rate            float64 `json:"rate" yaml:"rate" validate:"gte=0"`
	FixedTermYears  int     `json:"fixedTermYears" yaml:"fixedTermYears" validate:"gte=0"` // 0 for variable
	FollowOnRate    float64 `json:"followOnRate,omitempty" yaml:"followOnRate,omitempty" validate:"gte=0"`
	CashbackPercent float64 `json:"cashbackPercent" yaml:"cashbackPercent" validate:"gte=0"`
	CashbackCap     float64 `json:"cashbackCap,omitempty" yaml:"cashbackCap,omitempty" validate:"gte=0"` // 0 for uncapped
}

// CashbackInput is a set of offers for the same mortgage.
type CashbackInput struct {
	MortgageAmount float64          `json:"mortgageAmount" yaml:"mortgageAmount" validate:"gt=0"`
	TermMonths     int              `json:"termMonths" yaml:"termMonths" validate:"gt=0"`
	Options        []CashbackOption `json:"options" yaml:"options" validate:"min=1,dive"`
}

// CashbackOptionResult is the cost of one offer over the comparison period.
type CashbackOptionResult struct {
	Label          string  `json:"label"`
	MonthlyPayment float64 `json:"monthlyPayment"`
	Cashback       float64 `json:"cashback"`
	InterestPaid   float64 `json:"interestPaid"`
	NetCost        float64 `json:"netCost"`
	EndBalance     float64 `json:"endBalance"`
}

// PairwiseSaving compares two offers. Positive differences favour B. The
// breakeven month is the first month the offer with the larger cashback
// stops being cheaper.
type PairwiseSaving struct {
	OptionA                  string  `json:"optionA"`
	OptionB                  string  `json:"optionB"`
	MonthlyPaymentDifference float64 `json:"monthlyPaymentDifference"`
	NetCostDifference        float64 `json:"netCostDifference"`
	BreakevenMonth           *int    `json:"breakevenMonth"`
	BreakevenYears           Years   `json:"breakevenYears"`
}

// CashbackSnapshot holds every option's cumulative net cost at month end,
// indexed like the input options.
type CashbackSnapshot struct {
	Month    int       `json:"month"`
	Year     int       `json:"year"`
	NetCosts []float64 `json:"netCosts"`
	Balances []float64 `json:"balances"`
}

// CashbackResult ranks the offers.
type CashbackResult struct {
	ComparisonMonths    int                    `json:"comparisonMonths"`
	Options             []CashbackOptionResult `json:"options"`
	LowestMonthlyOption string                 `json:"lowestMonthlyOption"`
	LowestNetCostOption string                 `json:"lowestNetCostOption"`
	Pairwise            []PairwiseSaving       `json:"pairwise"`
	YearlySnapshots     []CashbackSnapshot     `json:"yearlySnapshots"`
	MonthlyDetail       []CashbackSnapshot     `json:"monthlyDetail"`
}

// ComparisonMonths returns the shared comparison horizon: the longest fixed
// term among the options, or the full term when every option is variable.
func ComparisonMonths(in CashbackInput) int {
	longest := 0
	for _, option := range in.Options {
		if months := option.FixedTermYears * constants.MonthsPerYear; months > longest {
			longest = months
		}
	}
	if longest == 0 || longest > in.TermMonths {
		return in.TermMonths
	}
	return longest
}

// CashbackAmount returns the option's cashback, capped when a cap is set.
func CashbackAmount(option CashbackOption, mortgageAmount float64) float64 {
	cashback := mathutil.ApplyPercentage(mortgageAmount, option.CashbackPercent)
	if option.CashbackCap > 0 && cashback > option.CashbackCap {
		cashback = option.CashbackCap
	}
	return cashback
}

type cashbackTrack struct {
	balance  float64
	payment  float64
	rate     float64
	interest float64
	cashback float64
	switchAt int
	followOn float64
}

// CompareCashbackOptions simulates every option over the comparison period.
// Options whose fixed term ends earlier roll onto their follow-on rate (or
// keep their rate when none is given) with the payment recomputed over the
// rest of the term.
func CompareCashbackOptions(in CashbackInput) CashbackResult {
	result := CashbackResult{
		Options:         []CashbackOptionResult{},
		Pairwise:        []PairwiseSaving{},
		YearlySnapshots: []CashbackSnapshot{},
		MonthlyDetail:   []CashbackSnapshot{},
	}
	if in.MortgageAmount <= 0 || in.TermMonths <= 0 || len(in.Options) == 0 {
		return result
	}
	horizon := ComparisonMonths(in)
	result.ComparisonMonths = horizon

	tracks := make([]cashbackTrack, len(in.Options))
	for i, option := range in.Options {
		followOn := option.FollowOnRate
		if followOn <= 0 {
			followOn = option.Rate
		}
		tracks[i] = cashbackTrack{
			balance:  in.MortgageAmount,
			payment:  loans.CalculateMonthlyPayment(in.MortgageAmount, option.Rate, in.TermMonths),
			rate:     option.Rate,
			cashback: CashbackAmount(option, in.MortgageAmount),
			switchAt: option.FixedTermYears * constants.MonthsPerYear,
			followOn: followOn,
		}
	}

	// history[m][i] is option i's cumulative net cost after month m+1.
	history := make([][]float64, 0, horizon)
	for month := 1; month <= horizon; month++ {
		netCosts := make([]float64, len(tracks))
		balances := make([]float64, len(tracks))
		for i := range tracks {
			tr := &tracks[i]
			if tr.switchAt > 0 && month == tr.switchAt+1 && tr.followOn != tr.rate {
				tr.rate = tr.followOn
				tr.payment = loans.CalculateMonthlyPayment(tr.balance, tr.rate, in.TermMonths-month+1)
			}
			var interest float64
			tr.balance, interest = amortize(tr.balance, tr.rate, tr.payment)
			tr.interest += interest
			netCosts[i] = tr.interest - tr.cashback
			balances[i] = tr.balance
		}
		history = append(history, netCosts)

		snapshot := CashbackSnapshot{
			Month:    month,
			Year:     (month-1)/constants.MonthsPerYear + 1,
			NetCosts: roundAll(netCosts),
			Balances: roundAll(balances),
		}
		if month <= constants.MonthlyDetailMonths {
			result.MonthlyDetail = append(result.MonthlyDetail, snapshot)
		}
		if isYearEnd(month, horizon) {
			result.YearlySnapshots = append(result.YearlySnapshots, snapshot)
		}
	}

	lowestMonthly, lowestNet := math.Inf(1), math.Inf(1)
	for i, option := range in.Options {
		initialPayment := loans.CalculateMonthlyPayment(in.MortgageAmount, option.Rate, in.TermMonths)
		optionResult := CashbackOptionResult{
			Label:          option.Label,
			MonthlyPayment: mathutil.Round(initialPayment),
			Cashback:       mathutil.Round(tracks[i].cashback),
			InterestPaid:   mathutil.Round(tracks[i].interest),
			NetCost:        mathutil.Round(tracks[i].interest - tracks[i].cashback),
			EndBalance:     mathutil.Round(tracks[i].balance),
		}
		result.Options = append(result.Options, optionResult)

		if initialPayment < lowestMonthly {
			lowestMonthly = initialPayment
			result.LowestMonthlyOption = option.Label
		}
		if net := tracks[i].interest - tracks[i].cashback; net < lowestNet {
			lowestNet = net
			result.LowestNetCostOption = option.Label
		}
	}

	for a := 0; a < len(in.Options); a++ {
		for b := a + 1; b < len(in.Options); b++ {
			pair := PairwiseSaving{
				OptionA:                  in.Options[a].Label,
				OptionB:                  in.Options[b].Label,
				MonthlyPaymentDifference: mathutil.Round(result.Options[a].MonthlyPayment - result.Options[b].MonthlyPayment),
				NetCostDifference:        mathutil.Round(result.Options[a].NetCost - result.Options[b].NetCost),
			}
			pair.BreakevenMonth = cashbackBreakeven(history, a, b, tracks[a].cashback, tracks[b].cashback)
			pair.BreakevenYears = yearsFor(pair.BreakevenMonth)
			result.Pairwise = append(result.Pairwise, pair)
		}
	}
	return result
}

// cashbackBreakeven returns the first month the option with the larger
// cashback costs more than the other, nil when it never does or when the
// cashbacks are equal.
func cashbackBreakeven(history [][]float64, a, b int, cashbackA, cashbackB float64) *int {
	high, low := a, b
	switch {
	case cashbackB > cashbackA:
		high, low = b, a
	case cashbackA == cashbackB:
		return nil
	}
	for m, netCosts := range history {
		if netCosts[high] > netCosts[low] {
			return monthPtr(m + 1)
		}
	}
	return nil
}

func roundAll(values []float64) []float64 {
	rounded := make([]float64, len(values))
	for i, v := range values {
		rounded[i] = mathutil.Round(v)
	}
	return rounded
}
