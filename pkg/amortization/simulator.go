package amortization

import (
	"fmt"

	"github.com/iwvelando/mortgage-forecast/pkg/datetime"
	"github.com/iwvelando/mortgage-forecast/pkg/loans"
	"github.com/iwvelando/mortgage-forecast/pkg/mathutil"
	"github.com/iwvelando/mortgage-forecast/pkg/overpayment"
	"github.com/iwvelando/mortgage-forecast/pkg/rates"
	"github.com/iwvelando/mortgage-forecast/pkg/selfbuild"
	"go.uber.org/zap"
)

// Simulator runs amortization simulations. It holds no state between runs;
// the logger only traces decisions at debug level.
type Simulator struct {
	logger *zap.Logger
}

// NewSimulator creates a new simulator instance.
func NewSimulator(logger *zap.Logger) *Simulator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Simulator{logger: logger}
}

// Simulate runs a simulation without logging.
func Simulate(state SimulationState, catalog Catalog) Result {
	return NewSimulator(nil).Simulate(state, catalog)
}

// Simulate resolves the state's rate periods against the catalog and runs
// the month-by-month loop.
func (s *Simulator) Simulate(state SimulationState, catalog Catalog) Result {
	if len(state.RatePeriods) == 0 {
		return emptyResult()
	}
	periods := rates.ResolveRatePeriods(state.RatePeriods, catalog.Rates, catalog.CustomRates, catalog.Lenders)
	return s.SimulateResolved(state, periods, catalog)
}

func emptyResult() Result {
	return Result{Months: []Month{}, Warnings: []Warning{}}
}

// allowanceWindow is the running fee-free allowance state of a fixed period.
type allowanceWindow struct {
	periodID string
	endMonth int
	base     int64
}

// SimulateResolved runs the loop over already resolved periods. The
// schedule stops when the balance reaches zero, the term ends, or a month is
// not covered by any period.
func (s *Simulator) SimulateResolved(state SimulationState, periods []rates.ResolvedRatePeriod, catalog Catalog) Result {
	in := state.Input
	if in.MortgageAmount <= 0 || in.TermMonths <= 0 || len(periods) == 0 {
		return emptyResult()
	}

	strategy := selfbuild.NewStrategy(state.SelfBuild)
	total := in.TermMonths
	horizonEnd := total
	balance := strategy.OpeningBalance(in.MortgageAmount)

	result := Result{
		Months:   make([]Month, 0, total),
		Warnings: []Warning{},
	}

	var (
		payment            int64
		currentPeriodID    string
		recalcNextMonth    bool
		cumulativeInterest int64
		cumulativePrinc    int64
		cumulativeOver     int64
		cumulativeDrawn    = balance
		window             allowanceWindow
	)
	trackers := make(map[string]*overpayment.TransactionTracker)

	for month := 1; month <= total && balance > 0; month++ {
		period, ok := rates.FindPeriodForMonth(periods, month, total)
		if !ok {
			s.logger.Debug(fmt.Sprintf("month %d is not covered by any rate period, stopping simulation", month),
				zap.String("op", "amortization.Simulate"),
			)
			break
		}

		ms := strategy.Month(month)
		opening := balance
		if ms.Drawdown > 0 {
			balance += ms.Drawdown
			cumulativeDrawn += ms.Drawdown
			s.logger.Debug(fmt.Sprintf("month %d: drawing down %d cents, balance now %d", month, ms.Drawdown, balance),
				zap.String("op", "amortization.Simulate"),
			)
		}

		rate := period.Rate.Rate
		rateChanged := period.ID != currentPeriodID
		if rateChanged {
			s.logger.Debug(fmt.Sprintf("month %d: entering rate period %s at %.2f%%", month, period.ID, rate),
				zap.String("op", "amortization.Simulate"),
			)
			currentPeriodID = period.ID
		}

		remaining := horizonEnd - month + 1
		if remaining < 1 {
			remaining = 1
		}
		if ms.InterestOnly {
			payment = selfbuild.InterestOnlyPayment(balance, rate)
		} else if rateChanged || ms.Recalculate || recalcNextMonth || payment == 0 {
			payment = mathutil.RoundCents(loans.CalculateMonthlyPayment(float64(balance), rate, remaining))
			s.logger.Debug(fmt.Sprintf("month %d: payment set to %d cents over %d months", month, payment, remaining),
				zap.String("op", "amortization.Simulate"),
			)
		}
		recalcNextMonth = false

		interest := mathutil.RoundCents(loans.CalculateInterestPayment(float64(balance), rate))
		var principal int64
		if !ms.InterestOnly {
			principal = payment - interest
			if principal < 0 {
				principal = 0
			}
			if principal > balance || month >= horizonEnd {
				principal = balance
			}
		}

		// Overpayments
		policy, hasPolicy := catalog.PolicyForLender(period.LenderID)
		restricted := hasPolicy && period.Rate.IsFixed()
		if restricted && (window.periodID != period.ID || month > window.endMonth) {
			window = allowanceWindow{
				periodID: period.ID,
				endMonth: overpayment.AllowanceWindowEnd(month, in.StartDate),
				base:     balance,
			}
		}
		if restricted && ms.Drawdown > 0 && balance > window.base {
			window.base = balance
		}

		var (
			over          int64
			reducePayment bool
			lastConfigID  string
			warnedMonth   bool
		)
		available := balance - principal
		for _, cfg := range state.Overpayments {
			if !cfg.AppliesToPeriod(period.ID) {
				continue
			}
			amount := cfg.AmountForMonth(month)
			if amount <= 0 || available-over <= 0 {
				continue
			}
			amount = mathutil.MinInt64(amount, available-over)
			over += amount
			lastConfigID = cfg.ID
			if cfg.Effect == overpayment.EffectReducePayment {
				reducePayment = true
			}

			if !restricted {
				continue
			}
			allowance := overpayment.CalculateMaxMonthlyOverpayment(policy, window.base, payment)
			if !warnedMonth && over > allowance {
				warnedMonth = true
				result.Warnings = append(result.Warnings, Warning{
					Type:     WarningAllowanceExceeded,
					Month:    month,
					ConfigID: cfg.ID,
					Message: fmt.Sprintf("overpayments of %d cents exceed the fee-free allowance of %d cents",
						over, allowance),
				})
			}
			if policy.MaxTransactions != nil {
				tracker, exists := trackers[period.ID]
				if !exists {
					tracker = overpayment.NewTransactionTracker(policy, in.StartDate)
					trackers[period.ID] = tracker
				}
				if tracker.Record(month, period.ID) {
					result.Warnings = append(result.Warnings, Warning{
						Type:     WarningTransactionLimitExceeded,
						Month:    month,
						ConfigID: cfg.ID,
						Message: fmt.Sprintf("transaction %d exceeds the limit of %d per %s",
							tracker.Count(), *policy.MaxTransactions, transactionPeriodLabel(policy)),
					})
				}
			}
		}

		closing := balance - principal - over
		if closing < 0 {
			closing = 0
		}

		cumulativeInterest += interest
		cumulativePrinc += principal + over
		cumulativeOver += over

		row := Month{
			Month:                  month,
			OpeningBalance:         opening,
			ClosingBalance:         closing,
			ScheduledPayment:       interest + principal,
			InterestPortion:        interest,
			PrincipalPortion:       principal,
			Overpayment:            over,
			TotalPayment:           interest + principal + over,
			Rate:                   rate,
			RatePeriodID:           period.ID,
			RateType:               period.Rate.Type,
			CumulativeInterest:     cumulativeInterest,
			CumulativePrincipal:    cumulativePrinc,
			CumulativeOverpayments: cumulativeOver,
			CumulativeTotal:        cumulativeInterest + cumulativePrinc,
		}
		if in.StartDate != nil {
			row.Date = datetime.FormatMonth(in.StartDate, month)
		}
		if strategy.Active() {
			row.Phase = ms.Phase
			row.IsInterestOnly = ms.InterestOnly
			row.DrawdownThisMonth = ms.Drawdown
			row.CumulativeDrawn = cumulativeDrawn
		}
		result.Months = append(result.Months, row)
		balance = closing

		if over > 0 && closing > 0 {
			if reducePayment {
				recalcNextMonth = true
			} else if !ms.InterestOnly {
				if n := loans.CalculateRemainingTermMonths(float64(closing), rate, float64(payment)); n > 0 && month+n < horizonEnd {
					horizonEnd = month + n
					s.logger.Debug(fmt.Sprintf("month %d: overpayment shortens the term to month %d", month, horizonEnd),
						zap.String("op", "amortization.Simulate"),
					)
				}
			}
		}

		if closing == 0 && month < total && period.Rate.IsFixed() && month < period.CommittedEndMonth(total) {
			result.Warnings = append(result.Warnings, Warning{
				Type:     WarningEarlyRedemption,
				Month:    month,
				ConfigID: lastConfigID,
				Message: fmt.Sprintf("mortgage is redeemed during fixed period %s, which runs to month %d",
					period.ID, period.CommittedEndMonth(total)),
			})
		}
	}

	for _, w := range result.Warnings {
		s.logger.Debug(fmt.Sprintf("month %d: %s %s", w.Month, w.Type, w.Message),
			zap.String("op", "amortization.Simulate"),
			zap.String("configId", w.ConfigID),
		)
	}
	return result
}

func transactionPeriodLabel(policy overpayment.Policy) string {
	if policy.MaxTransactionsPeriod == overpayment.TransactionsPerFixedPeriod {
		return "fixed period"
	}
	return "year"
}
