package amortization

import (
	"fmt"
	"sort"
	"time"

	"github.com/iwvelando/mortgage-forecast/pkg/constants"
	"github.com/iwvelando/mortgage-forecast/pkg/datetime"
	"github.com/iwvelando/mortgage-forecast/pkg/rates"
	"github.com/iwvelando/mortgage-forecast/pkg/selfbuild"
)

// AggregateByYear groups months into mortgage-relative years, or calendar
// years when startDate is given.
func AggregateByYear(months []Month, startDate *time.Time) []YearSummary {
	var years []YearSummary
	for _, m := range months {
		year := datetime.MortgageYear(m.Month)
		label := fmt.Sprintf("Year %d", year)
		if startDate != nil {
			year = datetime.CalendarYear(*startDate, m.Month)
			label = fmt.Sprintf("%d", year)
		}

		if len(years) == 0 || years[len(years)-1].Year != year {
			years = append(years, YearSummary{
				Year:           year,
				Label:          label,
				StartMonth:     m.Month,
				OpeningBalance: m.OpeningBalance,
			})
		}
		current := &years[len(years)-1]
		current.EndMonth = m.Month
		current.ClosingBalance = m.ClosingBalance
		current.Interest += m.InterestPortion
		current.Principal += m.PrincipalPortion
		current.Overpayments += m.Overpayment
		current.TotalPaid += m.TotalPayment
		current.Drawdowns += m.DrawdownThisMonth
	}
	return years
}

// Baseline is the outcome of the same mortgage without overpayments.
type Baseline struct {
	Interest   int64
	TermMonths int
}

// CalculateSummary totals a schedule. Savings against the baseline are only
// reported when the schedule reaches a zero balance, and months saved are
// measured against the baseline's own length.
func CalculateSummary(months []Month, baseline Baseline) Summary {
	if len(months) == 0 {
		return Summary{}
	}
	last := months[len(months)-1]
	summary := Summary{
		TotalInterest:    last.CumulativeInterest,
		TotalPaid:        last.CumulativeTotal,
		ActualTermMonths: len(months),
		PaidOff:          last.ClosingBalance == 0,
	}
	if summary.PaidOff {
		if saved := baseline.Interest - summary.TotalInterest; saved > 0 {
			summary.InterestSaved = saved
		}
		if saved := baseline.TermMonths - summary.ActualTermMonths; saved > 0 {
			summary.MonthsSaved = saved
		}
	}
	return summary
}

// CalculateBaselineInterest re-runs the simulation with the same timeline and
// self-build config but no overpayments, and returns its total interest.
func CalculateBaselineInterest(state SimulationState, catalog Catalog) int64 {
	return CalculateBaseline(state, catalog).Interest
}

// CalculateBaseline re-runs the simulation without overpayments and returns
// its total interest and length.
func CalculateBaseline(state SimulationState, catalog Catalog) Baseline {
	baseline := state
	baseline.Overpayments = nil
	return baselineOf(Simulate(baseline, catalog).Months)
}

// CalculateBaselineResolved is CalculateBaseline for an already resolved
// timeline.
func CalculateBaselineResolved(state SimulationState, periods []rates.ResolvedRatePeriod, catalog Catalog) Baseline {
	baseline := state
	baseline.Overpayments = nil
	return baselineOf(NewSimulator(nil).SimulateResolved(baseline, periods, catalog).Months)
}

func baselineOf(months []Month) Baseline {
	if len(months) == 0 {
		return Baseline{}
	}
	return Baseline{
		Interest:   months[len(months)-1].CumulativeInterest,
		TermMonths: len(months),
	}
}

// CalculateMilestones scans the schedule for first-crossing events.
func CalculateMilestones(months []Month, input Input, selfBuild *selfbuild.Config) []Milestone {
	if len(months) == 0 || input.MortgageAmount <= 0 {
		return []Milestone{}
	}

	dateOf := func(month int) string {
		if input.StartDate == nil {
			return ""
		}
		return datetime.FormatMonth(input.StartDate, month)
	}
	milestones := []Milestone{{
		Type:  MilestoneMortgageStart,
		Month: months[0].Month,
		Date:  dateOf(months[0].Month),
		Value: float64(input.MortgageAmount),
		Label: "Mortgage start",
	}}
	add := func(kind MilestoneType, m Month, value float64, label string) {
		milestones = append(milestones, Milestone{Type: kind, Month: m.Month, Date: dateOf(m.Month), Value: value, Label: label})
	}

	selfBuildActive := selfBuild.IsActive()
	constructionEnd := selfbuild.NewStrategy(selfBuild).ConstructionEndMonth()
	startingLTV := rates.CalculateLTV(input.MortgageAmount, input.PropertyValue)
	trackLTV := input.PropertyValue > 0 && startingLTV > constants.MilestoneLTV

	var found25, found50, foundLTV, foundRepayment bool
	for _, m := range months {
		if !found25 && m.CumulativePrincipal*4 >= input.MortgageAmount {
			found25 = true
			add(MilestonePrincipal25Percent, m, float64(m.CumulativePrincipal), "25% of principal repaid")
		}
		if !found50 && m.CumulativePrincipal*2 >= input.MortgageAmount {
			found50 = true
			add(MilestonePrincipal50Percent, m, float64(m.CumulativePrincipal), "50% of principal repaid")
		}
		if trackLTV && !foundLTV && m.Month > constructionEnd {
			if ltv := rates.CalculateLTV(m.ClosingBalance, input.PropertyValue); ltv <= constants.MilestoneLTV {
				foundLTV = true
				add(MilestoneLTV80Percent, m, ltv, "LTV below 80%")
			}
		}
		if selfBuildActive && m.Month == constructionEnd {
			add(MilestoneConstructionComplete, m, float64(m.CumulativeDrawn), "Construction complete")
		}
		if selfBuildActive && !foundRepayment && m.Phase == selfbuild.PhaseRepayment {
			foundRepayment = true
			add(MilestoneFullPaymentsStart, m, float64(m.ScheduledPayment), "Full payments start")
		}
	}

	if last := months[len(months)-1]; last.ClosingBalance == 0 {
		add(MilestoneMortgageComplete, last, float64(last.CumulativeTotal), "Mortgage complete")
	}

	sort.SliceStable(milestones, func(i, j int) bool {
		return milestones[i].Month < milestones[j].Month
	})
	return milestones
}

// CalculateSimulationCompleteness reports whether the schedule reached a
// zero balance and how many months of the term it failed to cover.
func CalculateSimulationCompleteness(months []Month, termMonths int) Completeness {
	if len(months) == 0 {
		return Completeness{MissingMonths: termMonths}
	}
	last := months[len(months)-1]
	completeness := Completeness{
		Complete:        last.ClosingBalance == 0,
		SimulatedMonths: len(months),
		FinalBalance:    last.ClosingBalance,
	}
	if !completeness.Complete && termMonths > last.Month {
		completeness.MissingMonths = termMonths - last.Month
	}
	return completeness
}
