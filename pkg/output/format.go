// Package output provides utilities for formatting and displaying projection results.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/iwvelando/mortgage-forecast/internal/projection"
	"github.com/iwvelando/mortgage-forecast/pkg/format"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Report bundles everything a single run produces.
type Report struct {
	Projections []projection.Projection    `json:"projections"`
	Aprc        []projection.AprcResult    `json:"aprc,omitempty"`
	Breakeven   projection.BreakevenResults `json:"breakeven"`
}

// Write renders the report in the requested format: pretty, csv or json.
func Write(w io.Writer, outputFormat string, report Report) error {
	switch outputFormat {
	case "", "pretty":
		PrettyFormat(w, report.Projections)
		PrettyAprc(w, report.Aprc)
		PrettyBreakeven(w, report.Breakeven)
		return nil
	case "csv":
		return CsvFormat(w, report.Projections)
	case "json":
		return JSONFormat(w, report)
	default:
		return fmt.Errorf("unsupported output format %q", outputFormat)
	}
}

// PrettyFormat outputs a human-readable rather than machine-readable table.
func PrettyFormat(w io.Writer, results []projection.Projection) {
	p := message.NewPrinter(language.English)
	for i, result := range results {
		fmt.Fprintf(w, "--- Results for scenario %s ---\n", result.Name)
		for _, period := range result.Periods {
			end := "end"
			if !period.IsUntilEnd() {
				end = fmt.Sprintf("%d", period.EndMonth(result.Input.TermMonths))
			}
			fmt.Fprintf(w, "Rate period %s: months %d-%s at %s (%s)\n",
				period.Label, period.StartMonth, end, format.Percent(period.Rate.Rate), period.Rate.Type)
		}
		fmt.Fprintf(w, "\n")

		fmt.Fprintf(w, "Year    | Opening       | Interest    | Principal     | Overpayments | Closing\n")
		fmt.Fprintf(w, "____    | _____________ | ___________ | _____________ | ____________ | _____________\n")
		for _, year := range result.Years {
			fmt.Fprintf(w, "%-7s | %s | %s | %s | %s | %s\n", year.Label,
				format.Cents(year.OpeningBalance), format.Cents(year.Interest), format.Cents(year.Principal),
				format.Cents(year.Overpayments), format.Cents(year.ClosingBalance))
		}
		fmt.Fprintf(w, "\n")

		summary := result.Summary
		_, _ = p.Fprintf(w, "Total interest: %s over %d months\n", format.Cents(summary.TotalInterest), summary.ActualTermMonths)
		_, _ = p.Fprintf(w, "Total paid: %s\n", format.Cents(summary.TotalPaid))
		if summary.InterestSaved != 0 || summary.MonthsSaved != 0 {
			_, _ = p.Fprintf(w, "Saved by overpaying: %s and %d months\n", format.Cents(summary.InterestSaved), summary.MonthsSaved)
		}
		if !result.Completeness.Complete {
			_, _ = p.Fprintf(w, "Incomplete: %d months are not covered by a rate, %s outstanding\n",
				result.Completeness.MissingMonths, format.Cents(result.Completeness.FinalBalance))
		}

		if len(result.Milestones) > 0 {
			fmt.Fprintf(w, "Milestones:\n")
			for _, milestone := range result.Milestones {
				fmt.Fprintf(w, "  month %d %s: %s\n", milestone.Month, milestone.Date, milestone.Label)
			}
		}
		for _, plans := range result.OverpaymentPlans {
			fmt.Fprintf(w, "Fee-free overpayments during %s:\n", plans.Label)
			for _, plan := range plans.Plans {
				fmt.Fprintf(w, "  months %d-%d: up to %s (%s per month)\n",
					plan.StartMonth, plan.EndMonth, format.Cents(plan.MaxTotalAllowance), format.Cents(plan.MaxMonthlyAllowance))
			}
		}
		for _, buffer := range result.Buffers {
			fmt.Fprintf(w, "Suggestion: %s\n", buffer.Reason)
		}
		for _, warning := range result.Warnings {
			fmt.Fprintf(w, "Warning (month %d): %s\n", warning.Month, warning.Message)
		}
		if i < len(results)-1 {
			fmt.Fprintf(w, "\n")
		}
	}
}

// PrettyAprc outputs the APRC cases as a table.
func PrettyAprc(w io.Writer, results []projection.AprcResult) {
	if len(results) == 0 {
		return
	}
	fmt.Fprintf(w, "\n--- APRC ---\n")
	fmt.Fprintf(w, "Name | Fixed | Term | Follow-on | APRC\n")
	fmt.Fprintf(w, "____ | _____ | ____ | _________ | ____\n")
	for _, result := range results {
		followOn := format.Percent(result.FollowOnRate)
		if result.FollowOnInferred {
			followOn += " (inferred)"
		}
		fmt.Fprintf(w, "%s | %s | %dy | %s | %s\n", result.Name, format.Percent(result.FixedRate),
			result.FixedTermYears, followOn, format.Percent(result.Solution.Aprc))
	}
}

// PrettyBreakeven outputs whichever breakeven analyses ran.
func PrettyBreakeven(w io.Writer, results projection.BreakevenResults) {
	if r := results.RentVsBuy; r != nil {
		fmt.Fprintf(w, "\n--- Rent vs buy ---\n")
		fmt.Fprintf(w, "Monthly mortgage payment: %s\n", format.Euro(r.MonthlyPayment))
		fmt.Fprintf(w, "Upfront costs: %s\n", format.Euro(r.UpfrontCosts))
		fmt.Fprintf(w, "Net worth breakeven: %s\n", format.Years(float64(r.BreakevenYears)))
		fmt.Fprintf(w, "Sale breakeven: %s\n", format.Years(float64(r.SaleBreakevenYears)))
		fmt.Fprintf(w, "Equity breakeven: %s\n", format.Years(float64(r.EquityBreakevenYears)))
		fmt.Fprintf(w, "Final net worth: buyer %s, renter %s\n", format.Euro(r.FinalBuyerNetWorth), format.Euro(r.FinalRenterNetWorth))
	}
	if r := results.Remortgage; r != nil {
		fmt.Fprintf(w, "\n--- Remortgage ---\n")
		fmt.Fprintf(w, "Monthly payment: %s now, %s after switching\n", format.Euro(r.CurrentMonthlyPayment), format.Euro(r.NewMonthlyPayment))
		fmt.Fprintf(w, "Monthly savings: %s\n", format.Euro(r.MonthlySavings))
		fmt.Fprintf(w, "Breakeven: %s\n", format.Years(float64(r.BreakevenYears)))
		fmt.Fprintf(w, "Total savings: %s\n", format.Euro(r.TotalSavings))
	}
	if r := results.Cashback; r != nil {
		fmt.Fprintf(w, "\n--- Cashback comparison over %d months ---\n", r.ComparisonMonths)
		fmt.Fprintf(w, "Option | Monthly | Cashback | Interest | Net cost\n")
		fmt.Fprintf(w, "______ | _______ | ________ | ________ | ________\n")
		for _, option := range r.Options {
			fmt.Fprintf(w, "%s | %s | %s | %s | %s\n", option.Label, format.Euro(option.MonthlyPayment),
				format.Euro(option.Cashback), format.Euro(option.InterestPaid), format.Euro(option.NetCost))
		}
		fmt.Fprintf(w, "Lowest monthly payment: %s\n", r.LowestMonthlyOption)
		fmt.Fprintf(w, "Lowest net cost: %s\n", r.LowestNetCostOption)
		for _, pair := range r.Pairwise {
			fmt.Fprintf(w, "%s vs %s: breakeven %s\n", pair.OptionA, pair.OptionB, format.Years(float64(pair.BreakevenYears)))
		}
	}
}

// CsvFormat outputs the monthly schedules in comma-separated value format,
// one row per scenario month.
func CsvFormat(w io.Writer, results []projection.Projection) error {
	header := []string{"scenario", "month", "date", "rate period", "rate", "opening balance",
		"scheduled payment", "interest", "principal", "overpayment", "closing balance"}
	if _, err := fmt.Fprintf(w, "%s\n", quoteRow(header)); err != nil {
		return err
	}
	for _, result := range results {
		for _, month := range result.Months {
			row := []string{
				result.Name,
				fmt.Sprintf("%d", month.Month),
				month.Date,
				month.RatePeriodID,
				fmt.Sprintf("%.2f", month.Rate),
				centsString(month.OpeningBalance),
				centsString(month.ScheduledPayment),
				centsString(month.InterestPortion),
				centsString(month.PrincipalPortion),
				centsString(month.Overpayment),
				centsString(month.ClosingBalance),
			}
			if _, err := fmt.Fprintf(w, "%s\n", quoteRow(row)); err != nil {
				return err
			}
		}
	}
	return nil
}

// JSONFormat outputs the whole report as indented JSON.
func JSONFormat(w io.Writer, report Report) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(report)
}

func quoteRow(fields []string) string {
	quoted := make([]string, len(fields))
	for i, field := range fields {
		quoted[i] = `"` + strings.ReplaceAll(field, `"`, `""`) + `"`
	}
	return strings.Join(quoted, ",")
}

func centsString(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s%d.%02d", sign, cents/100, cents%100)
}
