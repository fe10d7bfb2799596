package overpayment

import (
	"time"

	"github.com/iwvelando/mortgage-forecast/pkg/datetime"
)

// TransactionTracker counts overpayment transactions inside one fixed-rate
// period and reports when the policy's limit is exceeded.
type TransactionTracker struct {
	policy    Policy
	startDate *time.Time
	periodID  string
	window    int
	count     int
}

// NewTransactionTracker returns a tracker for the policy. startDate aligns
// yearly resets to calendar years; without it years are mortgage-relative.
func NewTransactionTracker(policy Policy, startDate *time.Time) *TransactionTracker {
	return &TransactionTracker{policy: policy, startDate: startDate, window: -1}
}

// Record counts one transaction in the month and returns true when it takes
// the count past the policy limit. Counts reset when the rate period changes
// and, for yearly limits, when a new year starts.
func (t *TransactionTracker) Record(month int, periodID string) bool {
	if periodID != t.periodID {
		t.periodID = periodID
		t.count = 0
		t.window = -1
	}
	if t.policy.MaxTransactionsPeriod != TransactionsPerFixedPeriod {
		window := t.windowFor(month)
		if window != t.window {
			t.window = window
			t.count = 0
		}
	}

	t.count++
	return t.policy.MaxTransactions != nil && t.count > *t.policy.MaxTransactions
}

// Count returns the transactions recorded in the current window.
func (t *TransactionTracker) Count() int {
	return t.count
}

func (t *TransactionTracker) windowFor(month int) int {
	if t.startDate != nil {
		return datetime.CalendarYear(*t.startDate, month)
	}
	return datetime.MortgageYear(month)
}
