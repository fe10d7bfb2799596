package loans

import (
	"math"
	"testing"
)

func TestCalculateMonthlyPayment(t *testing.T) {
	tests := []struct {
		name               string
		principal          float64
		annualInterestRate float64
		termMonths         int
		expectedRange      []float64 // [min, max] expected range
	}{
		{
			name:               "Standard 30-year mortgage",
			principal:          300000,
			annualInterestRate: 3.5,
			termMonths:         360,
			expectedRange:      []float64{1347.10, 1347.16}, // Around 1347.13
		},
		{
			name:               "Short-term loan",
			principal:          20000,
			annualInterestRate: 4.0,
			termMonths:         60,
			expectedRange:      []float64{360, 380}, // Around 368
		},
		{
			name:               "Zero interest loan",
			principal:          10000,
			annualInterestRate: 0.0,
			termMonths:         60,
			expectedRange:      []float64{166.66, 166.67},
		},
		{
			name:               "Zero principal",
			principal:          0,
			annualInterestRate: 5.0,
			termMonths:         60,
			expectedRange:      []float64{0, 0},
		},
		{
			name:               "Zero term",
			principal:          10000,
			annualInterestRate: 5.0,
			termMonths:         0,
			expectedRange:      []float64{0, 0},
		},
		{
			name:               "High interest loan",
			principal:          10000,
			annualInterestRate: 18.0,
			termMonths:         36,
			expectedRange:      []float64{360, 380}, // Around 361.52
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := CalculateMonthlyPayment(tt.principal, tt.annualInterestRate, tt.termMonths)

			if result < tt.expectedRange[0] || result > tt.expectedRange[1] {
				t.Errorf("CalculateMonthlyPayment() = %.2f, expected range [%.2f, %.2f]",
					result, tt.expectedRange[0], tt.expectedRange[1])
			}
		})
	}
}

func TestCalculateMonthlyPaymentZeroRateIsExact(t *testing.T) {
	for _, n := range []int{1, 7, 120, 360} {
		if got := CalculateMonthlyPayment(250000, 0, n); got != 250000/float64(n) {
			t.Errorf("CalculateMonthlyPayment(250000, 0, %d) = %v, expected %v", n, got, 250000/float64(n))
		}
	}
}

func TestCalculateInterestPayment(t *testing.T) {
	tests := []struct {
		name               string
		remainingPrincipal float64
		annualInterestRate float64
		expected           float64
	}{
		{"Standard mortgage interest", 200000, 6.0, 1000.0},
		{"Low rate interest", 15000, 4.5, 56.25},
		{"Zero interest", 10000, 0.0, 0.0},
		{"Very small principal", 100, 6.0, 0.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := CalculateInterestPayment(tt.remainingPrincipal, tt.annualInterestRate)

			if math.Abs(result-tt.expected) > 0.01 {
				t.Errorf("CalculateInterestPayment() = %.2f, expected %.2f", result, tt.expected)
			}
		})
	}
}

func TestCalculateRemainingBalance(t *testing.T) {
	tests := []struct {
		name      string
		principal float64
		rate      float64
		total     int
		paid      int
		expected  float64
		tolerance float64
	}{
		{"Nothing paid", 300000, 3.5, 360, 0, 300000, 1e-9},
		{"Fully paid", 300000, 3.5, 360, 360, 0, 0},
		{"Past the term", 300000, 3.5, 360, 400, 0, 0},
		{"Zero rate is linear", 120000, 0, 120, 30, 90000, 1e-9},
		{"Zero rate halfway", 300000, 0, 360, 180, 150000, 1e-9},
		{"Five years into 30", 300000, 3.5, 360, 60, 269091.22, 0.01},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := CalculateRemainingBalance(tt.principal, tt.rate, tt.total, tt.paid)
			if math.Abs(result-tt.expected) > tt.tolerance {
				t.Errorf("CalculateRemainingBalance() = %.2f, expected %.2f", result, tt.expected)
			}
		})
	}
}

func TestCalculateRemainingBalanceStrictlyDecreasing(t *testing.T) {
	for _, rate := range []float64{0, 1.5, 3.5, 9} {
		previous := CalculateRemainingBalance(200000, rate, 240, 0)
		for k := 1; k <= 240; k++ {
			current := CalculateRemainingBalance(200000, rate, 240, k)
			if current >= previous {
				t.Fatalf("rate %.1f: balance after %d payments (%.4f) not below %.4f", rate, k, current, previous)
			}
			previous = current
		}
	}
}

func TestCalculateFollowOnPayment(t *testing.T) {
	// Same rate before and after the fixed period leaves the payment unchanged.
	base := CalculateMonthlyPayment(300000, 3.5, 360)
	same := CalculateFollowOnPayment(300000, 3.5, 36, 3.5, 360)
	if math.Abs(base-same) > 1e-6 {
		t.Errorf("follow-on payment at same rate = %.4f, expected %.4f", same, base)
	}

	higher := CalculateFollowOnPayment(300000, 3.5, 36, 4.5, 360)
	if higher <= base {
		t.Errorf("follow-on payment at higher rate = %.2f, expected more than %.2f", higher, base)
	}

	if got := CalculateFollowOnPayment(300000, 3.5, 360, 4.5, 360); got != 0 {
		t.Errorf("follow-on payment with no follow-on period = %.2f, expected 0", got)
	}
}

func TestCalculateTotalRepayable(t *testing.T) {
	followOn := 4.0

	total := CalculateTotalRepayable(300000, 3.5, 36, &followOn, 360)
	if total == nil {
		t.Fatalf("CalculateTotalRepayable() = nil, expected a value")
	}
	fixedPart := CalculateMonthlyPayment(300000, 3.5, 360) * 36
	followPart := CalculateFollowOnPayment(300000, 3.5, 36, 4.0, 360) * 324
	if math.Abs(*total-(fixedPart+followPart)) > 1e-6 {
		t.Errorf("CalculateTotalRepayable() = %.2f, expected %.2f", *total, fixedPart+followPart)
	}

	if got := CalculateTotalRepayable(300000, 3.5, 36, nil, 360); got != nil {
		t.Errorf("expected nil total without follow-on rate, got %.2f", *got)
	}

	whole := CalculateTotalRepayable(300000, 3.5, 360, nil, 360)
	if whole == nil || math.Abs(*whole-CalculateMonthlyPayment(300000, 3.5, 360)*360) > 1e-6 {
		t.Errorf("single-rate total repayable incorrect: %v", whole)
	}
}

func TestCalculateCostOfCreditPercent(t *testing.T) {
	if got := CalculateCostOfCreditPercent(nil, 300000); got != nil {
		t.Errorf("expected nil cost of credit, got %.2f", *got)
	}

	total := 450000.0
	got := CalculateCostOfCreditPercent(&total, 300000)
	if got == nil || math.Abs(*got-50) > 1e-9 {
		t.Errorf("CalculateCostOfCreditPercent() = %v, expected 50", got)
	}
}

func TestCalculateRemainingTermMonths(t *testing.T) {
	payment := CalculateMonthlyPayment(300000, 3.5, 360)
	if got := CalculateRemainingTermMonths(300000, 3.5, payment); got != 360 {
		t.Errorf("CalculateRemainingTermMonths() = %d, expected 360", got)
	}

	if got := CalculateRemainingTermMonths(12000, 0, 1000); got != 12 {
		t.Errorf("zero-rate remaining term = %d, expected 12", got)
	}

	if got := CalculateRemainingTermMonths(100000, 6, 400); got != -1 {
		t.Errorf("payment below interest should return -1, got %d", got)
	}

	if got := CalculateRemainingTermMonths(0, 3.5, payment); got != 0 {
		t.Errorf("zero balance should need 0 months, got %d", got)
	}
}
