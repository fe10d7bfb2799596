package aprc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() Config {
	return Config{
		LoanAmount:         300000,
		TermMonths:         360,
		ValuationFee:       185,
		SecurityReleaseFee: 60,
	}
}

func TestCalculateAprcSingleRate(t *testing.T) {
	cfg := Config{LoanAmount: 300000, TermMonths: 360}

	// Without fees the APRC is the effective annual rate of the nominal rate.
	assert.Equal(t, 3.56, CalculateAprc(3.5, 360, 0, cfg))
	// The follow-on rate is irrelevant when the fixed term covers the loan.
	assert.Equal(t, CalculateAprc(3.5, 360, 0, cfg), CalculateAprc(3.5, 480, 9.0, cfg))
}

func TestCalculateAprcWithFollowOnAndFees(t *testing.T) {
	solution := SolveAprc(3.5, 36, 4.5, testConfig())

	require.True(t, solution.Converged)
	assert.Equal(t, 4.36, solution.Aprc)
	assert.InDelta(t, 4.3601, solution.EffectiveRate, 0.0001)
	assert.LessOrEqual(t, solution.Iterations, 200)
}

func TestCalculateAprcFeesRaiseTheRate(t *testing.T) {
	noFees := Config{LoanAmount: 300000, TermMonths: 360}
	assert.Greater(t, CalculateAprc(3.5, 36, 4.5, testConfig()), CalculateAprc(3.5, 36, 4.5, noFees))
}

func TestCalculateAprcIncreasesWithFollowOnRate(t *testing.T) {
	cfg := Config{LoanAmount: 250000, TermMonths: 300}

	previous := CalculateAprc(4, 60, 0.5, cfg)
	for rate := 1.5; rate <= 10; rate += 1.0 {
		current := CalculateAprc(4, 60, rate, cfg)
		assert.Greater(t, current, previous, "follow-on rate %.1f", rate)
		previous = current
	}
}

func TestCalculateAprcZeroRate(t *testing.T) {
	solution := SolveAprc(0, 360, 0, Config{LoanAmount: 120000, TermMonths: 360})
	assert.True(t, solution.Converged)
	assert.Equal(t, 0.0, solution.Aprc)
}

func TestCalculateAprcDegenerate(t *testing.T) {
	assert.Equal(t, Solution{}, SolveAprc(3.5, 36, 4.5, Config{}))
	assert.Equal(t, 0.0, CalculateAprc(3.5, 36, 4.5, Config{LoanAmount: 100000}))
}

func TestCashFlows(t *testing.T) {
	advanced, flows := CashFlows(3.5, 36, 4.5, testConfig())

	assert.Equal(t, 299815.0, advanced)
	require.Len(t, flows, 360)
	assert.InDelta(t, 1347.13, flows[0], 0.01)
	assert.Equal(t, flows[0], flows[35])
	assert.Greater(t, flows[36], flows[35])
	assert.InDelta(t, flows[36]+60, flows[359], 1e-9)
}

func TestInferFollowOnRateRoundTrip(t *testing.T) {
	cfg := testConfig()
	for _, rate := range []float64{0.5, 1, 2.5, 4, 5, 7.5, 10} {
		observed := CalculateAprc(3.5, 36, rate, cfg)
		inferred := InferFollowOnRate(3.5, 3, observed, cfg)
		assert.InDelta(t, rate, inferred, 0.1, "follow-on rate %.2f (APRC %.2f)", rate, observed)
	}
}

func TestInferFollowOnRateClampsToBracket(t *testing.T) {
	cfg := testConfig()
	assert.InDelta(t, 15.0, InferFollowOnRate(3.5, 3, 99, cfg), 0.01)
	assert.InDelta(t, 0.01, InferFollowOnRate(3.5, 3, -5, cfg), 0.01)
}
