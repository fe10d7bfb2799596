package selfbuild

// MonthState is what the amortization loop needs to know about a month.
type MonthState struct {
	Phase        Phase
	Drawdown     int64 // cents added to the balance before interest accrues
	InterestOnly bool
	// Recalculate asks for the scheduled payment to be recomputed against the
	// current balance, after a capital-repaying drawdown or when the
	// mortgage leaves interest-only.
	Recalculate bool
}

// Strategy supplies per-month balance behaviour to the simulator. Standard
// mortgages use a strategy with no drawdowns and full amortization.
type Strategy interface {
	// OpeningBalance returns the balance at month 1.
	OpeningBalance(mortgageAmount int64) int64
	// Month returns the state of the given 1-based month.
	Month(month int) MonthState
	// ConstructionEndMonth returns the final drawdown month, 0 when there is
	// no construction phase.
	ConstructionEndMonth() int
	// InterestOnlyEndMonth returns the last interest-only month, 0 if none.
	InterestOnlyEndMonth() int
	// Active reports whether the strategy models a self-build mortgage.
	Active() bool
}

// NewStrategy returns the strategy for a possibly nil config. Stage months
// are aligned so the first drawdown opens the mortgage in month 1.
func NewStrategy(cfg *Config) Strategy {
	if !cfg.IsActive() {
		return standardStrategy{}
	}
	return stagedStrategy{cfg: AlignToFirstDrawdown(*cfg)}
}

type standardStrategy struct{}

func (standardStrategy) OpeningBalance(mortgageAmount int64) int64 { return mortgageAmount }
func (standardStrategy) Month(int) MonthState { return MonthState{} }
func (standardStrategy) ConstructionEndMonth() int { return 0 }
func (standardStrategy) InterestOnlyEndMonth() int { return 0 }
func (standardStrategy) Active() bool { return false }

type stagedStrategy struct {
	cfg Config
}

func (s stagedStrategy) OpeningBalance(int64) int64 {
	return InitialBalance(s.cfg)
}

func (s stagedStrategy) Month(month int) MonthState {
	state := MonthState{
		Phase:        DeterminePhase(month, s.cfg),
		Drawdown:     DrawdownForMonth(month, s.cfg),
		InterestOnly: IsInterestOnlyMonth(month, s.cfg),
	}
	if state.InterestOnly {
		return state
	}
	if state.Drawdown > 0 {
		state.Recalculate = true
	}
	if month > 1 && IsInterestOnlyMonth(month-1, s.cfg) {
		state.Recalculate = true
	}
	return state
}

func (s stagedStrategy) ConstructionEndMonth() int {
	return FinalDrawdownMonth(s.cfg)
}

func (s stagedStrategy) InterestOnlyEndMonth() int {
	if s.cfg.ConstructionRepaymentType == RepaymentInterestAndCapital && s.cfg.InterestOnlyMonths == 0 {
		return 0
	}
	return InterestOnlyEndMonth(s.cfg)
}

func (s stagedStrategy) Active() bool { return true }
