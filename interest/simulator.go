package interest

import (
	"github.com/shopspring/decimal"
	"github.com/warp/interest-engine/generic"
	"go.uber.org/zap"
)

// DayCountBase turns "percentage × days" into an amount: rates are annual
// percentages over a 365-day year, so the divisor is 365 × 100.
var DayCountBase = decimal.NewFromInt(36500)

// =============================================================================
// SIMULATOR - Walks checkpoints, accrues interest, applies events
// =============================================================================

// Simulator runs one accrual walk. Build a fresh one per calculation.
//
// PER CHECKPOINT c (after the first):
//  1. Accrue principal × rate × days / 36500 since the cursor; cursor = c
//  2. Re-rate: the rate for c applies from c onwards
//  3. Apply c's events, credits then payments
//
// Events dated on the first checkpoint are applied before the walk starts,
// with nothing accrued yet.
type Simulator struct {
	Rates  RateSource
	Ledger *Ledger

	// ApplyAllocationRule makes payments settle accrued interest first.
	ApplyAllocationRule bool

	Logger *zap.Logger
}

// Simulation is the raw outcome of a run, before rounding.
type Simulation struct {
	State       State
	RateAtStart decimal.Decimal
	Segments    []Segment
	Allocations []Allocation
}

// Run walks checkpoints, which must be ascending with the calculation start
// first (see Schedule). Any rate lookup failure aborts the run.
func (s *Simulator) Run(principal decimal.Decimal, checkpoints []generic.TimePoint) (*Simulation, error) {
	if len(checkpoints) < 2 {
		return nil, ErrInvalidRange
	}
	logger := s.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	ledger := s.Ledger
	if ledger == nil {
		ledger = Normalize(nil)
	}

	start := checkpoints[0]
	rate, err := s.Rates.RateOn(start)
	if err != nil {
		return nil, err
	}

	sim := &Simulation{
		RateAtStart: rate,
		State: State{
			Cursor:                   start,
			ResidualPrincipal:        principal,
			AccruedUnsettledInterest: decimal.Zero,
			TotalInterestAccrued:     decimal.Zero,
			TotalPayments:            decimal.Zero,
			TotalAdditionalCredits:   decimal.Zero,
			CurrentRate:              rate,
			PrincipalRepaid:          decimal.Zero,
			InterestRepaid:           decimal.Zero,
		},
	}
	s.applyEvents(sim, ledger.On(start))

	for _, c := range checkpoints[1:] {
		s.accrue(sim, c, logger)

		rate, err := s.Rates.RateOn(c)
		if err != nil {
			return nil, err
		}
		sim.State.CurrentRate = rate

		s.applyEvents(sim, ledger.On(c))
	}

	return sim, nil
}

func (s *Simulator) accrue(sim *Simulation, to generic.TimePoint, logger *zap.Logger) {
	st := &sim.State
	days := generic.DaysBetween(st.Cursor, to)
	if days > 0 {
		amount := st.ResidualPrincipal.
			Mul(st.CurrentRate).
			Mul(decimal.NewFromInt(int64(days))).
			Div(DayCountBase)

		st.TotalInterestAccrued = st.TotalInterestAccrued.Add(amount)
		st.AccruedUnsettledInterest = st.AccruedUnsettledInterest.Add(amount)

		sim.Segments = append(sim.Segments, Segment{
			From:      st.Cursor,
			To:        to,
			Days:      days,
			Rate:      st.CurrentRate,
			Principal: st.ResidualPrincipal,
			Interest:  amount,
		})
		logger.Debug("accrued segment",
			zap.Stringer("from", st.Cursor),
			zap.Stringer("to", to),
			zap.Int("days", days),
			zap.Stringer("rate", st.CurrentRate),
			zap.Stringer("interest", amount),
		)
	}
	st.Cursor = to
}

func (s *Simulator) applyEvents(sim *Simulation, events []LedgerEvent) {
	for _, e := range events {
		alloc := Allocation{
			Date:        e.Date,
			Kind:        e.Kind,
			Description: e.Description,
			Amount:      e.Amount,
			ToInterest:  decimal.Zero,
			ToPrincipal: decimal.Zero,
		}
		switch e.Kind {
		case EventCredit:
			sim.State.ResidualPrincipal = sim.State.ResidualPrincipal.Add(e.Amount)
			sim.State.TotalAdditionalCredits = sim.State.TotalAdditionalCredits.Add(e.Amount)
		case EventPayment:
			alloc.ToInterest, alloc.ToPrincipal = s.allocatePayment(&sim.State, e.Amount)
		}
		sim.Allocations = append(sim.Allocations, alloc)
	}
}

// allocatePayment applies a payment to st and reports how much went to
// interest and how much actually reduced principal.
func (s *Simulator) allocatePayment(st *State, amount decimal.Decimal) (toInterest, toPrincipal decimal.Decimal) {
	st.TotalPayments = st.TotalPayments.Add(amount)

	toPrincipalRequested := amount
	toInterest = decimal.Zero
	if s.ApplyAllocationRule {
		if st.AccruedUnsettledInterest.GreaterThanOrEqual(amount) {
			st.AccruedUnsettledInterest = st.AccruedUnsettledInterest.Sub(amount)
			st.InterestRepaid = st.InterestRepaid.Add(amount)
			return amount, decimal.Zero
		}
		toInterest = st.AccruedUnsettledInterest
		toPrincipalRequested = amount.Sub(toInterest)
		st.AccruedUnsettledInterest = decimal.Zero
		st.InterestRepaid = st.InterestRepaid.Add(toInterest)
	}

	// Principal never goes below zero; any excess is not carried as a credit.
	toPrincipal = decimal.Min(toPrincipalRequested, st.ResidualPrincipal)
	st.ResidualPrincipal = generic.ClampZero(st.ResidualPrincipal.Sub(toPrincipalRequested))
	st.PrincipalRepaid = st.PrincipalRepaid.Add(toPrincipal)
	return toInterest, toPrincipal
}
