package interest

import (
	"fmt"

	"github.com/warp/interest-engine/generic"
	"go.uber.org/zap"
)

// =============================================================================
// CALCULATOR - Validation and orchestration
// =============================================================================

// Calculator validates an Input and runs the engine against a rate timeline.
// It holds no per-calculation state and is safe for concurrent use.
type Calculator struct {
	Timeline *RateTimeline

	// MaxEvents caps the number of raw events accepted. Zero means no cap.
	MaxEvents int

	Logger *zap.Logger
}

// NewCalculator creates a calculator. A nil logger disables logging.
func NewCalculator(timeline *RateTimeline, logger *zap.Logger) *Calculator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Calculator{Timeline: timeline, Logger: logger}
}

// Calculate runs one calculation. Validation failures and missing rates are
// returned before any partial result is produced.
func (c *Calculator) Calculate(in Input) (*Result, error) {
	logger := c.logger()

	if err := c.Validate(in); err != nil {
		return nil, err
	}

	rates := c.source(in)

	// The start rate must resolve before walking.
	if _, err := rates.RateOn(in.Start); err != nil {
		return nil, err
	}

	ledger := Normalize(in.Events).Within(in.Period())
	boundaries := rates.BoundaryDates(in.Start, in.End)

	checkpoints, err := Schedule(in.Start, in.End, ledger.Dates(), boundaries)
	if err != nil {
		return nil, err
	}

	sim := &Simulator{
		Rates:               rates,
		Ledger:              ledger,
		ApplyAllocationRule: !in.DisableAllocationRule,
		Logger:              logger,
	}
	run, err := sim.Run(in.Principal, checkpoints)
	if err != nil {
		logger.Info("calculation aborted",
			zap.String("category", string(in.Category)),
			zap.Error(err),
		)
		return nil, err
	}

	result := newResult(run)
	logger.Info("calculation complete",
		zap.String("category", string(in.Category)),
		zap.Stringer("period", in.Period()),
		zap.Int("checkpoints", len(checkpoints)),
		zap.Int("events", ledger.Len()),
		zap.Stringer("total_interest", result.TotalInterest),
	)
	return result, nil
}

// Validate checks an Input without touching the rate timeline.
func (c *Calculator) Validate(in Input) error {
	if !in.Principal.IsPositive() {
		return &ValidationError{Field: "principal", Reason: "must be greater than zero"}
	}
	if in.Start.IsZero() {
		return &ValidationError{Field: "start", Reason: "is required"}
	}
	if in.End.IsZero() {
		return &ValidationError{Field: "end", Reason: "is required"}
	}
	if !in.End.After(in.Start) {
		return &RangeError{Start: in.Start, End: in.End}
	}
	if !in.Category.Valid() {
		return &ValidationError{Field: "category", Reason: fmt.Sprintf("%q is not one of legale, moratorio, fisso", in.Category), Err: ErrUnknownCategory}
	}

	switch in.Category {
	case CategoryFisso:
		if !in.FixedRate.IsPositive() {
			return &ValidationError{Field: "fixed_rate", Reason: "must be greater than zero for a fixed-rate calculation"}
		}
	case CategoryMoratorio:
		if err := in.Adjustment.Validate(); err != nil {
			return err
		}
	}

	if c.MaxEvents > 0 && len(in.Events) > c.MaxEvents {
		return &ValidationError{Field: "events", Reason: fmt.Sprintf("at most %d events are allowed, got %d", c.MaxEvents, len(in.Events))}
	}
	return nil
}

func (c *Calculator) source(in Input) RateSource {
	if in.Category == CategoryFisso {
		return FixedRate{Percentage: in.FixedRate}
	}
	return c.Timeline.Source(in.Category, in.Adjustment)
}

func (c *Calculator) logger() *zap.Logger {
	if c.Logger == nil {
		return zap.NewNop()
	}
	return c.Logger
}

func newResult(run *Simulation) *Result {
	st := run.State
	return &Result{
		TotalInterest:          generic.Money(st.TotalInterestAccrued),
		ResidualInterest:       generic.Money(st.AccruedUnsettledInterest),
		ResidualPrincipal:      generic.Money(st.ResidualPrincipal),
		TotalPayments:          generic.Money(st.TotalPayments),
		TotalAdditionalCredits: generic.Money(st.TotalAdditionalCredits),
		RateAtStart:            generic.Money(run.RateAtStart),
		PrincipalRepaid:        generic.Money(st.PrincipalRepaid),
		InterestRepaid:         generic.Money(st.InterestRepaid),
		TotalDue:               generic.Money(st.ResidualPrincipal.Add(st.AccruedUnsettledInterest)),
		Segments:               run.Segments,
		Allocations:            run.Allocations,
	}
}
