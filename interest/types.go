/*
Package interest implements interest accrual and payment allocation for
debt-recovery claims.

PURPOSE:
  Given a principal claim, a rate history and an unordered list of extra
  credits and partial payments, compute accrued interest, residual principal
  and residual unpaid interest at a target date. Payments settle accrued
  interest before principal (Art. 1194 c.c.) unless the rule is disabled.

COMPONENTS (leaves first):
  RateTimeline         timeline.go   rate on a date, per category, with adjustments
  Ledger (EventLedger) ledger.go     dedup + per-date ordering of credits/payments
  Schedule             scheduler.go  merged, sorted checkpoint dates
  Simulator            simulator.go  accrual state machine
  Calculator           calculator.go validation and orchestration

FORMULA:
  interest(segment) = principal × rate% × days / 36500

  Simple interest only: accrued interest never joins the principal.

CONCURRENCY:
  A calculation is a pure function of its Input. A RateTimeline is immutable
  once built, so one Calculator can serve concurrent requests.

SEE ALSO:
  - factory/request.go: JSON to Input conversion
  - api/handlers.go: HTTP surface
*/
package interest

import (
	"github.com/shopspring/decimal"
	"github.com/warp/interest-engine/generic"
)

// =============================================================================
// RATE CATEGORIES
// =============================================================================

// Category selects where the interest rate comes from.
type Category string

const (
	CategoryLegale    Category = "legale"    // Statutory rate (art. 1284 c.c.)
	CategoryMoratorio Category = "moratorio" // Late-payment rate (D.Lgs. 231/2002)
	CategoryFisso     Category = "fisso"     // User-supplied fixed rate
)

func (c Category) Valid() bool {
	switch c {
	case CategoryLegale, CategoryMoratorio, CategoryFisso:
		return true
	}
	return false
}

// UsesTimeline is true for categories resolved against rate records.
func (c Category) UsesTimeline() bool {
	return c == CategoryLegale || c == CategoryMoratorio
}

// =============================================================================
// RATE RECORDS
// =============================================================================

// RateRecord is one published rate with its validity window.
type RateRecord struct {
	ID         string
	Category   Category
	Percentage decimal.Decimal
	ValidFrom  generic.TimePoint
	ValidTo    *generic.TimePoint // nil = still in force
	Source     string             // e.g. "DM 29/11/2023", "BCE + 8"
}

func (r RateRecord) Window() generic.Window {
	return generic.Window{From: r.ValidFrom, To: r.ValidTo}
}

// =============================================================================
// MORATORY ADJUSTMENT
// =============================================================================

// MoratoryAdjustment tweaks the published moratory rate for a given claim.
type MoratoryAdjustment struct {
	// PreTransactionDiscount removes one percentage point, for relationships
	// that predate 1 January 2013.
	PreTransactionDiscount bool

	// AgriculturalSurcharge adds SurchargePercent points (2 or 4) for
	// agri-food supply contracts.
	AgriculturalSurcharge bool
	SurchargePercent      int
}

var onePoint = decimal.NewFromInt(1)

// Apply adjusts a raw moratory percentage: discount first, then surcharge.
func (a MoratoryAdjustment) Apply(raw decimal.Decimal) decimal.Decimal {
	rate := raw
	if a.PreTransactionDiscount {
		rate = rate.Sub(onePoint)
	}
	if a.AgriculturalSurcharge {
		rate = rate.Add(decimal.NewFromInt(int64(a.SurchargePercent)))
	}
	return rate
}

func (a MoratoryAdjustment) Validate() error {
	if !a.AgriculturalSurcharge {
		return nil
	}
	if a.SurchargePercent != 2 && a.SurchargePercent != 4 {
		return &ValidationError{Field: "surcharge_percent", Reason: "must be 2 or 4 when the agricultural surcharge applies"}
	}
	return nil
}

// =============================================================================
// LEDGER EVENTS
// =============================================================================

type EventKind string

const (
	EventCredit  EventKind = "credit"  // Additional amount owed, raises principal
	EventPayment EventKind = "payment" // Partial payment by the debtor
)

func (k EventKind) Valid() bool {
	return k == EventCredit || k == EventPayment
}

// LedgerEvent is a dated credit or payment as supplied by the caller.
type LedgerEvent struct {
	Kind        EventKind
	Date        generic.TimePoint
	Amount      decimal.Decimal
	Description string
}

// Admissible reports whether Normalize keeps the event.
func (e LedgerEvent) Admissible() bool {
	return !e.Date.IsZero() && e.Kind.Valid() && e.Amount.IsPositive()
}

// =============================================================================
// SIMULATION STATE & RESULT
// =============================================================================

// State is the mutable state of one simulation run. It is never shared.
type State struct {
	Cursor                   generic.TimePoint
	ResidualPrincipal        decimal.Decimal
	AccruedUnsettledInterest decimal.Decimal
	TotalInterestAccrued     decimal.Decimal
	TotalPayments            decimal.Decimal
	TotalAdditionalCredits   decimal.Decimal
	CurrentRate              decimal.Decimal

	// Where payments went. PrincipalRepaid counts only the reduction actually
	// applied, so an overpayment clamped at zero principal is not included.
	PrincipalRepaid decimal.Decimal
	InterestRepaid  decimal.Decimal
}

// Segment is one accrual stretch between two checkpoints.
type Segment struct {
	From      generic.TimePoint
	To        generic.TimePoint
	Days      int
	Rate      decimal.Decimal
	Principal decimal.Decimal
	Interest  decimal.Decimal
}

// Allocation records how a single ledger event was applied.
type Allocation struct {
	Date        generic.TimePoint
	Kind        EventKind
	Description string
	Amount      decimal.Decimal
	ToInterest  decimal.Decimal
	ToPrincipal decimal.Decimal
}

// Result is the outcome of a calculation. Money and percentage fields are
// rounded to two places; Segments and Allocations keep full precision.
type Result struct {
	TotalInterest          decimal.Decimal
	ResidualInterest       decimal.Decimal
	ResidualPrincipal      decimal.Decimal
	TotalPayments          decimal.Decimal
	TotalAdditionalCredits decimal.Decimal
	RateAtStart            decimal.Decimal

	PrincipalRepaid decimal.Decimal
	InterestRepaid  decimal.Decimal
	TotalDue        decimal.Decimal

	Segments    []Segment
	Allocations []Allocation
}

// =============================================================================
// INPUT
// =============================================================================

// Input is everything a calculation depends on besides the rate timeline.
type Input struct {
	Principal decimal.Decimal
	Start     generic.TimePoint
	End       generic.TimePoint
	Category  Category

	FixedRate  decimal.Decimal    // CategoryFisso only
	Adjustment MoratoryAdjustment // CategoryMoratorio only

	Events []LedgerEvent

	// DisableAllocationRule routes every payment straight to principal. The
	// zero value keeps the interest-first rule on.
	DisableAllocationRule bool
}

func (in Input) Period() generic.Period {
	return generic.Period{Start: in.Start, End: in.End}
}
