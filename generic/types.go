/*
Package generic provides the domain-agnostic building blocks of the engine.

PURPOSE:
  The interest engine deals in two things only: calendar dates and exact
  decimal quantities. This package holds both, so the interest package can
  stay focused on rates, ledgers and allocation.

KEY CONCEPTS:
  - TimePoint: A calendar date (time.go)
  - Period / Window: Closed horizons and open-ended validity ranges (period.go)
  - Decimal helpers: Rounding and parsing for money and percentages (this file)

DESIGN PRINCIPLES:
  1. Precision: Uses decimal.Decimal to avoid floating-point drift
  2. Day granularity: Dates never carry a clock component
  3. No domain knowledge: Nothing here knows what a rate or a payment is

SEE ALSO:
  - interest/types.go: Domain types built on these primitives
*/
package generic

import (
	"github.com/shopspring/decimal"
)

// =============================================================================
// DECIMAL HELPERS
// =============================================================================

// OutputPlaces is the number of decimals every money or percentage figure is
// reported with.
const OutputPlaces = 2

// Money rounds to two places, half away from zero.
func Money(d decimal.Decimal) decimal.Decimal {
	return d.Round(OutputPlaces)
}

// ClampZero returns d, or zero when d is negative.
func ClampZero(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}
