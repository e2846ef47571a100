package interest_test

import (
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/warp/interest-engine/generic"
	"github.com/warp/interest-engine/interest"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func date(s string) generic.TimePoint {
	return generic.MustParseDate(s)
}

func datePtr(s string) *generic.TimePoint {
	d := date(s)
	return &d
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// assertDecimal compares by value so "2.5" and "2.50" are equal.
func assertDecimal(t *testing.T, expected string, actual decimal.Decimal, msgAndArgs ...any) {
	t.Helper()
	if !dec(expected).Equal(actual) {
		assert.Fail(t, fmt.Sprintf("expected %s, got %s", expected, actual), msgAndArgs...)
	}
}

func legale(pct, from string, to *generic.TimePoint) interest.RateRecord {
	return interest.RateRecord{Category: interest.CategoryLegale, Percentage: dec(pct), ValidFrom: date(from), ValidTo: to}
}

func moratorio(pct, from string, to *generic.TimePoint) interest.RateRecord {
	return interest.RateRecord{Category: interest.CategoryMoratorio, Percentage: dec(pct), ValidFrom: date(from), ValidTo: to}
}

func payment(on, amount, description string) interest.LedgerEvent {
	return interest.LedgerEvent{Kind: interest.EventPayment, Date: date(on), Amount: dec(amount), Description: description}
}

func credit(on, amount, description string) interest.LedgerEvent {
	return interest.LedgerEvent{Kind: interest.EventCredit, Date: date(on), Amount: dec(amount), Description: description}
}

func mustTimeline(t *testing.T, records ...interest.RateRecord) *interest.RateTimeline {
	t.Helper()
	tl, err := interest.NewRateTimeline(records)
	if err != nil {
		t.Fatalf("unexpected timeline error: %v", err)
	}
	return tl
}

// timeline2024 has a single statutory rate of 2.5% covering 2024.
func timeline2024(t *testing.T) *interest.RateTimeline {
	return mustTimeline(t, legale("2.5", "2024-01-01", datePtr("2024-12-31")))
}
