package interest_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/interest-engine/generic"
	"github.com/warp/interest-engine/interest"
)

// =============================================================================
// NORMALIZATION TESTS
// =============================================================================

func TestNormalize_MergesSameKey(t *testing.T) {
	// GIVEN: Two payments with identical (date, kind, description)
	// WHEN: Normalizing
	// THEN: One event carrying the summed amount

	ledger := interest.Normalize([]interest.LedgerEvent{
		payment("2024-07-01", "100", "acconto"),
		payment("2024-07-01", "50", "acconto"),
	})

	events := ledger.On(date("2024-07-01"))
	require.Len(t, events, 1)
	assertDecimal(t, "150", events[0].Amount)
	assert.Equal(t, 1, ledger.Len())
}

func TestNormalize_DifferentDescriptionNotMerged(t *testing.T) {
	ledger := interest.Normalize([]interest.LedgerEvent{
		payment("2024-07-01", "100", "acconto"),
		payment("2024-07-01", "50", "saldo parziale"),
	})

	assert.Equal(t, 2, ledger.Len())
}

func TestNormalize_DifferentKindNotMerged(t *testing.T) {
	ledger := interest.Normalize([]interest.LedgerEvent{
		payment("2024-07-01", "100", "fattura 12"),
		credit("2024-07-01", "100", "fattura 12"),
	})

	assert.Equal(t, 2, ledger.Len())
}

func TestNormalize_DiscardsInvalidEvents(t *testing.T) {
	ledger := interest.Normalize([]interest.LedgerEvent{
		payment("2024-07-01", "0", "zero"),
		payment("2024-07-01", "-10", "negative"),
		{Kind: interest.EventPayment, Amount: dec("10"), Description: "no date"},
		{Kind: "refund", Date: date("2024-07-01"), Amount: dec("10"), Description: "unknown kind"},
		payment("2024-08-01", "10", "valid"),
	})

	assert.Equal(t, 1, ledger.Len())
	require.Len(t, ledger.Dates(), 1)
	assert.Equal(t, "2024-08-01", ledger.Dates()[0].String())
}

func TestNormalize_CreditsBeforePaymentsOnSameDay(t *testing.T) {
	// GIVEN: A payment listed before a credit on the same day
	// THEN: The credit is applied first

	ledger := interest.Normalize([]interest.LedgerEvent{
		payment("2024-07-01", "300", "a"),
		credit("2024-07-01", "1000", "z"),
	})

	events := ledger.On(date("2024-07-01"))
	require.Len(t, events, 2)
	assert.Equal(t, interest.EventCredit, events[0].Kind)
	assert.Equal(t, interest.EventPayment, events[1].Kind)
}

func TestNormalize_DatesAscending(t *testing.T) {
	ledger := interest.Normalize([]interest.LedgerEvent{
		payment("2024-09-01", "10", "c"),
		payment("2024-01-15", "10", "a"),
		credit("2024-05-01", "10", "b"),
	})

	dates := ledger.Dates()
	require.Len(t, dates, 3)
	assert.Equal(t, "2024-01-15", dates[0].String())
	assert.Equal(t, "2024-05-01", dates[1].String())
	assert.Equal(t, "2024-09-01", dates[2].String())

	events := ledger.Events()
	require.Len(t, events, 3)
	assert.Equal(t, "a", events[0].Description)
	assert.Equal(t, "c", events[2].Description)
}

func TestLedger_Within_DropsOutsideHorizon(t *testing.T) {
	ledger := interest.Normalize([]interest.LedgerEvent{
		payment("2023-12-31", "10", "before"),
		payment("2024-01-01", "10", "on start"),
		payment("2024-12-31", "10", "on end"),
		payment("2025-01-01", "10", "after"),
	})

	within := ledger.Within(generic.Period{Start: date("2024-01-01"), End: date("2024-12-31")})

	assert.Equal(t, 2, within.Len())
	assert.Empty(t, within.On(date("2023-12-31")))
	assert.Len(t, within.On(date("2024-12-31")), 1)
}

func TestNormalize_Empty(t *testing.T) {
	ledger := interest.Normalize(nil)

	assert.Equal(t, 0, ledger.Len())
	assert.Empty(t, ledger.Dates())
	assert.Empty(t, ledger.On(date("2024-01-01")))
}
