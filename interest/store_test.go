package interest_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/interest-engine/interest"
	"github.com/warp/interest-engine/store/memory"
)

func TestSeedIfEmpty_SeedsOnce(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	records := []interest.RateRecord{
		legale("5.0", "2023-01-01", datePtr("2023-12-31")),
		legale("2.5", "2024-01-01", nil),
	}

	// WHEN: seeding an empty store, then seeding again
	seeded, err := interest.SeedIfEmpty(ctx, store, records)
	require.NoError(t, err)
	assert.True(t, seeded)

	seeded, err = interest.SeedIfEmpty(ctx, store, records)
	require.NoError(t, err)
	assert.False(t, seeded, "a populated store is left alone")

	// THEN
	tl, err := interest.LoadTimeline(ctx, store)
	require.NoError(t, err)
	rate, err := tl.Lookup(interest.CategoryLegale, date("2024-06-01"))
	require.NoError(t, err)
	assertDecimal(t, "2.5", rate)
}

func TestSeedIfEmpty_InvalidSeedWritesNothing(t *testing.T) {
	ctx := context.Background()
	store := memory.New()

	_, err := interest.SeedIfEmpty(ctx, store, []interest.RateRecord{
		legale("5.0", "2023-01-01", nil),
		legale("2.5", "2024-01-01", nil),
	})

	assert.ErrorIs(t, err, interest.ErrOverlappingRates)
	all, err := store.ListRates(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestLoadTimeline_EmptyStore(t *testing.T) {
	tl, err := interest.LoadTimeline(context.Background(), memory.New())
	require.NoError(t, err)

	_, err = tl.Lookup(interest.CategoryLegale, date("2024-01-01"))
	assert.ErrorIs(t, err, interest.ErrNoApplicableRate)
}

func TestCheckAddition(t *testing.T) {
	existing := []interest.RateRecord{
		legale("5.0", "2023-01-01", datePtr("2023-12-31")),
		legale("2.5", "2024-01-01", nil),
	}

	assert.NoError(t, interest.CheckAddition(existing, legale("3.0", "2022-01-01", datePtr("2022-12-31"))))
	assert.ErrorIs(t, interest.CheckAddition(existing, legale("3.0", "2030-01-01", nil)), interest.ErrOverlappingRates)
	assert.ErrorIs(t, interest.CheckAddition(existing, legale("3.0", "2024-06-01", datePtr("2024-05-01"))), interest.ErrValidation,
		"inverted window")
}
