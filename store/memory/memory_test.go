package memory_test

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/interest-engine/generic"
	"github.com/warp/interest-engine/interest"
	"github.com/warp/interest-engine/store/memory"
)

func rate(cat interest.Category, pct, from string) interest.RateRecord {
	return interest.RateRecord{
		ID:         string(cat) + "-" + from,
		Category:   cat,
		Percentage: decimal.RequireFromString(pct),
		ValidFrom:  generic.MustParseDate(from),
	}
}

func TestStore_SaveKeepsOrder(t *testing.T) {
	ctx := context.Background()
	s := memory.New()

	require.NoError(t, s.SaveRate(ctx, rate(interest.CategoryLegale, "2", "2025-01-01")))
	require.NoError(t, s.SaveRate(ctx, rate(interest.CategoryLegale, "5", "2023-01-01")))
	require.NoError(t, s.SaveRate(ctx, rate(interest.CategoryLegale, "2.5", "2024-01-01")))
	require.NoError(t, s.SaveRate(ctx, rate(interest.CategoryMoratorio, "12", "2024-01-01")))

	legale, err := s.ListRates(ctx, interest.CategoryLegale)
	require.NoError(t, err)
	require.Len(t, legale, 3)
	assert.Equal(t, "2023-01-01", legale[0].ValidFrom.String())
	assert.Equal(t, "2024-01-01", legale[1].ValidFrom.String())
	assert.Equal(t, "2025-01-01", legale[2].ValidFrom.String())

	all, err := s.ListRates(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 4)
}

func TestStore_RejectsDuplicateStart(t *testing.T) {
	ctx := context.Background()
	s := memory.New()

	require.NoError(t, s.SaveRate(ctx, rate(interest.CategoryLegale, "2", "2025-01-01")))
	err := s.SaveRate(ctx, rate(interest.CategoryLegale, "3", "2025-01-01"))
	assert.ErrorIs(t, err, interest.ErrOverlappingRates)

	// Same date in another category is fine
	assert.NoError(t, s.SaveRate(ctx, rate(interest.CategoryMoratorio, "10", "2025-01-01")))
}

func TestStore_SaveRatesIsAtomic(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	require.NoError(t, s.SaveRate(ctx, rate(interest.CategoryLegale, "2", "2025-01-01")))

	err := s.SaveRates(ctx, []interest.RateRecord{
		rate(interest.CategoryLegale, "5", "2023-01-01"),
		rate(interest.CategoryLegale, "2", "2025-01-01"),
	})
	assert.ErrorIs(t, err, interest.ErrOverlappingRates)

	legale, _ := s.ListRates(ctx, interest.CategoryLegale)
	assert.Len(t, legale, 1, "failed batch must not leave partial writes")
}

func TestStore_ListReturnsCopy(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	require.NoError(t, s.SaveRate(ctx, rate(interest.CategoryLegale, "2", "2025-01-01")))

	got, _ := s.ListRates(ctx, interest.CategoryLegale)
	got[0].Percentage = decimal.NewFromInt(99)

	again, _ := s.ListRates(ctx, interest.CategoryLegale)
	assert.Equal(t, "2", again[0].Percentage.String())
}

func TestStore_AddRate(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	require.NoError(t, s.AddRate(ctx, rate(interest.CategoryLegale, "2.5", "2024-01-01")))

	// WHEN: a closed window inside the open-ended one
	inner := rate(interest.CategoryLegale, "3", "2024-06-01")
	end := generic.MustParseDate("2024-06-30")
	inner.ValidTo = &end
	err := s.AddRate(ctx, inner)

	// THEN: rejected, nothing written
	var overlap *interest.OverlapError
	require.ErrorAs(t, err, &overlap)
	legale, err := s.ListRates(ctx, interest.CategoryLegale)
	require.NoError(t, err)
	assert.Len(t, legale, 1)

	// Other categories are checked on their own
	assert.NoError(t, s.AddRate(ctx, rate(interest.CategoryMoratorio, "12", "2024-01-01")))
}

func TestStore_ConcurrentAddRateKeepsTimelineValid(t *testing.T) {
	ctx := context.Background()
	s := memory.New()

	// GIVEN: open-ended windows that overlap each other pairwise
	var wg sync.WaitGroup
	var added atomic.Int32
	for month := 1; month <= 8; month++ {
		wg.Add(1)
		go func(month int) {
			defer wg.Done()
			if s.AddRate(ctx, rate(interest.CategoryLegale, "3", fmt.Sprintf("2030-%02d-01", month))) == nil {
				added.Add(1)
			}
		}(month)
	}
	wg.Wait()

	// THEN: exactly one got in and the store still loads
	assert.Equal(t, int32(1), added.Load())
	_, err := interest.LoadTimeline(ctx, s)
	assert.NoError(t, err)
}
