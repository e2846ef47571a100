package interest

import (
	"sort"

	"github.com/warp/interest-engine/generic"
)

// =============================================================================
// CHECKPOINT SCHEDULER
// =============================================================================

// Schedule merges the calculation horizon, the ledger dates and the rate
// boundary dates into one ascending, duplicate-free list of checkpoints.
//
// The result always starts with start and ends with end. Dates outside
// [start, end] are ignored. Fails with a RangeError when end <= start.
func Schedule(start, end generic.TimePoint, ledgerDates, rateBoundaries []generic.TimePoint) ([]generic.TimePoint, error) {
	if !end.After(start) {
		return nil, &RangeError{Start: start, End: end}
	}

	horizon := generic.Period{Start: start, End: end}
	seen := map[string]bool{start.String(): true, end.String(): true}
	checkpoints := []generic.TimePoint{start, end}

	for _, group := range [][]generic.TimePoint{ledgerDates, rateBoundaries} {
		for _, d := range group {
			if !horizon.Contains(d) || seen[d.String()] {
				continue
			}
			seen[d.String()] = true
			checkpoints = append(checkpoints, d)
		}
	}

	sort.Slice(checkpoints, func(i, j int) bool {
		return checkpoints[i].Before(checkpoints[j])
	})
	return checkpoints, nil
}
