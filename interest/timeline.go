package interest

import (
	"sort"

	"github.com/shopspring/decimal"
	"github.com/warp/interest-engine/generic"
)

// =============================================================================
// RATE TIMELINE - Rate history per category
// =============================================================================

// RateTimeline answers "which rate applies on date D" for the timeline-backed
// categories. It is immutable after NewRateTimeline returns.
//
// INVARIANTS:
//   - Records of one category are sorted by ValidFrom.
//   - Windows of one category never overlap.
//   - Gaps are allowed; looking up a date inside a gap fails.
type RateTimeline struct {
	byCategory map[Category][]RateRecord
}

// NewRateTimeline validates and indexes records. Records of category fisso
// or of an unknown category are rejected.
func NewRateTimeline(records []RateRecord) (*RateTimeline, error) {
	byCategory := make(map[Category][]RateRecord)
	for _, r := range records {
		if !r.Category.UsesTimeline() {
			return nil, &ValidationError{Field: "category", Reason: "rate records must be legale or moratorio", Err: ErrUnknownCategory}
		}
		if err := r.Window().Validate(); err != nil {
			return nil, &ValidationError{Field: "valid_to", Reason: "window " + r.Window().String() + " closes before it opens", Err: err}
		}
		byCategory[r.Category] = append(byCategory[r.Category], r)
	}

	for cat, rs := range byCategory {
		sort.SliceStable(rs, func(i, j int) bool {
			return rs[i].ValidFrom.Before(rs[j].ValidFrom)
		})
		for i := 1; i < len(rs); i++ {
			if rs[i-1].Window().Overlaps(rs[i].Window()) {
				return nil, &OverlapError{Category: cat, First: rs[i-1].Window(), Second: rs[i].Window()}
			}
		}
	}

	return &RateTimeline{byCategory: byCategory}, nil
}

// Lookup returns the published percentage covering date, unadjusted.
func (t *RateTimeline) Lookup(category Category, date generic.TimePoint) (decimal.Decimal, error) {
	if t == nil {
		return decimal.Zero, &NoApplicableRateError{Category: category, Date: date}
	}
	rs := t.byCategory[category]

	// First record starting after date; the candidate is the one before it.
	i := sort.Search(len(rs), func(i int) bool {
		return rs[i].ValidFrom.After(date)
	})
	if i == 0 || !rs[i-1].Window().Covers(date) {
		return decimal.Zero, &NoApplicableRateError{Category: category, Date: date}
	}
	return rs[i-1].Percentage, nil
}

// RateOn returns the effective percentage for date. Moratory rates get adj
// applied to the single looked-up value; legale rates are returned as is.
func (t *RateTimeline) RateOn(category Category, date generic.TimePoint, adj MoratoryAdjustment) (decimal.Decimal, error) {
	raw, err := t.Lookup(category, date)
	if err != nil {
		return decimal.Zero, err
	}
	if category == CategoryMoratorio {
		return adj.Apply(raw), nil
	}
	return raw, nil
}

// BoundaryDates returns the dates strictly inside (from, to) where the rate
// may change, ascending and without duplicates: the ValidFrom of every window
// and the day after every closed window. When the next window does not start
// on that day the date falls in a gap and a lookup there fails.
func (t *RateTimeline) BoundaryDates(category Category, from, to generic.TimePoint) []generic.TimePoint {
	if t == nil {
		return nil
	}
	var dates []generic.TimePoint
	add := func(d generic.TimePoint) {
		if !d.After(from) || !d.Before(to) {
			return
		}
		// Windows are sorted and disjoint, so candidates arrive in order
		if n := len(dates); n > 0 && dates[n-1].Equal(d) {
			return
		}
		dates = append(dates, d)
	}
	for _, r := range t.byCategory[category] {
		add(r.ValidFrom)
		if r.ValidTo != nil {
			add(r.ValidTo.AddDays(1))
		}
	}
	return dates
}

// Records returns a copy of the records of one category, sorted by ValidFrom.
func (t *RateTimeline) Records(category Category) []RateRecord {
	if t == nil {
		return nil
	}
	rs := t.byCategory[category]
	out := make([]RateRecord, len(rs))
	copy(out, rs)
	return out
}

// Source binds the timeline to one category and adjustment.
func (t *RateTimeline) Source(category Category, adj MoratoryAdjustment) RateSource {
	return &timelineSource{timeline: t, category: category, adj: adj}
}

// =============================================================================
// RATE SOURCE - What the simulator asks for rates
// =============================================================================

// RateSource resolves the rate for a single calculation.
type RateSource interface {
	// RateOn returns the percentage applying on date.
	RateOn(date generic.TimePoint) (decimal.Decimal, error)

	// BoundaryDates lists dates strictly inside (from, to) where the rate may change.
	BoundaryDates(from, to generic.TimePoint) []generic.TimePoint
}

type timelineSource struct {
	timeline *RateTimeline
	category Category
	adj      MoratoryAdjustment
}

func (s *timelineSource) RateOn(date generic.TimePoint) (decimal.Decimal, error) {
	return s.timeline.RateOn(s.category, date, s.adj)
}

func (s *timelineSource) BoundaryDates(from, to generic.TimePoint) []generic.TimePoint {
	return s.timeline.BoundaryDates(s.category, from, to)
}

// FixedRate is the source for category fisso: one rate, no boundaries.
type FixedRate struct {
	Percentage decimal.Decimal
}

func (f FixedRate) RateOn(generic.TimePoint) (decimal.Decimal, error) {
	return f.Percentage, nil
}

func (f FixedRate) BoundaryDates(_, _ generic.TimePoint) []generic.TimePoint {
	return nil
}
