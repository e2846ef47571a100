package interest

import (
	"sort"

	"github.com/warp/interest-engine/generic"
)

// =============================================================================
// LEDGER - Normalized, date-indexed credits and payments
// =============================================================================

// Ledger holds the events of one calculation after normalization.
//
// ORDERING:
//   Within a date, credits come before payments, so a same-day payment is
//   allocated against the balance that already includes the same-day credit.
//   Events of the same kind are ordered by description.
type Ledger struct {
	dates  []generic.TimePoint
	byDate map[string][]LedgerEvent
}

type eventKey struct {
	date        string
	kind        EventKind
	description string
}

// Normalize builds a Ledger from raw events:
//  1. events with a zero date, an unknown kind or a non-positive amount are dropped
//  2. events sharing (date, kind, description) are merged, amounts summed
//  3. each date's events are ordered credits first
func Normalize(events []LedgerEvent) *Ledger {
	merged := make(map[eventKey]LedgerEvent)
	for _, e := range events {
		if !e.Admissible() {
			continue
		}
		k := eventKey{date: e.Date.String(), kind: e.Kind, description: e.Description}
		if existing, ok := merged[k]; ok {
			existing.Amount = existing.Amount.Add(e.Amount)
			merged[k] = existing
			continue
		}
		merged[k] = e
	}

	l := &Ledger{byDate: make(map[string][]LedgerEvent)}
	for k, e := range merged {
		if _, ok := l.byDate[k.date]; !ok {
			l.dates = append(l.dates, e.Date)
		}
		l.byDate[k.date] = append(l.byDate[k.date], e)
	}

	sort.Slice(l.dates, func(i, j int) bool { return l.dates[i].Before(l.dates[j]) })
	for _, es := range l.byDate {
		sort.Slice(es, func(i, j int) bool {
			if es[i].Kind != es[j].Kind {
				return es[i].Kind == EventCredit
			}
			return es[i].Description < es[j].Description
		})
	}
	return l
}

// Dates returns the distinct event dates, ascending.
func (l *Ledger) Dates() []generic.TimePoint {
	out := make([]generic.TimePoint, len(l.dates))
	copy(out, l.dates)
	return out
}

// On returns the ordered events dated date.
func (l *Ledger) On(date generic.TimePoint) []LedgerEvent {
	return l.byDate[date.String()]
}

// Events returns every event, by date then in application order.
func (l *Ledger) Events() []LedgerEvent {
	var out []LedgerEvent
	for _, d := range l.dates {
		out = append(out, l.byDate[d.String()]...)
	}
	return out
}

// Len is the number of events after merging.
func (l *Ledger) Len() int {
	n := 0
	for _, es := range l.byDate {
		n += len(es)
	}
	return n
}

// Within keeps only events dated inside p. Events outside the horizon
// cannot affect the result.
func (l *Ledger) Within(p generic.Period) *Ledger {
	out := &Ledger{byDate: make(map[string][]LedgerEvent)}
	for _, d := range l.dates {
		if !p.Contains(d) {
			continue
		}
		out.dates = append(out.dates, d)
		out.byDate[d.String()] = l.byDate[d.String()]
	}
	return out
}
