package generic

// =============================================================================
// PERIOD - Closed date range [Start, End]
// =============================================================================

// Period is the horizon of a calculation: interest runs from Start to End.
type Period struct {
	Start TimePoint
	End   TimePoint
}

// Contains returns true if the time point is within the period [Start, End]
func (p Period) Contains(t TimePoint) bool {
	return t.AfterOrEqual(p.Start) && t.BeforeOrEqual(p.End)
}

// Days is the number of calendar days elapsed from Start to End.
func (p Period) Days() int {
	return DaysBetween(p.Start, p.End)
}

// Validate rejects periods whose End is not strictly after Start.
func (p Period) Validate() error {
	if p.Start.IsZero() || p.End.IsZero() || !p.End.After(p.Start) {
		return ErrInvalidPeriod
	}
	return nil
}

func (p Period) String() string {
	return "[" + p.Start.String() + ", " + p.End.String() + "]"
}

// =============================================================================
// WINDOW - Validity range with an optional open end
// =============================================================================

// Window is a validity range [From, To]. A nil To means the window never
// closes. Both ends are inclusive.
type Window struct {
	From TimePoint
	To   *TimePoint
}

func (w Window) IsOpen() bool { return w.To == nil }

// Covers reports whether t falls inside the window.
func (w Window) Covers(t TimePoint) bool {
	if t.Before(w.From) {
		return false
	}
	return w.To == nil || t.BeforeOrEqual(*w.To)
}

// Overlaps reports whether the two windows share at least one day.
func (w Window) Overlaps(other Window) bool {
	if w.To != nil && w.To.Before(other.From) {
		return false
	}
	if other.To != nil && other.To.Before(w.From) {
		return false
	}
	return true
}

// Validate rejects windows that close before they open.
func (w Window) Validate() error {
	if w.From.IsZero() {
		return ErrInvalidPeriod
	}
	if w.To != nil && w.To.Before(w.From) {
		return ErrInvalidPeriod
	}
	return nil
}

func (w Window) String() string {
	if w.To == nil {
		return "[" + w.From.String() + ", open)"
	}
	return "[" + w.From.String() + ", " + w.To.String() + "]"
}
