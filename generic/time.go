package generic

import (
	"encoding/json"
	"fmt"
	"time"

	"cloud.google.com/go/civil"
)

// =============================================================================
// TIME POINT - Calendar date used for accrual checkpoints and rate windows
// =============================================================================

// TimePoint is a calendar date. Interest accrues per calendar day, so the
// time-of-day and location of the underlying time.Time are never significant:
// every constructor normalizes to midnight UTC.
type TimePoint struct {
	Time time.Time
}

// Constructors
func NewTimePoint(year int, month time.Month, day int) TimePoint {
	return TimePoint{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// FromTime drops the clock part of t, keeping the date as seen in t's location.
func FromTime(t time.Time) TimePoint {
	return NewTimePoint(t.Year(), t.Month(), t.Day())
}

func FromCivil(d civil.Date) TimePoint {
	return NewTimePoint(d.Year, d.Month, d.Day)
}

// ParseDate parses an ISO date ("2024-01-31"). RFC 3339 timestamps are
// accepted too and truncated to their date.
func ParseDate(s string) (TimePoint, error) {
	if d, err := civil.ParseDate(s); err == nil {
		return FromCivil(d), nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return FromTime(t), nil
	}
	return TimePoint{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
}

func MustParseDate(s string) TimePoint {
	tp, err := ParseDate(s)
	if err != nil {
		panic(err)
	}
	return tp
}

// Comparison
func (tp TimePoint) Before(other TimePoint) bool        { return tp.normalize().Before(other.normalize()) }
func (tp TimePoint) Equal(other TimePoint) bool         { return tp.normalize().Equal(other.normalize()) }
func (tp TimePoint) After(other TimePoint) bool         { return tp.normalize().After(other.normalize()) }
func (tp TimePoint) BeforeOrEqual(other TimePoint) bool { return !tp.After(other) }
func (tp TimePoint) AfterOrEqual(other TimePoint) bool  { return !tp.Before(other) }

func (tp TimePoint) normalize() time.Time {
	return time.Date(tp.Time.Year(), tp.Time.Month(), tp.Time.Day(), 0, 0, 0, 0, time.UTC)
}

// Properties
func (tp TimePoint) Year() int         { return tp.Time.Year() }
func (tp TimePoint) Month() time.Month { return tp.Time.Month() }
func (tp TimePoint) Day() int          { return tp.Time.Day() }
func (tp TimePoint) IsZero() bool      { return tp.Time.IsZero() }

func (tp TimePoint) Civil() civil.Date { return civil.DateOf(tp.normalize()) }

// String returns the ISO date. It is also the key used wherever dates index maps.
func (tp TimePoint) String() string {
	if tp.IsZero() {
		return ""
	}
	return tp.Time.Format(time.DateOnly)
}

func (tp TimePoint) MarshalJSON() ([]byte, error) {
	return json.Marshal(tp.String())
}

func (tp *TimePoint) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == "" {
		*tp = TimePoint{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*tp = parsed
	return nil
}

// =============================================================================
// TIME UTILITIES
// =============================================================================

// DaysBetween counts calendar days from -> to. Negative when to is earlier.
func DaysBetween(from, to TimePoint) int {
	return int(to.normalize().Sub(from.normalize()).Hours() / 24)
}

// AddDays returns the date n calendar days later (earlier when n < 0).
func (tp TimePoint) AddDays(n int) TimePoint {
	return FromTime(tp.normalize().AddDate(0, 0, n))
}

// MinTime and MaxTime pick the earlier / later of two dates.
func MinTime(a, b TimePoint) TimePoint {
	if a.After(b) {
		return b
	}
	return a
}

func MaxTime(a, b TimePoint) TimePoint {
	if a.Before(b) {
		return b
	}
	return a
}
