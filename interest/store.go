/*
store.go - Persistence interface for rate records

PURPOSE:
  Rate records are ingested and edited outside the engine. The engine only
  needs to enumerate them per category; RateStore is that boundary.

IMPLEMENTATIONS:
  - store/memory: In-memory, for tests and development
  - store/sqlite: SQLite, for the server

SEE ALSO:
  - timeline.go: What the records are turned into
*/
package interest

import (
	"context"
	"fmt"
)

// RateStore persists rate records.
type RateStore interface {
	// SaveRate stores a record. Implementations reject a second record with
	// the same category and ValidFrom.
	SaveRate(ctx context.Context, r RateRecord) error

	// SaveRates stores several records atomically: all or none.
	SaveRates(ctx context.Context, rs []RateRecord) error

	// AddRate stores r after checking it against the stored records of its
	// category with CheckAddition. The check and the write happen under one
	// lock or transaction, so concurrent adds cannot both slip in.
	AddRate(ctx context.Context, r RateRecord) error

	// ListRates returns the records of one category sorted by ValidFrom.
	// An empty category lists every record.
	ListRates(ctx context.Context, category Category) ([]RateRecord, error)
}

// LoadTimeline reads every record from store and builds a timeline.
func LoadTimeline(ctx context.Context, store RateStore) (*RateTimeline, error) {
	records, err := store.ListRates(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("failed to list rate records: %w", err)
	}
	return NewRateTimeline(records)
}

// CheckAddition reports whether r can join existing (the records of r's
// category) without breaking the timeline invariants. Overlaps come back
// as an *OverlapError.
func CheckAddition(existing []RateRecord, r RateRecord) error {
	candidate := make([]RateRecord, 0, len(existing)+1)
	candidate = append(candidate, existing...)
	candidate = append(candidate, r)
	_, err := NewRateTimeline(candidate)
	return err
}

// SeedIfEmpty stores records when the store holds none. It reports whether
// anything was written.
func SeedIfEmpty(ctx context.Context, store RateStore, records []RateRecord) (bool, error) {
	existing, err := store.ListRates(ctx, "")
	if err != nil {
		return false, fmt.Errorf("failed to list rate records: %w", err)
	}
	if len(existing) > 0 {
		return false, nil
	}
	if _, err := NewRateTimeline(records); err != nil {
		return false, err
	}
	if err := store.SaveRates(ctx, records); err != nil {
		return false, fmt.Errorf("failed to seed rate records: %w", err)
	}
	return true, nil
}
