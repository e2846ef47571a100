// Package memory provides an in-memory interest.RateStore.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/warp/interest-engine/interest"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Store struct {
	mu    sync.RWMutex
	rates map[interest.Category][]interest.RateRecord
}

func New() *Store {
	return &Store{rates: make(map[interest.Category][]interest.RateRecord)}
}

// SaveRate adds a single record, keeping each category sorted by ValidFrom.
func (m *Store) SaveRate(_ context.Context, r interest.RateRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saveLocked(r)
}

// SaveRates adds multiple records atomically.
func (m *Store) SaveRates(_ context.Context, rs []interest.RateRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	// Check everything first so a failure leaves the store untouched
	seen := make(map[string]bool, len(rs))
	for _, r := range rs {
		k := string(r.Category) + "|" + r.ValidFrom.String()
		if seen[k] || m.existsLocked(r) {
			return duplicateError(r)
		}
		seen[k] = true
	}

	for _, r := range rs {
		if err := m.saveLocked(r); err != nil {
			return err
		}
	}
	return nil
}

// AddRate stores r when it fits the records already held for its category.
func (m *Store) AddRate(_ context.Context, r interest.RateRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := interest.CheckAddition(m.rates[r.Category], r); err != nil {
		return err
	}
	return m.saveLocked(r)
}

func (m *Store) saveLocked(r interest.RateRecord) error {
	if m.existsLocked(r) {
		return duplicateError(r)
	}
	recs := m.rates[r.Category]

	// Binary search for the insertion point
	i := sort.Search(len(recs), func(i int) bool {
		return recs[i].ValidFrom.After(r.ValidFrom)
	})

	recs = append(recs, interest.RateRecord{})
	copy(recs[i+1:], recs[i:])
	recs[i] = r
	m.rates[r.Category] = recs
	return nil
}

func (m *Store) existsLocked(r interest.RateRecord) bool {
	for _, existing := range m.rates[r.Category] {
		if existing.ValidFrom.Equal(r.ValidFrom) {
			return true
		}
	}
	return false
}

// ListRates returns copies; an empty category lists everything.
func (m *Store) ListRates(_ context.Context, category interest.Category) ([]interest.RateRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if category != "" {
		result := make([]interest.RateRecord, len(m.rates[category]))
		copy(result, m.rates[category])
		return result, nil
	}

	var result []interest.RateRecord
	for _, c := range []interest.Category{interest.CategoryLegale, interest.CategoryMoratorio} {
		result = append(result, m.rates[c]...)
	}
	return result, nil
}

func duplicateError(r interest.RateRecord) error {
	return fmt.Errorf("%s rate from %s already stored: %w", r.Category, r.ValidFrom, interest.ErrOverlappingRates)
}
