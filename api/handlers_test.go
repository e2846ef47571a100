/*
handlers_test.go - HTTP tests for the API handlers

Runs requests through the full chi router against an in-memory SQLite store
seeded with the preset rate tables.
*/
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/interest-engine/store/memory"
	"github.com/warp/interest-engine/store/sqlite"
	"go.uber.org/zap"
)

func setupTestHandler(t *testing.T) (*Handler, http.Handler) {
	t.Helper()
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	h := NewHandler(store, zap.NewNop())
	require.NoError(t, h.SeedDefaultRates(context.Background()))
	return h, NewRouter(h)
}

func do(t *testing.T, router http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

// =============================================================================
// CALCULATIONS
// =============================================================================

const paymentRequest = `{
	"principal": "10.000,00",
	"start": "2024-01-01",
	"end": "2024-12-31",
	"category": "legale",
	"events": [{"kind": "payment", "date": "2024-07-01", "amount": "300", "description": "acconto"}]
}`

func TestCalculate_PaymentSettlesInterestFirst(t *testing.T) {
	// GIVEN: 10,000 at the 2024 legal rate, 300 paid on 1 July
	_, router := setupTestHandler(t)

	// WHEN
	rec := do(t, router, http.MethodPost, "/api/calculations", paymentRequest)

	// THEN
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	res := decode[CalculationResultDTO](t, rec)
	assert.Equal(t, "247.80", res.TotalInterest)
	assert.Equal(t, "9824.66", res.ResidualPrincipal)
	assert.Equal(t, "123.14", res.ResidualInterest)
	assert.Equal(t, "300.00", res.TotalPayments)
	assert.Equal(t, "2.50", res.RateAtStart)
	assert.Equal(t, "124.66", res.InterestRepaid)
	assert.Equal(t, "175.34", res.PrincipalRepaid)
	assert.Len(t, res.Segments, 2)
	require.Len(t, res.Allocations, 1)
	assert.Equal(t, "124.66", res.Allocations[0].ToInterest)
	assert.NotEmpty(t, res.RunID)
}

func TestCalculate_RunIsRecorded(t *testing.T) {
	_, router := setupTestHandler(t)

	rec := do(t, router, http.MethodPost, "/api/calculations", paymentRequest)
	require.Equal(t, http.StatusOK, rec.Code)
	res := decode[CalculationResultDTO](t, rec)

	// Fetch by id
	rec = do(t, router, http.MethodGet, "/api/calculations/"+res.RunID, "")
	require.Equal(t, http.StatusOK, rec.Code)
	run := decode[CalculationRunDTO](t, rec)
	assert.Equal(t, "legale", run.Category)
	assert.Equal(t, "10000.00", run.Principal)
	require.NotNil(t, run.Result)
	assert.Equal(t, "247.80", run.Result.TotalInterest)
	assert.Contains(t, string(run.Request), "acconto")

	// Listed
	rec = do(t, router, http.MethodGet, "/api/calculations?limit=5", "")
	require.Equal(t, http.StatusOK, rec.Code)
	runs := decode[[]CalculationRunDTO](t, rec)
	require.Len(t, runs, 1)
	assert.Equal(t, res.RunID, runs[0].ID)
	assert.Nil(t, runs[0].Result)

	// Unknown id
	rec = do(t, router, http.MethodGet, "/api/calculations/nope", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCalculate_Errors(t *testing.T) {
	_, router := setupTestHandler(t)

	tooMany := make([]string, 41)
	for i := range tooMany {
		tooMany[i] = fmt.Sprintf(`{"kind": "payment", "date": "2024-03-01", "amount": "1", "description": "p%d"}`, i)
	}

	tests := []struct {
		name   string
		body   string
		status int
		code   string
	}{
		{"bad json", `{`, http.StatusBadRequest, ""},
		{"zero principal", `{"principal": 0, "start": "2024-01-01", "end": "2024-12-31", "category": "legale"}`, http.StatusBadRequest, "validation"},
		{"end before start", `{"principal": 1, "start": "2024-12-31", "end": "2024-01-01", "category": "legale"}`, http.StatusBadRequest, "invalid_range"},
		{"same day", `{"principal": 1, "start": "2024-01-01", "end": "2024-01-01", "category": "legale"}`, http.StatusBadRequest, "invalid_range"},
		{"unknown category", `{"principal": 1, "start": "2024-01-01", "end": "2024-12-31", "category": "usura"}`, http.StatusBadRequest, "unknown_category"},
		{"fisso without rate", `{"principal": 1, "start": "2024-01-01", "end": "2024-12-31", "category": "fisso"}`, http.StatusBadRequest, "validation"},
		{"bad surcharge", `{"principal": 1, "start": "2024-01-01", "end": "2024-12-31", "category": "moratorio", "adjustment": {"agricultural_surcharge": true, "surcharge_percent": 3}}`, http.StatusBadRequest, "validation"},
		{"no rate before tables", `{"principal": 1, "start": "1990-01-01", "end": "1990-12-31", "category": "legale"}`, http.StatusUnprocessableEntity, "no_applicable_rate"},
		{"too many events", `{"principal": 1, "start": "2024-01-01", "end": "2024-12-31", "category": "legale", "events": [` + strings.Join(tooMany, ",") + `]}`, http.StatusBadRequest, "validation"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, router, http.MethodPost, "/api/calculations", tt.body)
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
			if tt.code != "" {
				assert.Equal(t, tt.code, decode[ErrorResponse](t, rec).Code)
			}
		})
	}

	// Failed calculations leave no run behind
	runs := decode[[]CalculationRunDTO](t, do(t, router, http.MethodGet, "/api/calculations", ""))
	assert.Empty(t, runs)
}

func TestCalculate_NoRatesLoaded(t *testing.T) {
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	defer store.Close()
	router := NewRouter(NewHandler(store, nil))

	rec := do(t, router, http.MethodPost, "/api/calculations",
		`{"principal": 1000, "start": "2024-01-01", "end": "2024-12-31", "category": "legale"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	// Fixed rate does not need the timeline
	rec = do(t, router, http.MethodPost, "/api/calculations",
		`{"principal": 10000, "start": "2024-01-01", "end": "2024-12-31", "category": "fisso", "fixed_rate": "6"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "600.00", decode[CalculationResultDTO](t, rec).TotalInterest)
}

// =============================================================================
// LEDGER
// =============================================================================

func TestNormalizeLedger(t *testing.T) {
	_, router := setupTestHandler(t)

	rec := do(t, router, http.MethodPost, "/api/ledger/normalize", `{"events": [
		{"kind": "payment", "date": "2024-03-01", "amount": "100", "description": "rata"},
		{"kind": "payment", "date": "2024-03-01", "amount": "50", "description": "rata"},
		{"kind": "credit", "date": "2024-03-01", "amount": "20", "description": "spese"},
		{"kind": "payment", "date": "2024-02-01", "amount": "0", "description": "vuoto"},
		{"kind": "refund", "date": "2024-02-01", "amount": "10"},
		{"kind": "payment", "date": "01/02/2024", "amount": "10"}
	]}`)

	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[NormalizeResponse](t, rec)
	assert.Equal(t, 3, resp.Discarded)
	assert.Equal(t, []string{"2024-03-01"}, resp.Dates)
	require.Len(t, resp.Events, 2)
	assert.Equal(t, "credit", resp.Events[0].Kind)
	assert.Equal(t, "payment", resp.Events[1].Kind)
	assert.Equal(t, "150.00", resp.Events[1].Amount)
}

// =============================================================================
// RATES
// =============================================================================

func TestListRates(t *testing.T) {
	_, router := setupTestHandler(t)

	rec := do(t, router, http.MethodGet, "/api/rates?category=legale", "")
	require.Equal(t, http.StatusOK, rec.Code)
	rates := decode[[]RateDTO](t, rec)
	require.NotEmpty(t, rates)
	for _, r := range rates {
		assert.Equal(t, "legale", r.Category)
	}
	assert.Nil(t, rates[len(rates)-1].ValidTo, "latest legal rate is open-ended")

	rec = do(t, router, http.MethodGet, "/api/rates?category=fisso", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateRate(t *testing.T) {
	h, router := setupTestHandler(t)

	// GIVEN: a year before the preset tables
	rec := do(t, router, http.MethodPost, "/api/rates",
		`{"category": "legale", "percentage": "3", "valid_from": "2009-01-01", "valid_to": "2009-12-31", "source": "DM 12/12/2008"}`)

	// THEN: stored and immediately visible to lookups
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[RateDTO](t, rec)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "3.00", created.Percentage)

	r, err := h.Timeline().Lookup("legale", mustDate("2009-06-01"))
	require.NoError(t, err)
	assert.Equal(t, "3", r.String())
}

func TestCreateRate_Rejected(t *testing.T) {
	_, router := setupTestHandler(t)

	tests := []struct {
		name   string
		body   string
		status int
	}{
		{"overlaps open-ended", `{"category": "legale", "percentage": "3", "valid_from": "2026-01-01"}`, http.StatusConflict},
		{"overlaps closed", `{"category": "moratorio", "percentage": "9", "valid_from": "2024-03-01", "valid_to": "2024-03-31"}`, http.StatusConflict},
		{"fixed category", `{"category": "fisso", "percentage": "3", "valid_from": "2009-01-01"}`, http.StatusBadRequest},
		{"inverted window", `{"category": "legale", "percentage": "3", "valid_from": "2009-12-31", "valid_to": "2009-01-01"}`, http.StatusBadRequest},
		{"bad json", `[`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, router, http.MethodPost, "/api/rates", tt.body)
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
		})
	}
}

func TestCreateRate_ConcurrentOverlapsRejected(t *testing.T) {
	h, router := setupTestHandler(t)

	// GIVEN: overlapping 2010 windows posted at the same time
	codes := make([]int, 6)
	var wg sync.WaitGroup
	for i := range codes {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			body := fmt.Sprintf(`{"category": "legale", "percentage": "3", "valid_from": "2010-%02d-01", "valid_to": "2010-12-31"}`, i+1)
			codes[i] = do(t, router, http.MethodPost, "/api/rates", body).Code
		}(i)
	}
	wg.Wait()

	// THEN: one is created, the rest conflict, and rates still load
	created := 0
	for _, code := range codes {
		if code == http.StatusCreated {
			created++
		} else {
			assert.Equal(t, http.StatusConflict, code)
		}
	}
	assert.Equal(t, 1, created)
	assert.NoError(t, h.LoadRates(context.Background()))
}

func TestHandler_RatesFromMemoryStore(t *testing.T) {
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	// GIVEN: rates kept apart from the run log
	h := NewHandler(store, zap.NewNop())
	h.Rates = memory.New()
	require.NoError(t, h.SeedDefaultRates(context.Background()))
	router := NewRouter(h)

	// WHEN
	rec := do(t, router, http.MethodPost, "/api/calculations", paymentRequest)

	// THEN: same result, run still logged in SQLite, no rates in SQLite
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "247.80", decode[CalculationResultDTO](t, rec).TotalInterest)

	runs, err := store.ListCalculationRuns(context.Background(), 10)
	require.NoError(t, err)
	assert.Len(t, runs, 1)
	stored, err := store.ListRates(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, stored)

	rec = do(t, router, http.MethodPost, "/api/rates",
		`{"category": "legale", "percentage": "3", "valid_from": "2026-01-01"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestGetEffectiveRate(t *testing.T) {
	_, router := setupTestHandler(t)

	tests := []struct {
		path      string
		published string
		effective string
	}{
		{"/api/rates/legale/on/2024-05-10", "2.50", "2.50"},
		{"/api/rates/moratorio/on/2025-08-01", "10.15", "10.15"},
		{"/api/rates/moratorio/on/2025-08-01?discount=true", "10.15", "9.15"},
		{"/api/rates/moratorio/on/2025-08-01?agricultural=true&surcharge=4", "10.15", "14.15"},
		{"/api/rates/moratorio/on/2025-08-01?discount=true&agricultural=true&surcharge=2", "10.15", "11.15"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec := do(t, router, http.MethodGet, tt.path, "")
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
			dto := decode[EffectiveRateDTO](t, rec)
			assert.Equal(t, tt.published, dto.Published)
			assert.Equal(t, tt.effective, dto.Effective)
		})
	}

	assert.Equal(t, http.StatusBadRequest, do(t, router, http.MethodGet, "/api/rates/fisso/on/2024-01-01", "").Code)
	assert.Equal(t, http.StatusBadRequest, do(t, router, http.MethodGet, "/api/rates/legale/on/yesterday", "").Code)
	assert.Equal(t, http.StatusBadRequest, do(t, router, http.MethodGet, "/api/rates/moratorio/on/2025-08-01?agricultural=true&surcharge=3", "").Code)
	assert.Equal(t, http.StatusUnprocessableEntity, do(t, router, http.MethodGet, "/api/rates/moratorio/on/2000-01-01", "").Code)
}

func TestHealthz(t *testing.T) {
	_, router := setupTestHandler(t)
	assert.Equal(t, http.StatusOK, do(t, router, http.MethodGet, "/healthz", "").Code)
}
