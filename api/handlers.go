/*
handlers.go - HTTP API handlers for the interest engine

PURPOSE:
  Exposes the interest engine via REST API. Handles HTTP request/response,
  JSON serialization, and delegates to the calculator. The engine itself is
  a pure function; this layer owns the rate cache and the run audit log.

ENDPOINTS:
  Calculations:
    POST   /api/calculations           Run a calculation, store the run
    GET    /api/calculations           List recent runs
    GET    /api/calculations/{id}      Get one run with request and result

  Ledger:
    POST   /api/ledger/normalize       Merge and order raw events

  Rates:
    GET    /api/rates                  List rate records (?category=)
    POST   /api/rates                  Add a rate record
    GET    /api/rates/{category}/on/{date}  Effective rate on a date

  Scenarios:
    GET    /api/scenarios              List worked examples
    POST   /api/scenarios/{id}/run     Run a worked example

ARCHITECTURE:
  Handler struct holds all dependencies:
  - Store: Calculation run log
  - Rates: Rate records (the SQLite store by default)
  - Logger: Structured logging
  - Cached rate timeline, rebuilt whenever rates change

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input
  - 404: Run or scenario not found
  - 409: Rate windows overlap
  - 422: No rate covers a date in the horizon
  - 500: Internal errors

SECURITY NOTE:
  Currently NO authentication or authorization. All endpoints are public.

SEE ALSO:
  - dto.go: Request/response data structures
  - scenarios.go: Worked examples
  - server.go: Router setup and middleware
*/
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/warp/interest-engine/factory"
	"github.com/warp/interest-engine/generic"
	"github.com/warp/interest-engine/interest"
	"github.com/warp/interest-engine/store/sqlite"
	"go.uber.org/zap"
)

// DefaultMaxEvents caps the events accepted per calculation request.
const DefaultMaxEvents = 40

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store     *sqlite.Store
	Rates     interest.RateStore
	Logger    *zap.Logger
	MaxEvents int

	mu       sync.RWMutex
	timeline *interest.RateTimeline
}

// NewHandler creates a new handler with the given store. The store serves
// both rate records and the run log; replace Rates to keep rates elsewhere.
func NewHandler(store *sqlite.Store, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		Store:     store,
		Rates:     store,
		Logger:    logger,
		MaxEvents: DefaultMaxEvents,
	}
}

// LoadRates rebuilds the cached timeline from the store. On failure the
// previous timeline stays in place.
func (h *Handler) LoadRates(ctx context.Context) error {
	tl, err := interest.LoadTimeline(ctx, h.Rates)
	if err != nil {
		return err
	}

	h.mu.Lock()
	h.timeline = tl
	h.mu.Unlock()
	return nil
}

// SeedDefaultRates stores the preset rate tables when the store is empty
// and reloads the timeline.
func (h *Handler) SeedDefaultRates(ctx context.Context) error {
	records, err := factory.DefaultRates()
	if err != nil {
		return err
	}
	seeded, err := interest.SeedIfEmpty(ctx, h.Rates, records)
	if err != nil {
		return err
	}
	if seeded {
		h.Logger.Info("seeded default rate tables", zap.Int("records", len(records)))
	}
	return h.LoadRates(ctx)
}

// Timeline returns the cached timeline; nil until rates are loaded.
func (h *Handler) Timeline() *interest.RateTimeline {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.timeline
}

func (h *Handler) calculator() *interest.Calculator {
	calc := interest.NewCalculator(h.Timeline(), h.Logger)
	calc.MaxEvents = h.MaxEvents
	return calc
}

// =============================================================================
// CALCULATION ENDPOINTS
// =============================================================================

// Calculate handles POST /api/calculations.
func (h *Handler) Calculate(w http.ResponseWriter, r *http.Request) {
	var req factory.CalculationJSON
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON", err)
		return
	}

	dto, err := h.runCalculation(r.Context(), req)
	if err != nil {
		h.writeEngineError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dto)
}

// runCalculation converts, calculates and records one request.
func (h *Handler) runCalculation(ctx context.Context, req factory.CalculationJSON) (*CalculationResultDTO, error) {
	in, err := req.ToInput()
	if err != nil {
		return nil, err
	}

	result, err := h.calculator().Calculate(in)
	if err != nil {
		return nil, err
	}
	dto := toResultDTO(result)

	requestJSON, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}
	resultJSON, err := json.Marshal(dto)
	if err != nil {
		return nil, fmt.Errorf("failed to encode result: %w", err)
	}

	run := &sqlite.CalculationRun{
		Category:    string(in.Category),
		Principal:   money(in.Principal),
		Start:       in.Start.String(),
		End:         in.End.String(),
		TotalDue:    dto.TotalDue,
		RequestJSON: string(requestJSON),
		ResultJSON:  string(resultJSON),
	}
	if err := h.Store.SaveCalculationRun(ctx, run); err != nil {
		return nil, err
	}
	dto.RunID = run.ID
	return dto, nil
}

// ListCalculations handles GET /api/calculations.
func (h *Handler) ListCalculations(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "Invalid limit", err)
			return
		}
		limit = n
	}

	runs, err := h.Store.ListCalculationRuns(r.Context(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list calculations", err)
		return
	}

	dtos := make([]CalculationRunDTO, 0, len(runs))
	for _, run := range runs {
		dtos = append(dtos, toRunDTO(run))
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetCalculation handles GET /api/calculations/{id}.
func (h *Handler) GetCalculation(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	run, err := h.Store.GetCalculationRun(r.Context(), id)
	if errors.Is(err, sqlite.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Calculation not found", nil)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get calculation", err)
		return
	}

	dto := toRunDTO(*run)
	dto.Request = json.RawMessage(run.RequestJSON)
	var result CalculationResultDTO
	if err := json.Unmarshal([]byte(run.ResultJSON), &result); err != nil {
		writeError(w, http.StatusInternalServerError, "Stored result is corrupt", err)
		return
	}
	result.RunID = run.ID
	dto.Result = &result
	writeJSON(w, http.StatusOK, dto)
}

func toRunDTO(run sqlite.CalculationRun) CalculationRunDTO {
	return CalculationRunDTO{
		ID:        run.ID,
		Category:  run.Category,
		Principal: run.Principal,
		Start:     run.Start,
		End:       run.End,
		TotalDue:  run.TotalDue,
		CreatedAt: run.CreatedAt,
	}
}

// =============================================================================
// LEDGER ENDPOINTS
// =============================================================================

// NormalizeLedger handles POST /api/ledger/normalize.
func (h *Handler) NormalizeLedger(w http.ResponseWriter, r *http.Request) {
	var req NormalizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON", err)
		return
	}

	events := factory.ParseEvents(req.Events)
	discarded := 0
	for _, e := range events {
		if !e.Admissible() {
			discarded++
		}
	}

	ledger := interest.Normalize(events)
	resp := NormalizeResponse{
		Events:    make([]LedgerEventDTO, 0, ledger.Len()),
		Dates:     make([]string, 0),
		Discarded: discarded,
	}
	for _, e := range ledger.Events() {
		resp.Events = append(resp.Events, toLedgerEventDTO(e))
	}
	for _, d := range ledger.Dates() {
		resp.Dates = append(resp.Dates, d.String())
	}
	writeJSON(w, http.StatusOK, resp)
}

// =============================================================================
// RATE ENDPOINTS
// =============================================================================

// ListRates handles GET /api/rates.
func (h *Handler) ListRates(w http.ResponseWriter, r *http.Request) {
	category := interest.Category(strings.ToLower(r.URL.Query().Get("category")))
	if category != "" && !category.UsesTimeline() {
		writeError(w, http.StatusBadRequest, "Unknown rate category", nil)
		return
	}

	records, err := h.Rates.ListRates(r.Context(), category)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list rates", err)
		return
	}

	dtos := make([]RateDTO, 0, len(records))
	for _, rec := range records {
		dtos = append(dtos, toRateDTO(rec))
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateRate handles POST /api/rates. The store checks the new record
// against the stored ones and writes it in one step.
func (h *Handler) CreateRate(w http.ResponseWriter, r *http.Request) {
	var req factory.RateJSON
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON", err)
		return
	}

	rec, err := req.ToRecord()
	if err != nil {
		h.writeEngineError(w, r, err)
		return
	}

	ctx := r.Context()
	if err := h.Rates.AddRate(ctx, rec); err != nil {
		h.writeEngineError(w, r, err)
		return
	}
	if err := h.LoadRates(ctx); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reload rates", err)
		return
	}

	h.Logger.Info("rate record added",
		zap.String("category", string(rec.Category)),
		zap.Stringer("window", rec.Window()),
		zap.String("percentage", rec.Percentage.String()),
	)
	writeJSON(w, http.StatusCreated, toRateDTO(rec))
}

// GetEffectiveRate handles GET /api/rates/{category}/on/{date}.
// Moratory flags come from the query: discount, agricultural, surcharge.
func (h *Handler) GetEffectiveRate(w http.ResponseWriter, r *http.Request) {
	category := interest.Category(strings.ToLower(chi.URLParam(r, "category")))
	if !category.UsesTimeline() {
		writeError(w, http.StatusBadRequest, "Unknown rate category", nil)
		return
	}
	date, err := generic.ParseDate(chi.URLParam(r, "date"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date", err)
		return
	}

	var adj interest.MoratoryAdjustment
	if category == interest.CategoryMoratorio {
		q := r.URL.Query()
		adj.PreTransactionDiscount = q.Get("discount") == "true"
		adj.AgriculturalSurcharge = q.Get("agricultural") == "true"
		if s := q.Get("surcharge"); s != "" {
			if adj.SurchargePercent, err = strconv.Atoi(s); err != nil {
				writeError(w, http.StatusBadRequest, "Invalid surcharge", err)
				return
			}
		}
		if err := adj.Validate(); err != nil {
			h.writeEngineError(w, r, err)
			return
		}
	}

	tl := h.Timeline()
	published, err := tl.Lookup(category, date)
	if err != nil {
		h.writeEngineError(w, r, err)
		return
	}
	effective, err := tl.RateOn(category, date, adj)
	if err != nil {
		h.writeEngineError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, EffectiveRateDTO{
		Category:  string(category),
		Date:      date.String(),
		Published: money(published),
		Effective: money(effective),
	})
}

// =============================================================================
// HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeEngineError maps engine errors to a status and code.
func (h *Handler) writeEngineError(w http.ResponseWriter, r *http.Request, err error) {
	status, code, message := classifyError(err)
	fields := []zap.Field{
		zap.String("request_id", middleware.GetReqID(r.Context())),
		zap.String("path", r.URL.Path),
		zap.Error(err),
	}
	if interest.IsClientError(err) {
		h.Logger.Debug("request rejected", fields...)
	} else {
		h.Logger.Error("request failed", fields...)
	}
	writeJSON(w, status, ErrorResponse{Error: message, Code: code, Details: err.Error()})
}

func classifyError(err error) (status int, code, message string) {
	switch {
	case errors.Is(err, interest.ErrNoApplicableRate):
		return http.StatusUnprocessableEntity, "no_applicable_rate", "No rate covers the requested dates"
	case errors.Is(err, interest.ErrOverlappingRates):
		return http.StatusConflict, "overlapping_rates", "Rate windows overlap"
	case errors.Is(err, interest.ErrInvalidRange):
		return http.StatusBadRequest, "invalid_range", "End date must be after start date"
	case errors.Is(err, interest.ErrUnknownCategory):
		return http.StatusBadRequest, "unknown_category", "Unknown category"
	case errors.Is(err, interest.ErrValidation):
		return http.StatusBadRequest, "validation", "Invalid request"
	default:
		return http.StatusInternalServerError, "internal", "Internal error"
	}
}
