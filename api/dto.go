/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the engine's decimal/date types from the external API contract.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients
  - *Response: Complex response wrappers

MONEY:
  Every amount and percentage leaves the API as a string with exactly two
  decimals ("247.80"), never as a JSON float.

TYPES:
  Calculation:
    factory.CalculationJSON (request), CalculationResultDTO, CalculationRunDTO

  Ledger:
    NormalizeRequest, LedgerEventDTO

  Rates:
    factory.RateJSON (request), RateDTO, EffectiveRateDTO

  Scenarios:
    ScenarioDTO

SEE ALSO:
  - handlers.go: Uses these types
  - factory/request.go: CalculationJSON type
*/
package api

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/interest-engine/factory"
	"github.com/warp/interest-engine/generic"
	"github.com/warp/interest-engine/interest"
)

// =============================================================================
// CALCULATION
// =============================================================================

// CalculationResultDTO is the response of a calculation.
type CalculationResultDTO struct {
	RunID                  string `json:"run_id,omitempty"`
	TotalInterest          string `json:"total_interest"`
	ResidualInterest       string `json:"residual_interest"`
	ResidualPrincipal      string `json:"residual_principal"`
	TotalPayments          string `json:"total_payments"`
	TotalAdditionalCredits string `json:"total_additional_credits"`
	RateAtStart            string `json:"rate_at_start"`
	PrincipalRepaid        string `json:"principal_repaid"`
	InterestRepaid         string `json:"interest_repaid"`
	TotalDue               string `json:"total_due"`

	Segments    []SegmentDTO    `json:"segments"`
	Allocations []AllocationDTO `json:"allocations"`
}

type SegmentDTO struct {
	From      string `json:"from"`
	To        string `json:"to"`
	Days      int    `json:"days"`
	Rate      string `json:"rate"`
	Principal string `json:"principal"`
	Interest  string `json:"interest"`
}

type AllocationDTO struct {
	Date        string `json:"date"`
	Kind        string `json:"kind"`
	Description string `json:"description,omitempty"`
	Amount      string `json:"amount"`
	ToInterest  string `json:"to_interest"`
	ToPrincipal string `json:"to_principal"`
}

// CalculationRunDTO is a stored calculation.
type CalculationRunDTO struct {
	ID        string                `json:"id"`
	Category  string                `json:"category"`
	Principal string                `json:"principal"`
	Start     string                `json:"start"`
	End       string                `json:"end"`
	TotalDue  string                `json:"total_due"`
	CreatedAt time.Time             `json:"created_at"`
	Request   json.RawMessage       `json:"request,omitempty"`
	Result    *CalculationResultDTO `json:"result,omitempty"`
}

// =============================================================================
// LEDGER
// =============================================================================

// NormalizeRequest carries raw events for /api/ledger/normalize.
type NormalizeRequest struct {
	Events []factory.EventJSON `json:"events"`
}

type LedgerEventDTO struct {
	Date        string `json:"date"`
	Kind        string `json:"kind"`
	Amount      string `json:"amount"`
	Description string `json:"description,omitempty"`
}

// NormalizeResponse lists merged events in application order.
type NormalizeResponse struct {
	Events    []LedgerEventDTO `json:"events"`
	Dates     []string         `json:"dates"`
	Discarded int              `json:"discarded"`
}

// =============================================================================
// RATES
// =============================================================================

// RateDTO represents a rate record in API responses.
type RateDTO struct {
	ID         string  `json:"id"`
	Category   string  `json:"category"`
	Percentage string  `json:"percentage"`
	ValidFrom  string  `json:"valid_from"`
	ValidTo    *string `json:"valid_to"`
	Source     string  `json:"source,omitempty"`
}

// EffectiveRateDTO is the rate that applies on one date.
type EffectiveRateDTO struct {
	Category  string `json:"category"`
	Date      string `json:"date"`
	Published string `json:"published"`
	Effective string `json:"effective"`
}

// =============================================================================
// SCENARIOS
// =============================================================================

// ScenarioDTO represents a worked example.
type ScenarioDTO struct {
	ID          string                   `json:"id"`
	Name        string                   `json:"name"`
	Description string                   `json:"description"`
	Request     *factory.CalculationJSON `json:"request,omitempty"`
}

// ErrorResponse is the standard error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details any    `json:"details,omitempty"`
}

// =============================================================================
// CONVERSIONS
// =============================================================================

func money(d decimal.Decimal) string {
	return d.StringFixed(generic.OutputPlaces)
}

func toResultDTO(r *interest.Result) *CalculationResultDTO {
	dto := &CalculationResultDTO{
		TotalInterest:          money(r.TotalInterest),
		ResidualInterest:       money(r.ResidualInterest),
		ResidualPrincipal:      money(r.ResidualPrincipal),
		TotalPayments:          money(r.TotalPayments),
		TotalAdditionalCredits: money(r.TotalAdditionalCredits),
		RateAtStart:            money(r.RateAtStart),
		PrincipalRepaid:        money(r.PrincipalRepaid),
		InterestRepaid:         money(r.InterestRepaid),
		TotalDue:               money(r.TotalDue),
		Segments:               make([]SegmentDTO, 0, len(r.Segments)),
		Allocations:            make([]AllocationDTO, 0, len(r.Allocations)),
	}
	for _, s := range r.Segments {
		dto.Segments = append(dto.Segments, SegmentDTO{
			From:      s.From.String(),
			To:        s.To.String(),
			Days:      s.Days,
			Rate:      money(s.Rate),
			Principal: money(s.Principal),
			Interest:  money(s.Interest),
		})
	}
	for _, a := range r.Allocations {
		dto.Allocations = append(dto.Allocations, AllocationDTO{
			Date:        a.Date.String(),
			Kind:        string(a.Kind),
			Description: a.Description,
			Amount:      money(a.Amount),
			ToInterest:  money(a.ToInterest),
			ToPrincipal: money(a.ToPrincipal),
		})
	}
	return dto
}

func toRateDTO(r interest.RateRecord) RateDTO {
	dto := RateDTO{
		ID:         r.ID,
		Category:   string(r.Category),
		Percentage: money(r.Percentage),
		ValidFrom:  r.ValidFrom.String(),
		Source:     r.Source,
	}
	if r.ValidTo != nil {
		s := r.ValidTo.String()
		dto.ValidTo = &s
	}
	return dto
}

func toLedgerEventDTO(e interest.LedgerEvent) LedgerEventDTO {
	return LedgerEventDTO{
		Date:        e.Date.String(),
		Kind:        string(e.Kind),
		Amount:      money(e.Amount),
		Description: e.Description,
	}
}
