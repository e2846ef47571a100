/*
scenarios.go - Worked examples for demos and smoke tests

PURPOSE:

	Provides pre-built calculation requests with their expected outcome under
	the preset rate tables. Running one exercises the whole path: request
	parsing, rate lookup, simulation and the run audit log.

AVAILABLE SCENARIOS:

	legale-flat:             One year at a single legal rate
	legale-partial-payment:  Interest-first allocation of a mid-year payment
	legale-principal-only:   Same payment with the allocation rule off
	legale-across-years:     Legal rate change on Jan 1
	moratorio-discount:      Semester rate change, pre-transaction discount
	fisso-with-credit:       Fixed rate, principal raised by a credit

USAGE VIA API:

	GET  /api/scenarios
	POST /api/scenarios/legale-partial-payment/run

ADDING NEW SCENARIOS:
 1. Add to 'scenarios' slice with ID, name, description and request
 2. Set Expected to the total interest under the preset rates

NOTE:

	Expected values assume the preset tables. After editing rates a run can
	legitimately differ from Expected.

SEE ALSO:
  - handlers.go: runCalculation
  - interest/presets.go: Preset rate tables
*/
package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/warp/interest-engine/factory"
	"go.uber.org/zap"
)

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

type scenario struct {
	ID          string
	Name        string
	Description string
	Request     factory.CalculationJSON
	Expected    string
}

var scenarios = []scenario{
	{
		ID:          "legale-flat",
		Name:        "Legal Rate, No Events",
		Description: "10,000.00 at the 2024 legal rate for a full year",
		Request:     calcRequest("10000", "2024-01-01", "2024-12-31", "legale", nil),
		Expected:    "250.00",
	},
	{
		ID:          "legale-partial-payment",
		Name:        "Partial Payment, Interest First",
		Description: "300.00 paid on 1 July settles accrued interest before principal",
		Request: calcRequest("10000", "2024-01-01", "2024-12-31", "legale", []factory.EventJSON{
			eventJSON("payment", "2024-07-01", "300", "acconto"),
		}),
		Expected: "247.80",
	},
	{
		ID:          "legale-principal-only",
		Name:        "Partial Payment, Principal Only",
		Description: "The same payment applied straight to principal",
		Request: func() factory.CalculationJSON {
			req := calcRequest("10000", "2024-01-01", "2024-12-31", "legale", []factory.EventJSON{
				eventJSON("payment", "2024-07-01", "300", "acconto"),
			})
			req.DisableAllocationRule = true
			return req
		}(),
		Expected: "246.24",
	},
	{
		ID:          "legale-across-years",
		Name:        "Legal Rate Change",
		Description: "5.00% in 2023 drops to 2.50% on 1 January 2024",
		Request:     calcRequest("10000", "2023-07-01", "2024-06-30", "legale", nil),
		Expected:    "376.03",
	},
	{
		ID:          "moratorio-discount",
		Name:        "Late-Payment Rate with Discount",
		Description: "Commercial late-payment rate for 2024, one point discounted",
		Request: func() factory.CalculationJSON {
			req := calcRequest("10000", "2024-01-01", "2024-12-31", "moratorio", nil)
			req.Adjustment = &factory.AdjustmentJSON{PreTransactionDiscount: true}
			return req
		}(),
		Expected: "1137.47",
	},
	{
		ID:          "fisso-with-credit",
		Name:        "Fixed Rate with Additional Credit",
		Description: "4.00% contractual rate; 1,000.00 of costs added on 1 April",
		Request: func() factory.CalculationJSON {
			req := calcRequest("5000", "2024-01-01", "2024-06-30", "fisso", []factory.EventJSON{
				eventJSON("credit", "2024-04-01", "1000", "spese legali"),
			})
			req.FixedRate = factory.Amount{Decimal: decimal.NewFromInt(4), Set: true}
			return req
		}(),
		Expected: "109.04",
	},
}

func calcRequest(principal, start, end, category string, events []factory.EventJSON) factory.CalculationJSON {
	return factory.CalculationJSON{
		Principal: factory.Amount{Decimal: decimal.RequireFromString(principal), Set: true},
		Start:     start,
		End:       end,
		Category:  category,
		Events:    events,
	}
}

func eventJSON(kind, date, amount, description string) factory.EventJSON {
	raw, _ := json.Marshal(amount)
	return factory.EventJSON{Kind: kind, Date: date, Amount: raw, Description: description}
}

func findScenario(id string) (scenario, bool) {
	for _, s := range scenarios {
		if s.ID == id {
			return s, true
		}
	}
	return scenario{}, false
}

// =============================================================================
// HANDLERS
// =============================================================================

// ScenarioRunDTO is the result of running a scenario.
type ScenarioRunDTO struct {
	Scenario ScenarioDTO           `json:"scenario"`
	Expected string                `json:"expected_total_interest"`
	Matches  bool                  `json:"matches_expected"`
	Result   *CalculationResultDTO `json:"result"`
}

// ListScenarios returns available scenarios.
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	dtos := make([]ScenarioDTO, 0, len(scenarios))
	for _, s := range scenarios {
		dtos = append(dtos, s.dto())
	}
	writeJSON(w, http.StatusOK, dtos)
}

// RunScenario runs a scenario against the loaded rates and records the run.
func (h *Handler) RunScenario(w http.ResponseWriter, r *http.Request) {
	s, ok := findScenario(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, http.StatusNotFound, "Scenario not found", nil)
		return
	}

	result, err := h.runCalculation(r.Context(), s.Request)
	if err != nil {
		h.writeEngineError(w, r, err)
		return
	}

	matches := result.TotalInterest == s.Expected
	if !matches {
		h.Logger.Warn("scenario differs from expected",
			zap.String("scenario", s.ID),
			zap.String("expected", s.Expected),
			zap.String("got", result.TotalInterest),
		)
	}
	writeJSON(w, http.StatusOK, ScenarioRunDTO{
		Scenario: s.dto(),
		Expected: s.Expected,
		Matches:  matches,
		Result:   result,
	})
}

func (s scenario) dto() ScenarioDTO {
	req := s.Request
	return ScenarioDTO{
		ID:          s.ID,
		Name:        s.Name,
		Description: s.Description,
		Request:     &req,
	}
}
