/*
Package factory converts JSON documents into engine inputs.

PURPOSE:
  The engine works on decimals and dates. Requests arrive as JSON written by
  people: amounts with Italian or English grouping, amounts as numbers or
  strings, ISO dates. The factory turns those into interest.Input and
  interest.RateRecord values, so the engine never parses text.

JSON SCHEMA (calculation):
  {
    "principal": "10.000,00",
    "start": "2024-01-01",
    "end": "2024-12-31",
    "category": "moratorio",
    "fixed_rate": null,
    "adjustment": {
      "pre_transaction_discount": true,
      "agricultural_surcharge": false,
      "surcharge_percent": 0
    },
    "events": [
      {"kind": "payment", "date": "2024-07-01", "amount": "300", "description": "acconto"}
    ],
    "disable_allocation_rule": false
  }

EVENT LENIENCY:
  An event whose date or amount cannot be parsed is kept with a zero date or
  zero amount. interest.Normalize then discards it, so one malformed row
  never fails a whole calculation.

SEE ALSO:
  - factory/rates.go: Rate record import
  - interest/types.go: Input
*/
package factory

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/warp/interest-engine/generic"
	"github.com/warp/interest-engine/interest"
)

// =============================================================================
// JSON SCHEMA TYPES
// =============================================================================

// CalculationJSON is the JSON representation of a calculation request.
type CalculationJSON struct {
	Principal             Amount          `json:"principal"`
	Start                 string          `json:"start"`
	End                   string          `json:"end"`
	Category              string          `json:"category"`
	FixedRate             Amount          `json:"fixed_rate"`
	Adjustment            *AdjustmentJSON `json:"adjustment,omitempty"`
	Events                []EventJSON     `json:"events,omitempty"`
	DisableAllocationRule bool            `json:"disable_allocation_rule"`
}

type AdjustmentJSON struct {
	PreTransactionDiscount bool `json:"pre_transaction_discount"`
	AgriculturalSurcharge  bool `json:"agricultural_surcharge"`
	SurchargePercent       int  `json:"surcharge_percent"`
}

// EventJSON keeps amount and date as raw strings so malformed rows can be
// dropped individually.
type EventJSON struct {
	Kind        string          `json:"kind"`
	Date        string          `json:"date"`
	Amount      json.RawMessage `json:"amount"`
	Description string          `json:"description"`
}

// =============================================================================
// PARSING
// =============================================================================

// ParseCalculation decodes a JSON calculation request into an Input.
func ParseCalculation(jsonStr string) (interest.Input, error) {
	var req CalculationJSON
	if err := json.Unmarshal([]byte(jsonStr), &req); err != nil {
		return interest.Input{}, &interest.ValidationError{Field: "body", Reason: fmt.Sprintf("invalid JSON: %v", err)}
	}
	return req.ToInput()
}

// ToInput converts the request. Only principal, dates and category are
// strictly parsed here; range and rate checks belong to the calculator.
func (req CalculationJSON) ToInput() (interest.Input, error) {
	if !req.Principal.Set {
		return interest.Input{}, &interest.ValidationError{Field: "principal", Reason: "is required"}
	}
	start, err := parseRequiredDate("start", req.Start)
	if err != nil {
		return interest.Input{}, err
	}
	end, err := parseRequiredDate("end", req.End)
	if err != nil {
		return interest.Input{}, err
	}

	in := interest.Input{
		Principal:             req.Principal.Decimal,
		Start:                 start,
		End:                   end,
		Category:              interest.Category(strings.ToLower(strings.TrimSpace(req.Category))),
		FixedRate:             req.FixedRate.Decimal,
		DisableAllocationRule: req.DisableAllocationRule,
	}
	if req.Adjustment != nil {
		in.Adjustment = interest.MoratoryAdjustment{
			PreTransactionDiscount: req.Adjustment.PreTransactionDiscount,
			AgriculturalSurcharge:  req.Adjustment.AgriculturalSurcharge,
			SurchargePercent:       req.Adjustment.SurchargePercent,
		}
	}
	in.Events = ParseEvents(req.Events)
	return in, nil
}

// ParseEvents converts raw events, leaving unparseable fields zero.
func ParseEvents(raw []EventJSON) []interest.LedgerEvent {
	events := make([]interest.LedgerEvent, 0, len(raw))
	for _, e := range raw {
		ev := interest.LedgerEvent{
			Kind:        interest.EventKind(strings.ToLower(strings.TrimSpace(e.Kind))),
			Amount:      decimal.Zero,
			Description: strings.TrimSpace(e.Description),
		}
		if d, err := generic.ParseDate(strings.TrimSpace(e.Date)); err == nil {
			ev.Date = d
		}
		var amount Amount
		if len(e.Amount) > 0 && json.Unmarshal(e.Amount, &amount) == nil {
			ev.Amount = amount.Decimal
		}
		events = append(events, ev)
	}
	return events
}

func parseRequiredDate(field, s string) (generic.TimePoint, error) {
	if strings.TrimSpace(s) == "" {
		return generic.TimePoint{}, &interest.ValidationError{Field: field, Reason: "is required"}
	}
	d, err := generic.ParseDate(strings.TrimSpace(s))
	if err != nil {
		return generic.TimePoint{}, &interest.ValidationError{Field: field, Reason: "must be an ISO date (YYYY-MM-DD)", Err: err}
	}
	return d, nil
}

// =============================================================================
// CONVERSION BACK TO JSON
// =============================================================================

// FromInput renders an Input as a request, e.g. to store it with a run.
func FromInput(in interest.Input) CalculationJSON {
	req := CalculationJSON{
		Principal:             Amount{Decimal: in.Principal, Set: true},
		Start:                 in.Start.String(),
		End:                   in.End.String(),
		Category:              string(in.Category),
		DisableAllocationRule: in.DisableAllocationRule,
	}
	if in.Category == interest.CategoryFisso {
		req.FixedRate = Amount{Decimal: in.FixedRate, Set: true}
	}
	if in.Category == interest.CategoryMoratorio {
		req.Adjustment = &AdjustmentJSON{
			PreTransactionDiscount: in.Adjustment.PreTransactionDiscount,
			AgriculturalSurcharge:  in.Adjustment.AgriculturalSurcharge,
			SurchargePercent:       in.Adjustment.SurchargePercent,
		}
	}
	for _, e := range in.Events {
		amount, _ := json.Marshal(e.Amount.String())
		req.Events = append(req.Events, EventJSON{
			Kind:        string(e.Kind),
			Date:        e.Date.String(),
			Amount:      amount,
			Description: e.Description,
		})
	}
	return req
}
