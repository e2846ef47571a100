package factory

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/warp/interest-engine/interest"
)

// RateJSON is the JSON representation of a rate record.
type RateJSON struct {
	ID         string `json:"id,omitempty"`
	Category   string `json:"category"`
	Percentage Amount `json:"percentage"`
	ValidFrom  string `json:"valid_from"`
	ValidTo    string `json:"valid_to,omitempty"`
	Source     string `json:"source,omitempty"`
}

// ParseRates decodes a JSON array of rate records. Records without an ID
// get a fresh UUID.
func ParseRates(jsonStr string) ([]interest.RateRecord, error) {
	var raw []RateJSON
	if err := json.Unmarshal([]byte(jsonStr), &raw); err != nil {
		return nil, fmt.Errorf("failed to parse rate records: %w", err)
	}

	records := make([]interest.RateRecord, 0, len(raw))
	for i, r := range raw {
		rec, err := r.ToRecord()
		if err != nil {
			return nil, fmt.Errorf("rate record #%d: %w", i, err)
		}
		records = append(records, rec)
	}
	return records, nil
}

// ToRecord validates and converts one record.
func (r RateJSON) ToRecord() (interest.RateRecord, error) {
	category := interest.Category(strings.ToLower(strings.TrimSpace(r.Category)))
	if !category.UsesTimeline() {
		return interest.RateRecord{}, &interest.ValidationError{Field: "category", Reason: fmt.Sprintf("%q must be legale or moratorio", r.Category), Err: interest.ErrUnknownCategory}
	}
	if !r.Percentage.Set {
		return interest.RateRecord{}, &interest.ValidationError{Field: "percentage", Reason: "is required"}
	}

	from, err := parseRequiredDate("valid_from", r.ValidFrom)
	if err != nil {
		return interest.RateRecord{}, err
	}

	rec := interest.RateRecord{
		ID:         r.ID,
		Category:   category,
		Percentage: r.Percentage.Decimal,
		ValidFrom:  from,
		Source:     strings.TrimSpace(r.Source),
	}
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if strings.TrimSpace(r.ValidTo) != "" {
		to, err := parseRequiredDate("valid_to", r.ValidTo)
		if err != nil {
			return interest.RateRecord{}, err
		}
		rec.ValidTo = &to
	}
	if err := rec.Window().Validate(); err != nil {
		return interest.RateRecord{}, &interest.ValidationError{Field: "valid_to", Reason: "must not be before valid_from", Err: err}
	}
	return rec, nil
}

// FromRecord renders a record as JSON.
func FromRecord(rec interest.RateRecord) RateJSON {
	out := RateJSON{
		ID:         rec.ID,
		Category:   string(rec.Category),
		Percentage: Amount{Decimal: rec.Percentage, Set: true},
		ValidFrom:  rec.ValidFrom.String(),
		Source:     rec.Source,
	}
	if rec.ValidTo != nil {
		out.ValidTo = rec.ValidTo.String()
	}
	return out
}

// DefaultRates parses the preset legale and moratorio tables.
func DefaultRates() ([]interest.RateRecord, error) {
	legale, err := ParseRates(interest.DefaultLegaleRatesJSON)
	if err != nil {
		return nil, err
	}
	moratorio, err := ParseRates(interest.DefaultMoratorioRatesJSON)
	if err != nil {
		return nil, err
	}
	return append(legale, moratorio...), nil
}
