package factory

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// =============================================================================
// AMOUNT PARSING
// =============================================================================

// ErrAmbiguousAmount is returned for "1,000" and "1.000": grouping in one
// locale, a decimal separator in the other.
var ErrAmbiguousAmount = errors.New("ambiguous amount")

// ParseAmount parses a money or percentage string written by a person.
//
// ACCEPTED FORMS:
//   "1234.56"    plain
//   "1.234,56"   Italian grouping, decimal comma
//   "1,234.56"   English grouping
//   "1234,56"    decimal comma
//   "1.234.567"  dots only, more than one: grouping
//   "€ 1.234,56" currency symbol and spaces are ignored
//
// When both separators appear, the last one is the decimal separator. A
// single separator is a decimal separator, except that one followed by
// exactly three digits after a short integer part ("1,000", "12.500") is
// rejected with ErrAmbiguousAmount. "0,125" and "1234,567" are accepted.
func ParseAmount(s string) (decimal.Decimal, error) {
	cleaned := strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\u00a0', '€', '\'':
			return -1
		}
		return r
	}, strings.TrimSpace(s))
	if cleaned == "" {
		return decimal.Zero, fmt.Errorf("empty amount")
	}

	lastDot := strings.LastIndex(cleaned, ".")
	lastComma := strings.LastIndex(cleaned, ",")
	dots := strings.Count(cleaned, ".")
	commas := strings.Count(cleaned, ",")

	if dots+commas == 1 && looksGrouped(cleaned, max(lastDot, lastComma)) {
		return decimal.Zero, fmt.Errorf("%w %q", ErrAmbiguousAmount, s)
	}

	var normalized string
	switch {
	case dots > 0 && commas > 0:
		if lastComma > lastDot {
			normalized = strings.ReplaceAll(cleaned, ".", "")
			normalized = strings.Replace(normalized, ",", ".", 1)
		} else {
			normalized = strings.ReplaceAll(cleaned, ",", "")
		}
	case commas > 1:
		normalized = strings.ReplaceAll(cleaned, ",", "")
	case commas == 1:
		normalized = strings.Replace(cleaned, ",", ".", 1)
	case dots > 1:
		normalized = strings.ReplaceAll(cleaned, ".", "")
	default:
		normalized = cleaned
	}

	d, err := decimal.NewFromString(normalized)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount %q", s)
	}
	return d, nil
}

// looksGrouped reports whether the separator at sep could be a thousands
// separator: one to three leading digits, no leading zero, three after.
func looksGrouped(s string, sep int) bool {
	intPart := strings.TrimPrefix(strings.TrimPrefix(s[:sep], "-"), "+")
	frac := s[sep+1:]
	if len(intPart) < 1 || len(intPart) > 3 || intPart[0] == '0' || len(frac) != 3 {
		return false
	}
	return isDigits(intPart) && isDigits(frac)
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}

// Amount is a JSON value that accepts a number or a formatted string.
type Amount struct {
	decimal.Decimal
	Set bool
}

func (a *Amount) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	if raw == "null" || raw == "" {
		*a = Amount{}
		return nil
	}
	if strings.HasPrefix(raw, `"`) {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		d, err := ParseAmount(s)
		if err != nil {
			return err
		}
		*a = Amount{Decimal: d, Set: true}
		return nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return fmt.Errorf("invalid amount %s", raw)
	}
	*a = Amount{Decimal: d, Set: true}
	return nil
}

func (a Amount) MarshalJSON() ([]byte, error) {
	if !a.Set {
		return []byte("null"), nil
	}
	return json.Marshal(a.Decimal.String())
}
