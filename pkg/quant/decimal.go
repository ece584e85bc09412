package quant

import (
	"strings"

	"github.com/shopspring/decimal"
)

// ParseDecimal parses an optional decimal-as-string field from the API.
// ok is false when the value is absent, empty or not a number; callers treat
// that as "unknown" rather than as an error.
func ParseDecimal(s *string) (d decimal.Decimal, ok bool) {
	if s == nil {
		return decimal.Zero, false
	}
	raw := strings.TrimSpace(*s)
	if raw == "" || raw == "null" {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

// CompareOptional orders two optional decimals. Unknown values compare equal
// to each other and lower than any known value.
func CompareOptional(a, b *string) int {
	da, okA := ParseDecimal(a)
	db, okB := ParseDecimal(b)
	switch {
	case !okA && !okB:
		return 0
	case !okA:
		return -1
	case !okB:
		return 1
	default:
		return da.Cmp(db)
	}
}
