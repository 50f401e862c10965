package model

import (
	"strings"

	"github.com/shopspring/decimal"
)

// ParseDecimal parses an exchange numeric string. Empty or malformed input
// yields zero, matching how the exchange omits fields it has no value for.
func ParseDecimal(s string) decimal.Decimal {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}
