// Package core holds the domain model: monetary amounts, funding methods,
// expense records and user balances.
//
// This file contains amount parsing and the rounding policy applied to every
// persisted write.
package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Round2 quantizes an amount to 2 fractional digits.
//
// decimal.Round rounds half away from zero, which is half-up for the
// non-negative amounts this domain deals in: 10.005 -> 10.01, 10.004 -> 10.00.
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// ParseAmount converts a decimal string into a positive amount.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators.
// Returns ErrInvalidAmount for empty, non-numeric, zero or negative input.
// The value is NOT rounded here; rounding happens on write.
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, ErrInvalidAmount
	}
	// Normalize decimal comma to dot
	s = strings.ReplaceAll(s, ",", ".")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	if d.Sign() <= 0 {
		return decimal.Zero, ErrInvalidAmount
	}
	return d, nil
}

// FormatAmount renders an amount with exactly 2 fractional digits, rounding
// half-up on the way out.
func FormatAmount(d decimal.Decimal) string {
	return Round2(d).StringFixed(2)
}
