// Package core provides the record model and its value helpers.
//
// This file contains functions for parsing amounts typed by a user or found
// in filter fields, and for formatting them for display.
package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Decimal arithmetic rescales operands to a common exponent, so amounts are
// kept within these bounds to keep sums and comparisons cheap.
const (
	MaxAmountExponent = 32
	MaxAmountDigits   = 64
)

func init() {
	// Amounts travel as JSON numbers in snapshots and API payloads.
	decimal.MarshalJSONWithoutQuotes = true
}

// ParseAmount parses a strictly positive decimal amount.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators. Zero,
// negative and malformed values are rejected with ErrInvalidAmount.
//
// Examples:
//
//	ParseAmount("12.34") -> 12.34, nil
//	ParseAmount("12,34") -> 12.34, nil
//	ParseAmount("0")     -> 0, ErrInvalidAmount
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, ErrInvalidAmount
	}
	if strings.Count(s, ",") == 1 && !strings.Contains(s, ".") {
		s = strings.Replace(s, ",", ".", 1)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	if !d.IsPositive() || !InRange(d) {
		return decimal.Zero, ErrInvalidAmount
	}
	return d, nil
}

// InRange reports whether d stays within MaxAmountExponent and
// MaxAmountDigits.
func InRange(d decimal.Decimal) bool {
	e := d.Exponent()
	return e >= -MaxAmountExponent && e <= MaxAmountExponent && d.NumDigits() <= MaxAmountDigits
}

// ParseNumber is the lenient parser used for optional numeric inputs such as
// amount filter bounds. ok is false when s is blank, not a number or out of
// range, so such a bound does not constrain.
func ParseNumber(s string) (d decimal.Decimal, ok bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(s)
	if err != nil || !InRange(d) {
		return decimal.Zero, false
	}
	return d, true
}

// FormatAmount renders an amount with two fractional digits for display.
func FormatAmount(d decimal.Decimal) string {
	return d.StringFixed(2)
}
