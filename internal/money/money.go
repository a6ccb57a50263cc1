// Package money converts between the decimal amount strings used at the API
// boundary and the int64 minor units (cents) the ledger stores internally.
package money

import (
	"errors"

	"github.com/shopspring/decimal"
)

var (
	ErrInvalidAmount = errors.New("invalid amount")
	ErrTooPrecise    = errors.New("amount has more than two decimal places")
)

// Parse converts a decimal string like "125.50" into cents. Amounts with
// sub-cent precision are rejected rather than rounded.
func Parse(s string) (int64, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	cents := d.Shift(2)
	if !cents.IsInteger() {
		return 0, ErrTooPrecise
	}
	if !cents.BigInt().IsInt64() {
		return 0, ErrInvalidAmount
	}
	return cents.IntPart(), nil
}

// Format renders cents as a two-decimal string, e.g. 12345 -> "123.45".
func Format(cents int64) string {
	return decimal.New(cents, -2).StringFixed(2)
}
