// Package money provides fixed-point monetary amounts for the wallet ledger.
// Amounts are persisted and exchanged as decimal strings with exactly two
// decimal places; arithmetic happens on decimal.Decimal, never on floats.
package money

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// ErrInvalidAmount indicates an amount string that cannot be parsed as a decimal.
var ErrInvalidAmount = errors.New("invalid monetary amount")

// Zero is the canonical zero amount.
var Zero = decimal.Zero

// Parse converts a decimal string into an amount quantized to two decimal places.
func Parse(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	return d.Round(2), nil
}

// ParseNonNegative parses an amount and rejects negative values.
// Wallet operations move non-negative amounts; the sign is carried by the
// debit/credit direction, not the amount itself.
func ParseNonNegative(s string) (decimal.Decimal, error) {
	d, err := Parse(s)
	if err != nil {
		return decimal.Zero, err
	}
	if d.IsNegative() {
		return decimal.Zero, fmt.Errorf("%w: amount must not be negative, got %q", ErrInvalidAmount, s)
	}
	return d, nil
}

// Format renders an amount as a string with exactly two decimal places.
func Format(d decimal.Decimal) string {
	return d.StringFixed(2)
}
