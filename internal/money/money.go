// Package money provides the fixed-point amount type used across the ledger.
package money

import (
	"errors"
	"fmt"
	"strings"

	gomoney "github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// Amount is a monetary value stored in minor units (cents).
// Example: 10.50 is stored as 1050.
type Amount int64

// Zero is the zero amount.
const Zero Amount = 0

// maxAbsCents bounds parsed values so they always fit a BIGINT column.
const maxAbsCents = 1_000_000_000_000_000

var (
	// ErrPrecision is returned when a value has more than two decimal places.
	ErrPrecision = errors.New("amount has more than 2 decimal places")
	// ErrRange is returned when a value does not fit the storage range.
	ErrRange = errors.New("amount out of range")
)

// FromDecimal converts an exact decimal. Values with more than two fractional digits
// are rejected rather than rounded.
func FromDecimal(d decimal.Decimal) (Amount, error) {
	if !d.Equal(d.Round(2)) {
		return 0, ErrPrecision
	}
	shifted := d.Shift(2)
	if shifted.Abs().GreaterThan(decimal.NewFromInt(maxAbsCents)) {
		return 0, ErrRange
	}
	return Amount(shifted.IntPart()), nil
}

// Parse reads a plain decimal string such as "1000", "12.5" or "-3.99".
func Parse(s string) (Amount, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("parsing amount %q: %w", s, err)
	}
	a, err := FromDecimal(d)
	if err != nil {
		return 0, fmt.Errorf("parsing amount %q: %w", s, err)
	}
	return a, nil
}

// MustParse is Parse for literals; it panics on malformed input.
func MustParse(s string) Amount {
	a, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return a
}

// RoundDecimal converts a computed decimal to an Amount, rounding half away from zero.
func RoundDecimal(d decimal.Decimal) Amount {
	return Amount(d.Round(2).Shift(2).IntPart())
}

func (a Amount) Decimal() decimal.Decimal { return decimal.New(int64(a), -2) }
func (a Amount) String() string           { return a.Decimal().StringFixed(2) }
func (a Amount) IsPositive() bool         { return a > 0 }
func (a Amount) IsNegative() bool         { return a < 0 }

// Max returns the larger of a and b.
func Max(a, b Amount) Amount {
	if a > b {
		return a
	}
	return b
}

// Min returns the smaller of a and b.
func Min(a, b Amount) Amount {
	if a < b {
		return a
	}
	return b
}

// Format renders the amount with the currency's symbol and separators.
// Unknown codes, and currencies whose minor unit is not 1/100, fall back to "CODE 0.00".
func Format(a Amount, currency string) string {
	if currency == "" {
		return a.String()
	}
	if c := gomoney.GetCurrency(currency); c == nil || c.Fraction != 2 {
		return currency + " " + a.String()
	}
	return gomoney.New(int64(a), currency).Display()
}

// KnownCurrency reports whether code is an ISO 4217 code with two minor digits,
// the only kind Format renders natively.
func KnownCurrency(code string) bool {
	c := gomoney.GetCurrency(strings.ToUpper(code))
	return c != nil && c.Fraction == 2
}
