package book

import (
	"fmt"

	"github.com/shopspring/decimal"
)

var cents = decimal.NewFromInt(100)

// ParsePrice converts a decimal price string like "100.50" to cents exactly.
// Sub-cent precision and non-positive prices are rejected.
func ParsePrice(s string) (int64, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("invalid price %q: %w", s, err)
	}
	scaled := d.Mul(cents)
	if !scaled.IsInteger() {
		return 0, fmt.Errorf("invalid price %q: sub-cent precision", s)
	}
	if !scaled.IsPositive() {
		return 0, fmt.Errorf("invalid price %q: must be positive", s)
	}
	return scaled.IntPart(), nil
}

// FormatPrice renders cents as a 2-dp decimal string, e.g. 10050 -> "100.50".
func FormatPrice(price int64) string {
	return decimal.NewFromInt(price).Div(cents).StringFixed(2)
}
