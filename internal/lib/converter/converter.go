package converter

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// All balances, stakes and payouts are stored as int64 minor units (cents).
// This package is the only place where major-unit representations are
// converted; everything past the HTTP boundary works in minor units.

var hundred = decimal.NewFromInt(100)

// MajorToMinor parses a major-unit decimal string ("10.25") into minor
// units. Fractions below one cent are rejected rather than rounded.
func MajorToMinor(amount string) (int64, error) {
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return 0, fmt.Errorf("converter.MajorToMinor: %w", err)
	}

	cents := d.Mul(hundred)
	if !cents.IsInteger() {
		return 0, fmt.Errorf("converter.MajorToMinor: %s has sub-cent precision", amount)
	}

	return cents.IntPart(), nil
}

// MinorToMajor renders minor units as a major-unit string with two
// decimal places, for broadcast payloads and API responses.
func MinorToMajor(amount int64) string {
	return decimal.NewFromInt(amount).Div(hundred).StringFixed(2)
}

// ApplyMultiplier computes amount × multiplier in minor units, rounding
// down. The truncated remainder stays with the house.
func ApplyMultiplier(amount int64, multiplier decimal.Decimal) int64 {
	return decimal.NewFromInt(amount).Mul(multiplier).Floor().IntPart()
}
