// Package fixedpoint converts human-readable decimals into the integer
// fixed-point representation the pool contracts expect.
package fixedpoint

import (
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"
)

const (
	ScaleDecimals            = 18
	UtilizationScaleDecimals = 5
	SecondsPerYear           = 365 * 24 * 60 * 60
)

var (
	// Scale is 10^18.
	Scale = new(big.Int).Exp(big.NewInt(10), big.NewInt(ScaleDecimals), nil)
	// UtilizationScale is 10^5.
	UtilizationScale = new(big.Int).Exp(big.NewInt(10), big.NewInt(UtilizationScaleDecimals), nil)
)

// ToScale returns round(value * 10^18).
func ToScale(value decimal.Decimal) (*big.Int, error) {
	return shift(value, ScaleDecimals)
}

// ToUtilizationScale returns round(value * 10^5).
func ToUtilizationScale(value decimal.Decimal) (*big.Int, error) {
	return shift(value, UtilizationScaleDecimals)
}

// FromScale is the inverse of ToScale.
func FromScale(v *big.Int) decimal.Decimal {
	if v == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(v, -ScaleDecimals)
}

// FromUtilizationScale is the inverse of ToUtilizationScale.
func FromUtilizationScale(v *big.Int) decimal.Decimal {
	if v == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(v, -UtilizationScaleDecimals)
}

// ToInteger accepts only whole non-negative numbers.
func ToInteger(value decimal.Decimal) (*big.Int, error) {
	if value.IsNegative() {
		return nil, fmt.Errorf("negative value %s", value)
	}
	if !value.Equal(value.Truncate(0)) {
		return nil, fmt.Errorf("value %s is not an integer", value)
	}
	return value.BigInt(), nil
}

func shift(value decimal.Decimal, places int32) (*big.Int, error) {
	if value.IsNegative() {
		return nil, fmt.Errorf("negative value %s", value)
	}
	// Round is half away from zero, which for non-negative inputs is half-up.
	return value.Shift(places).Round(0).BigInt(), nil
}
