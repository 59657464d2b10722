package fixedpoint

import (
	"math/big"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustBig(t *testing.T, s string) *big.Int {
	t.Helper()
	v, ok := new(big.Int).SetString(s, 10)
	require.True(t, ok)
	return v
}

func TestToScale(t *testing.T) {
	got, err := ToScale(decimal.RequireFromString("0.8"))
	require.NoError(t, err)
	assert.Equal(t, mustBig(t, "800000000000000000"), got)

	got, err = ToScale(decimal.RequireFromString("0.000000000000000000000001"))
	require.NoError(t, err)
	assert.Zero(t, got.Sign())

	got, err = ToScale(decimal.RequireFromString("1000000"))
	require.NoError(t, err)
	assert.Equal(t, mustBig(t, "1000000000000000000000000"), got)
}

func TestToScaleRoundsHalfUp(t *testing.T) {
	got, err := ToScale(decimal.RequireFromString("0.0000000000000000005"))
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(1), got)
}

func TestFeeRateScalesByExactlyScale(t *testing.T) {
	for _, raw := range []string{"0", "0.1", "0.15", "0.000123", "1"} {
		in := decimal.RequireFromString(raw)
		got, err := ToScale(in)
		require.NoError(t, err)
		want := in.Mul(decimal.NewFromBigInt(Scale, 0))
		assert.True(t, want.Equal(decimal.NewFromBigInt(got, 0)), raw)
	}
}

func TestToUtilizationScale(t *testing.T) {
	got, err := ToUtilizationScale(decimal.RequireFromString("0.85"))
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(85000), got)
	assert.True(t, FromUtilizationScale(got).Equal(decimal.RequireFromString("0.85")))
}

func TestNegativeRejected(t *testing.T) {
	_, err := ToScale(decimal.RequireFromString("-0.1"))
	assert.Error(t, err)
	_, err = ToUtilizationScale(decimal.RequireFromString("-1"))
	assert.Error(t, err)
	_, err = ToInteger(decimal.RequireFromString("-1"))
	assert.Error(t, err)
}

func TestToInteger(t *testing.T) {
	got, err := ToInteger(decimal.RequireFromString("86400"))
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(86400), got)

	_, err = ToInteger(decimal.RequireFromString("1.5"))
	assert.Error(t, err)
}

func TestFromScale(t *testing.T) {
	assert.True(t, FromScale(mustBig(t, "250000000000000000")).Equal(decimal.RequireFromString("0.25")))
	assert.True(t, FromScale(nil).IsZero())
}
