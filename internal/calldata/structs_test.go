package calldata

import (
	"math/big"
	"testing"

	"github.com/NethermindEth/juno/core/felt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GoPolymarket/vesu-deployer/internal/model"
)

func samplePool() *model.CreatePoolParams {
	asset := func(addr string) model.AssetParams {
		return model.AssetParams{
			Asset:                      addr,
			Floor:                      big.NewInt(1),
			InitialFullUtilizationRate: big.NewInt(2),
			MaxUtilization:             big.NewInt(3),
			FeeRate:                    big.NewInt(4),
		}
	}
	irc := model.InterestRateConfig{
		MinTargetUtilization:   big.NewInt(75000),
		MaxTargetUtilization:   big.NewInt(85000),
		TargetUtilization:      big.NewInt(80000),
		MinFullUtilizationRate: big.NewInt(1),
		MaxFullUtilizationRate: big.NewInt(2),
		ZeroUtilizationRate:    big.NewInt(3),
		RateHalfLife:           big.NewInt(172800),
		TargetRatePercent:      big.NewInt(4),
	}
	return &model.CreatePoolParams{
		Name:         "genesis-pool",
		Owner:        "0x1",
		Curator:      "0x2",
		FeeRecipient: "0x3",
		AssetParams:  []model.AssetParams{asset("0x10"), asset("0x11")},
		VTokenParams: []model.VTokenParams{
			{Name: "A", Symbol: "vA", DebtAsset: "0x11"},
			{Name: "B", Symbol: "vB", DebtAsset: "0x10"},
		},
		InterestRateConfigs: []model.InterestRateConfig{irc, irc},
		PairParams: []model.PairParams{{
			AssetIndexes:      model.AssetIndexes{CollateralAssetIndex: 0, DebtAssetIndex: 1},
			MaxLTV:            big.NewInt(8e17),
			LiquidationFactor: big.NewInt(5e16),
			DebtCap:           big.NewInt(0),
		}},
	}
}

func TestCreatePoolLayout(t *testing.T) {
	out, err := CreatePool(samplePool(), "0x99")
	require.NoError(t, err)

	// header 4, assets 1+2*10, vtokens 1+2*7, rate configs 1+2*16, pairs 1+5
	require.Len(t, out, 79)
	assert.Equal(t, "genesis-pool", DecodeShortString(out[0]))
	assert.Equal(t, []string{"0x2", "0x99", "0x3", "0x2", "0x10"}, hexes(out[1:6]))

	pair := hexes(out[73:])
	require.Len(t, pair, 6)
	assert.Equal(t, "0x1", pair[0])
	assert.Equal(t, "0x0", pair[1])
	assert.Equal(t, "0x1", pair[2])
	assert.Equal(t, new(felt.Felt).SetUint64(8e17).String(), pair[3])
	assert.Equal(t, new(felt.Felt).SetUint64(5e16).String(), pair[4])
	assert.Equal(t, "0x0", pair[5])
}

func TestPairParamsRejectsWideLTV(t *testing.T) {
	p := samplePool()
	p.PairParams[0].MaxLTV = new(big.Int).Lsh(big.NewInt(1), 64)
	_, err := CreatePool(p, "0x99")
	require.ErrorIs(t, err, ErrOutOfRange)
	assert.Contains(t, err.Error(), "max_ltv")
}

func TestOracleConfigPragmaKeys(t *testing.T) {
	cases := []struct {
		key  string
		want string
	}{
		{"ETH/USD", "0x4554482f555344"},
		{"6148332971638477636", "0x555344432f555344"},
		{"0x4554482f555344", "0x4554482f555344"},
	}
	for _, tc := range cases {
		out, err := AddAsset(model.OracleParams{
			Asset:           "0x10",
			PragmaKey:       tc.key,
			Timeout:         3600,
			NumberOfSources: 3,
			AggregationMode: model.AggregationMean,
		})
		require.NoError(t, err, tc.key)
		assert.Equal(t, []string{"0x10", tc.want, "0xe10", "0x3", "0x0", "0x0", "0x1"}, hexes(out), tc.key)
	}
}

func TestModifyPosition(t *testing.T) {
	out, err := ModifyPosition(model.ModifyPositionParams{
		CollateralAsset: "0x10",
		DebtAsset:       "0x11",
		User:            "0x20",
		Collateral: model.Amount{
			Type:         model.AmountDelta,
			Denomination: model.DenominationAssets,
			Value:        big.NewInt(100),
		},
		Debt: model.Amount{
			Type:         model.AmountTarget,
			Denomination: model.DenominationNative,
			Value:        big.NewInt(-5),
		},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{
		"0x10", "0x11", "0x20",
		"0x0", "0x1", "0x64", "0x0", "0x0",
		"0x1", "0x0", "0x5", "0x0", "0x1",
	}, hexes(out))
}

func TestUnsignedAmount(t *testing.T) {
	out, err := NewEncoder().UnsignedAmount(model.UnsignedAmount{
		Type:         model.AmountTarget,
		Denomination: model.DenominationAssets,
		Value:        big.NewInt(7),
	}).Result()
	require.NoError(t, err)
	assert.Equal(t, []string{"0x1", "0x1", "0x7", "0x0"}, hexes(out))

	_, err = NewEncoder().UnsignedAmount(model.UnsignedAmount{Value: big.NewInt(-1)}).Result()
	assert.ErrorIs(t, err, ErrOutOfRange)
}

func TestLiquidatePosition(t *testing.T) {
	out, err := LiquidatePosition(model.LiquidatePositionParams{
		CollateralAsset:        "0x10",
		DebtAsset:              "0x11",
		User:                   "0x20",
		MinCollateralToReceive: big.NewInt(1),
		DebtToRepay:            big.NewInt(2),
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"0x10", "0x11", "0x20", "0x1", "0x0", "0x2", "0x0"}, hexes(out))
}

func TestMockAsset(t *testing.T) {
	out, err := MockAsset(model.EnvAssetParams{
		Name:     "ETH",
		Symbol:   "ETH",
		Decimals: 18,
		Mint:     big.NewInt(1000),
	}, "0x42")
	require.NoError(t, err)
	assert.Equal(t, []string{
		"0x0", "0x455448", "0x3",
		"0x0", "0x455448", "0x3",
		"0x12", "0x3e8", "0x0", "0x42",
	}, hexes(out))
}

func TestDecodeAssetConfig(t *testing.T) {
	e := NewEncoder()
	for i := int64(1); i <= 6; i++ {
		e.U256(big.NewInt(i))
	}
	e.Bool(true).U64(1700000000)
	e.U256(big.NewInt(7)).U256(big.NewInt(8)).U256(big.NewInt(9))
	data, err := e.Result()
	require.NoError(t, err)
	require.Len(t, data, 20)

	cfg, err := DecodeAssetConfig(data)
	require.NoError(t, err)
	assert.Equal(t, int64(1), cfg.TotalCollateralShares.Int64())
	assert.Equal(t, int64(6), cfg.Scale.Int64())
	assert.True(t, cfg.IsLegacy)
	assert.Equal(t, uint64(1700000000), cfg.LastUpdated)
	assert.Equal(t, int64(8), cfg.LastFullUtilizationRate.Int64())
	assert.Equal(t, int64(9), cfg.FeeRate.Int64())

	_, err = DecodeAssetConfig(data[:19])
	assert.ErrorIs(t, err, ErrShortRead)
}

func TestReaderRejectsBadBool(t *testing.T) {
	r := NewReader([]*felt.Felt{new(felt.Felt).SetUint64(2)})
	r.Bool()
	assert.ErrorIs(t, r.Err(), ErrOutOfRange)
}

func TestDecodeU256(t *testing.T) {
	v, err := DecodeU256([]*felt.Felt{new(felt.Felt).SetUint64(3), new(felt.Felt).SetUint64(1)})
	require.NoError(t, err)
	want := new(big.Int).Lsh(big.NewInt(1), 128)
	want.Add(want, big.NewInt(3))
	assert.Equal(t, 0, want.Cmp(v))
}
