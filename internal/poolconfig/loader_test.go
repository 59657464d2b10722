package poolconfig

import (
	"math/big"
	"os"
	"path/filepath"
	"testing"

	"github.com/GoPolymarket/vesu-deployer/internal/model"
	"github.com/GoPolymarket/vesu-deployer/internal/pkg/apperrors"
	"github.com/GoPolymarket/vesu-deployer/internal/pkg/fixedpoint"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scaled(t *testing.T, s string) *big.Int {
	t.Helper()
	v, ok := new(big.Int).SetString(s, 10)
	require.True(t, ok, s)
	return v
}

func TestLoadGenesis(t *testing.T) {
	cfg, err := Load("mainnet", "testdata/genesis.json", "testdata/deployment.json", "")
	require.NoError(t, err)

	assert.Equal(t, "mainnet", cfg.Name)
	pool, ok := cfg.Pools[DefaultPoolName]
	require.True(t, ok)
	p := pool.Params

	assert.Equal(t, DefaultPoolName, p.Name)
	assert.Equal(t, "0x0100", p.Owner)
	assert.Equal(t, "0x0100", p.Curator, "curator defaults to owner")
	assert.Equal(t, "0x0200", p.FeeRecipient)

	require.Len(t, p.AssetParams, 2)
	eth := p.AssetParams[0]
	assert.Equal(t, scaled(t, "100000000000000000"), eth.FeeRate)
	assert.Equal(t, scaled(t, "10000000000"), eth.Floor)
	assert.Equal(t, scaled(t, "920000000000000000"), eth.MaxUtilization)
	assert.Equal(t, scaled(t, "6341958396"), eth.InitialFullUtilizationRate)
	assert.True(t, eth.IsLegacy)
	assert.Equal(t, scaled(t, "150000000000000000"), p.AssetParams[1].FeeRate)

	irc := p.InterestRateConfigs[0]
	assert.Equal(t, big.NewInt(75000), irc.MinTargetUtilization)
	assert.Equal(t, big.NewInt(85000), irc.MaxTargetUtilization)
	assert.Equal(t, big.NewInt(80000), irc.TargetUtilization)
	assert.Equal(t, big.NewInt(172800), irc.RateHalfLife)
	assert.Equal(t, scaled(t, "200000000000000000"), irc.TargetRatePercent)
	assert.Equal(t, scaled(t, "31709791"), irc.ZeroUtilizationRate)

	assert.Equal(t, p.AssetParams[1].Asset, p.VTokenParams[0].DebtAsset)
	assert.Equal(t, p.AssetParams[0].Asset, p.VTokenParams[1].DebtAsset)
	assert.Equal(t, "vETH", p.VTokenParams[0].Symbol)

	require.Len(t, p.OracleParams, 2)
	assert.Equal(t, "ETH/USD", p.OracleParams[0].PragmaKey)
	assert.Equal(t, model.AggregationMedian, p.OracleParams[0].AggregationMode)
	assert.Equal(t, uint32(2), p.OracleParams[0].NumberOfSources)
	assert.Equal(t, "6148332971638477636", p.OracleParams[1].PragmaKey)
	assert.Equal(t, model.AggregationMean, p.OracleParams[1].AggregationMode)
	assert.Equal(t, uint64(3600), p.OracleParams[1].Timeout)

	require.Len(t, p.PairParams, 2)
	pair := p.PairParams[0]
	assert.Equal(t, uint32(0), pair.CollateralAssetIndex)
	assert.Equal(t, uint32(1), pair.DebtAssetIndex)
	assert.Equal(t, scaled(t, "800000000000000000"), pair.MaxLTV)
	assert.Equal(t, scaled(t, "50000000000000000"), pair.LiquidationFactor)
	assert.Equal(t, scaled(t, "1000000000000000000000000"), pair.DebtCap)
	assert.Equal(t, uint32(1), p.PairParams[1].CollateralAssetIndex)
	assert.Equal(t, uint32(0), p.PairParams[1].DebtAssetIndex)
}

func TestFeeRateEqualsInputTimesScale(t *testing.T) {
	cfg, err := Load("mainnet", "testdata/genesis.json", "", "")
	require.NoError(t, err)

	params := cfg.Pools[DefaultPoolName].Params
	for _, env := range cfg.Env {
		idx := params.AssetIndex(env.Address)
		require.GreaterOrEqual(t, idx, 0)
		assert.Equal(t, env.FeeRate, params.AssetParams[idx].FeeRate)
	}
	want := new(big.Int).Div(new(big.Int).Mul(big.NewInt(15), fixedpoint.Scale), big.NewInt(100))
	assert.Equal(t, want, cfg.Env[1].FeeRate)
}

func TestProtocolAddressFallbacks(t *testing.T) {
	cfg, err := Load("mainnet", "testdata/genesis.json", "testdata/deployment.json", "")
	require.NoError(t, err)

	pr := cfg.Protocol
	assert.Equal(t, "0x0abc", pr.PoolFactory)
	assert.Equal(t, model.ZeroAddress, pr.Pool)
	assert.Equal(t, "0x0def", pr.Oracle)
	// empty in deployment.json, falls back to the first asset's pragma block
	assert.Equal(t, "0x02a85bd616f912537c50a49a4076db02c00b29b2cdc8a197ce92ed1837fa875b", pr.Pragma.Oracle)
	assert.Equal(t, "0x0777", pr.Pragma.SummaryStats)
	assert.Equal(t, "0x0999", pr.Singleton)
	assert.True(t, model.IsSet(pr.Ekubo.Core))
}

func TestMissingDeploymentFile(t *testing.T) {
	cfg, err := Load("mainnet", "testdata/genesis.json", filepath.Join(t.TempDir(), "nope.json"), "")
	require.NoError(t, err)
	assert.Equal(t, model.ZeroAddress, cfg.Protocol.PoolFactory)
	assert.Equal(t, "0x049eefafae944d07744d07cc72a5bf14728a6fb463c3eae5bca13552f5d455fd", cfg.Protocol.Pragma.SummaryStats)
}

func TestEnvFromAssets(t *testing.T) {
	cfg, err := Load("mainnet", "testdata/genesis.json", "", "custom-pool")
	require.NoError(t, err)

	_, ok := cfg.Pools["custom-pool"]
	assert.True(t, ok)

	require.Len(t, cfg.Env, 2)
	usdc := cfg.Env[1]
	assert.Equal(t, "USDC", usdc.Name)
	assert.Equal(t, uint8(6), usdc.Decimals)
	assert.Zero(t, usdc.Mint.Sign())
	assert.Zero(t, usdc.Price.Sign())
	assert.False(t, usdc.IsLegacy)
}

func writeGenesis(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "genesis.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestUnknownPairAsset(t *testing.T) {
	path := writeGenesis(t, `{
		"pool_parameters": {"owner": "0x1", "fee_recipient": "0x2"},
		"asset_parameters": [
			{"asset_name": "ETH", "token": {"address": "0x10", "decimals": 18}},
			{"asset_name": "USDC", "token": {"address": "0x11", "decimals": 6}}
		],
		"pair_parameters": [
			{"collateral_asset_name": "WBTC", "debt_asset_name": "USDC", "max_ltv": 0.5}
		]
	}`)
	_, err := Load("mainnet", path, "", "")
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrConfig))
	assert.Contains(t, err.Error(), "WBTC")
}

func TestNegativeValueRejected(t *testing.T) {
	path := writeGenesis(t, `{
		"pool_parameters": {"owner": "0x1", "fee_recipient": "0x2"},
		"asset_parameters": [
			{"asset_name": "ETH", "token": {"address": "0x10", "decimals": 18}, "fee_rate": -0.1},
			{"asset_name": "USDC", "token": {"address": "0x11", "decimals": 6}}
		]
	}`)
	_, err := Load("mainnet", path, "", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ETH: invalid fee_rate")
}

func TestSingleAssetRejected(t *testing.T) {
	path := writeGenesis(t, `{
		"pool_parameters": {"owner": "0x1"},
		"asset_parameters": [{"asset_name": "ETH", "token": {"address": "0x10", "decimals": 18}}]
	}`)
	_, err := Load("mainnet", path, "", "")
	assert.Error(t, err)
}

func TestMalformedJSON(t *testing.T) {
	path := writeGenesis(t, `{"asset_parameters": [`)
	_, err := Load("mainnet", path, "", "")
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrConfig))
}

func TestSaveDeploymentRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "deployment.json")
	in := model.ProtocolAddresses{
		PoolFactory: "0x1",
		Oracle:      "0x2",
		Pragma:      model.PragmaAddresses{Oracle: "0x3", SummaryStats: "0x4"},
	}
	require.NoError(t, SaveDeployment(path, in))

	out, err := LoadDeployment(path)
	require.NoError(t, err)
	assert.Equal(t, in, *out)
}

func TestAggregationModeIsCaseSensitive(t *testing.T) {
	for raw, want := range map[string]model.AggregationMode{
		"median": model.AggregationMedian,
		"Median": model.AggregationMedian,
		"MEDIAN": model.AggregationMean,
		"mEdIaN": model.AggregationMean,
		"mean":   model.AggregationMean,
		"":       model.AggregationMean,
	} {
		assert.Equal(t, want, aggregationMode(raw), raw)
	}
}
