// Package poolconfig turns the genesis pool JSON and the deployment address
// file into the typed, scaled records the deployer submits on-chain.
package poolconfig

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"math/big"
	"os"

	"github.com/GoPolymarket/vesu-deployer/internal/model"
	"github.com/GoPolymarket/vesu-deployer/internal/pkg/apperrors"
	"github.com/GoPolymarket/vesu-deployer/internal/pkg/fixedpoint"
	"github.com/shopspring/decimal"
)

const DefaultPoolName = "genesis-pool"

type genesisFile struct {
	PoolParameters  poolEntry    `json:"pool_parameters"`
	AssetParameters []assetEntry `json:"asset_parameters"`
	PairParameters  []pairEntry  `json:"pair_parameters"`
}

type poolEntry struct {
	Owner        string `json:"owner"`
	Curator      string `json:"curator"`
	FeeRecipient string `json:"fee_recipient"`
}

type tokenEntry struct {
	Symbol   string          `json:"symbol"`
	Decimals decimal.Decimal `json:"decimals"`
	Address  string          `json:"address"`
	IsLegacy bool            `json:"is_legacy"`
}

type pragmaEntry struct {
	Oracle          string          `json:"oracle"`
	SummaryStats    string          `json:"summary_stats"`
	PragmaKey       pragmaKey       `json:"pragma_key"`
	Timeout         decimal.Decimal `json:"timeout"`
	NumberOfSources decimal.Decimal `json:"number_of_sources"`
	StartTimeOffset decimal.Decimal `json:"start_time_offset"`
	TimeWindow      decimal.Decimal `json:"time_window"`
	AggregationMode string          `json:"aggregation_mode"`
}

type vTokenEntry struct {
	Name   string `json:"v_token_name"`
	Symbol string `json:"v_token_symbol"`
}

type assetEntry struct {
	AssetName string      `json:"asset_name"`
	Token     tokenEntry  `json:"token"`
	Pragma    pragmaEntry `json:"pragma"`
	VToken    vTokenEntry `json:"v_token"`

	Floor                      decimal.Decimal `json:"floor"`
	InitialFullUtilizationRate decimal.Decimal `json:"initial_full_utilization_rate"`
	MaxUtilization             decimal.Decimal `json:"max_utilization"`
	FeeRate                    decimal.Decimal `json:"fee_rate"`

	MinTargetUtilization   decimal.Decimal `json:"min_target_utilization"`
	MaxTargetUtilization   decimal.Decimal `json:"max_target_utilization"`
	TargetUtilization      decimal.Decimal `json:"target_utilization"`
	MinFullUtilizationRate decimal.Decimal `json:"min_full_utilization_rate"`
	MaxFullUtilizationRate decimal.Decimal `json:"max_full_utilization_rate"`
	ZeroUtilizationRate    decimal.Decimal `json:"zero_utilization_rate"`
	RateHalfLife           decimal.Decimal `json:"rate_half_life"`
	TargetRatePercent      decimal.Decimal `json:"target_rate_percent"`
}

type pairEntry struct {
	CollateralAssetName string          `json:"collateral_asset_name"`
	DebtAssetName       string          `json:"debt_asset_name"`
	MaxLTV              decimal.Decimal `json:"max_ltv"`
	LiquidationDiscount decimal.Decimal `json:"liquidation_discount"`
	DebtCap             decimal.Decimal `json:"debt_cap"`
}

// pragmaKey accepts either a JSON string ("ETH/USD", "0x...") or a number.
type pragmaKey string

func (k *pragmaKey) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*k = pragmaKey(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("pragma_key must be a string or number: %w", err)
	}
	*k = pragmaKey(n.String())
	return nil
}

// Load reads the genesis JSON at configPath and, if present, the deployment
// JSON at deploymentPath, and resolves them into a model.Config named name.
// The single pool entry is keyed by poolName.
func Load(name, configPath, deploymentPath, poolName string) (*model.Config, error) {
	raw, err := os.ReadFile(configPath)
	if err != nil {
		return nil, apperrors.New(apperrors.ErrConfig, "read pool config", err)
	}
	var genesis genesisFile
	if err := json.Unmarshal(raw, &genesis); err != nil {
		return nil, apperrors.New(apperrors.ErrConfig, "parse pool config "+configPath, err)
	}

	deployment, err := LoadDeployment(deploymentPath)
	if err != nil {
		return nil, err
	}

	return build(name, &genesis, deployment, poolName)
}

// build resolves an already decoded genesis file. deployment may be nil.
func build(name string, genesis *genesisFile, deployment *model.ProtocolAddresses, poolName string) (*model.Config, error) {
	if len(genesis.AssetParameters) == 0 {
		return nil, apperrors.NewConfig("asset_parameters is empty")
	}
	if poolName == "" {
		poolName = DefaultPoolName
	}
	if deployment == nil {
		deployment = &model.ProtocolAddresses{}
	}

	params, err := buildPoolParams(poolName, genesis)
	if err != nil {
		return nil, err
	}
	env, err := buildEnv(genesis.AssetParameters)
	if err != nil {
		return nil, err
	}

	first := genesis.AssetParameters[0].Pragma
	protocol := model.ProtocolAddresses{
		PoolFactory: orZero(deployment.PoolFactory),
		Pool:        orZero(deployment.Pool),
		Oracle:      orZero(deployment.Oracle),
		Pragma: model.PragmaAddresses{
			Oracle:       orZero(deployment.Pragma.Oracle, first.Oracle),
			SummaryStats: orZero(deployment.Pragma.SummaryStats, first.SummaryStats),
		},
		Ekubo:     model.EkuboAddresses{Core: orZero(deployment.Ekubo.Core)},
		Singleton: orZero(deployment.Singleton),
	}

	return &model.Config{
		Name:     name,
		Protocol: protocol,
		Env:      env,
		Pools: map[string]model.PoolConfig{
			poolName: {Params: *params},
		},
	}, nil
}

func buildPoolParams(poolName string, genesis *genesisFile) (*model.CreatePoolParams, error) {
	assets := genesis.AssetParameters
	if len(assets) < 2 {
		return nil, apperrors.NewConfig("pool needs at least two assets, got %d", len(assets))
	}

	curator := genesis.PoolParameters.Curator
	if curator == "" {
		curator = genesis.PoolParameters.Owner
	}
	params := &model.CreatePoolParams{
		Name:                poolName,
		Owner:               genesis.PoolParameters.Owner,
		Curator:             curator,
		FeeRecipient:        genesis.PoolParameters.FeeRecipient,
		AssetParams:         make([]model.AssetParams, 0, len(assets)),
		VTokenParams:        make([]model.VTokenParams, 0, len(assets)),
		InterestRateConfigs: make([]model.InterestRateConfig, 0, len(assets)),
		OracleParams:        make([]model.OracleParams, 0, len(assets)),
		PairParams:          make([]model.PairParams, 0, len(genesis.PairParameters)),
	}

	for _, a := range assets {
		c := &converter{prefix: a.AssetName}

		params.AssetParams = append(params.AssetParams, model.AssetParams{
			Asset:                      a.Token.Address,
			Floor:                      c.scale("floor", a.Floor),
			InitialFullUtilizationRate: c.scale("initial_full_utilization_rate", a.InitialFullUtilizationRate),
			MaxUtilization:             c.scale("max_utilization", a.MaxUtilization),
			IsLegacy:                   a.Token.IsLegacy,
			FeeRate:                    c.scale("fee_rate", a.FeeRate),
		})

		params.VTokenParams = append(params.VTokenParams, model.VTokenParams{
			Name:      a.VToken.Name,
			Symbol:    a.VToken.Symbol,
			DebtAsset: firstOtherAsset(assets, a.AssetName),
		})

		params.InterestRateConfigs = append(params.InterestRateConfigs, model.InterestRateConfig{
			MinTargetUtilization:   c.utilization("min_target_utilization", a.MinTargetUtilization),
			MaxTargetUtilization:   c.utilization("max_target_utilization", a.MaxTargetUtilization),
			TargetUtilization:      c.utilization("target_utilization", a.TargetUtilization),
			MinFullUtilizationRate: c.scale("min_full_utilization_rate", a.MinFullUtilizationRate),
			MaxFullUtilizationRate: c.scale("max_full_utilization_rate", a.MaxFullUtilizationRate),
			ZeroUtilizationRate:    c.scale("zero_utilization_rate", a.ZeroUtilizationRate),
			RateHalfLife:           c.integer("rate_half_life", a.RateHalfLife),
			TargetRatePercent:      c.scale("target_rate_percent", a.TargetRatePercent),
		})

		params.OracleParams = append(params.OracleParams, model.OracleParams{
			Asset:           a.Token.Address,
			PragmaKey:       string(a.Pragma.PragmaKey),
			Timeout:         c.uint("pragma.timeout", a.Pragma.Timeout, math.MaxUint64),
			NumberOfSources: uint32(c.uint("pragma.number_of_sources", a.Pragma.NumberOfSources, math.MaxUint32)),
			StartTimeOffset: c.uint("pragma.start_time_offset", a.Pragma.StartTimeOffset, math.MaxUint64),
			TimeWindow:      c.uint("pragma.time_window", a.Pragma.TimeWindow, math.MaxUint64),
			AggregationMode: aggregationMode(a.Pragma.AggregationMode),
		})

		if c.err != nil {
			return nil, c.err
		}
	}

	for _, pair := range genesis.PairParameters {
		collateral := assetIndex(assets, pair.CollateralAssetName)
		if collateral < 0 {
			return nil, apperrors.NewConfig("pair references unknown collateral asset %q", pair.CollateralAssetName)
		}
		debt := assetIndex(assets, pair.DebtAssetName)
		if debt < 0 {
			return nil, apperrors.NewConfig("pair references unknown debt asset %q", pair.DebtAssetName)
		}
		c := &converter{prefix: pair.CollateralAssetName + "/" + pair.DebtAssetName}
		params.PairParams = append(params.PairParams, model.PairParams{
			AssetIndexes: model.AssetIndexes{
				CollateralAssetIndex: uint32(collateral),
				DebtAssetIndex:       uint32(debt),
			},
			MaxLTV:            c.scale("max_ltv", pair.MaxLTV),
			LiquidationFactor: c.scale("liquidation_discount", pair.LiquidationDiscount),
			DebtCap:           c.scale("debt_cap", pair.DebtCap),
		})
		if c.err != nil {
			return nil, c.err
		}
	}

	return params, nil
}

func buildEnv(assets []assetEntry) ([]model.EnvAssetParams, error) {
	env := make([]model.EnvAssetParams, 0, len(assets))
	for _, a := range assets {
		c := &converter{prefix: a.AssetName}
		decimals := c.uint("token.decimals", a.Token.Decimals, math.MaxUint8)
		feeRate := c.scale("fee_rate", a.FeeRate)
		if c.err != nil {
			return nil, c.err
		}
		env = append(env, model.EnvAssetParams{
			Name:      a.AssetName,
			Symbol:    a.Token.Symbol,
			Decimals:  uint8(decimals),
			Mint:      big.NewInt(0),
			PragmaKey: string(a.Pragma.PragmaKey),
			Price:     big.NewInt(0),
			IsLegacy:  a.Token.IsLegacy,
			FeeRate:   feeRate,
			Address:   a.Token.Address,
		})
	}
	return env, nil
}

// converter remembers the first conversion error so field lists stay flat.
type converter struct {
	prefix string
	err    error
}

func (c *converter) fail(field string, err error) {
	if c.err == nil {
		c.err = apperrors.New(apperrors.ErrConfig, fmt.Sprintf("%s: invalid %s", c.prefix, field), err)
	}
}

func (c *converter) scale(field string, v decimal.Decimal) *big.Int {
	out, err := fixedpoint.ToScale(v)
	if err != nil {
		c.fail(field, err)
		return new(big.Int)
	}
	return out
}

func (c *converter) utilization(field string, v decimal.Decimal) *big.Int {
	out, err := fixedpoint.ToUtilizationScale(v)
	if err != nil {
		c.fail(field, err)
		return new(big.Int)
	}
	return out
}

func (c *converter) integer(field string, v decimal.Decimal) *big.Int {
	out, err := fixedpoint.ToInteger(v)
	if err != nil {
		c.fail(field, err)
		return new(big.Int)
	}
	return out
}

func (c *converter) uint(field string, v decimal.Decimal, max uint64) uint64 {
	out := c.integer(field, v)
	if !out.IsUint64() || out.Uint64() > max {
		c.fail(field, errors.New("value out of range"))
		return 0
	}
	return out.Uint64()
}

func aggregationMode(raw string) model.AggregationMode {
	// only the two spellings the genesis files use
	if raw == "median" || raw == "Median" {
		return model.AggregationMedian
	}
	return model.AggregationMean
}

func assetIndex(assets []assetEntry, name string) int {
	for i, a := range assets {
		if a.AssetName == name {
			return i
		}
	}
	return -1
}

func firstOtherAsset(assets []assetEntry, name string) string {
	for _, a := range assets {
		if a.AssetName != name {
			return a.Token.Address
		}
	}
	return model.ZeroAddress
}

func orZero(candidates ...string) string {
	for _, c := range candidates {
		if c != "" {
			return c
		}
	}
	return model.ZeroAddress
}
