package model

import "math/big"

// AggregationMode selects how the oracle combines price sources.
type AggregationMode int

const (
	AggregationMedian AggregationMode = iota
	AggregationMean
	AggregationError
)

func (m AggregationMode) String() string {
	switch m {
	case AggregationMedian:
		return "Median"
	case AggregationMean:
		return "Mean"
	default:
		return "Error"
	}
}

func (m AggregationMode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// AssetParams 单个资产的池参数. Rates and bounds are scaled by SCALE.
type AssetParams struct {
	Asset                      string   `json:"asset"`
	Floor                      *big.Int `json:"floor"`
	InitialFullUtilizationRate *big.Int `json:"initial_full_utilization_rate"`
	MaxUtilization             *big.Int `json:"max_utilization"`
	IsLegacy                   bool     `json:"is_legacy"`
	FeeRate                    *big.Int `json:"fee_rate"`
}

type VTokenParams struct {
	Name      string `json:"v_token_name"`
	Symbol    string `json:"v_token_symbol"`
	DebtAsset string `json:"debt_asset"`
}

// InterestRateConfig 利率曲线参数. Utilization bounds use UTILIZATION_SCALE,
// rates use SCALE, RateHalfLife is in seconds.
type InterestRateConfig struct {
	MinTargetUtilization   *big.Int `json:"min_target_utilization"`
	MaxTargetUtilization   *big.Int `json:"max_target_utilization"`
	TargetUtilization      *big.Int `json:"target_utilization"`
	MinFullUtilizationRate *big.Int `json:"min_full_utilization_rate"`
	MaxFullUtilizationRate *big.Int `json:"max_full_utilization_rate"`
	ZeroUtilizationRate    *big.Int `json:"zero_utilization_rate"`
	RateHalfLife           *big.Int `json:"rate_half_life"`
	TargetRatePercent      *big.Int `json:"target_rate_percent"`
}

// OracleParams 预言机参数 (Pragma price feed).
type OracleParams struct {
	Asset           string          `json:"asset"`
	PragmaKey       string          `json:"pragma_key"`
	Timeout         uint64          `json:"timeout"`
	NumberOfSources uint32          `json:"number_of_sources"`
	StartTimeOffset uint64          `json:"start_time_offset"`
	TimeWindow      uint64          `json:"time_window"`
	AggregationMode AggregationMode `json:"aggregation_mode"`
}

type AssetIndexes struct {
	CollateralAssetIndex uint32 `json:"collateral_asset_index"`
	DebtAssetIndex       uint32 `json:"debt_asset_index"`
}

// PairParams 抵押/借贷资产对的风险参数.
type PairParams struct {
	AssetIndexes
	MaxLTV            *big.Int `json:"max_ltv"`
	LiquidationFactor *big.Int `json:"liquidation_factor"`
	DebtCap           *big.Int `json:"debt_cap"`
}

type CreatePoolParams struct {
	Name                string               `json:"name"`
	Owner               string               `json:"owner"`
	Curator             string               `json:"curator"`
	FeeRecipient        string               `json:"fee_recipient"`
	AssetParams         []AssetParams        `json:"asset_params"`
	VTokenParams        []VTokenParams       `json:"v_token_params"`
	InterestRateConfigs []InterestRateConfig `json:"interest_rate_configs"`
	OracleParams        []OracleParams       `json:"pragma_oracle_params"`
	PairParams          []PairParams         `json:"pair_params"`
}

// AssetIndex returns the position of asset in the pool's asset list, or -1.
func (p *CreatePoolParams) AssetIndex(asset string) int {
	for i, a := range p.AssetParams {
		if sameAddress(a.Asset, asset) {
			return i
		}
	}
	return -1
}

// EnvAssetParams describes a mock ERC20 used to stand up a devnet environment.
type EnvAssetParams struct {
	Name      string   `json:"name"`
	Symbol    string   `json:"symbol"`
	Decimals  uint8    `json:"decimals"`
	Mint      *big.Int `json:"mint"`
	PragmaKey string   `json:"pragma_key"`
	Price     *big.Int `json:"price"`
	IsLegacy  bool     `json:"is_legacy"`
	FeeRate   *big.Int `json:"fee_rate"`
	Address   string   `json:"address"`
}

// AssetConfig mirrors the on-chain per-asset state of a pool.
type AssetConfig struct {
	TotalCollateralShares   *big.Int `json:"total_collateral_shares"`
	TotalNominalDebt        *big.Int `json:"total_nominal_debt"`
	Reserve                 *big.Int `json:"reserve"`
	MaxUtilization          *big.Int `json:"max_utilization"`
	Floor                   *big.Int `json:"floor"`
	Scale                   *big.Int `json:"scale"`
	IsLegacy                bool     `json:"is_legacy"`
	LastUpdated             uint64   `json:"last_updated"`
	LastRateAccumulator     *big.Int `json:"last_rate_accumulator"`
	LastFullUtilizationRate *big.Int `json:"last_full_utilization_rate"`
	FeeRate                 *big.Int `json:"fee_rate"`
}
