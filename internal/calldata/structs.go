package calldata

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/NethermindEth/juno/core/felt"

	"github.com/GoPolymarket/vesu-deployer/internal/model"
)

// maxU64 bounds the u64 fields (max_ltv, liquidation_factor) of PairParams.
var maxU64 = new(big.Int).SetUint64(^uint64(0))

func (e *Encoder) u64Big(field string, v *big.Int) *Encoder {
	if v == nil || v.Sign() < 0 || v.Cmp(maxU64) > 0 {
		return e.fail(fmt.Errorf("%w: %s %v", ErrOutOfRange, field, v))
	}
	return e.U64(v.Uint64())
}

func (e *Encoder) AssetParams(p model.AssetParams) *Encoder {
	return e.Address(p.Asset).
		U256(p.Floor).
		U256(p.InitialFullUtilizationRate).
		U256(p.MaxUtilization).
		Bool(p.IsLegacy).
		U256(p.FeeRate)
}

func (e *Encoder) VTokenParams(p model.VTokenParams) *Encoder {
	return e.ByteArray(p.Name).ByteArray(p.Symbol).Address(p.DebtAsset)
}

func (e *Encoder) InterestRateConfig(c model.InterestRateConfig) *Encoder {
	return e.U256(c.MinTargetUtilization).
		U256(c.MaxTargetUtilization).
		U256(c.TargetUtilization).
		U256(c.MinFullUtilizationRate).
		U256(c.MaxFullUtilizationRate).
		U256(c.ZeroUtilizationRate).
		U256(c.RateHalfLife).
		U256(c.TargetRatePercent)
}

func (e *Encoder) PairParams(p model.PairParams) *Encoder {
	return e.U32(p.CollateralAssetIndex).
		U32(p.DebtAssetIndex).
		u64Big("max_ltv", p.MaxLTV).
		u64Big("liquidation_factor", p.LiquidationFactor).
		U128(p.DebtCap)
}

// PragmaKey is a hex/decimal felt when it looks numeric, a short string otherwise.
func (e *Encoder) PragmaKey(key string) *Encoder {
	if strings.HasPrefix(key, "0x") || isDecimal(key) {
		f, err := ParseFelt(key)
		if err != nil {
			return e.fail(fmt.Errorf("pragma_key %q: %w", key, err))
		}
		return e.push(f)
	}
	return e.ShortString(key)
}

// OracleConfig is the second argument of oracle.add_asset.
func (e *Encoder) OracleConfig(p model.OracleParams) *Encoder {
	return e.PragmaKey(p.PragmaKey).
		U64(p.Timeout).
		U32(p.NumberOfSources).
		U64(p.StartTimeOffset).
		U64(p.TimeWindow).
		Enum(int(p.AggregationMode))
}

func (e *Encoder) Amount(a model.Amount) *Encoder {
	return e.Enum(int(a.Type)).Enum(int(a.Denomination)).I257(a.Value)
}

func (e *Encoder) UnsignedAmount(a model.UnsignedAmount) *Encoder {
	return e.Enum(int(a.Type)).Enum(int(a.Denomination)).U256(a.Value)
}

func isDecimal(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

// CreatePool encodes pool_factory.create_pool. Oracle params are registered
// separately through oracle.add_asset.
func CreatePool(p *model.CreatePoolParams, oracle string) ([]*felt.Felt, error) {
	e := NewEncoder().
		ShortString(p.Name).
		Address(p.Curator).
		Address(oracle).
		Address(p.FeeRecipient)

	e.Len(len(p.AssetParams))
	for _, a := range p.AssetParams {
		e.AssetParams(a)
	}
	e.Len(len(p.VTokenParams))
	for _, v := range p.VTokenParams {
		e.VTokenParams(v)
	}
	e.Len(len(p.InterestRateConfigs))
	for _, c := range p.InterestRateConfigs {
		e.InterestRateConfig(c)
	}
	e.Len(len(p.PairParams))
	for _, pp := range p.PairParams {
		e.PairParams(pp)
	}
	return e.Result()
}

// AddAsset encodes oracle.add_asset(asset, config).
func AddAsset(p model.OracleParams) ([]*felt.Felt, error) {
	return NewEncoder().Address(p.Asset).OracleConfig(p).Result()
}

// CreateOracle encodes pool_factory.create_oracle(owner, pragma_oracle, pragma_summary).
func CreateOracle(owner, pragmaOracle, pragmaSummary string) ([]*felt.Felt, error) {
	return NewEncoder().Address(owner).Address(pragmaOracle).Address(pragmaSummary).Result()
}

// PoolFactoryConstructor encodes the PoolFactory constructor.
func PoolFactoryConstructor(owner string, poolClass, vTokenClass, oracleClass *felt.Felt) ([]*felt.Felt, error) {
	return NewEncoder().Address(owner).Felt(poolClass).Felt(vTokenClass).Felt(oracleClass).Result()
}

// MockAsset encodes the MockAsset constructor.
func MockAsset(p model.EnvAssetParams, recipient string) ([]*felt.Felt, error) {
	return NewEncoder().
		ByteArray(p.Name).
		ByteArray(p.Symbol).
		U8(p.Decimals).
		U256(p.Mint).
		Address(recipient).
		Result()
}

// SetPrice encodes mock_pragma_oracle.set_price(pair_id, price).
func SetPrice(pragmaKey string, price *big.Int) ([]*felt.Felt, error) {
	return NewEncoder().PragmaKey(pragmaKey).U128(price).Result()
}

func ModifyPosition(p model.ModifyPositionParams) ([]*felt.Felt, error) {
	return NewEncoder().
		Address(p.CollateralAsset).
		Address(p.DebtAsset).
		Address(p.User).
		Amount(p.Collateral).
		Amount(p.Debt).
		Result()
}

func LiquidatePosition(p model.LiquidatePositionParams) ([]*felt.Felt, error) {
	return NewEncoder().
		Address(p.CollateralAsset).
		Address(p.DebtAsset).
		Address(p.User).
		U256(p.MinCollateralToReceive).
		U256(p.DebtToRepay).
		Result()
}

// Approve encodes erc20.approve(spender, amount).
func Approve(spender string, amount *big.Int) ([]*felt.Felt, error) {
	return NewEncoder().Address(spender).U256(amount).Result()
}

// InterestRate encodes pool.interest_rate(asset, utilization, last_updated, last_full_utilization_rate).
func InterestRate(asset string, utilization *big.Int, lastUpdated uint64, lastFullUtilizationRate *big.Int) ([]*felt.Felt, error) {
	return NewEncoder().
		Address(asset).
		U256(utilization).
		U64(lastUpdated).
		U256(lastFullUtilizationRate).
		Result()
}
