package service

import (
	"context"
	"fmt"
	"math/big"

	"github.com/NethermindEth/juno/core/felt"
	"github.com/shopspring/decimal"

	"github.com/GoPolymarket/vesu-deployer/internal/calldata"
	"github.com/GoPolymarket/vesu-deployer/internal/model"
	"github.com/GoPolymarket/vesu-deployer/internal/pkg/fixedpoint"
	"github.com/GoPolymarket/vesu-deployer/internal/starknet"
)

// Rates are annualized, as fractions (0.05 = 5%).
type Rates struct {
	Asset             string          `json:"asset"`
	Utilization       decimal.Decimal `json:"utilization"`
	TargetUtilization decimal.Decimal `json:"target_utilization"`
	RatePerSecond     *big.Int        `json:"rate_per_second"`
	BorrowAPR         decimal.Decimal `json:"borrow_apr"`
	SupplyAPR         decimal.Decimal `json:"supply_apr"`
}

// CalculateRates reads utilization, asset_config and interest_rate from the
// pool and annualizes the result:
//
//	borrow = rate * SECONDS_PER_YEAR / SCALE
//	supply = borrow * utilization / SCALE * (1 - fee_rate / SCALE)
func CalculateRates(ctx context.Context, caller starknet.Caller, pool *felt.Felt, asset string, irc model.InterestRateConfig) (*Rates, error) {
	assetFelt, err := calldata.ParseFelt(asset)
	if err != nil {
		return nil, fmt.Errorf("asset %q: %w", asset, err)
	}

	out, err := caller.Call(ctx, starknet.Call{To: pool, Entrypoint: "utilization", Calldata: []*felt.Felt{assetFelt}})
	if err != nil {
		return nil, err
	}
	utilization, err := calldata.DecodeU256(out)
	if err != nil {
		return nil, fmt.Errorf("decode utilization: %w", err)
	}

	out, err = caller.Call(ctx, starknet.Call{To: pool, Entrypoint: "asset_config", Calldata: []*felt.Felt{assetFelt}})
	if err != nil {
		return nil, err
	}
	cfg, err := calldata.DecodeAssetConfig(out)
	if err != nil {
		return nil, err
	}

	args, err := calldata.InterestRate(asset, utilization, cfg.LastUpdated, cfg.LastFullUtilizationRate)
	if err != nil {
		return nil, err
	}
	out, err = caller.Call(ctx, starknet.Call{To: pool, Entrypoint: "interest_rate", Calldata: args})
	if err != nil {
		return nil, err
	}
	rate, err := calldata.DecodeU256(out)
	if err != nil {
		return nil, fmt.Errorf("decode interest_rate: %w", err)
	}

	borrow, supply := annualize(rate, utilization, cfg.FeeRate)
	return &Rates{
		Asset:             asset,
		Utilization:       fixedpoint.FromScale(utilization),
		TargetUtilization: fixedpoint.FromUtilizationScale(irc.TargetUtilization),
		RatePerSecond:     rate,
		BorrowAPR:         borrow,
		SupplyAPR:         supply,
	}, nil
}

func annualize(ratePerSecond, utilization, feeRate *big.Int) (borrow, supply decimal.Decimal) {
	borrow = fixedpoint.FromScale(ratePerSecond).Mul(decimal.NewFromInt(fixedpoint.SecondsPerYear))
	supply = borrow.
		Mul(fixedpoint.FromScale(utilization)).
		Mul(decimal.NewFromInt(1).Sub(fixedpoint.FromScale(feeRate)))
	return borrow, supply
}
