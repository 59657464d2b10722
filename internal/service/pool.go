package service

import (
	"context"
	"fmt"

	"github.com/NethermindEth/juno/core/felt"

	"github.com/GoPolymarket/vesu-deployer/internal/calldata"
	"github.com/GoPolymarket/vesu-deployer/internal/model"
	"github.com/GoPolymarket/vesu-deployer/internal/pkg/apperrors"
	"github.com/GoPolymarket/vesu-deployer/internal/starknet"
)

// Pool wraps one lending pool. Lend and Borrow act as the lender and borrower
// accounts; Liquidate targets the borrower and is signed by the lender.
type Pool struct {
	protocol *Protocol
	Params   model.CreatePoolParams
}

func NewPool(protocol *Protocol, params model.CreatePoolParams) *Pool {
	return &Pool{protocol: protocol, Params: params}
}

func (p *Pool) contract() (*Contract, error) {
	if p.protocol.Pool == nil {
		return nil, apperrors.NewConfig("pool %s has no deployed address", p.Params.Name)
	}
	return p.protocol.Pool, nil
}

// Lend calls modify_position for the lender. User is ignored.
func (p *Pool) Lend(ctx context.Context, params model.ModifyPositionParams) (*felt.Felt, error) {
	lender := p.protocol.deployer.Lender
	params.User = lender.Address().String()
	return p.modifyPosition(ctx, lender, params)
}

// Borrow calls modify_position for the borrower. User is ignored.
func (p *Pool) Borrow(ctx context.Context, params model.ModifyPositionParams) (*felt.Felt, error) {
	borrower := p.protocol.deployer.Borrower
	params.User = borrower.Address().String()
	return p.modifyPosition(ctx, borrower, params)
}

func (p *Pool) modifyPosition(ctx context.Context, account starknet.Client, params model.ModifyPositionParams) (*felt.Felt, error) {
	pool, err := p.contract()
	if err != nil {
		return nil, err
	}
	args, err := calldata.ModifyPosition(params)
	if err != nil {
		return nil, apperrors.New(apperrors.ErrInvalidRequest, "modify_position calldata", err)
	}
	return account.Execute(ctx, []starknet.Call{{To: pool.Address, Entrypoint: "modify_position", Calldata: args}})
}

// Liquidate liquidates the borrower's position from the lender account.
func (p *Pool) Liquidate(ctx context.Context, params model.LiquidatePositionParams) (*felt.Felt, error) {
	pool, err := p.contract()
	if err != nil {
		return nil, err
	}
	d := p.protocol.deployer
	params.User = d.Borrower.Address().String()
	args, err := calldata.LiquidatePosition(params)
	if err != nil {
		return nil, apperrors.New(apperrors.ErrInvalidRequest, "liquidate_position calldata", err)
	}
	return d.Lender.Execute(ctx, []starknet.Call{{To: pool.Address, Entrypoint: "liquidate_position", Calldata: args}})
}

// BorrowAndSupplyRates reads the current rates of asset from the pool.
func (p *Pool) BorrowAndSupplyRates(ctx context.Context, asset string) (*Rates, error) {
	idx := p.Params.AssetIndex(asset)
	if idx < 0 || idx >= len(p.Params.InterestRateConfigs) {
		return nil, apperrors.NewNotFound(fmt.Sprintf("asset %s is not in pool %s", asset, p.Params.Name))
	}
	pool, err := p.contract()
	if err != nil {
		return nil, err
	}
	return CalculateRates(ctx, p.protocol.deployer.Deployer, pool.Address, p.Params.AssetParams[idx].Asset, p.Params.InterestRateConfigs[idx])
}
