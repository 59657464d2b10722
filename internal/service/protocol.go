package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/NethermindEth/juno/core/felt"

	"github.com/GoPolymarket/vesu-deployer/internal/calldata"
	"github.com/GoPolymarket/vesu-deployer/internal/model"
	"github.com/GoPolymarket/vesu-deployer/internal/pkg/apperrors"
	"github.com/GoPolymarket/vesu-deployer/internal/starknet"
)

// Protocol is the set of deployed core contracts.
type Protocol struct {
	PoolFactory *Contract
	Pool        *Contract
	Oracle      *Contract
	Pragma      PragmaContracts
	Assets      []*Contract

	deployer *Deployer
}

type CreatePoolOptions struct {
	// DevnetEnv swaps configured asset addresses for the deployed mocks.
	DevnetEnv bool
	// PrintParams dumps the final params (only with DevnetEnv).
	PrintParams bool
}

// CreatePool creates the configured pool called name.
func (p *Protocol) CreatePool(ctx context.Context, name string, opts CreatePoolOptions) (*Pool, *felt.Felt, error) {
	poolCfg, ok := p.deployer.Config.Pools[name]
	if !ok {
		return nil, nil, apperrors.NewNotFound(fmt.Sprintf("pool %q is not configured", name))
	}
	params := poolCfg.Params
	if opts.DevnetEnv {
		patched, err := p.PatchPoolParamsWithEnv(params)
		if err != nil {
			return nil, nil, err
		}
		params = patched
		if opts.PrintParams {
			if err := PrintParams(p.deployer.Out(), &params); err != nil {
				return nil, nil, err
			}
		}
	}
	return p.CreatePoolFromParams(ctx, &params)
}

// CreatePoolFromParams has the owner call create_pool and binds the new pool
// from the CreatePool event.
func (p *Protocol) CreatePoolFromParams(ctx context.Context, params *model.CreatePoolParams) (*Pool, *felt.Felt, error) {
	d := p.deployer
	if p.Oracle == nil {
		return nil, nil, apperrors.NewConfig("protocol has no oracle")
	}
	args, err := calldata.CreatePool(params, p.Oracle.String())
	if err != nil {
		return nil, nil, apperrors.New(apperrors.ErrConfig, "create_pool calldata", err)
	}
	receipt, err := executeAndWait(ctx, d.Owner, []starknet.Call{{
		To:         p.PoolFactory.Address,
		Entrypoint: "create_pool",
		Calldata:   args,
	}})
	if err != nil {
		return nil, nil, fmt.Errorf("create pool %s: %w", params.Name, err)
	}
	ev, err := starknet.FindEvent(receipt, p.PoolFactory.Address, eventCreatePool)
	if err != nil {
		return nil, nil, err
	}
	addr, err := starknet.EventAddress(ev)
	if err != nil {
		return nil, nil, err
	}
	pool, err := d.LoadContract(ctx, "Pool", addr.String())
	if err != nil {
		return nil, nil, err
	}
	d.record(ctx, receipt.TxHash, pool)
	d.Config.Protocol.Pool = pool.String()
	p.Pool = pool
	return NewPool(p, *params), receipt.TxHash, nil
}

// AddAssetsToOracle registers each asset's Pragma feed, one awaited
// transaction per asset.
func (p *Protocol) AddAssetsToOracle(ctx context.Context, params []model.OracleParams) error {
	owner := p.deployer.Owner
	for _, param := range params {
		args, err := calldata.AddAsset(param)
		if err != nil {
			return apperrors.New(apperrors.ErrConfig, "add_asset "+param.Asset, err)
		}
		if _, err := executeAndWait(ctx, owner, []starknet.Call{{
			To:         p.Oracle.Address,
			Entrypoint: "add_asset",
			Calldata:   args,
		}}); err != nil {
			return fmt.Errorf("add asset %s to oracle: %w", param.Asset, err)
		}
	}
	return nil
}

// LoadPool binds the configured pool called name; "" picks the first pool
// by name.
func (p *Protocol) LoadPool(name string) (*Pool, error) {
	cfg := p.deployer.Config
	if name == "" {
		names := sortedPoolNames(cfg)
		if len(names) == 0 {
			return nil, apperrors.NewNotFound("no pools configured")
		}
		name = names[0]
	}
	poolCfg, ok := cfg.Pools[name]
	if !ok {
		return nil, apperrors.NewNotFound(fmt.Sprintf("pool %q is not configured", name))
	}
	return NewPool(p, poolCfg.Params), nil
}

// PoolParams returns the configured params of pool name ("" for the first).
func (p *Protocol) PoolParams(name string) (*model.CreatePoolParams, error) {
	pool, err := p.LoadPool(name)
	if err != nil {
		return nil, err
	}
	return &pool.Params, nil
}

// Rates reads the current borrow and supply rates of asset in pool name.
func (p *Protocol) Rates(ctx context.Context, name, asset string) (*Rates, error) {
	pool, err := p.LoadPool(name)
	if err != nil {
		return nil, err
	}
	return pool.BorrowAndSupplyRates(ctx, asset)
}

// PatchPoolParamsWithEnv replaces the configured asset addresses with the
// deployed mock assets (by position) and the owner with the owner account.
// vToken debt assets and oracle params follow the same mapping.
func (p *Protocol) PatchPoolParamsWithEnv(params model.CreatePoolParams) (model.CreatePoolParams, error) {
	if len(p.Assets) < len(params.AssetParams) {
		return params, apperrors.NewConfig("pool has %d assets but only %d mock assets are deployed",
			len(params.AssetParams), len(p.Assets))
	}
	mapping := make(map[string]string, len(params.AssetParams))

	assets := make([]model.AssetParams, len(params.AssetParams))
	for i, a := range params.AssetParams {
		mapping[a.Asset] = p.Assets[i].String()
		a.Asset = p.Assets[i].String()
		assets[i] = a
	}
	remap := func(addr string) string {
		if v, ok := mapping[addr]; ok {
			return v
		}
		return addr
	}

	vtokens := make([]model.VTokenParams, len(params.VTokenParams))
	for i, v := range params.VTokenParams {
		v.DebtAsset = remap(v.DebtAsset)
		vtokens[i] = v
	}
	oracles := make([]model.OracleParams, len(params.OracleParams))
	for i, o := range params.OracleParams {
		o.Asset = remap(o.Asset)
		oracles[i] = o
	}

	params.AssetParams = assets
	params.VTokenParams = vtokens
	params.OracleParams = oracles
	params.Owner = p.deployer.Owner.Address().String()
	return params, nil
}

// LogAddresses prints a summary of the protocol addresses.
func (p *Protocol) LogAddresses(title string) {
	entries := []namedAddress{
		{"poolFactory", p.PoolFactory.String()},
		{"pool", p.Pool.String()},
		{"oracle", p.Oracle.String()},
		{"pragma.oracle", p.Pragma.Oracle.String()},
		{"pragma.summary_stats", p.Pragma.SummaryStats.String()},
	}
	for i, a := range p.Assets {
		entries = append(entries, namedAddress{fmt.Sprintf("assets[%d]", i), a.String()})
	}
	logAddresses(p.deployer.Out(), title, entries)
}

type namedAddress struct {
	Name    string
	Address string
}

func logAddresses(w io.Writer, title string, entries []namedAddress) {
	fmt.Fprintln(w, title)
	for _, e := range entries {
		fmt.Fprintf(w, "  %s: %s\n", e.Name, e.Address)
	}
}

// PrintParams writes params as indented JSON.
func PrintParams(w io.Writer, params *model.CreatePoolParams) error {
	data, err := json.MarshalIndent(params, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(w, "Pool params:")
	_, err = fmt.Fprintln(w, string(data))
	return err
}

func sortedPoolNames(cfg *model.Config) []string {
	names := make([]string, 0, len(cfg.Pools))
	for name := range cfg.Pools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
