package service

import (
	"context"
	"fmt"
	"io"
	"math/big"
	"os"

	"github.com/NethermindEth/juno/core/felt"
	"golang.org/x/sync/errgroup"

	"github.com/GoPolymarket/vesu-deployer/internal/calldata"
	"github.com/GoPolymarket/vesu-deployer/internal/config"
	"github.com/GoPolymarket/vesu-deployer/internal/manager"
	"github.com/GoPolymarket/vesu-deployer/internal/model"
	"github.com/GoPolymarket/vesu-deployer/internal/pkg/apperrors"
	"github.com/GoPolymarket/vesu-deployer/internal/pkg/logger"
	"github.com/GoPolymarket/vesu-deployer/internal/starknet"
)

const (
	eventCreateOracle = "vesu::pool_factory::PoolFactory::CreateOracle"
	eventCreatePool   = "vesu::pool_factory::PoolFactory::CreatePool"
)

// DefaultApprovalAmount is what the owner approves the pool factory to pull
// from each mock asset on devnet.
var DefaultApprovalAmount = big.NewInt(2000)

// Accounts are the signing roles. Outside devnet all four are the same account.
type Accounts struct {
	Deployer starknet.Client
	Owner    starknet.Client
	Lender   starknet.Client
	Borrower starknet.Client
}

// Contract is a deployed (or about to be deployed) contract instance.
type Contract struct {
	Name      string
	Address   *felt.Felt
	ClassHash *felt.Felt
}

func (c *Contract) String() string {
	if c == nil {
		return model.ZeroAddress
	}
	return c.Address.String()
}

type PragmaContracts struct {
	Oracle       *Contract
	SummaryStats *Contract
}

// EnvContracts are the mock contracts standing in for real assets and Pragma.
type EnvContracts struct {
	Assets []*Contract
	Pragma PragmaContracts
}

type DeployerOptions struct {
	Network        string
	ApprovalAmount *big.Int
	Periphery      config.PeripheryConfig
	Recorder       *Recorder
	DeploymentPath string
	// Out receives the human-readable summaries; defaults to stdout.
	Out            io.Writer
}

// Deployer declares classes and deploys contracts through the UDC.
type Deployer struct {
	Accounts
	Config *model.Config

	classes *manager.ClassManager
	opts    DeployerOptions
	newSalt func() (*felt.Felt, error)
}

func NewDeployer(accounts Accounts, cfg *model.Config, classes *manager.ClassManager, opts DeployerOptions) *Deployer {
	if opts.ApprovalAmount == nil {
		opts.ApprovalAmount = DefaultApprovalAmount
	}
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	return &Deployer{
		Accounts: accounts,
		Config:   cfg,
		classes:  classes,
		opts:     opts,
		newSalt:  starknet.RandomSalt,
	}
}

func (d *Deployer) Out() io.Writer {
	return d.opts.Out
}

// DeclareCached returns the class hash for name, declaring it at most once.
func (d *Deployer) DeclareCached(ctx context.Context, name string) (*felt.Felt, error) {
	return d.classes.DeclareCached(ctx, name)
}

// DeferContract prepares a UDC deployment of name without submitting it.
func (d *Deployer) DeferContract(ctx context.Context, name string, constructor []*felt.Felt) (*Contract, []starknet.Call, error) {
	classHash, err := d.DeclareCached(ctx, name)
	if err != nil {
		return nil, nil, err
	}
	salt, err := d.newSalt()
	if err != nil {
		return nil, nil, err
	}
	call := starknet.DeployCall(classHash, salt, constructor)
	contract := &Contract{
		Name:      name,
		Address:   starknet.PrecomputeAddress(classHash, salt, constructor),
		ClassHash: classHash,
	}
	return contract, []starknet.Call{call}, nil
}

// Execute submits calls from the deployer account as one transaction.
func (d *Deployer) Execute(ctx context.Context, calls []starknet.Call) (*felt.Felt, error) {
	return d.Deployer.Execute(ctx, calls)
}

func (d *Deployer) WaitForTransaction(ctx context.Context, txHash *felt.Felt) (*starknet.Receipt, error) {
	return d.Deployer.WaitForTransaction(ctx, txHash)
}

// executeAndWait submits calls from account and waits for inclusion.
func executeAndWait(ctx context.Context, account starknet.Client, calls []starknet.Call) (*starknet.Receipt, error) {
	txHash, err := account.Execute(ctx, calls)
	if err != nil {
		return nil, err
	}
	return account.WaitForTransaction(ctx, txHash)
}

// LoadContract binds to an existing contract, checking that it is deployed.
func (d *Deployer) LoadContract(ctx context.Context, name, address string) (*Contract, error) {
	addr, err := calldata.ParseFelt(address)
	if err != nil {
		return nil, apperrors.New(apperrors.ErrConfig, fmt.Sprintf("%s address %q", name, address), err)
	}
	classHash, err := d.Deployer.ClassHashAt(ctx, addr)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", name, err)
	}
	return &Contract{Name: name, Address: addr, ClassHash: classHash}, nil
}

// record is best effort: the contracts are already on chain.
func (d *Deployer) record(ctx context.Context, txHash *felt.Felt, contracts ...*Contract) {
	for _, c := range contracts {
		if c == nil {
			continue
		}
		err := d.opts.Recorder.Record(ctx, &model.DeploymentRecord{
			Network:   d.opts.Network,
			Contract:  c.Name,
			Address:   c.Address.String(),
			ClassHash: starknet.FeltString(c.ClassHash),
			TxHash:    starknet.FeltString(txHash),
		})
		if err != nil {
			logger.Warn("Deployment record not stored", "contract", c.Name, "address", c.Address.String(), "error", err)
		}
	}
}

// --- protocol ---

// DeferProtocol prepares the PoolFactory deployment. The pool, vToken and
// oracle classes are declared concurrently first.
func (d *Deployer) DeferProtocol(ctx context.Context) (*Contract, []starknet.Call, error) {
	names := []string{"Pool", "VToken", "Oracle"}
	hashes := make([]*felt.Felt, len(names))

	g, gctx := errgroup.WithContext(ctx)
	for i, name := range names {
		g.Go(func() error {
			h, err := d.DeclareCached(gctx, name)
			if err != nil {
				return err
			}
			hashes[i] = h
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	constructor, err := calldata.PoolFactoryConstructor(d.Owner.Address().String(), hashes[0], hashes[1], hashes[2])
	if err != nil {
		return nil, nil, err
	}
	return d.DeferContract(ctx, "PoolFactory", constructor)
}

// DeferOracle has the owner create the oracle through the factory and
// returns it once the CreateOracle event is seen.
func (d *Deployer) DeferOracle(ctx context.Context, poolFactory *Contract, pragma model.PragmaAddresses) (*Contract, error) {
	args, err := calldata.CreateOracle(d.Owner.Address().String(), pragma.Oracle, pragma.SummaryStats)
	if err != nil {
		return nil, apperrors.New(apperrors.ErrConfig, "create_oracle calldata", err)
	}
	receipt, err := executeAndWait(ctx, d.Owner, []starknet.Call{{
		To:         poolFactory.Address,
		Entrypoint: "create_oracle",
		Calldata:   args,
	}})
	if err != nil {
		return nil, fmt.Errorf("create oracle: %w", err)
	}
	ev, err := starknet.FindEvent(receipt, poolFactory.Address, eventCreateOracle)
	if err != nil {
		return nil, err
	}
	addr, err := starknet.EventAddress(ev)
	if err != nil {
		return nil, err
	}
	oracle, err := d.LoadContract(ctx, "Oracle", addr.String())
	if err != nil {
		return nil, err
	}
	d.record(ctx, receipt.TxHash, oracle)
	return oracle, nil
}

// DeployProtocol deploys the factory and oracle against the configured Pragma
// contracts, then loads the protocol from the updated addresses.
func (d *Deployer) DeployProtocol(ctx context.Context) (*Protocol, error) {
	factory, calls, err := d.DeferProtocol(ctx)
	if err != nil {
		return nil, err
	}
	receipt, err := executeAndWait(ctx, d.Deployer, calls)
	if err != nil {
		return nil, fmt.Errorf("deploy protocol: %w", err)
	}
	d.record(ctx, receipt.TxHash, factory)
	d.Config.Protocol.PoolFactory = factory.Address.String()

	oracle, err := d.DeferOracle(ctx, factory, d.Config.Protocol.Pragma)
	if err != nil {
		return nil, err
	}
	d.Config.Protocol.Oracle = oracle.Address.String()
	return d.LoadProtocol(ctx)
}

// --- env ---

// DeferEnv prepares the mock assets (minted to the lender) and mock Pragma.
func (d *Deployer) DeferEnv(ctx context.Context) (*EnvContracts, []starknet.Call, error) {
	assets, assetCalls, err := d.DeferMockAssets(ctx, d.Lender.Address().String())
	if err != nil {
		return nil, nil, err
	}
	pragma, pragmaCalls, err := d.DeferPragmaOracle(ctx)
	if err != nil {
		return nil, nil, err
	}
	env := &EnvContracts{Assets: assets, Pragma: *pragma}
	return env, append(assetCalls, pragmaCalls...), nil
}

// DeferMockAssets prepares one MockAsset per env entry. The first one goes
// alone so the class is declared once before the rest fan out.
func (d *Deployer) DeferMockAssets(ctx context.Context, recipient string) ([]*Contract, []starknet.Call, error) {
	env := d.Config.Env
	if len(env) == 0 {
		return nil, nil, apperrors.NewConfig("no env assets configured")
	}

	assets := make([]*Contract, len(env))
	calls := make([][]starknet.Call, len(env))
	deferAsset := func(ctx context.Context, i int) error {
		args, err := calldata.MockAsset(env[i], recipient)
		if err != nil {
			return apperrors.New(apperrors.ErrConfig, "mock asset "+env[i].Name, err)
		}
		contract, c, err := d.DeferContract(ctx, "MockAsset", args)
		if err != nil {
			return err
		}
		contract.Name = "MockAsset:" + env[i].Symbol
		assets[i], calls[i] = contract, c
		return nil
	}

	if err := deferAsset(ctx, 0); err != nil {
		return nil, nil, err
	}
	g, gctx := errgroup.WithContext(ctx)
	for i := 1; i < len(env); i++ {
		g.Go(func() error { return deferAsset(gctx, i) })
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	flat := make([]starknet.Call, 0, len(env))
	for _, c := range calls {
		flat = append(flat, c...)
	}
	return assets, flat, nil
}

// DeferPragmaOracle prepares the mock Pragma oracle and summary contracts and
// seeds one price per env asset.
func (d *Deployer) DeferPragmaOracle(ctx context.Context) (*PragmaContracts, []starknet.Call, error) {
	oracle, oracleCalls, err := d.DeferContract(ctx, "MockPragmaOracle", nil)
	if err != nil {
		return nil, nil, err
	}
	summary, summaryCalls, err := d.DeferContract(ctx, "MockPragmaSummary", nil)
	if err != nil {
		return nil, nil, err
	}

	calls := append(oracleCalls, summaryCalls...)
	for _, asset := range d.Config.Env {
		args, err := calldata.SetPrice(asset.PragmaKey, asset.Price)
		if err != nil {
			return nil, nil, apperrors.New(apperrors.ErrConfig, "set_price "+asset.Name, err)
		}
		calls = append(calls, starknet.Call{To: oracle.Address, Entrypoint: "set_price", Calldata: args})
	}
	return &PragmaContracts{Oracle: oracle, SummaryStats: summary}, calls, nil
}

// DeployEnv deploys only the mock environment.
func (d *Deployer) DeployEnv(ctx context.Context) (*EnvContracts, *felt.Felt, error) {
	env, calls, err := d.DeferEnv(ctx)
	if err != nil {
		return nil, nil, err
	}
	receipt, err := executeAndWait(ctx, d.Deployer, calls)
	if err != nil {
		return nil, nil, fmt.Errorf("deploy env: %w", err)
	}
	d.record(ctx, receipt.TxHash, env.contracts()...)
	d.useEnv(env)
	return env, receipt.TxHash, nil
}

func (env *EnvContracts) contracts() []*Contract {
	out := append([]*Contract{}, env.Assets...)
	return append(out, env.Pragma.Oracle, env.Pragma.SummaryStats)
}

// useEnv points the configured Pragma addresses at the mocks.
func (d *Deployer) useEnv(env *EnvContracts) {
	d.Config.Protocol.Pragma = model.PragmaAddresses{
		Oracle:       env.Pragma.Oracle.String(),
		SummaryStats: env.Pragma.SummaryStats.String(),
	}
}

// DeployEnvAndProtocol stands up a complete devnet: mocks and factory in one
// transaction, then the oracle, then the owner's approvals.
func (d *Deployer) DeployEnvAndProtocol(ctx context.Context) (*Protocol, error) {
	if len(d.Config.Env) == 0 {
		return nil, apperrors.NewConfig("test environment not defined, use LoadProtocol for existing networks")
	}
	env, envCalls, err := d.DeferEnv(ctx)
	if err != nil {
		return nil, err
	}
	factory, protocolCalls, err := d.DeferProtocol(ctx)
	if err != nil {
		return nil, err
	}
	receipt, err := executeAndWait(ctx, d.Deployer, append(envCalls, protocolCalls...))
	if err != nil {
		return nil, fmt.Errorf("deploy env and protocol: %w", err)
	}
	d.record(ctx, receipt.TxHash, append(env.contracts(), factory)...)
	d.useEnv(env)
	d.Config.Protocol.PoolFactory = factory.Address.String()

	oracle, err := d.DeferOracle(ctx, factory, d.Config.Protocol.Pragma)
	if err != nil {
		return nil, err
	}
	d.Config.Protocol.Oracle = oracle.Address.String()

	if err := d.SetApprovals(ctx, factory, env.Assets); err != nil {
		return nil, err
	}

	protocol := &Protocol{
		PoolFactory: factory,
		Oracle:      oracle,
		Pragma:      env.Pragma,
		Assets:      env.Assets,
		deployer:    d,
	}
	protocol.LogAddresses("Deployed:")
	return protocol, nil
}

// SetApprovals has the owner approve spender on every asset in one transaction.
func (d *Deployer) SetApprovals(ctx context.Context, spender *Contract, assets []*Contract) error {
	calls := make([]starknet.Call, 0, len(assets))
	for _, asset := range assets {
		balance, err := d.balanceOf(ctx, asset, d.Owner.Address())
		if err != nil {
			return err
		}
		logger.Info("Owner balance", "asset", asset.Name, "address", asset.String(), "balance", balance.String())

		args, err := calldata.Approve(spender.String(), d.opts.ApprovalAmount)
		if err != nil {
			return err
		}
		calls = append(calls, starknet.Call{To: asset.Address, Entrypoint: "approve", Calldata: args})
	}
	if _, err := executeAndWait(ctx, d.Owner, calls); err != nil {
		return fmt.Errorf("set approvals: %w", err)
	}
	return nil
}

func (d *Deployer) balanceOf(ctx context.Context, asset *Contract, account *felt.Felt) (*big.Int, error) {
	out, err := d.Owner.Call(ctx, starknet.Call{
		To:         asset.Address,
		Entrypoint: "balanceOf",
		Calldata:   []*felt.Felt{account},
	})
	if err != nil {
		return nil, err
	}
	return calldata.DecodeU256(out)
}

// --- loading ---

// LoadProtocol binds to the contracts named in the configuration. Unset
// optional addresses (pool, pragma) are left nil.
func (d *Deployer) LoadProtocol(ctx context.Context) (*Protocol, error) {
	addrs := d.Config.Protocol
	if !model.IsSet(addrs.PoolFactory) {
		return nil, apperrors.NewConfig("protocol.poolFactory is not set")
	}
	if !model.IsSet(addrs.Oracle) {
		return nil, apperrors.NewConfig("protocol.oracle is not set")
	}

	p := &Protocol{deployer: d}
	var err error
	if p.PoolFactory, err = d.LoadContract(ctx, "PoolFactory", addrs.PoolFactory); err != nil {
		return nil, err
	}
	if p.Oracle, err = d.LoadContract(ctx, "Oracle", addrs.Oracle); err != nil {
		return nil, err
	}
	if p.Pool, err = d.loadOptional(ctx, "Pool", addrs.Pool); err != nil {
		return nil, err
	}
	if p.Pragma.Oracle, err = d.loadOptional(ctx, "PragmaOracle", addrs.Pragma.Oracle); err != nil {
		return nil, err
	}
	if p.Pragma.SummaryStats, err = d.loadOptional(ctx, "PragmaSummary", addrs.Pragma.SummaryStats); err != nil {
		return nil, err
	}

	for _, name := range sortedPoolNames(d.Config) {
		for _, asset := range d.Config.Pools[name].Params.AssetParams {
			c, err := d.LoadContract(ctx, "Asset", asset.Asset)
			if err != nil {
				return nil, err
			}
			p.Assets = append(p.Assets, c)
		}
	}

	p.LogAddresses("Loaded:")
	return p, nil
}

func (d *Deployer) loadOptional(ctx context.Context, name, address string) (*Contract, error) {
	if !model.IsSet(address) {
		return nil, nil
	}
	return d.LoadContract(ctx, name, address)
}
