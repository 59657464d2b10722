package service

import (
	"context"
	"fmt"
	"io"
	"math/big"
	"path/filepath"
	"strings"
	"time"

	"github.com/GoPolymarket/vesu-deployer/internal/config"
	"github.com/GoPolymarket/vesu-deployer/internal/manager"
	"github.com/GoPolymarket/vesu-deployer/internal/pkg/apperrors"
	"github.com/GoPolymarket/vesu-deployer/internal/pkg/logger"
	"github.com/GoPolymarket/vesu-deployer/internal/poolconfig"
	"github.com/GoPolymarket/vesu-deployer/internal/starknet"
)

// ClientFactory builds an account-bound client. publicKey may be empty.
type ClientFactory func(address, publicKey, privateKey string) (starknet.Client, error)

type SetupDeps struct {
	ClassStore manager.ClassStore
	Recorder   *Recorder
	Out        io.Writer
	// NewClient overrides the starknet.go backed client.
	NewClient ClientFactory
}

// ResolveNetwork checks that NETWORK matches the requested network and that
// the network is configured.
func ResolveNetwork(cfg *config.Config, network string) (config.NetworkConfig, error) {
	if cfg.Network != network {
		return config.NetworkConfig{}, apperrors.NewEnv("NETWORK env var (%q) does not match network argument (%q)", cfg.Network, network)
	}
	netCfg, ok := cfg.Networks[network]
	if !ok {
		return config.NetworkConfig{}, apperrors.NewConfig("invalid network %q", network)
	}
	return netCfg, nil
}

// RPCURL returns the configured node URL or the local devnet default.
func RPCURL(cfg *config.Config) string {
	if cfg.RPC.URL != "" {
		return cfg.RPC.URL
	}
	return config.DefaultRPCURL
}

// DeploymentPath is where the network's protocol addresses are read and
// saved. Against devnet it is a sibling "<name>.devnet<ext>" file so mock
// deployments never overwrite the real one.
func DeploymentPath(cfg *config.Config, netCfg config.NetworkConfig) string {
	path := netCfg.DeploymentPath
	if path == "" || !starknet.IsDevnet(RPCURL(cfg)) {
		return path
	}
	ext := filepath.Ext(path)
	return strings.TrimSuffix(path, ext) + ".devnet" + ext
}

// NewClientFactory returns a factory sharing one provider and one rate limiter
// between all accounts.
func NewClientFactory(cfg *config.Config) (ClientFactory, error) {
	provider, err := starknet.NewProvider(RPCURL(cfg))
	if err != nil {
		return nil, err
	}
	limiter := starknet.NewLimiter(cfg.RPC.RequestsPerSecond, cfg.RPC.Burst)
	opts := starknet.AccountOptions{
		PollInterval:  time.Duration(cfg.RPC.PollIntervalMs) * time.Millisecond,
		FeeMultiplier: cfg.RPC.FeeMultiplier,
		Limiter:       limiter,
	}
	return func(address, publicKey, privateKey string) (starknet.Client, error) {
		acc, err := starknet.NewAccountClient(provider, address, publicKey, privateKey, opts)
		if err != nil {
			return nil, err
		}
		return starknet.Wrap(acc, starknet.WithMetrics(), starknet.WithRateLimit(limiter)), nil
	}, nil
}

// LoadAccounts picks the four roles: devnet predeployed accounts in order
// [deployer, owner, lender, borrower], otherwise ADDRESS/PRIVATE_KEY for all.
func LoadAccounts(ctx context.Context, cfg *config.Config, newClient ClientFactory) (Accounts, error) {
	url := RPCURL(cfg)
	if starknet.IsDevnet(url) {
		predeployed, err := starknet.PredeployedAccounts(ctx, url)
		if err != nil {
			return Accounts{}, err
		}
		if len(predeployed) < 4 {
			return Accounts{}, apperrors.NewEnv("devnet has %d predeployed accounts, need 4", len(predeployed))
		}
		clients := make([]starknet.Client, 4)
		for i := range clients {
			a := predeployed[i]
			if clients[i], err = newClient(a.Address, a.PublicKey, a.PrivateKey); err != nil {
				return Accounts{}, err
			}
		}
		return Accounts{Deployer: clients[0], Owner: clients[1], Lender: clients[2], Borrower: clients[3]}, nil
	}

	acc := cfg.Account
	if acc.Address == "" || acc.PrivateKey == "" {
		return Accounts{}, apperrors.NewEnv("missing ADDRESS or PRIVATE_KEY env var")
	}
	client, err := newClient(acc.Address, acc.PublicKey, acc.PrivateKey)
	if err != nil {
		return Accounts{}, err
	}
	return Accounts{Deployer: client, Owner: client, Lender: client, Borrower: client}, nil
}

// Setup resolves configuration, accounts and pool config into a Deployer.
func Setup(ctx context.Context, cfg *config.Config, network string, deps SetupDeps) (*Deployer, error) {
	netCfg, err := ResolveNetwork(cfg, network)
	if err != nil {
		return nil, err
	}
	url := RPCURL(cfg)
	deploymentPath := DeploymentPath(cfg, netCfg)

	poolCfg, err := poolconfig.Load(network, netCfg.ConfigPath, deploymentPath, netCfg.PoolName)
	if err != nil {
		return nil, err
	}
	logger.Info("Setup", "config", poolCfg.Name, "provider", url, "devnet", starknet.IsDevnet(url))

	newClient := deps.NewClient
	if newClient == nil {
		if newClient, err = NewClientFactory(cfg); err != nil {
			return nil, err
		}
	}
	accounts, err := LoadAccounts(ctx, cfg, newClient)
	if err != nil {
		return nil, err
	}

	approval, err := parseAmount(cfg.Devnet.ApprovalAmount)
	if err != nil {
		return nil, err
	}

	artifacts := starknet.ArtifactLoader{Dir: cfg.Artifacts.Dir, Package: cfg.Artifacts.Package}
	classes := manager.NewClassManager(accounts.Deployer, artifacts, deps.ClassStore)

	d := NewDeployer(accounts, poolCfg, classes, DeployerOptions{
		Network:        network,
		ApprovalAmount: approval,
		Periphery:      cfg.Periphery,
		Recorder:       deps.Recorder,
		DeploymentPath: deploymentPath,
		Out:            deps.Out,
	})
	logAddresses(d.Out(), "Accounts:", []namedAddress{
		{"deployer", accounts.Deployer.Address().String()},
		{"owner", accounts.Owner.Address().String()},
		{"lender", accounts.Lender.Address().String()},
		{"borrower", accounts.Borrower.Address().String()},
	})
	return d, nil
}

func parseAmount(raw string) (*big.Int, error) {
	if raw == "" {
		return DefaultApprovalAmount, nil
	}
	v, ok := new(big.Int).SetString(raw, 10)
	if !ok || v.Sign() < 0 {
		return nil, apperrors.NewConfig("invalid devnet.approval_amount %q", raw)
	}
	return v, nil
}

// SaveDeployment writes the current protocol addresses back to the network's
// deployment file, if one is configured.
func (d *Deployer) SaveDeployment() error {
	if d.opts.DeploymentPath == "" {
		return nil
	}
	if err := poolconfig.SaveDeployment(d.opts.DeploymentPath, d.Config.Protocol); err != nil {
		return fmt.Errorf("save deployment: %w", err)
	}
	logger.Info("Saved deployment", "path", d.opts.DeploymentPath)
	return nil
}
