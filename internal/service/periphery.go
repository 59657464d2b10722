package service

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/NethermindEth/juno/core/felt"

	"github.com/GoPolymarket/vesu-deployer/internal/calldata"
	"github.com/GoPolymarket/vesu-deployer/internal/model"
	"github.com/GoPolymarket/vesu-deployer/internal/pkg/apperrors"
)

// periphery contracts and their constructor arguments
var peripheryConstructors = map[string]func(d *Deployer) ([]*felt.Felt, error){
	"Liquidate":    ekuboConstructor,
	"Multiply":     ekuboConstructor,
	"Multiply4626": ekuboConstructor,
	"Rebalance": func(d *Deployer) ([]*felt.Felt, error) {
		if err := d.requireEkubo(); err != nil {
			return nil, err
		}
		raw := d.opts.Periphery.RebalanceFeeRate
		if raw == "" {
			raw = "0"
		}
		fee, err := calldata.ParseFelt(raw)
		if err != nil {
			return nil, apperrors.New(apperrors.ErrConfig, "periphery.rebalance_fee_rate", err)
		}
		return calldata.NewEncoder().
			Address(d.Config.Protocol.Ekubo.Core).
			Address(d.Config.Protocol.Singleton).
			Felt(fee).
			Result()
	},
	"Migrate": func(d *Deployer) ([]*felt.Felt, error) {
		p := d.opts.Periphery
		if !model.IsSet(p.SingletonV2) || !model.IsSet(p.Migrator) {
			return nil, apperrors.NewConfig("periphery.singleton_v2 and periphery.migrator must be set")
		}
		return calldata.NewEncoder().Address(p.SingletonV2).Address(p.Migrator).Result()
	},
}

func ekuboConstructor(d *Deployer) ([]*felt.Felt, error) {
	if err := d.requireEkubo(); err != nil {
		return nil, err
	}
	return calldata.NewEncoder().
		Address(d.Config.Protocol.Ekubo.Core).
		Address(d.Config.Protocol.Singleton).
		Result()
}

func (d *Deployer) requireEkubo() error {
	if !model.IsSet(d.Config.Protocol.Ekubo.Core) || !model.IsSet(d.Config.Protocol.Singleton) {
		return apperrors.NewConfig("protocol.ekubo.core and protocol.singleton must be set")
	}
	return nil
}

// PeripheryKinds lists the deployable periphery contracts.
func PeripheryKinds() []string {
	kinds := make([]string, 0, len(peripheryConstructors))
	for k := range peripheryConstructors {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds
}

// DeployPeriphery deploys one periphery contract; kind is case-insensitive.
func (d *Deployer) DeployPeriphery(ctx context.Context, kind string) (*Contract, error) {
	name, build := lookupPeriphery(kind)
	if build == nil {
		return nil, apperrors.NewInvalidRequest(fmt.Sprintf("unknown periphery contract %q (want one of %s)",
			kind, strings.Join(PeripheryKinds(), ", ")))
	}
	args, err := build(d)
	if err != nil {
		return nil, err
	}
	contract, calls, err := d.DeferContract(ctx, name, args)
	if err != nil {
		return nil, err
	}
	receipt, err := executeAndWait(ctx, d.Deployer, calls)
	if err != nil {
		return nil, fmt.Errorf("deploy %s: %w", name, err)
	}
	d.record(ctx, receipt.TxHash, contract)
	fmt.Fprintf(d.opts.Out, "Deployed: { %s: %s }\n", lowerFirst(name), contract.String())
	return contract, nil
}

func lookupPeriphery(kind string) (string, func(*Deployer) ([]*felt.Felt, error)) {
	for name, build := range peripheryConstructors {
		if strings.EqualFold(name, kind) {
			return name, build
		}
	}
	return "", nil
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}
