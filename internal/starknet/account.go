package starknet

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/NethermindEth/juno/core/felt"
	"github.com/NethermindEth/starknet.go/account"
	"github.com/NethermindEth/starknet.go/curve"
	"github.com/NethermindEth/starknet.go/rpc"
	"golang.org/x/time/rate"

	"github.com/GoPolymarket/vesu-deployer/internal/pkg/apperrors"
)

const (
	defaultPollInterval  = 2 * time.Second
	defaultFeeMultiplier = 1.5
	cairoVersion         = 2

	// starknet JSON-RPC error codes
	classHashNotFound = 28
	txnHashNotFound   = 29
)

// AccountOptions tunes fee estimation and receipt polling.
type AccountOptions struct {
	PollInterval  time.Duration
	FeeMultiplier float64
	// Limiter, when set, is drawn from before every receipt poll.
	Limiter *rate.Limiter
}

// AccountClient is a Client backed by a starknet.go account.
type AccountClient struct {
	provider *rpc.Provider
	account  *account.Account
	address  *felt.Felt
	opts     AccountOptions
}

// NewProvider dials the starknet JSON-RPC endpoint.
func NewProvider(url string) (*rpc.Provider, error) {
	provider, err := rpc.NewProvider(url)
	if err != nil {
		return nil, apperrors.New(apperrors.ErrRPC, "connect "+url, err)
	}
	return provider, nil
}

// NewAccountClient signs with privateKey on behalf of address. publicKey may
// be empty, in which case it is derived from the private key.
func NewAccountClient(provider *rpc.Provider, address, publicKey, privateKey string, opts AccountOptions) (*AccountClient, error) {
	if opts.PollInterval <= 0 {
		opts.PollInterval = defaultPollInterval
	}
	if opts.FeeMultiplier <= 0 {
		opts.FeeMultiplier = defaultFeeMultiplier
	}

	addr, err := new(felt.Felt).SetString(address)
	if err != nil {
		return nil, apperrors.New(apperrors.ErrEnv, "invalid account address "+address, err)
	}
	priv, ok := parseBig(privateKey)
	if !ok {
		return nil, apperrors.NewEnv("invalid private key for %s", address)
	}
	if publicKey == "" {
		x, _, err := curve.Curve.PrivateToPoint(priv)
		if err != nil {
			return nil, apperrors.New(apperrors.ErrEnv, "derive public key", err)
		}
		publicKey = "0x" + x.Text(16)
	}

	ks := account.NewMemKeystore()
	ks.Put(publicKey, priv)

	acc, err := account.NewAccount(provider, addr, publicKey, ks, cairoVersion)
	if err != nil {
		return nil, apperrors.New(apperrors.ErrRPC, "init account "+address, err)
	}
	return &AccountClient{provider: provider, account: acc, address: addr, opts: opts}, nil
}

func parseBig(s string) (*big.Int, bool) {
	if len(s) > 2 && (s[:2] == "0x" || s[:2] == "0X") {
		return new(big.Int).SetString(s[2:], 16)
	}
	return new(big.Int).SetString(s, 10)
}

func (c *AccountClient) Address() *felt.Felt {
	return c.address
}

func (c *AccountClient) Call(ctx context.Context, call Call) ([]*felt.Felt, error) {
	return providerCall(ctx, c.provider, call)
}

func (c *AccountClient) Execute(ctx context.Context, calls []Call) (*felt.Felt, error) {
	invokes := make([]rpc.InvokeFunctionCall, 0, len(calls))
	for _, call := range calls {
		invokes = append(invokes, rpc.InvokeFunctionCall{
			ContractAddress: call.To,
			FunctionName:    call.Entrypoint,
			CallData:        call.Calldata,
		})
	}
	resp, err := c.account.BuildAndSendInvokeTxn(ctx, invokes, c.opts.FeeMultiplier)
	if err != nil {
		return nil, apperrors.New(apperrors.ErrRPC, "send invoke", err)
	}
	return resp.TransactionHash, nil
}

func (c *AccountClient) Declare(ctx context.Context, artifact *Artifact) (*felt.Felt, *felt.Felt, error) {
	resp, err := c.account.BuildAndSendDeclareTxn(ctx, artifact.Casm, artifact.Sierra, c.opts.FeeMultiplier)
	if err != nil {
		return nil, nil, apperrors.New(apperrors.ErrRPC, "declare "+artifact.Name, err)
	}
	return resp.ClassHash, resp.TransactionHash, nil
}

func (c *AccountClient) IsDeclared(ctx context.Context, classHash *felt.Felt) (bool, error) {
	_, err := c.provider.Class(ctx, rpc.WithBlockTag("latest"), classHash)
	if err == nil {
		return true, nil
	}
	if isRPCCode(err, classHashNotFound) {
		return false, nil
	}
	return false, apperrors.New(apperrors.ErrRPC, "get class "+classHash.String(), err)
}

func (c *AccountClient) ClassHashAt(ctx context.Context, address *felt.Felt) (*felt.Felt, error) {
	h, err := c.provider.ClassHashAt(ctx, rpc.WithBlockTag("latest"), address)
	if err != nil {
		return nil, apperrors.New(apperrors.ErrRPC, "class hash at "+address.String(), err)
	}
	return h, nil
}

func (c *AccountClient) WaitForTransaction(ctx context.Context, txHash *felt.Felt) (*Receipt, error) {
	var receipt *Receipt
	err := pollUntil(ctx, c.opts.Limiter, c.opts.PollInterval, func(ctx context.Context) (bool, error) {
		r, err := c.provider.TransactionReceipt(ctx, txHash)
		if err != nil {
			if isRPCCode(err, txnHashNotFound) {
				return false, nil
			}
			return false, err
		}
		receipt = &Receipt{
			TxHash:       txHash,
			Reverted:     string(r.ExecutionStatus) == "REVERTED",
			RevertReason: r.RevertReason,
			Events:       make([]Event, 0, len(r.Events)),
		}
		for _, e := range r.Events {
			receipt.Events = append(receipt.Events, Event{From: e.FromAddress, Keys: e.Keys, Data: e.Data})
		}
		return true, nil
	})
	if err != nil {
		return nil, apperrors.New(apperrors.ErrRPC, "wait for "+txHash.String(), err)
	}
	if receipt.Reverted {
		return receipt, RevertedError(receipt)
	}
	return receipt, nil
}

// pollUntil calls attempt every interval until it reports done, fails, or
// ctx ends. Each attempt first takes a token from limiter (nil = unlimited).
func pollUntil(ctx context.Context, limiter *rate.Limiter, interval time.Duration, attempt func(context.Context) (bool, error)) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		if limiter != nil {
			if err := limiter.Wait(ctx); err != nil {
				return err
			}
		}
		done, err := attempt(ctx)
		if err != nil || done {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func isRPCCode(err error, code int) bool {
	var rpcErr *rpc.RPCError
	return errors.As(err, &rpcErr) && rpcErr.Code == code
}

// RevertedError wraps a reverted receipt as a REVERTED AppError.
func RevertedError(r *Receipt) error {
	return apperrors.New(apperrors.ErrReverted,
		fmt.Sprintf("transaction %s reverted: %s", FeltString(r.TxHash), r.RevertReason), nil)
}

func providerCall(ctx context.Context, provider *rpc.Provider, call Call) ([]*felt.Felt, error) {
	out, err := provider.Call(ctx, rpc.FunctionCall{
		ContractAddress:    call.To,
		EntryPointSelector: Selector(call.Entrypoint),
		Calldata:           call.Calldata,
	}, rpc.WithBlockTag("latest"))
	if err != nil {
		return nil, apperrors.New(apperrors.ErrRPC,
			fmt.Sprintf("call %s.%s", FeltString(call.To), call.Entrypoint), err)
	}
	return out, nil
}
