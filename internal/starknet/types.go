// Package starknet is the chain boundary: contract calls, invoke batches,
// class declarations and receipt polling.
package starknet

import (
	"context"

	"github.com/NethermindEth/juno/core/felt"
)

// Call is a single entry point invocation, either read-only or part of an
// invoke batch.
type Call struct {
	To         *felt.Felt
	Entrypoint string
	Calldata   []*felt.Felt
}

type Event struct {
	From *felt.Felt
	Keys []*felt.Felt
	Data []*felt.Felt
}

type Receipt struct {
	TxHash       *felt.Felt
	Reverted     bool
	RevertReason string
	Events       []Event
}

// Caller performs read-only calls against the latest block.
type Caller interface {
	Call(ctx context.Context, call Call) ([]*felt.Felt, error)
}

// Client is an account-bound connection. Every role (deployer, owner, lender,
// borrower) gets its own Client.
type Client interface {
	Caller
	Address() *felt.Felt
	Execute(ctx context.Context, calls []Call) (*felt.Felt, error)
	Declare(ctx context.Context, artifact *Artifact) (classHash, txHash *felt.Felt, err error)
	IsDeclared(ctx context.Context, classHash *felt.Felt) (bool, error)
	ClassHashAt(ctx context.Context, address *felt.Felt) (*felt.Felt, error)
	// WaitForTransaction polls until the transaction is included. A reverted
	// transaction is returned with Reverted set and a REVERTED AppError.
	WaitForTransaction(ctx context.Context, txHash *felt.Felt) (*Receipt, error)
}
