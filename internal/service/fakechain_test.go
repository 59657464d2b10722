package service

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/NethermindEth/juno/core/felt"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/require"

	"github.com/GoPolymarket/vesu-deployer/internal/manager"
	"github.com/GoPolymarket/vesu-deployer/internal/model"
	"github.com/GoPolymarket/vesu-deployer/internal/poolconfig"
	"github.com/GoPolymarket/vesu-deployer/internal/repository"
	"github.com/GoPolymarket/vesu-deployer/internal/starknet"
)

func fe(v uint64) *felt.Felt { return new(felt.Felt).SetUint64(v) }

var (
	oracleAddr = fe(0x0a11)
	poolAddr   = fe(0x0b22)
)

type fakeTx struct {
	From  *felt.Felt
	Calls []starknet.Call
	Hash  *felt.Felt
}

// fakeChain records every invoke and answers views from canned handlers.
// create_oracle and create_pool emit the factory events.
type fakeChain struct {
	mu       sync.Mutex
	nextID   uint64
	txs      []fakeTx
	receipts map[string]*starknet.Receipt
	declared map[string]bool
	views    map[string]func(call starknet.Call) []*felt.Felt
	revert   string
}

func newFakeChain() *fakeChain {
	return &fakeChain{
		receipts: make(map[string]*starknet.Receipt),
		declared: make(map[string]bool),
		views:    make(map[string]func(call starknet.Call) []*felt.Felt),
	}
}

func (c *fakeChain) account(addr uint64) *fakeAccount {
	return &fakeAccount{chain: c, addr: fe(addr)}
}

func (c *fakeChain) invokes() []fakeTx {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]fakeTx(nil), c.txs...)
}

func (c *fakeChain) lastInvoke() fakeTx {
	txs := c.invokes()
	return txs[len(txs)-1]
}

type fakeAccount struct {
	chain *fakeChain
	addr  *felt.Felt
}

func (a *fakeAccount) Address() *felt.Felt { return a.addr }

func (a *fakeAccount) Call(_ context.Context, call starknet.Call) ([]*felt.Felt, error) {
	a.chain.mu.Lock()
	view, ok := a.chain.views[call.Entrypoint]
	a.chain.mu.Unlock()
	if ok {
		return view(call), nil
	}
	return []*felt.Felt{fe(0), fe(0)}, nil
}

func (a *fakeAccount) Execute(_ context.Context, calls []starknet.Call) (*felt.Felt, error) {
	c := a.chain
	c.mu.Lock()
	defer c.mu.Unlock()

	c.nextID++
	hash := fe(0x7000 + c.nextID)
	receipt := &starknet.Receipt{TxHash: hash}
	for _, call := range calls {
		switch call.Entrypoint {
		case "create_oracle":
			receipt.Events = append(receipt.Events, starknet.Event{
				From: call.To,
				Keys: []*felt.Felt{starknet.Selector("CreateOracle")},
				Data: []*felt.Felt{oracleAddr},
			})
		case "create_pool":
			receipt.Events = append(receipt.Events, starknet.Event{
				From: call.To,
				Keys: []*felt.Felt{starknet.Selector("CreatePool"), poolAddr},
			})
		}
		if call.Entrypoint == c.revert {
			receipt.Reverted = true
			receipt.RevertReason = "Failure reason: 0x" + call.Entrypoint
		}
	}
	c.txs = append(c.txs, fakeTx{From: a.addr, Calls: calls, Hash: hash})
	c.receipts[hash.String()] = receipt
	return hash, nil
}

func (a *fakeAccount) Declare(_ context.Context, artifact *starknet.Artifact) (*felt.Felt, *felt.Felt, error) {
	c := a.chain
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nextID++
	hash := fe(0x7000 + c.nextID)
	c.declared[artifact.ClassHash.String()] = true
	c.receipts[hash.String()] = &starknet.Receipt{TxHash: hash}
	return artifact.ClassHash, hash, nil
}

func (a *fakeAccount) IsDeclared(_ context.Context, classHash *felt.Felt) (bool, error) {
	a.chain.mu.Lock()
	defer a.chain.mu.Unlock()
	return a.chain.declared[classHash.String()], nil
}

func (a *fakeAccount) ClassHashAt(context.Context, *felt.Felt) (*felt.Felt, error) {
	return fe(0xc1a55), nil
}

func (a *fakeAccount) WaitForTransaction(_ context.Context, txHash *felt.Felt) (*starknet.Receipt, error) {
	a.chain.mu.Lock()
	r, ok := a.chain.receipts[txHash.String()]
	a.chain.mu.Unlock()
	if !ok {
		return nil, errors.New("unknown transaction " + txHash.String())
	}
	if r.Reverted {
		return r, starknet.RevertedError(r)
	}
	return r, nil
}

// testArtifacts gives every contract a distinct, valid class hash.
type testArtifacts struct{}

func (testArtifacts) Load(name string) (*starknet.Artifact, error) {
	return &starknet.Artifact{
		Name:      name,
		Digest:    crypto.Keccak256Hash([]byte(name)),
		ClassHash: starknet.Selector(name),
	}, nil
}

type harness struct {
	deployer *Deployer
	chain    *fakeChain
	out      *bytes.Buffer
	repo     *repository.MemoryDeploymentRepo
	recorder *Recorder
	accounts Accounts
}

// records flushes the recorder and returns what reached the registry.
func (h *harness) records(t *testing.T) []*model.DeploymentRecord {
	t.Helper()
	h.recorder.Close()
	records, err := h.repo.List(context.Background(), "mainnet", 0)
	require.NoError(t, err)
	return records
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	cfg, err := poolconfig.Load("mainnet", "../poolconfig/testdata/genesis.json", "", "")
	require.NoError(t, err)

	chain := newFakeChain()
	accounts := Accounts{
		Deployer: chain.account(0xd0),
		Owner:    chain.account(0xd1),
		Lender:   chain.account(0xd2),
		Borrower: chain.account(0xd3),
	}
	repo := repository.NewMemoryDeploymentRepo(0)
	recorder, err := NewRecorder("", repo)
	require.NoError(t, err)

	out := &bytes.Buffer{}
	d := NewDeployer(accounts, cfg, manager.NewClassManager(accounts.Deployer, testArtifacts{}, nil), DeployerOptions{
		Network:  "mainnet",
		Recorder: recorder,
		Out:      out,
	})
	return &harness{deployer: d, chain: chain, out: out, repo: repo, recorder: recorder, accounts: accounts}
}

func entrypoints(calls []starknet.Call) []string {
	out := make([]string, len(calls))
	for i, c := range calls {
		out[i] = c.Entrypoint
	}
	return out
}
