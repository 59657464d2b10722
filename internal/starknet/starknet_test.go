package starknet

import (
	"context"
	"errors"
	"math/big"
	"os"
	"testing"
	"time"

	"github.com/NethermindEth/juno/core/felt"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/GoPolymarket/vesu-deployer/internal/pkg/apperrors"
	"github.com/GoPolymarket/vesu-deployer/internal/pkg/metrics"
)

func f(v uint64) *felt.Felt { return new(felt.Felt).SetUint64(v) }

func TestSelector(t *testing.T) {
	assert.Equal(t,
		"0x83afd3f4caedc6eebf44246fe54e38c95e3179a5ec9ea81740eca5b482d12e",
		Selector("transfer").String())
	assert.Equal(t, Selector("CreatePool"), Selector(EventName("vesu::pool_factory::PoolFactory::CreatePool")))
}

func TestEventName(t *testing.T) {
	assert.Equal(t, "CreateOracle", EventName("vesu::pool_factory::PoolFactory::CreateOracle"))
	assert.Equal(t, "Transfer", EventName("Transfer"))
}

func TestFindEvent(t *testing.T) {
	factory := f(0xfac)
	receipt := &Receipt{
		TxHash: f(1),
		Events: []Event{
			{From: f(0xbad), Keys: []*felt.Felt{Selector("CreatePool"), f(0x111)}},
			{From: factory, Keys: []*felt.Felt{Selector("Transfer")}},
			{From: factory, Keys: []*felt.Felt{Selector("CreatePool"), f(0x222)}},
			{From: factory, Keys: []*felt.Felt{Selector("CreatePool"), f(0x333)}},
		},
	}

	ev, err := FindEvent(receipt, factory, "vesu::pool_factory::PoolFactory::CreatePool")
	require.NoError(t, err)
	addr, err := EventAddress(ev)
	require.NoError(t, err)
	assert.Equal(t, "0x222", addr.String())

	_, err = FindEvent(receipt, factory, "vesu::pool_factory::PoolFactory::CreateOracle")
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrEventNotFound))

	_, err = FindEvent(nil, factory, "CreatePool")
	assert.True(t, apperrors.Is(err, apperrors.ErrEventNotFound))
}

func TestEventAddressFallsBackToData(t *testing.T) {
	addr, err := EventAddress(&Event{Keys: []*felt.Felt{Selector("CreateOracle")}, Data: []*felt.Felt{f(0x77)}})
	require.NoError(t, err)
	assert.Equal(t, "0x77", addr.String())

	_, err = EventAddress(&Event{Keys: []*felt.Felt{Selector("CreateOracle")}})
	assert.Error(t, err)
}

func TestDeployCall(t *testing.T) {
	call := DeployCall(f(0xc1a55), f(0x5a17), []*felt.Felt{f(7), f(8)})
	assert.Equal(t, UDCAddress, call.To)
	assert.Equal(t, "deployContract", call.Entrypoint)

	got := make([]string, len(call.Calldata))
	for i, c := range call.Calldata {
		got[i] = c.String()
	}
	assert.Equal(t, []string{"0xc1a55", "0x5a17", "0x0", "0x2", "0x7", "0x8"}, got)
}

func TestPrecomputeAddressDeterministic(t *testing.T) {
	a := PrecomputeAddress(f(1), f(2), []*felt.Felt{f(3)})
	b := PrecomputeAddress(f(1), f(2), []*felt.Felt{f(3)})
	c := PrecomputeAddress(f(1), f(9), []*felt.Felt{f(3)})
	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(c))
}

func TestRandomSalt(t *testing.T) {
	limit := new(big.Int).Lsh(big.NewInt(1), 248)
	s1, err := RandomSalt()
	require.NoError(t, err)
	s2, err := RandomSalt()
	require.NoError(t, err)
	assert.False(t, s1.Equal(s2))
	assert.Equal(t, -1, s1.BigInt(new(big.Int)).Cmp(limit))
}

func TestIsDevnet(t *testing.T) {
	assert.True(t, IsDevnet("http://127.0.0.1:5050"))
	assert.True(t, IsDevnet("http://localhost:5050/rpc"))
	assert.False(t, IsDevnet("https://starknet-mainnet.public.blastapi.io"))
}

func TestArtifactPaths(t *testing.T) {
	sierra, casm := ArtifactPaths("target/release", "vesu", "PoolFactory")
	assert.Equal(t, "target/release/vesu_PoolFactory.contract_class.json", sierra)
	assert.Equal(t, "target/release/vesu_PoolFactory.compiled_contract_class.json", casm)
}

func TestLoadArtifactMissing(t *testing.T) {
	_, err := ArtifactLoader{Dir: t.TempDir(), Package: "vesu"}.Load("Pool")
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrConfig))
}

func TestLoadArtifactReadsSierraClass(t *testing.T) {
	dir := t.TempDir()
	sierra, _ := ArtifactPaths(dir, "vesu", "Pool")

	require.NoError(t, os.WriteFile(sierra, []byte("not json"), 0o644))
	_, err := LoadArtifact(dir, "vesu", "Pool")
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrConfig))
	assert.Contains(t, err.Error(), "parse sierra class")

	// a parsable class gets as far as the missing casm file
	class := `{"sierra_program":[],"contract_class_version":"0.1.0","entry_points_by_type":{"CONSTRUCTOR":[],"EXTERNAL":[],"L1_HANDLER":[]}}`
	require.NoError(t, os.WriteFile(sierra, []byte(class), 0o644))
	_, err = LoadArtifact(dir, "vesu", "Pool")
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrConfig))
	assert.Contains(t, err.Error(), "parse casm class")
}

// stubClient answers every call with a fixed result.
type stubClient struct {
	calls int
	err   error
}

func (s *stubClient) Address() *felt.Felt { return f(0xacc) }

func (s *stubClient) Call(context.Context, Call) ([]*felt.Felt, error) {
	s.calls++
	return []*felt.Felt{f(1)}, s.err
}

func (s *stubClient) Execute(context.Context, []Call) (*felt.Felt, error) {
	s.calls++
	return f(0x7a), s.err
}

func (s *stubClient) Declare(context.Context, *Artifact) (*felt.Felt, *felt.Felt, error) {
	s.calls++
	return f(0xc1), f(0x7a), s.err
}

func (s *stubClient) IsDeclared(context.Context, *felt.Felt) (bool, error) {
	s.calls++
	return true, s.err
}

func (s *stubClient) ClassHashAt(context.Context, *felt.Felt) (*felt.Felt, error) {
	s.calls++
	return f(0xc1), s.err
}

func (s *stubClient) WaitForTransaction(_ context.Context, tx *felt.Felt) (*Receipt, error) {
	s.calls++
	return &Receipt{TxHash: tx}, s.err
}

func TestRateLimitedClient(t *testing.T) {
	stub := &stubClient{}
	limiter := rate.NewLimiter(rate.Limit(0.001), 1)
	c := Wrap(stub, WithRateLimit(limiter))
	assert.Equal(t, "0xacc", c.Address().String())

	_, err := c.Call(context.Background(), Call{To: f(1), Entrypoint: "balance_of"})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err = c.Execute(ctx, nil)
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrRPC))
	assert.Equal(t, 1, stub.calls, "second request must not reach the node")
}

func TestPollUntilDrawsFromLimiter(t *testing.T) {
	limiter := rate.NewLimiter(rate.Limit(0.001), 2)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	attempts := 0
	err := pollUntil(ctx, limiter, time.Millisecond, func(context.Context) (bool, error) {
		attempts++
		return false, nil
	})
	require.Error(t, err)
	assert.Equal(t, 2, attempts, "polls beyond the burst must wait for the limiter")
}

func TestPollUntilStops(t *testing.T) {
	attempts := 0
	err := pollUntil(context.Background(), nil, time.Millisecond, func(context.Context) (bool, error) {
		attempts++
		return attempts == 3, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, attempts)

	boom := errors.New("boom")
	err = pollUntil(context.Background(), nil, time.Millisecond, func(context.Context) (bool, error) {
		return false, boom
	})
	assert.ErrorIs(t, err, boom)
}

func TestNilLimiterIsPassThrough(t *testing.T) {
	stub := &stubClient{}
	c := Wrap(stub, WithRateLimit(NewLimiter(0, 0)))
	assert.Same(t, stub, c)
}

func TestMetricsClient(t *testing.T) {
	stub := &stubClient{}
	c := Wrap(stub, WithMetrics())

	before := testutil.ToFloat64(metrics.RPCRequests.WithLabelValues("call", "ok"))
	_, err := c.Call(context.Background(), Call{To: f(1), Entrypoint: "utilization"})
	require.NoError(t, err)
	assert.Equal(t, before+1, testutil.ToFloat64(metrics.RPCRequests.WithLabelValues("call", "ok")))

	stub.err = apperrors.New(apperrors.ErrReverted, "boom", nil)
	beforeRev := testutil.ToFloat64(metrics.Transactions.WithLabelValues("receipt", "reverted"))
	_, err = c.WaitForTransaction(context.Background(), f(9))
	require.Error(t, err)
	assert.Equal(t, beforeRev+1, testutil.ToFloat64(metrics.Transactions.WithLabelValues("receipt", "reverted")))

	stub.err = errors.New("dial tcp: refused")
	beforeFail := testutil.ToFloat64(metrics.RPCRequests.WithLabelValues("invoke", "error"))
	_, err = c.Execute(context.Background(), nil)
	require.Error(t, err)
	assert.Equal(t, beforeFail+1, testutil.ToFloat64(metrics.RPCRequests.WithLabelValues("invoke", "error")))
}
