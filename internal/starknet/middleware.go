package starknet

import (
	"context"
	"time"

	"github.com/NethermindEth/juno/core/felt"
	"golang.org/x/time/rate"

	"github.com/GoPolymarket/vesu-deployer/internal/pkg/apperrors"
	"github.com/GoPolymarket/vesu-deployer/internal/pkg/metrics"
)

// Middleware decorates a Client.
type Middleware func(Client) Client

// Wrap applies mws in order; the first one is the outermost.
func Wrap(c Client, mws ...Middleware) Client {
	for i := len(mws) - 1; i >= 0; i-- {
		c = mws[i](c)
	}
	return c
}

// --- rate limiting ---

// WithRateLimit makes every single-request RPC wait for a token from limiter.
// Receipt polling is throttled by AccountOptions.Limiter instead.
func WithRateLimit(limiter *rate.Limiter) Middleware {
	return func(next Client) Client {
		if limiter == nil {
			return next
		}
		return &rateLimited{next: next, limiter: limiter}
	}
}

// NewLimiter returns nil (no throttling) when rps <= 0.
func NewLimiter(rps float64, burst int) *rate.Limiter {
	if rps <= 0 {
		return nil
	}
	if burst <= 0 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(rps), burst)
}

type rateLimited struct {
	next    Client
	limiter *rate.Limiter
}

func (r *rateLimited) wait(ctx context.Context) error {
	if err := r.limiter.Wait(ctx); err != nil {
		return apperrors.New(apperrors.ErrRPC, "rate limiter", err)
	}
	return nil
}

func (r *rateLimited) Address() *felt.Felt { return r.next.Address() }

func (r *rateLimited) Call(ctx context.Context, call Call) ([]*felt.Felt, error) {
	if err := r.wait(ctx); err != nil {
		return nil, err
	}
	return r.next.Call(ctx, call)
}

func (r *rateLimited) Execute(ctx context.Context, calls []Call) (*felt.Felt, error) {
	if err := r.wait(ctx); err != nil {
		return nil, err
	}
	return r.next.Execute(ctx, calls)
}

func (r *rateLimited) Declare(ctx context.Context, artifact *Artifact) (*felt.Felt, *felt.Felt, error) {
	if err := r.wait(ctx); err != nil {
		return nil, nil, err
	}
	return r.next.Declare(ctx, artifact)
}

func (r *rateLimited) IsDeclared(ctx context.Context, classHash *felt.Felt) (bool, error) {
	if err := r.wait(ctx); err != nil {
		return false, err
	}
	return r.next.IsDeclared(ctx, classHash)
}

func (r *rateLimited) ClassHashAt(ctx context.Context, address *felt.Felt) (*felt.Felt, error) {
	if err := r.wait(ctx); err != nil {
		return nil, err
	}
	return r.next.ClassHashAt(ctx, address)
}

// WaitForTransaction is not throttled here: it is many polls, and the account
// client draws one token per poll from the same limiter.
func (r *rateLimited) WaitForTransaction(ctx context.Context, txHash *felt.Felt) (*Receipt, error) {
	return r.next.WaitForTransaction(ctx, txHash)
}

// --- metrics ---

// WithMetrics records request counts and latency per RPC method.
func WithMetrics() Middleware {
	return func(next Client) Client {
		return &instrumented{next: next}
	}
}

type instrumented struct {
	next Client
}

func observe(method string, start time.Time, err error) {
	status := "ok"
	if err != nil {
		status = "error"
		if apperrors.Is(err, apperrors.ErrReverted) {
			status = "reverted"
		}
	}
	metrics.RPCRequests.WithLabelValues(method, status).Inc()
	metrics.RPCLatency.WithLabelValues(method).Observe(time.Since(start).Seconds())
}

func (m *instrumented) Address() *felt.Felt { return m.next.Address() }

func (m *instrumented) Call(ctx context.Context, call Call) (out []*felt.Felt, err error) {
	defer func(start time.Time) { observe("call", start, err) }(time.Now())
	return m.next.Call(ctx, call)
}

func (m *instrumented) Execute(ctx context.Context, calls []Call) (tx *felt.Felt, err error) {
	defer func(start time.Time) {
		observe("invoke", start, err)
		metrics.Transactions.WithLabelValues("invoke", txStatus(err, "submitted")).Inc()
	}(time.Now())
	return m.next.Execute(ctx, calls)
}

func (m *instrumented) Declare(ctx context.Context, artifact *Artifact) (classHash, tx *felt.Felt, err error) {
	defer func(start time.Time) {
		observe("declare", start, err)
		metrics.Transactions.WithLabelValues("declare", txStatus(err, "submitted")).Inc()
	}(time.Now())
	return m.next.Declare(ctx, artifact)
}

func (m *instrumented) IsDeclared(ctx context.Context, classHash *felt.Felt) (ok bool, err error) {
	defer func(start time.Time) { observe("get_class", start, err) }(time.Now())
	return m.next.IsDeclared(ctx, classHash)
}

func (m *instrumented) ClassHashAt(ctx context.Context, address *felt.Felt) (h *felt.Felt, err error) {
	defer func(start time.Time) { observe("get_class_hash_at", start, err) }(time.Now())
	return m.next.ClassHashAt(ctx, address)
}

func (m *instrumented) WaitForTransaction(ctx context.Context, txHash *felt.Felt) (r *Receipt, err error) {
	defer func(start time.Time) {
		observe("wait_for_receipt", start, err)
		metrics.Transactions.WithLabelValues("receipt", txStatus(err, "succeeded")).Inc()
	}(time.Now())
	return m.next.WaitForTransaction(ctx, txHash)
}

func txStatus(err error, ok string) string {
	switch {
	case err == nil:
		return ok
	case apperrors.Is(err, apperrors.ErrReverted):
		return "reverted"
	default:
		return "failed"
	}
}
