package manager

import (
	"context"
	"fmt"
	"sync"

	"github.com/NethermindEth/juno/core/felt"
	"golang.org/x/sync/singleflight"

	"github.com/GoPolymarket/vesu-deployer/internal/pkg/logger"
	"github.com/GoPolymarket/vesu-deployer/internal/pkg/metrics"
	"github.com/GoPolymarket/vesu-deployer/internal/starknet"
)

// ClassStore persists class hashes across runs, keyed by contract name and
// artifact digest so a rebuilt artifact is never mistaken for an old one.
type ClassStore interface {
	GetClassHash(ctx context.Context, name, digest string) (string, bool, error)
	PutClassHash(ctx context.Context, name, digest, classHash string) error
}

// ArtifactSource resolves a contract name to its compiled artifact.
type ArtifactSource interface {
	Load(name string) (*starknet.Artifact, error)
}

// ClassManager declares contract classes at most once per process.
type ClassManager struct {
	client    starknet.Client
	artifacts ArtifactSource
	store     ClassStore

	// name -> class hash (declared or confirmed on chain)
	classes map[string]*felt.Felt
	mu      sync.RWMutex

	group singleflight.Group
}

func NewClassManager(client starknet.Client, artifacts ArtifactSource, store ClassStore) *ClassManager {
	if store == nil {
		store = NewMemoryClassStore()
	}
	return &ClassManager{
		client:    client,
		artifacts: artifacts,
		store:     store,
		classes:   make(map[string]*felt.Felt),
	}
}

// DeclareCached returns the class hash of the named contract, declaring it
// first if the chain does not know it yet. Concurrent callers for the same
// name share one declaration.
func (m *ClassManager) DeclareCached(ctx context.Context, name string) (*felt.Felt, error) {
	m.mu.RLock()
	cached, ok := m.classes[name]
	m.mu.RUnlock()
	if ok {
		metrics.Declarations.WithLabelValues("memory").Inc()
		return cached, nil
	}

	v, err, _ := m.group.Do(name, func() (any, error) {
		return m.resolve(ctx, name)
	})
	if err != nil {
		return nil, err
	}
	return v.(*felt.Felt), nil
}

func (m *ClassManager) resolve(ctx context.Context, name string) (*felt.Felt, error) {
	artifact, err := m.artifacts.Load(name)
	if err != nil {
		return nil, err
	}
	digest := artifact.Digest.Hex()

	if remembered, ok := m.fromStore(ctx, name, digest); ok {
		metrics.Declarations.WithLabelValues("store").Inc()
		return m.remember(name, remembered), nil
	}

	declared, err := m.client.IsDeclared(ctx, artifact.ClassHash)
	if err != nil {
		return nil, err
	}
	if declared {
		logger.Info("Class already declared", "contract", name, "class_hash", artifact.ClassHash.String())
		metrics.Declarations.WithLabelValues("chain").Inc()
		m.persist(ctx, name, digest, artifact.ClassHash)
		return m.remember(name, artifact.ClassHash), nil
	}

	classHash, txHash, err := m.client.Declare(ctx, artifact)
	if err != nil {
		return nil, fmt.Errorf("declare %s: %w", name, err)
	}
	if _, err := m.client.WaitForTransaction(ctx, txHash); err != nil {
		return nil, fmt.Errorf("declare %s: %w", name, err)
	}
	logger.Info("Declared class", "contract", name, "class_hash", classHash.String(), "tx", txHash.String())
	metrics.Declarations.WithLabelValues("declared").Inc()

	m.persist(ctx, name, digest, classHash)
	return m.remember(name, classHash), nil
}

// fromStore only trusts a stored hash the node confirms; a restarted devnet
// forgets every class.
func (m *ClassManager) fromStore(ctx context.Context, name, digest string) (*felt.Felt, bool) {
	raw, ok, err := m.store.GetClassHash(ctx, name, digest)
	if err != nil {
		logger.Warn("Class store lookup failed", "contract", name, "error", err)
		return nil, false
	}
	if !ok {
		return nil, false
	}
	classHash, err := new(felt.Felt).SetString(raw)
	if err != nil {
		logger.Warn("Ignoring malformed stored class hash", "contract", name, "value", raw)
		return nil, false
	}
	declared, err := m.client.IsDeclared(ctx, classHash)
	if err != nil || !declared {
		return nil, false
	}
	return classHash, true
}

func (m *ClassManager) persist(ctx context.Context, name, digest string, classHash *felt.Felt) {
	if err := m.store.PutClassHash(ctx, name, digest, classHash.String()); err != nil {
		logger.Warn("Class store write failed", "contract", name, "error", err)
	}
}

func (m *ClassManager) remember(name string, classHash *felt.Felt) *felt.Felt {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.classes[name] = classHash
	return classHash
}

// Forget drops the in-memory entry for name.
func (m *ClassManager) Forget(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.classes, name)
}

// --- in-memory store ---

type MemoryClassStore struct {
	mu     sync.RWMutex
	hashes map[string]string
}

func NewMemoryClassStore() *MemoryClassStore {
	return &MemoryClassStore{hashes: make(map[string]string)}
}

func (s *MemoryClassStore) GetClassHash(_ context.Context, name, digest string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	h, ok := s.hashes[name+":"+digest]
	return h, ok, nil
}

func (s *MemoryClassStore) PutClassHash(_ context.Context, name, digest, classHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hashes[name+":"+digest] = classHash
	return nil
}
