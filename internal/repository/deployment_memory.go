package repository

import (
	"context"
	"sync"

	"github.com/GoPolymarket/vesu-deployer/internal/model"
)

// MemoryDeploymentRepo is a fixed-size ring of the latest records, used when
// no database is configured.
type MemoryDeploymentRepo struct {
	mu        sync.Mutex
	maxSize   int
	records   []*model.DeploymentRecord
	nextIndex int
}

func NewMemoryDeploymentRepo(maxSize int) *MemoryDeploymentRepo {
	if maxSize <= 0 {
		maxSize = maxListLimit
	}
	return &MemoryDeploymentRepo{
		maxSize: maxSize,
		records: make([]*model.DeploymentRecord, 0, maxSize),
	}
}

func (r *MemoryDeploymentRepo) Insert(_ context.Context, record *model.DeploymentRecord) error {
	if record == nil {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.records) < r.maxSize {
		r.records = append(r.records, record)
		return nil
	}
	r.records[r.nextIndex] = record
	r.nextIndex = (r.nextIndex + 1) % r.maxSize
	return nil
}

func (r *MemoryDeploymentRepo) List(_ context.Context, network string, limit int) ([]*model.DeploymentRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	limit = clampLimit(limit)

	results := make([]*model.DeploymentRecord, 0, limit)
	total := len(r.records)
	for i := 0; i < total; i++ {
		idx := (r.nextIndex + total - 1 - i) % total
		record := r.records[idx]
		if network != "" && record.Network != network {
			continue
		}
		results = append(results, record)
		if len(results) >= limit {
			break
		}
	}
	return results, nil
}
