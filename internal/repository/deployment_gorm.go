package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/GoPolymarket/vesu-deployer/internal/model"
)

const (
	defaultListLimit = 100
	maxListLimit     = 1000
)

// GormDeploymentRepo stores one row per deployed contract.
type GormDeploymentRepo struct {
	db *gorm.DB
}

func NewGormDeploymentRepo(db *gorm.DB) (*GormDeploymentRepo, error) {
	repo := &GormDeploymentRepo{db: db}
	if err := repo.ensureSchema(); err != nil {
		return nil, err
	}
	return repo, nil
}

func (r *GormDeploymentRepo) ensureSchema() error {
	return r.db.AutoMigrate(&model.DeploymentRecord{})
}

func (r *GormDeploymentRepo) Insert(ctx context.Context, record *model.DeploymentRecord) error {
	if record == nil {
		return nil
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(record).Error
}

// List returns the newest records first. An empty network matches all.
func (r *GormDeploymentRepo) List(ctx context.Context, network string, limit int) ([]*model.DeploymentRecord, error) {
	limit = clampLimit(limit)

	q := r.db.WithContext(ctx).Model(&model.DeploymentRecord{})
	if network != "" {
		q = q.Where("network = ?", network)
	}
	records := make([]*model.DeploymentRecord, 0, limit)
	if err := q.Order("created_at DESC").Limit(limit).Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

func clampLimit(limit int) int {
	if limit <= 0 || limit > maxListLimit {
		return defaultListLimit
	}
	return limit
}
