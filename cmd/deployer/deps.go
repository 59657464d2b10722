package main

import (
	"context"
	"errors"

	"github.com/GoPolymarket/vesu-deployer/internal/manager"
	"github.com/GoPolymarket/vesu-deployer/internal/pkg/logger"
	"github.com/GoPolymarket/vesu-deployer/internal/repository"
	"github.com/GoPolymarket/vesu-deployer/internal/service"
)

// session holds what a command opened; close releases it.
type session struct {
	deployer *service.Deployer
	recorder *service.Recorder
	closers  []func() error
}

func (r *session) close() {
	r.recorder.Close()
	for _, c := range r.closers {
		if err := c(); err != nil {
			logger.Warn("Close failed", "error", err)
		}
	}
}

// openClassStore: Redis > memory
func openClassStore(rt *session) manager.ClassStore {
	if cfg.Redis.Addr == "" {
		return manager.NewMemoryClassStore()
	}
	client, err := repository.NewRedisClient(cfg)
	if err != nil {
		logger.Warn("Failed to connect to Redis, class hashes cached in memory only", "error", err)
		return manager.NewMemoryClassStore()
	}
	logger.Info("Connected to Redis", "addr", cfg.Redis.Addr)
	rt.closers = append(rt.closers, client.Close)
	return repository.NewRedisClassStore(client, cfg.Redis.KeyPrefix)
}

// openRegistry: database > memory
func openRegistry(rt *session) service.DeploymentRepo {
	if cfg.Database.DSN == "" && cfg.Database.Driver != "sqlite" {
		return repository.NewMemoryDeploymentRepo(0)
	}
	db, err := repository.NewDB(cfg)
	if err == nil {
		var repo *repository.GormDeploymentRepo
		if repo, err = repository.NewGormDeploymentRepo(db); err == nil {
			logger.Info("Connected to deployment registry", "driver", cfg.Database.Driver)
			if sqlDB, dbErr := db.DB(); dbErr == nil {
				rt.closers = append(rt.closers, sqlDB.Close)
			}
			return repo
		}
	}
	logger.Warn("Deployment registry unavailable, records kept in memory and log files", "error", err)
	return repository.NewMemoryDeploymentRepo(0)
}

// setup opens the stores and builds a Deployer for the selected network.
func setup(ctx context.Context) (*session, error) {
	rt := &session{}
	store := openClassStore(rt)
	registry := openRegistry(rt)

	recorder, err := service.NewRecorder(cfg.Database.LogDir, registry)
	if err != nil {
		rt.close()
		return nil, err
	}
	rt.recorder = recorder

	d, err := service.Setup(ctx, cfg, network, service.SetupDeps{
		ClassStore: store,
		Recorder:   recorder,
	})
	if err != nil {
		rt.close()
		return nil, err
	}
	rt.deployer = d
	return rt, nil
}

// withDeployer runs fn against a fresh Deployer and saves the protocol
// addresses afterwards when save is set, even if fn failed halfway. On devnet
// they go to the devnet deployment file (service.DeploymentPath).
func withDeployer(ctx context.Context, save bool, fn func(d *service.Deployer) error) error {
	rt, err := setup(ctx)
	if err != nil {
		return err
	}
	defer rt.close()

	runErr := fn(rt.deployer)
	if save {
		if err := rt.deployer.SaveDeployment(); err != nil {
			return errors.Join(runErr, err)
		}
	}
	return runErr
}
