package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaultsAndEnv(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("NETWORK", "mainnet")
	t.Setenv("RPC_URL", "https://starknet.example/rpc")
	t.Setenv("ADDRESS", "0x123")
	t.Setenv("PRIVATE_KEY", "0xabc")
	t.Setenv("VESU_REDIS_ADDR", "localhost:6379")
	t.Setenv("VESU_REDIS_PASSWORD", "secret")
	t.Setenv("VESU_REDIS_DB", "2")
	t.Setenv("VESU_DATABASE_DSN", "postgres://vesu@localhost/vesu")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "mainnet", cfg.Network)
	assert.Equal(t, "https://starknet.example/rpc", cfg.RPC.URL)
	assert.Equal(t, "0x123", cfg.Account.Address)
	assert.Equal(t, "0xabc", cfg.Account.PrivateKey)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, "secret", cfg.Redis.Password)
	assert.Equal(t, 2, cfg.Redis.DB)
	assert.Equal(t, "postgres://vesu@localhost/vesu", cfg.Database.DSN)
	assert.Equal(t, 2000, cfg.RPC.PollIntervalMs)
	assert.Equal(t, "vesu", cfg.Artifacts.Package)

	mainnet, ok := cfg.Networks["mainnet"]
	require.True(t, ok)
	assert.Equal(t, "genesis-pool", mainnet.PoolName)
	assert.Equal(t, "deployment.json", mainnet.DeploymentPath)
}

func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("NETWORK", "")
	t.Setenv("RPC_URL", "")
	yaml := `
network: sepolia
rpc:
  url: http://localhost:5050
  requests_per_second: 0
networks:
  sepolia:
    config_path: configs/sepolia.json
    deployment_path: deployment.sepolia.json
    pool_name: test-pool
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sepolia", cfg.Network)
	assert.Equal(t, "http://localhost:5050", cfg.RPC.URL)
	assert.Zero(t, cfg.RPC.RequestsPerSecond)
	assert.Equal(t, "test-pool", cfg.Networks["sepolia"].PoolName)
}
