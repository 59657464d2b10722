package config

import (
	"log"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Network   string                   `mapstructure:"network"`
	RPC       RPCConfig                `mapstructure:"rpc"`
	Account   AccountConfig            `mapstructure:"account"`
	Networks  map[string]NetworkConfig `mapstructure:"networks"`
	Artifacts ArtifactsConfig          `mapstructure:"artifacts"`
	Devnet    DevnetConfig             `mapstructure:"devnet"`
	Periphery PeripheryConfig          `mapstructure:"periphery"`
	Redis     RedisConfig              `mapstructure:"redis"`
	Database  DatabaseConfig           `mapstructure:"database"`
	Server    ServerConfig             `mapstructure:"server"`
	Metrics   MetricsConfig            `mapstructure:"metrics"`
	Log       LogConfig                `mapstructure:"log"`
}

type RPCConfig struct {
	URL               string  `mapstructure:"url"`
	RequestsPerSecond float64 `mapstructure:"requests_per_second"` // 0 disables throttling
	Burst             int     `mapstructure:"burst"`
	PollIntervalMs    int     `mapstructure:"poll_interval_ms"`
	FeeMultiplier     float64 `mapstructure:"fee_multiplier"`
}

// AccountConfig is only consulted outside devnet; devnet uses predeployed accounts.
type AccountConfig struct {
	Address    string `mapstructure:"address"`
	PrivateKey string `mapstructure:"private_key"`
	PublicKey  string `mapstructure:"public_key"` // derived from the private key when empty
}

type NetworkConfig struct {
	ConfigPath     string `mapstructure:"config_path"`
	DeploymentPath string `mapstructure:"deployment_path"`
	PoolName       string `mapstructure:"pool_name"`
}

type ArtifactsConfig struct {
	Dir     string `mapstructure:"dir"`
	Package string `mapstructure:"package"`
}

type DevnetConfig struct {
	ApprovalAmount string `mapstructure:"approval_amount"`
}

type PeripheryConfig struct {
	SingletonV2      string `mapstructure:"singleton_v2"`
	Migrator         string `mapstructure:"migrator"`
	RebalanceFeeRate string `mapstructure:"rebalance_fee_rate"`
}

type RedisConfig struct {
	Addr      string `mapstructure:"addr"`
	Password  string `mapstructure:"password"`
	DB        int    `mapstructure:"db"`
	KeyPrefix string `mapstructure:"key_prefix"`
}

type DatabaseConfig struct {
	Driver string `mapstructure:"driver"` // postgres or sqlite
	DSN    string `mapstructure:"dsn"`
	LogDir string `mapstructure:"log_dir"`
}

type ServerConfig struct {
	Port              string  `mapstructure:"port"`
	RequestsPerSecond float64 `mapstructure:"requests_per_second"` // rates hit the node on every call
	Burst             int     `mapstructure:"burst"`
}

type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

const DefaultRPCURL = "http://127.0.0.1:5050"

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")

	// e.g. VESU_REDIS_ADDR
	v.SetEnvPrefix("vesu")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// The deployment scripts have always been driven by these unprefixed names.
	_ = v.BindEnv("network", "NETWORK")
	_ = v.BindEnv("rpc.url", "RPC_URL")
	_ = v.BindEnv("account.address", "ADDRESS")
	_ = v.BindEnv("account.private_key", "PRIVATE_KEY")
	_ = v.BindEnv("account.public_key", "PUBLIC_KEY")

	v.SetDefault("rpc.url", DefaultRPCURL)
	v.SetDefault("rpc.requests_per_second", 10)
	v.SetDefault("rpc.burst", 5)
	v.SetDefault("rpc.poll_interval_ms", 2000)
	v.SetDefault("rpc.fee_multiplier", 1.5)
	v.SetDefault("networks", map[string]any{
		"mainnet": map[string]any{
			"config_path":     "configurations/config_genesis_sn_main.json",
			"deployment_path": "deployment.json",
			"pool_name":       "genesis-pool",
		},
	})
	v.SetDefault("artifacts.dir", "target/release")
	v.SetDefault("artifacts.package", "vesu")
	v.SetDefault("devnet.approval_amount", "2000")
	v.SetDefault("periphery.singleton_v2", "0x000d8d6dfec4d33bfb6895de9f3852143a17c6f92fd2a21da3d6924d34870160")
	v.SetDefault("periphery.migrator", "0x07bffc7f6bda62b7bee9b7880579633a38f7ef910e0ad5e686b0b8712e216a19")
	v.SetDefault("periphery.rebalance_fee_rate", "0")
	// empty defaults register the keys so VESU_* env vars reach Unmarshal
	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.key_prefix", "vesu:class:")
	v.SetDefault("database.driver", "postgres")
	v.SetDefault("database.dsn", "")
	v.SetDefault("account.address", "")
	v.SetDefault("account.private_key", "")
	v.SetDefault("account.public_key", "")
	v.SetDefault("network", "")
	v.SetDefault("database.log_dir", "./logs")
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.requests_per_second", 5)
	v.SetDefault("server.burst", 10)
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")
	v.SetDefault("log.level", "info")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			log.Println("No config file found, using defaults and env vars")
		} else {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}
