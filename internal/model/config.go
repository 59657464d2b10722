package model

import (
	"math/big"
	"strings"
)

// ZeroAddress is what unset protocol addresses resolve to.
const ZeroAddress = "0x0"

type PragmaAddresses struct {
	Oracle       string `json:"oracle"`
	SummaryStats string `json:"summary_stats"`
}

type EkuboAddresses struct {
	Core string `json:"core"`
}

// ProtocolAddresses 已部署的协议合约地址 (deployment.json).
type ProtocolAddresses struct {
	PoolFactory string          `json:"poolFactory"`
	Pool        string          `json:"pool"`
	Oracle      string          `json:"oracle"`
	Pragma      PragmaAddresses `json:"pragma"`
	Ekubo       EkuboAddresses  `json:"ekubo"`
	Singleton   string          `json:"singleton"`
}

type PoolConfig struct {
	Params CreatePoolParams `json:"params"`
}

// Config is the fully resolved configuration for one network.
type Config struct {
	Name     string                `json:"name"`
	Protocol ProtocolAddresses     `json:"protocol"`
	Env      []EnvAssetParams      `json:"env,omitempty"`
	Pools    map[string]PoolConfig `json:"pools"`
}

// IsSet reports whether addr is a real address rather than a placeholder.
func IsSet(addr string) bool {
	return addr != "" && !sameAddress(addr, ZeroAddress)
}

func sameAddress(a, b string) bool {
	x, okA := parseHex(a)
	y, okB := parseHex(b)
	if !okA || !okB {
		return strings.EqualFold(a, b)
	}
	return x.Cmp(y) == 0
}

func parseHex(s string) (*big.Int, bool) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "0x") && !strings.HasPrefix(s, "0X") {
		return nil, false
	}
	return new(big.Int).SetString(s[2:], 16)
}
