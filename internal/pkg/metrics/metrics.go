package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RPCRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vesu_deployer_rpc_requests_total",
		Help: "Starknet RPC requests issued, by method and outcome",
	}, []string{"method", "status"})

	RPCLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "vesu_deployer_rpc_latency_seconds",
		Help:    "Starknet RPC latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method"})

	Transactions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vesu_deployer_transactions_total",
		Help: "Transactions waited for, by kind and final execution status",
	}, []string{"kind", "status"})

	Declarations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vesu_deployer_declarations_total",
		Help: "Contract class declarations, by how the class hash was obtained",
	}, []string{"result"})

	LatencyBucket = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "vesu_deployer_http_latency_seconds",
		Help:    "Inspector API request latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"endpoint"})
)
