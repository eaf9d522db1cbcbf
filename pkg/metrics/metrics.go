package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics for monitoring
var (
	Requests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "relayer_requests_total",
		Help: "The total number of purchase and redeem workflows by outcome",
	}, []string{"workflow", "outcome"})

	RequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "relayer_request_duration_seconds",
		Help:    "Time taken to run a workflow end to end",
		Buckets: prometheus.ExponentialBuckets(0.05, 2, 10), // 50ms to ~25s
	}, []string{"workflow"})

	OracleReads = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "relayer_oracle_reads_total",
		Help: "Oracle price reads by chain and status",
	}, []string{"chain", "status"})

	GasPrice = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "relayer_gas_price_gwei",
		Help: "Last oracle gas price observed per chain, in gwei",
	}, []string{"chain"})

	ScanLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "relayer_scan_lookups_total",
		Help: "Ownership lookups issued while enumerating positions",
	}, []string{"result"})

	BridgeQuotes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "relayer_bridge_quotes_total",
		Help: "Bridge quote requests by destination chain and status",
	}, []string{"dest_chain", "status"})

	SettlementCalls = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "relayer_settlement_calls_total",
		Help: "State-mutating settlement calls by method and status",
	}, []string{"method", "status"})

	GasUsed = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "relayer_gas_used",
		Help:    "Gas used by settlement transactions",
		Buckets: prometheus.ExponentialBuckets(21000, 2, 10), // Start at 21000 with 10 buckets doubling in size
	}, []string{"method"})

	SendRetries = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "relayer_send_retries_total",
		Help: "Retried settlement transaction submissions by method and error kind",
	}, []string{"method", "kind"})

	PendingTransactions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "relayer_pending_transactions",
		Help: "Settlement transactions sent and not yet mined",
	})

	CircuitOpen = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "relayer_circuit_open",
		Help: "1 when the named circuit breaker is open",
	}, []string{"name"})

	RateLimited = promauto.NewCounter(prometheus.CounterOpts{
		Name: "relayer_rate_limited_total",
		Help: "API requests rejected by the rate limiter",
	})
)
