package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RPCCallsTotal tracks RPC calls per provider and method
	RPCCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jackpot_rpc_calls_total",
			Help: "Total number of RPC calls",
		},
		[]string{"chain", "provider", "method"},
	)

	// RPCErrorsTotal tracks RPC errors per provider
	RPCErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jackpot_rpc_errors_total",
			Help: "Total number of RPC errors",
		},
		[]string{"chain", "provider", "error_type"},
	)

	// RPCLatency tracks RPC call latency
	RPCLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "jackpot_rpc_latency_seconds",
			Help:    "RPC call latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"chain", "provider", "method"},
	)

	// ProviderFailovers counts switches from one provider to the next
	ProviderFailovers = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jackpot_rpc_failovers_total",
			Help: "Total number of provider failovers",
		},
		[]string{"chain", "from"},
	)

	// QueryFetchesTotal tracks query fetches by query name and outcome
	QueryFetchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jackpot_query_fetches_total",
			Help: "Total number of query fetches",
		},
		[]string{"query", "outcome"},
	)

	// QueryFetchLatency tracks how long a query fetch takes, retries included
	QueryFetchLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "jackpot_query_fetch_duration_seconds",
			Help:    "Query fetch duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"query"},
	)

	// QueryObservers tracks mounted observers across all keys
	QueryObservers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "jackpot_query_observers",
			Help: "Number of mounted query observers",
		},
	)

	// QueryCacheEntries tracks cache entries held by the query client
	QueryCacheEntries = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "jackpot_query_cache_entries",
			Help: "Number of cached query entries",
		},
	)

	// WithdrawSubmissions tracks withdrawal writes by outcome
	WithdrawSubmissions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jackpot_withdraw_submissions_total",
			Help: "Total number of withdrawal submissions",
		},
		[]string{"outcome"},
	)

	// WinnersRecorded tracks jackpot results persisted to the history store
	WinnersRecorded = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "jackpot_winners_recorded_total",
			Help: "Total number of jackpot results recorded",
		},
	)

	// DBConnectionPoolUsage tracks database connection pool usage percentage
	DBConnectionPoolUsage = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "jackpot_db_connection_pool_usage_percent",
			Help: "Database connection pool usage percentage",
		},
	)
)
