// Package metrics defines the process-wide Prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	UpstreamRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "perpfeed_upstream_requests_total",
		Help: "Exchange API requests, partitioned by exchange and outcome",
	}, []string{"exchange", "outcome"})

	UpstreamDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "perpfeed_upstream_request_seconds",
		Help:    "Exchange API request latency",
		Buckets: prometheus.ExponentialBuckets(0.025, 2, 10),
	}, []string{"exchange"})

	TradesNormalized = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "perpfeed_trades_normalized_total",
		Help: "Raw trades normalized, partitioned by exchange",
	}, []string{"exchange"})

	ValidationFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "perpfeed_validation_failures_total",
		Help: "Upstream pages rejected by schema validation",
	}, []string{"exchange"})

	AggregateFallbacks = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "perpfeed_aggregate_fallbacks_total",
		Help: "Exchange failures replaced with an empty contribution",
	}, []string{"exchange"})

	CacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "perpfeed_cache_lookups_total",
		Help: "Trade page cache lookups",
	}, []string{"result"}) // hit/miss

	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "perpfeed_http_requests_total",
		Help: "API requests served, partitioned by route pattern and status",
	}, []string{"route", "status"})

	RateLimited = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "perpfeed_rate_limited_total",
		Help: "API requests rejected by the rate limiter",
	}, []string{"bucket"})

	SyncRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "perpfeed_sync_runs_total",
		Help: "Wallet sync runs, partitioned by result",
	}, []string{"result"})

	SyncedTrades = promauto.NewCounter(prometheus.CounterOpts{
		Name: "perpfeed_synced_trades_total",
		Help: "Trades newly persisted by the wallet sync",
	})

	WSClients = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "perpfeed_ws_clients",
		Help: "Connected websocket clients",
	})
)
