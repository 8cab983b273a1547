// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	CacheOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wooadmin_cache_operations_total",
			Help: "Total TTL cache operations",
		},
		[]string{"type", "result"}, // type: get, set, clear; result: hit, miss, expired, ok
	)

	UpstreamRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wooadmin_upstream_requests_total",
			Help: "Total WooCommerce REST requests",
		},
		[]string{"endpoint", "outcome"}, // outcome: ok, rejected, network
	)

	UpstreamLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "wooadmin_upstream_request_seconds",
			Help:    "WooCommerce REST request latency",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
		},
		[]string{"endpoint"},
	)

	ShopFetchFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wooadmin_shop_fetch_failures_total",
			Help: "Per-shop fetches degraded to an empty contribution",
		},
		[]string{"component"}, // feed, stats, poller
	)

	NewOrdersNotified = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "wooadmin_new_orders_notified_total",
			Help: "New-order notifications emitted by the poller",
		},
	)

	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wooadmin_http_requests_total",
			Help: "Total HTTP requests served",
		},
		[]string{"method", "path", "status"},
	)
)
