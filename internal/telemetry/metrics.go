// Package telemetry provides the Prometheus collectors shared by the caches.
package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds all Prometheus collectors for callcache.
type Metrics struct {
	CallsTotal     *prometheus.CounterVec
	CallDuration   *prometheus.HistogramVec
	CacheHits      *prometheus.CounterVec
	CacheMisses    *prometheus.CounterVec
	UpstreamErrors *prometheus.CounterVec
}

// NewMetrics creates and registers all metrics with the given registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		CallsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "callcache",
			Name:      "calls_total",
			Help:      "Total instrumented operation calls.",
		}, []string{"op", "outcome"}),

		CallDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "callcache",
			Name:      "call_duration_seconds",
			Help:      "Instrumented operation duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"op"}),

		CacheHits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "callcache",
			Name:      "content_cache_hits_total",
			Help:      "Total content cache hits.",
		}, []string{"cache"}),

		CacheMisses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "callcache",
			Name:      "content_cache_misses_total",
			Help:      "Total content cache misses.",
		}, []string{"cache"}),

		UpstreamErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "callcache",
			Name:      "upstream_errors_total",
			Help:      "Total failed upstream fetches.",
		}, []string{"cache"}),
	}

	reg.MustRegister(
		m.CallsTotal,
		m.CallDuration,
		m.CacheHits,
		m.CacheMisses,
		m.UpstreamErrors,
	)

	return m
}
