package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	// UpstreamRequests counts outbound provider calls by provider and
	// outcome ("ok" or an entity.UpstreamErrorKind value).
	UpstreamRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "upstream_requests_total",
			Help: "Outbound provider requests by provider and outcome.",
		},
		[]string{"provider", "outcome"},
	)

	// PriceCacheEvents counts price cache activity: "hit", "miss",
	// "stale_serve".
	PriceCacheEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "price_cache_events_total",
			Help: "Price cache lookups by result.",
		},
		[]string{"event"},
	)

	// SnapshotDuration observes end-to-end portfolio aggregation time.
	SnapshotDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "portfolio_snapshot_duration_seconds",
			Help:    "Time to assemble one portfolio snapshot.",
			Buckets: prometheus.DefBuckets,
		},
	)
)

// MustRegisterMetrics registers all collectors with the default
// registry. Call once at startup.
func MustRegisterMetrics() {
	prometheus.MustRegister(UpstreamRequests, PriceCacheEvents, SnapshotDuration)
}
