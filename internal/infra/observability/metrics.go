package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	dto "github.com/prometheus/client_model/go"

	"github.com/mymoney-app/mymoney-api/internal/domain"
)

// Metrics holds all Prometheus metrics for the liquidity engine.
type Metrics struct {
	// Registry is the Prometheus registry that owns these metrics.
	// Exposed so the /metrics endpoint can use it.
	Registry *prometheus.Registry

	requestDuration   *prometheus.HistogramVec
	storeErrors       *prometheus.CounterVec
	cacheHits         *prometheus.CounterVec
	cacheMisses       *prometheus.CounterVec
	recomputesTotal   *prometheus.CounterVec
	resolverFallbacks prometheus.Counter
	requestsTotal     *prometheus.CounterVec
}

// NewMetrics creates a dedicated Prometheus registry and registers all
// application metrics in it. Using a private registry avoids "duplicate
// collector" panics when NewMetrics is called more than once (e.g. in tests).
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,

		requestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "mymoney_request_duration_seconds",
				Help:    "Duration of engine operations.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		storeErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mymoney_store_errors_total",
				Help: "Total errors from the document store.",
			},
			[]string{"collection"},
		),
		cacheHits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mymoney_cache_hits_total",
				Help: "Total cache hits.",
			},
			[]string{"cache"},
		),
		cacheMisses: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mymoney_cache_misses_total",
				Help: "Total cache misses.",
			},
			[]string{"cache"},
		),
		recomputesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mymoney_recomputes_total",
				Help: "Total balance recomputations by trigger.",
			},
			[]string{"trigger"},
		),
		resolverFallbacks: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "mymoney_resolver_calculated_total",
				Help: "Opening-balance resolutions that fell back to calculation.",
			},
		),
		requestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mymoney_requests_total",
				Help: "Total requests processed.",
			},
			[]string{"status"},
		),
	}
}

// RecordRequestDuration records the duration of an operation.
func (m *Metrics) RecordRequestDuration(operation string, d time.Duration) {
	m.requestDuration.WithLabelValues(operation).Observe(d.Seconds())
}

// IncrStoreError increments the store error counter for a collection.
func (m *Metrics) IncrStoreError(collection string) {
	m.storeErrors.WithLabelValues(collection).Inc()
}

// IncrCacheHit increments the cache hit counter.
func (m *Metrics) IncrCacheHit(cache string) {
	m.cacheHits.WithLabelValues(cache).Inc()
}

// IncrCacheMiss increments the cache miss counter.
func (m *Metrics) IncrCacheMiss(cache string) {
	m.cacheMisses.WithLabelValues(cache).Inc()
}

// IncrRecompute counts a balance recomputation. Trigger is the mutating
// operation that required it (e.g. "transaction_create", "savings_delete").
func (m *Metrics) IncrRecompute(trigger string) {
	m.recomputesTotal.WithLabelValues(trigger).Inc()
}

// IncrResolverFallback counts a calculated (non-recorded) opening resolution.
func (m *Metrics) IncrResolverFallback() {
	m.resolverFallbacks.Inc()
}

// IncrRequest increments the request counter with a status label.
func (m *Metrics) IncrRequest(status string) {
	m.requestsTotal.WithLabelValues(status).Inc()
}

// GetEngineSnapshot returns a snapshot of engine counters suitable for the
// GET /api/metrics/engine endpoint.
func (m *Metrics) GetEngineSnapshot() *domain.EngineMetrics {
	totalRequests := getCounterValue(m.requestsTotal.WithLabelValues("success")) +
		getCounterValue(m.requestsTotal.WithLabelValues("error"))
	errorCount := getCounterValue(m.requestsTotal.WithLabelValues("error"))
	cacheHits := getCounterValue(m.cacheHits.WithLabelValues("dashboard"))
	cacheMisses := getCounterValue(m.cacheMisses.WithLabelValues("dashboard"))

	var recomputes float64
	for _, trigger := range []string{
		"transaction_create", "transaction_update", "transaction_delete",
		"savings_create", "savings_update", "savings_delete", "manual",
	} {
		recomputes += getCounterValue(m.recomputesTotal.WithLabelValues(trigger))
	}

	storeErrors := float64(0)
	for _, collection := range []string{
		"transactions", "monthly_liquidity", "initial_liquidity",
		"savings_sources", "fixed_expenses", "expected_incomes",
	} {
		storeErrors += getCounterValue(m.storeErrors.WithLabelValues(collection))
	}

	errorRate := float64(0)
	cacheHitRate := float64(0)
	if totalRequests > 0 {
		errorRate = errorCount / totalRequests
	}
	if cacheHits+cacheMisses > 0 {
		cacheHitRate = cacheHits / (cacheHits + cacheMisses)
	}

	return &domain.EngineMetrics{
		TotalRequests:  int64(totalRequests),
		ErrorRate:      errorRate,
		RecomputeCount: int64(recomputes),
		StoreErrors:    int64(storeErrors),
		CacheHitRate:   cacheHitRate,
		Period:         "all_time",
	}
}

// getCounterValue extracts the current float64 value from a counter.
func getCounterValue(counter prometheus.Counter) float64 {
	m := &dto.Metric{}
	if err := counter.Write(m); err != nil {
		return 0
	}
	if m.Counter != nil && m.Counter.Value != nil {
		return *m.Counter.Value
	}
	return 0
}
