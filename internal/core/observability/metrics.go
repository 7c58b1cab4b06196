// Package observability owns the service's Prometheus collectors.
package observability

import (
	"strconv"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
)

const defaultScenario = "direct"

var scenarioLabel atomic.Value

func init() {
	scenarioLabel.Store(defaultScenario)
}

func SetScenario(s string) {
	if s == "" {
		s = defaultScenario
	}
	scenarioLabel.Store(s)
}

func getScenario() string {
	if v := scenarioLabel.Load(); v != nil {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	return defaultScenario
}

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "route", "status", "scenario"},
	)

	httpRequestDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 14), // 1ms to ~8s
		},
		[]string{"method", "route", "status", "scenario"},
	)

	coverRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cover_requests_total",
			Help: "Coverings computed or served, by mode and outcome.",
		},
		[]string{"mode", "outcome", "scenario"},
	)

	coverDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "cover_duration_seconds",
			Help:    "Time spent producing a covering.",
			Buckets: prometheus.ExponentialBuckets(0.0001, 4, 10),
		},
		[]string{"mode", "scenario"},
	)

	coverCells = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "cover_cells",
			Help:    "Number of geohash cells in a covering.",
			Buckets: prometheus.ExponentialBuckets(1, 4, 10),
		},
		[]string{"mode"},
	)

	cacheResults = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_results_total",
			Help: "Covering cache lookups by tier and outcome.",
		},
		[]string{"tier", "outcome", "scenario"},
	)

	cacheOpTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_op_total",
			Help: "Redis operations by op and result.",
		},
		[]string{"op", "result"},
	)

	redisOpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "redis_operation_duration_seconds",
			Help:    "Latency of Redis operations.",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 12),
		},
		[]string{"op"},
	)

	hotKeys = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "hot_keys",
			Help: "Covering keys currently tracked for hotness.",
		},
		[]string{"scenario"},
	)

	cacheAdmissions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_admissions_total",
			Help: "Store decisions for computed coverings, by decision and reason.",
		},
		[]string{"decision", "reason"},
	)
)

// appCollectors lists everything Init registers on a Provider's registry.
func appCollectors() []prometheus.Collector {
	return []prometheus.Collector{
		httpRequestsTotal, httpRequestDurationSeconds,
		coverRequestsTotal, coverDurationSeconds, coverCells,
		cacheResults, cacheOpTotal, redisOpDuration,
		hotKeys, cacheAdmissions,
	}
}

func ObserveHTTP(method, route string, status int, durationSeconds float64) {
	s := getScenario()
	st := strconv.Itoa(status)
	httpRequestsTotal.WithLabelValues(method, route, st, s).Inc()
	httpRequestDurationSeconds.WithLabelValues(method, route, st, s).Observe(durationSeconds)
}

// ObserveCover records one covering. outcome is "ok" or an error class such
// as "invalid" or "error"; cells is only recorded on success.
func ObserveCover(mode, outcome string, cells int, durationSeconds float64) {
	s := getScenario()
	coverRequestsTotal.WithLabelValues(mode, outcome, s).Inc()
	coverDurationSeconds.WithLabelValues(mode, s).Observe(durationSeconds)
	if outcome == "ok" {
		coverCells.WithLabelValues(mode).Observe(float64(cells))
	}
}

func IncCacheHit(tier string) {
	cacheResults.WithLabelValues(tier, "hit", getScenario()).Inc()
}

func IncCacheMiss(tier string) {
	cacheResults.WithLabelValues(tier, "miss", getScenario()).Inc()
}

func ObserveCacheOp(op string, err error, durationSeconds float64) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	cacheOpTotal.WithLabelValues(op, result).Inc()
	redisOpDuration.WithLabelValues(op).Observe(durationSeconds)
}

func SetHotKeys(n int) {
	hotKeys.WithLabelValues(getScenario()).Set(float64(n))
}

func IncAdmission(decision, reason string) {
	cacheAdmissions.WithLabelValues(decision, reason).Inc()
}
