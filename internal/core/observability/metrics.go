// Package observability holds the process-wide Prometheus collectors.
package observability

import (
	"errors"
	"strconv"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
)

var enabled atomic.Bool

func init() {
	enabled.Store(true)
	register(prometheus.DefaultRegisterer)
}

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "route", "status"},
	)

	httpRequestDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 12), // 5ms to ~20s
		},
		[]string{"method", "route", "status"},
	)

	geocodeRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "geocode_requests_total",
			Help: "Geocode provider requests by provider and result.",
		},
		[]string{"provider", "result"},
	)

	geocodeLatencySeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "geocode_latency_seconds",
			Help:    "Latency of geocode provider requests in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 11),
		},
		[]string{"provider"},
	)

	resolutionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "address_resolutions_total",
			Help: "Address resolutions by outcome.",
		},
		[]string{"outcome"},
	)

	cacheResults = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_results_total",
			Help: "Geocode cache lookups by backend and outcome.",
		},
		[]string{"backend", "outcome"},
	)

	cacheOpsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_op_total",
			Help: "Redis cache operations by op and result.",
		},
		[]string{"op", "result"},
	)

	redisOpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "redis_operation_duration_seconds",
			Help:    "Redis operation latency in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 12),
		},
		[]string{"op"},
	)
)

func collectors() []prometheus.Collector {
	return []prometheus.Collector{
		httpRequestsTotal, httpRequestDurationSeconds,
		geocodeRequestsTotal, geocodeLatencySeconds,
		resolutionsTotal, cacheResults,
		cacheOpsTotal, redisOpDuration,
	}
}

func register(reg prometheus.Registerer) {
	for _, c := range collectors() {
		if err := reg.Register(c); err != nil {
			var are prometheus.AlreadyRegisteredError
			if !errors.As(err, &are) {
				panic(err)
			}
		}
	}
}

// Init additionally registers the collectors into reg and toggles recording.
func Init(reg prometheus.Registerer, on bool) {
	if reg != nil {
		register(reg)
	}
	enabled.Store(on)
}

func ObserveHTTP(method, route string, status int, durationSeconds float64) {
	if !enabled.Load() {
		return
	}
	st := strconv.Itoa(status)
	httpRequestsTotal.WithLabelValues(method, route, st).Inc()
	httpRequestDurationSeconds.WithLabelValues(method, route, st).Observe(durationSeconds)
}

// ObserveGeocode records one provider request; result is "ok" or an error kind.
func ObserveGeocode(provider, result string, durationSeconds float64) {
	if !enabled.Load() {
		return
	}
	geocodeRequestsTotal.WithLabelValues(provider, result).Inc()
	geocodeLatencySeconds.WithLabelValues(provider).Observe(durationSeconds)
}

func IncResolution(outcome string) {
	if !enabled.Load() {
		return
	}
	resolutionsTotal.WithLabelValues(outcome).Inc()
}

func IncCacheHit(backend string) {
	if !enabled.Load() {
		return
	}
	cacheResults.WithLabelValues(backend, "hit").Inc()
}

func IncCacheMiss(backend string) {
	if !enabled.Load() {
		return
	}
	cacheResults.WithLabelValues(backend, "miss").Inc()
}

func ObserveCacheOp(op string, err error, durationSeconds float64) {
	if !enabled.Load() {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	cacheOpsTotal.WithLabelValues(op, result).Inc()
	redisOpDuration.WithLabelValues(op).Observe(durationSeconds)
}
