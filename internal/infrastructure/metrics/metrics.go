// Package metrics registers the service's Prometheus collectors on the
// default registry, which /metrics exposes.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "ktrain"

var (
	FitTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "fit_total",
		Help:      "Number of classifiers trained, by kind.",
	}, []string{"kind"})

	FitDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "fit_duration_seconds",
		Help:      "Classifier training time, by kind.",
		Buckets:   prometheus.ExponentialBuckets(0.01, 4, 8),
	}, []string{"kind"})

	PredictionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "predictions_total",
		Help:      "Number of texts classified, by kind.",
	}, []string{"kind"})

	ZeroShotRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "zeroshot_requests_total",
		Help:      "Zero-shot requests, by cache outcome.",
	}, []string{"cache"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "path", "status"})
)

// Cache outcome labels.
const (
	CacheHit      = "hit"
	CacheMiss     = "miss"
	CacheDisabled = "disabled"
)

// ObserveFit records one training run.
func ObserveFit(kind string, elapsed time.Duration) {
	FitTotal.WithLabelValues(kind).Inc()
	FitDuration.WithLabelValues(kind).Observe(elapsed.Seconds())
}

// ObservePredictions counts classified texts.
func ObservePredictions(kind string, n int) {
	PredictionsTotal.WithLabelValues(kind).Add(float64(n))
}

// ObserveHTTP records one served request.
func ObserveHTTP(method, path string, status int, elapsed time.Duration) {
	HTTPRequestDuration.WithLabelValues(method, path, strconv.Itoa(status)).Observe(elapsed.Seconds())
}
