// Package metrics provides Prometheus instrumentation for the analysis engine
// and the HTTP API.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "muletrace"

var (
	// AnalysesTotal counts analysis runs by outcome.
	AnalysesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "analyses_total",
			Help:      "Total analysis runs by outcome.",
		},
		[]string{"outcome"}, // "success", "invalid_input", "detector_failed", "canceled"
	)

	// AnalysisDuration observes end-to-end analysis latency.
	AnalysisDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "analysis_duration_seconds",
			Help:      "End-to-end analysis duration in seconds.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
	)

	// DetectorDuration observes the runtime of each detector.
	DetectorDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "detector",
			Name:      "duration_seconds",
			Help:      "Detector runtime in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"detector"},
	)

	// RingsDetected counts scored rings by pattern.
	RingsDetected = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rings_detected_total",
			Help:      "Total deduplicated rings by pattern type.",
		},
		[]string{"pattern"},
	)

	// AccountsFlagged observes how many accounts each run flags.
	AccountsFlagged = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "accounts_flagged",
			Help:      "Number of suspicious accounts per analysis run.",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 8),
		},
	)

	// TransactionsAnalyzed counts transactions fed into the engine.
	TransactionsAnalyzed = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transactions_analyzed_total",
			Help:      "Total transactions processed by the analysis engine.",
		},
	)

	// HTTPRequestsTotal counts HTTP requests by method, path and status.
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total HTTP requests by method, path and status code.",
		},
		[]string{"method", "path", "status"},
	)

	// HTTPRequestDuration observes request latency by method and path.
	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)
)

func init() {
	prometheus.MustRegister(
		AnalysesTotal,
		AnalysisDuration,
		DetectorDuration,
		RingsDetected,
		AccountsFlagged,
		TransactionsAnalyzed,
		HTTPRequestsTotal,
		HTTPRequestDuration,
	)
}

// Handler exposes the default registry in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveHTTP records one completed request.
func ObserveHTTP(method, path string, status int, elapsed time.Duration) {
	HTTPRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	HTTPRequestDuration.WithLabelValues(method, path).Observe(elapsed.Seconds())
}
