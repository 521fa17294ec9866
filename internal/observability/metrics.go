// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Catalog metrics
	RecordsRead     prometheus.Counter
	RecordsFiltered prometheus.Counter

	// Computation metrics
	RecordsProcessed prometheus.Counter
	RecordErrors     *prometheus.CounterVec
	KeplerIterations prometheus.Histogram

	// Pipeline metrics
	PipelineRunsTotal *prometheus.CounterVec
	PipelineDuration  prometheus.Histogram

	// API metrics
	APIRequests *prometheus.CounterVec

	// Database metrics
	DBQueryDuration *prometheus.HistogramVec
	DBQueryErrors   *prometheus.CounterVec

	// Health metrics
	LastSuccessfulRun prometheus.Gauge
}

// NewMetrics creates a new Metrics instance with all metrics registered
// on the default registry.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "neo_velocity"
	}

	return &Metrics{
		RecordsRead: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "catalog",
			Name:      "records_read_total",
			Help:      "Total number of catalog rows read",
		}),
		RecordsFiltered: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "catalog",
			Name:      "records_filtered_total",
			Help:      "Total number of catalog rows excluded by the filter",
		}),

		RecordsProcessed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "orbit",
			Name:      "records_processed_total",
			Help:      "Total number of rows converted to velocity results",
		}),
		RecordErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "orbit",
			Name:      "record_errors_total",
			Help:      "Total number of skipped rows by error kind",
		}, []string{"kind"}),
		KeplerIterations: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "orbit",
			Name:      "kepler_iterations",
			Help:      "Fixed-point iterations needed to solve Kepler's equation",
			Buckets:   []float64{1, 2, 5, 10, 20, 50, 100, 200, 500, 1000},
		}),

		PipelineRunsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "runs_total",
			Help:      "Total number of pipeline runs by status",
		}, []string{"status"}),
		PipelineDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "duration_seconds",
			Help:      "Pipeline run duration in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 14),
		}),

		APIRequests: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "api",
			Name:      "requests_total",
			Help:      "Total number of API requests by endpoint and status class",
		}, []string{"endpoint", "status"}),

		DBQueryDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_duration_seconds",
			Help:      "Database query duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"database", "operation"}),
		DBQueryErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_errors_total",
			Help:      "Total number of database query errors",
		}, []string{"database", "operation"}),

		LastSuccessfulRun: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_successful_run_timestamp",
			Help:      "Unix timestamp of last successful pipeline run",
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("")

// RecordRead increments the rows read counter.
func RecordRead() {
	DefaultMetrics.RecordsRead.Inc()
}

// RecordFiltered increments the filtered rows counter.
func RecordFiltered() {
	DefaultMetrics.RecordsFiltered.Inc()
}

// RecordProcessed records a converted row and its Kepler iteration count.
func RecordProcessed(iterations int) {
	DefaultMetrics.RecordsProcessed.Inc()
	if iterations > 0 {
		DefaultMetrics.KeplerIterations.Observe(float64(iterations))
	}
}

// RecordError records a skipped row.
func RecordError(kind string) {
	DefaultMetrics.RecordErrors.WithLabelValues(kind).Inc()
}

// RecordPipelineRun records a pipeline run.
func RecordPipelineRun(status string, durationSeconds float64, finishedUnix int64) {
	DefaultMetrics.PipelineRunsTotal.WithLabelValues(status).Inc()
	DefaultMetrics.PipelineDuration.Observe(durationSeconds)
	if status == "success" {
		DefaultMetrics.LastSuccessfulRun.Set(float64(finishedUnix))
	}
}

// RecordAPIRequest records an API request outcome.
func RecordAPIRequest(endpoint, status string) {
	DefaultMetrics.APIRequests.WithLabelValues(endpoint, status).Inc()
}

// RecordDBQuery records database query metrics.
func RecordDBQuery(database, operation string, seconds float64, err error) {
	DefaultMetrics.DBQueryDuration.WithLabelValues(database, operation).Observe(seconds)
	if err != nil {
		DefaultMetrics.DBQueryErrors.WithLabelValues(database, operation).Inc()
	}
}
