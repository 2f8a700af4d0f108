package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP request latency (seconds)
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4s
		},
		[]string{"method", "path", "status"},
	)

	// Catalog store query latency (seconds)
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "db_query_duration_seconds",
			Help:    "Database query duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4s
		},
		[]string{"operation", "table"},
	)

	// Disbursement workflow decisions
	DisbursementWorkflowCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "disbursement_workflow_count",
			Help: "Total number of disbursement workflow operations",
		},
		[]string{"action", "outcome"}, // action: request, status_update; outcome: ok, rejected
	)

	// Report generation latency (seconds)
	ReportGenerationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "report_generation_duration_seconds",
			Help:    "Financial report generation duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 12),
		},
		[]string{"report_type"}, // utilization_certificate, compliance_report
	)

	// Portfolio overview cache effectiveness
	PortfolioCacheCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "portfolio_cache_count",
			Help: "Portfolio overview cache lookups",
		},
		[]string{"result"}, // hit, miss
	)
)

// RecordHTTPRequestDuration records one HTTP request observation.
func RecordHTTPRequestDuration(method, path, status string, duration time.Duration) {
	HTTPRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}

// RecordDBQueryDuration records one catalog store query observation.
func RecordDBQueryDuration(operation, table string, duration time.Duration) {
	DBQueryDuration.WithLabelValues(operation, table).Observe(duration.Seconds())
}

// IncrementDisbursementWorkflow counts one workflow decision.
func IncrementDisbursementWorkflow(action, outcome string) {
	DisbursementWorkflowCount.WithLabelValues(action, outcome).Inc()
}

// RecordReportGeneration records one report generation observation.
func RecordReportGeneration(reportType string, duration time.Duration) {
	ReportGenerationDuration.WithLabelValues(reportType).Observe(duration.Seconds())
}

// IncrementPortfolioCache counts one overview cache lookup.
func IncrementPortfolioCache(result string) {
	PortfolioCacheCount.WithLabelValues(result).Inc()
}
