// Package metrics provides Prometheus metrics for the catalog search service:
//   - http_request_total: Counter with method, path, and status labels
//   - http_request_duration_seconds: Histogram with method and path labels
//   - http_request_in_flight: Gauge for concurrent requests
//   - autocomplete_results: Histogram of suggestions returned per lookup
//   - catalog_refresh_total: Counter of catalog refreshes by result
//   - catalog_records: Gauge of records in the served snapshot
//
// All metrics are registered with the Prometheus default registry during
// package initialization.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	HTTPRequestTotals = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_request_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
		[]string{"method", "path"},
	)

	HTTPRequestInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_request_in_flight",
			Help: "Current in-flight requests",
		},
	)

	RateLimiterBucketsTotal = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "rate_limiter_buckets_total",
			Help: "Total number of rate limiter buckets (clients seen in last ~5 minutes)",
		},
	)

	AutocompleteResults = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "autocomplete_results",
			Help:    "Suggestions returned per autocomplete lookup",
			Buckets: []float64{0, 1, 2, 5, 10, 20, 50},
		},
		[]string{"kind"},
	)

	CatalogRefreshTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_refresh_total",
			Help: "Catalog refreshes by result",
		},
		[]string{"result"},
	)

	CatalogRecords = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "catalog_records",
			Help: "Records in the served catalog snapshot",
		},
		[]string{"kind"},
	)
)

// Lookup kinds
const (
	KindMedicine = "medicine"
	KindPatient  = "patient"
)

// Refresh results
const (
	RefreshSuccess  = "success"
	RefreshFailure  = "failure"
	RefreshRejected = "rejected"
	RefreshSkipped  = "skipped"
)

func init() {
	prometheus.MustRegister(HTTPRequestTotals)
	prometheus.MustRegister(HTTPRequestDuration)
	prometheus.MustRegister(HTTPRequestInFlight)
	prometheus.MustRegister(RateLimiterBucketsTotal)
	prometheus.MustRegister(AutocompleteResults)
	prometheus.MustRegister(CatalogRefreshTotal)
	prometheus.MustRegister(CatalogRecords)
}

// ObserveAutocomplete records the size of one autocomplete answer
func ObserveAutocomplete(kind string, results int) {
	AutocompleteResults.WithLabelValues(kind).Observe(float64(results))
}

// RecordRefresh counts a catalog refresh and, on success, the snapshot size
func RecordRefresh(result string, medicines, patients int) {
	CatalogRefreshTotal.WithLabelValues(result).Inc()
	if result == RefreshSuccess {
		CatalogRecords.WithLabelValues(KindMedicine).Set(float64(medicines))
		CatalogRecords.WithLabelValues(KindPatient).Set(float64(patients))
	}
}
