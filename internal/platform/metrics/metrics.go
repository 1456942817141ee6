// Package metrics exposes Prometheus collectors for the HTTP layer and the
// hospitalization aggregate. Collectors are registered with the default
// registry during package initialization.
package metrics

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	HTTPRequestTotals = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eessp_http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "eessp_http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
		[]string{"method", "path"},
	)

	HTTPRequestInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "eessp_http_requests_in_flight",
			Help: "Current in-flight requests",
		},
	)

	DBTransactions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eessp_db_transactions_total",
			Help: "Database transactions by outcome (commit, rollback)",
		},
		[]string{"outcome"},
	)

	AggregateWrites = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eessp_hospitalization_writes_total",
			Help: "Committed hospitalization aggregate writes by operation",
		},
		[]string{"operation"},
	)

	ChildItemsSkipped = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eessp_hospitalization_items_skipped_total",
			Help: "Child collection items dropped because their required field was blank",
		},
		[]string{"collection"},
	)

	PatientStubsCreated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "eessp_patient_stubs_created_total",
			Help: "Patients created implicitly by a hospitalization",
		},
	)
)

func init() {
	prometheus.MustRegister(HTTPRequestTotals)
	prometheus.MustRegister(HTTPRequestDuration)
	prometheus.MustRegister(HTTPRequestInFlight)
	prometheus.MustRegister(DBTransactions)
	prometheus.MustRegister(AggregateWrites)
	prometheus.MustRegister(ChildItemsSkipped)
	prometheus.MustRegister(PatientStubsCreated)
}

// Handler serves the default registry in the Prometheus text format.
func Handler() echo.HandlerFunc {
	return echo.WrapHandler(promhttp.Handler())
}
