package monitoring

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Resolution metrics
	resolutionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "adparams_resolutions_total",
			Help: "Total number of parameter resolutions by outcome",
		},
		[]string{"table", "outcome"},
	)

	cacheLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "adparams_cache_lookups_total",
			Help: "Resolved-set cache lookups",
		},
		[]string{"table", "result"},
	)

	// Source metrics
	loadErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "adparams_load_errors_total",
			Help: "Total number of load and validation errors by category",
		},
		[]string{"category"},
	)

	// Optimization metrics
	sweepPointsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "adparams_sweep_points_total",
			Help: "Sweep points produced",
		},
		[]string{"table"},
	)

	sweepSize = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "adparams_sweep_size",
			Help: "Number of points in the configured sweep",
		},
		[]string{"table"},
	)
)

func init() {
	prometheus.MustRegister(resolutionsTotal)
	prometheus.MustRegister(cacheLookups)
	prometheus.MustRegister(loadErrorsTotal)
	prometheus.MustRegister(sweepPointsTotal)
	prometheus.MustRegister(sweepSize)
}

// MetricsHandler handles Prometheus metrics endpoint
type MetricsHandler struct{}

// NewMetricsHandler creates a new metrics handler
func NewMetricsHandler() *MetricsHandler {
	return &MetricsHandler{}
}

// ServeHTTP serves the Prometheus metrics endpoint
func (m *MetricsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

// RecordResolution records one resolution; outcome is "ok" or "error"
func RecordResolution(table, outcome string) {
	resolutionsTotal.WithLabelValues(table, outcome).Inc()
}

// RecordCacheLookup records a cache hit or miss
func RecordCacheLookup(table string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	cacheLookups.WithLabelValues(table, result).Inc()
}

// RecordLoadError records a load or validation error
func RecordLoadError(category string) {
	loadErrorsTotal.WithLabelValues(category).Inc()
}

// RecordSweepPoint records one produced sweep point
func RecordSweepPoint(table string) {
	sweepPointsTotal.WithLabelValues(table).Inc()
}

// SetSweepSize records the size of a configured sweep
func SetSweepSize(table string, n int) {
	sweepSize.WithLabelValues(table).Set(float64(n))
}
