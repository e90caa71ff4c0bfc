package telemetry

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Call status label values.
const (
	StatusSuccess = "success"
	StatusError   = "error"
	StatusSkipped = "skipped"
)

// PrometheusMetrics records advised call metrics in Prometheus vectors.
type PrometheusMetrics struct {
	callDuration *prometheus.HistogramVec
	returns      *prometheus.CounterVec
	throws       *prometheus.CounterVec
}

// NewPrometheusMetrics registers the metric vectors with registerer.
func NewPrometheusMetrics(registerer prometheus.Registerer) *PrometheusMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}
	factory := promauto.With(registerer)

	return &PrometheusMetrics{
		callDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "weave_advised_call_duration_seconds",
				Help:    "Duration of advised method calls in seconds, including advice",
				Buckets: []float64{.0005, .001, .005, .01, .025, .05, .1, .25, .5, 1},
			},
			[]string{"method", "status"},
		),
		returns: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "weave_advised_returns_total",
				Help: "Total number of advised operations that returned normally",
			},
			[]string{"method"},
		),
		throws: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "weave_advised_errors_total",
				Help: "Total number of advised operations that returned an error",
			},
			[]string{"method", "error_type"},
		),
	}
}

// ObserveReturn counts a successful return of method.
func (p *PrometheusMetrics) ObserveReturn(method string) {
	p.returns.WithLabelValues(method).Inc()
}

// ObserveError counts an error of errorType returned by method.
func (p *PrometheusMetrics) ObserveError(method string, errorType string) {
	p.throws.WithLabelValues(method, errorType).Inc()
}

// ObserveCall records the duration of one call to method by status.
func (p *PrometheusMetrics) ObserveCall(method string, status string, duration time.Duration) {
	p.callDuration.WithLabelValues(method, status).Observe(duration.Seconds())
}

// Handler serves the metrics gathered by gatherer.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
