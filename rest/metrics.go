package rest

import (
	"net/http"
	"strconv"
	"time"

	"github.com/evergreen-ci/gimlet"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// serviceMetrics holds the prometheus collectors for one service. Each
// service has its own registry so tests can build services side by side.
type serviceMetrics struct {
	registry *prometheus.Registry

	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
	sections prometheus.Histogram
	breaks   *prometheus.CounterVec
}

func newServiceMetrics() *serviceMetrics {
	m := &serviceMetrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "levy_requests_total",
				Help: "Total number of analysis requests by route and status code",
			},
			[]string{"route", "status"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "levy_request_duration_seconds",
				Help:    "Duration of analysis requests in seconds",
				Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0},
			},
			[]string{"route"},
		),
		sections: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "levy_sections_per_series",
				Help:    "Number of Lévy sections built per analyzed series",
				Buckets: prometheus.ExponentialBuckets(1, 4, 8),
			},
		),
		breaks: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "levy_breaks_total",
				Help: "Total number of detected breaks by regime",
			},
			[]string{"regime"},
		),
	}

	m.registry.MustRegister(m.requests, m.duration, m.sections, m.breaks)
	return m
}

func (m *serviceMetrics) observe(route string, start time.Time, resp gimlet.Responder) {
	m.requests.WithLabelValues(route, strconv.Itoa(resp.Status())).Inc()
	m.duration.WithLabelValues(route).Observe(time.Since(start).Seconds())
}

func (m *serviceMetrics) handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
