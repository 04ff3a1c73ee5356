package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/KaramelBytes/dqboard/internal/dataset"
)

// Metrics holds the dashboard collectors on a private registry.
type Metrics struct {
	registry   *prometheus.Registry
	operations *prometheus.CounterVec
	duration   *prometheus.HistogramVec
	sessions   prometheus.Gauge
}

// NewMetrics registers the dashboard collectors plus the Go runtime ones.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	f := promauto.With(reg)
	return &Metrics{
		registry: reg,
		// OperationsTotal counts dashboard actions by outcome.
		operations: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dqboard_operations_total",
				Help: "Total number of dashboard operations",
			},
			[]string{"operation", "result"},
		),
		duration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "dqboard_operation_duration_seconds",
				Help:    "Dashboard operation latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		sessions: f.NewGauge(prometheus.GaugeOpts{
			Name: "dqboard_sessions_active",
			Help: "Number of live sessions",
		}),
	}
}

func (m *Metrics) observe(op string, start time.Time, err error, empty bool) {
	result := "ok"
	switch {
	case err != nil && errors.Is(err, dataset.ErrEmptyResult):
		result = "empty"
	case err != nil:
		result = "error"
	case empty:
		result = "empty"
	}
	m.operations.WithLabelValues(op, result).Inc()
	m.duration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}

// SetSessions records the live session count.
func (m *Metrics) SetSessions(n int) { m.sessions.Set(float64(n)) }

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
