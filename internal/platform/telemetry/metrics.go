// Package telemetry wires Prometheus metrics and OpenTelemetry tracing into
// the HTTP stack and the clinical services.
package telemetry

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kelly-developers/patientcare-sub000/internal/platform/db"
)

// Metrics is safe to use through a nil pointer; every recorder is a no-op then.
type Metrics struct {
	reg prometheus.Gatherer

	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	SurgeryTransitions     *prometheus.CounterVec
	ConsensusReached       prometheus.Counter
	EmergencyNotifications prometheus.Counter
	VitalReadings          *prometheus.CounterVec
	ICUCriticalReadings    prometheus.Counter
	EventPublishFailures   prometheus.Counter
}

// NewMetrics registers all collectors on reg. Pass prometheus.NewRegistry()
// in tests to keep them isolated.
func NewMetrics(reg *prometheus.Registry, namespace string) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		reg: reg,
		RequestsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by method, route and status code.",
		}, []string{"method", "route", "status"}),
		RequestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency distribution.",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0},
		}, []string{"method", "route"}),
		SurgeryTransitions: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "surgery",
			Name:      "transitions_total",
			Help:      "Surgery status changes by target status.",
		}, []string{"status"}),
		ConsensusReached: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "surgery",
			Name:      "consensus_reached_total",
			Help:      "Decision submissions that completed a surgical consensus.",
		}),
		EmergencyNotifications: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "notification",
			Name:      "emergency_sent_total",
			Help:      "Emergency notifications written, one per recipient doctor.",
		}),
		VitalReadings: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "vitals",
			Name:      "readings_total",
			Help:      "Vital-sign readings recorded by computed risk level.",
		}, []string{"risk_level"}),
		ICUCriticalReadings: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "icu",
			Name:      "critical_readings_total",
			Help:      "ICU readings that met the critical predicate when recorded.",
		}),
		EventPublishFailures: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "events",
			Name:      "publish_failures_total",
			Help:      "Domain events that could not be published. Alert if non-zero.",
		}),
	}
}

func (m *Metrics) SurgeryTransition(status string) {
	if m == nil {
		return
	}
	m.SurgeryTransitions.WithLabelValues(status).Inc()
}

func (m *Metrics) ConsensusCompleted() {
	if m == nil {
		return
	}
	m.ConsensusReached.Inc()
}

func (m *Metrics) EmergencySent(n int) {
	if m == nil {
		return
	}
	m.EmergencyNotifications.Add(float64(n))
}

func (m *Metrics) VitalRecorded(riskLevel string) {
	if m == nil {
		return
	}
	m.VitalReadings.WithLabelValues(riskLevel).Inc()
}

func (m *Metrics) ICUCritical() {
	if m == nil {
		return
	}
	m.ICUCriticalReadings.Inc()
}

func (m *Metrics) PublishFailed() {
	if m == nil {
		return
	}
	m.EventPublishFailures.Inc()
}

// RegisterPoolStats exposes connection pool gauges sampled at scrape time.
func RegisterPoolStats(reg prometheus.Registerer, namespace string, stats func() *db.PoolStats) {
	gauge := func(name, help string, v func(s *db.PoolStats) float64) prometheus.GaugeFunc {
		return prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "db",
			Name:      name,
			Help:      help,
		}, func() float64 { return v(stats()) })
	}
	reg.MustRegister(
		gauge("total_conns", "Open connections in the pool.", func(s *db.PoolStats) float64 { return float64(s.TotalConns) }),
		gauge("idle_conns", "Idle connections in the pool.", func(s *db.PoolStats) float64 { return float64(s.IdleConns) }),
		gauge("acquired_conns", "Connections currently checked out.", func(s *db.PoolStats) float64 { return float64(s.AcquiredConns) }),
	)
}

// Middleware records request counts and latency keyed by route template.
func (m *Metrics) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if m == nil {
				return next(c)
			}
			start := time.Now()
			err := next(c)

			status := c.Response().Status
			if he, ok := err.(*echo.HTTPError); ok {
				status = he.Code
			}
			route := c.Path()
			if route == "" {
				route = "unmatched"
			}
			method := c.Request().Method
			m.RequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
			m.RequestDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
			return err
		}
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{})
}
