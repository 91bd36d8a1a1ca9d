package telemetry

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/kelly-developers/patientcare-sub000/internal/platform/db"
)

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics
	m.SurgeryTransition("COMPLETED")
	m.ConsensusCompleted()
	m.EmergencySent(3)
	m.VitalRecorded("LOW")
	m.ICUCritical()
	m.PublishFailed()
}

func TestMetrics_Recorders(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry(), "test")

	m.SurgeryTransition("IN_PROGRESS")
	m.SurgeryTransition("IN_PROGRESS")
	m.EmergencySent(4)
	m.VitalRecorded("CRITICAL")

	if got := testutil.ToFloat64(m.SurgeryTransitions.WithLabelValues("IN_PROGRESS")); got != 2 {
		t.Errorf("expected 2 transitions, got %v", got)
	}
	if got := testutil.ToFloat64(m.EmergencyNotifications); got != 4 {
		t.Errorf("expected 4 emergency notifications, got %v", got)
	}
	if got := testutil.ToFloat64(m.VitalReadings.WithLabelValues("CRITICAL")); got != 1 {
		t.Errorf("expected 1 critical reading, got %v", got)
	}
}

func TestMetrics_MiddlewareAndHandler(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg, "test")
	RegisterPoolStats(reg, "test", func() *db.PoolStats { return &db.PoolStats{TotalConns: 7} })

	e := echo.New()
	e.Use(m.Middleware())
	e.GET("/api/v1/surgeries/:id", func(c echo.Context) error {
		return echo.NewHTTPError(http.StatusNotFound, "surgery not found")
	})
	e.GET("/metrics", echo.WrapHandler(m.Handler()))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/surgeries/123", nil)
	e.ServeHTTP(httptest.NewRecorder(), req)

	if got := testutil.ToFloat64(m.RequestsTotal.WithLabelValues("GET", "/api/v1/surgeries/:id", "404")); got != 1 {
		t.Errorf("expected 1 request counted under the route template, got %v", got)
	}

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body := rec.Body.String()
	if !strings.Contains(body, "test_db_total_conns 7") {
		t.Errorf("expected pool gauge in exposition, got:\n%s", body)
	}
}

func TestTracing_RecordsServerSpan(t *testing.T) {
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	defer tp.Shutdown(context.Background())

	e := echo.New()
	e.Use(Tracing(tp, "patientcare-test"))
	e.POST("/api/v1/vital-data", func(c echo.Context) error {
		return echo.NewHTTPError(http.StatusInternalServerError, "boom")
	})

	e.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/api/v1/vital-data", nil))

	spans := sr.Ended()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}
	if spans[0].Name() != "POST /api/v1/vital-data" {
		t.Errorf("unexpected span name %q", spans[0].Name())
	}
	if spans[0].Status().Code.String() != "Error" {
		t.Errorf("expected error status, got %v", spans[0].Status())
	}
}

func TestInitTracer_Disabled(t *testing.T) {
	tp, err := InitTracer(context.Background(), TracerConfig{Enabled: false})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer tp.Shutdown(context.Background())

	_, span := StartSpan(context.Background(), "test", "noop")
	if span.SpanContext().IsSampled() {
		t.Error("expected spans to be dropped when tracing is disabled")
	}
	span.End()
}
