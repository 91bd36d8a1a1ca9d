package main

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/kelly-developers/patientcare-sub000/internal/config"
	"github.com/kelly-developers/patientcare-sub000/internal/platform/events"
	"github.com/kelly-developers/patientcare-sub000/internal/platform/telemetry"
)

func testConfig(env string) *config.Config {
	return &config.Config{
		Env:             env,
		LogLevel:        "info",
		JWTSigningKey:   strings.Repeat("k", 32),
		DBTxMaxAttempts: 3,
		RateLimitRPS:    1000,
		RateLimitBurst:  1000,
		BodyLimit:       "1M",
		RequestTimeout:  time.Second,
	}
}

func testEcho(env string) http.Handler {
	metrics := telemetry.NewMetrics(prometheus.NewRegistry(), "test")
	return newEcho(testConfig(env), nil, events.NopPublisher{}, noop.NewTracerProvider(), metrics, zerolog.Nop())
}

func TestNewEcho_RegistersRoutes(t *testing.T) {
	e := newEcho(testConfig("production"), nil, events.NopPublisher{}, noop.NewTracerProvider(),
		telemetry.NewMetrics(prometheus.NewRegistry(), "test"), zerolog.Nop())

	registered := map[string]bool{}
	for _, r := range e.Routes() {
		registered[r.Method+" "+r.Path] = true
	}
	want := []string{
		"GET /health",
		"GET /health/db",
		"GET /metrics",
		"POST /api/v1/surgeries",
		"GET /api/v1/surgeries/:id",
		"PUT /api/v1/surgeries/:id/status",
		"POST /api/v1/surgeries/:id/cancel",
		"POST /api/v1/consent",
		"GET /api/v1/consent/surgery/:id/has-valid",
		"GET /api/v1/consent/pending",
		"PUT /api/v1/consent/:id/file-path",
		"POST /api/v1/surgical-decisions",
		"GET /api/v1/surgical-decisions/consensus/:surgeryId",
		"GET /api/v1/surgical-decisions/consensus/:surgeryId/reached",
		"POST /api/v1/preoperative",
		"GET /api/v1/preoperative/patient/:id/complete",
		"POST /api/v1/during-operation",
		"PUT /api/v1/during-operation/:id/complete",
		"PUT /api/v1/during-operation/:id/vitals",
		"POST /api/v1/during-operation/:id/emergency",
		"GET /api/v1/postoperative/overdue",
		"GET /api/v1/postoperative/non-adherent",
		"POST /api/v1/vital-data",
		"GET /api/v1/vital-data/critical",
		"POST /api/v1/icu",
		"GET /api/v1/icu/critical",
		"POST /api/v1/notifications/emergency",
		"PUT /api/v1/notifications/read-all",
		"PUT /api/v1/notifications/:id/read",
		"GET /api/v1/notifications/due",
	}
	for _, w := range want {
		if !registered[w] {
			t.Errorf("route %q not registered", w)
		}
	}
}

func TestHealth_NoAuthRequired(t *testing.T) {
	h := testEcho("production")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
	if rec.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Error("security headers missing")
	}
}

func TestAPI_RequiresBearerTokenOutsideDevelopment(t *testing.T) {
	h := testEcho("production")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/surgeries", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", rec.Code)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	h := testEcho("production")
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "test_http_requests_total") {
		t.Errorf("request counter missing from exposition")
	}
}

func TestTxConfig_Overrides(t *testing.T) {
	cfg := testConfig("development")
	cfg.DBTxMaxAttempts = 5
	cfg.DBBreakerFailures = 9
	tc := txConfig(cfg)
	if tc.MaxAttempts != 5 || tc.BreakerFailures != 9 {
		t.Errorf("unexpected tx config %+v", tc)
	}
}

func TestNewPublisher_NopWithoutBrokers(t *testing.T) {
	if _, ok := newPublisher(testConfig("development"), zerolog.Nop()).(events.NopPublisher); !ok {
		t.Error("expected NopPublisher when no brokers are configured")
	}
}

func TestMigrationSource_Embedded(t *testing.T) {
	if _, err := migrationSource("").Open("001_core.sql"); err != nil {
		t.Errorf("embedded schema missing: %v", err)
	}
}
