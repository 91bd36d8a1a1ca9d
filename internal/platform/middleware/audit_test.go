package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/kelly-developers/patientcare-sub000/internal/platform/auth"
)

func TestResourceFromRoute(t *testing.T) {
	tests := map[string]string{
		"/api/v1/surgeries/:id/cancel":          "surgeries",
		"/api/v1/vital-data/patient/:patientId": "vital-data",
		"/api/v1/icu":                           "icu",
		"/health":                               "unknown",
		"/api/v1/":                              "unknown",
	}
	for route, want := range tests {
		if got := resourceFromRoute(route); got != want {
			t.Errorf("resourceFromRoute(%q) = %q, want %q", route, got, want)
		}
	}
}

func TestAudit_RecordsCallerAndPatient(t *testing.T) {
	var buf bytes.Buffer
	var recorded []AuditEntry
	recorder := AuditRecorderFunc(func(e AuditEntry) error {
		recorded = append(recorded, e)
		return nil
	})

	e := echo.New()
	g := e.Group("/api/v1")
	g.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := auth.WithIdentity(c.Request().Context(), "nurse-1", []string{auth.RoleNurse})
			c.SetRequest(c.Request().WithContext(ctx))
			return next(c)
		}
	})
	g.Use(Audit(zerolog.New(&buf), recorder))
	g.GET("/vital-data/patient/:patientId", func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/vital-data/patient/p-42", nil))

	if len(recorded) != 1 {
		t.Fatalf("expected 1 audit entry, got %d", len(recorded))
	}
	got := recorded[0]
	if got.UserID != "nurse-1" || got.PatientID != "p-42" || got.Resource != "vital-data" || got.Action != "read" {
		t.Errorf("unexpected entry %+v", got)
	}
	if got.StatusCode != http.StatusOK {
		t.Errorf("expected status 200, got %d", got.StatusCode)
	}

	var line map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("audit log is not JSON: %v", err)
	}
	if line["type"] != "clinical_audit" || line["message"] != "clinical_access" {
		t.Errorf("unexpected log line %v", line)
	}
}

func TestAudit_UsesHTTPErrorStatus(t *testing.T) {
	var recorded AuditEntry
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/surgeries", nil)
	c := e.NewContext(req, httptest.NewRecorder())
	c.SetPath("/api/v1/surgeries")

	h := Audit(zerolog.Nop(), AuditRecorderFunc(func(e AuditEntry) error {
		recorded = e
		return nil
	}))(func(c echo.Context) error {
		return echo.NewHTTPError(http.StatusForbidden, "required role: surgeon")
	})
	_ = h(c)

	if recorded.StatusCode != http.StatusForbidden || recorded.Action != "create" {
		t.Errorf("unexpected entry %+v", recorded)
	}
}
