package vitals

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"

	"github.com/kelly-developers/patientcare-sub000/internal/platform/apperr"
	"github.com/kelly-developers/patientcare-sub000/internal/platform/telemetry"
)

type mockReadingRepo struct {
	readings []*Reading
}

func (m *mockReadingRepo) Create(_ context.Context, r *Reading) error {
	r.ID = uuid.New()
	r.RecordedAt = time.Now()
	m.readings = append(m.readings, r)
	return nil
}

func (m *mockReadingRepo) GetByID(_ context.Context, id uuid.UUID) (*Reading, error) {
	for _, r := range m.readings {
		if r.ID == id {
			return r, nil
		}
	}
	return nil, apperr.NotFound("vital reading", id)
}

func (m *mockReadingRepo) ListByPatient(_ context.Context, patientID uuid.UUID, _, _ int) ([]*Reading, int, error) {
	var out []*Reading
	for _, r := range m.readings {
		if r.PatientID == patientID {
			out = append(out, r)
		}
	}
	return out, len(out), nil
}

func (m *mockReadingRepo) ListByRisk(_ context.Context, levels []RiskLevel, _, _ int) ([]*Reading, int, error) {
	var out []*Reading
	for _, r := range m.readings {
		for _, l := range levels {
			if r.RiskLevel == l {
				out = append(out, r)
			}
		}
	}
	return out, len(out), nil
}

type mockAlerter struct {
	calls int
	err   error
}

func (m *mockAlerter) SendEmergencyAlert(context.Context, string, string, uuid.UUID) (int, error) {
	m.calls++
	return 2, m.err
}

func newTestService() (*Service, *mockAlerter) {
	alerter := &mockAlerter{}
	return NewService(&mockReadingRepo{}, alerter, nil, zerolog.Nop()), alerter
}

func reading(sys, dia, hr, spo2 int) *Reading {
	return &Reading{PatientID: uuid.New(), SystolicBP: sys, DiastolicBP: dia, HeartRate: hr, OxygenSaturation: spo2}
}

func TestService_Record_PersistsRiskLevel(t *testing.T) {
	svc, alerter := newTestService()
	r := reading(150, 95, 110, 96)
	if err := svc.Record(context.Background(), r); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.RiskLevel != RiskMedium {
		t.Errorf("expected MEDIUM, got %s", r.RiskLevel)
	}
	stored, _ := svc.Get(context.Background(), r.ID)
	if stored.RiskLevel != RiskMedium {
		t.Errorf("stored risk level = %s", stored.RiskLevel)
	}
	if alerter.calls != 0 {
		t.Error("non-critical reading must not alert")
	}
}

func TestService_Record_CriticalAlerts(t *testing.T) {
	svc, alerter := newTestService()
	if err := svc.Record(context.Background(), reading(85, 55, 150, 85)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if alerter.calls != 1 {
		t.Errorf("expected 1 alert, got %d", alerter.calls)
	}
}

func TestService_Record_AlertFailureKeepsReading(t *testing.T) {
	svc, alerter := newTestService()
	alerter.err = errors.New("broker down")
	r := reading(85, 80, 75, 98)
	if err := svc.Record(context.Background(), r); err != nil {
		t.Fatalf("alert failure must not fail the reading: %v", err)
	}
	if _, err := svc.Get(context.Background(), r.ID); err != nil {
		t.Errorf("reading should be stored: %v", err)
	}
}

func TestService_Record_Validation(t *testing.T) {
	svc, _ := newTestService()
	tests := []struct {
		name string
		r    *Reading
	}{
		{"missing patient", &Reading{SystolicBP: 120, DiastolicBP: 80, HeartRate: 70, OxygenSaturation: 98}},
		{"missing blood pressure", &Reading{PatientID: uuid.New(), HeartRate: 70, OxygenSaturation: 98}},
		{"missing heart rate", &Reading{PatientID: uuid.New(), SystolicBP: 120, DiastolicBP: 80, OxygenSaturation: 98}},
		{"spo2 over 100", &Reading{PatientID: uuid.New(), SystolicBP: 120, DiastolicBP: 80, HeartRate: 70, OxygenSaturation: 101}},
	}
	for _, tt := range tests {
		if err := svc.Record(context.Background(), tt.r); !errors.Is(err, apperr.ErrValidation) {
			t.Errorf("%s: expected validation error, got %v", tt.name, err)
		}
	}
}

func TestService_Record_DerivesBMI(t *testing.T) {
	svc, _ := newTestService()
	h, w := 180.0, 81.0
	r := reading(120, 80, 70, 98)
	r.Height, r.Weight = &h, &w
	if err := svc.Record(context.Background(), r); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.BMI == nil || *r.BMI != 25 {
		t.Errorf("expected BMI 25, got %v", r.BMI)
	}
}

func TestService_Record_RejectsImplausibleBody(t *testing.T) {
	f := func(v float64) *float64 { return &v }
	tests := []struct {
		name           string
		height, weight *float64
		bmi            *float64
	}{
		{"tiny height", f(10), f(100), nil},
		{"zero height", f(0), f(70), nil},
		{"height over limit", f(320), f(70), nil},
		{"negative weight", f(170), f(-1), nil},
		{"weight over limit", f(170), f(900), nil},
		{"derived bmi out of range", f(40), f(400), nil},
		{"supplied bmi out of range", nil, nil, f(1500)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &mockReadingRepo{}
			svc := NewService(repo, nil, nil, zerolog.Nop())
			r := reading(120, 80, 70, 98)
			r.Height, r.Weight, r.BMI = tt.height, tt.weight, tt.bmi
			if err := svc.Record(context.Background(), r); !errors.Is(err, apperr.ErrValidation) {
				t.Errorf("expected validation error, got %v", err)
			}
			if len(repo.readings) != 0 {
				t.Error("rejected reading must not be stored")
			}
		})
	}
}

func TestService_Critical(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	svc.Record(ctx, reading(120, 80, 70, 98))  // LOW
	svc.Record(ctx, reading(145, 80, 70, 98))  // MEDIUM
	svc.Record(ctx, reading(165, 80, 70, 98))  // HIGH
	svc.Record(ctx, reading(120, 80, 145, 98)) // CRITICAL

	items, total, err := svc.Critical(ctx, 20, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if total != 2 {
		t.Fatalf("expected 2 critical readings, got %d", total)
	}
	for _, r := range items {
		if r.RiskLevel != RiskHigh && r.RiskLevel != RiskCritical {
			t.Errorf("unexpected risk level %s", r.RiskLevel)
		}
	}
}

func TestService_Record_CountsByRisk(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := telemetry.NewMetrics(reg, "test")
	svc := NewService(&mockReadingRepo{}, nil, metrics, zerolog.Nop())

	svc.Record(context.Background(), reading(120, 80, 70, 98))
	svc.Record(context.Background(), reading(85, 80, 70, 98))
	if v := testutil.ToFloat64(metrics.VitalReadings.WithLabelValues("CRITICAL")); v != 1 {
		t.Errorf("expected 1 critical reading counted, got %v", v)
	}
}

func TestHandler_Record(t *testing.T) {
	svc, _ := newTestService()
	h := NewHandler(svc)
	e := echo.New()

	body := `{"patient_id":"` + uuid.New().String() + `","systolic_bp":89,"diastolic_bp":80,"heart_rate":75,"oxygen_saturation":98}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/vital-data", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	if err := h.Record(e.NewContext(req, rec)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Errorf("expected 201, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"risk_level":"CRITICAL"`) {
		t.Errorf("unexpected body: %s", rec.Body.String())
	}
}
