package icu

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/kelly-developers/patientcare-sub000/internal/platform/apperr"
	"github.com/kelly-developers/patientcare-sub000/internal/platform/telemetry"
)

type EmergencyAlerter interface {
	SendEmergencyAlert(ctx context.Context, title, message string, patientID uuid.UUID) (int, error)
}

type Service struct {
	readings Repository
	alerter  EmergencyAlerter
	metrics  *telemetry.Metrics
	logger   zerolog.Logger
}

func NewService(readings Repository, alerter EmergencyAlerter, metrics *telemetry.Metrics, logger zerolog.Logger) *Service {
	return &Service{
		readings: readings,
		alerter:  alerter,
		metrics:  metrics,
		logger:   logger.With().Str("component", "icu").Logger(),
	}
}

// Record stores the reading. Criticality is evaluated here only to decide
// whether to alert; it is not stored.
func (s *Service) Record(ctx context.Context, r *Reading) error {
	if r.PatientID == uuid.Nil {
		return apperr.Validation("patient_id is required")
	}
	if r.HeartRate <= 0 || r.SystolicBP <= 0 {
		return apperr.Validation("heart_rate and systolic_bp are required")
	}
	if r.OxygenSaturation <= 0 || r.OxygenSaturation > 100 {
		return apperr.Validation("oxygen_saturation must be between 1 and 100")
	}
	if err := s.readings.Create(ctx, r); err != nil {
		return err
	}
	if !IsCritical(r) {
		return nil
	}

	s.metrics.ICUCritical()
	s.logger.Warn().
		Str("patient_id", r.PatientID.String()).
		Str("reading_id", r.ID.String()).
		Int("heart_rate", r.HeartRate).
		Int("systolic_bp", r.SystolicBP).
		Int("spo2", r.OxygenSaturation).
		Msg("critical icu reading")
	if s.alerter == nil {
		return nil
	}
	msg := fmt.Sprintf("ICU reading HR %d, SBP %d, SpO2 %d%%", r.HeartRate, r.SystolicBP, r.OxygenSaturation)
	if _, err := s.alerter.SendEmergencyAlert(ctx, "Critical ICU reading", msg, r.PatientID); err != nil {
		s.logger.Error().Err(err).Str("reading_id", r.ID.String()).Msg("icu alert failed")
	}
	return nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Reading, error) {
	return s.readings.GetByID(ctx, id)
}

func (s *Service) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Reading, int, error) {
	return s.readings.ListByPatient(ctx, patientID, limit, offset)
}

// Critical lists stored readings that are critical under IsCritical. The
// predicate runs in the query; nothing about it is persisted. A zero since
// covers every reading.
func (s *Service) Critical(ctx context.Context, since time.Time, limit, offset int) ([]*Reading, int, error) {
	return s.readings.ListCritical(ctx, since, limit, offset)
}
