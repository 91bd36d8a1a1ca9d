package vitals

import (
	"context"
	"fmt"

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
		logger:   logger.With().Str("component", "vitals").Logger(),
	}
}

func validate(r *Reading) error {
	if r.PatientID == uuid.Nil {
		return apperr.Validation("patient_id is required")
	}
	if r.SystolicBP <= 0 || r.DiastolicBP <= 0 {
		return apperr.Validation("systolic_bp and diastolic_bp are required")
	}
	if r.HeartRate <= 0 {
		return apperr.Validation("heart_rate is required")
	}
	if r.OxygenSaturation <= 0 || r.OxygenSaturation > 100 {
		return apperr.Validation("oxygen_saturation must be between 1 and 100")
	}
	return nil
}

// Record classifies and stores a reading. A CRITICAL reading alerts every
// available doctor; a failed alert is logged and does not undo the reading.
func (s *Service) Record(ctx context.Context, r *Reading) error {
	if err := validate(r); err != nil {
		return err
	}
	if err := r.deriveBMI(); err != nil {
		return err
	}
	r.RiskLevel = Classify(r.SystolicBP, r.DiastolicBP, r.HeartRate, r.OxygenSaturation)
	if err := s.readings.Create(ctx, r); err != nil {
		return err
	}
	s.metrics.VitalRecorded(string(r.RiskLevel))

	if r.RiskLevel != RiskCritical || s.alerter == nil {
		return nil
	}
	s.logger.Warn().
		Str("patient_id", r.PatientID.String()).
		Str("reading_id", r.ID.String()).
		Msg("critical vital signs recorded")
	msg := fmt.Sprintf("BP %d/%d, HR %d, SpO2 %d%%", r.SystolicBP, r.DiastolicBP, r.HeartRate, r.OxygenSaturation)
	if _, err := s.alerter.SendEmergencyAlert(ctx, "Critical vital signs", msg, r.PatientID); err != nil {
		s.logger.Error().Err(err).Str("reading_id", r.ID.String()).Msg("critical vitals alert failed")
	}
	return nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Reading, error) {
	return s.readings.GetByID(ctx, id)
}

func (s *Service) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Reading, int, error) {
	return s.readings.ListByPatient(ctx, patientID, limit, offset)
}

// Critical lists readings stored as HIGH or CRITICAL.
func (s *Service) Critical(ctx context.Context, limit, offset int) ([]*Reading, int, error) {
	return s.readings.ListByRisk(ctx, []RiskLevel{RiskHigh, RiskCritical}, limit, offset)
}
