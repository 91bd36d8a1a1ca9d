package surgery

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/kelly-developers/patientcare-sub000/internal/platform/apperr"
	"github.com/kelly-developers/patientcare-sub000/internal/platform/db"
	"github.com/kelly-developers/patientcare-sub000/internal/platform/telemetry"
)

// EmergencyAlerter broadcasts an emergency for a patient and reports how many
// recipients were notified.
type EmergencyAlerter interface {
	SendEmergencyAlert(ctx context.Context, title, message string, patientID uuid.UUID) (int, error)
}

type Service struct {
	surgeries SurgeryRepository
	records   IntraOpRepository
	tx        db.TxRunner
	alerter   EmergencyAlerter
	metrics   *telemetry.Metrics
	logger    zerolog.Logger
	now       func() time.Time
}

func NewService(surgeries SurgeryRepository, records IntraOpRepository, tx db.TxRunner, alerter EmergencyAlerter, metrics *telemetry.Metrics, logger zerolog.Logger) *Service {
	return &Service{
		surgeries: surgeries,
		records:   records,
		tx:        tx,
		alerter:   alerter,
		metrics:   metrics,
		logger:    logger.With().Str("component", "surgery").Logger(),
		now:       time.Now,
	}
}

// -- Surgery --

// Create stores a surgery in the status the caller asked for, PENDING_CONSENT
// when none is given.
func (s *Service) Create(ctx context.Context, sg *Surgery) error {
	if sg.PatientID == uuid.Nil {
		return apperr.Validation("patient_id is required")
	}
	sg.ProcedureName = strings.TrimSpace(sg.ProcedureName)
	if sg.ProcedureName == "" {
		return apperr.Validation("procedure_name is required")
	}
	if sg.Urgency == "" {
		return apperr.Validation("urgency is required")
	}
	urgency, err := ParseUrgency(string(sg.Urgency))
	if err != nil {
		return err
	}
	sg.Urgency = urgency

	status := StatusPendingConsent
	if sg.Status != "" {
		if status, err = ParseStatus(string(sg.Status)); err != nil {
			return err
		}
	}
	sg.applyStatus(status, s.now())

	if err := s.surgeries.Create(ctx, sg); err != nil {
		return err
	}
	s.metrics.SurgeryTransition(string(sg.Status))
	s.logger.Info().
		Str("surgery_id", sg.ID.String()).
		Str("patient_id", sg.PatientID.String()).
		Str("status", string(sg.Status)).
		Msg("surgery created")
	return nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Surgery, error) {
	return s.surgeries.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context, f ListFilter, limit, offset int) ([]*Surgery, int, error) {
	return s.surgeries.List(ctx, f, limit, offset)
}

// transition locks the surgery, lets fn mutate it and writes it back.
func (s *Service) transition(ctx context.Context, id uuid.UUID, fn func(sg *Surgery) error) (*Surgery, error) {
	var out *Surgery
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		sg, err := s.surgeries.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if err := fn(sg); err != nil {
			return err
		}
		if err := s.surgeries.Update(ctx, sg); err != nil {
			return err
		}
		out = sg
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.metrics.SurgeryTransition(string(out.Status))
	return out, nil
}

// Schedule books the surgery for at. It may be called again to reschedule.
func (s *Service) Schedule(ctx context.Context, id uuid.UUID, at time.Time) (*Surgery, error) {
	if at.IsZero() {
		return nil, apperr.Validation("scheduled_date is required")
	}
	return s.transition(ctx, id, func(sg *Surgery) error {
		if !sg.Status.CanTransitionTo(StatusScheduled) {
			return apperr.Conflict("surgery %s cannot be scheduled from %s", sg.ID, sg.Status)
		}
		sg.applyStatus(StatusScheduled, s.now())
		sg.ScheduledDate = &at
		return nil
	})
}

// Cancel moves a non-terminal surgery to CANCELLED.
func (s *Service) Cancel(ctx context.Context, id uuid.UUID, reason string) (*Surgery, error) {
	sg, err := s.transition(ctx, id, func(sg *Surgery) error {
		if sg.Status.IsTerminal() {
			return apperr.Conflict("surgery %s is already %s", sg.ID, sg.Status)
		}
		sg.applyStatus(StatusCancelled, s.now())
		if reason = strings.TrimSpace(reason); reason != "" {
			sg.CancelReason = &reason
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info().Str("surgery_id", id.String()).Msg("surgery cancelled")
	return sg, nil
}

// UpdateStatus sets any status without consulting the transition table. It
// is reserved for administrators correcting records.
func (s *Service) UpdateStatus(ctx context.Context, id uuid.UUID, status Status) (*Surgery, error) {
	status, err := ParseStatus(string(status))
	if err != nil {
		return nil, err
	}
	var previous Status
	sg, err := s.transition(ctx, id, func(sg *Surgery) error {
		previous = sg.Status
		sg.applyStatus(status, s.now())
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Warn().
		Str("surgery_id", id.String()).
		Str("from", string(previous)).
		Str("to", string(status)).
		Msg("surgery status overridden")
	return sg, nil
}

// -- Operation lifecycle --

// StartOperation moves the surgery to IN_PROGRESS and opens its
// intra-operative record. Repeated calls return the existing record.
func (s *Service) StartOperation(ctx context.Context, req StartRequest) (*IntraOperativeRecord, error) {
	if req.SurgeryID == uuid.Nil {
		return nil, apperr.Validation("surgery_id is required")
	}
	ctx, span := telemetry.StartSpan(ctx, "surgery", "surgery.StartOperation")
	defer span.End()

	var rec *IntraOperativeRecord
	started := false
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		// The runner may retry; nothing from an aborted attempt survives.
		rec, started = nil, false
		sg, err := s.surgeries.GetForUpdate(ctx, req.SurgeryID)
		if err != nil {
			return err
		}
		if sg.Status.IsTerminal() {
			return apperr.Conflict("surgery %s is %s", sg.ID, sg.Status)
		}
		if req.PatientID != uuid.Nil && req.PatientID != sg.PatientID {
			return apperr.Validation("patient_id does not match surgery %s", sg.ID)
		}

		existing, err := s.records.GetBySurgery(ctx, sg.ID)
		switch {
		case err == nil:
			if existing.Status == IntraOpCompleted {
				return apperr.Conflict("intraoperative record %s for surgery %s is already completed", existing.ID, sg.ID)
			}
			rec = existing
			if sg.Status == StatusInProgress {
				return nil
			}
		case !errors.Is(err, apperr.ErrNotFound):
			return err
		}

		now := s.now()
		sg.applyStatus(StatusInProgress, now)
		if err := s.surgeries.Update(ctx, sg); err != nil {
			return err
		}
		started = true
		if rec != nil {
			return nil
		}

		start := now
		if req.StartTime != nil && !req.StartTime.IsZero() {
			start = *req.StartTime
		}
		rec = &IntraOperativeRecord{
			SurgeryID:     sg.ID,
			PatientID:     sg.PatientID,
			Status:        IntraOpInProgress,
			StartTime:     start,
			SurgicalNotes: []SurgicalNote{},
			Complications: []Complication{},
		}
		return s.records.Create(ctx, rec)
	})
	if err != nil {
		return nil, err
	}
	if started {
		s.metrics.SurgeryTransition(string(StatusInProgress))
		s.logger.Info().
			Str("surgery_id", req.SurgeryID.String()).
			Str("record_id", rec.ID.String()).
			Msg("operation started")
	}
	return rec, nil
}

// CompleteOperation closes the intra-operative record and completes the
// surgery in the same transaction. A completed record is returned unchanged.
func (s *Service) CompleteOperation(ctx context.Context, recordID uuid.UUID) (*IntraOperativeRecord, error) {
	ctx, span := telemetry.StartSpan(ctx, "surgery", "surgery.CompleteOperation")
	defer span.End()

	var rec *IntraOperativeRecord
	completed := false
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		completed = false
		var err error
		rec, err = s.records.GetForUpdate(ctx, recordID)
		if err != nil {
			return err
		}
		if rec.Status == IntraOpCompleted {
			return nil
		}
		sg, err := s.surgeries.GetForUpdate(ctx, rec.SurgeryID)
		if err != nil {
			return err
		}
		if sg.Status == StatusCancelled {
			return apperr.Conflict("surgery %s is cancelled", sg.ID)
		}

		now := s.now()
		rec.Status = IntraOpCompleted
		rec.EndTime = &now
		if err := s.records.Update(ctx, rec); err != nil {
			if errors.Is(err, errStaleVersion) {
				return apperr.Conflict("intraoperative record %s was modified concurrently", rec.ID)
			}
			return err
		}

		if sg.Status != StatusCompleted {
			sg.applyStatus(StatusCompleted, now)
		}
		minutes := int(now.Sub(rec.StartTime).Minutes())
		if minutes < 0 {
			minutes = 0
		}
		sg.DurationMinutes = &minutes
		completed = true
		return s.surgeries.Update(ctx, sg)
	})
	if err != nil {
		return nil, err
	}
	if completed {
		s.metrics.SurgeryTransition(string(StatusCompleted))
		s.logger.Info().
			Str("surgery_id", rec.SurgeryID.String()).
			Str("record_id", rec.ID.String()).
			Msg("operation completed")
	}
	return rec, nil
}
