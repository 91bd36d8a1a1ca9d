package postop

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/kelly-developers/patientcare-sub000/internal/domain/surgery"
	"github.com/kelly-developers/patientcare-sub000/internal/platform/apperr"
)

type SurgeryReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*surgery.Surgery, error)
}

type Service struct {
	followups Repository
	surgeries SurgeryReader
	logger    zerolog.Logger
	now       func() time.Time
}

func NewService(followups Repository, surgeries SurgeryReader, logger zerolog.Logger) *Service {
	return &Service{
		followups: followups,
		surgeries: surgeries,
		logger:    logger.With().Str("component", "postop").Logger(),
		now:       time.Now,
	}
}

// checkSurgery verifies that a referenced surgery exists and belongs to the
// same patient.
func (s *Service) checkSurgery(ctx context.Context, f *Followup) error {
	if f.SurgeryID == nil {
		return nil
	}
	sg, err := s.surgeries.GetByID(ctx, *f.SurgeryID)
	if err != nil {
		return err
	}
	if sg.PatientID != f.PatientID {
		return apperr.Validation("surgery %s belongs to another patient", sg.ID)
	}
	return nil
}

func (s *Service) Create(ctx context.Context, f *Followup) error {
	if f.PatientID == uuid.Nil {
		return apperr.Validation("patient_id is required")
	}
	if err := s.checkSurgery(ctx, f); err != nil {
		return err
	}
	if err := s.followups.Create(ctx, f); err != nil {
		return err
	}
	s.logger.Info().Str("followup_id", f.ID.String()).Str("patient_id", f.PatientID.String()).Msg("followup recorded")
	return nil
}

// Update replaces the mutable fields of an existing follow-up. Patient and
// surgery references are fixed at creation.
func (s *Service) Update(ctx context.Context, f *Followup) error {
	existing, err := s.followups.GetByID(ctx, f.ID)
	if err != nil {
		return err
	}
	f.PatientID = existing.PatientID
	f.SurgeryID = existing.SurgeryID
	f.CreatedAt = existing.CreatedAt
	return s.followups.Update(ctx, f)
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Followup, error) {
	return s.followups.GetByID(ctx, id)
}

func (s *Service) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Followup, int, error) {
	return s.followups.ListByPatient(ctx, patientID, limit, offset)
}

func (s *Service) ListBySurgery(ctx context.Context, surgeryID uuid.UUID) ([]*Followup, error) {
	return s.followups.ListBySurgery(ctx, surgeryID)
}

// NonAdherent lists follow-ups where the patient reported not taking their
// medication.
func (s *Service) NonAdherent(ctx context.Context, limit, offset int) ([]*Followup, int, error) {
	return s.followups.ListNonAdherent(ctx, limit, offset)
}

// Overdue lists follow-ups whose next visit is before now.
func (s *Service) Overdue(ctx context.Context, limit, offset int) ([]*Followup, int, error) {
	return s.followups.ListOverdue(ctx, s.now(), limit, offset)
}
