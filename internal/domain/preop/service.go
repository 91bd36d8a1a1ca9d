package preop

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/kelly-developers/patientcare-sub000/internal/platform/apperr"
)

type Service struct {
	checklists Repository
	logger     zerolog.Logger
	now        func() time.Time
}

func NewService(checklists Repository, logger zerolog.Logger) *Service {
	return &Service{
		checklists: checklists,
		logger:     logger.With().Str("component", "preop").Logger(),
		now:        time.Now,
	}
}

// Submit stores the patient's checklist, replacing any earlier one. A
// checklist submitted with every gate set is stamped as completed.
func (s *Service) Submit(ctx context.Context, c *Checklist) error {
	if c.PatientID == uuid.Nil {
		return apperr.Validation("patient_id is required")
	}
	if c.IsComplete() && c.CompletedAt == nil {
		now := s.now()
		c.CompletedAt = &now
	}
	if err := s.checklists.Upsert(ctx, c); err != nil {
		return err
	}
	s.logger.Info().
		Str("patient_id", c.PatientID.String()).
		Strs("missing_gates", c.MissingGates()).
		Msg("preoperative checklist submitted")
	return nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Checklist, error) {
	return s.checklists.GetByID(ctx, id)
}

func (s *Service) GetByPatient(ctx context.Context, patientID uuid.UUID) (*Checklist, error) {
	return s.checklists.GetByPatient(ctx, patientID)
}

func (s *Service) IsComplete(ctx context.Context, patientID uuid.UUID) (bool, error) {
	c, err := s.checklists.GetByPatient(ctx, patientID)
	if err != nil {
		return false, err
	}
	return c.IsComplete(), nil
}

func (s *Service) Readiness(ctx context.Context, patientID uuid.UUID) (*Readiness, error) {
	c, err := s.checklists.GetByPatient(ctx, patientID)
	if err != nil {
		return nil, err
	}
	missing := c.MissingGates()
	return &Readiness{PatientID: patientID, Complete: len(missing) == 0, MissingGates: missing}, nil
}
