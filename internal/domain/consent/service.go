package consent

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/kelly-developers/patientcare-sub000/internal/domain/surgery"
	"github.com/kelly-developers/patientcare-sub000/internal/platform/apperr"
	"github.com/kelly-developers/patientcare-sub000/internal/platform/db"
)

// SurgeryStore is the slice of surgery storage consent needs.
type SurgeryStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*surgery.Surgery, error)
	GetForUpdate(ctx context.Context, id uuid.UUID) (*surgery.Surgery, error)
	Update(ctx context.Context, s *surgery.Surgery) error
	List(ctx context.Context, f surgery.ListFilter, limit, offset int) ([]*surgery.Surgery, int, error)
}

type Service struct {
	consents  Repository
	surgeries SurgeryStore
	tx        db.TxRunner
	logger    zerolog.Logger
	now       func() time.Time
}

func NewService(consents Repository, surgeries SurgeryStore, tx db.TxRunner, logger zerolog.Logger) *Service {
	return &Service{
		consents:  consents,
		surgeries: surgeries,
		tx:        tx,
		logger:    logger.With().Str("component", "consent").Logger(),
		now:       time.Now,
	}
}

// SubmitConsent records the patient's decision. An ACCEPTED decision stamps
// the surgery's consent date; the surgery status is left alone.
func (s *Service) SubmitConsent(ctx context.Context, c *Consent) error {
	if c.SurgeryID == uuid.Nil {
		return apperr.Validation("surgery_id is required")
	}
	decision, err := ParseDecision(string(c.Decision))
	if err != nil {
		return err
	}
	c.Decision = decision

	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		sg, err := s.surgeries.GetForUpdate(ctx, c.SurgeryID)
		if err != nil {
			return err
		}
		if err := s.consents.Create(ctx, c); err != nil {
			return err
		}
		if c.Decision != DecisionAccepted {
			return nil
		}
		now := s.now()
		sg.ConsentDate = &now
		return s.surgeries.Update(ctx, sg)
	})
	if err != nil {
		return err
	}
	s.logger.Info().
		Str("surgery_id", c.SurgeryID.String()).
		Str("decision", string(c.Decision)).
		Msg("consent recorded")
	return nil
}

// HasValidConsent reports whether the most recent consent for the surgery
// was ACCEPTED.
func (s *Service) HasValidConsent(ctx context.Context, surgeryID uuid.UUID) (bool, error) {
	items, err := s.GetBySurgery(ctx, surgeryID)
	if err != nil {
		return false, err
	}
	if len(items) == 0 {
		return false, nil
	}
	return items[0].Decision == DecisionAccepted, nil
}

// GetPendingConsentSurgeries lists surgeries by status alone. Whether a
// consent row exists is not considered.
func (s *Service) GetPendingConsentSurgeries(ctx context.Context, limit, offset int) ([]*surgery.Surgery, int, error) {
	return s.surgeries.List(ctx, surgery.ListFilter{Status: surgery.StatusPendingConsent}, limit, offset)
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Consent, error) {
	return s.consents.GetByID(ctx, id)
}

// GetBySurgery lists consents newest first. An unknown surgery is NotFound.
func (s *Service) GetBySurgery(ctx context.Context, surgeryID uuid.UUID) ([]*Consent, error) {
	if _, err := s.surgeries.GetByID(ctx, surgeryID); err != nil {
		return nil, err
	}
	return s.consents.ListBySurgery(ctx, surgeryID)
}

func (s *Service) UpdateFilePath(ctx context.Context, id uuid.UUID, path string) (*Consent, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, apperr.Validation("file_path is required")
	}
	if err := s.consents.UpdateFilePath(ctx, id, path); err != nil {
		return nil, err
	}
	return s.consents.GetByID(ctx, id)
}
