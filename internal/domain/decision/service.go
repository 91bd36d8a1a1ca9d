package decision

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/kelly-developers/patientcare-sub000/internal/domain/surgery"
	"github.com/kelly-developers/patientcare-sub000/internal/platform/apperr"
	"github.com/kelly-developers/patientcare-sub000/internal/platform/db"
	"github.com/kelly-developers/patientcare-sub000/internal/platform/telemetry"
)

type SurgeryStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*surgery.Surgery, error)
	GetForUpdate(ctx context.Context, id uuid.UUID) (*surgery.Surgery, error)
}

type Service struct {
	decisions Repository
	surgeries SurgeryStore
	tx        db.TxRunner
	metrics   *telemetry.Metrics
	logger    zerolog.Logger
}

func NewService(decisions Repository, surgeries SurgeryStore, tx db.TxRunner, metrics *telemetry.Metrics, logger zerolog.Logger) *Service {
	return &Service{
		decisions: decisions,
		surgeries: surgeries,
		tx:        tx,
		metrics:   metrics,
		logger:    logger.With().Str("component", "decision").Logger(),
	}
}

// Submit records a decision and returns the consensus as of its commit.
// Submissions for one surgery serialise on the surgery row.
func (s *Service) Submit(ctx context.Context, d *SurgicalDecision) (*Consensus, error) {
	if d.SurgeryID == uuid.Nil {
		return nil, apperr.Validation("surgery_id is required")
	}
	d.SurgeonName = strings.TrimSpace(d.SurgeonName)
	if d.SurgeonName == "" {
		return nil, apperr.Validation("surgeon_name is required")
	}
	status, err := ParseStatus(string(d.DecisionStatus))
	if err != nil {
		return nil, err
	}
	d.DecisionStatus = status

	ctx, span := telemetry.StartSpan(ctx, "decision", "decision.Submit")
	defer span.End()

	var result Consensus
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		sg, err := s.surgeries.GetForUpdate(ctx, d.SurgeryID)
		if err != nil {
			return err
		}
		if sg.Status.IsTerminal() {
			return apperr.Conflict("surgery %s is %s", sg.ID, sg.Status)
		}
		if err := s.decisions.Create(ctx, d); err != nil {
			return err
		}
		total, accepted, err := s.decisions.Tally(ctx, d.SurgeryID)
		if err != nil {
			return err
		}
		result = Compute(total, accepted)
		return nil
	})
	if err != nil {
		return nil, err
	}
	result.SurgeryID = d.SurgeryID

	before := result.Accepted
	if d.DecisionStatus == StatusAccepted {
		before--
	}
	if result.ConsensusReached && !Compute(result.Total-1, before).ConsensusReached {
		s.metrics.ConsensusCompleted()
		s.logger.Info().
			Str("surgery_id", d.SurgeryID.String()).
			Int("total", result.Total).
			Int("accepted", result.Accepted).
			Msg("surgical consensus reached")
	}
	return &result, nil
}

// GetConsensus tallies the decisions for a surgery.
func (s *Service) GetConsensus(ctx context.Context, surgeryID uuid.UUID) (*Consensus, error) {
	if _, err := s.surgeries.GetByID(ctx, surgeryID); err != nil {
		return nil, err
	}
	total, accepted, err := s.decisions.Tally(ctx, surgeryID)
	if err != nil {
		return nil, err
	}
	c := Compute(total, accepted)
	c.SurgeryID = surgeryID
	return &c, nil
}

func (s *Service) HasConsensus(ctx context.Context, surgeryID uuid.UUID) (bool, error) {
	c, err := s.GetConsensus(ctx, surgeryID)
	if err != nil {
		return false, err
	}
	return c.ConsensusReached, nil
}

func (s *Service) ListBySurgery(ctx context.Context, surgeryID uuid.UUID) ([]*SurgicalDecision, error) {
	return s.decisions.ListBySurgery(ctx, surgeryID)
}
