package decision

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, d *SurgicalDecision) error
	ListBySurgery(ctx context.Context, surgeryID uuid.UUID) ([]*SurgicalDecision, error)
	// Tally counts all and accepted decisions in a single statement.
	Tally(ctx context.Context, surgeryID uuid.UUID) (total, accepted int, err error)
}
