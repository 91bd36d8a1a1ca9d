package vitals

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, r *Reading) error
	GetByID(ctx context.Context, id uuid.UUID) (*Reading, error)
	ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Reading, int, error)
	// ListByRisk returns readings whose stored risk level is one of levels,
	// newest first.
	ListByRisk(ctx context.Context, levels []RiskLevel, limit, offset int) ([]*Reading, int, error)
}
