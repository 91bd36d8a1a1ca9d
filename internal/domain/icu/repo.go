package icu

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, r *Reading) error
	GetByID(ctx context.Context, id uuid.UUID) (*Reading, error)
	ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Reading, int, error)
	// ListCritical pages through readings matching IsCritical, newest first.
	// A zero since means no lower bound on recorded_at.
	ListCritical(ctx context.Context, since time.Time, limit, offset int) ([]*Reading, int, error)
}
