package postop

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, f *Followup) error
	GetByID(ctx context.Context, id uuid.UUID) (*Followup, error)
	Update(ctx context.Context, f *Followup) error
	ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Followup, int, error)
	ListBySurgery(ctx context.Context, surgeryID uuid.UUID) ([]*Followup, error)
	ListNonAdherent(ctx context.Context, limit, offset int) ([]*Followup, int, error)
	ListOverdue(ctx context.Context, now time.Time, limit, offset int) ([]*Followup, int, error)
}
