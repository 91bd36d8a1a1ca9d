package preop

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	// Upsert inserts the checklist or replaces the patient's existing one.
	Upsert(ctx context.Context, c *Checklist) error
	GetByID(ctx context.Context, id uuid.UUID) (*Checklist, error)
	GetByPatient(ctx context.Context, patientID uuid.UUID) (*Checklist, error)
}
