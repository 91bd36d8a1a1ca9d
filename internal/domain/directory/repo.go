package directory

import (
	"context"

	"github.com/google/uuid"
)

type PatientRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Patient, error)
}

type DoctorRepository interface {
	ListAvailable(ctx context.Context) ([]*Doctor, error)
}
