package consent

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, c *Consent) error
	GetByID(ctx context.Context, id uuid.UUID) (*Consent, error)
	// ListBySurgery returns the newest consent first.
	ListBySurgery(ctx context.Context, surgeryID uuid.UUID) ([]*Consent, error)
	UpdateFilePath(ctx context.Context, id uuid.UUID, path string) error
}
