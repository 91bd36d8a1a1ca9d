package surgery

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// errStaleVersion is returned by IntraOpRepository.Update when the stored
// version no longer matches the record being written.
var errStaleVersion = errors.New("intraoperative record version is stale")

type SurgeryRepository interface {
	Create(ctx context.Context, s *Surgery) error
	GetByID(ctx context.Context, id uuid.UUID) (*Surgery, error)
	// GetForUpdate locks the row until the surrounding transaction ends.
	GetForUpdate(ctx context.Context, id uuid.UUID) (*Surgery, error)
	Update(ctx context.Context, s *Surgery) error
	List(ctx context.Context, f ListFilter, limit, offset int) ([]*Surgery, int, error)
}

type IntraOpRepository interface {
	Create(ctx context.Context, r *IntraOperativeRecord) error
	GetByID(ctx context.Context, id uuid.UUID) (*IntraOperativeRecord, error)
	GetForUpdate(ctx context.Context, id uuid.UUID) (*IntraOperativeRecord, error)
	GetBySurgery(ctx context.Context, surgeryID uuid.UUID) (*IntraOperativeRecord, error)
	// Update writes r if its version is current and increments it.
	Update(ctx context.Context, r *IntraOperativeRecord) error
}
