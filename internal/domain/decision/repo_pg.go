package decision

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kelly-developers/patientcare-sub000/internal/platform/apperr"
	"github.com/kelly-developers/patientcare-sub000/internal/platform/db"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository { return &repoPG{pool: pool} }

func (r *repoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const decisionCols = `id, surgery_id, surgeon_name, decision_status, comments, factors_considered, created_at`

func (r *repoPG) scanDecision(row pgx.Row) (*SurgicalDecision, error) {
	var d SurgicalDecision
	var factors []byte
	if err := row.Scan(&d.ID, &d.SurgeryID, &d.SurgeonName, &d.DecisionStatus, &d.Comments, &factors, &d.CreatedAt); err != nil {
		return nil, err
	}
	if len(factors) > 0 {
		if err := json.Unmarshal(factors, &d.FactorsConsidered); err != nil {
			return nil, fmt.Errorf("decode factors_considered: %w", err)
		}
	}
	return &d, nil
}

func (r *repoPG) Create(ctx context.Context, d *SurgicalDecision) error {
	var factors []byte
	if d.FactorsConsidered != nil {
		var err error
		if factors, err = json.Marshal(d.FactorsConsidered); err != nil {
			return fmt.Errorf("encode factors_considered: %w", err)
		}
	}
	d.ID = uuid.New()
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO surgical_decision (id, surgery_id, surgeon_name, decision_status, comments, factors_considered)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at`,
		d.ID, d.SurgeryID, d.SurgeonName, d.DecisionStatus, d.Comments, factors,
	).Scan(&d.CreatedAt)
	return apperr.FromDB(err, "surgical decision", d.ID)
}

func (r *repoPG) ListBySurgery(ctx context.Context, surgeryID uuid.UUID) ([]*SurgicalDecision, error) {
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+decisionCols+` FROM surgical_decision WHERE surgery_id = $1 ORDER BY created_at`, surgeryID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*SurgicalDecision
	for rows.Next() {
		d, err := r.scanDecision(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, d)
	}
	return items, rows.Err()
}

func (r *repoPG) Tally(ctx context.Context, surgeryID uuid.UUID) (int, int, error) {
	var total, accepted int
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT COUNT(*), COUNT(*) FILTER (WHERE decision_status = 'ACCEPTED')
		FROM surgical_decision WHERE surgery_id = $1`, surgeryID,
	).Scan(&total, &accepted)
	return total, accepted, err
}
