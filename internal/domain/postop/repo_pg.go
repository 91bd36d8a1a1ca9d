package postop

import (
	"context"
	"fmt"
	"time"

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

const followupCols = `id, patient_id, surgery_id, followup_type, symptoms, improvements, concerns,
	next_visit_date, medication_adherence, notes, created_at, updated_at`

func (r *repoPG) scanFollowup(row pgx.Row) (*Followup, error) {
	var f Followup
	err := row.Scan(&f.ID, &f.PatientID, &f.SurgeryID, &f.FollowupType, &f.Symptoms, &f.Improvements,
		&f.Concerns, &f.NextVisitDate, &f.MedicationAdherence, &f.Notes, &f.CreatedAt, &f.UpdatedAt)
	return &f, err
}

func (r *repoPG) Create(ctx context.Context, f *Followup) error {
	f.ID = uuid.New()
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO postoperative_followup (id, patient_id, surgery_id, followup_type, symptoms,
			improvements, concerns, next_visit_date, medication_adherence, notes)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		RETURNING created_at, updated_at`,
		f.ID, f.PatientID, f.SurgeryID, f.FollowupType, f.Symptoms,
		f.Improvements, f.Concerns, f.NextVisitDate, f.MedicationAdherence, f.Notes,
	).Scan(&f.CreatedAt, &f.UpdatedAt)
	return apperr.FromDB(err, "postoperative followup", f.ID)
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Followup, error) {
	f, err := r.scanFollowup(r.conn(ctx).QueryRow(ctx, `SELECT `+followupCols+` FROM postoperative_followup WHERE id = $1`, id))
	if err != nil {
		return nil, apperr.FromDB(err, "postoperative followup", id)
	}
	return f, nil
}

func (r *repoPG) Update(ctx context.Context, f *Followup) error {
	err := r.conn(ctx).QueryRow(ctx, `
		UPDATE postoperative_followup SET followup_type=$2, symptoms=$3, improvements=$4, concerns=$5,
			next_visit_date=$6, medication_adherence=$7, notes=$8, updated_at=NOW()
		WHERE id = $1
		RETURNING updated_at`,
		f.ID, f.FollowupType, f.Symptoms, f.Improvements, f.Concerns,
		f.NextVisitDate, f.MedicationAdherence, f.Notes,
	).Scan(&f.UpdatedAt)
	return apperr.FromDB(err, "postoperative followup", f.ID)
}

func (r *repoPG) list(ctx context.Context, where, order string, limit, offset int, args ...interface{}) ([]*Followup, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM postoperative_followup WHERE `+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}
	n := len(args)
	args = append(args, limit, offset)
	items, err := r.query(ctx,
		fmt.Sprintf(`SELECT `+followupCols+` FROM postoperative_followup WHERE %s ORDER BY %s LIMIT $%d OFFSET $%d`,
			where, order, n+1, n+2),
		args...)
	return items, total, err
}

func (r *repoPG) query(ctx context.Context, sql string, args ...interface{}) ([]*Followup, error) {
	rows, err := r.conn(ctx).Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*Followup
	for rows.Next() {
		f, err := r.scanFollowup(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, f)
	}
	return items, rows.Err()
}

func (r *repoPG) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Followup, int, error) {
	return r.list(ctx, "patient_id = $1", "created_at DESC", limit, offset, patientID)
}

func (r *repoPG) ListBySurgery(ctx context.Context, surgeryID uuid.UUID) ([]*Followup, error) {
	return r.query(ctx, `SELECT `+followupCols+` FROM postoperative_followup WHERE surgery_id = $1 ORDER BY created_at DESC`, surgeryID)
}

func (r *repoPG) ListNonAdherent(ctx context.Context, limit, offset int) ([]*Followup, int, error) {
	return r.list(ctx, "medication_adherence = FALSE", "created_at DESC", limit, offset)
}

func (r *repoPG) ListOverdue(ctx context.Context, now time.Time, limit, offset int) ([]*Followup, int, error) {
	return r.list(ctx, "next_visit_date IS NOT NULL AND next_visit_date < $1", "next_visit_date", limit, offset, now)
}
