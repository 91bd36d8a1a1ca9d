package directory

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kelly-developers/patientcare-sub000/internal/platform/apperr"
	"github.com/kelly-developers/patientcare-sub000/internal/platform/db"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

func conn(ctx context.Context, pool *pgxpool.Pool) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return pool
}

type patientRepoPG struct{ pool *pgxpool.Pool }

func NewPatientRepoPG(pool *pgxpool.Pool) PatientRepository { return &patientRepoPG{pool: pool} }

func (r *patientRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Patient, error) {
	var p Patient
	err := conn(ctx, r.pool).QueryRow(ctx,
		`SELECT id, first_name, last_name FROM patient WHERE id = $1`, id).
		Scan(&p.ID, &p.FirstName, &p.LastName)
	if err != nil {
		return nil, apperr.FromDB(err, "patient", id)
	}
	return &p, nil
}

type doctorRepoPG struct{ pool *pgxpool.Pool }

func NewDoctorRepoPG(pool *pgxpool.Pool) DoctorRepository { return &doctorRepoPG{pool: pool} }

func (r *doctorRepoPG) ListAvailable(ctx context.Context) ([]*Doctor, error) {
	rows, err := conn(ctx, r.pool).Query(ctx, `
		SELECT id, user_id, full_name, specialty, is_available
		FROM doctor WHERE is_available ORDER BY full_name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*Doctor
	for rows.Next() {
		var d Doctor
		if err := rows.Scan(&d.ID, &d.UserID, &d.FullName, &d.Specialty, &d.IsAvailable); err != nil {
			return nil, err
		}
		items = append(items, &d)
	}
	return items, rows.Err()
}
