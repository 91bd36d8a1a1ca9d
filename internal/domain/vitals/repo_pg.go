package vitals

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

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository { return &repoPG{pool: pool} }

func (r *repoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const readingCols = `id, patient_id, systolic_bp, diastolic_bp, heart_rate, oxygen_saturation,
	temperature, respiratory_rate, blood_glucose, height, weight, bmi, risk_level, recorded_by, recorded_at`

func (r *repoPG) scanReading(row pgx.Row) (*Reading, error) {
	var v Reading
	err := row.Scan(&v.ID, &v.PatientID, &v.SystolicBP, &v.DiastolicBP, &v.HeartRate, &v.OxygenSaturation,
		&v.Temperature, &v.RespiratoryRate, &v.BloodGlucose, &v.Height, &v.Weight, &v.BMI,
		&v.RiskLevel, &v.RecordedBy, &v.RecordedAt)
	return &v, err
}

func (r *repoPG) Create(ctx context.Context, v *Reading) error {
	v.ID = uuid.New()
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO vital_reading (id, patient_id, systolic_bp, diastolic_bp, heart_rate, oxygen_saturation,
			temperature, respiratory_rate, blood_glucose, height, weight, bmi, risk_level, recorded_by)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
		RETURNING recorded_at`,
		v.ID, v.PatientID, v.SystolicBP, v.DiastolicBP, v.HeartRate, v.OxygenSaturation,
		v.Temperature, v.RespiratoryRate, v.BloodGlucose, v.Height, v.Weight, v.BMI, v.RiskLevel, v.RecordedBy,
	).Scan(&v.RecordedAt)
	return apperr.FromDB(err, "vital reading", v.ID)
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Reading, error) {
	v, err := r.scanReading(r.conn(ctx).QueryRow(ctx, `SELECT `+readingCols+` FROM vital_reading WHERE id = $1`, id))
	if err != nil {
		return nil, apperr.FromDB(err, "vital reading", id)
	}
	return v, nil
}

func (r *repoPG) list(ctx context.Context, where string, arg interface{}, limit, offset int) ([]*Reading, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM vital_reading WHERE `+where, arg).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+readingCols+` FROM vital_reading WHERE `+where+`
		ORDER BY recorded_at DESC LIMIT $2 OFFSET $3`, arg, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Reading
	for rows.Next() {
		v, err := r.scanReading(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, v)
	}
	return items, total, rows.Err()
}

func (r *repoPG) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Reading, int, error) {
	return r.list(ctx, "patient_id = $1", patientID, limit, offset)
}

func (r *repoPG) ListByRisk(ctx context.Context, levels []RiskLevel, limit, offset int) ([]*Reading, int, error) {
	names := make([]string, len(levels))
	for i, l := range levels {
		names[i] = string(l)
	}
	return r.list(ctx, "risk_level = ANY($1)", names, limit, offset)
}
