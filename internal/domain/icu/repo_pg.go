package icu

import (
	"context"
	"time"

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

const readingCols = `id, patient_id, heart_rate, systolic_bp, diastolic_bp, mean_arterial_pressure,
	central_venous_pressure, respiratory_rate, oxygen_saturation, fio2, peep, glasgow_coma_scale,
	temperature, blood_glucose, lactate, ph, potassium, sodium, recorded_by, recorded_at`

func (r *repoPG) scanReading(row pgx.Row) (*Reading, error) {
	var v Reading
	err := row.Scan(&v.ID, &v.PatientID, &v.HeartRate, &v.SystolicBP, &v.DiastolicBP, &v.MeanArterialPressure,
		&v.CentralVenousPressure, &v.RespiratoryRate, &v.OxygenSaturation, &v.FiO2, &v.PEEP, &v.GlasgowComaScale,
		&v.Temperature, &v.BloodGlucose, &v.Lactate, &v.PH, &v.Potassium, &v.Sodium, &v.RecordedBy, &v.RecordedAt)
	return &v, err
}

func (r *repoPG) Create(ctx context.Context, v *Reading) error {
	v.ID = uuid.New()
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO icu_reading (id, patient_id, heart_rate, systolic_bp, diastolic_bp, mean_arterial_pressure,
			central_venous_pressure, respiratory_rate, oxygen_saturation, fio2, peep, glasgow_coma_scale,
			temperature, blood_glucose, lactate, ph, potassium, sodium, recorded_by)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19)
		RETURNING recorded_at`,
		v.ID, v.PatientID, v.HeartRate, v.SystolicBP, v.DiastolicBP, v.MeanArterialPressure,
		v.CentralVenousPressure, v.RespiratoryRate, v.OxygenSaturation, v.FiO2, v.PEEP, v.GlasgowComaScale,
		v.Temperature, v.BloodGlucose, v.Lactate, v.PH, v.Potassium, v.Sodium, v.RecordedBy,
	).Scan(&v.RecordedAt)
	return apperr.FromDB(err, "icu reading", v.ID)
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Reading, error) {
	v, err := r.scanReading(r.conn(ctx).QueryRow(ctx, `SELECT `+readingCols+` FROM icu_reading WHERE id = $1`, id))
	if err != nil {
		return nil, apperr.FromDB(err, "icu reading", id)
	}
	return v, nil
}

func (r *repoPG) collect(rows pgx.Rows) ([]*Reading, error) {
	defer rows.Close()
	var items []*Reading
	for rows.Next() {
		v, err := r.scanReading(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, v)
	}
	return items, rows.Err()
}

func (r *repoPG) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Reading, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM icu_reading WHERE patient_id = $1`, patientID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+readingCols+` FROM icu_reading WHERE patient_id = $1
		ORDER BY recorded_at DESC LIMIT $2 OFFSET $3`, patientID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	items, err := r.collect(rows)
	return items, total, err
}

// criticalWhere mirrors IsCritical. $6 is an optional lower bound on
// recorded_at.
const criticalWhere = `(heart_rate < $1 OR heart_rate > $2 OR systolic_bp < $3 OR systolic_bp > $4
	OR oxygen_saturation < $5) AND ($6::timestamptz IS NULL OR recorded_at >= $6)`

func (r *repoPG) ListCritical(ctx context.Context, since time.Time, limit, offset int) ([]*Reading, int, error) {
	var lower *time.Time
	if !since.IsZero() {
		lower = &since
	}
	args := []interface{}{minHeartRate, maxHeartRate, minSystolicBP, maxSystolicBP, minSpO2, lower}

	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM icu_reading WHERE `+criticalWhere, args...).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+readingCols+` FROM icu_reading WHERE `+criticalWhere+`
		ORDER BY recorded_at DESC LIMIT $7 OFFSET $8`, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, err
	}
	items, err := r.collect(rows)
	return items, total, err
}
