package surgery

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

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

// =========== Surgery Repository ===========

type surgeryRepoPG struct{ pool *pgxpool.Pool }

func NewSurgeryRepoPG(pool *pgxpool.Pool) SurgeryRepository { return &surgeryRepoPG{pool: pool} }

func (r *surgeryRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const surgeryCols = `id, patient_id, procedure_name, urgency, status, surgeon_name, consent_date,
	scheduled_date, actual_date, completed_date, duration_minutes, cancel_reason, created_at, updated_at`

func (r *surgeryRepoPG) scanSurgery(row pgx.Row) (*Surgery, error) {
	var s Surgery
	err := row.Scan(&s.ID, &s.PatientID, &s.ProcedureName, &s.Urgency, &s.Status, &s.SurgeonName,
		&s.ConsentDate, &s.ScheduledDate, &s.ActualDate, &s.CompletedDate, &s.DurationMinutes,
		&s.CancelReason, &s.CreatedAt, &s.UpdatedAt)
	return &s, err
}

func (r *surgeryRepoPG) Create(ctx context.Context, s *Surgery) error {
	s.ID = uuid.New()
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO surgery (id, patient_id, procedure_name, urgency, status, surgeon_name, consent_date,
			scheduled_date, actual_date, completed_date, duration_minutes, cancel_reason)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
		RETURNING created_at, updated_at`,
		s.ID, s.PatientID, s.ProcedureName, s.Urgency, s.Status, s.SurgeonName, s.ConsentDate,
		s.ScheduledDate, s.ActualDate, s.CompletedDate, s.DurationMinutes, s.CancelReason,
	).Scan(&s.CreatedAt, &s.UpdatedAt)
	return apperr.FromDB(err, "surgery", s.ID)
}

func (r *surgeryRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Surgery, error) {
	s, err := r.scanSurgery(r.conn(ctx).QueryRow(ctx, `SELECT `+surgeryCols+` FROM surgery WHERE id = $1`, id))
	if err != nil {
		return nil, apperr.FromDB(err, "surgery", id)
	}
	return s, nil
}

func (r *surgeryRepoPG) GetForUpdate(ctx context.Context, id uuid.UUID) (*Surgery, error) {
	s, err := r.scanSurgery(r.conn(ctx).QueryRow(ctx, `SELECT `+surgeryCols+` FROM surgery WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		return nil, apperr.FromDB(err, "surgery", id)
	}
	return s, nil
}

func (r *surgeryRepoPG) Update(ctx context.Context, s *Surgery) error {
	err := r.conn(ctx).QueryRow(ctx, `
		UPDATE surgery SET procedure_name=$2, urgency=$3, status=$4, surgeon_name=$5, consent_date=$6,
			scheduled_date=$7, actual_date=$8, completed_date=$9, duration_minutes=$10, cancel_reason=$11,
			updated_at=NOW()
		WHERE id = $1
		RETURNING updated_at`,
		s.ID, s.ProcedureName, s.Urgency, s.Status, s.SurgeonName, s.ConsentDate,
		s.ScheduledDate, s.ActualDate, s.CompletedDate, s.DurationMinutes, s.CancelReason,
	).Scan(&s.UpdatedAt)
	return apperr.FromDB(err, "surgery", s.ID)
}

func (r *surgeryRepoPG) List(ctx context.Context, f ListFilter, limit, offset int) ([]*Surgery, int, error) {
	var where []string
	var args []interface{}
	if f.PatientID != uuid.Nil {
		args = append(args, f.PatientID)
		where = append(where, fmt.Sprintf("patient_id = $%d", len(args)))
	}
	if f.Status != "" {
		args = append(args, f.Status)
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}
	clause := ""
	if len(where) > 0 {
		clause = " WHERE " + strings.Join(where, " AND ")
	}

	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM surgery`+clause, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, limit, offset)
	rows, err := r.conn(ctx).Query(ctx,
		fmt.Sprintf(`SELECT `+surgeryCols+` FROM surgery%s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
			clause, len(args)-1, len(args)),
		args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Surgery
	for rows.Next() {
		s, err := r.scanSurgery(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, s)
	}
	return items, total, rows.Err()
}

// =========== Intra-operative Record Repository ===========

type intraOpRepoPG struct{ pool *pgxpool.Pool }

func NewIntraOpRepoPG(pool *pgxpool.Pool) IntraOpRepository { return &intraOpRepoPG{pool: pool} }

func (r *intraOpRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const intraOpCols = `id, surgery_id, patient_id, status, start_time, end_time,
	heart_rate, systolic_bp, diastolic_bp, oxygen_saturation, temperature, respiratory_rate, end_tidal_co2,
	surgical_notes, complications, medications, outcomes, goals, equipment_check, closure_checklist,
	version, created_at, updated_at`

func (r *intraOpRepoPG) scanRecord(row pgx.Row) (*IntraOperativeRecord, error) {
	var rec IntraOperativeRecord
	var notes, complications []byte
	var meds, outcomes, goals, equipment, closure []byte
	v := &rec.Vitals
	err := row.Scan(&rec.ID, &rec.SurgeryID, &rec.PatientID, &rec.Status, &rec.StartTime, &rec.EndTime,
		&v.HeartRate, &v.SystolicBP, &v.DiastolicBP, &v.OxygenSaturation, &v.Temperature, &v.RespiratoryRate, &v.EndTidalCO2,
		&notes, &complications, &meds, &outcomes, &goals, &equipment, &closure,
		&rec.Version, &rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if err := unmarshalList(notes, &rec.SurgicalNotes); err != nil {
		return nil, fmt.Errorf("decode surgical_notes: %w", err)
	}
	if err := unmarshalList(complications, &rec.Complications); err != nil {
		return nil, fmt.Errorf("decode complications: %w", err)
	}
	rec.Medications = blob(meds)
	rec.Outcomes = blob(outcomes)
	rec.Goals = blob(goals)
	rec.EquipmentCheck = blob(equipment)
	rec.ClosureChecklist = blob(closure)
	return &rec, nil
}

func unmarshalList[T any](data []byte, dst *[]T) error {
	*dst = []T{}
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, dst)
}

func marshalList[T any](items []T) ([]byte, error) {
	if items == nil {
		items = []T{}
	}
	return json.Marshal(items)
}

func blob(b []byte) json.RawMessage {
	if len(b) == 0 {
		return nil
	}
	return json.RawMessage(b)
}

// param turns an optional blob into a jsonb argument, nil meaning SQL NULL.
func param(m json.RawMessage) interface{} {
	if len(m) == 0 {
		return nil
	}
	return []byte(m)
}

func (r *intraOpRepoPG) Create(ctx context.Context, rec *IntraOperativeRecord) error {
	notes, err := marshalList(rec.SurgicalNotes)
	if err != nil {
		return err
	}
	complications, err := marshalList(rec.Complications)
	if err != nil {
		return err
	}
	rec.ID = uuid.New()
	rec.Version = 1
	v := rec.Vitals
	err = r.conn(ctx).QueryRow(ctx, `
		INSERT INTO intraoperative_record (id, surgery_id, patient_id, status, start_time, end_time,
			heart_rate, systolic_bp, diastolic_bp, oxygen_saturation, temperature, respiratory_rate, end_tidal_co2,
			surgical_notes, complications, medications, outcomes, goals, equipment_check, closure_checklist, version)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21)
		RETURNING created_at, updated_at`,
		rec.ID, rec.SurgeryID, rec.PatientID, rec.Status, rec.StartTime, rec.EndTime,
		v.HeartRate, v.SystolicBP, v.DiastolicBP, v.OxygenSaturation, v.Temperature, v.RespiratoryRate, v.EndTidalCO2,
		notes, complications, param(rec.Medications), param(rec.Outcomes), param(rec.Goals),
		param(rec.EquipmentCheck), param(rec.ClosureChecklist), rec.Version,
	).Scan(&rec.CreatedAt, &rec.UpdatedAt)
	return apperr.FromDB(err, "intraoperative record", rec.SurgeryID)
}

func (r *intraOpRepoPG) get(ctx context.Context, where string, arg uuid.UUID) (*IntraOperativeRecord, error) {
	rec, err := r.scanRecord(r.conn(ctx).QueryRow(ctx, `SELECT `+intraOpCols+` FROM intraoperative_record WHERE `+where, arg))
	if err != nil {
		return nil, apperr.FromDB(err, "intraoperative record", arg)
	}
	return rec, nil
}

func (r *intraOpRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*IntraOperativeRecord, error) {
	return r.get(ctx, "id = $1", id)
}

func (r *intraOpRepoPG) GetForUpdate(ctx context.Context, id uuid.UUID) (*IntraOperativeRecord, error) {
	return r.get(ctx, "id = $1 FOR UPDATE", id)
}

func (r *intraOpRepoPG) GetBySurgery(ctx context.Context, surgeryID uuid.UUID) (*IntraOperativeRecord, error) {
	return r.get(ctx, "surgery_id = $1", surgeryID)
}

func (r *intraOpRepoPG) Update(ctx context.Context, rec *IntraOperativeRecord) error {
	notes, err := marshalList(rec.SurgicalNotes)
	if err != nil {
		return err
	}
	complications, err := marshalList(rec.Complications)
	if err != nil {
		return err
	}
	v := rec.Vitals
	err = r.conn(ctx).QueryRow(ctx, `
		UPDATE intraoperative_record SET status=$3, end_time=$4,
			heart_rate=$5, systolic_bp=$6, diastolic_bp=$7, oxygen_saturation=$8, temperature=$9,
			respiratory_rate=$10, end_tidal_co2=$11, surgical_notes=$12, complications=$13,
			medications=$14, outcomes=$15, goals=$16, equipment_check=$17, closure_checklist=$18,
			version = version + 1, updated_at = NOW()
		WHERE id = $1 AND version = $2
		RETURNING version, updated_at`,
		rec.ID, rec.Version, rec.Status, rec.EndTime,
		v.HeartRate, v.SystolicBP, v.DiastolicBP, v.OxygenSaturation, v.Temperature, v.RespiratoryRate, v.EndTidalCO2,
		notes, complications, param(rec.Medications), param(rec.Outcomes), param(rec.Goals),
		param(rec.EquipmentCheck), param(rec.ClosureChecklist),
	).Scan(&rec.Version, &rec.UpdatedAt)
	if err == pgx.ErrNoRows {
		return errStaleVersion
	}
	return apperr.FromDB(err, "intraoperative record", rec.ID)
}
