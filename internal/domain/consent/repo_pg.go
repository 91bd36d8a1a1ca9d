package consent

import (
	"context"

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

const consentCols = `id, surgery_id, patient_name, next_of_kin, next_of_kin_phone,
	understood_risks, understood_benefits, understood_alternatives, consent_to_surgery,
	signature, decision, file_path, created_at`

func (r *repoPG) scanConsent(row pgx.Row) (*Consent, error) {
	var c Consent
	err := row.Scan(&c.ID, &c.SurgeryID, &c.PatientName, &c.NextOfKin, &c.NextOfKinPhone,
		&c.UnderstoodRisks, &c.UnderstoodBenefits, &c.UnderstoodAlternatives, &c.ConsentToSurgery,
		&c.Signature, &c.Decision, &c.FilePath, &c.CreatedAt)
	return &c, err
}

func (r *repoPG) Create(ctx context.Context, c *Consent) error {
	c.ID = uuid.New()
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO consent (id, surgery_id, patient_name, next_of_kin, next_of_kin_phone,
			understood_risks, understood_benefits, understood_alternatives, consent_to_surgery,
			signature, decision, file_path)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
		RETURNING created_at`,
		c.ID, c.SurgeryID, c.PatientName, c.NextOfKin, c.NextOfKinPhone,
		c.UnderstoodRisks, c.UnderstoodBenefits, c.UnderstoodAlternatives, c.ConsentToSurgery,
		c.Signature, c.Decision, c.FilePath,
	).Scan(&c.CreatedAt)
	return apperr.FromDB(err, "consent", c.ID)
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Consent, error) {
	c, err := r.scanConsent(r.conn(ctx).QueryRow(ctx, `SELECT `+consentCols+` FROM consent WHERE id = $1`, id))
	if err != nil {
		return nil, apperr.FromDB(err, "consent", id)
	}
	return c, nil
}

func (r *repoPG) ListBySurgery(ctx context.Context, surgeryID uuid.UUID) ([]*Consent, error) {
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+consentCols+` FROM consent WHERE surgery_id = $1 ORDER BY created_at DESC, id`, surgeryID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*Consent
	for rows.Next() {
		c, err := r.scanConsent(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, c)
	}
	return items, rows.Err()
}

func (r *repoPG) UpdateFilePath(ctx context.Context, id uuid.UUID, path string) error {
	tag, err := r.conn(ctx).Exec(ctx, `UPDATE consent SET file_path = $2 WHERE id = $1`, id, path)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("consent", id)
	}
	return nil
}
