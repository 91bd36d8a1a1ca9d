package preop

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kelly-developers/patientcare-sub000/internal/platform/apperr"
	"github.com/kelly-developers/patientcare-sub000/internal/platform/db"
)

type queryable interface {
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

const checklistCols = `id, patient_id, procedure_name,
	patient_identity_confirmed, consent_signed, site_marked, anesthesia_machine_checked,
	oxygen_available, suction_available, sterile_indicators_confirmed,
	nurse_confirmed, anesthetist_confirmed, surgeon_confirmed,
	allergies, airway_risk, blood_loss_risk, other_risks, equipment_notes,
	research_consent_given, research_consent_details, research_consent_date,
	completed_by, completed_at, created_at, updated_at`

func (r *repoPG) scanChecklist(row pgx.Row) (*Checklist, error) {
	var c Checklist
	err := row.Scan(&c.ID, &c.PatientID, &c.ProcedureName,
		&c.PatientIdentityConfirmed, &c.ConsentSigned, &c.SiteMarked, &c.AnesthesiaMachineChecked,
		&c.OxygenAvailable, &c.SuctionAvailable, &c.SterileIndicatorsConfirmed,
		&c.NurseConfirmed, &c.AnesthetistConfirmed, &c.SurgeonConfirmed,
		&c.Allergies, &c.AirwayRisk, &c.BloodLossRisk, &c.OtherRisks, &c.EquipmentNotes,
		&c.ResearchConsentGiven, &c.ResearchConsentDetails, &c.ResearchConsentDate,
		&c.CompletedBy, &c.CompletedAt, &c.CreatedAt, &c.UpdatedAt)
	return &c, err
}

func (r *repoPG) Upsert(ctx context.Context, c *Checklist) error {
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO preoperative_checklist (id, patient_id, procedure_name,
			patient_identity_confirmed, consent_signed, site_marked, anesthesia_machine_checked,
			oxygen_available, suction_available, sterile_indicators_confirmed,
			nurse_confirmed, anesthetist_confirmed, surgeon_confirmed,
			allergies, airway_risk, blood_loss_risk, other_risks, equipment_notes,
			research_consent_given, research_consent_details, research_consent_date,
			completed_by, completed_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22,$23)
		ON CONFLICT (patient_id) DO UPDATE SET
			procedure_name = EXCLUDED.procedure_name,
			patient_identity_confirmed = EXCLUDED.patient_identity_confirmed,
			consent_signed = EXCLUDED.consent_signed,
			site_marked = EXCLUDED.site_marked,
			anesthesia_machine_checked = EXCLUDED.anesthesia_machine_checked,
			oxygen_available = EXCLUDED.oxygen_available,
			suction_available = EXCLUDED.suction_available,
			sterile_indicators_confirmed = EXCLUDED.sterile_indicators_confirmed,
			nurse_confirmed = EXCLUDED.nurse_confirmed,
			anesthetist_confirmed = EXCLUDED.anesthetist_confirmed,
			surgeon_confirmed = EXCLUDED.surgeon_confirmed,
			allergies = EXCLUDED.allergies,
			airway_risk = EXCLUDED.airway_risk,
			blood_loss_risk = EXCLUDED.blood_loss_risk,
			other_risks = EXCLUDED.other_risks,
			equipment_notes = EXCLUDED.equipment_notes,
			research_consent_given = EXCLUDED.research_consent_given,
			research_consent_details = EXCLUDED.research_consent_details,
			research_consent_date = EXCLUDED.research_consent_date,
			completed_by = EXCLUDED.completed_by,
			completed_at = EXCLUDED.completed_at,
			updated_at = NOW()
		RETURNING id, created_at, updated_at`,
		uuid.New(), c.PatientID, c.ProcedureName,
		c.PatientIdentityConfirmed, c.ConsentSigned, c.SiteMarked, c.AnesthesiaMachineChecked,
		c.OxygenAvailable, c.SuctionAvailable, c.SterileIndicatorsConfirmed,
		c.NurseConfirmed, c.AnesthetistConfirmed, c.SurgeonConfirmed,
		c.Allergies, c.AirwayRisk, c.BloodLossRisk, c.OtherRisks, c.EquipmentNotes,
		c.ResearchConsentGiven, c.ResearchConsentDetails, c.ResearchConsentDate,
		c.CompletedBy, c.CompletedAt,
	).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
	return apperr.FromDB(err, "preoperative checklist", c.PatientID)
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Checklist, error) {
	c, err := r.scanChecklist(r.conn(ctx).QueryRow(ctx, `SELECT `+checklistCols+` FROM preoperative_checklist WHERE id = $1`, id))
	if err != nil {
		return nil, apperr.FromDB(err, "preoperative checklist", id)
	}
	return c, nil
}

func (r *repoPG) GetByPatient(ctx context.Context, patientID uuid.UUID) (*Checklist, error) {
	c, err := r.scanChecklist(r.conn(ctx).QueryRow(ctx, `SELECT `+checklistCols+` FROM preoperative_checklist WHERE patient_id = $1`, patientID))
	if err != nil {
		return nil, apperr.FromDB(err, "preoperative checklist for patient", patientID)
	}
	return c, nil
}
