package preop

import (
	"time"

	"github.com/google/uuid"
)

// Checklist maps to the preoperative_checklist table. There is one per
// patient; resubmitting replaces it.
type Checklist struct {
	ID            uuid.UUID `db:"id" json:"id"`
	PatientID     uuid.UUID `db:"patient_id" json:"patient_id"`
	ProcedureName *string   `db:"procedure_name" json:"procedure_name,omitempty"`

	PatientIdentityConfirmed   *bool `db:"patient_identity_confirmed" json:"patient_identity_confirmed"`
	ConsentSigned              *bool `db:"consent_signed" json:"consent_signed"`
	SiteMarked                 *bool `db:"site_marked" json:"site_marked"`
	AnesthesiaMachineChecked   *bool `db:"anesthesia_machine_checked" json:"anesthesia_machine_checked"`
	OxygenAvailable            *bool `db:"oxygen_available" json:"oxygen_available"`
	SuctionAvailable           *bool `db:"suction_available" json:"suction_available"`
	SterileIndicatorsConfirmed *bool `db:"sterile_indicators_confirmed" json:"sterile_indicators_confirmed"`
	NurseConfirmed             *bool `db:"nurse_confirmed" json:"nurse_confirmed"`
	AnesthetistConfirmed       *bool `db:"anesthetist_confirmed" json:"anesthetist_confirmed"`
	SurgeonConfirmed           *bool `db:"surgeon_confirmed" json:"surgeon_confirmed"`

	Allergies      *string `db:"allergies" json:"allergies,omitempty"`
	AirwayRisk     *string `db:"airway_risk" json:"airway_risk,omitempty"`
	BloodLossRisk  *string `db:"blood_loss_risk" json:"blood_loss_risk,omitempty"`
	OtherRisks     *string `db:"other_risks" json:"other_risks,omitempty"`
	EquipmentNotes *string `db:"equipment_notes" json:"equipment_notes,omitempty"`

	ResearchConsentGiven   *bool      `db:"research_consent_given" json:"research_consent_given,omitempty"`
	ResearchConsentDetails *string    `db:"research_consent_details" json:"research_consent_details,omitempty"`
	ResearchConsentDate    *time.Time `db:"research_consent_date" json:"research_consent_date,omitempty"`

	CompletedBy *string    `db:"completed_by" json:"completed_by,omitempty"`
	CompletedAt *time.Time `db:"completed_at" json:"completed_at,omitempty"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at" json:"updated_at"`
}

type gate struct {
	name  string
	value *bool
}

// gates lists the safety checks that must all be true before surgery.
func (c *Checklist) gates() []gate {
	return []gate{
		{"patient_identity_confirmed", c.PatientIdentityConfirmed},
		{"consent_signed", c.ConsentSigned},
		{"site_marked", c.SiteMarked},
		{"anesthesia_machine_checked", c.AnesthesiaMachineChecked},
		{"oxygen_available", c.OxygenAvailable},
		{"suction_available", c.SuctionAvailable},
		{"sterile_indicators_confirmed", c.SterileIndicatorsConfirmed},
		{"nurse_confirmed", c.NurseConfirmed},
		{"anesthetist_confirmed", c.AnesthetistConfirmed},
		{"surgeon_confirmed", c.SurgeonConfirmed},
	}
}

// MissingGates returns the gates that are false or unset, in checklist order.
func (c *Checklist) MissingGates() []string {
	missing := []string{}
	for _, g := range c.gates() {
		if g.value == nil || !*g.value {
			missing = append(missing, g.name)
		}
	}
	return missing
}

func (c *Checklist) IsComplete() bool {
	return len(c.MissingGates()) == 0
}

// Readiness is the completeness report for a patient's checklist.
type Readiness struct {
	PatientID    uuid.UUID `json:"patient_id"`
	Complete     bool      `json:"complete"`
	MissingGates []string  `json:"missing_gates"`
}
