package surgery

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type IntraOpStatus string

const (
	IntraOpInProgress IntraOpStatus = "IN_PROGRESS"
	IntraOpCompleted  IntraOpStatus = "COMPLETED"
	IntraOpEmergency  IntraOpStatus = "EMERGENCY"
)

// Vitals are the scalar readings charted during an operation.
type Vitals struct {
	HeartRate        *int     `json:"heart_rate,omitempty"`
	SystolicBP       *int     `json:"systolic_bp,omitempty"`
	DiastolicBP      *int     `json:"diastolic_bp,omitempty"`
	OxygenSaturation *int     `json:"oxygen_saturation,omitempty"`
	Temperature      *float64 `json:"temperature,omitempty"`
	RespiratoryRate  *int     `json:"respiratory_rate,omitempty"`
	EndTidalCO2      *int     `json:"end_tidal_co2,omitempty"`
}

type SurgicalNote struct {
	ID         uuid.UUID `json:"id"`
	Author     string    `json:"author,omitempty"`
	Note       string    `json:"note"`
	RecordedAt time.Time `json:"recorded_at"`
}

var validSeverities = map[string]bool{
	"MINOR": true, "MODERATE": true, "SEVERE": true, "CRITICAL": true,
}

type Complication struct {
	ID          uuid.UUID `json:"id"`
	Description string    `json:"description"`
	Severity    string    `json:"severity"`
	ActionTaken string    `json:"action_taken,omitempty"`
	ReportedBy  string    `json:"reported_by,omitempty"`
	RecordedAt  time.Time `json:"recorded_at"`
}

// IntraOperativeRecord maps to the intraoperative_record table. Notes and
// complications are typed lists; the remaining blobs are opaque JSON that is
// replaced wholesale. Version guards read-modify-write updates.
type IntraOperativeRecord struct {
	ID               uuid.UUID       `db:"id" json:"id"`
	SurgeryID        uuid.UUID       `db:"surgery_id" json:"surgery_id"`
	PatientID        uuid.UUID       `db:"patient_id" json:"patient_id"`
	Status           IntraOpStatus   `db:"status" json:"status"`
	StartTime        time.Time       `db:"start_time" json:"start_time"`
	EndTime          *time.Time      `db:"end_time" json:"end_time,omitempty"`
	Vitals           Vitals          `json:"vitals"`
	SurgicalNotes    []SurgicalNote  `db:"surgical_notes" json:"surgical_notes"`
	Complications    []Complication  `db:"complications" json:"complications"`
	Medications      json.RawMessage `db:"medications" json:"medications,omitempty"`
	Outcomes         json.RawMessage `db:"outcomes" json:"outcomes,omitempty"`
	Goals            json.RawMessage `db:"goals" json:"goals,omitempty"`
	EquipmentCheck   json.RawMessage `db:"equipment_check" json:"equipment_check,omitempty"`
	ClosureChecklist json.RawMessage `db:"closure_checklist" json:"closure_checklist,omitempty"`
	Version          int             `db:"version" json:"version"`
	CreatedAt        time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time       `db:"updated_at" json:"updated_at"`
}

// StartRequest opens the intra-operative record for a surgery. PatientID and
// StartTime are optional; they default to the surgery's patient and now.
type StartRequest struct {
	SurgeryID uuid.UUID  `json:"surgery_id"`
	PatientID uuid.UUID  `json:"patient_id"`
	StartTime *time.Time `json:"start_time"`
}

// OperationPatch replaces the fields that are present. A JSON null clears a blob.
type OperationPatch struct {
	Vitals           *Vitals         `json:"vitals"`
	SurgicalNotes    []SurgicalNote  `json:"surgical_notes"`
	Complications    []Complication  `json:"complications"`
	Medications      json.RawMessage `json:"medications"`
	Outcomes         json.RawMessage `json:"outcomes"`
	Goals            json.RawMessage `json:"goals"`
	EquipmentCheck   json.RawMessage `json:"equipment_check"`
	ClosureChecklist json.RawMessage `json:"closure_checklist"`
}

func (p *OperationPatch) apply(r *IntraOperativeRecord) {
	if p.Vitals != nil {
		r.Vitals = *p.Vitals
	}
	if p.SurgicalNotes != nil {
		r.SurgicalNotes = p.SurgicalNotes
	}
	if p.Complications != nil {
		r.Complications = p.Complications
	}
	replaceBlob(&r.Medications, p.Medications)
	replaceBlob(&r.Outcomes, p.Outcomes)
	replaceBlob(&r.Goals, p.Goals)
	replaceBlob(&r.EquipmentCheck, p.EquipmentCheck)
	replaceBlob(&r.ClosureChecklist, p.ClosureChecklist)
}

func replaceBlob(dst *json.RawMessage, src json.RawMessage) {
	switch {
	case src == nil:
	case string(src) == "null":
		*dst = nil
	default:
		*dst = src
	}
}
