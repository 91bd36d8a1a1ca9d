package postop

import (
	"time"

	"github.com/google/uuid"
)

// Followup maps to the postoperative_followup table.
type Followup struct {
	ID                  uuid.UUID  `db:"id" json:"id"`
	PatientID           uuid.UUID  `db:"patient_id" json:"patient_id"`
	SurgeryID           *uuid.UUID `db:"surgery_id" json:"surgery_id,omitempty"`
	FollowupType        *string    `db:"followup_type" json:"followup_type,omitempty"`
	Symptoms            *string    `db:"symptoms" json:"symptoms,omitempty"`
	Improvements        *string    `db:"improvements" json:"improvements,omitempty"`
	Concerns            *string    `db:"concerns" json:"concerns,omitempty"`
	NextVisitDate       *time.Time `db:"next_visit_date" json:"next_visit_date,omitempty"`
	MedicationAdherence *bool      `db:"medication_adherence" json:"medication_adherence,omitempty"`
	Notes               *string    `db:"notes" json:"notes,omitempty"`
	CreatedAt           time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt           time.Time  `db:"updated_at" json:"updated_at"`
}

// IsOverdue reports whether the next visit is scheduled strictly before now.
func (f *Followup) IsOverdue(now time.Time) bool {
	return f.NextVisitDate != nil && f.NextVisitDate.Before(now)
}

// IsNonAdherent is true only for an explicit false; unknown adherence is not
// flagged.
func (f *Followup) IsNonAdherent() bool {
	return f.MedicationAdherence != nil && !*f.MedicationAdherence
}
