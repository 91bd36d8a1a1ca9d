package consent

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kelly-developers/patientcare-sub000/internal/platform/apperr"
)

type Decision string

const (
	DecisionAccepted Decision = "ACCEPTED"
	DecisionDeclined Decision = "DECLINED"
)

func ParseDecision(s string) (Decision, error) {
	switch d := Decision(strings.ToUpper(strings.TrimSpace(s))); d {
	case DecisionAccepted, DecisionDeclined:
		return d, nil
	}
	return "", apperr.Validation("decision must be ACCEPTED or DECLINED, got %q", s)
}

// Consent maps to the consent table. Rows are never changed after insert
// apart from FilePath.
type Consent struct {
	ID                     uuid.UUID `db:"id" json:"id"`
	SurgeryID              uuid.UUID `db:"surgery_id" json:"surgery_id"`
	PatientName            *string   `db:"patient_name" json:"patient_name,omitempty"`
	NextOfKin              *string   `db:"next_of_kin" json:"next_of_kin,omitempty"`
	NextOfKinPhone         *string   `db:"next_of_kin_phone" json:"next_of_kin_phone,omitempty"`
	UnderstoodRisks        *bool     `db:"understood_risks" json:"understood_risks,omitempty"`
	UnderstoodBenefits     *bool     `db:"understood_benefits" json:"understood_benefits,omitempty"`
	UnderstoodAlternatives *bool     `db:"understood_alternatives" json:"understood_alternatives,omitempty"`
	ConsentToSurgery       *bool     `db:"consent_to_surgery" json:"consent_to_surgery,omitempty"`
	Signature              *string   `db:"signature" json:"signature,omitempty"`
	Decision               Decision  `db:"decision" json:"decision"`
	FilePath               *string   `db:"file_path" json:"file_path,omitempty"`
	CreatedAt              time.Time `db:"created_at" json:"created_at"`
}
