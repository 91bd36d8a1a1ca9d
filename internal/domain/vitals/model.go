package vitals

import (
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/kelly-developers/patientcare-sub000/internal/platform/apperr"
)

const (
	maxHeightCM = 300
	maxWeightKG = 500
	maxBMI      = 200
)

// Reading maps to the vital_reading table. RiskLevel is computed once when
// the reading is recorded and never recomputed.
type Reading struct {
	ID               uuid.UUID `db:"id" json:"id"`
	PatientID        uuid.UUID `db:"patient_id" json:"patient_id"`
	SystolicBP       int       `db:"systolic_bp" json:"systolic_bp"`
	DiastolicBP      int       `db:"diastolic_bp" json:"diastolic_bp"`
	HeartRate        int       `db:"heart_rate" json:"heart_rate"`
	OxygenSaturation int       `db:"oxygen_saturation" json:"oxygen_saturation"`
	Temperature      *float64  `db:"temperature" json:"temperature,omitempty"`
	RespiratoryRate  *int      `db:"respiratory_rate" json:"respiratory_rate,omitempty"`
	BloodGlucose     *float64  `db:"blood_glucose" json:"blood_glucose,omitempty"`
	// Height is in centimetres, Weight in kilograms.
	Height     *float64  `db:"height" json:"height,omitempty"`
	Weight     *float64  `db:"weight" json:"weight,omitempty"`
	BMI        *float64  `db:"bmi" json:"bmi,omitempty"`
	RiskLevel  RiskLevel `db:"risk_level" json:"risk_level"`
	RecordedBy *string   `db:"recorded_by" json:"recorded_by,omitempty"`
	RecordedAt time.Time `db:"recorded_at" json:"recorded_at"`
}

// deriveBMI fills BMI from height and weight when the caller left it empty.
// Measurements outside what a patient can have are rejected.
func (r *Reading) deriveBMI() error {
	if r.Height != nil && (*r.Height <= 0 || *r.Height > maxHeightCM) {
		return apperr.Validation("height must be above 0 and at most %d cm", maxHeightCM)
	}
	if r.Weight != nil && (*r.Weight <= 0 || *r.Weight > maxWeightKG) {
		return apperr.Validation("weight must be above 0 and at most %d kg", maxWeightKG)
	}
	if r.BMI == nil && r.Height != nil && r.Weight != nil {
		m := *r.Height / 100
		bmi := math.Round(*r.Weight/(m*m)*100) / 100
		r.BMI = &bmi
	}
	if r.BMI != nil && (*r.BMI <= 0 || *r.BMI > maxBMI) {
		return apperr.Validation("bmi %.2f is outside 0-%d", *r.BMI, maxBMI)
	}
	return nil
}
