package icu

import (
	"time"

	"github.com/google/uuid"
)

// Reading maps to the icu_reading table. Only heart rate, systolic pressure
// and saturation are mandatory; the rest is whatever the bedside monitor
// reported.
type Reading struct {
	ID                    uuid.UUID `db:"id" json:"id"`
	PatientID             uuid.UUID `db:"patient_id" json:"patient_id"`
	HeartRate             int       `db:"heart_rate" json:"heart_rate"`
	SystolicBP            int       `db:"systolic_bp" json:"systolic_bp"`
	DiastolicBP           *int      `db:"diastolic_bp" json:"diastolic_bp,omitempty"`
	MeanArterialPressure  *int      `db:"mean_arterial_pressure" json:"mean_arterial_pressure,omitempty"`
	CentralVenousPressure *int      `db:"central_venous_pressure" json:"central_venous_pressure,omitempty"`
	RespiratoryRate       *int      `db:"respiratory_rate" json:"respiratory_rate,omitempty"`
	OxygenSaturation      int       `db:"oxygen_saturation" json:"oxygen_saturation"`
	FiO2                  *float64  `db:"fio2" json:"fio2,omitempty"`
	PEEP                  *float64  `db:"peep" json:"peep,omitempty"`
	GlasgowComaScale      *int      `db:"glasgow_coma_scale" json:"glasgow_coma_scale,omitempty"`
	Temperature           *float64  `db:"temperature" json:"temperature,omitempty"`
	BloodGlucose          *float64  `db:"blood_glucose" json:"blood_glucose,omitempty"`
	Lactate               *float64  `db:"lactate" json:"lactate,omitempty"`
	PH                    *float64  `db:"ph" json:"ph,omitempty"`
	Potassium             *float64  `db:"potassium" json:"potassium,omitempty"`
	Sodium                *float64  `db:"sodium" json:"sodium,omitempty"`
	RecordedBy            *string   `db:"recorded_by" json:"recorded_by,omitempty"`
	RecordedAt            time.Time `db:"recorded_at" json:"recorded_at"`
}

// IsCritical reports whether an ICU reading needs immediate attention. It is
// independent of the tiered vital-sign classifier and the two are not
// expected to agree.
func IsCritical(r *Reading) bool {
	return r.HeartRate < minHeartRate || r.HeartRate > maxHeartRate ||
		r.SystolicBP < minSystolicBP || r.SystolicBP > maxSystolicBP ||
		r.OxygenSaturation < minSpO2
}

// Critical thresholds. The repository query uses the same bounds.
const (
	minHeartRate  = 60
	maxHeartRate  = 100
	minSystolicBP = 90
	maxSystolicBP = 140
	minSpO2       = 90
)
