package vitals

type RiskLevel string

const (
	RiskLow      RiskLevel = "LOW"
	RiskMedium   RiskLevel = "MEDIUM"
	RiskHigh     RiskLevel = "HIGH"
	RiskCritical RiskLevel = "CRITICAL"
)

// Classify assigns a risk tier to a set of vital signs. Tiers are tested from
// most to least severe and the first match wins; each tier's limits are wider
// than the next, so the order matters at the boundaries.
func Classify(systolic, diastolic, heartRate, spo2 int) RiskLevel {
	switch {
	case systolic < 90 || systolic > 180 ||
		diastolic < 60 || diastolic > 120 ||
		heartRate < 40 || heartRate > 140 ||
		spo2 < 90:
		return RiskCritical
	case systolic < 100 || systolic > 160 ||
		diastolic < 70 || diastolic > 100 ||
		heartRate < 50 || heartRate > 120 ||
		spo2 < 94:
		return RiskHigh
	case systolic < 110 || systolic > 140 ||
		diastolic < 75 || diastolic > 90 ||
		heartRate < 60 || heartRate > 100:
		return RiskMedium
	default:
		return RiskLow
	}
}
