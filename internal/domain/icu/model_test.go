package icu

import "testing"

func TestIsCritical(t *testing.T) {
	tests := []struct {
		name          string
		hr, sys, spo2 int
		want          bool
	}{
		{"all normal", 80, 120, 98, false},
		{"heart rate 59", 59, 120, 98, true},
		{"heart rate 60", 60, 120, 98, false},
		{"heart rate 100", 100, 120, 98, false},
		{"heart rate 101", 101, 120, 98, true},
		{"systolic 89", 80, 89, 98, true},
		{"systolic 90", 80, 90, 98, false},
		{"systolic 140", 80, 140, 98, false},
		{"systolic 141", 80, 141, 98, true},
		{"spo2 89", 80, 120, 89, true},
		{"spo2 90", 80, 120, 90, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &Reading{HeartRate: tt.hr, SystolicBP: tt.sys, OxygenSaturation: tt.spo2}
			if got := IsCritical(r); got != tt.want {
				t.Errorf("IsCritical(hr=%d, sys=%d, spo2=%d) = %v, want %v", tt.hr, tt.sys, tt.spo2, got, tt.want)
			}
		})
	}
}

// A reading the tiered classifier would call MEDIUM is still critical here.
func TestIsCritical_NarrowerThanVitalTiers(t *testing.T) {
	if !IsCritical(&Reading{HeartRate: 105, SystolicBP: 120, OxygenSaturation: 97}) {
		t.Error("heart rate 105 should be critical in the ICU")
	}
}
