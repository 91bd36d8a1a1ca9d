// Package notification stores in-app notifications for clinicians and fans
// emergency alerts out to every available doctor.
package notification

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kelly-developers/patientcare-sub000/internal/platform/apperr"
)

type Type string

const (
	TypeEmergency           Type = "EMERGENCY"
	TypeAppointmentReminder Type = "APPOINTMENT_REMINDER"
	TypeSurgery             Type = "SURGERY"
	TypeGeneral             Type = "GENERAL"
)

type Priority string

const (
	PriorityLow    Priority = "LOW"
	PriorityNormal Priority = "NORMAL"
	PriorityHigh   Priority = "HIGH"
	PriorityUrgent Priority = "URGENT"
)

// ParsePriority defaults an empty value to NORMAL.
func ParsePriority(s string) (Priority, error) {
	switch p := Priority(strings.ToUpper(strings.TrimSpace(s))); p {
	case "":
		return PriorityNormal, nil
	case PriorityLow, PriorityNormal, PriorityHigh, PriorityUrgent:
		return p, nil
	default:
		return "", apperr.Validation("unknown priority %q", s)
	}
}

// Notification maps to the notification table. RecipientID is a user id,
// not a doctor id.
type Notification struct {
	ID            uuid.UUID  `db:"id" json:"id"`
	Type          Type       `db:"type" json:"type"`
	Title         string     `db:"title" json:"title"`
	Message       string     `db:"message" json:"message"`
	RecipientID   *uuid.UUID `db:"recipient_id" json:"recipient_id,omitempty"`
	DoctorID      *uuid.UUID `db:"doctor_id" json:"doctor_id,omitempty"`
	PatientID     *uuid.UUID `db:"patient_id" json:"patient_id,omitempty"`
	AppointmentID *uuid.UUID `db:"appointment_id" json:"appointment_id,omitempty"`
	Priority      Priority   `db:"priority" json:"priority"`
	IsRead        bool       `db:"is_read" json:"is_read"`
	ScheduledFor  *time.Time `db:"scheduled_for" json:"scheduled_for,omitempty"`
	CreatedAt     time.Time  `db:"created_at" json:"created_at"`
}

// EmergencyPayload is the body of the emergency_alert event.
type EmergencyPayload struct {
	PatientID  uuid.UUID `json:"patient_id"`
	Title      string    `json:"title"`
	Message    string    `json:"message"`
	Recipients int       `json:"recipients"`
}
