package surgery

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kelly-developers/patientcare-sub000/internal/platform/apperr"
)

type Urgency string

const (
	UrgencyEmergency Urgency = "EMERGENCY"
	UrgencyUrgent    Urgency = "URGENT"
	UrgencyScheduled Urgency = "SCHEDULED"
	UrgencyRoutine   Urgency = "ROUTINE"
	UrgencyElective  Urgency = "ELECTIVE"
)

var urgencies = map[string]Urgency{
	"EMERGENCY": UrgencyEmergency,
	"URGENT":    UrgencyUrgent,
	"SCHEDULED": UrgencyScheduled,
	"ROUTINE":   UrgencyRoutine,
	"ELECTIVE":  UrgencyElective,
}

var urgencyDisplay = map[Urgency]string{
	UrgencyEmergency: "Emergency",
	UrgencyUrgent:    "Urgent",
	UrgencyScheduled: "Scheduled",
	UrgencyRoutine:   "Routine",
	UrgencyElective:  "Elective",
}

// ParseUrgency accepts any letter case and surrounding whitespace.
func ParseUrgency(s string) (Urgency, error) {
	u, ok := urgencies[strings.ToUpper(strings.TrimSpace(s))]
	if !ok {
		return "", apperr.Validation("unknown urgency %q", s)
	}
	return u, nil
}

func (u Urgency) DisplayName() string {
	if d, ok := urgencyDisplay[u]; ok {
		return d
	}
	return string(u)
}

type Status string

const (
	StatusPendingConsent Status = "PENDING_CONSENT"
	StatusScheduled      Status = "SCHEDULED"
	StatusInProgress     Status = "IN_PROGRESS"
	StatusCompleted      Status = "COMPLETED"
	StatusCancelled      Status = "CANCELLED"
)

// transitions is the forward path of a surgery. CANCELLED is reachable from
// every non-terminal state.
var transitions = map[Status][]Status{
	StatusPendingConsent: {StatusScheduled, StatusInProgress, StatusCancelled},
	StatusScheduled:      {StatusScheduled, StatusInProgress, StatusCancelled},
	StatusInProgress:     {StatusCompleted, StatusCancelled},
}

func ParseStatus(s string) (Status, error) {
	st := Status(strings.ToUpper(strings.TrimSpace(s)))
	switch st {
	case StatusPendingConsent, StatusScheduled, StatusInProgress, StatusCompleted, StatusCancelled:
		return st, nil
	}
	return "", apperr.Validation("unknown surgery status %q", s)
}

func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

func (s Status) CanTransitionTo(next Status) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Surgery maps to the surgery table.
type Surgery struct {
	ID              uuid.UUID  `db:"id" json:"id"`
	PatientID       uuid.UUID  `db:"patient_id" json:"patient_id"`
	ProcedureName   string     `db:"procedure_name" json:"procedure_name"`
	Urgency         Urgency    `db:"urgency" json:"urgency"`
	Status          Status     `db:"status" json:"status"`
	SurgeonName     *string    `db:"surgeon_name" json:"surgeon_name,omitempty"`
	ConsentDate     *time.Time `db:"consent_date" json:"consent_date,omitempty"`
	ScheduledDate   *time.Time `db:"scheduled_date" json:"scheduled_date,omitempty"`
	ActualDate      *time.Time `db:"actual_date" json:"actual_date,omitempty"`
	CompletedDate   *time.Time `db:"completed_date" json:"completed_date,omitempty"`
	DurationMinutes *int       `db:"duration_minutes" json:"duration_minutes,omitempty"`
	CancelReason    *string    `db:"cancel_reason" json:"cancel_reason,omitempty"`
	CreatedAt       time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time  `db:"updated_at" json:"updated_at"`
}

// applyStatus sets the status and stamps the date that goes with it.
func (s *Surgery) applyStatus(status Status, now time.Time) {
	s.Status = status
	switch status {
	case StatusInProgress:
		s.ActualDate = &now
	case StatusCompleted:
		s.CompletedDate = &now
	}
}

// ListFilter narrows surgery listings. Zero values match everything.
type ListFilter struct {
	PatientID uuid.UUID
	Status    Status
}
