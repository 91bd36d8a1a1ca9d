package decision

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kelly-developers/patientcare-sub000/internal/platform/apperr"
)

type Status string

const (
	StatusAccepted Status = "ACCEPTED"
	StatusDeclined Status = "DECLINED"
)

func ParseStatus(s string) (Status, error) {
	switch st := Status(strings.ToUpper(strings.TrimSpace(s))); st {
	case StatusAccepted, StatusDeclined:
		return st, nil
	}
	return "", apperr.Validation("decision_status must be ACCEPTED or DECLINED, got %q", s)
}

// SurgicalDecision is one surgeon's vote on a surgery. Decisions are
// append-only.
type SurgicalDecision struct {
	ID                uuid.UUID              `db:"id" json:"id"`
	SurgeryID         uuid.UUID              `db:"surgery_id" json:"surgery_id"`
	SurgeonName       string                 `db:"surgeon_name" json:"surgeon_name"`
	DecisionStatus    Status                 `db:"decision_status" json:"decision_status"`
	Comments          *string                `db:"comments" json:"comments,omitempty"`
	FactorsConsidered map[string]interface{} `db:"factors_considered" json:"factors_considered,omitempty"`
	CreatedAt         time.Time              `db:"created_at" json:"created_at"`
}

type Outcome string

// A full panel without enough acceptances is NOT_REACHED, the same as an
// undersized one. There is no rejected outcome.
const (
	OutcomeNotReached Outcome = "NOT_REACHED"
	OutcomeApproved   Outcome = "APPROVED"
)

const (
	QuorumSize          = 3
	RequiredAcceptances = 2
)

type Consensus struct {
	SurgeryID           uuid.UUID `json:"surgery_id"`
	Total               int       `json:"total"`
	Accepted            int       `json:"accepted"`
	Declined            int       `json:"declined"`
	ConsensusReached    bool      `json:"consensus_reached"`
	RequiresMoreReviews bool      `json:"requires_more_reviews"`
	Outcome             Outcome   `json:"outcome"`
}

// Compute applies the quorum rule to a tally.
func Compute(total, accepted int) Consensus {
	c := Consensus{
		Total:               total,
		Accepted:            accepted,
		Declined:            total - accepted,
		ConsensusReached:    total >= QuorumSize && accepted >= RequiredAcceptances,
		RequiresMoreReviews: total < QuorumSize,
		Outcome:             OutcomeNotReached,
	}
	if c.ConsensusReached {
		c.Outcome = OutcomeApproved
	}
	return c
}
