package decision

import "testing"

func TestCompute(t *testing.T) {
	tests := []struct {
		name            string
		total, accepted int
		reached, more   bool
		outcome         Outcome
	}{
		{"no decisions", 0, 0, false, true, OutcomeNotReached},
		{"two accepted", 2, 2, false, true, OutcomeNotReached},
		{"two of three accepted", 3, 2, true, false, OutcomeApproved},
		{"all three declined", 3, 0, false, false, OutcomeNotReached},
		{"one of three accepted", 3, 1, false, false, OutcomeNotReached},
		{"three of five accepted", 5, 3, true, false, OutcomeApproved},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Compute(tt.total, tt.accepted)
			if c.ConsensusReached != tt.reached {
				t.Errorf("consensus_reached = %v, want %v", c.ConsensusReached, tt.reached)
			}
			if c.RequiresMoreReviews != tt.more {
				t.Errorf("requires_more_reviews = %v, want %v", c.RequiresMoreReviews, tt.more)
			}
			if c.Outcome != tt.outcome {
				t.Errorf("outcome = %s, want %s", c.Outcome, tt.outcome)
			}
			if c.Declined != tt.total-tt.accepted {
				t.Errorf("declined = %d, want %d", c.Declined, tt.total-tt.accepted)
			}
		})
	}
}

func TestParseStatus(t *testing.T) {
	if st, err := ParseStatus("accepted"); err != nil || st != StatusAccepted {
		t.Errorf("expected ACCEPTED, got %s (%v)", st, err)
	}
	if _, err := ParseStatus("ABSTAIN"); err == nil {
		t.Error("expected error")
	}
}
