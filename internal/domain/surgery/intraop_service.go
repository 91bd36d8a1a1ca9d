package surgery

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/kelly-developers/patientcare-sub000/internal/platform/apperr"
	"github.com/kelly-developers/patientcare-sub000/internal/platform/telemetry"
)

const maxWriteAttempts = 3

func (s *Service) GetRecord(ctx context.Context, id uuid.UUID) (*IntraOperativeRecord, error) {
	return s.records.GetByID(ctx, id)
}

func (s *Service) GetRecordBySurgery(ctx context.Context, surgeryID uuid.UUID) (*IntraOperativeRecord, error) {
	return s.records.GetBySurgery(ctx, surgeryID)
}

// mutate applies fn to a fresh copy of the record and writes it back,
// re-reading and retrying when another writer got there first.
func (s *Service) mutate(ctx context.Context, id uuid.UUID, fn func(r *IntraOperativeRecord) error) (*IntraOperativeRecord, error) {
	for attempt := 1; attempt <= maxWriteAttempts; attempt++ {
		rec, err := s.records.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if err := fn(rec); err != nil {
			return nil, err
		}
		err = s.records.Update(ctx, rec)
		if err == nil {
			return rec, nil
		}
		if !errors.Is(err, errStaleVersion) {
			return nil, err
		}
		s.logger.Debug().Str("record_id", id.String()).Int("attempt", attempt).Msg("stale intraoperative record, retrying")
	}
	return nil, apperr.Conflict("intraoperative record %s was modified concurrently", id)
}

// ensureOpen rejects writes to a record whose operation has ended.
func ensureOpen(r *IntraOperativeRecord) error {
	if r.Status == IntraOpCompleted {
		return apperr.Conflict("intraoperative record %s is completed", r.ID)
	}
	return nil
}

func (s *Service) UpdateVitals(ctx context.Context, id uuid.UUID, v Vitals) (*IntraOperativeRecord, error) {
	return s.mutate(ctx, id, func(r *IntraOperativeRecord) error {
		if err := ensureOpen(r); err != nil {
			return err
		}
		r.Vitals = v
		return nil
	})
}

func (s *Service) UpdateOperation(ctx context.Context, id uuid.UUID, p *OperationPatch) (*IntraOperativeRecord, error) {
	for i := range p.Complications {
		if err := normalizeComplication(&p.Complications[i]); err != nil {
			return nil, err
		}
	}
	for _, n := range p.SurgicalNotes {
		if strings.TrimSpace(n.Note) == "" {
			return nil, apperr.Validation("surgical note text is required")
		}
	}
	return s.mutate(ctx, id, func(r *IntraOperativeRecord) error {
		if err := ensureOpen(r); err != nil {
			return err
		}
		p.apply(r)
		return nil
	})
}

func (s *Service) AddSurgicalNote(ctx context.Context, id uuid.UUID, note SurgicalNote) (*IntraOperativeRecord, error) {
	note.Note = strings.TrimSpace(note.Note)
	if note.Note == "" {
		return nil, apperr.Validation("note is required")
	}
	note.ID = uuid.New()
	note.RecordedAt = s.now()
	return s.mutate(ctx, id, func(r *IntraOperativeRecord) error {
		if err := ensureOpen(r); err != nil {
			return err
		}
		r.SurgicalNotes = append(r.SurgicalNotes, note)
		return nil
	})
}

func (s *Service) AddComplication(ctx context.Context, id uuid.UUID, c Complication) (*IntraOperativeRecord, error) {
	if err := normalizeComplication(&c); err != nil {
		return nil, err
	}
	c.ID = uuid.New()
	c.RecordedAt = s.now()
	return s.mutate(ctx, id, func(r *IntraOperativeRecord) error {
		if err := ensureOpen(r); err != nil {
			return err
		}
		r.Complications = append(r.Complications, c)
		return nil
	})
}

func normalizeComplication(c *Complication) error {
	c.Description = strings.TrimSpace(c.Description)
	if c.Description == "" {
		return apperr.Validation("complication description is required")
	}
	c.Severity = strings.ToUpper(strings.TrimSpace(c.Severity))
	if c.Severity == "" {
		c.Severity = "MINOR"
	}
	if !validSeverities[c.Severity] {
		return apperr.Validation("invalid complication severity %q", c.Severity)
	}
	return nil
}

// DeclareEmergency flags the operation as an emergency, records the reason
// as a critical complication and alerts every available doctor. Declaring
// twice alerts again without duplicating the complication.
func (s *Service) DeclareEmergency(ctx context.Context, id uuid.UUID, reason, reportedBy string) (*IntraOperativeRecord, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, apperr.Validation("reason is required")
	}
	ctx, span := telemetry.StartSpan(ctx, "surgery", "surgery.DeclareEmergency")
	defer span.End()

	rec, err := s.mutate(ctx, id, func(r *IntraOperativeRecord) error {
		if err := ensureOpen(r); err != nil {
			return err
		}
		if r.Status == IntraOpEmergency {
			return nil
		}
		r.Status = IntraOpEmergency
		r.Complications = append(r.Complications, Complication{
			ID:          uuid.New(),
			Description: reason,
			Severity:    "CRITICAL",
			ActionTaken: "emergency declared",
			ReportedBy:  reportedBy,
			RecordedAt:  s.now(),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Warn().
		Str("record_id", rec.ID.String()).
		Str("surgery_id", rec.SurgeryID.String()).
		Msg("intra-operative emergency declared")
	if s.alerter == nil {
		return rec, nil
	}
	if _, err := s.alerter.SendEmergencyAlert(ctx, "Intra-operative emergency", reason, rec.PatientID); err != nil {
		return rec, fmt.Errorf("emergency recorded but alert failed: %w", err)
	}
	return rec, nil
}
