package notification

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"

	"github.com/kelly-developers/patientcare-sub000/internal/domain/directory"
	"github.com/kelly-developers/patientcare-sub000/internal/platform/apperr"
	"github.com/kelly-developers/patientcare-sub000/internal/platform/db"
	"github.com/kelly-developers/patientcare-sub000/internal/platform/events"
	"github.com/kelly-developers/patientcare-sub000/internal/platform/telemetry"
)

type Service struct {
	notifications Repository
	patients      directory.PatientRepository
	doctors       directory.DoctorRepository
	tx            db.TxRunner
	publisher     events.Publisher
	metrics       *telemetry.Metrics
	logger        zerolog.Logger
	now           func() time.Time
}

func NewService(
	notifications Repository,
	patients directory.PatientRepository,
	doctors directory.DoctorRepository,
	tx db.TxRunner,
	publisher events.Publisher,
	metrics *telemetry.Metrics,
	logger zerolog.Logger,
) *Service {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &Service{
		notifications: notifications,
		patients:      patients,
		doctors:       doctors,
		tx:            tx,
		publisher:     publisher,
		metrics:       metrics,
		logger:        logger.With().Str("component", "notification").Logger(),
		now:           time.Now,
	}
}

// SendEmergencyAlert writes one URGENT notification per available doctor in
// a single transaction and returns how many were written. Repeated calls
// write repeated notifications. The emergency_alert event is published after
// commit and a publish failure does not fail the call.
func (s *Service) SendEmergencyAlert(ctx context.Context, title, message string, patientID uuid.UUID) (int, error) {
	ctx, span := telemetry.StartSpan(ctx, "notification", "notification.SendEmergencyAlert")
	defer span.End()

	if strings.TrimSpace(title) == "" || strings.TrimSpace(message) == "" {
		return 0, apperr.Validation("title and message are required")
	}
	patient, err := s.patients.GetByID(ctx, patientID)
	if err != nil {
		return 0, err
	}
	body := message + " - Patient: " + patient.FullName()

	var sent int
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		sent = 0
		doctors, err := s.doctors.ListAvailable(ctx)
		if err != nil {
			return err
		}
		for _, d := range doctors {
			recipient, doctorID, pid := d.UserID, d.ID, patientID
			n := &Notification{
				Type:        TypeEmergency,
				Title:       title,
				Message:     body,
				RecipientID: &recipient,
				DoctorID:    &doctorID,
				PatientID:   &pid,
				Priority:    PriorityUrgent,
			}
			if err := s.notifications.Create(ctx, n); err != nil {
				return err
			}
			sent++
		}
		return nil
	})
	if err != nil {
		span.RecordError(err)
		return 0, err
	}
	span.SetAttributes(attribute.Int("notification.recipients", sent))

	s.metrics.EmergencySent(sent)
	if sent == 0 {
		s.logger.Warn().Str("patient_id", patientID.String()).Msg("emergency alert had no available doctors")
	} else {
		s.logger.Info().Str("patient_id", patientID.String()).Int("recipients", sent).Msg("emergency alert sent")
	}

	evt := events.New(events.TypeEmergencyAlert, patientID.String(), EmergencyPayload{
		PatientID:  patientID,
		Title:      title,
		Message:    body,
		Recipients: sent,
	})
	if err := s.publisher.Publish(ctx, evt); err != nil {
		s.metrics.PublishFailed()
		s.logger.Error().Err(err).Str("event_id", evt.ID.String()).Msg("emergency alert event not published")
	}
	return sent, nil
}

// Create stores a single notification, typically a scheduled reminder.
func (s *Service) Create(ctx context.Context, n *Notification) error {
	if strings.TrimSpace(n.Title) == "" || strings.TrimSpace(n.Message) == "" {
		return apperr.Validation("title and message are required")
	}
	if n.RecipientID == nil {
		return apperr.Validation("recipient_id is required")
	}
	p, err := ParsePriority(string(n.Priority))
	if err != nil {
		return err
	}
	n.Priority = p
	if n.Type == "" {
		n.Type = TypeGeneral
	}
	n.Type = Type(strings.ToUpper(string(n.Type)))
	n.IsRead = false
	return s.notifications.Create(ctx, n)
}

func (s *Service) ListForRecipient(ctx context.Context, callerID uuid.UUID, limit, offset int) ([]*Notification, int, error) {
	return s.notifications.ListForRecipient(ctx, callerID, limit, offset)
}

func (s *Service) ListUnread(ctx context.Context, callerID uuid.UUID) ([]*Notification, error) {
	return s.notifications.ListUnread(ctx, callerID)
}

// Due lists the caller's unread reminders whose time has come. Nothing is
// pushed; clients poll this.
func (s *Service) Due(ctx context.Context, callerID uuid.UUID) ([]*Notification, error) {
	return s.notifications.ListDue(ctx, callerID, s.now())
}

func (s *Service) MarkAsRead(ctx context.Context, id, callerID uuid.UUID) error {
	return s.notifications.MarkAsRead(ctx, id, callerID)
}

func (s *Service) MarkAllAsRead(ctx context.Context, callerID uuid.UUID) (int64, error) {
	n, err := s.notifications.MarkAllAsRead(ctx, callerID)
	if err != nil {
		return 0, err
	}
	s.logger.Debug().Str("recipient_id", callerID.String()).Int64("count", n).Msg("notifications marked read")
	return n, nil
}
