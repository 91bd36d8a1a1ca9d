package notification

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kelly-developers/patientcare-sub000/internal/platform/apperr"
	"github.com/kelly-developers/patientcare-sub000/internal/platform/db"
)

type queryable interface {
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository { return &repoPG{pool: pool} }

func (r *repoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const notificationCols = `id, type, title, message, recipient_id, doctor_id, patient_id, appointment_id,
	priority, is_read, scheduled_for, created_at`

func scanNotification(row pgx.Row) (*Notification, error) {
	var n Notification
	err := row.Scan(&n.ID, &n.Type, &n.Title, &n.Message, &n.RecipientID, &n.DoctorID, &n.PatientID,
		&n.AppointmentID, &n.Priority, &n.IsRead, &n.ScheduledFor, &n.CreatedAt)
	return &n, err
}

func (r *repoPG) Create(ctx context.Context, n *Notification) error {
	n.ID = uuid.New()
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO notification (id, type, title, message, recipient_id, doctor_id, patient_id,
			appointment_id, priority, is_read, scheduled_for)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
		RETURNING created_at`,
		n.ID, n.Type, n.Title, n.Message, n.RecipientID, n.DoctorID, n.PatientID,
		n.AppointmentID, n.Priority, n.IsRead, n.ScheduledFor,
	).Scan(&n.CreatedAt)
	return apperr.FromDB(err, "notification", n.ID)
}

func (r *repoPG) query(ctx context.Context, sql string, args ...interface{}) ([]*Notification, error) {
	rows, err := r.conn(ctx).Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, n)
	}
	return items, rows.Err()
}

func (r *repoPG) ListForRecipient(ctx context.Context, recipientID uuid.UUID, limit, offset int) ([]*Notification, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM notification WHERE recipient_id = $1`, recipientID).Scan(&total); err != nil {
		return nil, 0, err
	}
	items, err := r.query(ctx, `SELECT `+notificationCols+` FROM notification WHERE recipient_id = $1
		ORDER BY created_at DESC LIMIT $2 OFFSET $3`, recipientID, limit, offset)
	return items, total, err
}

func (r *repoPG) ListUnread(ctx context.Context, recipientID uuid.UUID) ([]*Notification, error) {
	return r.query(ctx, `SELECT `+notificationCols+` FROM notification
		WHERE recipient_id = $1 AND is_read = FALSE ORDER BY created_at DESC`, recipientID)
}

func (r *repoPG) ListDue(ctx context.Context, recipientID uuid.UUID, now time.Time) ([]*Notification, error) {
	return r.query(ctx, `SELECT `+notificationCols+` FROM notification
		WHERE recipient_id = $1 AND is_read = FALSE AND scheduled_for <= $2
		ORDER BY scheduled_for`, recipientID, now)
}

func (r *repoPG) MarkAsRead(ctx context.Context, id, recipientID uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx,
		`UPDATE notification SET is_read = TRUE WHERE id = $1 AND recipient_id = $2`, id, recipientID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("notification", id)
	}
	return nil
}

func (r *repoPG) MarkAllAsRead(ctx context.Context, recipientID uuid.UUID) (int64, error) {
	tag, err := r.conn(ctx).Exec(ctx,
		`UPDATE notification SET is_read = TRUE WHERE recipient_id = $1 AND is_read = FALSE`, recipientID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
