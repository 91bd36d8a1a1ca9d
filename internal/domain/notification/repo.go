package notification

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, n *Notification) error
	ListForRecipient(ctx context.Context, recipientID uuid.UUID, limit, offset int) ([]*Notification, int, error)
	ListUnread(ctx context.Context, recipientID uuid.UUID) ([]*Notification, error)
	// ListDue returns unread notifications for recipientID whose
	// scheduled_for is at or before now.
	ListDue(ctx context.Context, recipientID uuid.UUID, now time.Time) ([]*Notification, error)
	// MarkAsRead returns NotFound unless id belongs to recipientID.
	MarkAsRead(ctx context.Context, id, recipientID uuid.UUID) error
	MarkAllAsRead(ctx context.Context, recipientID uuid.UUID) (int64, error)
}
