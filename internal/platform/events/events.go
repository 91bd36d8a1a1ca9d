// Package events publishes domain events to downstream consumers.
package events

import (
	"context"
	"time"

	"github.com/google/uuid"
)

const TypeEmergencyAlert = "emergency_alert"

type Event struct {
	ID         uuid.UUID   `json:"id"`
	Type       string      `json:"type"`
	Key        string      `json:"key"`
	OccurredAt time.Time   `json:"occurred_at"`
	Payload    interface{} `json:"payload"`
}

// New builds an event keyed for partitioning, typically by patient id.
func New(eventType, key string, payload interface{}) Event {
	return Event{
		ID:         uuid.New(),
		Type:       eventType,
		Key:        key,
		OccurredAt: time.Now().UTC(),
		Payload:    payload,
	}
}

type Publisher interface {
	Publish(ctx context.Context, evt Event) error
	Close() error
}

// NopPublisher discards events. It is used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) error { return nil }
func (NopPublisher) Close() error                          { return nil }
