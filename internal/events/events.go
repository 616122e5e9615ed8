package events

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Event types published on account lifecycle changes
const (
	TypeUserRegistered  = "user.registered"
	TypeUserProvisioned = "user.provisioned"
	TypePasswordReset   = "user.password_reset"
)

type Event struct {
	Type       string    `json:"type"`
	UserID     uuid.UUID `json:"user_id"`
	Email      string    `json:"email"`
	OccurredAt time.Time `json:"occurred_at"`
}

type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

// NoopPublisher drops every event. Used when no broker is configured
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, Event) error { return nil }

func (NoopPublisher) Close() error { return nil }
