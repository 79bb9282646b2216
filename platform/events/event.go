// Package events is the in-process event bus. Services announce facts such
// as a persisted lead score, and subscribers keep metrics and audit logs
// without the publisher knowing about them.
// This is part of the platform layer and contains no business logic.
package events

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Event is implemented by every message sent over a Bus.
type Event interface {
	// EventName routes the event to subscribers, e.g. "leads.lead.scored".
	EventName() string
	// EventID identifies one publication for log correlation.
	EventID() uuid.UUID
	// OccurredAt is when the fact became true, not when it was published.
	OccurredAt() time.Time
}

// BaseEvent is embedded by concrete events to satisfy EventID and OccurredAt.
type BaseEvent struct {
	ID        uuid.UUID `json:"eventId"`
	Timestamp time.Time `json:"occurredAt"`
}

func (e BaseEvent) EventID() uuid.UUID    { return e.ID }
func (e BaseEvent) OccurredAt() time.Time { return e.Timestamp }

// NewBaseEvent stamps a fresh id and the current time.
func NewBaseEvent() BaseEvent {
	return NewBaseEventAt(time.Now())
}

// NewBaseEventAt stamps a fresh id and at, e.g. the scoredAt written back to
// a lead.
func NewBaseEventAt(at time.Time) BaseEvent {
	return BaseEvent{ID: uuid.New(), Timestamp: at.UTC()}
}

// Handler consumes one event. A returned error is logged by the bus; it
// never reaches the publisher of an asynchronous event.
type Handler interface {
	Handle(ctx context.Context, event Event) error
}

// HandlerFunc lets a plain function or method value subscribe.
type HandlerFunc func(ctx context.Context, event Event) error

// Handle calls f.
func (f HandlerFunc) Handle(ctx context.Context, event Event) error {
	return f(ctx, event)
}

// Publisher is the half of the bus that producers depend on.
type Publisher interface {
	// Publish hands the event to every subscriber and returns immediately.
	Publish(ctx context.Context, event Event)
	// PublishSync runs every subscriber before returning the first error.
	PublishSync(ctx context.Context, event Event) error
}

// Bus routes events by name from publishers to subscribers.
type Bus interface {
	Publisher
	// Subscribe adds handler for events whose EventName equals eventName.
	Subscribe(eventName string, handler Handler)
}
