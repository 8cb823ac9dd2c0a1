// Package events publishes booking lifecycle events to interested consumers.
package events

import (
	"context"
	"log/slog"
	"time"
)

// Type names a booking lifecycle event. It doubles as the routing key.
type Type string

const (
	BookingCreated Type = "booking.created"
	BookingUpdated Type = "booking.updated"
	BookingDeleted Type = "booking.deleted"
)

// Event describes one change to a booking.
type Event struct {
	Type       Type      `json:"type"`
	BookingID  string    `json:"booking_id"`
	RoomID     string    `json:"room_id"`
	AccountID  string    `json:"account_id"`
	Date       string    `json:"date"`
	Slot       int       `json:"slot"`
	SlotLabel  string    `json:"slot_label"`
	ActorID    string    `json:"actor_id,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Publisher delivers events. Implementations must be safe for concurrent use.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

// Nop discards every event.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }
func (Nop) Close() error                         { return nil }

// LogPublisher writes events to a structured logger instead of a broker.
type LogPublisher struct {
	logger *slog.Logger
}

// NewLogPublisher returns a publisher that logs at info level.
func NewLogPublisher(logger *slog.Logger) *LogPublisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogPublisher{logger: logger.With("component", "events")}
}

// Publish logs the event.
func (p *LogPublisher) Publish(ctx context.Context, event Event) error {
	p.logger.InfoContext(ctx, "booking event",
		"type", string(event.Type),
		"booking_id", event.BookingID,
		"room_id", event.RoomID,
		"account_id", event.AccountID,
		"date", event.Date,
		"slot", event.Slot,
	)
	return nil
}

// Close is a no-op.
func (p *LogPublisher) Close() error { return nil }
