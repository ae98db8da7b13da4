package domain

import "context"

const (
	EventShowAdded        = "show.added"
	EventBookingConfirmed = "booking.confirmed"
)

type Event struct {
	Name string         `json:"name"`
	Data map[string]any `json:"data"`
}

// EventPublisher emits fire-and-forget notification events. Delivery
// failures must never fail the request that triggered them.
type EventPublisher interface {
	Publish(ctx context.Context, event Event) error
}
