package events

import "time"

// Event is the envelope that flows through the event bus.
type Event struct {
	ID        string
	Type      EventType
	Timestamp time.Time
	Payload   any
}

type EventType string

const (
	// Batch events
	EventBatchStarted EventType = "batch_started"
	// Per-order lifecycle events
	EventOrderSubmitted EventType = "order_submitted"
	EventOrderResolved  EventType = "order_resolved"
	EventOrderGaveUp    EventType = "order_gave_up"
)
