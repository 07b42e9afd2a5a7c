// Package events provides the pub/sub bus and typed events for
// enrichment progress, plus optional SQLite persistence.
package events

import "time"

// Event is the base interface all events implement.
type Event interface {
	EventType() string
	RequestID() string // enrichment request this event belongs to
	OccurredAt() time.Time
}

// BaseEvent provides common fields for all events.
type BaseEvent struct {
	Type      string    `json:"type"`
	Request   string    `json:"request_id"`
	Timestamp time.Time `json:"occurred_at"`
}

func (e BaseEvent) EventType() string     { return e.Type }
func (e BaseEvent) RequestID() string     { return e.Request }
func (e BaseEvent) OccurredAt() time.Time { return e.Timestamp }

// NewBaseEvent creates a BaseEvent with the current timestamp.
func NewBaseEvent(eventType, requestID string) BaseEvent {
	return BaseEvent{
		Type:      eventType,
		Request:   requestID,
		Timestamp: time.Now(),
	}
}
