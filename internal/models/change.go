package models

import "time"

const (
	ActionCreated   = "created"
	ActionPublished = "published"
	ActionDeleted   = "deleted"
)

// EventChange is emitted after every successful event mutation.
type EventChange struct {
	EventID    string    `json:"event_id"`
	Action     string    `json:"action"`
	Status     string    `json:"status,omitempty"`
	Title      string    `json:"title,omitempty"`
	Actor      string    `json:"actor,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}
