package models

import (
	"time"

	"github.com/uptrace/bun"
)

const (
	StatusDraft     = "draft"
	StatusPublished = "published"

	DefaultButtonText = "RSVP"
)

type Event struct {
	bun.BaseModel `bun:"table:events"`

	ID                string    `bun:"id,pk" json:"id"`
	Title             string    `bun:"title,notnull" json:"title"`
	Date              string    `bun:"date,notnull" json:"date"`
	StartTime         string    `bun:"start_time,notnull" json:"start_time"`
	EndTime           string    `bun:"end_time,notnull" json:"end_time"`
	Description       string    `bun:"description,notnull" json:"description"`
	EventType         string    `bun:"event_type,notnull" json:"event_type"`
	ButtonText        string    `bun:"button_text,notnull" json:"button_text"`
	Status            string    `bun:"status,notnull" json:"status"`
	ExternalTicketID  *string   `bun:"external_ticket_id" json:"external_ticket_id"`
	ExternalTicketURL *string   `bun:"external_ticket_url" json:"external_ticket_url"`
	CreatedAt         time.Time `bun:"created_at,notnull" json:"created_at"`
}

func (e *Event) IsPublished() bool {
	return e.Status == StatusPublished
}

func (e *Event) HasRemoteListing() bool {
	return e.ExternalTicketID != nil && *e.ExternalTicketID != ""
}

// CreateEventInput is the admin form payload. Both JSON and form-encoded
// bodies decode into it.
type CreateEventInput struct {
	Title       string `json:"title"`
	Date        string `json:"date"`
	StartTime   string `json:"start_time"`
	EndTime     string `json:"end_time"`
	Description string `json:"description"`
	EventType   string `json:"event_type"`
}

// EventSummary is an event with its description reduced to a plain-text excerpt.
type EventSummary struct {
	Event
	Excerpt string `json:"excerpt"`
}
