package events

import (
	"time"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketOpened      EventType = "ticket_opened"
	EventTicketClosed      EventType = "ticket_closed"
	EventTicketForceClosed EventType = "ticket_force_closed"
	EventTicketReconciled  EventType = "ticket_reconciled"
)

// Event represents a lifecycle event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	GuildID   string      `json:"guild_id"`
	TicketID  int64       `json:"ticket_id"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// TicketOpenedPayload payload.
type TicketOpenedPayload struct {
	UserID     string `json:"user_id"`
	ChannelID  string `json:"channel_id"`
	TicketType string `json:"ticket_type"`
}

// TicketClosedPayload payload.
type TicketClosedPayload struct {
	UserID       string `json:"user_id"`
	ChannelID    string `json:"channel_id"`
	ClosedByID   string `json:"closed_by_id"`
	Reason       string `json:"reason"`
	Forced       bool   `json:"forced"`
	TranscriptOK bool   `json:"transcript_ok"`
}

// TicketReconciledPayload payload.
type TicketReconciledPayload struct {
	UserID    string `json:"user_id"`
	ChannelID string `json:"channel_id"`
	Reason    string `json:"reason"`
}
