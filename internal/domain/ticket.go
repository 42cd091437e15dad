package domain

import "time"

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusOpen   TicketStatus = "OPEN"
	TicketStatusClosed TicketStatus = "CLOSED"
)

// CloseReasonChannelMissing marks tickets closed by reconciliation after
// their backing channel was deleted outside the normal closure path.
const CloseReasonChannelMissing = "automatic cleanup: channel missing"

// Ticket is a tracked support request bound 1:1 to a Discord channel for its
// open lifetime. The channel reference is weak: the channel may be deleted
// out-of-band, so it must never be dereferenced without a liveness check.
// Closed tickets are immutable historical records and outlive the channel.
type Ticket struct {
	ID          int64
	GuildID     string
	UserID      string
	ChannelID   string
	Type        string
	Status      TicketStatus
	CreatedAt   time.Time
	ClosedAt    *time.Time
	CloseReason *string
}

// IsOpen reports whether the ticket is still in its open lifetime.
func (t *Ticket) IsOpen() bool {
	return t.Status == TicketStatusOpen
}
