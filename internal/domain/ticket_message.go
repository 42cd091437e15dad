package domain

import "time"

// TicketMessage is one audit-trail entry for a message posted in an open
// ticket channel. Rows are purely additive: never updated, never deleted.
type TicketMessage struct {
	ID         int64
	TicketID   int64
	AuthorID   string
	AuthorName string
	Content    string
	PostedAt   time.Time
}
