package listener

import (
	"context"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"github.com/spec-kit/guild-ticket-bot/internal/domain"
	"github.com/spec-kit/guild-ticket-bot/internal/repository"
)

// MessageRecorder passively appends every non-bot message posted in an open
// ticket channel to the ticket_messages audit trail. Rows are additive only;
// failures are logged and never interrupt message flow.
type MessageRecorder struct {
	tickets  repository.TicketRepository
	messages repository.TicketMessageRepository
	logger   *zap.Logger
}

// NewMessageRecorder constructs the recorder.
func NewMessageRecorder(tickets repository.TicketRepository, messages repository.TicketMessageRepository, logger *zap.Logger) *MessageRecorder {
	return &MessageRecorder{tickets: tickets, messages: messages, logger: logger}
}

// Register attaches the recorder to the session.
func (r *MessageRecorder) Register(session *discordgo.Session) {
	session.AddHandler(r.handleMessageCreate)
}

func (r *MessageRecorder) handleMessageCreate(_ *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil || m.Author.Bot {
		return
	}

	ctx := context.Background()
	ticket, err := r.tickets.GetOpenByChannel(ctx, m.ChannelID)
	if err != nil {
		r.logger.Warn("ticket lookup failed while recording message", zap.Error(err), zap.String("channel_id", m.ChannelID))
		return
	}
	if ticket == nil {
		return
	}

	msg := &domain.TicketMessage{
		TicketID:   ticket.ID,
		AuthorID:   m.Author.ID,
		AuthorName: m.Author.Username,
		Content:    m.Content,
		PostedAt:   m.Timestamp,
	}
	if err := r.messages.Create(ctx, msg); err != nil {
		r.logger.Warn("failed to record ticket message",
			zap.Error(err),
			zap.Int64("ticket_id", ticket.ID),
			zap.String("channel_id", m.ChannelID))
	}
}
