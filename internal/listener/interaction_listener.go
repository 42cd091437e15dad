package listener

import (
	"context"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"github.com/spec-kit/guild-ticket-bot/internal/service"
	"github.com/spec-kit/guild-ticket-bot/pkg/util"
)

// InteractionListener routes clicks on the close affordance posted into
// ticket channels back to the lifecycle controller. Slash commands are
// handled by a separate presentation layer, not here.
type InteractionListener struct {
	tickets *service.TicketService
	logger  *zap.Logger
}

// NewInteractionListener constructs the listener.
func NewInteractionListener(tickets *service.TicketService, logger *zap.Logger) *InteractionListener {
	return &InteractionListener{tickets: tickets, logger: logger}
}

// Register attaches the listener to the session.
func (l *InteractionListener) Register(session *discordgo.Session) {
	session.AddHandler(l.handleInteractionCreate)
}

func (l *InteractionListener) handleInteractionCreate(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionMessageComponent {
		return
	}
	if i.MessageComponentData().CustomID != service.CloseButtonID {
		return
	}

	userID := ""
	if i.Member != nil && i.Member.User != nil {
		userID = i.Member.User.ID
	} else if i.User != nil {
		userID = i.User.ID
	}

	_, err := l.tickets.CloseTicket(context.Background(), i.ChannelID, userID, "closed via button")

	response := "Ticket closed."
	if err != nil {
		response = "Could not close this ticket: " + util.ToDomainError(err).Message
		l.logger.Warn("close button failed",
			zap.Error(err),
			zap.String("channel_id", i.ChannelID),
			zap.String("user_id", userID))
	}
	respondErr := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: response,
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	})
	if respondErr != nil {
		l.logger.Warn("interaction response failed", zap.Error(respondErr))
	}
}
