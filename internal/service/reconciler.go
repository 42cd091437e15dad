package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/guild-ticket-bot/internal/domain"
	"github.com/spec-kit/guild-ticket-bot/internal/events"
	"github.com/spec-kit/guild-ticket-bot/internal/gateway"
	"github.com/spec-kit/guild-ticket-bot/internal/repository"
	"github.com/spec-kit/guild-ticket-bot/pkg/util"
)

// Reconciler detects and repairs orphaned open tickets: rows marked open
// whose backing channel was deleted outside the normal closure path.
type Reconciler struct {
	tickets    repository.TicketRepository
	gateway    gateway.ChannelGateway
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// NewReconciler constructs the engine.
func NewReconciler(tickets repository.TicketRepository, gw gateway.ChannelGateway, dispatcher events.Dispatcher, logger *zap.Logger) *Reconciler {
	return &Reconciler{tickets: tickets, gateway: gw, dispatcher: dispatcher, logger: logger}
}

// ReconcileOpenTickets closes every open ticket for (guild, user) whose
// channel no longer exists and returns the surviving open ticket, if any.
// More than one survivor is a data anomaly surfaced as an error; the engine
// does not arbitrate between them. Persistence errors propagate uncaught
// and nothing is retried.
func (r *Reconciler) ReconcileOpenTickets(ctx context.Context, guildID, userID string) (*domain.Ticket, error) {
	open, err := r.tickets.ListOpenByGuildUser(ctx, guildID, userID)
	if err != nil {
		return nil, err
	}

	var survivors []domain.Ticket
	for i := range open {
		ticket := open[i]
		if r.gateway.ChannelExists(ticket.ChannelID) {
			survivors = append(survivors, ticket)
			continue
		}

		now := time.Now()
		if err := r.tickets.Close(ctx, ticket.ID, now, domain.CloseReasonChannelMissing); err != nil {
			return nil, err
		}
		r.logger.Info("closed orphaned ticket",
			zap.Int64("ticket_id", ticket.ID),
			zap.String("guild_id", guildID),
			zap.String("user_id", userID),
			zap.String("channel_id", ticket.ChannelID))
		r.publish(ctx, events.Event{
			Type:     events.EventTicketReconciled,
			GuildID:  guildID,
			TicketID: ticket.ID,
			Payload: events.TicketReconciledPayload{
				UserID:    userID,
				ChannelID: ticket.ChannelID,
				Reason:    domain.CloseReasonChannelMissing,
			},
		})
	}

	switch len(survivors) {
	case 0:
		return nil, nil
	case 1:
		return &survivors[0], nil
	default:
		return nil, util.NewMultipleOpenTickets(guildID, userID, len(survivors))
	}
}

func (r *Reconciler) publish(ctx context.Context, event events.Event) {
	if r.dispatcher == nil {
		return
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	_ = r.dispatcher.Publish(ctx, event)
}
