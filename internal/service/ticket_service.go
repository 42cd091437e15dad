package service

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/guild-ticket-bot/internal/domain"
	"github.com/spec-kit/guild-ticket-bot/internal/events"
	"github.com/spec-kit/guild-ticket-bot/internal/gateway"
	"github.com/spec-kit/guild-ticket-bot/internal/observability"
	"github.com/spec-kit/guild-ticket-bot/internal/repository"
	"github.com/spec-kit/guild-ticket-bot/internal/transcript"
	"github.com/spec-kit/guild-ticket-bot/pkg/util"
)

// CloseButtonID is the custom id of the close affordance posted into every
// new ticket channel. The interaction listener routes clicks on it back to
// CloseTicket.
const CloseButtonID = "ticket_close"

const embedColor = 0x5865F2

// TranscriptGenerator renders a channel's history into an archival
// document. Implementations never fail; they degrade to a placeholder.
type TranscriptGenerator interface {
	Generate(channelID string, ticketID int64) *transcript.Document
}

// TicketService coordinates the ticket lifecycle: open, close, force-close.
type TicketService struct {
	tickets     repository.TicketRepository
	settings    GuildSettingsProvider
	reconciler  *Reconciler
	gateway     gateway.ChannelGateway
	transcripts TranscriptGenerator
	dispatcher  events.Dispatcher
	metrics     *observability.Metrics
	logger      *zap.Logger
	deleteDelay time.Duration
}

// TicketDependencies bundles collaborators for the lifecycle controller.
type TicketDependencies struct {
	TicketRepo  repository.TicketRepository
	Settings    GuildSettingsProvider
	Reconciler  *Reconciler
	Gateway     gateway.ChannelGateway
	Transcripts TranscriptGenerator
	Dispatcher  events.Dispatcher
	Metrics     *observability.Metrics
	Logger      *zap.Logger
	DeleteDelay time.Duration
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	delay := deps.DeleteDelay
	if delay <= 0 {
		delay = 5 * time.Second
	}
	return &TicketService{
		tickets:     deps.TicketRepo,
		settings:    deps.Settings,
		reconciler:  deps.Reconciler,
		gateway:     deps.Gateway,
		transcripts: deps.Transcripts,
		dispatcher:  deps.Dispatcher,
		metrics:     deps.Metrics,
		logger:      deps.Logger,
		deleteDelay: delay,
	}
}

// OpenTicket creates a new ticket for the user. Reconciliation runs first;
// an existing valid open ticket blocks creation. Channel creation, row
// insertion and the intro message are independent steps with no compensating
// rollback: a failure mid-way leaves a partial state the caller surfaces
// as-is.
func (s *TicketService) OpenTicket(ctx context.Context, guildID, userID, optionValue string) (*domain.Ticket, *discordgo.Channel, error) {
	existing, err := s.reconciler.ReconcileOpenTickets(ctx, guildID, userID)
	if err != nil {
		s.record("open_ticket", err)
		return nil, nil, err
	}
	if existing != nil {
		err := util.NewAlreadyOpen(existing.ID, existing.ChannelID)
		s.record("open_ticket", err)
		return nil, nil, err
	}

	settings, err := s.settings.Settings(ctx, guildID)
	if err != nil {
		s.record("open_ticket", err)
		return nil, nil, err
	}
	if len(settings.Options) == 0 {
		err := util.NewNoCategoryConfigured(guildID)
		s.record("open_ticket", err)
		return nil, nil, err
	}
	option := settings.OptionByValue(optionValue)
	if option == nil {
		err := util.NewUnknownOption(optionValue)
		s.record("open_ticket", err)
		return nil, nil, err
	}

	category, err := s.findOrCreateCategory(guildID, option.Category)
	if err != nil {
		s.record("open_ticket", err)
		return nil, nil, err
	}

	handle, ok := s.gateway.ResolveUserName(guildID, userID)
	if !ok {
		handle = userID
	}
	overwrites := append([]*discordgo.PermissionOverwrite{}, category.PermissionOverwrites...)
	overwrites = append(overwrites, &discordgo.PermissionOverwrite{
		ID:    userID,
		Type:  discordgo.PermissionOverwriteTypeMember,
		Allow: gateway.TicketChannelPermissions,
	})
	channel, err := s.gateway.CreateTicketChannel(guildID, category.ID, channelName(option.Label, handle), overwrites)
	if err != nil {
		s.record("open_ticket", err)
		return nil, nil, err
	}

	ticket := &domain.Ticket{
		GuildID:   guildID,
		UserID:    userID,
		ChannelID: channel.ID,
		Type:      option.Label,
		Status:    domain.TicketStatusOpen,
	}
	if err := s.tickets.Create(ctx, ticket); err != nil {
		s.record("open_ticket", err)
		return nil, nil, err
	}

	if _, err := s.gateway.SendMessage(channel.ID, introMessage(userID, option, category.Name)); err != nil {
		s.record("open_ticket", err)
		return nil, nil, err
	}

	s.publish(ctx, events.Event{
		Type:     events.EventTicketOpened,
		GuildID:  guildID,
		TicketID: ticket.ID,
		Payload: events.TicketOpenedPayload{
			UserID:     userID,
			ChannelID:  channel.ID,
			TicketType: ticket.Type,
		},
	})
	s.record("open_ticket", nil)
	return ticket, channel, nil
}

// CloseTicket closes the open ticket backing channelID. The transcript is
// generated and delivered best-effort before the row is marked closed; the
// channel itself is deleted after a visible countdown, so a crash in between
// leaves a closed ticket with a live channel, never the reverse.
func (s *TicketService) CloseTicket(ctx context.Context, channelID, closingUserID, reason string) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetOpenByChannel(ctx, channelID)
	if err != nil {
		s.record("close_ticket", err)
		return nil, err
	}
	if ticket == nil {
		err := util.NewNotATicketChannel(channelID)
		s.record("close_ticket", err)
		return nil, err
	}

	doc := s.transcripts.Generate(channelID, ticket.ID)

	transcriptOK := s.deliverTranscript(ctx, ticket, doc)

	now := time.Now()
	if err := s.tickets.Close(ctx, ticket.ID, now, reason); err != nil {
		s.record("close_ticket", err)
		return nil, err
	}
	ticket.Status = domain.TicketStatusClosed
	ticket.ClosedAt = &now
	ticket.CloseReason = &reason

	summary := &discordgo.MessageSend{
		Embeds: []*discordgo.MessageEmbed{{
			Title:       "Ticket closed",
			Description: fmt.Sprintf("Closed by <@%s>.\nReason: %s", closingUserID, reason),
			Color:       embedColor,
		}},
	}
	if _, err := s.gateway.SendMessage(channelID, summary); err != nil {
		s.logger.Warn("failed to post closure summary", zap.Error(err), zap.String("channel_id", channelID))
	}

	go s.deleteAfterCountdown(channelID)

	s.publish(ctx, events.Event{
		Type:     events.EventTicketClosed,
		GuildID:  ticket.GuildID,
		TicketID: ticket.ID,
		Payload: events.TicketClosedPayload{
			UserID:       ticket.UserID,
			ChannelID:    channelID,
			ClosedByID:   closingUserID,
			Reason:       reason,
			TranscriptOK: transcriptOK,
		},
	})
	s.record("close_ticket", nil)
	return ticket, nil
}

// ForceCloseTicket is the administrative escape hatch: it closes the user's
// most recent ticket without touching the channel or generating a
// transcript, so it works even when the channel is unreachable. Closing an
// already-closed ticket is a no-op reported via the second return value.
func (s *TicketService) ForceCloseTicket(ctx context.Context, guildID, userID, reason string) (*domain.Ticket, bool, error) {
	ticket, err := s.tickets.GetLatestByGuildUser(ctx, guildID, userID)
	if err != nil {
		s.record("force_close_ticket", err)
		return nil, false, err
	}
	if ticket == nil {
		err := util.NewNoTicketFound(guildID, userID)
		s.record("force_close_ticket", err)
		return nil, false, err
	}
	if !ticket.IsOpen() {
		s.record("force_close_ticket", nil)
		return ticket, false, nil
	}

	now := time.Now()
	if err := s.tickets.Close(ctx, ticket.ID, now, reason); err != nil {
		s.record("force_close_ticket", err)
		return nil, false, err
	}
	ticket.Status = domain.TicketStatusClosed
	ticket.ClosedAt = &now
	ticket.CloseReason = &reason

	s.publish(ctx, events.Event{
		Type:     events.EventTicketForceClosed,
		GuildID:  guildID,
		TicketID: ticket.ID,
		Payload: events.TicketClosedPayload{
			UserID:    userID,
			ChannelID: ticket.ChannelID,
			Reason:    reason,
			Forced:    true,
		},
	})
	s.record("force_close_ticket", nil)
	return ticket, true, nil
}

// deliverTranscript sends the document to the requester's DMs and to the
// guild's ticket-log channel. Both deliveries are best-effort: failures are
// logged and surfaced as a warning in the ticket channel, never as errors.
func (s *TicketService) deliverTranscript(ctx context.Context, ticket *domain.Ticket, doc *transcript.Document) bool {
	ok := true

	dm := &discordgo.MessageSend{
		Content: fmt.Sprintf("Transcript for your %s ticket.", ticket.Type),
		Files:   []*discordgo.File{transcriptFile(doc)},
	}
	if _, err := s.gateway.SendDirectMessage(ticket.UserID, dm); err != nil {
		ok = false
		s.logger.Warn("transcript DM delivery failed",
			zap.Error(err),
			zap.Int64("ticket_id", ticket.ID),
			zap.String("user_id", ticket.UserID))
		s.warnInChannel(ticket.ChannelID, "Could not deliver the transcript to the requester's DMs.")
	}

	settings, err := s.settings.Settings(ctx, ticket.GuildID)
	if err != nil {
		ok = false
		s.logger.Warn("could not load settings for transcript log delivery", zap.Error(err))
		return ok
	}
	if settings.LogChannelID == "" {
		return ok
	}
	logMsg := &discordgo.MessageSend{
		Content: fmt.Sprintf("Transcript for ticket #%d (<@%s>).", ticket.ID, ticket.UserID),
		Files:   []*discordgo.File{transcriptFile(doc)},
	}
	if _, err := s.gateway.SendMessage(settings.LogChannelID, logMsg); err != nil {
		ok = false
		s.logger.Warn("transcript log delivery failed",
			zap.Error(err),
			zap.Int64("ticket_id", ticket.ID),
			zap.String("log_channel_id", settings.LogChannelID))
		s.warnInChannel(ticket.ChannelID, "Could not deliver the transcript to the log channel.")
	}
	return ok
}

// deleteAfterCountdown posts a countdown message, edits it in place once a
// second, then deletes the channel. An edit failure (message already gone)
// aborts the countdown early; the deletion still runs. Deletion failure is
// logged and not retried.
func (s *TicketService) deleteAfterCountdown(channelID string) {
	seconds := int(s.deleteDelay / time.Second)
	msg, err := s.gateway.SendMessage(channelID, &discordgo.MessageSend{
		Content: fmt.Sprintf("Deleting this channel in %d seconds.", seconds),
	})
	if err != nil {
		s.logger.Warn("failed to post deletion countdown", zap.Error(err), zap.String("channel_id", channelID))
	}

	for remaining := seconds; remaining > 0; remaining-- {
		time.Sleep(time.Second)
		if msg == nil {
			continue
		}
		if _, err := s.gateway.EditMessage(channelID, msg.ID, fmt.Sprintf("Deleting this channel in %d seconds.", remaining-1)); err != nil {
			break
		}
	}

	if err := s.gateway.DeleteChannel(channelID); err != nil {
		s.logger.Error("failed to delete ticket channel", zap.Error(err), zap.String("channel_id", channelID))
	}
}

func (s *TicketService) findOrCreateCategory(guildID, name string) (*discordgo.Channel, error) {
	channels, err := s.gateway.GuildChannels(guildID)
	if err != nil {
		return nil, err
	}
	for _, ch := range channels {
		if ch.Type == discordgo.ChannelTypeGuildCategory && strings.EqualFold(ch.Name, name) {
			return ch, nil
		}
	}
	return s.gateway.CreateCategory(guildID, name)
}

func (s *TicketService) warnInChannel(channelID, text string) {
	if _, err := s.gateway.SendMessage(channelID, &discordgo.MessageSend{Content: ":warning: " + text}); err != nil {
		s.logger.Warn("failed to post warning", zap.Error(err), zap.String("channel_id", channelID))
	}
}

func (s *TicketService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	_ = s.dispatcher.Publish(ctx, event)
}

func (s *TicketService) record(operation string, err error) {
	if s.metrics == nil {
		return
	}
	if err == nil {
		s.metrics.RecordOperation(operation, "ok")
		return
	}
	s.metrics.RecordError(operation, util.ToDomainError(err).Code)
}

func introMessage(userID string, option *domain.TicketOption, categoryName string) *discordgo.MessageSend {
	return &discordgo.MessageSend{
		Content: fmt.Sprintf("<@%s>", userID),
		Embeds: []*discordgo.MessageEmbed{{
			Title:       fmt.Sprintf("%s %s", option.Emoji, option.Label),
			Description: fmt.Sprintf("Ticket opened under **%s**. A staff member will be with you shortly.\nUse the button below to close this ticket.", categoryName),
			Color:       embedColor,
		}},
		Components: []discordgo.MessageComponent{
			discordgo.ActionsRow{
				Components: []discordgo.MessageComponent{
					discordgo.Button{
						Label:    "Close",
						Style:    discordgo.DangerButton,
						CustomID: CloseButtonID,
						Emoji:    &discordgo.ComponentEmoji{Name: "🔒"},
					},
				},
			},
		},
	}
}

func transcriptFile(doc *transcript.Document) *discordgo.File {
	return &discordgo.File{
		Name:        doc.Filename,
		ContentType: "text/html",
		Reader:      bytes.NewReader(doc.Data),
	}
}

// channelName derives the deterministic ticket channel name from the option
// label and the requester's handle.
func channelName(label, handle string) string {
	sanitize := func(s string) string {
		return strings.Join(strings.Fields(strings.ToLower(s)), "-")
	}
	return sanitize(label) + "-" + sanitize(handle)
}
