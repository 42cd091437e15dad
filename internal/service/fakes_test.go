package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/spec-kit/guild-ticket-bot/internal/domain"
	"github.com/spec-kit/guild-ticket-bot/internal/transcript"
)

// fakeTicketRepo is an in-memory TicketRepository.
type fakeTicketRepo struct {
	mu      sync.Mutex
	tickets []*domain.Ticket
	nextID  int64

	failList  error
	failClose error
}

func newFakeTicketRepo() *fakeTicketRepo {
	return &fakeTicketRepo{nextID: 1}
}

func (r *fakeTicketRepo) Create(_ context.Context, ticket *domain.Ticket) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	ticket.ID = r.nextID
	r.nextID++
	ticket.CreatedAt = time.Now()
	copied := *ticket
	r.tickets = append(r.tickets, &copied)
	return nil
}

func (r *fakeTicketRepo) ListOpenByGuildUser(_ context.Context, guildID, userID string) ([]domain.Ticket, error) {
	if r.failList != nil {
		return nil, r.failList
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []domain.Ticket
	for i := len(r.tickets) - 1; i >= 0; i-- {
		t := r.tickets[i]
		if t.GuildID == guildID && t.UserID == userID && t.Status == domain.TicketStatusOpen {
			result = append(result, *t)
		}
	}
	return result, nil
}

func (r *fakeTicketRepo) GetOpenByChannel(_ context.Context, channelID string) (*domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.tickets {
		if t.ChannelID == channelID && t.Status == domain.TicketStatusOpen {
			copied := *t
			return &copied, nil
		}
	}
	return nil, nil
}

func (r *fakeTicketRepo) GetLatestByGuildUser(_ context.Context, guildID, userID string) (*domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var latest *domain.Ticket
	for _, t := range r.tickets {
		if t.GuildID != guildID || t.UserID != userID {
			continue
		}
		if latest == nil || t.CreatedAt.After(latest.CreatedAt) || (t.CreatedAt.Equal(latest.CreatedAt) && t.ID > latest.ID) {
			latest = t
		}
	}
	if latest == nil {
		return nil, nil
	}
	copied := *latest
	return &copied, nil
}

func (r *fakeTicketRepo) Close(_ context.Context, ticketID int64, closedAt time.Time, reason string) error {
	if r.failClose != nil {
		return r.failClose
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.tickets {
		if t.ID == ticketID && t.Status == domain.TicketStatusOpen {
			t.Status = domain.TicketStatusClosed
			t.ClosedAt = &closedAt
			t.CloseReason = &reason
			return nil
		}
	}
	return errors.New("no open ticket row")
}

func (r *fakeTicketRepo) CountOpenByGuild(_ context.Context) (map[string]int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	counts := make(map[string]int64)
	for _, t := range r.tickets {
		if t.Status == domain.TicketStatusOpen {
			counts[t.GuildID]++
		}
	}
	return counts, nil
}

func (r *fakeTicketRepo) byID(id int64) *domain.Ticket {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.tickets {
		if t.ID == id {
			copied := *t
			return &copied
		}
	}
	return nil
}

// fakeGateway is an in-memory ChannelGateway.
type fakeGateway struct {
	mu       sync.Mutex
	nextID   int
	channels map[string]*discordgo.Channel
	messages map[string][]*discordgo.Message
	sent     map[string][]*discordgo.MessageSend
	dms      map[string][]*discordgo.MessageSend
	edits    map[string][]string
	deleted  []string
	users    map[string]string
	roles    map[string]string

	failDM   bool
	failSend map[string]bool
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		nextID:   100,
		channels: make(map[string]*discordgo.Channel),
		messages: make(map[string][]*discordgo.Message),
		sent:     make(map[string][]*discordgo.MessageSend),
		dms:      make(map[string][]*discordgo.MessageSend),
		edits:    make(map[string][]string),
		users:    make(map[string]string),
		roles:    make(map[string]string),
		failSend: make(map[string]bool),
	}
}

func (g *fakeGateway) newID() string {
	g.nextID++
	return strconv.Itoa(g.nextID)
}

func (g *fakeGateway) addChannel(id, guildID, name string, channelType discordgo.ChannelType, parentID string) *discordgo.Channel {
	g.mu.Lock()
	defer g.mu.Unlock()
	ch := &discordgo.Channel{ID: id, GuildID: guildID, Name: name, Type: channelType, ParentID: parentID}
	g.channels[id] = ch
	return ch
}

func (g *fakeGateway) removeChannel(id string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.channels, id)
}

func (g *fakeGateway) ChannelExists(channelID string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, ok := g.channels[channelID]
	return ok
}

func (g *fakeGateway) Channel(channelID string) (*discordgo.Channel, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	ch, ok := g.channels[channelID]
	if !ok {
		return nil, errors.New("unknown channel")
	}
	return ch, nil
}

func (g *fakeGateway) GuildChannels(guildID string) ([]*discordgo.Channel, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	var result []*discordgo.Channel
	for _, ch := range g.channels {
		if ch.GuildID == guildID {
			result = append(result, ch)
		}
	}
	return result, nil
}

func (g *fakeGateway) CreateCategory(guildID, name string) (*discordgo.Channel, error) {
	g.mu.Lock()
	id := g.newID()
	ch := &discordgo.Channel{
		ID:      id,
		GuildID: guildID,
		Name:    name,
		Type:    discordgo.ChannelTypeGuildCategory,
		PermissionOverwrites: []*discordgo.PermissionOverwrite{
			{ID: guildID, Type: discordgo.PermissionOverwriteTypeRole, Deny: discordgo.PermissionViewChannel},
		},
	}
	g.channels[id] = ch
	g.mu.Unlock()
	return ch, nil
}

func (g *fakeGateway) CreateTicketChannel(guildID, parentID, name string, overwrites []*discordgo.PermissionOverwrite) (*discordgo.Channel, error) {
	g.mu.Lock()
	id := g.newID()
	ch := &discordgo.Channel{
		ID:                   id,
		GuildID:              guildID,
		Name:                 name,
		Type:                 discordgo.ChannelTypeGuildText,
		ParentID:             parentID,
		PermissionOverwrites: overwrites,
	}
	g.channels[id] = ch
	g.mu.Unlock()
	return ch, nil
}

func (g *fakeGateway) DeleteChannel(channelID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.channels, channelID)
	g.deleted = append(g.deleted, channelID)
	return nil
}

func (g *fakeGateway) SendMessage(channelID string, msg *discordgo.MessageSend) (*discordgo.Message, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.failSend[channelID] {
		return nil, fmt.Errorf("send to %s failed", channelID)
	}
	g.sent[channelID] = append(g.sent[channelID], msg)
	return &discordgo.Message{ID: g.newID(), ChannelID: channelID}, nil
}

func (g *fakeGateway) EditMessage(channelID, messageID, content string) (*discordgo.Message, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.channels[channelID]; !ok {
		return nil, errors.New("channel gone")
	}
	g.edits[messageID] = append(g.edits[messageID], content)
	return &discordgo.Message{ID: messageID, ChannelID: channelID, Content: content}, nil
}

func (g *fakeGateway) SendDirectMessage(userID string, msg *discordgo.MessageSend) (*discordgo.Message, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.failDM {
		return nil, errors.New("cannot DM user")
	}
	g.dms[userID] = append(g.dms[userID], msg)
	return &discordgo.Message{ID: g.newID()}, nil
}

func (g *fakeGateway) ChannelMessages(channelID string, limit int) ([]*discordgo.Message, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	msgs := g.messages[channelID]
	if len(msgs) > limit {
		msgs = msgs[len(msgs)-limit:]
	}
	return msgs, nil
}

func (g *fakeGateway) ResolveUserName(_, userID string) (string, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	name, ok := g.users[userID]
	return name, ok
}

func (g *fakeGateway) ResolveRoleName(_, roleID string) (string, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	name, ok := g.roles[roleID]
	return name, ok
}

func (g *fakeGateway) ResolveChannelName(channelID string) (string, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	ch, ok := g.channels[channelID]
	if !ok {
		return "", false
	}
	return ch.Name, true
}

func (g *fakeGateway) sentTo(channelID string) []*discordgo.MessageSend {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]*discordgo.MessageSend{}, g.sent[channelID]...)
}

func (g *fakeGateway) deletedChannels() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]string{}, g.deleted...)
}

// fakeSettings is an in-memory GuildSettingsProvider.
type fakeSettings struct {
	settings map[string]*domain.GuildSettings
	err      error
}

func (f *fakeSettings) Settings(_ context.Context, guildID string) (*domain.GuildSettings, error) {
	if f.err != nil {
		return nil, f.err
	}
	if s, ok := f.settings[guildID]; ok {
		return s, nil
	}
	return &domain.GuildSettings{GuildID: guildID}, nil
}

// fakeTranscripts counts generations and returns a canned document.
type fakeTranscripts struct {
	mu    sync.Mutex
	calls int
}

func (f *fakeTranscripts) Generate(_ string, ticketID int64) *transcript.Document {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return &transcript.Document{
		Filename: fmt.Sprintf("transcript-%d.html", ticketID),
		Data:     []byte("<html>transcript</html>"),
	}
}

func (f *fakeTranscripts) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}
