package transcript

import (
	"errors"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// stubGateway implements gateway.ChannelGateway with canned data.
type stubGateway struct {
	channel     *discordgo.Channel
	messages    []*discordgo.Message
	fetchErr    error
	panicOnHist bool
	users       map[string]string
	roles       map[string]string
	channels    map[string]string
}

func (s *stubGateway) ChannelExists(string) bool { return s.channel != nil }

func (s *stubGateway) Channel(string) (*discordgo.Channel, error) {
	if s.channel == nil {
		return nil, errors.New("unknown channel")
	}
	return s.channel, nil
}

func (s *stubGateway) GuildChannels(string) ([]*discordgo.Channel, error) { return nil, nil }

func (s *stubGateway) CreateCategory(string, string) (*discordgo.Channel, error) {
	return nil, errors.New("not supported")
}

func (s *stubGateway) CreateTicketChannel(string, string, string, []*discordgo.PermissionOverwrite) (*discordgo.Channel, error) {
	return nil, errors.New("not supported")
}

func (s *stubGateway) DeleteChannel(string) error { return nil }

func (s *stubGateway) SendMessage(string, *discordgo.MessageSend) (*discordgo.Message, error) {
	return nil, errors.New("not supported")
}

func (s *stubGateway) EditMessage(string, string, string) (*discordgo.Message, error) {
	return nil, errors.New("not supported")
}

func (s *stubGateway) SendDirectMessage(string, *discordgo.MessageSend) (*discordgo.Message, error) {
	return nil, errors.New("not supported")
}

func (s *stubGateway) ChannelMessages(string, int) ([]*discordgo.Message, error) {
	if s.panicOnHist {
		panic("boom")
	}
	return s.messages, s.fetchErr
}

func (s *stubGateway) ResolveUserName(_, id string) (string, bool) {
	name, ok := s.users[id]
	return name, ok
}

func (s *stubGateway) ResolveRoleName(_, id string) (string, bool) {
	name, ok := s.roles[id]
	return name, ok
}

func (s *stubGateway) ResolveChannelName(id string) (string, bool) {
	name, ok := s.channels[id]
	return name, ok
}

func newTestGenerator(gw *stubGateway) *Generator {
	return NewGenerator(gw, "https://cdn.discordapp.com", zap.NewNop())
}

func message(author, content string) *discordgo.Message {
	return &discordgo.Message{
		Author:    &discordgo.User{ID: "a1", Username: author},
		Content:   content,
		Timestamp: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestGenerateEmptyChannelYieldsPlaceholder(t *testing.T) {
	gw := &stubGateway{channel: &discordgo.Channel{ID: "c1", GuildID: "g1", Name: "support-alice"}}
	doc := newTestGenerator(gw).Generate("c1", 42)

	require.NotNil(t, doc)
	assert.Equal(t, "transcript-42.html", doc.Filename)
	assert.NotEmpty(t, doc.Data)
	assert.Contains(t, string(doc.Data), "No messages were posted")
	assert.Contains(t, string(doc.Data), "support-alice")
}

func TestGenerateRendersPlainMessages(t *testing.T) {
	gw := &stubGateway{
		channel: &discordgo.Channel{ID: "c1", GuildID: "g1", Name: "support-alice"},
		messages: []*discordgo.Message{
			message("alice", "hello **world**"),
			message("bob", "see <#55>"),
		},
		channels: map[string]string{"55": "rules"},
	}
	doc := newTestGenerator(gw).Generate("c1", 1)
	body := string(doc.Data)

	assert.Contains(t, body, "alice")
	assert.Contains(t, body, "hello <strong>world</strong>")
	assert.Contains(t, body, "#rules")
}

func TestGenerateRendersEmbedsAndButtons(t *testing.T) {
	msg := message("bot", "")
	msg.Author.Bot = true
	msg.Embeds = []*discordgo.MessageEmbed{{
		Title:       "Ticket opened",
		Description: "Welcome!",
		Color:       0x5865F2,
		Footer:      &discordgo.MessageEmbedFooter{Text: "ticket 1"},
	}}
	msg.Components = []discordgo.MessageComponent{
		&discordgo.ActionsRow{Components: []discordgo.MessageComponent{
			&discordgo.Button{Label: "Close", Style: discordgo.DangerButton, CustomID: "ticket_close"},
		}},
	}

	gw := &stubGateway{
		channel:  &discordgo.Channel{ID: "c1", GuildID: "g1", Name: "support-alice"},
		messages: []*discordgo.Message{msg},
	}
	body := string(newTestGenerator(gw).Generate("c1", 1).Data)

	assert.Contains(t, body, "Ticket opened")
	assert.Contains(t, body, "Welcome!")
	assert.Contains(t, body, "#5865f2")
	assert.Contains(t, body, "ticket 1")
	assert.Contains(t, body, `class="button button-danger"`)
	assert.Contains(t, body, "Close")
	assert.Contains(t, body, "BOT")
}

func TestGenerateToleratesMalformedEmbeds(t *testing.T) {
	msg := message("alice", "")
	msg.Embeds = []*discordgo.MessageEmbed{nil, {}}

	gw := &stubGateway{
		channel:  &discordgo.Channel{ID: "c1", GuildID: "g1", Name: "support-alice"},
		messages: []*discordgo.Message{msg},
	}
	doc := newTestGenerator(gw).Generate("c1", 1)
	require.NotNil(t, doc)
	assert.NotEmpty(t, doc.Data)
}

func TestGenerateToleratesMissingAuthor(t *testing.T) {
	msg := &discordgo.Message{Content: "orphan message"}
	gw := &stubGateway{
		channel:  &discordgo.Channel{ID: "c1", GuildID: "g1", Name: "support-alice"},
		messages: []*discordgo.Message{msg},
	}
	body := string(newTestGenerator(gw).Generate("c1", 1).Data)
	assert.Contains(t, body, "unknown-user")
	assert.Contains(t, body, "orphan message")
}

func TestGenerateHistoryFetchFailureDegrades(t *testing.T) {
	gw := &stubGateway{
		channel:  &discordgo.Channel{ID: "c1", GuildID: "g1", Name: "support-alice"},
		fetchErr: errors.New("rate limited"),
	}
	doc := newTestGenerator(gw).Generate("c1", 7)
	require.NotNil(t, doc)
	assert.Equal(t, "transcript-7.html", doc.Filename)
	assert.Contains(t, string(doc.Data), "could not be rendered")
}

func TestGenerateRecoversFromPanic(t *testing.T) {
	gw := &stubGateway{
		channel:     &discordgo.Channel{ID: "c1", GuildID: "g1", Name: "support-alice"},
		panicOnHist: true,
	}
	doc := newTestGenerator(gw).Generate("c1", 9)
	require.NotNil(t, doc)
	assert.Equal(t, "transcript-9.html", doc.Filename)
	assert.Contains(t, string(doc.Data), "could not be rendered")
}

func TestGenerateUnknownChannelStillProducesDocument(t *testing.T) {
	gw := &stubGateway{}
	doc := newTestGenerator(gw).Generate("gone", 3)
	require.NotNil(t, doc)
	assert.Equal(t, "transcript-3.html", doc.Filename)
	assert.Contains(t, string(doc.Data), "ticket-3")
}
