package gateway

import (
	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

// DiscordGateway implements ChannelGateway on a discordgo session. Reads
// prefer the session state cache and fall back to REST where the cache can
// miss; ChannelExists is cache-only by contract.
type DiscordGateway struct {
	session *discordgo.Session
	logger  *zap.Logger
}

// NewDiscordGateway wraps a connected session.
func NewDiscordGateway(session *discordgo.Session, logger *zap.Logger) *DiscordGateway {
	return &DiscordGateway{session: session, logger: logger}
}

func (g *DiscordGateway) ChannelExists(channelID string) bool {
	_, err := g.session.State.Channel(channelID)
	return err == nil
}

func (g *DiscordGateway) Channel(channelID string) (*discordgo.Channel, error) {
	if ch, err := g.session.State.Channel(channelID); err == nil {
		return ch, nil
	}
	return g.session.Channel(channelID)
}

func (g *DiscordGateway) GuildChannels(guildID string) ([]*discordgo.Channel, error) {
	if guild, err := g.session.State.Guild(guildID); err == nil && len(guild.Channels) > 0 {
		return guild.Channels, nil
	}
	return g.session.GuildChannels(guildID)
}

func (g *DiscordGateway) CreateCategory(guildID, name string) (*discordgo.Channel, error) {
	return g.session.GuildChannelCreateComplex(guildID, discordgo.GuildChannelCreateData{
		Name: name,
		Type: discordgo.ChannelTypeGuildCategory,
		PermissionOverwrites: []*discordgo.PermissionOverwrite{
			{
				// The @everyone role shares the guild's id.
				ID:   guildID,
				Type: discordgo.PermissionOverwriteTypeRole,
				Deny: discordgo.PermissionViewChannel,
			},
		},
	})
}

func (g *DiscordGateway) CreateTicketChannel(guildID, parentID, name string, overwrites []*discordgo.PermissionOverwrite) (*discordgo.Channel, error) {
	return g.session.GuildChannelCreateComplex(guildID, discordgo.GuildChannelCreateData{
		Name:                 name,
		Type:                 discordgo.ChannelTypeGuildText,
		ParentID:             parentID,
		PermissionOverwrites: overwrites,
	})
}

func (g *DiscordGateway) DeleteChannel(channelID string) error {
	_, err := g.session.ChannelDelete(channelID)
	return err
}

func (g *DiscordGateway) SendMessage(channelID string, msg *discordgo.MessageSend) (*discordgo.Message, error) {
	return g.session.ChannelMessageSendComplex(channelID, msg)
}

func (g *DiscordGateway) EditMessage(channelID, messageID, content string) (*discordgo.Message, error) {
	return g.session.ChannelMessageEdit(channelID, messageID, content)
}

func (g *DiscordGateway) SendDirectMessage(userID string, msg *discordgo.MessageSend) (*discordgo.Message, error) {
	dm, err := g.session.UserChannelCreate(userID)
	if err != nil {
		return nil, err
	}
	return g.session.ChannelMessageSendComplex(dm.ID, msg)
}

func (g *DiscordGateway) ChannelMessages(channelID string, limit int) ([]*discordgo.Message, error) {
	messages, err := g.session.ChannelMessages(channelID, limit, "", "", "")
	if err != nil {
		return nil, err
	}
	// Discord returns newest first; the transcript wants oldest first.
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}

func (g *DiscordGateway) ResolveUserName(guildID, userID string) (string, bool) {
	if member, err := g.session.State.Member(guildID, userID); err == nil {
		if member.Nick != "" {
			return member.Nick, true
		}
		return member.User.Username, true
	}
	if user, err := g.session.User(userID); err == nil {
		return user.Username, true
	}
	return "", false
}

func (g *DiscordGateway) ResolveRoleName(guildID, roleID string) (string, bool) {
	if role, err := g.session.State.Role(guildID, roleID); err == nil {
		return role.Name, true
	}
	return "", false
}

func (g *DiscordGateway) ResolveChannelName(channelID string) (string, bool) {
	if ch, err := g.session.State.Channel(channelID); err == nil {
		return ch.Name, true
	}
	return "", false
}
