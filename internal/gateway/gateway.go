package gateway

import (
	"github.com/bwmarrin/discordgo"
)

// ChannelGateway abstracts the Discord operations the ticket subsystem
// consumes: channel/category management, message delivery, history fetch,
// and display-name resolution. Lifecycle services depend on this interface
// so tests can substitute an in-memory fake.
type ChannelGateway interface {
	// ChannelExists probes the locally cached channel directory. It never
	// performs a network round trip; a channel missing from the cache is
	// treated as deleted.
	ChannelExists(channelID string) bool

	Channel(channelID string) (*discordgo.Channel, error)
	GuildChannels(guildID string) ([]*discordgo.Channel, error)

	// CreateCategory creates a category with the default-deny visibility
	// rule applied to the guild's public role.
	CreateCategory(guildID, name string) (*discordgo.Channel, error)
	CreateTicketChannel(guildID, parentID, name string, overwrites []*discordgo.PermissionOverwrite) (*discordgo.Channel, error)
	DeleteChannel(channelID string) error

	SendMessage(channelID string, msg *discordgo.MessageSend) (*discordgo.Message, error)
	EditMessage(channelID, messageID, content string) (*discordgo.Message, error)
	SendDirectMessage(userID string, msg *discordgo.MessageSend) (*discordgo.Message, error)

	// ChannelMessages returns up to limit of the most recent messages in
	// chronological order, oldest first.
	ChannelMessages(channelID string, limit int) ([]*discordgo.Message, error)

	// Name resolution may miss; implementations return ok=false rather
	// than failing so rendering can degrade gracefully.
	ResolveUserName(guildID, userID string) (string, bool)
	ResolveRoleName(guildID, roleID string) (string, bool)
	ResolveChannelName(channelID string) (string, bool)
}

// TicketChannelPermissions is the set of rights granted to the requester on
// their ticket channel.
const TicketChannelPermissions = discordgo.PermissionViewChannel |
	discordgo.PermissionSendMessages |
	discordgo.PermissionReadMessageHistory |
	discordgo.PermissionAttachFiles |
	discordgo.PermissionEmbedLinks
