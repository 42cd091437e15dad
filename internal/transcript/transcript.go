package transcript

import (
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"github.com/spec-kit/guild-ticket-bot/internal/gateway"
)

// historyFetchLimit is the Discord history-fetch ceiling. Longer
// conversations are truncated to the most recent messages.
const historyFetchLimit = 100

// Document is a self-contained archival rendering of a ticket channel's
// message history. Delivery is the caller's responsibility.
type Document struct {
	Filename string
	Data     []byte
}

// Generator renders ticket channels into HTML documents. Generation never
// fails: internal errors degrade to a placeholder document so transcript
// problems cannot block ticket closure.
type Generator struct {
	gateway      gateway.ChannelGateway
	assetBaseURL string
	logger       *zap.Logger
}

// NewGenerator constructs a generator. assetBaseURL is the fixed external
// asset host for emoji images.
func NewGenerator(gw gateway.ChannelGateway, assetBaseURL string, logger *zap.Logger) *Generator {
	return &Generator{
		gateway:      gw,
		assetBaseURL: strings.TrimRight(assetBaseURL, "/"),
		logger:       logger,
	}
}

// Generate produces the transcript for the channel backing the ticket.
func (g *Generator) Generate(channelID string, ticketID int64) (doc *Document) {
	filename := fmt.Sprintf("transcript-%d.html", ticketID)

	defer func() {
		if r := recover(); r != nil {
			g.logger.Error("transcript rendering panicked",
				zap.Any("panic", r),
				zap.Int64("ticket_id", ticketID),
				zap.String("channel_id", channelID))
			doc = errorDocument(filename, ticketID)
		}
	}()

	channelName := fmt.Sprintf("ticket-%d", ticketID)
	guildID := ""
	if ch, err := g.gateway.Channel(channelID); err == nil {
		channelName = ch.Name
		guildID = ch.GuildID
	}

	messages, err := g.gateway.ChannelMessages(channelID, historyFetchLimit)
	if err != nil {
		g.logger.Warn("transcript history fetch failed",
			zap.Error(err),
			zap.Int64("ticket_id", ticketID),
			zap.String("channel_id", channelID))
		return errorDocument(filename, ticketID)
	}

	var sb strings.Builder
	writeHeader(&sb, channelName)

	if len(messages) == 0 {
		sb.WriteString(`<p class="empty">No messages were posted in this ticket.</p>`)
	}
	for _, msg := range messages {
		g.writeMessage(&sb, msg, guildID)
	}

	sb.WriteString(`</div></body></html>`)
	return &Document{Filename: filename, Data: []byte(sb.String())}
}

func (g *Generator) writeMessage(sb *strings.Builder, msg *discordgo.Message, guildID string) {
	var body strings.Builder

	if msg.Content != "" {
		body.WriteString(`<div class="text">`)
		body.WriteString(renderContent(msg.Content, guildID, g.gateway, g.assetBaseURL))
		body.WriteString(`</div>`)
	}
	for _, embed := range msg.Embeds {
		writeEmbed(&body, embed)
	}
	for _, row := range msg.Components {
		writeComponentRow(&body, row)
	}
	if body.Len() == 0 {
		return
	}

	author := "unknown-user"
	bot := false
	if msg.Author != nil {
		author = msg.Author.Username
		bot = msg.Author.Bot
	}
	botTag := ""
	if bot {
		botTag = `<span class="bot-tag">BOT</span>`
	}

	fmt.Fprintf(sb, `<div class="message"><div class="header"><span class="username">%s</span>%s<span class="timestamp">%s</span></div><div class="content">%s</div></div>`,
		html.EscapeString(author),
		botTag,
		msg.Timestamp.UTC().Format(time.DateTime),
		body.String(),
	)
}

func writeEmbed(sb *strings.Builder, embed *discordgo.MessageEmbed) {
	if embed == nil {
		return
	}
	borderColor := "#4f545c"
	if embed.Color != 0 {
		borderColor = fmt.Sprintf("#%06x", embed.Color)
	}
	fmt.Fprintf(sb, `<div class="embed" style="border-left-color:%s;">`, borderColor)
	if embed.Title != "" {
		fmt.Fprintf(sb, `<div class="embed-title">%s</div>`, html.EscapeString(embed.Title))
	}
	if embed.Description != "" {
		fmt.Fprintf(sb, `<div class="embed-description">%s</div>`, html.EscapeString(embed.Description))
	}
	if embed.Image != nil && embed.Image.URL != "" {
		fmt.Fprintf(sb, `<div class="embed-image"><img src="%s" alt="Embed image"></div>`, html.EscapeString(embed.Image.URL))
	}
	if embed.Footer != nil && embed.Footer.Text != "" {
		fmt.Fprintf(sb, `<div class="embed-footer">%s</div>`, html.EscapeString(embed.Footer.Text))
	}
	sb.WriteString(`</div>`)
}

func writeComponentRow(sb *strings.Builder, component discordgo.MessageComponent) {
	row, ok := component.(*discordgo.ActionsRow)
	if !ok {
		return
	}
	sb.WriteString(`<div class="button-row">`)
	for _, item := range row.Components {
		button, ok := item.(*discordgo.Button)
		if !ok {
			continue
		}
		label := button.Label
		if button.Emoji != nil && button.Emoji.Name != "" {
			label = strings.TrimSpace(button.Emoji.Name + " " + label)
		}
		fmt.Fprintf(sb, `<span class="button %s">%s</span>`,
			buttonStyleClass(button.Style),
			html.EscapeString(label))
	}
	sb.WriteString(`</div>`)
}

func buttonStyleClass(style discordgo.ButtonStyle) string {
	switch style {
	case discordgo.PrimaryButton:
		return "button-primary"
	case discordgo.SecondaryButton:
		return "button-secondary"
	case discordgo.SuccessButton:
		return "button-success"
	case discordgo.DangerButton:
		return "button-danger"
	case discordgo.LinkButton:
		return "button-link"
	default:
		return "button-secondary"
	}
}

func errorDocument(filename string, ticketID int64) *Document {
	var sb strings.Builder
	writeHeader(&sb, fmt.Sprintf("ticket-%d", ticketID))
	sb.WriteString(`<p class="empty">The transcript for this ticket could not be rendered.</p>`)
	sb.WriteString(`</div></body></html>`)
	return &Document{Filename: filename, Data: []byte(sb.String())}
}

func writeHeader(sb *strings.Builder, channelName string) {
	escaped := html.EscapeString(channelName)
	sb.WriteString(`<!DOCTYPE html><html><head><meta charset="UTF-8"><title>Transcript for #` + escaped + `</title>`)
	sb.WriteString(`<style>` + transcriptCSS + `</style>`)
	sb.WriteString(`</head><body><div class="container"><h1>Transcript for #` + escaped + `</h1>`)
}

const transcriptCSS = `body{background-color:#313338;color:#dcddde;font-family:'Helvetica Neue',Helvetica,Arial,sans-serif;}` +
	`.container{padding:20px;max-width:800px;margin:auto;}` +
	`.message{margin-bottom:20px;}` +
	`.header{display:flex;align-items:center;margin-bottom:2px;}` +
	`.username{font-weight:500;color:#fff;}` +
	`.bot-tag{background-color:#5865f2;color:#fff;font-size:0.65em;padding:2px 4px;border-radius:3px;margin-left:5px;}` +
	`.timestamp{font-size:0.75em;color:#949ba4;margin-left:10px;}` +
	`.content{line-height:1.375em;white-space:pre-wrap;}` +
	`.mention{color:#c9cdfb;background-color:#414675;border-radius:3px;padding:0 2px;}` +
	`.emoji{width:22px;height:22px;vertical-align:bottom;}` +
	`pre{background-color:#2b2d31;border-radius:4px;padding:8px;}` +
	`code{background-color:#2b2d31;border-radius:3px;padding:1px 3px;}` +
	`.embed{background-color:#2b2d31;border-left:4px solid #4f545c;border-radius:5px;padding:10px;margin-top:5px;}` +
	`.embed-title{font-weight:bold;color:#fff;margin-bottom:5px;}` +
	`.embed-description{font-size:0.9em;}` +
	`.embed-image img{max-width:100%;border-radius:5px;margin-top:10px;}` +
	`.embed-footer{font-size:0.75em;margin-top:10px;color:#949ba4;}` +
	`.button-row{margin-top:5px;}` +
	`.button{display:inline-block;border-radius:3px;padding:2px 16px;margin-right:8px;font-size:0.875em;color:#fff;}` +
	`.button-primary{background-color:#5865f2;}` +
	`.button-secondary{background-color:#4f545c;}` +
	`.button-success{background-color:#248046;}` +
	`.button-danger{background-color:#da373c;}` +
	`.button-link{background-color:#4f545c;text-decoration:underline;}` +
	`.empty{color:#949ba4;font-style:italic;}`
