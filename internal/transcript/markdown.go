package transcript

import (
	"fmt"
	"html"
	"regexp"
)

// resolver maps Discord ids to display names. Lookups may miss; renderers
// fall back to an "unknown" label.
type resolver interface {
	ResolveUserName(guildID, userID string) (string, bool)
	ResolveRoleName(guildID, roleID string) (string, bool)
	ResolveChannelName(channelID string) (string, bool)
}

// Patterns operate on HTML-escaped text, so the mention/emoji angle
// brackets appear as entities.
var (
	reCodeBlock   = regexp.MustCompile("(?s)```(?:[a-zA-Z0-9]*\n)?(.+?)```")
	reInlineCode  = regexp.MustCompile("`([^`\n]+)`")
	reBold        = regexp.MustCompile(`\*\*(.+?)\*\*`)
	reUnderline   = regexp.MustCompile(`__(.+?)__`)
	reStrike      = regexp.MustCompile(`~~(.+?)~~`)
	reItalicStar  = regexp.MustCompile(`\*([^*]+)\*`)
	reItalicUnder = regexp.MustCompile(`_([^_]+)_`)
	reCustomEmoji = regexp.MustCompile(`&lt;a?:(\w+):(\d+)&gt;`)
	reUserMention = regexp.MustCompile(`&lt;@!?(\d+)&gt;`)
	reRoleMention = regexp.MustCompile(`&lt;@&amp;(\d+)&gt;`)
	reChanMention = regexp.MustCompile(`&lt;#(\d+)&gt;`)
)

// renderContent converts one message's raw Discord content into HTML:
// mentions become display names, markdown becomes markup, custom emoji
// become inline images.
func renderContent(content, guildID string, names resolver, assetBaseURL string) string {
	out := html.EscapeString(content)

	out = reUserMention.ReplaceAllStringFunc(out, func(match string) string {
		id := reUserMention.FindStringSubmatch(match)[1]
		name, ok := names.ResolveUserName(guildID, id)
		if !ok {
			name = "unknown-user"
		}
		return `<span class="mention">@` + html.EscapeString(name) + `</span>`
	})
	out = reRoleMention.ReplaceAllStringFunc(out, func(match string) string {
		id := reRoleMention.FindStringSubmatch(match)[1]
		name, ok := names.ResolveRoleName(guildID, id)
		if !ok {
			name = "unknown-role"
		}
		return `<span class="mention">@` + html.EscapeString(name) + `</span>`
	})
	out = reChanMention.ReplaceAllStringFunc(out, func(match string) string {
		id := reChanMention.FindStringSubmatch(match)[1]
		name, ok := names.ResolveChannelName(id)
		if !ok {
			name = "unknown-channel"
		}
		return `<span class="mention">#` + html.EscapeString(name) + `</span>`
	})

	out = reCustomEmoji.ReplaceAllString(out,
		fmt.Sprintf(`<img class="emoji" src="%s/emojis/$2.png" alt=":$1:">`, assetBaseURL))

	out = reCodeBlock.ReplaceAllString(out, `<pre><code>$1</code></pre>`)
	out = reInlineCode.ReplaceAllString(out, `<code>$1</code>`)
	out = reBold.ReplaceAllString(out, `<strong>$1</strong>`)
	out = reUnderline.ReplaceAllString(out, `<u>$1</u>`)
	out = reStrike.ReplaceAllString(out, `<s>$1</s>`)
	out = reItalicStar.ReplaceAllString(out, `<em>$1</em>`)
	out = reItalicUnder.ReplaceAllString(out, `<em>$1</em>`)

	return out
}
