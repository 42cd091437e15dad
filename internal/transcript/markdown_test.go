package transcript

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

const testAssetBaseURL = "https://cdn.discordapp.com"

func newTestResolver() *stubGateway {
	return &stubGateway{
		users:    map[string]string{"111": "Alice"},
		roles:    map[string]string{"222": "Moderators"},
		channels: map[string]string{"333": "rules"},
	}
}

func TestRenderContentMarkdown(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"bold", "a **b** c", "a <strong>b</strong> c"},
		{"italic star", "a *b* c", "a <em>b</em> c"},
		{"italic underscore", "a _b_ c", "a <em>b</em> c"},
		{"underline", "a __b__ c", "a <u>b</u> c"},
		{"strikethrough", "a ~~b~~ c", "a <s>b</s> c"},
		{"inline code", "run `go env` first", "run <code>go env</code> first"},
		{"code block", "```\nline\n```", "<pre><code>line\n</code></pre>"},
		{"code block with language", "```go\nx := 1\n```", "<pre><code>x := 1\n</code></pre>"},
		{"html escaped", "1 < 2 & 3 > 2", "1 &lt; 2 &amp; 3 &gt; 2"},
		{"script injection", "<script>alert(1)</script>", "&lt;script&gt;alert(1)&lt;/script&gt;"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := renderContent(tc.in, "g1", newTestResolver(), testAssetBaseURL)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestRenderContentMentions(t *testing.T) {
	r := newTestResolver()

	t.Run("user", func(t *testing.T) {
		got := renderContent("hi <@111>", "g1", r, testAssetBaseURL)
		assert.Equal(t, `hi <span class="mention">@Alice</span>`, got)
	})

	t.Run("nickname form", func(t *testing.T) {
		got := renderContent("hi <@!111>", "g1", r, testAssetBaseURL)
		assert.Equal(t, `hi <span class="mention">@Alice</span>`, got)
	})

	t.Run("role", func(t *testing.T) {
		got := renderContent("ping <@&222>", "g1", r, testAssetBaseURL)
		assert.Equal(t, `ping <span class="mention">@Moderators</span>`, got)
	})

	t.Run("channel", func(t *testing.T) {
		got := renderContent("see <#333>", "g1", r, testAssetBaseURL)
		assert.Equal(t, `see <span class="mention">#rules</span>`, got)
	})

	t.Run("unknown ids fall back", func(t *testing.T) {
		got := renderContent("<@999> <@&999> <#999>", "g1", r, testAssetBaseURL)
		assert.Contains(t, got, "@unknown-user")
		assert.Contains(t, got, "@unknown-role")
		assert.Contains(t, got, "#unknown-channel")
	})
}

func TestRenderContentCustomEmoji(t *testing.T) {
	t.Run("static", func(t *testing.T) {
		got := renderContent("<:wave:12345>", "g1", newTestResolver(), testAssetBaseURL)
		assert.Equal(t, `<img class="emoji" src="https://cdn.discordapp.com/emojis/12345.png" alt=":wave:">`, got)
	})

	t.Run("animated", func(t *testing.T) {
		got := renderContent("<a:party:67890>", "g1", newTestResolver(), testAssetBaseURL)
		assert.Contains(t, got, "/emojis/67890.png")
		assert.Contains(t, got, `alt=":party:"`)
	})
}

func TestRenderContentMentionNameIsEscaped(t *testing.T) {
	r := &stubGateway{users: map[string]string{"111": "<img>"}}
	got := renderContent("<@111>", "g1", r, testAssetBaseURL)
	assert.Equal(t, `<span class="mention">@&lt;img&gt;</span>`, got)
}
