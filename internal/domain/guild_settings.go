package domain

// TicketOption is one guild-configured ticket type a requester can pick.
// The lifecycle controller treats options as read-only input.
type TicketOption struct {
	Emoji    string
	Label    string
	Category string
	Value    string
}

// GuildSettings holds the per-guild ticket configuration.
type GuildSettings struct {
	GuildID      string
	LogChannelID string
	Options      []TicketOption
}

// OptionByValue resolves a requester's selection against the configured
// options. Returns nil when no option matches.
func (s *GuildSettings) OptionByValue(value string) *TicketOption {
	for i := range s.Options {
		if s.Options[i].Value == value {
			return &s.Options[i]
		}
	}
	return nil
}
