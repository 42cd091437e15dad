package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/guild-ticket-bot/internal/domain"
)

// GuildSettingsRepository reads and writes per-guild ticket configuration.
type GuildSettingsRepository interface {
	Get(ctx context.Context, guildID string) (*domain.GuildSettings, error)
	SetLogChannel(ctx context.Context, guildID, channelID string) error
	AddOption(ctx context.Context, guildID string, option domain.TicketOption) error
	RemoveOption(ctx context.Context, guildID, value string) error
}

type guildSettingsRepository struct {
	pool *pgxpool.Pool
}

// NewGuildSettingsRepository instantiates repository.
func NewGuildSettingsRepository(pool *pgxpool.Pool) GuildSettingsRepository {
	return &guildSettingsRepository{pool: pool}
}

func (r *guildSettingsRepository) Get(ctx context.Context, guildID string) (*domain.GuildSettings, error) {
	settings := &domain.GuildSettings{GuildID: guildID}

	const settingsQuery = `SELECT log_channel_id FROM guild_settings WHERE guild_id=$1`
	err := r.pool.QueryRow(ctx, settingsQuery, guildID).Scan(&settings.LogChannelID)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}

	const optionsQuery = `
        SELECT emoji, label, category, value
        FROM ticket_options WHERE guild_id=$1 ORDER BY id`
	rows, err := r.pool.Query(ctx, optionsQuery, guildID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var option domain.TicketOption
		if err := rows.Scan(&option.Emoji, &option.Label, &option.Category, &option.Value); err != nil {
			return nil, err
		}
		settings.Options = append(settings.Options, option)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return settings, nil
}

func (r *guildSettingsRepository) SetLogChannel(ctx context.Context, guildID, channelID string) error {
	const query = `
        INSERT INTO guild_settings (guild_id, log_channel_id)
        VALUES ($1,$2)
        ON CONFLICT (guild_id) DO UPDATE SET log_channel_id=EXCLUDED.log_channel_id`
	_, err := r.pool.Exec(ctx, query, guildID, channelID)
	return err
}

func (r *guildSettingsRepository) AddOption(ctx context.Context, guildID string, option domain.TicketOption) error {
	const query = `
        INSERT INTO ticket_options (guild_id, emoji, label, category, value)
        VALUES ($1,$2,$3,$4,$5)
        ON CONFLICT (guild_id, value) DO UPDATE SET
            emoji=EXCLUDED.emoji, label=EXCLUDED.label, category=EXCLUDED.category`
	_, err := r.pool.Exec(ctx, query, guildID, option.Emoji, option.Label, option.Category, option.Value)
	return err
}

func (r *guildSettingsRepository) RemoveOption(ctx context.Context, guildID, value string) error {
	const query = `DELETE FROM ticket_options WHERE guild_id=$1 AND value=$2`
	_, err := r.pool.Exec(ctx, query, guildID, value)
	return err
}
