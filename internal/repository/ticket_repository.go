package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/guild-ticket-bot/internal/domain"
)

// TicketRepository encapsulates ticket persistence.
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket) error
	ListOpenByGuildUser(ctx context.Context, guildID, userID string) ([]domain.Ticket, error)
	GetOpenByChannel(ctx context.Context, channelID string) (*domain.Ticket, error)
	GetLatestByGuildUser(ctx context.Context, guildID, userID string) (*domain.Ticket, error)
	Close(ctx context.Context, ticketID int64, closedAt time.Time, reason string) error
	CountOpenByGuild(ctx context.Context) (map[string]int64, error)
}

type ticketRepository struct {
	pool *pgxpool.Pool
}

// NewTicketRepository instantiates repository.
func NewTicketRepository(pool *pgxpool.Pool) TicketRepository {
	return &ticketRepository{pool: pool}
}

const ticketColumns = `id, guild_id, user_id, channel_id, ticket_type, status, created_at, closed_at, close_reason`

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        INSERT INTO tickets (guild_id, user_id, channel_id, ticket_type, status)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query,
		ticket.GuildID,
		ticket.UserID,
		ticket.ChannelID,
		ticket.Type,
		ticket.Status,
	).Scan(&ticket.ID, &ticket.CreatedAt)
}

func (r *ticketRepository) ListOpenByGuildUser(ctx context.Context, guildID, userID string) ([]domain.Ticket, error) {
	const query = `
        SELECT ` + ticketColumns + `
        FROM tickets WHERE guild_id=$1 AND user_id=$2 AND status=$3
        ORDER BY created_at DESC`
	rows, err := r.pool.Query(ctx, query, guildID, userID, domain.TicketStatusOpen)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTickets(rows)
}

func (r *ticketRepository) GetOpenByChannel(ctx context.Context, channelID string) (*domain.Ticket, error) {
	const query = `
        SELECT ` + ticketColumns + `
        FROM tickets WHERE channel_id=$1 AND status=$2`
	return r.fetchSingle(ctx, query, channelID, domain.TicketStatusOpen)
}

func (r *ticketRepository) GetLatestByGuildUser(ctx context.Context, guildID, userID string) (*domain.Ticket, error) {
	const query = `
        SELECT ` + ticketColumns + `
        FROM tickets WHERE guild_id=$1 AND user_id=$2
        ORDER BY created_at DESC LIMIT 1`
	return r.fetchSingle(ctx, query, guildID, userID)
}

func (r *ticketRepository) Close(ctx context.Context, ticketID int64, closedAt time.Time, reason string) error {
	const query = `
        UPDATE tickets SET status=$1, closed_at=$2, close_reason=$3
        WHERE id=$4 AND status=$5`
	cmd, err := r.pool.Exec(ctx, query,
		domain.TicketStatusClosed,
		closedAt,
		reason,
		ticketID,
		domain.TicketStatusOpen,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *ticketRepository) CountOpenByGuild(ctx context.Context) (map[string]int64, error) {
	const query = `
        SELECT guild_id, COUNT(*) FROM tickets WHERE status=$1 GROUP BY guild_id`
	rows, err := r.pool.Query(ctx, query, domain.TicketStatusOpen)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int64)
	for rows.Next() {
		var guildID string
		var count int64
		if err := rows.Scan(&guildID, &count); err != nil {
			return nil, err
		}
		counts[guildID] = count
	}
	return counts, rows.Err()
}

func (r *ticketRepository) fetchSingle(ctx context.Context, query string, args ...any) (*domain.Ticket, error) {
	var ticket domain.Ticket
	err := r.pool.QueryRow(ctx, query, args...).Scan(
		&ticket.ID,
		&ticket.GuildID,
		&ticket.UserID,
		&ticket.ChannelID,
		&ticket.Type,
		&ticket.Status,
		&ticket.CreatedAt,
		&ticket.ClosedAt,
		&ticket.CloseReason,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &ticket, nil
}

func scanTickets(rows pgx.Rows) ([]domain.Ticket, error) {
	var result []domain.Ticket
	for rows.Next() {
		var ticket domain.Ticket
		if err := rows.Scan(
			&ticket.ID,
			&ticket.GuildID,
			&ticket.UserID,
			&ticket.ChannelID,
			&ticket.Type,
			&ticket.Status,
			&ticket.CreatedAt,
			&ticket.ClosedAt,
			&ticket.CloseReason,
		); err != nil {
			return nil, err
		}
		result = append(result, ticket)
	}
	return result, rows.Err()
}
