package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/guild-ticket-bot/internal/domain"
	"github.com/spec-kit/guild-ticket-bot/internal/repository"
)

// GuildSettingsProvider exposes read access to per-guild ticket
// configuration. The lifecycle controller consumes this interface.
type GuildSettingsProvider interface {
	Settings(ctx context.Context, guildID string) (*domain.GuildSettings, error)
}

// SettingsService reads guild settings through a Redis cache. Writes go
// straight to the repository and invalidate the cached entry.
type SettingsService struct {
	repo   repository.GuildSettingsRepository
	cache  *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewSettingsService constructs the service. cache may be nil, in which
// case every read hits the repository.
func NewSettingsService(repo repository.GuildSettingsRepository, cache *redis.Client, ttl time.Duration, logger *zap.Logger) *SettingsService {
	return &SettingsService{repo: repo, cache: cache, ttl: ttl, logger: logger}
}

func settingsCacheKey(guildID string) string {
	return "ticket:settings:" + guildID
}

// Settings returns the guild's ticket configuration, cached.
func (s *SettingsService) Settings(ctx context.Context, guildID string) (*domain.GuildSettings, error) {
	if s.cache != nil {
		raw, err := s.cache.Get(ctx, settingsCacheKey(guildID)).Bytes()
		if err == nil {
			var settings domain.GuildSettings
			if err := json.Unmarshal(raw, &settings); err == nil {
				return &settings, nil
			}
			s.logger.Warn("corrupt settings cache entry", zap.String("guild_id", guildID))
		} else if !errors.Is(err, redis.Nil) {
			s.logger.Warn("settings cache read failed", zap.Error(err))
		}
	}

	settings, err := s.repo.Get(ctx, guildID)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if raw, err := json.Marshal(settings); err == nil {
			if err := s.cache.Set(ctx, settingsCacheKey(guildID), raw, s.ttl).Err(); err != nil {
				s.logger.Warn("settings cache write failed", zap.Error(err))
			}
		}
	}
	return settings, nil
}

// SetLogChannel updates the guild's ticket-log channel.
func (s *SettingsService) SetLogChannel(ctx context.Context, guildID, channelID string) error {
	if err := s.repo.SetLogChannel(ctx, guildID, channelID); err != nil {
		return err
	}
	s.invalidate(ctx, guildID)
	return nil
}

// AddOption upserts a ticket option for the guild.
func (s *SettingsService) AddOption(ctx context.Context, guildID string, option domain.TicketOption) error {
	if err := s.repo.AddOption(ctx, guildID, option); err != nil {
		return err
	}
	s.invalidate(ctx, guildID)
	return nil
}

// RemoveOption deletes a ticket option by its selection value.
func (s *SettingsService) RemoveOption(ctx context.Context, guildID, value string) error {
	if err := s.repo.RemoveOption(ctx, guildID, value); err != nil {
		return err
	}
	s.invalidate(ctx, guildID)
	return nil
}

func (s *SettingsService) invalidate(ctx context.Context, guildID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, settingsCacheKey(guildID)).Err(); err != nil {
		s.logger.Warn("settings cache invalidation failed", zap.Error(err))
	}
}
