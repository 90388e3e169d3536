package service

import (
	"context"
	"fmt"

	"github.com/cwrk-planet/room-signup/internal/domain"
)

type GuildService struct {
	store GuildStore
	cache RoomCache
}

func NewGuildService(store GuildStore, cache RoomCache) *GuildService {
	return &GuildService{store: store, cache: cache}
}

func (s *GuildService) Config(guildID string) (domain.GuildConfig, error) {
	g, ok := s.cache.Guild(guildID)
	if !ok {
		return domain.GuildConfig{}, domain.ErrGuildNotConfigured
	}
	return g, nil
}

// SetWatchedChannel обновляет кеш раньше стора, фильтр видит канал сразу.
func (s *GuildService) SetWatchedChannel(ctx context.Context, guildID, channelID string) (domain.GuildConfig, error) {
	s.cache.SetChannel(guildID, channelID)
	if err := s.store.SetChannel(ctx, guildID, channelID); err != nil {
		return domain.GuildConfig{}, fmt.Errorf("guildRepo.SetChannel: %w", err)
	}
	return s.Config(guildID)
}

func (s *GuildService) SetHostRole(ctx context.Context, guildID, roleID string) (domain.GuildConfig, error) {
	s.cache.SetHostRole(guildID, roleID)
	if err := s.store.SetHostRole(ctx, guildID, roleID); err != nil {
		return domain.GuildConfig{}, fmt.Errorf("guildRepo.SetHostRole: %w", err)
	}
	return s.Config(guildID)
}
