package cache

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/cwrk-planet/room-signup/internal/domain"
)

type RoomLister interface {
	All(ctx context.Context) ([]domain.Room, error)
}

type GuildLister interface {
	All(ctx context.Context) ([]domain.GuildConfig, error)
}

// Bootstrap fills a fresh cache from the store. It must finish before the gateway
// starts delivering events; any error is meant to abort startup.
func Bootstrap(ctx context.Context, rooms RoomLister, guilds GuildLister) (*Tracked, error) {
	rs, err := rooms.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("load rooms: %w", err)
	}
	gs, err := guilds.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("load guild configs: %w", err)
	}

	t := New()
	t.Load(rs, gs)
	slog.Info("tracked-room cache loaded", "rooms", len(rs), "guilds", len(gs))
	return t, nil
}
