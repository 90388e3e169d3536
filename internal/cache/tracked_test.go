package cache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/cwrk-planet/room-signup/internal/domain"

	"github.com/stretchr/testify/require"
)

type roomsFunc func(ctx context.Context) ([]domain.Room, error)

func (f roomsFunc) All(ctx context.Context) ([]domain.Room, error) { return f(ctx) }

type guildsFunc func(ctx context.Context) ([]domain.GuildConfig, error)

func (f guildsFunc) All(ctx context.Context) ([]domain.GuildConfig, error) { return f(ctx) }

func TestBootstrap_LoadsRoomsAndGuilds(t *testing.T) {
	req := require.New(t)

	rooms := roomsFunc(func(context.Context) ([]domain.Room, error) {
		return []domain.Room{
			{ID: "B", ChannelID: "c1", GuildID: "g1", Number: 2},
			{ID: "A", ChannelID: "c1", GuildID: "g1", Number: 1},
		}, nil
	})
	guilds := guildsFunc(func(context.Context) ([]domain.GuildConfig, error) {
		return []domain.GuildConfig{{GuildID: "g1", ChannelID: "c1", HostRoleID: "r1"}}, nil
	})

	tr, err := Bootstrap(context.Background(), rooms, guilds)
	req.NoError(err)

	_, ok := tr.Room("A")
	req.True(ok)
	_, ok = tr.Room("C")
	req.False(ok)

	g, ok := tr.Guild("g1")
	req.True(ok)
	req.Equal("c1", g.ChannelID)

	snapshot := tr.Rooms()
	req.Len(snapshot, 2)
	req.Equal("A", snapshot[0].ID)
}

func TestBootstrap_FailureIsReturned(t *testing.T) {
	boom := errors.New("connection refused")
	rooms := roomsFunc(func(context.Context) ([]domain.Room, error) { return nil, boom })
	guilds := guildsFunc(func(context.Context) ([]domain.GuildConfig, error) { return nil, nil })

	tr, err := Bootstrap(context.Background(), rooms, guilds)
	require.ErrorIs(t, err, boom)
	require.Nil(t, tr)
}

func TestTracked_UntrackChannel(t *testing.T) {
	req := require.New(t)
	tr := New()
	tr.Track(domain.Room{ID: "A", ChannelID: "c1"})
	tr.Track(domain.Room{ID: "B", ChannelID: "c2"})
	tr.Track(domain.Room{ID: "C", ChannelID: "c1"})

	gone := tr.UntrackChannel("c1")

	req.Len(gone, 2)
	req.Equal(1, tr.Len())
	_, ok := tr.Room("B")
	req.True(ok)
}

func TestTracked_GuildUpdatesKeepOtherField(t *testing.T) {
	req := require.New(t)
	tr := New()

	tr.SetChannel("g1", "c1")
	tr.SetHostRole("g1", "r1")

	g, ok := tr.Guild("g1")
	req.True(ok)
	req.Equal(domain.GuildConfig{GuildID: "g1", ChannelID: "c1", HostRoleID: "r1"}, g)
}

func TestTracked_ConcurrentAccess(t *testing.T) {
	tr := New()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		id := fmt.Sprintf("m%d", i)
		go func() {
			defer wg.Done()
			tr.Track(domain.Room{ID: id, ChannelID: "c"})
		}()
		go func() {
			defer wg.Done()
			tr.Room(id)
			tr.Untrack(id)
		}()
	}
	wg.Wait()
	require.LessOrEqual(t, tr.Len(), 50)
}
