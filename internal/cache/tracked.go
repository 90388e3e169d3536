// Package cache keeps the in-process view of which rooms and guild settings the
// reaction filter should care about. It is a read accelerator only: capacity and
// membership decisions always go to the store.
package cache

import (
	"sort"
	"sync"

	"github.com/cwrk-planet/room-signup/internal/domain"

	"github.com/samber/lo"
)

type Tracked struct {
	mu     sync.RWMutex
	rooms  map[string]domain.Room // announcement message id -> room
	guilds map[string]domain.GuildConfig
}

func New() *Tracked {
	return &Tracked{
		rooms:  make(map[string]domain.Room),
		guilds: make(map[string]domain.GuildConfig),
	}
}

// Load replaces the whole content; used by Bootstrap.
func (t *Tracked) Load(rooms []domain.Room, guilds []domain.GuildConfig) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.rooms = lo.SliceToMap(rooms, func(r domain.Room) (string, domain.Room) { return r.ID, r })
	t.guilds = lo.SliceToMap(guilds, func(g domain.GuildConfig) (string, domain.GuildConfig) { return g.GuildID, g })
}

func (t *Tracked) Room(messageID string) (domain.Room, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	r, ok := t.rooms[messageID]
	return r, ok
}

func (t *Tracked) Guild(guildID string) (domain.GuildConfig, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	g, ok := t.guilds[guildID]
	return g, ok
}

// Rooms returns a snapshot ordered by room number.
func (t *Tracked) Rooms() []domain.Room {
	t.mu.RLock()
	rooms := lo.Values(t.rooms)
	t.mu.RUnlock()

	sort.Slice(rooms, func(i, j int) bool { return rooms[i].Number < rooms[j].Number })
	return rooms
}

func (t *Tracked) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.rooms)
}

// Track must only be called after the room row is committed.
func (t *Tracked) Track(room domain.Room) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.rooms[room.ID] = room
}

// Untrack must be called before the room row is deleted.
func (t *Tracked) Untrack(messageID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	_, ok := t.rooms[messageID]
	delete(t.rooms, messageID)
	return ok
}

// UntrackChannel drops every room announced in channelID and returns them.
func (t *Tracked) UntrackChannel(channelID string) []domain.Room {
	t.mu.Lock()
	defer t.mu.Unlock()

	gone := lo.Filter(lo.Values(t.rooms), func(r domain.Room, _ int) bool { return r.ChannelID == channelID })
	for _, r := range gone {
		delete(t.rooms, r.ID)
	}
	return gone
}

func (t *Tracked) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.rooms = make(map[string]domain.Room)
}

func (t *Tracked) SetChannel(guildID, channelID string) {
	t.updateGuild(guildID, func(g *domain.GuildConfig) { g.ChannelID = channelID })
}

func (t *Tracked) SetHostRole(guildID, roleID string) {
	t.updateGuild(guildID, func(g *domain.GuildConfig) { g.HostRoleID = roleID })
}

func (t *Tracked) updateGuild(guildID string, fn func(*domain.GuildConfig)) {
	t.mu.Lock()
	defer t.mu.Unlock()

	g, ok := t.guilds[guildID]
	if !ok {
		g = domain.GuildConfig{GuildID: guildID}
	}
	fn(&g)
	t.guilds[guildID] = g
}
