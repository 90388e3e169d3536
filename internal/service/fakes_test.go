package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"sync"

	"github.com/cwrk-planet/room-signup/internal/domain"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

type memRooms struct {
	mu      sync.Mutex
	seq     int64
	rooms   map[string]domain.Room
	members map[string][]domain.Membership

	createErr error
}

func newMemRooms() *memRooms {
	return &memRooms{rooms: map[string]domain.Room{}, members: map[string][]domain.Membership{}}
}

func (m *memRooms) NextNumber(context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	return m.seq, nil
}

func (m *memRooms) Create(_ context.Context, room *domain.Room) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rooms[room.ID] = *room
	return nil
}

func (m *memRooms) Get(_ context.Context, id string) (*domain.Room, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rooms[id]
	if !ok {
		return nil, domain.ErrRoomNotFound
	}
	return &r, nil
}

func (m *memRooms) GetByNumber(_ context.Context, num int64) (*domain.Room, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.rooms {
		if r.Number == num {
			return &r, nil
		}
	}
	return nil, domain.ErrRoomNotFound
}

func (m *memRooms) List(_ context.Context, limit int, _ string) ([]domain.Room, string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.Room, 0, len(m.rooms))
	for _, r := range m.rooms {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Number > out[j].Number })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, "", nil
}

func (m *memRooms) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rooms[id]; !ok {
		return domain.ErrRoomNotFound
	}
	delete(m.rooms, id)
	delete(m.members, id)
	return nil
}

func (m *memRooms) DeleteByChannel(_ context.Context, channelID string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var ids []string
	for id, r := range m.rooms {
		if r.ChannelID == channelID {
			ids = append(ids, id)
			delete(m.rooms, id)
			delete(m.members, id)
		}
	}
	return ids, nil
}

func (m *memRooms) DeleteAll(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rooms = map[string]domain.Room{}
	m.members = map[string][]domain.Membership{}
	m.seq = 0
	return nil
}

func (m *memRooms) CountInRoom(_ context.Context, roomID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.members[roomID]), nil
}

func (m *memRooms) ListByRoom(_ context.Context, roomID string) ([]domain.Membership, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rows := append([]domain.Membership(nil), m.members[roomID]...)
	for i := range rows {
		rows[i].Position = i + 1
	}
	return rows, nil
}

func (m *memRooms) addMembers(roomID string, n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := 0; i < n; i++ {
		m.members[roomID] = append(m.members[roomID], domain.Membership{
			RoomID: roomID, UserID: fmt.Sprintf("u%02d", i+1), Seq: int64(i + 1),
		})
	}
}

type memGuilds struct {
	channels map[string]string
	roles    map[string]string
	err      error
}

func (g *memGuilds) SetChannel(_ context.Context, guildID, channelID string) error {
	if g.err != nil {
		return g.err
	}
	g.channels[guildID] = channelID
	return nil
}

func (g *memGuilds) SetHostRole(_ context.Context, guildID, roleID string) error {
	if g.err != nil {
		return g.err
	}
	g.roles[guildID] = roleID
	return nil
}

type fakePublisher struct {
	mu        sync.Mutex
	posted    []domain.Announcement
	reactions []string
	granted   []string
	denied    map[string]bool
	postErr   error
	deleted   []string
	deleteErr error
}

func (p *fakePublisher) DeleteAnnouncement(_ context.Context, _, messageID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.deleted = append(p.deleted, messageID)
	return p.deleteErr
}

func (p *fakePublisher) PostAnnouncement(_ context.Context, _ string, a domain.Announcement) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.postErr != nil {
		return "", p.postErr
	}
	p.posted = append(p.posted, a)
	return fmt.Sprintf("11111111111111111%02d", len(p.posted)), nil
}

func (p *fakePublisher) AddReaction(_ context.Context, _, _, emoji string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.reactions = append(p.reactions, emoji)
	return nil
}

func (p *fakePublisher) GrantChannelAccess(_ context.Context, _, userID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.denied[userID] {
		return errors.New("missing access")
	}
	p.granted = append(p.granted, userID)
	return nil
}
