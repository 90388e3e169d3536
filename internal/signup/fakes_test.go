package signup

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/cwrk-planet/room-signup/internal/cache"
	"github.com/cwrk-planet/room-signup/internal/domain"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

// memStore mimics the postgres repository: Join is atomic under one lock, the same way
// the row lock serializes joins per room.
type memStore struct {
	mu      sync.Mutex
	rooms   map[string]int64
	members map[string][]domain.Membership
	seq     int64

	calls     atomic.Int64
	joinErr   error
	leaveErr  error
	countErr  error
	beforeRun func(op string)
}

func newMemStore() *memStore {
	return &memStore{
		rooms:   make(map[string]int64),
		members: make(map[string][]domain.Membership),
	}
}

func (s *memStore) addRoom(id string, num int64) { s.rooms[id] = num }

func (s *memStore) seed(roomID string, users ...string) {
	for _, u := range users {
		if _, err := s.Join(context.Background(), roomID, u, domain.ExclusivityRoom); err != nil {
			panic(err)
		}
	}
	s.calls.Store(0)
}

func (s *memStore) hook(op string) {
	s.calls.Add(1)
	if s.beforeRun != nil {
		s.beforeRun(op)
	}
}

func (s *memStore) CountInRoom(_ context.Context, roomID string) (int, error) {
	s.hook("count")
	if s.countErr != nil {
		return 0, s.countErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.members[roomID]), nil
}

func (s *memStore) Exists(_ context.Context, roomID, userID string) (bool, error) {
	s.hook("exists")
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.indexOf(roomID, userID) >= 0, nil
}

func (s *memStore) FindByUser(_ context.Context, userID string) (*domain.Membership, error) {
	s.hook("find")
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.findLocked(userID, "")
}

func (s *memStore) Join(_ context.Context, roomID, userID string, policy domain.Exclusivity) (domain.Membership, error) {
	s.hook("join")
	if s.joinErr != nil {
		return domain.Membership{}, s.joinErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	num, ok := s.rooms[roomID]
	if !ok {
		return domain.Membership{}, domain.ErrRoomNotFound
	}
	if s.indexOf(roomID, userID) >= 0 {
		return domain.Membership{}, domain.ErrAlreadyJoined
	}
	if policy == domain.ExclusivityGlobal {
		if other, err := s.findLocked(userID, roomID); err == nil {
			return domain.Membership{}, &domain.ExclusivityError{RoomID: other.RoomID, RoomNumber: other.RoomNumber}
		}
	}
	if len(s.members[roomID]) >= domain.RoomCapacity {
		return domain.Membership{}, domain.ErrRoomFull
	}

	s.seq++
	m := domain.Membership{RoomID: roomID, RoomNumber: num, UserID: userID, Seq: s.seq}
	s.members[roomID] = append(s.members[roomID], m)
	m.Position = len(s.members[roomID])
	return m, nil
}

func (s *memStore) Leave(_ context.Context, roomID, userID string) (bool, error) {
	s.hook("leave")
	if s.leaveErr != nil {
		return false, s.leaveErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(roomID, userID)
	if i < 0 {
		return false, nil
	}
	rows := s.members[roomID]
	s.members[roomID] = append(rows[:i:i], rows[i+1:]...)
	return true, nil
}

func (s *memStore) roster(roomID string) []domain.Membership {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.Membership(nil), s.members[roomID]...)
}

func (s *memStore) indexOf(roomID, userID string) int {
	for i, m := range s.members[roomID] {
		if m.UserID == userID {
			return i
		}
	}
	return -1
}

func (s *memStore) findLocked(userID, except string) (*domain.Membership, error) {
	var best *domain.Membership
	for room, rows := range s.members {
		if room == except {
			continue
		}
		for _, m := range rows {
			if m.UserID == userID && (best == nil || m.Seq < best.Seq) {
				m := m
				best = &m
			}
		}
	}
	if best == nil {
		return nil, domain.ErrNotInRoom
	}
	return best, nil
}

type sentDM struct {
	userID  string
	text    string
	deleted bool
	edits   int
}

type fakePlatform struct {
	mu       sync.Mutex
	stripped []ReactionEvent
	embeds   map[string]*domain.Announcement
	dms      map[DirectMessage]*sentDM
	order    []DirectMessage
	nextID   int

	sendErr  error
	stripErr error
}

func newFakePlatform() *fakePlatform {
	return &fakePlatform{
		embeds: make(map[string]*domain.Announcement),
		dms:    make(map[DirectMessage]*sentDM),
	}
}

func (p *fakePlatform) RemoveReaction(_ context.Context, channelID, messageID, emoji, userID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stripped = append(p.stripped, ReactionEvent{ChannelID: channelID, MessageID: messageID, Emoji: emoji, UserID: userID})
	return p.stripErr
}

func (p *fakePlatform) Announcement(_ context.Context, _, messageID string) (*domain.Announcement, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	a, ok := p.embeds[messageID]
	if !ok || a == nil {
		return nil, nil
	}
	cp := *a
	return &cp, nil
}

func (p *fakePlatform) EditAnnouncement(_ context.Context, _, messageID string, a domain.Announcement) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.embeds[messageID] = &a
	return nil
}

func (p *fakePlatform) SendDirect(_ context.Context, userID, content string) (DirectMessage, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.sendErr != nil {
		return DirectMessage{}, p.sendErr
	}
	p.nextID++
	dm := DirectMessage{ChannelID: "dm-" + userID, MessageID: fmt.Sprintf("msg-%d", p.nextID)}
	p.dms[dm] = &sentDM{userID: userID, text: content}
	p.order = append(p.order, dm)
	return dm, nil
}

func (p *fakePlatform) EditDirect(_ context.Context, dm DirectMessage, content string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	s, ok := p.dms[dm]
	if !ok {
		return errors.New("unknown message")
	}
	s.text = content
	s.edits++
	return nil
}

func (p *fakePlatform) DeleteDirect(_ context.Context, dm DirectMessage) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	s, ok := p.dms[dm]
	if !ok {
		return errors.New("unknown message")
	}
	s.deleted = true
	return nil
}

// visibleDMs returns the texts a user can still see, oldest first.
func (p *fakePlatform) visibleDMs(userID string) []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []string
	for _, dm := range p.order {
		s := p.dms[dm]
		if s.userID == userID && !s.deleted {
			out = append(out, s.text)
		}
	}
	return out
}

func (p *fakePlatform) footer(messageID string) string {
	p.mu.Lock()
	defer p.mu.Unlock()
	if a := p.embeds[messageID]; a != nil {
		return a.Footer
	}
	return ""
}

type feedRecorder struct {
	mu     sync.Mutex
	counts map[string][]int
}

func (f *feedRecorder) Publish(roomID string, count int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.counts == nil {
		f.counts = make(map[string][]int)
	}
	f.counts[roomID] = append(f.counts[roomID], count)
}

const (
	guildID   = "g1"
	channelID = "c1"
	roomA     = "room-a"
	roomB     = "room-b"
	botID     = "bot"
)

type fixture struct {
	store    *memStore
	platform *fakePlatform
	feed     *feedRecorder
	tracked  *cache.Tracked
	engine   *Engine
}

func newFixture(policy domain.Exclusivity) *fixture {
	f := &fixture{
		store:    newMemStore(),
		platform: newFakePlatform(),
		feed:     &feedRecorder{},
		tracked:  cache.New(),
	}
	for i, id := range []string{roomA, roomB} {
		num := int64(i + 1)
		f.store.addRoom(id, num)
		f.tracked.Track(domain.Room{ID: id, ChannelID: channelID, GuildID: guildID, Number: num})
		f.platform.embeds[id] = &domain.Announcement{
			Title:       fmt.Sprintf("Room #%d", num),
			Description: "host is hosting a room",
			Color:       0xDB2727,
			Footer:      FooterText(0),
		}
	}
	f.tracked.SetChannel(guildID, channelID)

	f.engine = New(Deps{
		Store:         f.store,
		Tracker:       f.tracked,
		Reactions:     f.platform,
		Announcements: f.platform,
		DMs:           f.platform,
		Feed:          f.feed,
		Policy:        policy,
		Logger:        discard,
	})
	f.engine.SetSelf(botID)
	return f
}

func join(room, user string) ReactionEvent {
	return ReactionEvent{GuildID: guildID, ChannelID: channelID, MessageID: room, UserID: user, Emoji: EmojiJoin}
}

func leave(room, user string) ReactionEvent {
	return ReactionEvent{GuildID: guildID, ChannelID: channelID, MessageID: room, UserID: user, Emoji: EmojiLeave}
}

func users(prefix string, n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("%s%02d", prefix, i+1)
	}
	return out
}
