package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/cwrk-planet/room-signup/internal/domain"
	"github.com/cwrk-planet/room-signup/internal/postgres"
	"github.com/cwrk-planet/room-signup/internal/signup"

	"github.com/sourcegraph/conc/iter"
)

const AnnouncementColor = 0xDB2727

type RoomService struct {
	rooms    RoomStore
	members  MemberStore
	cache    RoomCache
	platform Publisher
	log      *slog.Logger
}

func NewRoomService(rooms RoomStore, members MemberStore, cache RoomCache, platform Publisher, log *slog.Logger) *RoomService {
	if log == nil {
		log = slog.Default()
	}
	return &RoomService{
		rooms:    rooms,
		members:  members,
		cache:    cache,
		platform: platform,
		log:      log.With("component", "rooms"),
	}
}

type CreateRoomInput struct {
	GuildID string
	HostID  string
	Date    string
	Time    string
}

// RoomSummary — комната с текущим числом участников.
type RoomSummary struct {
	Room  domain.Room
	Count int
}

func (s RoomSummary) Available() int { return domain.Available(s.Count) }

// CreateRoom публикует анонс в канале гильдии и начинает отслеживать комнату.
func (s *RoomService) CreateRoom(ctx context.Context, in CreateRoomInput) (*domain.Room, error) {
	g, ok := s.cache.Guild(in.GuildID)
	if !ok || g.ChannelID == "" {
		return nil, domain.ErrGuildNotConfigured
	}

	num, err := s.rooms.NextNumber(ctx)
	if err != nil {
		return nil, fmt.Errorf("roomRepo.NextNumber: %w", err)
	}

	msgID, err := s.platform.PostAnnouncement(ctx, g.ChannelID, domain.Announcement{
		Title:       fmt.Sprintf("Room #%d", num),
		Description: fmt.Sprintf("<@%s> is hosting a room at **%s** on **%s**!", in.HostID, in.Time, in.Date),
		Color:       AnnouncementColor,
		Footer:      signup.FooterText(0),
	})
	if err != nil {
		return nil, fmt.Errorf("post announcement: %w", err)
	}
	for _, emoji := range []string{signup.EmojiJoin, signup.EmojiLeave} {
		if err := s.platform.AddReaction(ctx, g.ChannelID, msgID, emoji); err != nil {
			s.log.Warn("add reaction failed", "room", msgID, "emoji", emoji, "err", err)
		}
	}

	room := &domain.Room{
		ID:        msgID,
		ChannelID: g.ChannelID,
		GuildID:   in.GuildID,
		Number:    num,
		HostID:    in.HostID,
	}
	if err := s.rooms.Create(ctx, room); err != nil {
		if derr := s.platform.DeleteAnnouncement(context.WithoutCancel(ctx), g.ChannelID, msgID); derr != nil {
			s.log.Warn("orphaned announcement left in channel", "room", msgID, "err", derr)
		}
		return nil, fmt.Errorf("roomRepo.Create: %w", err)
	}
	s.cache.Track(*room)

	s.log.Info("room created", "room", room.ID, "room_num", room.Number, "host", room.HostID)
	return room, nil
}

// Resolve ищет комнату по номеру, id сообщения или ссылке на него.
func (s *RoomService) Resolve(ctx context.Context, ref string) (*domain.Room, error) {
	r, err := ParseRoomRef(ref)
	if err != nil {
		return nil, err
	}
	if r.MessageID != "" {
		if room, ok := s.cache.Room(r.MessageID); ok {
			return &room, nil
		}
		return s.rooms.Get(ctx, r.MessageID)
	}
	return s.rooms.GetByNumber(ctx, r.Number)
}

// ListRooms возвращает список комнат с курсорной пагинацией и счётчиками.
func (s *RoomService) ListRooms(ctx context.Context, limit int, cursor string) ([]RoomSummary, string, error) {
	rooms, next, err := s.rooms.List(ctx, postgres.PageSize(limit), cursor)
	if err != nil {
		return nil, "", err
	}

	out, err := iter.MapErr(rooms, func(r *domain.Room) (RoomSummary, error) {
		n, err := s.members.CountInRoom(ctx, r.ID)
		if err != nil {
			return RoomSummary{}, fmt.Errorf("count room %d: %w", r.Number, err)
		}
		return RoomSummary{Room: *r, Count: n}, nil
	})
	if err != nil {
		return nil, "", err
	}
	return out, next, nil
}

// DeleteRoom снимает комнату с отслеживания, потом удаляет вместе с записями.
func (s *RoomService) DeleteRoom(ctx context.Context, ref string) (*domain.Room, error) {
	room, err := s.Resolve(ctx, ref)
	if err != nil {
		return nil, err
	}

	s.cache.Untrack(room.ID)
	if err := s.rooms.Delete(ctx, room.ID); err != nil && !errors.Is(err, domain.ErrRoomNotFound) {
		return nil, fmt.Errorf("roomRepo.Delete: %w", err)
	}

	s.log.Info("room deleted", "room", room.ID, "room_num", room.Number)
	return room, nil
}

// DeleteAllRooms empties the cache and the store and restarts room numbering.
func (s *RoomService) DeleteAllRooms(ctx context.Context) error {
	s.cache.Clear()
	if err := s.rooms.DeleteAll(ctx); err != nil {
		return fmt.Errorf("roomRepo.DeleteAll: %w", err)
	}
	s.log.Info("all rooms deleted")
	return nil
}

// ChannelDeleted удаляет комнаты канала, которого больше нет.
func (s *RoomService) ChannelDeleted(ctx context.Context, channelID string) (int, error) {
	untracked := s.cache.UntrackChannel(channelID)
	ids, err := s.rooms.DeleteByChannel(ctx, channelID)
	if err != nil {
		return 0, fmt.Errorf("roomRepo.DeleteByChannel: %w", err)
	}
	if len(ids) > 0 || len(untracked) > 0 {
		s.log.Info("rooms removed with channel", "channel", channelID, "rooms", len(ids))
	}
	return len(ids), nil
}
