package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/cwrk-planet/room-signup/internal/domain"

	"github.com/samber/lo"
	"github.com/sourcegraph/conc/pool"
)

const grantConcurrency = 4

type RoomResolver interface {
	Resolve(ctx context.Context, ref string) (*domain.Room, error)
}

type MemberService struct {
	rooms    RoomResolver
	members  MemberStore
	platform Publisher
	log      *slog.Logger
}

func NewMemberService(rooms RoomResolver, members MemberStore, platform Publisher, log *slog.Logger) *MemberService {
	if log == nil {
		log = slog.Default()
	}
	return &MemberService{rooms: rooms, members: members, platform: platform, log: log.With("component", "members")}
}

// Roster возвращает участников в порядке записи, разделённых на основу и запас.
func (s *MemberService) Roster(ctx context.Context, ref string) (domain.Roster, error) {
	room, err := s.rooms.Resolve(ctx, ref)
	if err != nil {
		return domain.Roster{}, err
	}
	rows, err := s.members.ListByRoom(ctx, room.ID)
	if err != nil {
		return domain.Roster{}, fmt.Errorf("memberRepo.ListByRoom: %w", err)
	}
	return SplitRoster(*room, rows), nil
}

func SplitRoster(room domain.Room, rows []domain.Membership) domain.Roster {
	return domain.Roster{
		Room:    room,
		Primary: lo.Slice(rows, 0, domain.PrimarySlots),
		Reserve: lo.Slice(lo.Drop(rows, domain.PrimarySlots), 0, domain.ReserveSlots),
	}
}

type GrantResult struct {
	Granted []string
	// user id -> текст ошибки платформы
	Failed map[string]string
}

// GrantChannelAccess открывает channelID всем участникам комнаты.
// Ошибки по отдельным участникам попадают в результат, а не в error.
func (s *MemberService) GrantChannelAccess(ctx context.Context, ref, channelID string) (GrantResult, error) {
	roster, err := s.Roster(ctx, ref)
	if err != nil {
		return GrantResult{}, err
	}

	res := GrantResult{Failed: map[string]string{}}
	var mu sync.Mutex
	p := pool.New().WithMaxGoroutines(grantConcurrency)
	for _, m := range append(roster.Primary, roster.Reserve...) {
		m := m
		p.Go(func() {
			err := s.platform.GrantChannelAccess(ctx, channelID, m.UserID)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				s.log.Warn("grant channel access failed", "channel", channelID, "user", m.UserID, "err", err)
				res.Failed[m.UserID] = err.Error()
				return
			}
			res.Granted = append(res.Granted, m.UserID)
		})
	}
	p.Wait()

	s.log.Info("channel access granted", "room_num", roster.Room.Number, "channel", channelID,
		"granted", len(res.Granted), "failed", len(res.Failed))
	return res, nil
}
