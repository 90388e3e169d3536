package service

import (
	"context"

	"github.com/cwrk-planet/room-signup/internal/domain"
)

type RoomStore interface {
	NextNumber(ctx context.Context) (int64, error)
	Create(ctx context.Context, room *domain.Room) error
	Get(ctx context.Context, id string) (*domain.Room, error)
	GetByNumber(ctx context.Context, num int64) (*domain.Room, error)
	List(ctx context.Context, limit int, cursor string) ([]domain.Room, string, error)
	Delete(ctx context.Context, id string) error
	DeleteByChannel(ctx context.Context, channelID string) ([]string, error)
	DeleteAll(ctx context.Context) error
}

type MemberStore interface {
	CountInRoom(ctx context.Context, roomID string) (int, error)
	ListByRoom(ctx context.Context, roomID string) ([]domain.Membership, error)
}

type GuildStore interface {
	SetChannel(ctx context.Context, guildID, channelID string) error
	SetHostRole(ctx context.Context, guildID, roleID string) error
}

// RoomCache — сторона записи кеша отслеживаемых комнат.
type RoomCache interface {
	Room(messageID string) (domain.Room, bool)
	Guild(guildID string) (domain.GuildConfig, bool)
	Track(room domain.Room)
	Untrack(messageID string) bool
	UntrackChannel(channelID string) []domain.Room
	Clear()
	SetChannel(guildID, channelID string)
	SetHostRole(guildID, roleID string)
}

// Publisher — чат-платформа глазами админских сценариев.
type Publisher interface {
	PostAnnouncement(ctx context.Context, channelID string, a domain.Announcement) (messageID string, err error)
	AddReaction(ctx context.Context, channelID, messageID, emoji string) error
	DeleteAnnouncement(ctx context.Context, channelID, messageID string) error
	GrantChannelAccess(ctx context.Context, channelID, userID string) error
}
