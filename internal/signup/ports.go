package signup

import (
	"context"

	"github.com/cwrk-planet/room-signup/internal/domain"
)

// RosterStore is the durable side of the engine. Join and Leave must be safe under
// concurrent callers without any help from this package.
type RosterStore interface {
	CountInRoom(ctx context.Context, roomID string) (int, error)
	Exists(ctx context.Context, roomID, userID string) (bool, error)
	// FindByUser returns domain.ErrNotInRoom when the participant holds no membership.
	FindByUser(ctx context.Context, userID string) (*domain.Membership, error)
	Join(ctx context.Context, roomID, userID string, policy domain.Exclusivity) (domain.Membership, error)
	Leave(ctx context.Context, roomID, userID string) (bool, error)
}

// Tracker answers "is this event about something we watch" without touching the store.
type Tracker interface {
	Room(messageID string) (domain.Room, bool)
	Guild(guildID string) (domain.GuildConfig, bool)
}

type Reactions interface {
	// RemoveReaction must treat an already missing reaction as success.
	RemoveReaction(ctx context.Context, channelID, messageID, emoji, userID string) error
}

type Announcements interface {
	// Announcement returns nil when the message carries no embed.
	Announcement(ctx context.Context, channelID, messageID string) (*domain.Announcement, error)
	EditAnnouncement(ctx context.Context, channelID, messageID string, a domain.Announcement) error
}

// DirectMessage identifies a private message the engine sent and may edit later.
type DirectMessage struct {
	ChannelID string
	MessageID string
}

type DirectMessenger interface {
	SendDirect(ctx context.Context, userID, content string) (DirectMessage, error)
	EditDirect(ctx context.Context, dm DirectMessage, content string) error
	DeleteDirect(ctx context.Context, dm DirectMessage) error
}

// RosterFeed receives the fresh count after every committed change. Optional.
type RosterFeed interface {
	Publish(roomID string, count int)
}
