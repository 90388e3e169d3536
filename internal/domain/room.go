package domain

import "time"

const (
	RoomCapacity = 15
	PrimarySlots = 9
	ReserveSlots = RoomCapacity - PrimarySlots
)

// Room is a signup unit anchored to one announcement message. ID is the announcement message id.
type Room struct {
	ID        string    `db:"message_id"`
	ChannelID string    `db:"channel_id"`
	GuildID   string    `db:"guild_id"`
	Number    int64     `db:"num"`
	HostID    string    `db:"host_id"`
	CreatedAt time.Time `db:"created_at"`
}

// Slot describes where an admission position lands in a room.
type Slot struct {
	Position int
	Reserve  bool
	// Rank is the 1-based reserve rank; zero for primary slots.
	Rank int
}

func SlotFor(position int) Slot {
	if position <= PrimarySlots {
		return Slot{Position: position}
	}
	return Slot{Position: position, Reserve: true, Rank: position - PrimarySlots}
}

func Available(count int) int {
	if count >= RoomCapacity {
		return 0
	}
	return RoomCapacity - count
}
