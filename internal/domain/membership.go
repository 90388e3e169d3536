package domain

import "time"

// Membership is a participant's accepted slot in a room.
// Seq is assigned by the store and only grows; Position is derived from it per room.
type Membership struct {
	RoomID     string    `db:"room_id"`
	RoomNumber int64     `db:"num"`
	UserID     string    `db:"user_id"`
	Seq        int64     `db:"seq"`
	Position   int       `db:"-"`
	JoinedAt   time.Time `db:"joined_at"`
}

// Roster is the ordered membership list of one room split into primary and reserve slots.
type Roster struct {
	Room    Room
	Primary []Membership
	Reserve []Membership
}

func (r Roster) Count() int { return len(r.Primary) + len(r.Reserve) }

// Exclusivity bounds how many distinct rooms a participant may belong to at once.
type Exclusivity string

const (
	// ExclusivityGlobal allows one membership across all rooms.
	ExclusivityGlobal Exclusivity = "global"
	// ExclusivityRoom only forbids joining the same room twice.
	ExclusivityRoom Exclusivity = "room"
)

func (e Exclusivity) Valid() bool {
	return e == ExclusivityGlobal || e == ExclusivityRoom
}
