package ws

const (
	TypeState         = "state"          // снапшот состава при подключении
	TypeRosterChanged = "roster_changed" // после каждой закоммиченной записи или выхода
)

type Message struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

type StatePayload struct {
	RoomID    string       `json:"room_id"`
	Number    int64        `json:"room_number"`
	Count     int          `json:"count"`
	Available int          `json:"available"`
	Primary   []MemberItem `json:"primary"`
	Reserve   []MemberItem `json:"reserve"`
}

type MemberItem struct {
	UserID   string `json:"user_id"`
	Position int    `json:"position"`
	JoinedAt int64  `json:"joined_at_unix"`
}

type RosterChangedPayload struct {
	RoomID    string `json:"room_id"`
	Count     int    `json:"count"`
	Available int    `json:"available"`
}
