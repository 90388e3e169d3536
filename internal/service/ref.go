package service

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/cwrk-planet/room-signup/internal/domain"
)

// snowflake не короче 17 цифр; всё короче — номер комнаты
const minSnowflakeLen = 17

// RoomRef is a parsed room reference: either a room number or an announcement message id.
type RoomRef struct {
	Number    int64
	MessageID string
}

// ParseRoomRef accepts "12", "#12", a message id, or a message link
// (https://discord.com/channels/<guild>/<channel>/<message>).
func ParseRoomRef(s string) (RoomRef, error) {
	s = strings.TrimSpace(s)
	if i := strings.LastIndex(s, "/"); i >= 0 && strings.Contains(s, "/channels/") {
		s = s[i+1:]
	}
	s = strings.TrimPrefix(s, "#")

	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n <= 0 {
		return RoomRef{}, fmt.Errorf("%w: %q", domain.ErrInvalidRoomRef, s)
	}
	if len(s) >= minSnowflakeLen {
		return RoomRef{MessageID: s}, nil
	}
	return RoomRef{Number: n}, nil
}
