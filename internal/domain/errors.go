package domain

import (
	"errors"
	"fmt"
)

var (
	ErrRoomNotFound       = errors.New("room not found")
	ErrRoomFull           = errors.New("room is full")
	ErrAlreadyJoined      = errors.New("user already joined the room")
	ErrNotInRoom          = errors.New("user not in the room")
	ErrGuildNotConfigured = errors.New("guild has no signup channel configured")
	ErrInvalidRoomRef     = errors.New("invalid room reference")
)

// ExclusivityError reports that the participant already holds a membership in another room.
type ExclusivityError struct {
	RoomID     string
	RoomNumber int64
}

func (e *ExclusivityError) Error() string {
	return fmt.Sprintf("user already registered for room #%d", e.RoomNumber)
}
