package signup

import (
	"fmt"

	"github.com/cwrk-planet/room-signup/internal/domain"
)

const (
	MsgProcessing   = "Processing your request..."
	MsgRegistered   = "You registered for the room."
	MsgDuplicate    = "You are already registered for this room."
	MsgFull         = "This room is full."
	MsgDeregistered = "You have deregistered from the room."
	MsgFailed       = "Something went wrong while updating your signup. Please let a server moderator know."
)

func msgReserved(rank int) string {
	return fmt.Sprintf("You registered as a reserve. Your position is %d/%d.", rank, domain.ReserveSlots)
}

func msgExclusive(room int64) string {
	return fmt.Sprintf("You can only register for one room. You are currently registered for room #%d.", room)
}

// Text renders the user-facing acknowledgement. ok is false when the outcome
// deserves no message at all.
func Text(o Outcome) (text string, ok bool) {
	switch o.Kind {
	case OutcomeRegistered:
		return MsgRegistered, true
	case OutcomeReserved:
		return msgReserved(o.Slot.Rank), true
	case OutcomeDuplicate:
		return MsgDuplicate, true
	case OutcomeExclusive:
		return msgExclusive(o.OtherRoom), true
	case OutcomeFull:
		return MsgFull, true
	case OutcomeDeregistered:
		return MsgDeregistered, true
	case OutcomeFailed:
		return MsgFailed, true
	default:
		return "", false
	}
}

func FooterText(count int) string {
	return fmt.Sprintf("%d/%d spots available", domain.Available(count), domain.RoomCapacity)
}
