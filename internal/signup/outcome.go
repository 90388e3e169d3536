package signup

import "github.com/cwrk-planet/room-signup/internal/domain"

type OutcomeKind int

const (
	OutcomeRegistered OutcomeKind = iota
	OutcomeReserved
	OutcomeDuplicate
	OutcomeExclusive
	OutcomeFull
	OutcomeDeregistered
	OutcomeNotMember
	// OutcomeGone covers a room deleted or a membership removed by a concurrent event
	// between validation and write. Nothing changed and there is nothing to tell.
	OutcomeGone
	OutcomeFailed
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeRegistered:
		return "registered"
	case OutcomeReserved:
		return "reserved"
	case OutcomeDuplicate:
		return "duplicate"
	case OutcomeExclusive:
		return "exclusive"
	case OutcomeFull:
		return "full"
	case OutcomeDeregistered:
		return "deregistered"
	case OutcomeNotMember:
		return "not_member"
	case OutcomeGone:
		return "gone"
	default:
		return "failed"
	}
}

type Outcome struct {
	Kind OutcomeKind
	Slot domain.Slot
	// OtherRoom is the number of the room the participant already holds under global exclusivity.
	OtherRoom int64
	Err       error
}

// Committed reports whether the roster actually changed.
func (o Outcome) Committed() bool {
	switch o.Kind {
	case OutcomeRegistered, OutcomeReserved, OutcomeDeregistered:
		return true
	default:
		return false
	}
}

func outcomeOf(d Decision) Outcome {
	switch d.Verdict {
	case VerdictDuplicate:
		return Outcome{Kind: OutcomeDuplicate}
	case VerdictExclusive:
		o := Outcome{Kind: OutcomeExclusive}
		if d.Other != nil {
			o.OtherRoom = d.Other.RoomNumber
		}
		return o
	case VerdictFull:
		return Outcome{Kind: OutcomeFull}
	case VerdictNotMember:
		return Outcome{Kind: OutcomeNotMember}
	default:
		return Outcome{Kind: OutcomeFailed}
	}
}
