package signup

import (
	"context"
	"errors"

	"github.com/cwrk-planet/room-signup/internal/domain"
)

// Mutator performs the write. Races the validator could not see come back from the
// store as policy outcomes, never as failures.
type Mutator struct {
	store  RosterStore
	policy domain.Exclusivity
}

func NewMutator(store RosterStore, policy domain.Exclusivity) *Mutator {
	return &Mutator{store: store, policy: policy}
}

func (m *Mutator) Add(ctx context.Context, roomID, userID string) Outcome {
	mem, err := m.store.Join(ctx, roomID, userID, m.policy)
	if err != nil {
		var excl *domain.ExclusivityError
		switch {
		case errors.Is(err, domain.ErrAlreadyJoined):
			return Outcome{Kind: OutcomeDuplicate}
		case errors.As(err, &excl):
			return Outcome{Kind: OutcomeExclusive, OtherRoom: excl.RoomNumber}
		case errors.Is(err, domain.ErrRoomFull):
			return Outcome{Kind: OutcomeFull}
		case errors.Is(err, domain.ErrRoomNotFound):
			return Outcome{Kind: OutcomeGone}
		default:
			return Outcome{Kind: OutcomeFailed, Err: err}
		}
	}

	slot := domain.SlotFor(mem.Position)
	if slot.Reserve {
		return Outcome{Kind: OutcomeReserved, Slot: slot}
	}
	return Outcome{Kind: OutcomeRegistered, Slot: slot}
}

func (m *Mutator) Remove(ctx context.Context, roomID, userID string) Outcome {
	removed, err := m.store.Leave(ctx, roomID, userID)
	if err != nil {
		return Outcome{Kind: OutcomeFailed, Err: err}
	}
	if !removed {
		return Outcome{Kind: OutcomeGone}
	}
	return Outcome{Kind: OutcomeDeregistered}
}
