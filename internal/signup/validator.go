package signup

import (
	"context"
	"errors"
	"fmt"

	"github.com/cwrk-planet/room-signup/internal/domain"
)

type Verdict int

const (
	VerdictAdmit Verdict = iota
	VerdictDuplicate
	VerdictExclusive
	VerdictFull
	VerdictNotMember
	VerdictAdmitRemoval
)

func (v Verdict) String() string {
	switch v {
	case VerdictAdmit:
		return "admit"
	case VerdictDuplicate:
		return "duplicate"
	case VerdictExclusive:
		return "exclusive"
	case VerdictFull:
		return "full"
	case VerdictNotMember:
		return "not_member"
	case VerdictAdmitRemoval:
		return "admit_removal"
	default:
		return fmt.Sprintf("verdict(%d)", int(v))
	}
}

type Decision struct {
	Verdict Verdict
	// Other is the room already held by the participant when Verdict is VerdictExclusive.
	Other *domain.Membership
}

// Validator runs the cheap read-only checks before a mutation. Its answers can go stale
// before the write lands; the store re-checks inside the write.
type Validator struct {
	store  RosterStore
	policy domain.Exclusivity
}

func NewValidator(store RosterStore, policy domain.Exclusivity) *Validator {
	return &Validator{store: store, policy: policy}
}

func (v *Validator) Policy() domain.Exclusivity { return v.policy }

func (v *Validator) CheckJoin(ctx context.Context, roomID, userID string) (Decision, error) {
	member, err := v.store.Exists(ctx, roomID, userID)
	if err != nil {
		return Decision{}, fmt.Errorf("exists: %w", err)
	}
	if member {
		return Decision{Verdict: VerdictDuplicate}, nil
	}

	if v.policy == domain.ExclusivityGlobal {
		other, err := v.store.FindByUser(ctx, userID)
		switch {
		case err == nil && other.RoomID != roomID:
			return Decision{Verdict: VerdictExclusive, Other: other}, nil
		case err != nil && !errors.Is(err, domain.ErrNotInRoom):
			return Decision{}, fmt.Errorf("find membership: %w", err)
		}
	}

	count, err := v.store.CountInRoom(ctx, roomID)
	if err != nil {
		return Decision{}, fmt.Errorf("count: %w", err)
	}
	if count >= domain.RoomCapacity {
		return Decision{Verdict: VerdictFull}, nil
	}

	return Decision{Verdict: VerdictAdmit}, nil
}

func (v *Validator) CheckLeave(ctx context.Context, roomID, userID string) (Decision, error) {
	member, err := v.store.Exists(ctx, roomID, userID)
	if err != nil {
		return Decision{}, fmt.Errorf("exists: %w", err)
	}
	if !member {
		return Decision{Verdict: VerdictNotMember}, nil
	}
	return Decision{Verdict: VerdictAdmitRemoval}, nil
}
