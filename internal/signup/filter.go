package signup

import (
	"context"
	"sync/atomic"

	"github.com/cwrk-planet/room-signup/internal/domain"
)

// Skip says why an event was dropped; SkipNone means it was accepted.
type Skip string

const (
	SkipNone        Skip = ""
	SkipDirect      Skip = "no_guild"
	SkipSelf        Skip = "own_action"
	SkipRemoval     Skip = "removal_echo"
	SkipUntracked   Skip = "untracked_room"
	SkipWrongChan   Skip = "channel_mismatch"
	SkipUnknownMoji Skip = "unrecognized_emoji"
)

// Filter decides from in-memory state alone whether an event deserves any work.
type Filter struct {
	tracker Tracker
	self    atomic.Value // string
}

func NewFilter(tracker Tracker) *Filter {
	f := &Filter{tracker: tracker}
	f.self.Store("")
	return f
}

// SetSelf records the engine's own user id once the gateway session is ready.
func (f *Filter) SetSelf(userID string) { f.self.Store(userID) }

func (f *Filter) Self() string { return f.self.Load().(string) }

func (f *Filter) Accept(ev ReactionEvent) (Intent, domain.Room, Skip) {
	if ev.GuildID == "" {
		return IntentNone, domain.Room{}, SkipDirect
	}
	if self := f.Self(); self != "" && ev.UserID == self {
		return IntentNone, domain.Room{}, SkipSelf
	}
	if ev.Removed {
		return IntentNone, domain.Room{}, SkipRemoval
	}

	room, ok := f.tracker.Room(ev.MessageID)
	if !ok {
		return IntentNone, domain.Room{}, SkipUntracked
	}
	g, ok := f.tracker.Guild(ev.GuildID)
	if !ok || g.ChannelID != ev.ChannelID || room.ChannelID != ev.ChannelID {
		return IntentNone, domain.Room{}, SkipWrongChan
	}

	intent := intentOf(ev.Emoji)
	if intent == IntentNone {
		return IntentNone, domain.Room{}, SkipUnknownMoji
	}
	return intent, room, SkipNone
}

// strip removes the reaction that triggered an accepted event so other users never see
// a pending vote on the announcement.
func strip(ctx context.Context, r Reactions, ev ReactionEvent) error {
	return r.RemoveReaction(ctx, ev.ChannelID, ev.MessageID, ev.Emoji, ev.UserID)
}
