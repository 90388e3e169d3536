package signup

import (
	"context"
	"log/slog"

	"github.com/cwrk-planet/room-signup/internal/domain"
)

// Presentation keeps the public announcement in line with the roster.
type Presentation struct {
	store RosterStore
	ann   Announcements
	feed  RosterFeed
	log   *slog.Logger
}

func NewPresentation(store RosterStore, ann Announcements, feed RosterFeed, log *slog.Logger) *Presentation {
	return &Presentation{store: store, ann: ann, feed: feed, log: log}
}

// Sync rewrites the footer from a fresh count. Title, description and color are kept.
// The roster feed hears about the change only after the footer edit was attempted.
func (p *Presentation) Sync(ctx context.Context, room domain.Room) {
	count, err := p.store.CountInRoom(ctx, room.ID)
	if err != nil {
		p.log.Warn("count for footer failed", "room", room.ID, "err", err)
		return
	}

	p.rewriteFooter(ctx, room, count)

	if p.feed != nil {
		p.feed.Publish(room.ID, count)
	}
}

func (p *Presentation) rewriteFooter(ctx context.Context, room domain.Room, count int) {
	a, err := p.ann.Announcement(ctx, room.ChannelID, room.ID)
	if err != nil {
		p.log.Warn("fetch announcement failed", "room", room.ID, "err", err)
		return
	}
	if a == nil {
		p.log.Warn("announcement has no embed", "room", room.ID)
		return
	}

	a.Footer = FooterText(count)
	if err := p.ann.EditAnnouncement(ctx, room.ChannelID, room.ID, *a); err != nil {
		p.log.Warn("edit announcement failed", "room", room.ID, "err", err)
	}
}
