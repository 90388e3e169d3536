package discord

import (
	"context"
	"log/slog"
	"runtime/debug"
	"sync"

	"github.com/bwmarrin/discordgo"

	"github.com/cwrk-planet/room-signup/internal/signup"
)

type EventHandler interface {
	Handle(ctx context.Context, ev signup.ReactionEvent) signup.Result
	SetSelf(userID string)
}

type ChannelCleaner interface {
	ChannelDeleted(ctx context.Context, channelID string) (int, error)
}

// Gateway turns gateway dispatches into engine and service calls. discordgo runs
// every handler in its own goroutine, so events for different rooms proceed in parallel.
// A handler that has started runs to completion: neither shutdown nor a deadline cancels it.
type Gateway struct {
	engine EventHandler
	rooms  ChannelCleaner
	log    *slog.Logger
	base   context.Context
	ready  func()

	mu       sync.Mutex
	inflight int
	idle     chan struct{} // closed when inflight drops to zero
}

type GatewayOption func(*Gateway)

// WithReady registers a callback run on every READY dispatch.
func WithReady(fn func()) GatewayOption { return func(g *Gateway) { g.ready = fn } }

// NewGateway keeps the values of base (trace and logger attributes) but never its cancellation.
func NewGateway(base context.Context, engine EventHandler, rooms ChannelCleaner, log *slog.Logger, opts ...GatewayOption) *Gateway {
	if log == nil {
		log = slog.Default()
	}
	g := &Gateway{
		engine: engine,
		rooms:  rooms,
		log:    log.With("component", "gateway"),
		base:   context.WithoutCancel(base),
	}
	for _, o := range opts {
		o(g)
	}
	return g
}

// Register attaches the handlers; call before Session.Open.
func (g *Gateway) Register(s *discordgo.Session) {
	s.AddHandler(g.onReady)
	s.AddHandler(g.onReactionAdd)
	s.AddHandler(g.onReactionRemove)
	s.AddHandler(g.onChannelDelete)
}

func (g *Gateway) onReady(_ *discordgo.Session, r *discordgo.Ready) {
	if r.User != nil {
		g.engine.SetSelf(r.User.ID)
	}
	g.log.Info("gateway ready", "guilds", len(r.Guilds), "session", r.SessionID)
	if g.ready != nil {
		g.ready()
	}
}

func (g *Gateway) onReactionAdd(_ *discordgo.Session, r *discordgo.MessageReactionAdd) {
	g.reaction(r.MessageReaction, false)
}

func (g *Gateway) onReactionRemove(_ *discordgo.Session, r *discordgo.MessageReactionRemove) {
	g.reaction(r.MessageReaction, true)
}

func (g *Gateway) reaction(mr *discordgo.MessageReaction, removed bool) {
	if mr == nil {
		return
	}
	g.begin()
	defer g.end()
	defer g.recover("reaction", mr.MessageID)

	g.engine.Handle(g.base, reactionEvent(mr, removed))
}

func (g *Gateway) onChannelDelete(_ *discordgo.Session, c *discordgo.ChannelDelete) {
	if c.Channel == nil {
		return
	}
	g.begin()
	defer g.end()
	defer g.recover("channel_delete", c.ID)

	if _, err := g.rooms.ChannelDeleted(g.base, c.ID); err != nil {
		g.log.Error("cleanup after channel delete failed", "channel", c.ID, "err", err)
	}
}

// Drain waits for handlers already running. Close the session first so no new
// dispatch arrives. ctx only bounds how long the caller waits.
func (g *Gateway) Drain(ctx context.Context) error {
	g.mu.Lock()
	if g.inflight == 0 {
		g.mu.Unlock()
		return nil
	}
	if g.idle == nil {
		g.idle = make(chan struct{})
	}
	idle := g.idle
	g.mu.Unlock()

	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (g *Gateway) begin() {
	g.mu.Lock()
	g.inflight++
	g.mu.Unlock()
}

func (g *Gateway) end() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.inflight--
	if g.inflight == 0 && g.idle != nil {
		close(g.idle)
		g.idle = nil
	}
}

func (g *Gateway) recover(event, target string) {
	if r := recover(); r != nil {
		g.log.Error("gateway handler panic",
			"event", event,
			"target", target,
			"panic", r,
			"stack", string(debug.Stack()),
		)
	}
}

func reactionEvent(mr *discordgo.MessageReaction, removed bool) signup.ReactionEvent {
	return signup.ReactionEvent{
		GuildID:   mr.GuildID,
		ChannelID: mr.ChannelID,
		MessageID: mr.MessageID,
		UserID:    mr.UserID,
		Emoji:     mr.Emoji.APIName(),
		Removed:   removed,
	}
}
