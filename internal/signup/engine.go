// Package signup turns reaction events on room announcements into roster changes.
//
// Events for different rooms are handled concurrently by the caller. Nothing here
// serializes a read-then-write sequence: the store's transactional join and its
// unique (room, participant) constraint are the only concurrency barrier, and every
// race the validator misses surfaces as a policy outcome from the mutator.
package signup

import (
	"context"
	"log/slog"

	"github.com/cwrk-planet/room-signup/internal/domain"
	"github.com/cwrk-planet/room-signup/pkg/logger"

	"github.com/google/uuid"
	"github.com/sourcegraph/conc"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/cwrk-planet/room-signup/internal/signup"

type Deps struct {
	Store         RosterStore
	Tracker       Tracker
	Reactions     Reactions
	Announcements Announcements
	DMs           DirectMessenger
	Feed          RosterFeed
	Policy        domain.Exclusivity
	Logger        *slog.Logger
}

type Engine struct {
	filter       *Filter
	validator    *Validator
	mutator      *Mutator
	notifier     *Notifier
	presentation *Presentation
	reactions    Reactions

	log    *slog.Logger
	tracer trace.Tracer
}

// Result is what Handle did with one event.
type Result struct {
	Skip    Skip
	Intent  Intent
	Outcome Outcome
}

func New(d Deps) *Engine {
	log := d.Logger
	if log == nil {
		log = slog.Default()
	}
	log = log.With("component", "signup")
	policy := d.Policy
	if !policy.Valid() {
		policy = domain.ExclusivityGlobal
	}

	return &Engine{
		filter:       NewFilter(d.Tracker),
		validator:    NewValidator(d.Store, policy),
		mutator:      NewMutator(d.Store, policy),
		notifier:     NewNotifier(d.DMs, log),
		presentation: NewPresentation(d.Store, d.Announcements, d.Feed, log),
		reactions:    d.Reactions,
		log:          log,
		tracer:       otel.Tracer(tracerName),
	}
}

// SetSelf tells the filter which user id belongs to the engine itself.
func (e *Engine) SetSelf(userID string) { e.filter.SetSelf(userID) }

func (e *Engine) Policy() domain.Exclusivity { return e.validator.Policy() }

func (e *Engine) Handle(ctx context.Context, ev ReactionEvent) Result {
	intent, room, skip := e.filter.Accept(ev)
	if skip != SkipNone {
		return Result{Skip: skip}
	}

	ctx, span := e.tracer.Start(ctx, "signup.reaction", trace.WithAttributes(
		attribute.String("room.id", room.ID),
		attribute.Int64("room.number", room.Number),
		attribute.String("user.id", ev.UserID),
		attribute.String("intent", intent.String()),
	))
	defer span.End()

	log := logger.With(ctx, e.log).With(
		"event_id", uuid.NewString(),
		"room", room.ID,
		"room_num", room.Number,
		"user", ev.UserID,
		"intent", intent.String(),
	)

	if err := strip(ctx, e.reactions, ev); err != nil {
		log.Warn("strip reaction failed", "err", err)
	}

	var (
		d   Decision
		err error
	)
	if intent == IntentJoin {
		d, err = e.validator.CheckJoin(ctx, room.ID, ev.UserID)
	} else {
		d, err = e.validator.CheckLeave(ctx, room.ID, ev.UserID)
	}
	if err != nil {
		o := Outcome{Kind: OutcomeFailed, Err: err}
		e.fail(span, log, "validate signup failed", err)
		e.notifier.Finish(ctx, ev.UserID, Ack{}, o)
		return Result{Intent: intent, Outcome: o}
	}

	if d.Verdict != VerdictAdmit && d.Verdict != VerdictAdmitRemoval {
		o := outcomeOf(d)
		log.Debug("signup rejected", "verdict", d.Verdict.String())
		e.notifier.Finish(ctx, ev.UserID, Ack{}, o)
		return Result{Intent: intent, Outcome: o}
	}

	ack := e.notifier.Provisional(ctx, ev.UserID)

	var o Outcome
	if intent == IntentJoin {
		o = e.mutator.Add(ctx, room.ID, ev.UserID)
	} else {
		o = e.mutator.Remove(ctx, room.ID, ev.UserID)
	}
	span.SetAttributes(attribute.String("outcome", o.Kind.String()))

	switch {
	case o.Kind == OutcomeFailed:
		e.fail(span, log, "roster mutation failed", o.Err)
	case o.Committed():
		log.Info("roster updated", "outcome", o.Kind.String(), "position", o.Slot.Position)
	default:
		log.Debug("mutation raced", "outcome", o.Kind.String())
	}

	if !o.Committed() {
		e.notifier.Finish(ctx, ev.UserID, ack, o)
		return Result{Intent: intent, Outcome: o}
	}

	// acknowledgement and public counter are independent and unordered
	var wg conc.WaitGroup
	wg.Go(func() { e.notifier.Finish(ctx, ev.UserID, ack, o) })
	wg.Go(func() { e.presentation.Sync(ctx, room) })
	if r := wg.WaitAndRecover(); r != nil {
		log.Error("signup side effect panicked", "panic", r.String())
	}

	return Result{Intent: intent, Outcome: o}
}

func (e *Engine) fail(span trace.Span, log *slog.Logger, msg string, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, msg)
	log.Error(msg, "err", err)
}
