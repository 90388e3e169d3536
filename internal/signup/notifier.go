package signup

import (
	"context"
	"log/slog"
)

// Ack is the provisional private message sent before a mutation. The zero value means
// nothing was sent.
type Ack struct {
	DM   DirectMessage
	Sent bool
}

// Notifier tells the acting participant what happened. It is strictly best effort:
// a roster change stands whether or not the participant ever hears about it.
type Notifier struct {
	dms DirectMessenger
	log *slog.Logger
}

func NewNotifier(dms DirectMessenger, log *slog.Logger) *Notifier {
	return &Notifier{dms: dms, log: log}
}

func (n *Notifier) Provisional(ctx context.Context, userID string) Ack {
	dm, err := n.dms.SendDirect(ctx, userID, MsgProcessing)
	if err != nil {
		n.log.Warn("send provisional ack failed", "user", userID, "err", err)
		return Ack{}
	}
	return Ack{DM: dm, Sent: true}
}

// Finish turns the provisional ack into the final message, or sends a fresh one when no
// ack exists. Outcomes without text delete the ack.
func (n *Notifier) Finish(ctx context.Context, userID string, ack Ack, o Outcome) {
	text, ok := Text(o)

	switch {
	case ack.Sent && ok:
		if err := n.dms.EditDirect(ctx, ack.DM, text); err != nil {
			n.log.Warn("edit ack failed", "user", userID, "outcome", o.Kind.String(), "err", err)
		}
	case ack.Sent:
		if err := n.dms.DeleteDirect(ctx, ack.DM); err != nil {
			n.log.Warn("delete ack failed", "user", userID, "err", err)
		}
	case ok:
		if _, err := n.dms.SendDirect(ctx, userID, text); err != nil {
			n.log.Warn("send dm failed", "user", userID, "outcome", o.Kind.String(), "err", err)
		}
	}
}
