package signup

const (
	EmojiJoin  = "✅"
	EmojiLeave = "❌"
)

// ReactionEvent is a gateway reaction notification stripped down to what the engine needs.
type ReactionEvent struct {
	GuildID   string
	ChannelID string
	MessageID string
	UserID    string
	Emoji     string
	// Removed marks reaction-removed notifications. The engine strips every reaction
	// it accepts, so removals are echoes of its own cleanup and are never acted on.
	Removed bool
}

type Intent int

const (
	IntentNone Intent = iota
	IntentJoin
	IntentLeave
)

func (i Intent) String() string {
	switch i {
	case IntentJoin:
		return "join"
	case IntentLeave:
		return "leave"
	default:
		return "none"
	}
}

func intentOf(emoji string) Intent {
	switch emoji {
	case EmojiJoin:
		return IntentJoin
	case EmojiLeave:
		return IntentLeave
	default:
		return IntentNone
	}
}
