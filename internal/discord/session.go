// Package discord adapts a discordgo session to the signup engine and the
// room administration services.
package discord

import (
	"fmt"

	"github.com/bwmarrin/discordgo"
)

type SessionConfig struct {
	Token string
	// StateMessages bounds how many messages per channel the state cache keeps.
	StateMessages int
}

// NewSession prepares a gateway session without connecting it. Handlers must be
// registered before Open.
func NewSession(cfg SessionConfig) (*discordgo.Session, error) {
	if cfg.Token == "" {
		return nil, fmt.Errorf("discord: empty bot token")
	}
	s, err := discordgo.New("Bot " + cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("discordgo.New: %w", err)
	}

	s.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessageReactions |
		discordgo.IntentsDirectMessages
	s.StateEnabled = true
	s.State.MaxMessageCount = cfg.StateMessages
	return s, nil
}
