package discord

import (
	"github.com/bwmarrin/discordgo"

	"github.com/cwrk-planet/room-signup/internal/domain"
)

func toEmbed(a domain.Announcement) *discordgo.MessageEmbed {
	e := &discordgo.MessageEmbed{
		Title:       a.Title,
		Description: a.Description,
		Color:       a.Color,
	}
	if a.Footer != "" {
		e.Footer = &discordgo.MessageEmbedFooter{Text: a.Footer}
	}
	return e
}

// announcementOf reads the first embed of m; nil when the message has none.
func announcementOf(m *discordgo.Message) *domain.Announcement {
	if m == nil || len(m.Embeds) == 0 || m.Embeds[0] == nil {
		return nil
	}
	e := m.Embeds[0]
	a := &domain.Announcement{Title: e.Title, Description: e.Description, Color: e.Color}
	if e.Footer != nil {
		a.Footer = e.Footer.Text
	}
	return a
}
