package discord

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/bwmarrin/discordgo"

	"github.com/cwrk-planet/room-signup/internal/domain"
	"github.com/cwrk-planet/room-signup/internal/signup"
)

const grantedPermissions = discordgo.PermissionViewChannel |
	discordgo.PermissionSendMessages |
	discordgo.PermissionReadMessageHistory

// Client implements the platform ports of the engine and the admin services over REST.
type Client struct {
	s *discordgo.Session

	dmMu       sync.Mutex
	dmChannels map[string]string // user id -> private channel id
}

func NewClient(s *discordgo.Session) *Client {
	return &Client{s: s, dmChannels: make(map[string]string)}
}

func (c *Client) RemoveReaction(ctx context.Context, channelID, messageID, emoji, userID string) error {
	err := c.s.MessageReactionRemove(channelID, messageID, emoji, userID, discordgo.WithContext(ctx))
	if isGone(err) {
		return nil
	}
	return err
}

func (c *Client) AddReaction(ctx context.Context, channelID, messageID, emoji string) error {
	return c.s.MessageReactionAdd(channelID, messageID, emoji, discordgo.WithContext(ctx))
}

// Announcement prefers the state cache and falls back to a REST fetch.
func (c *Client) Announcement(ctx context.Context, channelID, messageID string) (*domain.Announcement, error) {
	if c.s.State != nil {
		if m, err := c.s.State.Message(channelID, messageID); err == nil {
			return announcementOf(m), nil
		}
	}
	m, err := c.s.ChannelMessage(channelID, messageID, discordgo.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("fetch message %s: %w", messageID, err)
	}
	return announcementOf(m), nil
}

func (c *Client) EditAnnouncement(ctx context.Context, channelID, messageID string, a domain.Announcement) error {
	_, err := c.s.ChannelMessageEditEmbed(channelID, messageID, toEmbed(a), discordgo.WithContext(ctx))
	return err
}

func (c *Client) PostAnnouncement(ctx context.Context, channelID string, a domain.Announcement) (string, error) {
	m, err := c.s.ChannelMessageSendEmbed(channelID, toEmbed(a), discordgo.WithContext(ctx))
	if err != nil {
		return "", err
	}
	return m.ID, nil
}

func (c *Client) DeleteAnnouncement(ctx context.Context, channelID, messageID string) error {
	err := c.s.ChannelMessageDelete(channelID, messageID, discordgo.WithContext(ctx))
	if isGone(err) {
		return nil
	}
	return err
}

func (c *Client) SendDirect(ctx context.Context, userID, content string) (signup.DirectMessage, error) {
	ch, err := c.dmChannel(ctx, userID)
	if err != nil {
		return signup.DirectMessage{}, err
	}
	m, err := c.s.ChannelMessageSend(ch, content, discordgo.WithContext(ctx))
	if err != nil {
		return signup.DirectMessage{}, err
	}
	return signup.DirectMessage{ChannelID: ch, MessageID: m.ID}, nil
}

func (c *Client) EditDirect(ctx context.Context, dm signup.DirectMessage, content string) error {
	_, err := c.s.ChannelMessageEdit(dm.ChannelID, dm.MessageID, content, discordgo.WithContext(ctx))
	return err
}

func (c *Client) DeleteDirect(ctx context.Context, dm signup.DirectMessage) error {
	err := c.s.ChannelMessageDelete(dm.ChannelID, dm.MessageID, discordgo.WithContext(ctx))
	if isGone(err) {
		return nil
	}
	return err
}

func (c *Client) GrantChannelAccess(ctx context.Context, channelID, userID string) error {
	return c.s.ChannelPermissionSet(channelID, userID, discordgo.PermissionOverwriteTypeMember,
		grantedPermissions, 0, discordgo.WithContext(ctx))
}

func (c *Client) dmChannel(ctx context.Context, userID string) (string, error) {
	c.dmMu.Lock()
	id, ok := c.dmChannels[userID]
	c.dmMu.Unlock()
	if ok {
		return id, nil
	}

	ch, err := c.s.UserChannelCreate(userID, discordgo.WithContext(ctx))
	if err != nil {
		return "", fmt.Errorf("open dm channel: %w", err)
	}

	c.dmMu.Lock()
	c.dmChannels[userID] = ch.ID
	c.dmMu.Unlock()
	return ch.ID, nil
}

// isGone reports a 404 or an "unknown ..." API error; the target is already absent.
func isGone(err error) bool {
	var rerr *discordgo.RESTError
	if !errors.As(err, &rerr) {
		return false
	}
	if rerr.Response != nil && rerr.Response.StatusCode == http.StatusNotFound {
		return true
	}
	if rerr.Message != nil {
		switch rerr.Message.Code {
		case discordgo.ErrCodeUnknownMessage, discordgo.ErrCodeUnknownEmoji:
			return true
		}
	}
	return false
}
