package http

import (
	"time"

	"github.com/cwrk-planet/room-signup/internal/domain"
	"github.com/cwrk-planet/room-signup/internal/service"

	"github.com/samber/lo"
)

type GuildConfigRequest struct {
	ChannelID  *string `json:"channel_id" validate:"required_without=HostRoleID,omitempty,numeric"`
	HostRoleID *string `json:"host_role_id" validate:"omitempty,numeric"`
}

type GuildConfigItem struct {
	GuildID    string `json:"guild_id"`
	ChannelID  string `json:"channel_id"`
	HostRoleID string `json:"host_role_id"`
}

type CreateRoomRequest struct {
	GuildID string `json:"guild_id" validate:"required,numeric"`
	HostID  string `json:"host_id" validate:"required,numeric"`
	Date    string `json:"date" validate:"required,max=64"`
	Time    string `json:"time" validate:"required,max=64"`
}

type GrantRequest struct {
	ChannelID string `json:"channel_id" validate:"required,numeric"`
}

type RoomItem struct {
	ID        string    `json:"id"`
	Number    int64     `json:"number"`
	GuildID   string    `json:"guild_id"`
	ChannelID string    `json:"channel_id"`
	HostID    string    `json:"host_id"`
	Count     int       `json:"count"`
	Available int       `json:"available"`
	CreatedAt time.Time `json:"created_at"`
}

type RoomsListResponse struct {
	Items      []RoomItem `json:"items"`
	NextCursor string     `json:"next_cursor,omitempty"`
}

type MemberItem struct {
	UserID   string    `json:"user_id"`
	Position int       `json:"position"`
	JoinedAt time.Time `json:"joined_at"`
}

type RosterResponse struct {
	Room    RoomItem     `json:"room"`
	Primary []MemberItem `json:"primary"`
	Reserve []MemberItem `json:"reserve"`
}

type GrantResponse struct {
	Granted []string          `json:"granted"`
	Failed  map[string]string `json:"failed,omitempty"`
}

func guildItem(g domain.GuildConfig) GuildConfigItem {
	return GuildConfigItem{GuildID: g.GuildID, ChannelID: g.ChannelID, HostRoleID: g.HostRoleID}
}

func roomItem(r domain.Room, count int) RoomItem {
	return RoomItem{
		ID:        r.ID,
		Number:    r.Number,
		GuildID:   r.GuildID,
		ChannelID: r.ChannelID,
		HostID:    r.HostID,
		Count:     count,
		Available: domain.Available(count),
		CreatedAt: r.CreatedAt,
	}
}

func summaryItem(s service.RoomSummary, _ int) RoomItem { return roomItem(s.Room, s.Count) }

func memberItem(m domain.Membership, _ int) MemberItem {
	return MemberItem{UserID: m.UserID, Position: m.Position, JoinedAt: m.JoinedAt}
}

func rosterResponse(r domain.Roster) RosterResponse {
	return RosterResponse{
		Room:    roomItem(r.Room, r.Count()),
		Primary: lo.Map(r.Primary, memberItem),
		Reserve: lo.Map(r.Reserve, memberItem),
	}
}
