package domain

// GuildConfig is the per-guild association of watched channel and host role.
// Empty strings mean "not set".
type GuildConfig struct {
	GuildID    string `db:"guild_id"`
	ChannelID  string `db:"channel_id"`
	HostRoleID string `db:"host_role_id"`
}

// Announcement is the embed content of a room's announcement message.
type Announcement struct {
	Title       string
	Description string
	Color       int
	Footer      string
}
