package postgres

import (
	"context"

	"github.com/cwrk-planet/room-signup/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type GuildRepository struct {
	db *pgxpool.Pool
}

func NewGuildRepository(db *pgxpool.Pool) *GuildRepository {
	return &GuildRepository{db: db}
}

func (r *GuildRepository) All(ctx context.Context) ([]domain.GuildConfig, error) {
	rows, err := r.db.Query(ctx, `SELECT guild_id, channel_id, host_role_id FROM guild_configs`)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowToStructByPos[domain.GuildConfig])
}

func (r *GuildRepository) SetChannel(ctx context.Context, guildID, channelID string) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO guild_configs (guild_id, channel_id) VALUES ($1, $2)
		ON CONFLICT (guild_id) DO UPDATE SET channel_id = EXCLUDED.channel_id, updated_at = now()`,
		guildID, channelID)
	return err
}

func (r *GuildRepository) SetHostRole(ctx context.Context, guildID, roleID string) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO guild_configs (guild_id, host_role_id) VALUES ($1, $2)
		ON CONFLICT (guild_id) DO UPDATE SET host_role_id = EXCLUDED.host_role_id, updated_at = now()`,
		guildID, roleID)
	return err
}
