package postgres

import (
	"context"
	"errors"

	"github.com/cwrk-planet/room-signup/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrRoomExists = errors.New("room already exists")

const roomColumns = `message_id, channel_id, guild_id, num, host_id, created_at`

type RoomRepository struct {
	db *pgxpool.Pool
}

func NewRoomRepository(db *pgxpool.Pool) *RoomRepository {
	return &RoomRepository{db: db}
}

// NextNumber резервирует номер комнаты до публикации анонса.
func (r *RoomRepository) NextNumber(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.QueryRow(ctx, `SELECT nextval('room_num_seq')`).Scan(&n)
	return n, err
}

func (r *RoomRepository) Create(ctx context.Context, room *domain.Room) error {
	query := `
		INSERT INTO rooms (message_id, channel_id, guild_id, num, host_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at`
	err := r.db.QueryRow(ctx, query, room.ID, room.ChannelID, room.GuildID, room.Number, room.HostID).
		Scan(&room.CreatedAt)
	if err != nil {
		return mapPgError(err, ErrRoomExists)
	}
	return nil
}

func (r *RoomRepository) Get(ctx context.Context, id string) (*domain.Room, error) {
	return r.getOne(ctx, `SELECT `+roomColumns+` FROM rooms WHERE message_id=$1`, id)
}

func (r *RoomRepository) GetByNumber(ctx context.Context, num int64) (*domain.Room, error) {
	return r.getOne(ctx, `SELECT `+roomColumns+` FROM rooms WHERE num=$1`, num)
}

func (r *RoomRepository) getOne(ctx context.Context, query string, arg any) (*domain.Room, error) {
	rm, err := scanRoom(r.db.QueryRow(ctx, query, arg))
	if err != nil {
		if isNoRows(err) {
			return nil, domain.ErrRoomNotFound
		}
		return nil, err
	}
	return &rm, nil
}

// All возвращает все комнаты; вызывается один раз на старте для заполнения кеша.
func (r *RoomRepository) All(ctx context.Context) ([]domain.Room, error) {
	rows, err := r.db.Query(ctx, `SELECT `+roomColumns+` FROM rooms ORDER BY num`)
	if err != nil {
		return nil, err
	}
	return collectRooms(rows)
}

// List возвращает список комнат с курсорной пагинацией (created_at, message_id DESC).
func (r *RoomRepository) List(ctx context.Context, limit int, cursorStr string) ([]domain.Room, string, error) {
	cur, err := DecodeCursor(cursorStr)
	if err != nil {
		return nil, "", err
	}

	query := `
		SELECT ` + roomColumns + `
		FROM rooms
		WHERE ($1::timestamptz IS NULL OR created_at < $1
		       OR (created_at = $1 AND message_id < $2))
		ORDER BY created_at DESC, message_id DESC
		LIMIT $3`

	var createdAt any
	var id any
	if cur != nil {
		createdAt = cur.CreatedAt
		id = cur.ID
	}

	rows, err := r.db.Query(ctx, query, createdAt, id, limit)
	if err != nil {
		return nil, "", err
	}
	rooms, err := collectRooms(rows)
	if err != nil {
		return nil, "", err
	}

	var nextCursor string
	if len(rooms) == limit {
		last := rooms[len(rooms)-1]
		nextCursor, _ = EncodeCursor(Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}

	return rooms, nextCursor, nil
}

// Delete удаляет комнату; записи уходят через ON DELETE CASCADE.
func (r *RoomRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.db.Exec(ctx, `DELETE FROM rooms WHERE message_id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrRoomNotFound
	}
	return nil
}

// DeleteByChannel удаляет все комнаты канала и возвращает их id.
func (r *RoomRepository) DeleteByChannel(ctx context.Context, channelID string) ([]string, error) {
	rows, err := r.db.Query(ctx, `DELETE FROM rooms WHERE channel_id=$1 RETURNING message_id`, channelID)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[string])
}

// DeleteAll удаляет все комнаты, нумерация начинается снова с 1.
func (r *RoomRepository) DeleteAll(ctx context.Context) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM rooms`); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `ALTER SEQUENCE room_num_seq RESTART WITH 1`); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func scanRoom(row pgx.Row) (domain.Room, error) {
	var rm domain.Room
	err := row.Scan(&rm.ID, &rm.ChannelID, &rm.GuildID, &rm.Number, &rm.HostID, &rm.CreatedAt)
	return rm, err
}

func collectRooms(rows pgx.Rows) ([]domain.Room, error) {
	defer rows.Close()

	var rooms []domain.Room
	for rows.Next() {
		rm, err := scanRoom(rows)
		if err != nil {
			return nil, err
		}
		rooms = append(rooms, rm)
	}
	return rooms, rows.Err()
}
