package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/cwrk-planet/room-signup/internal/domain"

	"github.com/jackc/pgx/v5/pgxpool"
)

// MembershipRepository — таблица (комната, участник). UNIQUE (room_id, user_id)
// не даёт параллельным реакциям записать участника дважды.
type MembershipRepository struct {
	db *pgxpool.Pool
}

func NewMembershipRepository(db *pgxpool.Pool) *MembershipRepository {
	return &MembershipRepository{db: db}
}

func (r *MembershipRepository) CountInRoom(ctx context.Context, roomID string) (int, error) {
	return countInRoom(ctx, r.db, roomID)
}

func (r *MembershipRepository) Exists(ctx context.Context, roomID, userID string) (bool, error) {
	return exists(ctx, r.db, roomID, userID)
}

// FindByUser возвращает запись участника в любой комнате или domain.ErrNotInRoom.
func (r *MembershipRepository) FindByUser(ctx context.Context, userID string) (*domain.Membership, error) {
	return findByUser(ctx, r.db, userID, "")
}

// Join — защищён от гонок по вместимости.
// Строка комнаты блокируется на всю транзакцию, параллельные Join в ту же комнату ждут.
// При глобальной эксклюзивности advisory lock по участнику делает то же между комнатами.
// ON CONFLICT DO NOTHING — последний барьер от дублей.
func (r *MembershipRepository) Join(ctx context.Context, roomID, userID string, policy domain.Exclusivity) (domain.Membership, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return domain.Membership{}, err
	}
	defer tx.Rollback(ctx)

	m := domain.Membership{RoomID: roomID, UserID: userID}
	if err := tx.QueryRow(ctx, `SELECT num FROM rooms WHERE message_id=$1 FOR UPDATE`, roomID).Scan(&m.RoomNumber); err != nil {
		if isNoRows(err) {
			return domain.Membership{}, domain.ErrRoomNotFound
		}
		return domain.Membership{}, fmt.Errorf("lock room: %w", err)
	}

	if policy == domain.ExclusivityGlobal {
		if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, userID); err != nil {
			return domain.Membership{}, fmt.Errorf("lock participant: %w", err)
		}
	}

	already, err := exists(ctx, tx, roomID, userID)
	if err != nil {
		return domain.Membership{}, err
	}
	if already {
		return domain.Membership{}, domain.ErrAlreadyJoined
	}

	if policy == domain.ExclusivityGlobal {
		other, err := findByUser(ctx, tx, userID, roomID)
		switch {
		case err == nil:
			return domain.Membership{}, &domain.ExclusivityError{RoomID: other.RoomID, RoomNumber: other.RoomNumber}
		case !errors.Is(err, domain.ErrNotInRoom):
			return domain.Membership{}, err
		}
	}

	count, err := countInRoom(ctx, tx, roomID)
	if err != nil {
		return domain.Membership{}, err
	}
	if count >= domain.RoomCapacity {
		return domain.Membership{}, domain.ErrRoomFull
	}

	err = tx.QueryRow(ctx, `
		INSERT INTO memberships (room_id, user_id)
		VALUES ($1, $2)
		ON CONFLICT (room_id, user_id) DO NOTHING
		RETURNING seq, joined_at
	`, roomID, userID).Scan(&m.Seq, &m.JoinedAt)
	if err != nil {
		if isNoRows(err) {
			return domain.Membership{}, domain.ErrAlreadyJoined
		}
		return domain.Membership{}, mapPgError(err, domain.ErrAlreadyJoined)
	}

	if err := tx.QueryRow(ctx,
		`SELECT COUNT(*) FROM memberships WHERE room_id=$1 AND seq <= $2`,
		roomID, m.Seq).Scan(&m.Position); err != nil {
		return domain.Membership{}, fmt.Errorf("position: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return domain.Membership{}, err
	}
	return m, nil
}

// Leave удаляет запись. false — удалять было нечего, для вызывающих это «уже удалён».
func (r *MembershipRepository) Leave(ctx context.Context, roomID, userID string) (bool, error) {
	cmd, err := r.db.Exec(ctx, `DELETE FROM memberships WHERE room_id=$1 AND user_id=$2`, roomID, userID)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() > 0, nil
}

// ListByRoom возвращает состав в порядке записи, позиции с 1.
func (r *MembershipRepository) ListByRoom(ctx context.Context, roomID string) ([]domain.Membership, error) {
	rows, err := r.db.Query(ctx, `
		SELECT m.room_id, r.num, m.user_id, m.seq, m.joined_at
		FROM memberships AS m
		JOIN rooms AS r ON r.message_id = m.room_id
		WHERE m.room_id = $1
		ORDER BY m.seq ASC`, roomID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.Membership, 0, domain.RoomCapacity)
	for rows.Next() {
		var m domain.Membership
		if err := rows.Scan(&m.RoomID, &m.RoomNumber, &m.UserID, &m.Seq, &m.JoinedAt); err != nil {
			return nil, err
		}
		m.Position = len(out) + 1
		out = append(out, m)
	}

	return out, rows.Err()
}

func countInRoom(ctx context.Context, q querier, roomID string) (int, error) {
	var count int
	err := q.QueryRow(ctx, `SELECT COUNT(*) FROM memberships WHERE room_id=$1`, roomID).Scan(&count)
	return count, err
}

func exists(ctx context.Context, q querier, roomID, userID string) (bool, error) {
	var ok bool
	err := q.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM memberships WHERE room_id=$1 AND user_id=$2)`,
		roomID, userID).Scan(&ok)
	return ok, err
}

// findByUser ищет самую раннюю запись участника, exceptRoom пропускается.
func findByUser(ctx context.Context, q querier, userID, exceptRoom string) (*domain.Membership, error) {
	var m domain.Membership
	err := q.QueryRow(ctx, `
		SELECT m.room_id, r.num, m.user_id, m.seq, m.joined_at
		FROM memberships AS m
		JOIN rooms AS r ON r.message_id = m.room_id
		WHERE m.user_id = $1 AND m.room_id <> $2
		ORDER BY m.seq ASC
		LIMIT 1`, userID, exceptRoom).Scan(&m.RoomID, &m.RoomNumber, &m.UserID, &m.Seq, &m.JoinedAt)
	if err != nil {
		if isNoRows(err) {
			return nil, domain.ErrNotInRoom
		}
		return nil, err
	}
	return &m, nil
}
