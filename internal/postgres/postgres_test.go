package postgres

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"sync"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"

	"github.com/cwrk-planet/room-signup/internal/domain"
	"github.com/cwrk-planet/room-signup/internal/pg"
)

// testPool stays nil when -short is set or no container runtime is reachable.
var testPool *pgxpool.Pool

func TestMain(m *testing.M) {
	flag.Parse()
	if testing.Short() {
		os.Exit(m.Run())
	}

	ctx := context.Background()
	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("signup"),
		tcpostgres.WithUsername("signup"),
		tcpostgres.WithPassword("password"),
		tcpostgres.BasicWaitStrategies(),
	)
	if err != nil {
		log.Printf("postgres container unavailable, integration tests skipped: %v", err)
		os.Exit(m.Run())
	}

	code := func() int {
		defer func() {
			if err := container.Terminate(ctx); err != nil {
				log.Printf("failed to terminate container: %s", err)
			}
		}()

		dsn, err := container.ConnectionString(ctx, "sslmode=disable")
		if err != nil {
			log.Printf("failed to get connection string: %v", err)
			return 1
		}
		testPool, err = pg.NewPool(ctx, pg.Config{DSN: dsn, MaxConns: 40, ApplicationName: "test"})
		if err != nil {
			log.Printf("failed to open pool: %v", err)
			return 1
		}
		defer testPool.Close()

		if err := Migrate(ctx, testPool); err != nil {
			log.Printf("failed to migrate: %v", err)
			return 1
		}
		return m.Run()
	}()
	os.Exit(code)
}

func freshDB(t *testing.T) *pgxpool.Pool {
	t.Helper()
	if testPool == nil {
		t.Skip("postgres not available")
	}
	_, err := testPool.Exec(context.Background(), `
		TRUNCATE rooms, memberships, guild_configs RESTART IDENTITY CASCADE;
		ALTER SEQUENCE room_num_seq RESTART WITH 1;`)
	require.NoError(t, err)
	return testPool
}

func seedRoom(t *testing.T, repo *RoomRepository, id, channel string) domain.Room {
	t.Helper()
	ctx := context.Background()
	num, err := repo.NextNumber(ctx)
	require.NoError(t, err)
	r := &domain.Room{ID: id, ChannelID: channel, GuildID: "g1", Number: num, HostID: "h1"}
	require.NoError(t, repo.Create(ctx, r))
	return *r
}

func TestMigrateIsIdempotent(t *testing.T) {
	db := freshDB(t)
	require.NoError(t, Migrate(context.Background(), db))
}

func TestRoomRepository(t *testing.T) {
	db := freshDB(t)
	ctx := context.Background()
	repo := NewRoomRepository(db)

	a := seedRoom(t, repo, "m1", "c1")
	b := seedRoom(t, repo, "m2", "c2")
	require.Equal(t, int64(1), a.Number)
	require.Equal(t, int64(2), b.Number)
	require.False(t, a.CreatedAt.IsZero())

	err := repo.Create(ctx, &domain.Room{ID: "m1", ChannelID: "c1", GuildID: "g1", Number: 99})
	require.ErrorIs(t, err, ErrRoomExists)

	got, err := repo.GetByNumber(ctx, 2)
	require.NoError(t, err)
	require.Equal(t, "m2", got.ID)

	_, err = repo.Get(ctx, "nope")
	require.ErrorIs(t, err, domain.ErrRoomNotFound)

	all, err := repo.All(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)

	ids, err := repo.DeleteByChannel(ctx, "c1")
	require.NoError(t, err)
	require.Equal(t, []string{"m1"}, ids)

	require.NoError(t, repo.Delete(ctx, "m2"))
	require.ErrorIs(t, repo.Delete(ctx, "m2"), domain.ErrRoomNotFound)
}

func TestRoomListPagination(t *testing.T) {
	db := freshDB(t)
	ctx := context.Background()
	repo := NewRoomRepository(db)
	for i := 1; i <= 5; i++ {
		seedRoom(t, repo, fmt.Sprintf("m%d", i), "c1")
	}

	seen := map[string]bool{}
	cursor := ""
	for pages := 0; pages < 5; pages++ {
		rooms, next, err := repo.List(ctx, 2, cursor)
		require.NoError(t, err)
		for _, r := range rooms {
			require.False(t, seen[r.ID], "room listed twice")
			seen[r.ID] = true
		}
		if next == "" {
			break
		}
		cursor = next
	}
	require.Len(t, seen, 5)

	_, _, err := repo.List(ctx, 2, "not-a-cursor")
	require.ErrorIs(t, err, ErrInvalidCursor)
}

func TestDeleteAllRestartsNumbering(t *testing.T) {
	db := freshDB(t)
	ctx := context.Background()
	rooms := NewRoomRepository(db)
	members := NewMembershipRepository(db)
	seedRoom(t, rooms, "m1", "c1")
	seedRoom(t, rooms, "m2", "c1")
	_, err := members.Join(ctx, "m1", "u1", domain.ExclusivityGlobal)
	require.NoError(t, err)

	require.NoError(t, rooms.DeleteAll(ctx))
	n, err := members.CountInRoom(ctx, "m1")
	require.NoError(t, err)
	require.Zero(t, n)

	num, err := rooms.NextNumber(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(1), num)
}

func TestMembershipJoin(t *testing.T) {
	db := freshDB(t)
	ctx := context.Background()
	rooms := NewRoomRepository(db)
	repo := NewMembershipRepository(db)
	seedRoom(t, rooms, "m1", "c1")
	seedRoom(t, rooms, "m2", "c1")

	var last int64
	for i := 1; i <= domain.RoomCapacity; i++ {
		m, err := repo.Join(ctx, "m1", fmt.Sprintf("u%02d", i), domain.ExclusivityGlobal)
		require.NoError(t, err)
		require.Equal(t, i, m.Position)
		require.Greater(t, m.Seq, last)
		last = m.Seq
	}

	_, err := repo.Join(ctx, "m1", "u01", domain.ExclusivityGlobal)
	require.ErrorIs(t, err, domain.ErrAlreadyJoined)

	_, err = repo.Join(ctx, "m1", "late", domain.ExclusivityGlobal)
	require.ErrorIs(t, err, domain.ErrRoomFull)

	_, err = repo.Join(ctx, "m2", "u01", domain.ExclusivityGlobal)
	var excl *domain.ExclusivityError
	require.ErrorAs(t, err, &excl)
	require.Equal(t, int64(1), excl.RoomNumber)

	m, err := repo.Join(ctx, "m2", "u01", domain.ExclusivityRoom)
	require.NoError(t, err)
	require.Equal(t, 1, m.Position)

	_, err = repo.Join(ctx, "gone", "u99", domain.ExclusivityGlobal)
	require.ErrorIs(t, err, domain.ErrRoomNotFound)

	found, err := repo.FindByUser(ctx, "u01")
	require.NoError(t, err)
	require.Equal(t, "m1", found.RoomID)
	_, err = repo.FindByUser(ctx, "stranger")
	require.ErrorIs(t, err, domain.ErrNotInRoom)
}

func TestMembershipLeaveAndPositions(t *testing.T) {
	db := freshDB(t)
	ctx := context.Background()
	rooms := NewRoomRepository(db)
	repo := NewMembershipRepository(db)
	seedRoom(t, rooms, "m1", "c1")
	for _, u := range []string{"a", "b", "c"} {
		_, err := repo.Join(ctx, "m1", u, domain.ExclusivityGlobal)
		require.NoError(t, err)
	}

	removed, err := repo.Leave(ctx, "m1", "b")
	require.NoError(t, err)
	require.True(t, removed)
	removed, err = repo.Leave(ctx, "m1", "b")
	require.NoError(t, err)
	require.False(t, removed)

	list, err := repo.ListByRoom(ctx, "m1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.Equal(t, "c", list[1].UserID)
	require.Equal(t, 2, list[1].Position)

	m, err := repo.Join(ctx, "m1", "d", domain.ExclusivityGlobal)
	require.NoError(t, err)
	require.Equal(t, 3, m.Position)
}

func TestMembershipConcurrentJoins(t *testing.T) {
	db := freshDB(t)
	ctx := context.Background()
	rooms := NewRoomRepository(db)
	repo := NewMembershipRepository(db)
	seedRoom(t, rooms, "m1", "c1")
	seedRoom(t, rooms, "m2", "c1")

	var wg sync.WaitGroup
	for i := 0; i < 30; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = repo.Join(ctx, "m1", fmt.Sprintf("u%02d", i), domain.ExclusivityGlobal)
		}()
	}
	for i := 0; i < 10; i++ {
		room := "m1"
		if i%2 == 0 {
			room = "m2"
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = repo.Join(ctx, room, "same-user", domain.ExclusivityGlobal)
		}()
	}
	wg.Wait()

	n, err := repo.CountInRoom(ctx, "m1")
	require.NoError(t, err)
	require.LessOrEqual(t, n, domain.RoomCapacity)

	var held int
	require.NoError(t, db.QueryRow(ctx, `SELECT COUNT(*) FROM memberships WHERE user_id='same-user'`).Scan(&held))
	require.LessOrEqual(t, held, 1)
}

func TestGuildRepository(t *testing.T) {
	db := freshDB(t)
	ctx := context.Background()
	repo := NewGuildRepository(db)

	require.NoError(t, repo.SetChannel(ctx, "g1", "c1"))
	require.NoError(t, repo.SetHostRole(ctx, "g1", "r1"))
	require.NoError(t, repo.SetChannel(ctx, "g1", "c2"))
	require.NoError(t, repo.SetHostRole(ctx, "g2", "r2"))

	all, err := repo.All(ctx)
	require.NoError(t, err)
	require.ElementsMatch(t, []domain.GuildConfig{
		{GuildID: "g1", ChannelID: "c2", HostRoleID: "r1"},
		{GuildID: "g2", HostRoleID: "r2"},
	}, all)
}
