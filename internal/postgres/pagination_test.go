package postgres

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestCursorRoundTrip(t *testing.T) {
	c := Cursor{CreatedAt: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC), ID: "123"}
	s, err := EncodeCursor(c)
	require.NoError(t, err)

	got, err := DecodeCursor(s)
	require.NoError(t, err)
	require.True(t, c.CreatedAt.Equal(got.CreatedAt))
	require.Equal(t, c.ID, got.ID)

	empty, err := DecodeCursor("")
	require.NoError(t, err)
	require.Nil(t, empty)

	for _, bad := range []string{"%%%", "bm90IGpzb24", "e30"} {
		_, err := DecodeCursor(bad)
		require.ErrorIs(t, err, ErrInvalidCursor, bad)
	}
}

func TestPageSize(t *testing.T) {
	require.Equal(t, DefaultPageSize, PageSize(0))
	require.Equal(t, 7, PageSize(7))
	require.Equal(t, MaxPageSize, PageSize(1000))
}
