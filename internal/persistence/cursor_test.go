package persistence

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"example.com/worklog/internal/domain"
)

func TestCursorRoundTrip(t *testing.T) {
	in := &domain.Cursor{
		SavedAt: time.Date(2026, 3, 2, 14, 30, 0, 123456789, time.UTC),
		ID:      "entry-1",
	}

	token := EncodeCursor(in)
	require.NotEmpty(t, token)

	out, err := DecodeCursor(token)
	require.NoError(t, err)
	require.True(t, in.SavedAt.Equal(out.SavedAt))
	require.Equal(t, in.ID, out.ID)
}

func TestDecodeCursorEmptyToken(t *testing.T) {
	out, err := DecodeCursor("   ")
	require.NoError(t, err)
	require.Nil(t, out)
}

func TestDecodeCursorGarbage(t *testing.T) {
	_, err := DecodeCursor("not-base64!!")
	require.Error(t, err)
}
