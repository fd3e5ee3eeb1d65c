package domain

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanonicalize(t *testing.T) {
	cases := map[string]RoomID{
		"abcd12":                                   "ABCD12",
		"  ABCD12 ":                                "ABCD12",
		"/room/abcd12":                             "ABCD12",
		"https://connectify.app/room/abcd12/":      "ABCD12",
		"https://connectify.app/room/abcd12?x=1#t": "ABCD12",
	}
	for in, want := range cases {
		got, err := Canonicalize(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
}

func TestCanonicalizeIsIdempotent(t *testing.T) {
	first, err := Canonicalize("https://connectify.app/room/xy-9z")
	require.NoError(t, err)
	second, err := Canonicalize(string(first))
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestCanonicalizeRejects(t *testing.T) {
	_, err := Canonicalize("   ")
	assert.ErrorIs(t, err, ErrRoomIDEmpty)

	_, err = Canonicalize("/?code=1")
	assert.ErrorIs(t, err, ErrRoomIDEmpty)

	_, err = Canonicalize(strings.Repeat("a", MaxRoomIDLen+1))
	assert.ErrorIs(t, err, ErrRoomIDTooLong)
}

func TestDisplayName(t *testing.T) {
	assert.Equal(t, "Alice", DisplayName("  Alice "))
	assert.Equal(t, DefaultUsername, DisplayName(""))
	assert.Equal(t, DefaultUsername, DisplayName(" \t"))
}

func TestNewChatEntry(t *testing.T) {
	a := NewChatEntry("c1", "Alice", "hi")
	b := NewChatEntry(AssistantConnectionID, "Connectify AI", "hello")

	assert.NotEmpty(t, a.ID)
	assert.NotEqual(t, a.ID, b.ID)
	assert.False(t, a.FromAssistant())
	assert.True(t, b.FromAssistant())
	assert.False(t, a.Timestamp.IsZero())
}
