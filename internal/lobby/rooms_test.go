package lobby

import (
	"errors"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/chess-backend/internal/apperror"
)

var errNoEntropy = errors.New("no entropy")

func TestRooms_Create(t *testing.T) {
	t.Run("Generates a token when none is given", func(t *testing.T) {
		rooms := NewRooms(8)

		token, err := rooms.Create("", "H")

		require.NoError(t, err)
		assert.Regexp(t, regexp.MustCompile(`^[a-z0-9]{8}$`), token)
		room, ok := rooms.lookup(token)
		require.True(t, ok)
		assert.Equal(t, "H", room.Host)
	})

	t.Run("Keeps a caller supplied token", func(t *testing.T) {
		rooms := NewRooms(8)

		token, err := rooms.Create("abc", "H")

		require.NoError(t, err)
		assert.Equal(t, "abc", token)
	})

	t.Run("Colliding token is refused", func(t *testing.T) {
		// Given: a room "abc" hosted by H
		rooms := NewRooms(8)
		_, err := rooms.Create("abc", "H")
		require.NoError(t, err)

		// When: another host asks for the same token
		_, err = rooms.Create("abc", "H2")

		// Then: the existing room is kept
		require.ErrorIs(t, err, apperror.ErrRoomExists)
		room, _ := rooms.lookup("abc")
		assert.Equal(t, "H", room.Host)
	})

	t.Run("Generated tokens skip taken ones", func(t *testing.T) {
		rooms := NewRooms(8)
		tokens := []string{"taken", "taken", "free"}
		rooms.newToken = func() (string, error) {
			token := tokens[0]
			tokens = tokens[1:]
			return token, nil
		}

		_, err := rooms.Create("", "H1")
		require.NoError(t, err)

		token, err := rooms.Create("", "H2")

		require.NoError(t, err)
		assert.Equal(t, "free", token)
	})

	t.Run("Generator failure is reported", func(t *testing.T) {
		rooms := NewRooms(8)
		rooms.newToken = func() (string, error) { return "", errNoEntropy }

		_, err := rooms.Create("", "H")

		require.ErrorIs(t, err, errNoEntropy)
		assert.Equal(t, 0, rooms.Len())
	})
}

func TestRooms_Join(t *testing.T) {
	t.Run("Host plays white, guest black", func(t *testing.T) {
		rooms := NewRooms(8)
		_, _ = rooms.Create("abc", "H")

		pairing, err := rooms.Join("abc", "G")

		require.NoError(t, err)
		assert.Equal(t, Pairing{White: "H", Black: "G", Token: "abc"}, pairing)
	})

	t.Run("Unknown token", func(t *testing.T) {
		_, err := NewRooms(8).Join("nope", "G")

		require.ErrorIs(t, err, apperror.ErrRoomNotFound)
	})

	t.Run("Second joiner finds the room full", func(t *testing.T) {
		// Given: host H and guest G1 in room "abc"
		rooms := NewRooms(8)
		_, _ = rooms.Create("abc", "H")
		_, err := rooms.Join("abc", "G1")
		require.NoError(t, err)

		// When: G2 tries to join
		_, err = rooms.Join("abc", "G2")

		// Then: the room is full
		require.ErrorIs(t, err, apperror.ErrRoomFull)
	})

	t.Run("Host cannot join own room", func(t *testing.T) {
		rooms := NewRooms(8)
		_, _ = rooms.Create("abc", "H")

		_, err := rooms.Join("abc", "H")

		require.ErrorIs(t, err, apperror.ErrRoomOwnJoin)
	})
}

func TestRooms_Release(t *testing.T) {
	t.Run("Frees the token after the match", func(t *testing.T) {
		rooms := NewRooms(8)
		_, _ = rooms.Create("abc", "H")
		_, _ = rooms.Join("abc", "G")
		rooms.Bind("abc", "s1")

		rooms.Release("abc", "s1")

		_, ok := rooms.lookup("abc")
		assert.False(t, ok)
	})

	t.Run("Ignores a room bound to another session", func(t *testing.T) {
		rooms := NewRooms(8)
		_, _ = rooms.Create("abc", "H")
		rooms.Bind("abc", "s2")

		rooms.Release("abc", "s1")

		_, ok := rooms.lookup("abc")
		assert.True(t, ok)
	})
}

func TestRooms_Leave(t *testing.T) {
	t.Run("Host leaving dissolves the room", func(t *testing.T) {
		rooms := NewRooms(8)
		_, _ = rooms.Create("abc", "H")

		rooms.Leave("H")

		_, err := rooms.Join("abc", "G")
		require.ErrorIs(t, err, apperror.ErrRoomNotFound)
	})

	t.Run("Guest leaving reopens the room", func(t *testing.T) {
		// Given: a room with host and guest in play
		rooms := NewRooms(8)
		_, _ = rooms.Create("abc", "H")
		_, _ = rooms.Join("abc", "G1")
		rooms.Bind("abc", "s1")

		// When: the guest leaves
		rooms.Leave("G1")

		// Then: a new guest can join and the old session no longer owns the room
		rooms.Release("abc", "s1")
		pairing, err := rooms.Join("abc", "G2")
		require.NoError(t, err)
		assert.Equal(t, "H", pairing.White)
		assert.Equal(t, "G2", pairing.Black)
	})
}

func TestRooms_Withdraw(t *testing.T) {
	rooms := NewRooms(8)
	_, _ = rooms.Create("one", "H")
	_, _ = rooms.Create("two", "H")
	_, _ = rooms.Create("other", "X")

	rooms.Withdraw("H", "two")

	_, ok := rooms.lookup("one")
	assert.False(t, ok)
	_, ok = rooms.lookup("two")
	assert.True(t, ok)
	_, ok = rooms.lookup("other")
	assert.True(t, ok)
}

func TestGenerateToken(t *testing.T) {
	token, err := GenerateToken(12)

	require.NoError(t, err)
	assert.Len(t, token, 12)
	assert.Regexp(t, regexp.MustCompile(`^[a-z0-9]+$`), token)
}

func (that *Rooms) lookup(token string) (Room, bool) {
	room, ok := that.rooms[token]
	if !ok {
		return Room{}, false
	}

	return *room, true
}
