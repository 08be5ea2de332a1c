package lobby

import (
	"crypto/rand"
	"fmt"
	"math/big"

	"github.com/rocketscienceinc/chess-backend/internal/apperror"
)

const (
	tokenAlphabet      = "abcdefghijklmnopqrstuvwxyz0123456789"
	defaultTokenLength = 8
	maxTokenAttempts   = 16
)

// Room is a private pairing slot addressed by a token.
type Room struct {
	Token     string
	Host      string
	Guest     string
	SessionID string
}

type Rooms struct {
	rooms    map[string]*Room
	newToken func() (string, error)
}

func NewRooms(tokenLength int) *Rooms {
	if tokenLength <= 0 {
		tokenLength = defaultTokenLength
	}

	return &Rooms{
		rooms:    make(map[string]*Room),
		newToken: func() (string, error) { return GenerateToken(tokenLength) },
	}
}

// Create - registers a room hosted by host. An empty token gets a generated one.
func (that *Rooms) Create(token, host string) (string, error) {
	if token == "" {
		generated, err := that.freeToken()
		if err != nil {
			return "", err
		}

		token = generated
	}

	if _, ok := that.rooms[token]; ok {
		return "", fmt.Errorf("%w: %s", apperror.ErrRoomExists, token)
	}

	that.rooms[token] = &Room{Token: token, Host: host}

	return token, nil
}

func (that *Rooms) freeToken() (string, error) {
	for range maxTokenAttempts {
		token, err := that.newToken()
		if err != nil {
			return "", fmt.Errorf("failed to generate room token: %w", err)
		}

		if _, ok := that.rooms[token]; !ok {
			return token, nil
		}
	}

	return "", fmt.Errorf("%w: no free token after %d attempts", apperror.ErrRoomExists, maxTokenAttempts)
}

// Join - seats guest in the room; host plays white.
// The room stays registered, full, until Release.
func (that *Rooms) Join(token, guest string) (Pairing, error) {
	room, ok := that.rooms[token]
	if !ok {
		return Pairing{}, fmt.Errorf("%w: %s", apperror.ErrRoomNotFound, token)
	}

	if room.Guest != "" {
		return Pairing{}, fmt.Errorf("%w: %s", apperror.ErrRoomFull, token)
	}

	if room.Host == guest {
		return Pairing{}, fmt.Errorf("%w: %s", apperror.ErrRoomOwnJoin, token)
	}

	room.Guest = guest

	return Pairing{White: room.Host, Black: guest, Token: token}, nil
}

// Bind - links the room to the session its pairing started.
func (that *Rooms) Bind(token, sessionID string) {
	if room, ok := that.rooms[token]; ok {
		room.SessionID = sessionID
	}
}

// Release - removes the room once its match is over.
// A room reopened by Leave is no longer linked to the session and is kept.
func (that *Rooms) Release(token, sessionID string) {
	if room, ok := that.rooms[token]; ok && room.SessionID == sessionID {
		delete(that.rooms, token)
	}
}

// Leave - dissolves rooms hosted by connID and frees the guest slot where it was a guest.
func (that *Rooms) Leave(connID string) {
	for token, room := range that.rooms {
		switch connID {
		case room.Host:
			delete(that.rooms, token)
		case room.Guest:
			room.Guest = ""
			room.SessionID = ""
		}
	}
}

// Withdraw - dissolves open rooms hosted by connID except keepToken; used once the host starts playing elsewhere.
func (that *Rooms) Withdraw(connID, keepToken string) {
	for token, room := range that.rooms {
		if room.Host == connID && token != keepToken && room.Guest == "" {
			delete(that.rooms, token)
		}
	}
}

func (that *Rooms) Len() int {
	return len(that.rooms)
}

// GenerateToken - returns a random lowercase alphanumeric token.
func GenerateToken(length int) (string, error) {
	token := make([]byte, length)
	limit := big.NewInt(int64(len(tokenAlphabet)))

	for i := range token {
		n, err := rand.Int(rand.Reader, limit)
		if err != nil {
			return "", fmt.Errorf("failed to read random: %w", err)
		}

		token[i] = tokenAlphabet[n.Int64()]
	}

	return string(token), nil
}
