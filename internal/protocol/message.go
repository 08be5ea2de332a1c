// Package protocol defines the JSON envelope exchanged with clients.
package protocol

import (
	"encoding/json"
	"fmt"

	"github.com/rocketscienceinc/chess-backend/internal/entity"
)

const (
	TypeInitGame     = "INIT_GAME"
	TypeMove         = "MOVE"
	TypeMoveRejected = "MOVE_REJECTED"
	TypeGameOver     = "GAME_OVER"
	TypeCreateRoom   = "CREATE_ROOM"
	TypeRoomCreated  = "ROOM_CREATED"
	TypeJoinRoom     = "JOIN_ROOM"
	TypeRoomJoined   = "ROOM_JOINED"
	TypeRoomError    = "ROOM_ERROR"
	TypeChat         = "CHAT"
	TypeVideoOffer   = "VIDEO_OFFER"
	TypeVideoAnswer  = "VIDEO_ANSWER"
	TypeVideoICE     = "VIDEO_ICE"
)

const (
	RoleHost  = "host"
	RoleGuest = "guest"
)

const (
	ErrorNotFound = "not_found"
	ErrorFull     = "full"
	ErrorExists   = "exists"
	ErrorOwnRoom  = "own_room"
)

const (
	RejectNotYourTurn = "not_your_turn"
	RejectIllegalMove = "illegal_move"
	RejectGameOver    = "game_over"
)

// Message is the envelope of every frame: a type tag and a payload.
type Message struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type ColorPayload struct {
	Color entity.Color `json:"color"`
}

type MovePayload struct {
	Move json.RawMessage `json:"move"`
}

type MoveRejectedPayload struct {
	Reason string          `json:"reason"`
	Move   json.RawMessage `json:"move,omitempty"`
}

type RoomPayload struct {
	Token string `json:"token,omitempty"`
	Role  string `json:"role,omitempty"`
}

type ErrorPayload struct {
	Error string `json:"error"`
}

type ChatPayload struct {
	Sender entity.Color `json:"sender,omitempty"`
	Text   string       `json:"text"`
}

// IsSignal - reports whether msgType is relayed verbatim to the partner.
func IsSignal(msgType string) bool {
	switch msgType {
	case TypeVideoOffer, TypeVideoAnswer, TypeVideoICE:
		return true
	default:
		return false
	}
}

// Decode - parses a raw frame into its envelope.
func Decode(raw []byte) (*Message, error) {
	var msg Message
	if err := json.Unmarshal(raw, &msg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal message: %w", err)
	}

	return &msg, nil
}

// DecodePayload - unmarshals the payload of msg into v. An absent payload leaves v as is.
func DecodePayload(msg *Message, v any) error {
	if len(msg.Payload) == 0 || string(msg.Payload) == "null" {
		return nil
	}

	if err := json.Unmarshal(msg.Payload, v); err != nil {
		return fmt.Errorf("failed to unmarshal %s payload: %w", msg.Type, err)
	}

	return nil
}

// Encode - builds a frame of the given type.
func Encode(msgType string, payload any) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s payload: %w", msgType, err)
	}

	frame, err := json.Marshal(Message{Type: msgType, Payload: body})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s message: %w", msgType, err)
	}

	return frame, nil
}

func InitGame(color entity.Color) ([]byte, error) {
	return Encode(TypeInitGame, ColorPayload{Color: color})
}

// Move - relays the move exactly as the mover sent it.
func Move(move json.RawMessage) ([]byte, error) {
	return Encode(TypeMove, MovePayload{Move: move})
}

func MoveRejected(reason string, move json.RawMessage) ([]byte, error) {
	return Encode(TypeMoveRejected, MoveRejectedPayload{Reason: reason, Move: move})
}

func GameOver(outcome entity.Outcome) ([]byte, error) {
	if !outcome.IsDraw() && outcome.Reason != entity.ReasonAbandoned {
		outcome.Reason = ""
	}

	return Encode(TypeGameOver, outcome)
}

func RoomCreated(token string) ([]byte, error) {
	return Encode(TypeRoomCreated, RoomPayload{Token: token})
}

func RoomJoined(token, role string) ([]byte, error) {
	return Encode(TypeRoomJoined, RoomPayload{Token: token, Role: role})
}

func RoomError(code string) ([]byte, error) {
	return Encode(TypeRoomError, ErrorPayload{Error: code})
}

func Chat(sender entity.Color, text string) ([]byte, error) {
	return Encode(TypeChat, ChatPayload{Sender: sender, Text: text})
}
