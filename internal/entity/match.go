package entity

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

type Color string

const (
	White Color = "white"
	Black Color = "black"
)

const (
	StatusActive    = "active"
	StatusFinished  = "finished"
	StatusAbandoned = "abandoned"
)

const (
	OriginQuick = "quick"
	OriginRoom  = "room"
)

// WinnerDraw is reported in place of a colour when nobody won.
const WinnerDraw = "draw"

const (
	ReasonCheckmate            = "checkmate"
	ReasonStalemate            = "stalemate"
	ReasonInsufficientMaterial = "insufficient_material"
	ReasonThreefoldRepetition  = "threefold_repetition"
	ReasonFivefoldRepetition   = "fivefold_repetition"
	ReasonFiftyMoveRule        = "fifty_move_rule"
	ReasonSeventyFiveMoveRule  = "seventy_five_move_rule"
	ReasonAbandoned            = "abandoned"
	ReasonOther                = "other"
)

var ErrInvalidSquare = errors.New("invalid square")

// Opponent - returns the other colour.
func (that Color) Opponent() Color {
	if that == White {
		return Black
	}

	return White
}

// Move is a single ply as sent by a client, in coordinate notation.
type Move struct {
	From      string `json:"from"`
	To        string `json:"to"`
	Promotion string `json:"promotion,omitempty"`
}

// Validate - checks that both squares are on the board and the promotion piece is known.
func (that Move) Validate() error {
	for _, square := range []string{that.From, that.To} {
		if !isSquare(square) {
			return fmt.Errorf("%w: %q", ErrInvalidSquare, square)
		}
	}

	switch strings.ToLower(that.Promotion) {
	case "", "q", "r", "b", "n":
		return nil
	default:
		return fmt.Errorf("%w: promotion %q", ErrInvalidSquare, that.Promotion)
	}
}

// UCI - returns the move in UCI long algebraic form, e.g. "e7e8q".
func (that Move) UCI() string {
	return strings.ToLower(that.From + that.To + that.Promotion)
}

func isSquare(square string) bool {
	if len(square) != 2 {
		return false
	}

	file, rank := square[0]|0x20, square[1]

	return file >= 'a' && file <= 'h' && rank >= '1' && rank <= '8'
}

// Outcome describes how a match ended.
type Outcome struct {
	Winner string `json:"winner"`
	Reason string `json:"reason,omitempty"`
}

func (that Outcome) IsDraw() bool {
	return that.Winner == WinnerDraw
}

// Decisive - builds the outcome of a game won by the given colour.
func Decisive(winner Color, reason string) Outcome {
	return Outcome{Winner: string(winner), Reason: reason}
}

// Drawn - builds the outcome of a drawn game.
func Drawn(reason string) Outcome {
	return Outcome{Winner: WinnerDraw, Reason: reason}
}

// MatchRecord is the archived summary of a match that left the active index.
type MatchRecord struct {
	ID        string    `json:"id"`
	White     string    `json:"white"`
	Black     string    `json:"black"`
	Origin    string    `json:"origin"`
	RoomToken string    `json:"room_token,omitempty"`
	Plies     int       `json:"plies"`
	Status    string    `json:"status"`
	Winner    string    `json:"winner"`
	Reason    string    `json:"reason,omitempty"`
	FinalFEN  string    `json:"final_fen"`
	StartedAt time.Time `json:"started_at"`
	EndedAt   time.Time `json:"ended_at"`
}
