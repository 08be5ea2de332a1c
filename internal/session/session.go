// Package session holds the authoritative state machine of one match.
package session

import (
	"time"

	"github.com/rocketscienceinc/chess-backend/internal/apperror"
	"github.com/rocketscienceinc/chess-backend/internal/entity"
)

// Position is an opaque board state owned by a Session. String returns its FEN.
type Position interface {
	String() string
}

// Verdict is what the oracle says about a position after a move.
type Verdict struct {
	Terminal bool
	Outcome  entity.Outcome
}

// Oracle decides move legality and terminal states.
type Oracle interface {
	NewPosition() Position
	Apply(pos Position, move entity.Move) (Position, Verdict, error)
}

// Result is returned for an accepted move.
type Result struct {
	Mover    entity.Color
	Opponent string
	Verdict  Verdict
}

type Session struct {
	ID        string
	White     string
	Black     string
	Origin    string
	RoomToken string
	StartedAt time.Time
	EndedAt   time.Time

	oracle   Oracle
	position Position
	ply      int
	status   string
	outcome  entity.Outcome
}

// New - creates an active session; white moves first.
func New(id, white, black string, oracle Oracle, now time.Time) *Session {
	return &Session{
		ID:        id,
		White:     white,
		Black:     black,
		Origin:    entity.OriginQuick,
		StartedAt: now,

		oracle:   oracle,
		position: oracle.NewPosition(),
		status:   entity.StatusActive,
	}
}

// MakeMove - plays move for connID if it is that participant's turn and the oracle accepts it.
func (that *Session) MakeMove(connID string, move entity.Move, now time.Time) (Result, error) {
	if !that.IsActive() {
		return Result{}, apperror.ErrGameFinished
	}

	if connID != that.participantToMove() {
		return Result{}, apperror.ErrNotYourTurn
	}

	next, verdict, err := that.oracle.Apply(that.position, move)
	if err != nil {
		return Result{}, err
	}

	mover := that.ToMove()
	that.position = next
	that.ply++

	if verdict.Terminal {
		that.finish(entity.StatusFinished, verdict.Outcome, now)
	}

	return Result{Mover: mover, Opponent: that.partnerOf(connID), Verdict: verdict}, nil
}

// Abandon - ends an active session because connID left; the partner wins.
func (that *Session) Abandon(connID string, now time.Time) (entity.Outcome, bool) {
	color, ok := that.ColorOf(connID)
	if !ok || !that.IsActive() {
		return entity.Outcome{}, false
	}

	outcome := entity.Decisive(color.Opponent(), entity.ReasonAbandoned)
	that.finish(entity.StatusAbandoned, outcome, now)

	return outcome, true
}

func (that *Session) finish(status string, outcome entity.Outcome, now time.Time) {
	that.status = status
	that.outcome = outcome
	that.EndedAt = now
}

// ToMove - colour whose turn it is by ply parity.
func (that *Session) ToMove() entity.Color {
	if that.ply%2 == 0 {
		return entity.White
	}

	return entity.Black
}

func (that *Session) participantToMove() string {
	if that.ToMove() == entity.White {
		return that.White
	}

	return that.Black
}

// ColorOf - colour played by connID, false when it is not a participant.
func (that *Session) ColorOf(connID string) (entity.Color, bool) {
	switch connID {
	case that.White:
		return entity.White, true
	case that.Black:
		return entity.Black, true
	default:
		return "", false
	}
}

// Partner - the other participant of connID.
func (that *Session) Partner(connID string) (string, bool) {
	if _, ok := that.ColorOf(connID); !ok {
		return "", false
	}

	return that.partnerOf(connID), true
}

func (that *Session) partnerOf(connID string) string {
	if connID == that.White {
		return that.Black
	}

	return that.White
}

func (that *Session) Participants() []string {
	return []string{that.White, that.Black}
}

func (that *Session) IsActive() bool {
	return that.status == entity.StatusActive
}

func (that *Session) Ply() int {
	return that.ply
}

func (that *Session) Position() Position {
	return that.position
}

// Record - archived summary of the session.
func (that *Session) Record() *entity.MatchRecord {
	return &entity.MatchRecord{
		ID:        that.ID,
		White:     that.White,
		Black:     that.Black,
		Origin:    that.Origin,
		RoomToken: that.RoomToken,
		Plies:     that.ply,
		Status:    that.status,
		Winner:    that.outcome.Winner,
		Reason:    that.outcome.Reason,
		FinalFEN:  that.position.String(),
		StartedAt: that.StartedAt,
		EndedAt:   that.EndedAt,
	}
}
