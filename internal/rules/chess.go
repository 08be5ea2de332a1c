// Package rules adapts github.com/notnil/chess to the session oracle.
package rules

import (
	"errors"
	"fmt"
	"strings"

	"github.com/notnil/chess"

	"github.com/rocketscienceinc/chess-backend/internal/apperror"
	"github.com/rocketscienceinc/chess-backend/internal/entity"
	"github.com/rocketscienceinc/chess-backend/internal/session"
)

var ErrForeignPosition = errors.New("position was not created by the chess oracle")

// position wraps a chess game so the move history is kept for repetition draws.
type position struct {
	game *chess.Game
}

func (that *position) String() string {
	return that.game.Position().String()
}

// Chess decides legality and terminal states for standard chess.
type Chess struct{}

func NewChess() *Chess {
	return &Chess{}
}

// NewPosition - returns the standard starting position.
func (that *Chess) NewPosition() session.Position {
	return &position{game: chess.NewGame()}
}

// PositionFromFEN - returns a position set up from a FEN record.
func (that *Chess) PositionFromFEN(fen string) (session.Position, error) {
	option, err := chess.FEN(fen)
	if err != nil {
		return nil, fmt.Errorf("failed to parse fen: %w", err)
	}

	return &position{game: chess.NewGame(option)}, nil
}

// Apply - plays move on pos. On error pos is left untouched.
func (that *Chess) Apply(pos session.Position, move entity.Move) (session.Position, session.Verdict, error) {
	current, ok := pos.(*position)
	if !ok {
		return pos, session.Verdict{}, ErrForeignPosition
	}

	if err := move.Validate(); err != nil {
		return pos, session.Verdict{}, fmt.Errorf("%w: %w", apperror.ErrIllegalMove, err)
	}

	if err := play(current.game, move.UCI()); err != nil {
		if !retry(current.game, move) {
			return pos, session.Verdict{}, fmt.Errorf("%w: %w", apperror.ErrIllegalMove, err)
		}
	}

	claimDraw(current.game)

	return current, verdictOf(current.game), nil
}

// retry - a bare pawn move to the last rank promotes to a queen,
// and a promotion letter on a move that is not a promotion is ignored.
func retry(game *chess.Game, move entity.Move) bool {
	if move.Promotion == "" {
		return play(game, move.UCI()+"q") == nil
	}

	plain := strings.ToLower(move.From + move.To)

	decoded, err := chess.UCINotation{}.Decode(game.Position(), plain)
	if err != nil || decoded.Promo() != chess.NoPieceType {
		return false
	}

	return game.Move(decoded) == nil
}

func play(game *chess.Game, uci string) error {
	move, err := chess.UCINotation{}.Decode(game.Position(), uci)
	if err != nil {
		return fmt.Errorf("failed to decode move %s: %w", uci, err)
	}

	if err = game.Move(move); err != nil {
		return fmt.Errorf("failed to play move %s: %w", uci, err)
	}

	return nil
}

// claimDraw ends the game on draws the library only reports as eligible.
func claimDraw(game *chess.Game) {
	if game.Outcome() != chess.NoOutcome {
		return
	}

	for _, method := range game.EligibleDraws() {
		if method == chess.ThreefoldRepetition || method == chess.FiftyMoveRule {
			if err := game.Draw(method); err == nil {
				return
			}
		}
	}
}

func verdictOf(game *chess.Game) session.Verdict {
	switch game.Outcome() {
	case chess.WhiteWon:
		return session.Verdict{Terminal: true, Outcome: entity.Decisive(entity.White, reasonOf(game.Method()))}
	case chess.BlackWon:
		return session.Verdict{Terminal: true, Outcome: entity.Decisive(entity.Black, reasonOf(game.Method()))}
	case chess.Draw:
		return session.Verdict{Terminal: true, Outcome: entity.Drawn(reasonOf(game.Method()))}
	default:
		return session.Verdict{}
	}
}

func reasonOf(method chess.Method) string {
	switch method {
	case chess.Checkmate:
		return entity.ReasonCheckmate
	case chess.Stalemate:
		return entity.ReasonStalemate
	case chess.InsufficientMaterial:
		return entity.ReasonInsufficientMaterial
	case chess.ThreefoldRepetition:
		return entity.ReasonThreefoldRepetition
	case chess.FivefoldRepetition:
		return entity.ReasonFivefoldRepetition
	case chess.FiftyMoveRule:
		return entity.ReasonFiftyMoveRule
	case chess.SeventyFiveMoveRule:
		return entity.ReasonSeventyFiveMoveRule
	default:
		return entity.ReasonOther
	}
}
