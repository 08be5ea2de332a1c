package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/chess-backend/internal/apperror"
	"github.com/rocketscienceinc/chess-backend/internal/entity"
	"github.com/rocketscienceinc/chess-backend/internal/session"
)

const startFEN = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"

func playAll(t *testing.T, oracle *Chess, pos session.Position, moves ...entity.Move) (session.Position, session.Verdict) {
	t.Helper()

	var verdict session.Verdict
	for _, move := range moves {
		var err error
		pos, verdict, err = oracle.Apply(pos, move)
		require.NoError(t, err, "move %s", move.UCI())
	}

	return pos, verdict
}

func mv(from, to string) entity.Move {
	return entity.Move{From: from, To: to}
}

func TestChess_NewPosition(t *testing.T) {
	pos := NewChess().NewPosition()

	assert.Equal(t, startFEN, pos.String())
}

func TestChess_Apply(t *testing.T) {
	t.Run("Legal move advances the position", func(t *testing.T) {
		// Given: the starting position
		oracle := NewChess()
		pos := oracle.NewPosition()

		// When: white plays e2e4
		next, verdict, err := oracle.Apply(pos, mv("e2", "e4"))

		// Then: black is to move and the game goes on
		require.NoError(t, err)
		assert.Contains(t, next.String(), " b KQkq ")
		assert.False(t, verdict.Terminal)
	})

	t.Run("Illegal move leaves the position unchanged", func(t *testing.T) {
		// Given: the starting position
		oracle := NewChess()
		pos := oracle.NewPosition()

		// When: white tries to move a pawn three squares
		next, verdict, err := oracle.Apply(pos, mv("e2", "e5"))

		// Then: the move is rejected and nothing changed
		require.ErrorIs(t, err, apperror.ErrIllegalMove)
		assert.False(t, verdict.Terminal)
		assert.Equal(t, startFEN, next.String())
	})

	t.Run("Malformed square is illegal", func(t *testing.T) {
		oracle := NewChess()

		_, _, err := oracle.Apply(oracle.NewPosition(), mv("z9", "e4"))

		require.ErrorIs(t, err, apperror.ErrIllegalMove)
	})

	t.Run("Moving the opponent's piece is illegal", func(t *testing.T) {
		oracle := NewChess()

		_, _, err := oracle.Apply(oracle.NewPosition(), mv("e7", "e5"))

		require.ErrorIs(t, err, apperror.ErrIllegalMove)
	})

	t.Run("Foreign position is refused", func(t *testing.T) {
		_, _, err := NewChess().Apply(fakePosition("x"), mv("e2", "e4"))

		require.ErrorIs(t, err, ErrForeignPosition)
	})
}

func TestChess_TerminalStates(t *testing.T) {
	t.Run("Fool's mate is a black win by checkmate", func(t *testing.T) {
		oracle := NewChess()

		_, verdict := playAll(t, oracle, oracle.NewPosition(),
			mv("f2", "f3"), mv("e7", "e5"), mv("g2", "g4"), mv("d8", "h4"))

		assert.True(t, verdict.Terminal)
		assert.Equal(t, entity.Decisive(entity.Black, entity.ReasonCheckmate), verdict.Outcome)
	})

	t.Run("Stalemate is a draw", func(t *testing.T) {
		oracle := NewChess()
		pos, err := oracle.PositionFromFEN("k7/8/8/1Q6/8/8/8/7K w - - 0 1")
		require.NoError(t, err)

		_, verdict := playAll(t, oracle, pos, mv("b5", "b6"))

		assert.True(t, verdict.Terminal)
		assert.Equal(t, entity.Drawn(entity.ReasonStalemate), verdict.Outcome)
	})

	t.Run("Bare king and bishop is insufficient material", func(t *testing.T) {
		oracle := NewChess()
		pos, err := oracle.PositionFromFEN("k7/8/8/8/8/8/1r6/K1B5 w - - 0 1")
		require.NoError(t, err)

		_, verdict := playAll(t, oracle, pos, mv("a1", "b2"))

		assert.True(t, verdict.Terminal)
		assert.Equal(t, entity.Drawn(entity.ReasonInsufficientMaterial), verdict.Outcome)
	})

	t.Run("Third repetition ends the game", func(t *testing.T) {
		oracle := NewChess()
		shuffle := []entity.Move{mv("g1", "f3"), mv("g8", "f6"), mv("f3", "g1"), mv("f6", "g8")}

		pos, verdict := playAll(t, oracle, oracle.NewPosition(), shuffle...)
		require.False(t, verdict.Terminal)

		_, verdict = playAll(t, oracle, pos, shuffle...)

		assert.True(t, verdict.Terminal)
		assert.Equal(t, entity.Drawn(entity.ReasonThreefoldRepetition), verdict.Outcome)
	})
}

func TestChess_Promotion(t *testing.T) {
	t.Run("Explicit under-promotion", func(t *testing.T) {
		oracle := NewChess()
		pos, err := oracle.PositionFromFEN("8/P6k/8/8/8/8/8/K7 w - - 0 1")
		require.NoError(t, err)

		next, _ := playAll(t, oracle, pos, entity.Move{From: "a7", To: "a8", Promotion: "n"})

		assert.Contains(t, next.String(), "N7/")
	})

	t.Run("Bare promotion defaults to a queen", func(t *testing.T) {
		oracle := NewChess()
		pos, err := oracle.PositionFromFEN("8/P6k/8/8/8/8/8/K7 w - - 0 1")
		require.NoError(t, err)

		next, _ := playAll(t, oracle, pos, mv("a7", "a8"))

		assert.Contains(t, next.String(), "Q7/")
	})

	t.Run("Promotion letter on a plain move is ignored", func(t *testing.T) {
		// Given: the starting position
		oracle := NewChess()

		// When: a pawn push arrives with a promotion letter
		next, verdict, err := oracle.Apply(oracle.NewPosition(), entity.Move{From: "e2", To: "e4", Promotion: "q"})

		// Then: it is played as the plain push
		require.NoError(t, err)
		assert.False(t, verdict.Terminal)
		assert.Contains(t, next.String(), "rnbqkbnr/pppppppp/8/8/4P3/8/PPPP1PPP/RNBQKBNR b KQkq ")
	})

	t.Run("Promotion letter does not make an illegal move legal", func(t *testing.T) {
		oracle := NewChess()
		pos := oracle.NewPosition()

		_, _, err := oracle.Apply(pos, entity.Move{From: "e2", To: "e5", Promotion: "q"})

		require.ErrorIs(t, err, apperror.ErrIllegalMove)
		assert.Equal(t, startFEN, pos.String())
	})
}

type fakePosition string

func (that fakePosition) String() string {
	return string(that)
}
