package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/rocketscienceinc/chess-backend/internal/apperror"
	"github.com/rocketscienceinc/chess-backend/internal/entity"
	"github.com/rocketscienceinc/chess-backend/internal/protocol"
)

func (that *Coordinator) handleQuickMatch(_ context.Context, conn Connection, _ *protocol.Message, _ []byte) error {
	log := that.logger.With("method", "handleQuickMatch", "connID", conn.ID())

	if _, ok := that.sessionOf(conn.ID()); ok {
		return apperror.ErrAlreadyInSession
	}

	pairing, ok := that.queue.Offer(conn.ID())
	if !ok {
		log.Info("waiting for an opponent")
		return nil
	}

	that.startSession(log, pairing, entity.OriginQuick)

	return nil
}

func (that *Coordinator) handleMove(_ context.Context, conn Connection, msg *protocol.Message, _ []byte) error {
	log := that.logger.With("method", "handleMove", "connID", conn.ID())

	sess, ok := that.sessionOf(conn.ID())
	if !ok {
		return apperror.ErrSessionNotFound
	}

	var payload protocol.MovePayload
	if err := protocol.DecodePayload(msg, &payload); err != nil {
		return that.rejectMove(log, conn, fmt.Errorf("%w: %w", apperror.ErrIllegalMove, err), nil)
	}

	var move entity.Move
	if err := json.Unmarshal(payload.Move, &move); err != nil {
		return that.rejectMove(log, conn, fmt.Errorf("%w: %w", apperror.ErrIllegalMove, err), payload.Move)
	}

	result, err := sess.MakeMove(conn.ID(), move, that.now())
	if err != nil {
		return that.rejectMove(log, conn, err, payload.Move)
	}

	frame, err := protocol.Move(payload.Move)
	if err != nil {
		return fmt.Errorf("failed to encode move: %w", err)
	}

	that.send(log, result.Opponent, frame)

	log.Debug("move played", "sessionID", sess.ID, "color", result.Mover, "move", move.UCI(), "ply", sess.Ply(), "fen", sess.Position().String())

	if result.Verdict.Terminal {
		that.sendGameOver(log, result.Verdict.Outcome, sess.Participants()...)
		that.endSession(sess)

		log.Info("game over", "sessionID", sess.ID, "winner", result.Verdict.Outcome.Winner, "reason", result.Verdict.Outcome.Reason)
	}

	return nil
}

// rejectMove - tells the mover why the move was dropped when the policy asks for it; returns cause.
func (that *Coordinator) rejectMove(log *slog.Logger, conn Connection, cause error, move json.RawMessage) error {
	if !that.options.NotifyRejectedMoves {
		return cause
	}

	reason := protocol.RejectIllegalMove
	switch {
	case errors.Is(cause, apperror.ErrNotYourTurn):
		reason = protocol.RejectNotYourTurn
	case errors.Is(cause, apperror.ErrGameFinished):
		reason = protocol.RejectGameOver
	}

	frame, err := protocol.MoveRejected(reason, move)
	if err != nil {
		return fmt.Errorf("failed to encode rejection: %w", err)
	}

	that.send(log, conn.ID(), frame)

	return cause
}

func (that *Coordinator) handleCreateRoom(_ context.Context, conn Connection, msg *protocol.Message, _ []byte) error {
	log := that.logger.With("method", "handleCreateRoom", "connID", conn.ID())

	if _, ok := that.sessionOf(conn.ID()); ok {
		return apperror.ErrAlreadyInSession
	}

	var payload protocol.RoomPayload
	if err := protocol.DecodePayload(msg, &payload); err != nil {
		return err
	}

	token, err := that.rooms.Create(payload.Token, conn.ID())
	if err != nil {
		return that.sendRoomError(log, conn, err)
	}

	frame, err := protocol.RoomCreated(token)
	if err != nil {
		return fmt.Errorf("failed to encode room: %w", err)
	}

	that.send(log, conn.ID(), frame)

	log.Info("room created", "token", token)

	return nil
}

func (that *Coordinator) handleJoinRoom(_ context.Context, conn Connection, msg *protocol.Message, _ []byte) error {
	log := that.logger.With("method", "handleJoinRoom", "connID", conn.ID())

	if _, ok := that.sessionOf(conn.ID()); ok {
		return apperror.ErrAlreadyInSession
	}

	var payload protocol.RoomPayload
	if err := protocol.DecodePayload(msg, &payload); err != nil {
		return err
	}

	pairing, err := that.rooms.Join(payload.Token, conn.ID())
	if err != nil {
		return that.sendRoomError(log, conn, err)
	}

	seats := []struct{ connID, role string }{
		{pairing.White, protocol.RoleHost},
		{pairing.Black, protocol.RoleGuest},
	}

	for _, seat := range seats {
		frame, err := protocol.RoomJoined(pairing.Token, seat.role)
		if err != nil {
			return fmt.Errorf("failed to encode room joined: %w", err)
		}

		that.send(log, seat.connID, frame)
	}

	that.startSession(log, pairing, entity.OriginRoom)

	return nil
}

// sendRoomError - reports a room failure to the requester only; returns cause.
func (that *Coordinator) sendRoomError(log *slog.Logger, conn Connection, cause error) error {
	var code string
	switch {
	case errors.Is(cause, apperror.ErrRoomNotFound):
		code = protocol.ErrorNotFound
	case errors.Is(cause, apperror.ErrRoomFull):
		code = protocol.ErrorFull
	case errors.Is(cause, apperror.ErrRoomExists):
		code = protocol.ErrorExists
	case errors.Is(cause, apperror.ErrRoomOwnJoin):
		code = protocol.ErrorOwnRoom
	default:
		return cause
	}

	frame, err := protocol.RoomError(code)
	if err != nil {
		return fmt.Errorf("failed to encode room error: %w", err)
	}

	that.send(log, conn.ID(), frame)

	return cause
}

func (that *Coordinator) handleChat(_ context.Context, conn Connection, msg *protocol.Message, _ []byte) error {
	log := that.logger.With("method", "handleChat", "connID", conn.ID())

	sess, ok := that.sessionOf(conn.ID())
	if !ok {
		return apperror.ErrSessionNotFound
	}

	var payload protocol.ChatPayload
	if err := protocol.DecodePayload(msg, &payload); err != nil {
		return err
	}

	sender, _ := sess.ColorOf(conn.ID())

	frame, err := protocol.Chat(sender, payload.Text)
	if err != nil {
		return fmt.Errorf("failed to encode chat: %w", err)
	}

	for _, connID := range sess.Participants() {
		that.send(log, connID, frame)
	}

	return nil
}

// handleSignal - forwards media negotiation frames untouched to the partner.
func (that *Coordinator) handleSignal(_ context.Context, conn Connection, _ *protocol.Message, raw []byte) error {
	log := that.logger.With("method", "handleSignal", "connID", conn.ID())

	sess, ok := that.sessionOf(conn.ID())
	if !ok {
		return apperror.ErrSessionNotFound
	}

	partner, _ := sess.Partner(conn.ID())
	that.send(log, partner, raw)

	return nil
}
