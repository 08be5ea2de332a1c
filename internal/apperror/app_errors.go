package apperror

import "errors"

var (
	ErrGameFinished       = errors.New("game is already finished")
	ErrNotYourTurn        = errors.New("it's not your turn")
	ErrIllegalMove        = errors.New("illegal move")
	ErrSessionNotFound    = errors.New("no active session for connection")
	ErrAlreadyInSession   = errors.New("connection already plays in a session")
	ErrRoomNotFound       = errors.New("room not found")
	ErrRoomFull           = errors.New("room is full")
	ErrRoomExists         = errors.New("room already exists")
	ErrRoomOwnJoin        = errors.New("host cannot join own room")
	ErrUnknownMessageType = errors.New("unknown message type")
	ErrMatchNotFound      = errors.New("match not found")
)
