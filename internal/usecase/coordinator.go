package usecase

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/rocketscienceinc/chess-backend/internal/apperror"
	"github.com/rocketscienceinc/chess-backend/internal/entity"
	"github.com/rocketscienceinc/chess-backend/internal/lobby"
	"github.com/rocketscienceinc/chess-backend/internal/protocol"
	"github.com/rocketscienceinc/chess-backend/internal/session"
)

// Connection is one remote participant handed over by a transport.
// Send must not block.
type Connection interface {
	ID() string
	Send(frame []byte) error
}

type matchArchive interface {
	Save(ctx context.Context, record *entity.MatchRecord) error
}

type Options struct {
	RoomTokenLength int
	// NotifyRejectedMoves sends MOVE_REJECTED to a mover whose move was dropped.
	NotifyRejectedMoves bool
}

// Snapshot is a point-in-time view of the registries.
type Snapshot struct {
	Connections    int `json:"connections"`
	Waiting        int `json:"waiting"`
	Rooms          int `json:"rooms"`
	ActiveSessions int `json:"active_sessions"`
}

type handler func(ctx context.Context, conn Connection, msg *protocol.Message, raw []byte) error

// Coordinator routes every inbound message to the queue, the rooms or a session.
// A single mutex serialises all registry access, sends included.
type Coordinator struct {
	logger  *slog.Logger
	oracle  session.Oracle
	archive matchArchive
	options Options

	mu            sync.Mutex
	connections   map[string]Connection
	queue         *lobby.Queue
	rooms         *lobby.Rooms
	sessions      map[string]*session.Session
	sessionByConn map[string]string
	ended         []*entity.MatchRecord

	handlers map[string]handler

	newID func() string
	now   func() time.Time
}

func NewCoordinator(logger *slog.Logger, oracle session.Oracle, archive matchArchive, options Options) *Coordinator {
	coordinator := &Coordinator{
		logger:  logger.With("component", "coordinator"),
		oracle:  oracle,
		archive: archive,
		options: options,

		connections:   make(map[string]Connection),
		queue:         lobby.NewQueue(),
		rooms:         lobby.NewRooms(options.RoomTokenLength),
		sessions:      make(map[string]*session.Session),
		sessionByConn: make(map[string]string),

		newID: uuid.NewString,
		now:   time.Now,
	}

	coordinator.handlers = map[string]handler{
		protocol.TypeInitGame:   coordinator.handleQuickMatch,
		protocol.TypeMove:       coordinator.handleMove,
		protocol.TypeCreateRoom: coordinator.handleCreateRoom,
		protocol.TypeJoinRoom:   coordinator.handleJoinRoom,
		protocol.TypeChat:       coordinator.handleChat,
	}

	return coordinator
}

// AddConnection - registers a new connection.
func (that *Coordinator) AddConnection(conn Connection) {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.connections[conn.ID()] = conn

	that.logger.Debug("connection added", "connID", conn.ID())
}

// RemoveConnection - forgets connID: leaves the queue and rooms, and abandons its session.
func (that *Coordinator) RemoveConnection(ctx context.Context, connID string) {
	that.archiveRecords(ctx, that.removeConnection(connID))
}

func (that *Coordinator) removeConnection(connID string) []*entity.MatchRecord {
	log := that.logger.With("method", "RemoveConnection", "connID", connID)

	that.mu.Lock()
	defer that.mu.Unlock()

	delete(that.connections, connID)

	if that.queue.Remove(connID) {
		log.Debug("left quick match queue")
	}

	that.rooms.Leave(connID)

	if sess, ok := that.sessionOf(connID); ok {
		if outcome, abandoned := sess.Abandon(connID, that.now()); abandoned {
			partner, _ := sess.Partner(connID)
			that.sendGameOver(log, outcome, partner)
			that.endSession(sess)

			log.Info("session abandoned", "sessionID", sess.ID, "winner", outcome.Winner)
		}
	}

	return that.takeEnded()
}

// Dispatch - handles one inbound frame from connID.
func (that *Coordinator) Dispatch(ctx context.Context, connID string, raw []byte) {
	that.archiveRecords(ctx, that.dispatch(ctx, connID, raw))
}

func (that *Coordinator) dispatch(ctx context.Context, connID string, raw []byte) (ended []*entity.MatchRecord) {
	log := that.logger.With("method", "Dispatch", "connID", connID)

	that.mu.Lock()
	defer that.mu.Unlock()

	defer func() {
		if r := recover(); r != nil {
			log.Error("recovered from panic while handling message", "panic", r)
		}
	}()

	conn, ok := that.connections[connID]
	if !ok {
		log.Warn("message from unknown connection")
		return nil
	}

	msg, err := protocol.Decode(raw)
	if err != nil {
		log.Warn("failed to decode message", "error", err)
		return nil
	}

	log = log.With("type", msg.Type)

	handle, ok := that.handlerFor(msg.Type)
	if !ok {
		log.Debug("ignored message", "error", apperror.ErrUnknownMessageType)
		return nil
	}

	if err = handle(ctx, conn, msg, raw); err != nil {
		if isDropped(err) {
			log.Debug("message dropped", "error", err)
		} else {
			log.Error("error processing message", "error", err)
		}
	}

	return that.takeEnded()
}

// handlerFor - media negotiation frames of any kind go to the signal relay.
func (that *Coordinator) handlerFor(msgType string) (handler, bool) {
	if protocol.IsSignal(msgType) {
		return that.handleSignal, true
	}

	handle, ok := that.handlers[msgType]

	return handle, ok
}

// isDropped reports errors that are part of normal play.
func isDropped(err error) bool {
	for _, target := range []error{
		apperror.ErrNotYourTurn,
		apperror.ErrIllegalMove,
		apperror.ErrGameFinished,
		apperror.ErrSessionNotFound,
		apperror.ErrAlreadyInSession,
		apperror.ErrRoomNotFound,
		apperror.ErrRoomFull,
		apperror.ErrRoomExists,
		apperror.ErrRoomOwnJoin,
	} {
		if errors.Is(err, target) {
			return true
		}
	}

	return false
}

// Stats - counts of connections, waiting players, rooms and active sessions.
func (that *Coordinator) Stats() Snapshot {
	that.mu.Lock()
	defer that.mu.Unlock()

	snapshot := Snapshot{
		Connections:    len(that.connections),
		Rooms:          that.rooms.Len(),
		ActiveSessions: len(that.sessions),
	}

	if _, ok := that.queue.Waiting(); ok {
		snapshot.Waiting = 1
	}

	return snapshot
}

func (that *Coordinator) sessionOf(connID string) (*session.Session, bool) {
	sessionID, ok := that.sessionByConn[connID]
	if !ok {
		return nil, false
	}

	sess, ok := that.sessions[sessionID]

	return sess, ok
}

// startSession - indexes a new session for pairing and tells both sides their colour.
func (that *Coordinator) startSession(log *slog.Logger, pairing lobby.Pairing, origin string) *session.Session {
	sess := session.New(that.newID(), pairing.White, pairing.Black, that.oracle, that.now())
	sess.Origin = origin
	sess.RoomToken = pairing.Token

	that.sessions[sess.ID] = sess

	for _, connID := range sess.Participants() {
		that.sessionByConn[connID] = sess.ID
		that.queue.Remove(connID)
		that.rooms.Withdraw(connID, pairing.Token)
	}

	if pairing.Token != "" {
		that.rooms.Bind(pairing.Token, sess.ID)
	}

	that.sendColor(log, sess.White, entity.White)
	that.sendColor(log, sess.Black, entity.Black)

	log.Info("session started", "sessionID", sess.ID, "origin", origin, "white", sess.White, "black", sess.Black)

	return sess
}

// endSession - evicts a session that is no longer active and queues its record.
func (that *Coordinator) endSession(sess *session.Session) {
	delete(that.sessions, sess.ID)

	for _, connID := range sess.Participants() {
		if that.sessionByConn[connID] == sess.ID {
			delete(that.sessionByConn, connID)
		}
	}

	if sess.RoomToken != "" {
		that.rooms.Release(sess.RoomToken, sess.ID)
	}

	that.ended = append(that.ended, sess.Record())
}

func (that *Coordinator) takeEnded() []*entity.MatchRecord {
	ended := that.ended
	that.ended = nil

	return ended
}

// archiveRecords runs outside the registry lock.
func (that *Coordinator) archiveRecords(ctx context.Context, records []*entity.MatchRecord) {
	log := that.logger.With("method", "archiveRecords")

	for _, record := range records {
		if err := that.archive.Save(ctx, record); err != nil {
			log.Error("failed to archive match", "sessionID", record.ID, "error", err)
		}
	}
}

func (that *Coordinator) send(log *slog.Logger, connID string, frame []byte) {
	conn, ok := that.connections[connID]
	if !ok {
		log.Debug("recipient is gone", "recipient", connID)
		return
	}

	if err := conn.Send(frame); err != nil {
		log.Warn("failed to send message", "recipient", connID, "error", err)
	}
}

func (that *Coordinator) sendColor(log *slog.Logger, connID string, color entity.Color) {
	frame, err := protocol.InitGame(color)
	if err != nil {
		log.Error("failed to encode colour", "error", err)
		return
	}

	that.send(log, connID, frame)
}

func (that *Coordinator) sendGameOver(log *slog.Logger, outcome entity.Outcome, recipients ...string) {
	frame, err := protocol.GameOver(outcome)
	if err != nil {
		log.Error("failed to encode game over", "error", err)
		return
	}

	for _, connID := range recipients {
		that.send(log, connID, frame)
	}
}
