package websocket

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 << 10
)

var (
	ErrConnectionClosed = errors.New("connection is closed")
	ErrSendBufferFull   = errors.New("send buffer is full")
)

// client is one websocket peer. Outbound frames are queued on send and written by writePump only.
type client struct {
	id     string
	conn   *websocket.Conn
	logger *slog.Logger

	send chan []byte
	done chan struct{}
	once sync.Once
}

func newClient(id string, conn *websocket.Conn, logger *slog.Logger, buffer int) *client {
	return &client{
		id:     id,
		conn:   conn,
		logger: logger.With("connID", id),
		send:   make(chan []byte, buffer),
		done:   make(chan struct{}),
	}
}

func (that *client) ID() string {
	return that.id
}

// Send - queues frame without blocking. A peer that cannot keep up is dropped.
func (that *client) Send(frame []byte) error {
	select {
	case <-that.done:
		return ErrConnectionClosed
	default:
	}

	select {
	case that.send <- frame:
		return nil
	default:
		that.close()
		return ErrSendBufferFull
	}
}

func (that *client) close() {
	that.once.Do(func() {
		close(that.done)
	})
}

// readPump - hands every inbound frame to dispatch until the peer goes away.
func (that *client) readPump(ctx context.Context, dispatch func(ctx context.Context, connID string, raw []byte)) {
	log := that.logger.With("method", "readPump")

	defer that.close()

	that.conn.SetReadLimit(maxMessageSize)
	_ = that.conn.SetReadDeadline(time.Now().Add(pongWait))
	that.conn.SetPongHandler(func(string) error {
		return that.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := that.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseNoStatusReceived) {
				log.Warn("connection closed unexpectedly", "error", err)
			}

			return
		}

		dispatch(ctx, that.id, raw)
	}
}

// writePump - the only writer of conn; pings the peer and closes conn on exit.
func (that *client) writePump(ctx context.Context) {
	log := that.logger.With("method", "writePump")

	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = that.conn.Close()
	}()

	for {
		select {
		case frame := <-that.send:
			_ = that.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := that.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				log.Debug("failed to write message", "error", err)
				that.close()
				return
			}

		case <-ticker.C:
			_ = that.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := that.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				that.close()
				return
			}

		case <-that.done:
			that.writeClose(websocket.CloseNormalClosure)
			return

		case <-ctx.Done():
			that.writeClose(websocket.CloseGoingAway)
			return
		}
	}
}

func (that *client) writeClose(code int) {
	message := websocket.FormatCloseMessage(code, "")
	_ = that.conn.WriteControl(websocket.CloseMessage, message, time.Now().Add(writeWait))
}
