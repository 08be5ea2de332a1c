package websocket

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/rocketscienceinc/chess-backend/internal/usecase"
)

const (
	shutdownTimeout   = 5 * time.Second
	defaultSendBuffer = 64
)

type coordinator interface {
	AddConnection(conn usecase.Connection)
	RemoveConnection(ctx context.Context, connID string)
	Dispatch(ctx context.Context, connID string, raw []byte)
}

type Server struct {
	logger      *slog.Logger
	coordinator coordinator
	upgrader    websocket.Upgrader
	sendBuffer  int
}

func New(logger *slog.Logger, coordinator coordinator, sendBuffer int) *Server {
	if sendBuffer < 1 {
		sendBuffer = defaultSendBuffer
	}

	return &Server{
		logger:      logger.With("component", "websocket"),
		coordinator: coordinator,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		sendBuffer: sendBuffer,
	}
}

// Handler - serves the websocket endpoint at /ws.
func (that *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", that.upgradeToWebSocket)

	return mux
}

// Start - starts WebSocket server and stops it when ctx is done.
func (that *Server) Start(ctx context.Context, port string) error {
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           that.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       30 * time.Second,
		BaseContext: func(net.Listener) context.Context {
			return ctx
		},
	}

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			that.logger.Error("failed to shut down server", "error", err)
		}
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

// upgradeToWebSocket - upgrades the request and runs the connection until either side closes it.
func (that *Server) upgradeToWebSocket(writer http.ResponseWriter, req *http.Request) {
	log := that.logger.With("method", "upgradeToWebSocket")

	conn, err := that.upgrader.Upgrade(writer, req, nil)
	if err != nil {
		log.Warn("failed to upgrade connection", "error", err)
		return
	}

	ctx := req.Context()
	peer := newClient(uuid.NewString(), conn, that.logger, that.sendBuffer)

	that.coordinator.AddConnection(peer)

	log.Info("WebSocket connection established", "connID", peer.id, "remote", req.RemoteAddr)

	go peer.writePump(ctx)
	peer.readPump(ctx, that.coordinator.Dispatch)

	that.coordinator.RemoveConnection(context.WithoutCancel(ctx), peer.id)

	log.Info("WebSocket connection closed", "connID", peer.id)
}
