package rest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/rocketscienceinc/chess-backend/internal/entity"
	"github.com/rocketscienceinc/chess-backend/internal/usecase"
)

const shutdownTimeout = 5 * time.Second

type statsProvider interface {
	Stats() usecase.Snapshot
}

type matchFinder interface {
	GetByID(ctx context.Context, id string) (*entity.MatchRecord, error)
	Recent(ctx context.Context, limit int64) ([]*entity.MatchRecord, error)
}

type Server struct {
	logger  *slog.Logger
	stats   statsProvider
	matches matchFinder
}

func New(logger *slog.Logger, stats statsProvider, matches matchFinder) *Server {
	return &Server{
		logger:  logger.With("component", "rest"),
		stats:   stats,
		matches: matches,
	}
}

func (that *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /ping", that.handlePing)
	mux.HandleFunc("GET /stats", that.handleStats)
	mux.HandleFunc("GET /matches", that.handleRecentMatches)
	mux.HandleFunc("GET /matches/{id}", that.handleGetMatch)

	return mux
}

// Start - starts HTTP server and stops it when ctx is done.
func (that *Server) Start(ctx context.Context, port string) error {
	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      that.Handler(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  30 * time.Second,
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
