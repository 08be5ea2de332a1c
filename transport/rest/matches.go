package rest

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/rocketscienceinc/chess-backend/internal/apperror"
)

const (
	defaultRecentLimit = 20
	maxRecentLimit     = 100
)

func (that *Server) handleStats(w http.ResponseWriter, _ *http.Request) {
	that.writeJSON(w, http.StatusOK, that.stats.Stats())
}

func (that *Server) handleGetMatch(w http.ResponseWriter, r *http.Request) {
	log := that.logger.With("method", "handleGetMatch")

	record, err := that.matches.GetByID(r.Context(), r.PathValue("id"))
	if errors.Is(err, apperror.ErrMatchNotFound) {
		that.writeError(w, http.StatusNotFound, err.Error())
		return
	}

	if err != nil {
		log.Error("failed to get match", "error", err)
		that.writeError(w, http.StatusInternalServerError, "failed to get match")
		return
	}

	that.writeJSON(w, http.StatusOK, record)
}

// handleRecentMatches - lists archived matches newest first; ?limit= caps the count.
func (that *Server) handleRecentMatches(w http.ResponseWriter, r *http.Request) {
	log := that.logger.With("method", "handleRecentMatches")

	limit := int64(defaultRecentLimit)
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || parsed < 1 {
			that.writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}

		limit = min(parsed, maxRecentLimit)
	}

	records, err := that.matches.Recent(r.Context(), limit)
	if err != nil {
		log.Error("failed to list matches", "error", err)
		that.writeError(w, http.StatusInternalServerError, "failed to list matches")
		return
	}

	that.writeJSON(w, http.StatusOK, records)
}

func (that *Server) writeError(w http.ResponseWriter, status int, message string) {
	that.writeJSON(w, status, map[string]string{"error": message})
}

func (that *Server) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(body); err != nil {
		that.logger.Error("failed to write response", "error", err)
	}
}
