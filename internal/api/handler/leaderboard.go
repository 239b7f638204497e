package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"snakearena/internal/api/apierr"
	"snakearena/internal/services/leaderboard"
)

// LeaderboardHandler serves the boards over plain HTTP, mainly for the CLI
// and for operators.
type LeaderboardHandler struct {
	board *leaderboard.Service
}

// NewLeaderboardHandler creates a LeaderboardHandler.
func NewLeaderboardHandler(board *leaderboard.Service) *LeaderboardHandler {
	return &LeaderboardHandler{board: board}
}

// GetMultiplayer handles GET /leaderboard. An optional limit query param
// caps the row count.
func (h *LeaderboardHandler) GetMultiplayer(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			apierr.WriteError(w, apierr.NewInvalidRequestError("limit must be an integer"))
			return
		}
		limit = parsed
	}

	entries, err := h.board.TopMultiplayer(r.Context(), limit)
	if err != nil {
		apierr.WriteError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"leaderboard": entries})
}

// GetSolo handles GET /leaderboard/solo.
func (h *LeaderboardHandler) GetSolo(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"leaderboard": h.board.Solo()})
}
