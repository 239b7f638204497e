// Package api carries the HTTP surface: the router, the server wrapper and
// the REST handlers. The websocket endpoint is mounted here but its
// protocol lives in the ws package.
package api

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"snakearena/internal/api/handler"
	"snakearena/internal/middleware"
	"snakearena/internal/services/economy"
	"snakearena/internal/services/leaderboard"
)

// RouterConfig holds configuration for the API router
type RouterConfig struct {
	Logger           *slog.Logger
	EconomyService   *economy.Service
	LeaderboardSvc   *leaderboard.Service
	CreditsNotifier  handler.CreditsNotifier
	WebsocketHandler http.Handler
	BotToken         string
}

// NewRouter creates a new API router with all routes configured
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()

	leaderboardHandler := handler.NewLeaderboardHandler(cfg.LeaderboardSvc)
	paymentHandler := handler.NewPaymentHandler(cfg.EconomyService, cfg.CreditsNotifier, cfg.BotToken, cfg.Logger)

	loggingMiddleware := middleware.Logging(cfg.Logger)
	recoveryMiddleware := middleware.Recovery(cfg.Logger, middleware.DefaultPanicHandler)

	// The websocket route stays outside the logging middleware: its
	// ResponseWriter wrapper hides http.Hijacker, which the upgrade needs.
	r.Handle("/ws", cfg.WebsocketHandler).Methods(http.MethodGet)

	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(recoveryMiddleware)
	api.Use(loggingMiddleware)

	api.HandleFunc("/leaderboard", leaderboardHandler.GetMultiplayer).Methods(http.MethodGet)
	api.HandleFunc("/leaderboard/solo", leaderboardHandler.GetSolo).Methods(http.MethodGet)
	api.HandleFunc("/payments/confirm", paymentHandler.Confirm).Methods(http.MethodPost)

	api.HandleFunc("/health", healthHandler).Methods(http.MethodGet)

	return r
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}
