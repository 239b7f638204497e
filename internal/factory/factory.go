// Package factory wires the application graph: storage, services, the
// simulation engine and the connection layer.
package factory

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"snakearena/internal/api"
	"snakearena/internal/dependencies/clock"
	"snakearena/internal/dependencies/random"
	"snakearena/internal/game"
	"snakearena/internal/model"
	"snakearena/internal/protocol"
	"snakearena/internal/services/economy"
	"snakearena/internal/services/identity"
	"snakearena/internal/services/leaderboard"
	"snakearena/internal/services/session"
	"snakearena/internal/storage"
	"snakearena/internal/storage/memory"
	redisstorage "snakearena/internal/storage/redis"
	"snakearena/internal/ws"
)

// Storage type constants
const (
	StorageTypeMemory = "memory"
	StorageTypeRedis  = "redis"
)

// App contains all wired application components
type App struct {
	Storage storage.Store

	Clock  clock.Clock
	Random random.Random

	IdentityService    *identity.Service
	EconomyService     *economy.Service
	LeaderboardService *leaderboard.Service
	SessionManager     *session.Manager

	Hub    *ws.Hub
	Engine *game.Engine

	config Config
	logger *slog.Logger
}

// Config holds configuration for the application factory
type Config struct {
	// Logger is the application logger (optional)
	// If nil, a no-op logger is used
	Logger *slog.Logger
	// StorageType selects the storage backend ("memory" or "redis")
	// If empty, defaults to "memory"
	StorageType string
	// RedisConfig holds Redis connection settings (required if StorageType is "redis")
	RedisConfig *redisstorage.Config
	// BotToken is the shared payment-bot credential. It authenticates
	// payment callbacks and anchors the join signature scheme.
	BotToken string
	// InvoiceLink is handed to clients asking how to buy credits.
	InvoiceLink string
}

// New creates a new application with all dependencies wired
func New(cfg Config) (*App, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	var store storage.Store
	storageType := cfg.StorageType
	if storageType == "" {
		storageType = StorageTypeMemory
	}

	switch storageType {
	case StorageTypeMemory:
		store = memory.New()
	case StorageTypeRedis:
		if cfg.RedisConfig == nil {
			return nil, errors.New("RedisConfig required when StorageType is redis")
		}
		redisStore, err := redisstorage.New(*cfg.RedisConfig)
		if err != nil {
			return nil, err
		}
		store = redisStore
	default:
		return nil, errors.New("invalid StorageType: must be 'memory' or 'redis'")
	}

	return newWithDependencies(store, clock.New(), random.New(), cfg, logger), nil
}

// newWithDependencies creates an App with the given dependencies (useful for testing)
func newWithDependencies(store storage.Store, clk clock.Clock, rnd random.Random, cfg Config, logger *slog.Logger) *App {
	identityService := identity.New(store, rnd, cfg.BotToken, logger)
	economyService := economy.New(store, clk, logger)
	leaderboardService := leaderboard.New(store, clk, logger)
	sessionManager := session.NewManager(identityService, economyService, rnd, logger)

	hub := ws.NewHub(logger)
	engine := game.NewEngine(sessionManager, economyService, leaderboardService, hub, logger)
	sessionManager.SetObstacleSource(engine)

	return &App{
		Storage:            store,
		Clock:              clk,
		Random:             rnd,
		IdentityService:    identityService,
		EconomyService:     economyService,
		LeaderboardService: leaderboardService,
		SessionManager:     sessionManager,
		Hub:                hub,
		Engine:             engine,
		config:             cfg,
		logger:             logger,
	}
}

// Router builds the full HTTP handler, websocket endpoint included.
func (a *App) Router() http.Handler {
	wsHandler := ws.NewHandler(
		a.Hub,
		a.SessionManager,
		a.EconomyService,
		a.LeaderboardService,
		a.Random,
		a.config.InvoiceLink,
		a.logger,
	)

	return api.NewRouter(api.RouterConfig{
		Logger:           a.logger,
		EconomyService:   a.EconomyService,
		LeaderboardSvc:   a.LeaderboardService,
		CreditsNotifier:  &creditsNotifier{sessions: a.SessionManager, hub: a.Hub},
		WebsocketHandler: wsHandler,
		BotToken:         a.config.BotToken,
	})
}

// creditsNotifier pushes payment grants to whichever connections have
// resolved the paid account.
type creditsNotifier struct {
	sessions *session.Manager
	hub      *ws.Hub
}

func (n *creditsNotifier) NotifyCredits(account *model.Account) {
	for _, connID := range n.sessions.RememberingConns(account.Token) {
		n.hub.SendJSON(connID, protocol.NewCreditsUpdate(account))
	}
}
