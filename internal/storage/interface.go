package storage

import (
	"context"
	"time"

	"snakearena/internal/model"
)

// Store defines the interface for data persistence
type Store interface {
	// Account operations
	CreateAccount(ctx context.Context, account *model.Account) error
	AccountByToken(ctx context.Context, token model.Token) (*model.Account, error)
	AccountByExternalID(ctx context.Context, externalID string) (*model.Account, error)
	UpdateCredits(ctx context.Context, token model.Token, credits int) error
	UpdateCooldown(ctx context.Context, token model.Token, until time.Time) error

	// CosmeticCounts returns how many accounts carry each cosmetic emoji.
	// Emojis never assigned may be absent from the map.
	CosmeticCounts(ctx context.Context) (map[string]int, error)

	// Leaderboard operations. Entries are append-only; TopScores returns at
	// most limit entries, ascending by score.
	AppendScore(ctx context.Context, entry *model.LeaderboardEntry) error
	TopScores(ctx context.Context, limit int) ([]model.LeaderboardEntry, error)
}
