package redis

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"snakearena/internal/model"
	"snakearena/internal/storage"
)

// Storage is a Redis-backed implementation of the storage interface.
// Accounts are stored as JSON values, which keeps reads tolerant of columns
// added after the data was written: unknown fields are ignored and missing
// fields decode to zero values.
type Storage struct {
	client *redis.Client
}

// New creates a new Redis storage instance
func New(cfg Config) (*Storage, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}

	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns

	client := redis.NewClient(opts)

	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return &Storage{client: client}, nil
}

// NewWithClient creates a Redis storage with an existing client (for testing)
func NewWithClient(client *redis.Client) *Storage {
	return &Storage{client: client}
}

// Close closes the Redis connection
func (s *Storage) Close() error {
	return s.client.Close()
}

// Ensure Storage implements the interface
var _ storage.Store = (*Storage)(nil)

// Account operations

func (s *Storage) CreateAccount(ctx context.Context, account *model.Account) error {
	data, err := json.Marshal(account)
	if err != nil {
		return err
	}

	// Use pipeline for atomic save + index + cosmetic count update
	pipe := s.client.Pipeline()
	pipe.Set(ctx, accountKey(account.Token), data, 0)
	if account.ExternalID != "" {
		pipe.Set(ctx, externalIndexKey(account.ExternalID), string(account.Token), 0)
	}
	if account.Emoji != "" {
		pipe.HIncrBy(ctx, cosmeticsKey(), account.Emoji, 1)
	}
	_, err = pipe.Exec(ctx)
	return err
}

func (s *Storage) AccountByToken(ctx context.Context, token model.Token) (*model.Account, error) {
	data, err := s.client.Get(ctx, accountKey(token)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrAccountNotFound
		}
		return nil, err
	}

	var account model.Account
	if err := json.Unmarshal(data, &account); err != nil {
		return nil, err
	}
	return &account, nil
}

func (s *Storage) AccountByExternalID(ctx context.Context, externalID string) (*model.Account, error) {
	token, err := s.client.Get(ctx, externalIndexKey(externalID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrAccountNotFound
		}
		return nil, err
	}

	return s.AccountByToken(ctx, model.Token(token))
}

func (s *Storage) UpdateCredits(ctx context.Context, token model.Token, credits int) error {
	return s.updateAccount(ctx, token, func(account *model.Account) {
		account.Credits = credits
	})
}

func (s *Storage) UpdateCooldown(ctx context.Context, token model.Token, until time.Time) error {
	return s.updateAccount(ctx, token, func(account *model.Account) {
		account.CooldownUntil = until
	})
}

// updateAccount applies a read-modify-write cycle on one account value.
func (s *Storage) updateAccount(ctx context.Context, token model.Token, mutate func(*model.Account)) error {
	account, err := s.AccountByToken(ctx, token)
	if err != nil {
		return err
	}

	mutate(account)

	data, err := json.Marshal(account)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, accountKey(token), data, 0).Err()
}

func (s *Storage) CosmeticCounts(ctx context.Context) (map[string]int, error) {
	raw, err := s.client.HGetAll(ctx, cosmeticsKey()).Result()
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int, len(raw))
	for emoji, value := range raw {
		n, err := strconv.Atoi(value)
		if err != nil {
			continue
		}
		counts[emoji] = n
	}
	return counts, nil
}

// Leaderboard operations

func (s *Storage) AppendScore(ctx context.Context, entry *model.LeaderboardEntry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}

	return s.client.ZAdd(ctx, leaderboardKey(), redis.Z{
		Score:  float64(entry.Score),
		Member: string(data),
	}).Err()
}

func (s *Storage) TopScores(ctx context.Context, limit int) ([]model.LeaderboardEntry, error) {
	if limit == 0 {
		return []model.LeaderboardEntry{}, nil
	}

	stop := int64(limit - 1)
	if limit < 0 {
		stop = -1
	}

	members, err := s.client.ZRange(ctx, leaderboardKey(), 0, stop).Result()
	if err != nil {
		return nil, err
	}

	entries := make([]model.LeaderboardEntry, 0, len(members))
	for _, member := range members {
		var entry model.LeaderboardEntry
		if err := json.Unmarshal([]byte(member), &entry); err != nil {
			continue // Skip invalid data
		}
		entries = append(entries, entry)
	}
	return entries, nil
}
