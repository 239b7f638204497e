package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"snakearena/internal/model"
	"snakearena/internal/storage"
)

// Storage is an in-memory implementation of the storage interface
type Storage struct {
	mu sync.RWMutex

	accounts      map[model.Token]*model.Account
	externalIndex map[string]model.Token
	scores        []model.LeaderboardEntry
}

// New creates a new in-memory storage instance
func New() *Storage {
	return &Storage{
		accounts:      make(map[model.Token]*model.Account),
		externalIndex: make(map[string]model.Token),
	}
}

// Ensure Storage implements the interface
var _ storage.Store = (*Storage)(nil)

// Account operations

func (s *Storage) CreateAccount(ctx context.Context, account *model.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *account
	s.accounts[account.Token] = &cp
	if account.ExternalID != "" {
		s.externalIndex[account.ExternalID] = account.Token
	}
	return nil
}

func (s *Storage) AccountByToken(ctx context.Context, token model.Token) (*model.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	account, ok := s.accounts[token]
	if !ok {
		return nil, model.ErrAccountNotFound
	}
	cp := *account
	return &cp, nil
}

func (s *Storage) AccountByExternalID(ctx context.Context, externalID string) (*model.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	token, ok := s.externalIndex[externalID]
	if !ok {
		return nil, model.ErrAccountNotFound
	}
	account, ok := s.accounts[token]
	if !ok {
		return nil, model.ErrAccountNotFound
	}
	cp := *account
	return &cp, nil
}

func (s *Storage) UpdateCredits(ctx context.Context, token model.Token, credits int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	account, ok := s.accounts[token]
	if !ok {
		return model.ErrAccountNotFound
	}
	account.Credits = credits
	return nil
}

func (s *Storage) UpdateCooldown(ctx context.Context, token model.Token, until time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	account, ok := s.accounts[token]
	if !ok {
		return model.ErrAccountNotFound
	}
	account.CooldownUntil = until
	return nil
}

func (s *Storage) CosmeticCounts(ctx context.Context) (map[string]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	counts := make(map[string]int)
	for _, account := range s.accounts {
		if account.Emoji != "" {
			counts[account.Emoji]++
		}
	}
	return counts, nil
}

// Leaderboard operations

func (s *Storage) AppendScore(ctx context.Context, entry *model.LeaderboardEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scores = append(s.scores, *entry)
	return nil
}

func (s *Storage) TopScores(ctx context.Context, limit int) ([]model.LeaderboardEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := make([]model.LeaderboardEntry, len(s.scores))
	copy(entries, s.scores)
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Score < entries[j].Score
	})

	if limit >= 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}
