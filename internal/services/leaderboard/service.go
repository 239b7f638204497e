package leaderboard

import (
	"context"
	"log/slog"
	"sort"
	"sync"

	"snakearena/internal/dependencies/clock"
	"snakearena/internal/model"
	"snakearena/internal/storage"
)

// DefaultLimit caps how many rows the boards return.
const DefaultLimit = 20

// Service keeps the solo board in memory and persists multiplayer rounds.
type Service struct {
	store  storage.Store
	clock  clock.Clock
	logger *slog.Logger

	mu   sync.RWMutex
	solo []model.ScoreEntry
}

// New creates a new leaderboard Service.
func New(store storage.Store, clk clock.Clock, logger *slog.Logger) *Service {
	return &Service{
		store:  store,
		clock:  clk,
		logger: logger,
	}
}

// SubmitSolo records a self-reported solo score. The board stays sorted
// ascending and holds at most DefaultLimit rows.
func (s *Service) SubmitSolo(name string, score int) []model.ScoreEntry {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.solo = append(s.solo, model.ScoreEntry{Name: name, Score: score})
	sort.SliceStable(s.solo, func(i, j int) bool {
		return s.solo[i].Score < s.solo[j].Score
	})
	if len(s.solo) > DefaultLimit {
		s.solo = s.solo[:DefaultLimit]
	}

	return s.snapshotLocked()
}

// Solo returns a copy of the current solo board.
func (s *Service) Solo() []model.ScoreEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

func (s *Service) snapshotLocked() []model.ScoreEntry {
	out := make([]model.ScoreEntry, len(s.solo))
	copy(out, s.solo)
	return out
}

// RecordRound persists a finished multiplayer round, capture-free rounds
// included. Only rounds with no participants at all are skipped.
func (s *Service) RecordRound(ctx context.Context, ids []model.AccountID, names []string, score int) error {
	if len(ids) == 0 {
		return nil
	}

	entry := &model.LeaderboardEntry{
		IDs:      ids,
		Names:    names,
		Score:    score,
		Recorded: s.clock.Now(),
	}
	if err := s.store.AppendScore(ctx, entry); err != nil {
		return err
	}

	s.logger.Info("round recorded",
		slog.Int("score", score),
		slog.Int("participants", len(ids)),
	)
	return nil
}

// TopMultiplayer returns up to limit persisted rounds, ascending by score.
// A non-positive or oversized limit falls back to DefaultLimit.
func (s *Service) TopMultiplayer(ctx context.Context, limit int) ([]model.LeaderboardEntry, error) {
	if limit <= 0 || limit > DefaultLimit {
		limit = DefaultLimit
	}
	return s.store.TopScores(ctx, limit)
}
