package model

import "time"

// LeaderboardEntry is one multiplayer round result. Entries are append-only.
type LeaderboardEntry struct {
	IDs      []AccountID `json:"ids"`
	Names    []string    `json:"names"`
	Score    int         `json:"score"`
	Recorded time.Time   `json:"recorded"`
}

// ScoreEntry is one solo-mode leaderboard row, kept in memory only.
type ScoreEntry struct {
	Name  string `json:"name"`
	Score int    `json:"score"`
}
