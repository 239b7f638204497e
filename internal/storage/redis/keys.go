package redis

import (
	"fmt"

	"snakearena/internal/model"
)

// Key prefix for all arena data
const keyPrefix = "snakearena"

// accountKey returns the Redis key for an Account
func accountKey(token model.Token) string {
	return fmt.Sprintf("%s:account:%s", keyPrefix, token)
}

// externalIndexKey returns the Redis key for the external_id -> token index
func externalIndexKey(externalID string) string {
	return fmt.Sprintf("%s:idx:external:%s", keyPrefix, externalID)
}

// cosmeticsKey returns the Redis key for the cosmetic usage hash
func cosmeticsKey() string {
	return fmt.Sprintf("%s:cosmetics", keyPrefix)
}

// leaderboardKey returns the Redis key for the score-sorted leaderboard set
func leaderboardKey() string {
	return fmt.Sprintf("%s:mp_leaderboard", keyPrefix)
}
