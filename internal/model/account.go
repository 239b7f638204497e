package model

import "time"

// AccountID is the public identifier for an account, safe to broadcast.
type AccountID string

// Token is the opaque reconnect credential and the primary key of an account.
// It is only ever shared with the owning client.
type Token string

// Account is a durable player identity. Accounts are created on first
// successful join and never deleted.
type Account struct {
	Token         Token     `json:"token"`
	ID            AccountID `json:"id"`
	Name          string    `json:"name"`
	Emoji         string    `json:"emoji"`
	ExternalID    string    `json:"external_id,omitempty"`
	Nickname      string    `json:"nickname,omitempty"`
	Credits       int       `json:"credits"`
	CooldownUntil time.Time `json:"cooldown_until"`
}

// OnCooldown reports whether a lockout is still running at the given time.
// The cooldown is only meaningful while credits are zero.
func (a *Account) OnCooldown(now time.Time) bool {
	return a.Credits == 0 && a.CooldownUntil.After(now)
}

// Emojis is the fixed set of cosmetic identifiers, in enumeration order.
// New accounts get the least-used one, ties broken by this order.
var Emojis = []string{"🐍", "🐲", "🦎", "🐢", "🐸", "🦖", "🐉", "🪱"}
