// Package protocol defines the closed set of messages exchanged over a
// client connection. Inbound payloads are validated here, at the boundary,
// before they reach any component logic.
package protocol

import (
	"encoding/json"
	"fmt"

	"snakearena/internal/model"
)

// Client -> server message kinds.
const (
	TypeJoin        = "join"
	TypeMove        = "move"
	TypeLeave       = "leave"
	TypeSubmitScore = "submit-score"
	TypeGetInvoice  = "get-invoice"
)

// Server -> client message kinds.
const (
	TypeInit          = "init"
	TypeState         = "state"
	TypeCreditsUpdate = "credits-update"
	TypeJoinDenied    = "join-denied"
	TypeLeaderboard   = "leaderboard"
	TypeMPLeaderboard = "mp-leaderboard"
	TypeInvoiceLink   = "invoice-link"
	TypeError         = "error"
)

// ClientMessage is one decoded inbound message.
type ClientMessage interface {
	isClientMessage()
}

// Join requests admission. Token, Auth and Name are each optional; identity
// resolution tries them in that order.
type Join struct {
	Token string
	Auth  map[string]string
	Name  string
}

// Move is a single-step avatar movement intent.
type Move struct {
	Dir model.Direction
}

// Leave withdraws the session without closing the connection.
type Leave struct{}

// SubmitScore posts a solo-mode result to the shared leaderboard.
type SubmitScore struct {
	Name  string
	Score int
}

// GetInvoice asks for a payment link.
type GetInvoice struct{}

// Chat is any free-text payload. Only the credit-code side channel is
// interpreted; everything else about chat lives outside this server.
type Chat struct {
	Text string
}

func (Join) isClientMessage()        {}
func (Move) isClientMessage()        {}
func (Leave) isClientMessage()       {}
func (SubmitScore) isClientMessage() {}
func (GetInvoice) isClientMessage()  {}
func (Chat) isClientMessage()        {}

// rawClient is the union of all structured inbound fields.
type rawClient struct {
	Type  string            `json:"type"`
	Token string            `json:"token"`
	Auth  map[string]string `json:"auth"`
	Name  string            `json:"name"`
	Dir   string            `json:"dir"`
	Score *int              `json:"score"`
}

// DecodeClient parses one inbound frame. Payloads that are not a JSON object
// with a "type" field are chat text. A recognized type with a bad payload,
// or an unrecognized type, is an error.
func DecodeClient(data []byte) (ClientMessage, error) {
	var raw rawClient
	if err := json.Unmarshal(data, &raw); err != nil || raw.Type == "" {
		return Chat{Text: string(data)}, nil
	}

	switch raw.Type {
	case TypeJoin:
		return Join{Token: raw.Token, Auth: raw.Auth, Name: raw.Name}, nil
	case TypeMove:
		dir, ok := model.ParseDirection(raw.Dir)
		if !ok {
			return nil, fmt.Errorf("%w: bad direction %q", model.ErrInvalidMessage, raw.Dir)
		}
		return Move{Dir: dir}, nil
	case TypeLeave:
		return Leave{}, nil
	case TypeSubmitScore:
		if raw.Name == "" || raw.Score == nil {
			return nil, fmt.Errorf("%w: submit-score requires name and score", model.ErrInvalidMessage)
		}
		return SubmitScore{Name: raw.Name, Score: *raw.Score}, nil
	case TypeGetInvoice:
		return GetInvoice{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", model.ErrUnknownMessage, raw.Type)
	}
}

// Init is sent once after a successful join.
type Init struct {
	Type    string          `json:"type"`
	ID      model.AccountID `json:"id"`
	Emoji   string          `json:"emoji"`
	Name    string          `json:"name"`
	Token   model.Token     `json:"token"`
	Credits int             `json:"credits"`
}

// SnakeState is the broadcast pose of the shared snake.
type SnakeState struct {
	X      int           `json:"x"`
	Y      int           `json:"y"`
	Tail   []model.Point `json:"tail"`
	Length int           `json:"length"`
}

// SessionState is one active avatar in a snapshot.
type SessionState struct {
	ID    model.AccountID `json:"id"`
	X     int             `json:"x"`
	Y     int             `json:"y"`
	Emoji string          `json:"emoji"`
	Name  string          `json:"name"`
}

// State is the per-tick world snapshot.
type State struct {
	Type     string         `json:"type"`
	Snake    SnakeState     `json:"snake"`
	Sessions []SessionState `json:"sessions"`
	Score    int            `json:"score"`
}

// CreditsUpdate reports a changed credit balance to one client. Cooldown is
// the lockout expiry in unix milliseconds, zero when none is running.
type CreditsUpdate struct {
	Type        string `json:"type"`
	Credits     int    `json:"credits"`
	Cooldown    int64  `json:"cooldown"`
	WaitMinutes int    `json:"waitMinutes"`
}

// JoinDenied reports an economy-gate denial with a wait estimate.
type JoinDenied struct {
	Type        string `json:"type"`
	WaitMinutes int    `json:"waitMinutes"`
}

// Leaderboard carries the solo-mode board.
type Leaderboard struct {
	Type    string             `json:"type"`
	Entries []model.ScoreEntry `json:"leaderboard"`
}

// MPLeaderboard carries the durable multiplayer board.
type MPLeaderboard struct {
	Type    string                   `json:"type"`
	Entries []model.LeaderboardEntry `json:"leaderboard"`
}

// InvoiceLink answers a get-invoice request.
type InvoiceLink struct {
	Type string `json:"type"`
	Link string `json:"link"`
}

// ErrorMessage reports a request failure without closing the connection.
type ErrorMessage struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// NewInit builds an Init for an account.
func NewInit(a *model.Account) Init {
	return Init{
		Type:    TypeInit,
		ID:      a.ID,
		Emoji:   a.Emoji,
		Name:    a.Name,
		Token:   a.Token,
		Credits: a.Credits,
	}
}

// NewCreditsUpdate builds a CreditsUpdate from an account's balance.
func NewCreditsUpdate(a *model.Account) CreditsUpdate {
	update := CreditsUpdate{
		Type:    TypeCreditsUpdate,
		Credits: a.Credits,
	}
	if !a.CooldownUntil.IsZero() {
		update.Cooldown = a.CooldownUntil.UnixMilli()
	}
	return update
}

// NewError builds an ErrorMessage from an error.
func NewError(err error) ErrorMessage {
	return ErrorMessage{Type: TypeError, Message: err.Error()}
}
