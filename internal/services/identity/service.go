package identity

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"snakearena/internal/dependencies/random"
	"snakearena/internal/model"
	"snakearena/internal/storage"
)

// signatureField is the payload key carrying the keyed digest; it is never
// part of the signed data itself.
const signatureField = "hash"

const idAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// Request is the identity-bearing part of a join message.
type Request struct {
	// Token is a previously issued reconnect credential.
	Token string
	// Auth is a signed external-identity payload (key/value pairs plus the
	// signature field).
	Auth map[string]string
	// Name is a freeform display name, the anonymous fallback.
	Name string
}

// Service resolves join requests to durable accounts
type Service struct {
	store    storage.Store
	random   random.Random
	botToken string
	logger   *slog.Logger
}

// New creates a new identity Service. botToken is the shared bot credential
// the external-identity signature is derived from.
func New(store storage.Store, rnd random.Random, botToken string, logger *slog.Logger) *Service {
	return &Service{
		store:    store,
		random:   rnd,
		botToken: botToken,
		logger:   logger,
	}
}

// Resolve tries, in order: reconnect token, signed external-identity
// payload, freeform display name. The first source that yields an account
// wins; if none do, the request is rejected with ErrInvalidAuth.
func (s *Service) Resolve(ctx context.Context, req Request) (*model.Account, error) {
	if req.Token != "" {
		account, err := s.store.AccountByToken(ctx, model.Token(req.Token))
		if err == nil {
			return account, nil
		}
		if !errors.Is(err, model.ErrAccountNotFound) {
			return nil, err
		}
		// Unknown token: fall through to the remaining sources.
	}

	if len(req.Auth) > 0 && s.verifySignature(req.Auth) {
		return s.resolveExternal(ctx, req.Auth)
	}

	if req.Name != "" {
		return s.createAccount(ctx, req.Name, "", "")
	}

	return nil, model.ErrInvalidAuth
}

// resolveExternal looks up or creates the account for a verified payload.
func (s *Service) resolveExternal(ctx context.Context, auth map[string]string) (*model.Account, error) {
	externalID := auth["id"]
	if externalID == "" {
		return nil, model.ErrInvalidAuth
	}

	account, err := s.store.AccountByExternalID(ctx, externalID)
	if err == nil {
		return account, nil
	}
	if !errors.Is(err, model.ErrAccountNotFound) {
		return nil, err
	}

	name := auth["first_name"]
	if name == "" {
		name = auth["username"]
	}
	return s.createAccount(ctx, name, externalID, auth["username"])
}

// createAccount persists a fresh account with zero credits, no cooldown and
// the least-used cosmetic emoji.
func (s *Service) createAccount(ctx context.Context, name, externalID, nickname string) (*model.Account, error) {
	emoji, err := s.leastUsedEmoji(ctx)
	if err != nil {
		return nil, err
	}

	account := &model.Account{
		Token:      model.Token("tok_" + s.random.String(22, idAlphabet)),
		ID:         model.AccountID("acc_" + s.random.String(12, idAlphabet)),
		Name:       name,
		Emoji:      emoji,
		ExternalID: externalID,
		Nickname:   nickname,
	}

	if err := s.store.CreateAccount(ctx, account); err != nil {
		return nil, err
	}

	s.logger.Info("account created",
		slog.String("account_id", string(account.ID)),
		slog.String("emoji", account.Emoji),
		slog.Bool("external", externalID != ""),
	)

	return account, nil
}

// leastUsedEmoji picks the least-assigned cosmetic, ties broken by the
// enumeration order of model.Emojis.
func (s *Service) leastUsedEmoji(ctx context.Context) (string, error) {
	counts, err := s.store.CosmeticCounts(ctx)
	if err != nil {
		return "", err
	}

	selected := model.Emojis[0]
	min := -1
	for _, emoji := range model.Emojis {
		if c := counts[emoji]; min < 0 || c < min {
			min = c
			selected = emoji
		}
	}
	return selected, nil
}

// verifySignature checks the keyed digest over the payload: the secret is
// the SHA-256 of the bot credential, the signed data is the canonically
// sorted, newline-joined key=value pairs excluding the signature field.
func (s *Service) verifySignature(auth map[string]string) bool {
	supplied, ok := auth[signatureField]
	if !ok || supplied == "" {
		return false
	}

	keys := make([]string, 0, len(auth))
	for k := range auth {
		if k == signatureField {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	lines := make([]string, len(keys))
	for i, k := range keys {
		lines[i] = fmt.Sprintf("%s=%s", k, auth[k])
	}

	secret := sha256.Sum256([]byte(s.botToken))
	mac := hmac.New(sha256.New, secret[:])
	mac.Write([]byte(strings.Join(lines, "\n")))
	want := mac.Sum(nil)

	got, err := hex.DecodeString(supplied)
	if err != nil {
		return false
	}
	return hmac.Equal(want, got)
}

// Sign computes the digest a trusted sender would attach to a payload.
// Exposed for the bot side and for tests.
func Sign(botToken string, payload map[string]string) string {
	keys := make([]string, 0, len(payload))
	for k := range payload {
		if k == signatureField {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	lines := make([]string, len(keys))
	for i, k := range keys {
		lines[i] = fmt.Sprintf("%s=%s", k, payload[k])
	}

	secret := sha256.Sum256([]byte(botToken))
	mac := hmac.New(sha256.New, secret[:])
	mac.Write([]byte(strings.Join(lines, "\n")))
	return hex.EncodeToString(mac.Sum(nil))
}
