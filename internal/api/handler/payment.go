package handler

import (
	"crypto/subtle"
	"encoding/json"
	"log/slog"
	"net/http"

	"snakearena/internal/api/apierr"
	"snakearena/internal/model"
	"snakearena/internal/services/economy"
)

// botTokenHeader authenticates the payment bot's confirmation callbacks.
const botTokenHeader = "X-Bot-Token"

// CreditsNotifier pushes a changed balance to the account's live
// connection, if any.
type CreditsNotifier interface {
	NotifyCredits(account *model.Account)
}

// PaymentHandler applies confirmed payments to accounts. Calls come from
// the payment bot, not from players.
type PaymentHandler struct {
	economy  *economy.Service
	notifier CreditsNotifier
	botToken string
	logger   *slog.Logger
}

// NewPaymentHandler creates a PaymentHandler.
func NewPaymentHandler(eco *economy.Service, notifier CreditsNotifier, botToken string, logger *slog.Logger) *PaymentHandler {
	return &PaymentHandler{
		economy:  eco,
		notifier: notifier,
		botToken: botToken,
		logger:   logger,
	}
}

type confirmPaymentRequest struct {
	Token model.Token `json:"token"`
}

type confirmPaymentResponse struct {
	Credits int `json:"credits"`
}

// Confirm handles POST /payments/confirm, crediting the paid-for bundle to
// the account named in the body.
func (h *PaymentHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	supplied := r.Header.Get(botTokenHeader)
	if subtle.ConstantTimeCompare([]byte(supplied), []byte(h.botToken)) != 1 {
		apierr.WriteError(w, apierr.NewUnauthorizedError())
		return
	}

	var req confirmPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Token == "" {
		apierr.WriteError(w, apierr.NewInvalidRequestError("token is required"))
		return
	}

	account, err := h.economy.Grant(r.Context(), req.Token, economy.GrantAmount)
	if err != nil {
		apierr.WriteError(w, err)
		return
	}

	h.logger.Info("payment confirmed",
		slog.String("account_id", string(account.ID)),
		slog.Int("credits", account.Credits),
	)
	if h.notifier != nil {
		h.notifier.NotifyCredits(account)
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(confirmPaymentResponse{Credits: account.Credits})
}
