package ws

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"

	"snakearena/internal/dependencies/random"
	"snakearena/internal/model"
	"snakearena/internal/protocol"
	"snakearena/internal/services/economy"
	"snakearena/internal/services/identity"
	"snakearena/internal/services/leaderboard"
	"snakearena/internal/services/session"
)

const connIDAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The arena is open to any origin, like the rest of the public API.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Handler upgrades connections and dispatches their messages to the
// component services.
type Handler struct {
	hub      *Hub
	sessions *session.Manager
	economy  *economy.Service
	board    *leaderboard.Service
	random   random.Random
	logger   *slog.Logger

	invoiceLink string
}

// NewHandler creates a websocket Handler.
func NewHandler(
	hub *Hub,
	sessions *session.Manager,
	eco *economy.Service,
	board *leaderboard.Service,
	rnd random.Random,
	invoiceLink string,
	logger *slog.Logger,
) *Handler {
	return &Handler{
		hub:         hub,
		sessions:    sessions,
		economy:     eco,
		board:       board,
		random:      rnd,
		logger:      logger,
		invoiceLink: invoiceLink,
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("upgrade failed", slog.Any("error", err))
		return
	}

	connID := "conn_" + h.random.String(12, connIDAlphabet)
	client := &Client{
		ID:     connID,
		conn:   conn,
		send:   make(chan []byte, sendBuffer),
		logger: h.logger,
	}

	h.hub.Register(client)
	h.sessions.ConnOpened(connID)
	h.logger.Info("client connected", slog.String("conn_id", connID))

	ctx := r.Context()
	h.sendBoards(ctx, connID)

	go client.writePump()
	client.readPump(
		func(data []byte) { h.dispatch(ctx, connID, data) },
		func() { h.closed(connID) },
	)
}

// sendBoards pushes both leaderboards to a freshly connected client.
func (h *Handler) sendBoards(ctx context.Context, connID string) {
	h.hub.SendJSON(connID, protocol.Leaderboard{
		Type:    protocol.TypeLeaderboard,
		Entries: h.board.Solo(),
	})

	entries, err := h.board.TopMultiplayer(ctx, 0)
	if err != nil {
		h.logger.Error("leaderboard read failed", slog.Any("error", err))
		return
	}
	h.hub.SendJSON(connID, protocol.MPLeaderboard{
		Type:    protocol.TypeMPLeaderboard,
		Entries: entries,
	})
}

func (h *Handler) dispatch(ctx context.Context, connID string, data []byte) {
	msg, err := protocol.DecodeClient(data)
	if err != nil {
		h.hub.SendJSON(connID, protocol.NewError(err))
		return
	}

	switch m := msg.(type) {
	case protocol.Join:
		h.handleJoin(ctx, connID, m)
	case protocol.Move:
		h.sessions.MoveAvatar(connID, m.Dir)
	case protocol.Leave:
		h.sessions.Leave(connID)
	case protocol.SubmitScore:
		board := h.board.SubmitSolo(m.Name, m.Score)
		h.hub.BroadcastJSON(protocol.Leaderboard{
			Type:    protocol.TypeLeaderboard,
			Entries: board,
		})
	case protocol.GetInvoice:
		h.hub.SendJSON(connID, protocol.InvoiceLink{
			Type: protocol.TypeInvoiceLink,
			Link: h.invoiceLink,
		})
	case protocol.Chat:
		h.handleChat(ctx, connID, m)
	}
}

func (h *Handler) handleJoin(ctx context.Context, connID string, m protocol.Join) {
	result, err := h.sessions.Join(ctx, connID, identity.Request{
		Token: m.Token,
		Auth:  m.Auth,
		Name:  m.Name,
	})
	if err != nil {
		// Identity and duplicate-session failures are the client's to hear.
		// Anything else is an internal fault: log it and answer with the
		// generic auth failure so storage detail never crosses the wire.
		if !errors.Is(err, model.ErrInvalidAuth) && !errors.Is(err, model.ErrAccountActive) {
			h.logger.Error("join failed", slog.String("conn_id", connID), slog.Any("error", err))
			err = model.ErrInvalidAuth
		}
		h.hub.SendJSON(connID, protocol.NewError(err))
		return
	}

	switch result.Outcome {
	case session.JoinAdmitted:
		h.hub.SendJSON(connID, protocol.NewInit(result.Account))
	case session.JoinDenied:
		h.hub.SendJSON(connID, protocol.JoinDenied{
			Type:        protocol.TypeJoinDenied,
			WaitMinutes: result.WaitMinutes,
		})
	case session.JoinIgnored:
		// Stale or duplicate join, nothing to say.
	}
}

// handleChat checks free text for the daily credit code. Works for any
// connection that has resolved an account, live session or not.
func (h *Handler) handleChat(ctx context.Context, connID string, m protocol.Chat) {
	token, ok := h.sessions.RememberedToken(connID)
	if !ok {
		return
	}
	account, matched, err := h.economy.ApplySecretCode(ctx, token, m.Text)
	if err != nil {
		h.logger.Error("code redemption failed", slog.Any("error", err))
		return
	}
	if !matched {
		return
	}
	h.hub.SendJSON(connID, protocol.NewCreditsUpdate(account))
}

func (h *Handler) closed(connID string) {
	h.sessions.ConnClosed(connID)
	h.hub.Unregister(connID)
	h.logger.Info("client disconnected", slog.String("conn_id", connID))
}
