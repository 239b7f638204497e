// Package ws carries the realtime connection layer: the upgrade handler,
// per-connection read/write pumps and the broadcast hub.
package ws

import (
	"encoding/json"
	"log/slog"
	"sync"

	"snakearena/internal/protocol"
)

// Hub tracks connected clients and fans messages out to them. A client
// whose send queue is full gets the frame dropped rather than stalling the
// broadcast.
type Hub struct {
	logger *slog.Logger

	mu      sync.RWMutex
	clients map[string]*Client
}

// NewHub creates an empty Hub.
func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		logger:  logger,
		clients: make(map[string]*Client),
	}
}

// Register adds a client to the hub.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c.ID] = c
}

// Unregister removes a client and closes its send channel.
func (h *Hub) Unregister(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if c, ok := h.clients[id]; ok {
		delete(h.clients, id)
		close(c.send)
	}
}

// Count returns the number of registered clients.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Broadcast queues raw bytes to every client.
func (h *Hub) Broadcast(data []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, c := range h.clients {
		select {
		case c.send <- data:
		default:
			h.logger.Warn("send queue full, frame dropped", slog.String("conn_id", c.ID))
		}
	}
}

// SendTo queues raw bytes to one client. Reports whether the client was
// registered.
func (h *Hub) SendTo(id string, data []byte) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	c, ok := h.clients[id]
	if !ok {
		return false
	}
	select {
	case c.send <- data:
	default:
		h.logger.Warn("send queue full, frame dropped", slog.String("conn_id", c.ID))
	}
	return true
}

// BroadcastJSON marshals v once and broadcasts it.
func (h *Hub) BroadcastJSON(v any) {
	data, err := json.Marshal(v)
	if err != nil {
		h.logger.Error("broadcast marshal failed", slog.Any("error", err))
		return
	}
	h.Broadcast(data)
}

// SendJSON marshals v and sends it to one client.
func (h *Hub) SendJSON(id string, v any) bool {
	data, err := json.Marshal(v)
	if err != nil {
		h.logger.Error("send marshal failed", slog.Any("error", err))
		return false
	}
	return h.SendTo(id, data)
}

// PublishState implements the engine's publisher.
func (h *Hub) PublishState(state protocol.State) {
	h.BroadcastJSON(state)
}

// SendCreditsUpdate implements the engine's publisher.
func (h *Hub) SendCreditsUpdate(connID string, update protocol.CreditsUpdate) {
	h.SendJSON(connID, update)
}
