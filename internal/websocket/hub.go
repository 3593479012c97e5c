// Package websocket pushes ledger and mission changes to connected clients.
package websocket

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/ZyrusXD/BMA-Voice/internal/ledger"
	"github.com/ZyrusXD/BMA-Voice/internal/model"
)

// Message is one live event. UserID scopes it: clients following a user only
// see that user's messages, clients following nobody see everything.
type Message struct {
	Type   string         `json:"type"`
	Entity string         `json:"entity"`
	Action string         `json:"action"`
	UserID int64          `json:"user_id,omitempty"`
	ID     int64          `json:"id,omitempty"`
	Extra  map[string]any `json:"extra,omitempty"`
}

// NewMessage creates a Message with the Type field derived from entity and action.
func NewMessage(entity, action string, userID, id int64, extra map[string]any) Message {
	return Message{
		Type:   fmt.Sprintf("%s_%s", entity, action),
		Entity: entity,
		Action: action,
		UserID: userID,
		ID:     id,
		Extra:  extra,
	}
}

// Hub maintains the set of active WebSocket clients and broadcasts messages.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]struct{}
	logger  *slog.Logger
}

// NewHub creates a new Hub.
func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		clients: make(map[*Client]struct{}),
		logger:  logger.With("component", "websocket"),
	}
}

// Register adds a client to the hub.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
}

// Unregister removes a client from the hub and closes its send channel.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
	h.mu.Unlock()
}

// Broadcast sends a message to every client following its user.
func (h *Hub) Broadcast(msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("marshal broadcast", "error", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.clients {
		if c.userID != 0 && c.userID != msg.UserID {
			continue
		}
		select {
		case c.send <- data:
		default:
			// Slow client; drop rather than block the ledger.
		}
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// PointsChanged implements ledger.Notifier.
func (h *Hub) PointsChanged(res ledger.Result) {
	extra := map[string]any{
		"delta":  res.Applied,
		"points": res.Points,
		"level":  res.Level,
		"title":  res.Title,
	}
	var entryID int64
	if res.Entry != nil {
		extra["action_type"] = res.Entry.ActionType
		entryID = res.Entry.ID
	}
	h.Broadcast(NewMessage("points", "changed", res.UserID, entryID, extra))

	if res.LevelChanged {
		h.Broadcast(NewMessage("level", "changed", res.UserID, 0, map[string]any{
			"level": res.Level,
			"title": res.Title,
		}))
	}
}

// MissionProgressed implements mission.ProgressNotifier.
func (h *Hub) MissionProgressed(m model.UserMission) {
	action := "progressed"
	if m.IsCompleted {
		action = "completed"
	}
	h.Broadcast(NewMessage("mission", action, m.UserID, m.ID, map[string]any{
		"title":    m.Mission.Title,
		"progress": m.CurrentProgress,
		"goal":     m.Mission.GoalCount,
		"bonus":    m.Mission.BonusPoints,
	}))
}
