package websocket

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"mailpulse/internal/config"
	"mailpulse/internal/infrastructure"
	"mailpulse/pkg/contracts/domain"
)

// Message types pushed to clients.
const (
	TypeConnection    = "connection"
	TypeSummaryUpdate = "summary:update"
	TypeSessionClosed = "session:closed"
)

// ClientMetrics receives connect/disconnect events for gauge tracking.
type ClientMetrics interface {
	ClientConnected()
	ClientDisconnected()
}

// Hub maintains the set of active clients and broadcasts messages to them.
type Hub struct {
	cfg config.WebSocketConfig

	// Registered clients
	clients map[*Client]bool

	// Inbound messages to fan out to all clients
	broadcast chan []byte

	// Register/unregister requests from clients
	register   chan *Client
	unregister chan *Client

	mu      sync.RWMutex
	logger  *slog.Logger
	metrics ClientMetrics
}

// NewHub creates a hub with the given configuration. The metrics
// recorder may be nil.
func NewHub(cfg config.WebSocketConfig, logger *slog.Logger, metrics ClientMetrics) *Hub {
	if logger == nil {
		logger = infrastructure.GetLogger()
	}
	return &Hub{
		cfg:        cfg,
		clients:    make(map[*Client]bool),
		broadcast:  make(chan []byte, 64),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		logger:     logger.With(slog.String("component", "websocket.hub")),
		metrics:    metrics,
	}
}

// Run processes register, unregister and broadcast events until the
// context is cancelled.
func (h *Hub) Run(ctx context.Context) {
	h.logger.Info("WebSocket hub started")
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			h.logger.Info("WebSocket hub stopped")
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			count := len(h.clients)
			h.mu.Unlock()

			if h.metrics != nil {
				h.metrics.ClientConnected()
			}
			h.logger.Info("WebSocket client connected",
				slog.String("client_id", client.id),
				slog.String("remote_addr", client.remoteAddr),
				slog.Int("client_count", count))

			h.sendWelcome(client)

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
				if h.metrics != nil {
					h.metrics.ClientDisconnected()
				}
				h.logger.Info("WebSocket client disconnected",
					slog.String("client_id", client.id),
					slog.Int("client_count", len(h.clients)))
			}
			h.mu.Unlock()

		case message := <-h.broadcast:
			h.mu.RLock()
			clients := make([]*Client, 0, len(h.clients))
			for client := range h.clients {
				clients = append(clients, client)
			}
			h.mu.RUnlock()

			failCount := 0
			for _, client := range clients {
				select {
				case client.send <- message:
				default:
					// Client cannot keep up, drop it
					failCount++
					h.mu.Lock()
					if _, ok := h.clients[client]; ok {
						delete(h.clients, client)
						close(client.send)
						if h.metrics != nil {
							h.metrics.ClientDisconnected()
						}
					}
					h.mu.Unlock()
					h.logger.Warn("Client send buffer full, disconnecting",
						slog.String("client_id", client.id))
				}
			}

			if failCount > 0 {
				h.logger.Warn("Some clients failed to receive broadcast",
					slog.Int("client_count", len(clients)),
					slog.Int("fail_count", failCount))
			}
		}
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// NotifySummary broadcasts a recomputed summary for the given dataset
// session to all connected clients.
func (h *Hub) NotifySummary(sessionID string, summary *domain.AggregateSummary) {
	h.broadcastJSON(map[string]interface{}{
		"type":       TypeSummaryUpdate,
		"session_id": sessionID,
		"data":       summary,
		"timestamp":  time.Now().Format(time.RFC3339),
	})
}

// NotifySessionClosed tells clients a dataset session was deleted or
// expired so they can stop rendering it.
func (h *Hub) NotifySessionClosed(sessionID string) {
	h.broadcastJSON(map[string]interface{}{
		"type":       TypeSessionClosed,
		"session_id": sessionID,
		"timestamp":  time.Now().Format(time.RFC3339),
	})
}

func (h *Hub) broadcastJSON(message map[string]interface{}) {
	jsonData, err := json.Marshal(message)
	if err != nil {
		h.logger.Error("Error marshaling message",
			slog.String("error", err.Error()),
			slog.String("message_type", message["type"].(string)))
		return
	}
	h.broadcast <- jsonData
}

func (h *Hub) sendWelcome(client *Client) {
	welcome := map[string]interface{}{
		"type": TypeConnection,
		"data": map[string]interface{}{
			"status":    "connected",
			"client_id": client.id,
		},
		"timestamp": time.Now().Format(time.RFC3339),
	}
	jsonData, err := json.Marshal(welcome)
	if err != nil {
		h.logger.Error("Error marshaling welcome message", slog.String("error", err.Error()))
		return
	}
	select {
	case client.send <- jsonData:
	default:
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for client := range h.clients {
		close(client.send)
		delete(h.clients, client)
		if h.metrics != nil {
			h.metrics.ClientDisconnected()
		}
	}
}
