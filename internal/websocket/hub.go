package websocket

import (
	"context"
	"sync"

	"propintel-console/internal/pkg/logger"

	"github.com/google/uuid"
)

type Hub struct {
	// Connected console clients keyed by connection id.
	clients map[uuid.UUID]*Client

	register   chan *Client
	unregister chan *Client
	// Closed once Run has returned.
	done chan struct{}

	mu sync.RWMutex

	logger logger.ILogger
}

func NewHub(log logger.ILogger) *Hub {
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		clients:    make(map[uuid.UUID]*Client),
		logger:     log,
	}
}

// Run serves register/unregister requests until ctx is done, then drops every client.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.ID] = client
			count := len(h.clients)
			h.mu.Unlock()
			h.logger.Info("Hub", "Client registered", map[string]interface{}{"client_id": client.ID, "clients": count})

		case client := <-h.unregister:
			h.mu.Lock()
			h.removeLocked(client)
			h.mu.Unlock()

		case <-ctx.Done():
			h.mu.Lock()
			for _, client := range h.clients {
				h.removeLocked(client)
			}
			h.mu.Unlock()
			return
		}
	}
}

// Register adds a client. It reports false once the hub has stopped.
func (h *Hub) Register(client *Client) bool {
	select {
	case h.register <- client:
		return true
	case <-h.done:
		return false
	}
}

// Unregister removes a client. It is a no-op after the hub has stopped.
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

func (h *Hub) removeLocked(client *Client) {
	if current, ok := h.clients[client.ID]; ok && current == client {
		delete(h.clients, client.ID)
		close(client.Send)
		h.logger.Info("Hub", "Client unregistered", map[string]interface{}{"client_id": client.ID})
	}
}

// Broadcast sends a serialized event to every connected client.
// Clients whose buffer is full are dropped.
func (h *Hub) Broadcast(data []byte) {
	var slow []*Client

	h.mu.RLock()
	for _, client := range h.clients {
		select {
		case client.Send <- data:
		default:
			slow = append(slow, client)
		}
	}
	h.mu.RUnlock()

	if len(slow) == 0 {
		return
	}
	h.mu.Lock()
	for _, client := range slow {
		h.logger.Warn("Hub", "Client send buffer full, dropping connection", map[string]interface{}{"client_id": client.ID})
		h.removeLocked(client)
	}
	h.mu.Unlock()
}

// Count is the number of connected clients.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
