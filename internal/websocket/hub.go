// Package websocket broadcasts refresh progress events to connected
// dashboard clients.
package websocket

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"hsecli/pkg/contracts/domain"
)

// Message is the envelope sent to clients.
type Message struct {
	Type      string    `json:"type"`
	Data      any       `json:"data,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Message types.
const (
	TypeProgress  = "operation:progress"
	TypeConnected = "connection:established"
)

// Hub maintains the set of active clients and broadcasts messages.
type Hub struct {
	mu         sync.RWMutex
	clients    map[*Client]bool
	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	closeOnce  sync.Once
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan []byte, 64),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
}

// Run processes register, unregister and broadcast events until the
// context is cancelled.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.shutdown()
			return
		case <-h.done:
			return
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			count := len(h.clients)
			h.mu.Unlock()
			slog.Debug("websocket client connected", slog.Int("clients", count))
			client.enqueue(mustMarshal(Message{Type: TypeConnected, Timestamp: time.Now().UTC()}))
		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			count := len(h.clients)
			h.mu.Unlock()
			slog.Debug("websocket client disconnected", slog.Int("clients", count))
		case message := <-h.broadcast:
			h.mu.Lock()
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					// Slow consumer: drop it rather than block the hub.
					delete(h.clients, client)
					close(client.send)
				}
			}
			h.mu.Unlock()
		}
	}
}

// Publish broadcasts a progress event. Implements operations.Publisher.
func (h *Hub) Publish(event domain.OperationProgress) {
	h.Broadcast(Message{Type: TypeProgress, Data: event, Timestamp: time.Now().UTC()})
}

// Broadcast sends a message to every connected client. Messages are
// dropped when the hub backlog is full.
func (h *Hub) Broadcast(msg Message) {
	data := mustMarshal(msg)
	select {
	case h.broadcast <- data:
	case <-h.done:
	default:
		slog.Warn("websocket broadcast backlog full, dropping message",
			slog.String("type", msg.Type))
	}
}

// notifyDisconnect hands a closing client back to the hub. Safe to call
// after the hub has stopped.
func (h *Hub) notifyDisconnect(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) shutdown() {
	h.closeOnce.Do(func() { close(h.done) })
	h.mu.Lock()
	defer h.mu.Unlock()
	for client := range h.clients {
		close(client.send)
		delete(h.clients, client)
	}
}

func mustMarshal(msg Message) []byte {
	data, err := json.Marshal(msg)
	if err != nil {
		// Message payloads are our own types; a marshal failure is a bug.
		slog.Error("websocket message marshal failed", slog.String("error", err.Error()))
		return []byte(`{"type":"error"}`)
	}
	return data
}
