// Package ws pushes schema and ingestion events to connected WebSocket
// clients.
package ws

import (
	"context"
	"log/slog"
	"sync"

	"nhooyr.io/websocket"
)

// StateProviderFunc returns the current registry state as JSON. It is sent to
// clients on connect and whenever they ask for a sync.
type StateProviderFunc func() ([]byte, error)

// Hub fans messages out to every connected client.
type Hub struct {
	clients    map[*Client]struct{}
	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	logger     *slog.Logger

	mu            sync.RWMutex
	stateProvider StateProviderFunc
}

// Client is one WebSocket connection.
type Client struct {
	hub  *Hub
	send chan []byte
	conn *websocket.Conn
}

func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		clients:    make(map[*Client]struct{}),
		broadcast:  make(chan []byte, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		logger:     logger,
	}
}

func (h *Hub) SetStateProvider(fn StateProviderFunc) {
	h.mu.Lock()
	h.stateProvider = fn
	h.mu.Unlock()
}

func (h *Hub) state() ([]byte, bool) {
	h.mu.RLock()
	fn := h.stateProvider
	h.mu.RUnlock()
	if fn == nil {
		return nil, false
	}
	data, err := fn()
	if err != nil {
		h.logger.Warn("state provider failed", "error", err)
		return nil, false
	}
	return data, true
}

// Run processes registrations and broadcasts until ctx is done.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for c := range h.clients {
				close(c.send)
				delete(h.clients, c)
			}
			h.mu.Unlock()
			return

		case c := <-h.register:
			h.mu.Lock()
			h.clients[c] = struct{}{}
			h.mu.Unlock()
			h.logger.Debug("websocket client connected")

		case c := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
			}
			h.mu.Unlock()
			h.logger.Debug("websocket client disconnected")

		case msg := <-h.broadcast:
			h.mu.Lock()
			for c := range h.clients {
				select {
				case c.send <- msg:
				default:
					// slow consumer
					close(c.send)
					delete(h.clients, c)
				}
			}
			h.mu.Unlock()
		}
	}
}

// Broadcast queues a raw message for every client. It is dropped once the
// hub has stopped.
func (h *Hub) Broadcast(message []byte) {
	select {
	case h.broadcast <- message:
	case <-h.done:
	}
}

// Publish broadcasts payload wrapped in a message of type typ.
func (h *Hub) Publish(typ MessageType, payload any) {
	msg, err := NewMessage(typ, payload)
	if err != nil {
		h.logger.Error("encoding websocket message", "type", typ, "error", err)
		return
	}
	h.Broadcast(msg)
}

func (h *Hub) PublishError(message string) {
	h.Publish(MsgError, map[string]string{"message": message})
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
