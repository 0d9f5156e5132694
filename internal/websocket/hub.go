// Package websocket pushes session lifecycle events to open portal pages, so
// a page learns about a teardown without waiting for its next navigation.
package websocket

import (
	"context"
	"encoding/json"
	"log/slog"

	"edu-task-portal/internal/event"
)

type Hub struct {
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	bus        event.Bus
	stats      chan chan int
	done       chan struct{}
}

func NewHub(bus event.Bus) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		bus:        bus,
		stats:      make(chan chan int),
		done:       make(chan struct{}),
	}
}

// Run fans bus events out to connected clients until ctx is done.
func (h *Hub) Run(ctx context.Context) {
	events, unsubscribe := h.bus.Subscribe()
	defer unsubscribe()
	defer close(h.done)

	defer func() {
		for client := range h.clients {
			close(client.send)
			delete(h.clients, client)
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case client := <-h.register:
			h.clients[client] = true
			slog.Debug("websocket client connected", "client_id", client.id, "clients", len(h.clients))
		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
		case reply := <-h.stats:
			reply <- len(h.clients)
		case e, ok := <-events:
			if !ok {
				return
			}
			message, err := json.Marshal(e)
			if err != nil {
				slog.Error("failed to marshal event", "type", e.Type, "error", err)
				continue
			}
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					// Slow consumer; it reconnects and reads GET /session.
					close(client.send)
					delete(h.clients, client)
				}
			}
		}
	}
}

func (h *Hub) join(c *Client) bool {
	select {
	case h.register <- c:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) leave(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// Clients reports the number of connected clients. It needs Run to be active.
func (h *Hub) Clients(ctx context.Context) int {
	reply := make(chan int, 1)
	select {
	case h.stats <- reply:
	case <-ctx.Done():
		return 0
	case <-h.done:
		return 0
	}
	select {
	case n := <-reply:
		return n
	case <-ctx.Done():
		return 0
	}
}
