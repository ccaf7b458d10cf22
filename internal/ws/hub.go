package ws

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/kiwari-pos/tiffin/internal/enum"
)

// Event represents a WebSocket message to be broadcast
type Event struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// viewEvent routes an event to the clients showing one view
type viewEvent struct {
	View  string
	Event Event
}

// eventViews lists which views must re-read the store for each event type
var eventViews = map[string][]string{
	enum.EventMenuUpdated:    {enum.ViewOrdering, enum.ViewAdmin},
	enum.EventCartUpdated:    {enum.ViewOrdering},
	enum.EventOrderCompleted: {enum.ViewOrdering, enum.ViewAdmin},
}

// Hub maintains the set of active clients and broadcasts messages to them
type Hub struct {
	// Registered clients by the view they display
	rooms map[string]map[*Client]bool

	// Inbound messages from clients (register/unregister)
	register   chan *Client
	unregister chan *Client

	// Outbound messages to broadcast
	broadcast chan *viewEvent

	// Closed when Run returns, so register/unregister never block after shutdown
	done chan struct{}

	// Mutex for thread-safe room access
	mu sync.RWMutex
}

// NewHub creates a new Hub instance
func NewHub() *Hub {
	return &Hub{
		rooms:      make(map[string]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *viewEvent, 256),
		done:       make(chan struct{}),
	}
}

// Run starts the hub's main loop and returns when ctx is done.
// This should be called as a goroutine: go hub.Run(ctx)
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			close(h.done)
			h.closeAll()
			return

		case client := <-h.register:
			h.mu.Lock()
			if h.rooms[client.view] == nil {
				h.rooms[client.view] = make(map[*Client]bool)
			}
			h.rooms[client.view][client] = true
			h.mu.Unlock()

		case client := <-h.unregister:
			h.mu.Lock()
			h.remove(client)
			h.mu.Unlock()

		case event := <-h.broadcast:
			message, err := json.Marshal(event.Event)
			if err != nil {
				slog.Error("Failed to encode websocket event", "type", event.Event.Type, "error", err)
				continue
			}

			h.mu.Lock()
			for client := range h.rooms[event.View] {
				select {
				case client.send <- message:
				default:
					// Client's send buffer is full, close and unregister
					h.remove(client)
				}
			}
			h.mu.Unlock()
		}
	}
}

// Register adds client to its view room. It reports false once the hub has
// stopped, in which case the caller owns the client's connection.
func (h *Hub) Register(client *Client) bool {
	select {
	case h.register <- client:
		return true
	case <-h.done:
		return false
	}
}

// Unregister removes client from its view room. It is a no-op after shutdown.
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// remove drops client from its room. Callers hold h.mu.
func (h *Hub) remove(client *Client) {
	clients, ok := h.rooms[client.view]
	if !ok {
		return
	}
	if _, exists := clients[client]; !exists {
		return
	}
	delete(clients, client)
	close(client.send)
	// Clean up empty rooms
	if len(clients) == 0 {
		delete(h.rooms, client.view)
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, clients := range h.rooms {
		for client := range clients {
			h.remove(client)
		}
	}
}

// BroadcastToView sends an event to every client displaying view.
// The event is dropped when the hub is saturated so callers never block.
func (h *Hub) BroadcastToView(view string, event Event) {
	select {
	case h.broadcast <- &viewEvent{View: view, Event: event}:
	default:
		slog.Warn("Dropping websocket event, hub is saturated", "type", event.Type, "view", view)
	}
}

// Publish encodes payload and broadcasts an event of the given type to every
// view that depends on it.
func (h *Hub) Publish(eventType string, payload any) {
	event := Event{Type: eventType}
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			slog.Error("Failed to encode websocket payload", "type", eventType, "error", err)
			return
		}
		event.Payload = raw
	}
	for _, view := range eventViews[eventType] {
		h.BroadcastToView(view, event)
	}
}
