package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/kiwari-pos/tiffin/internal/enum"
)

// mockClient creates a client for testing without a real WebSocket connection
func mockClient(hub *Hub, view string) *Client {
	return &Client{
		hub:  hub,
		view: view,
		send: make(chan []byte, 256),
	}
}

func runHub(t *testing.T) *Hub {
	t.Helper()
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)
	return hub
}

func receive(t *testing.T, c *Client) Event {
	t.Helper()
	select {
	case msg := <-c.send:
		var received Event
		if err := json.Unmarshal(msg, &received); err != nil {
			t.Fatalf("failed to unmarshal message: %v", err)
		}
		return received
	case <-time.After(100 * time.Millisecond):
		t.Fatalf("%s client did not receive message", c.view)
	}
	return Event{}
}

func expectSilence(t *testing.T, c *Client) {
	t.Helper()
	select {
	case msg := <-c.send:
		t.Fatalf("%s client should not receive %s", c.view, msg)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHubRegistration(t *testing.T) {
	hub := runHub(t)
	client := mockClient(hub, enum.ViewOrdering)

	hub.register <- client
	time.Sleep(10 * time.Millisecond)

	hub.mu.RLock()
	defer hub.mu.RUnlock()

	if hub.rooms[enum.ViewOrdering] == nil {
		t.Fatal("view room not created")
	}
	if !hub.rooms[enum.ViewOrdering][client] {
		t.Fatal("client not registered in view room")
	}
}

func TestHubCleanupEmptyRoom(t *testing.T) {
	hub := runHub(t)
	client1 := mockClient(hub, enum.ViewAdmin)
	client2 := mockClient(hub, enum.ViewAdmin)

	hub.register <- client1
	hub.register <- client2
	time.Sleep(10 * time.Millisecond)

	hub.mu.RLock()
	if len(hub.rooms[enum.ViewAdmin]) != 2 {
		t.Fatalf("expected 2 clients, got %d", len(hub.rooms[enum.ViewAdmin]))
	}
	hub.mu.RUnlock()

	hub.unregister <- client1
	time.Sleep(10 * time.Millisecond)

	hub.mu.RLock()
	if len(hub.rooms[enum.ViewAdmin]) != 1 {
		t.Fatalf("expected 1 client after first unregister, got %d", len(hub.rooms[enum.ViewAdmin]))
	}
	hub.mu.RUnlock()

	hub.unregister <- client2
	time.Sleep(10 * time.Millisecond)

	hub.mu.RLock()
	if hub.rooms[enum.ViewAdmin] != nil {
		t.Fatal("room should be deleted when last client unregisters")
	}
	hub.mu.RUnlock()

	// A second unregister of the same client must not panic on a closed channel
	hub.unregister <- client2
	time.Sleep(10 * time.Millisecond)
}

func TestBroadcastToView(t *testing.T) {
	hub := runHub(t)
	ordering := mockClient(hub, enum.ViewOrdering)
	admin := mockClient(hub, enum.ViewAdmin)

	hub.register <- ordering
	hub.register <- admin
	time.Sleep(10 * time.Millisecond)

	payload := json.RawMessage(`{"itemId":3}`)
	hub.BroadcastToView(enum.ViewOrdering, Event{Type: enum.EventCartUpdated, Payload: payload})

	got := receive(t, ordering)
	if got.Type != enum.EventCartUpdated {
		t.Errorf("expected type %q, got %q", enum.EventCartUpdated, got.Type)
	}
	if string(got.Payload) != string(payload) {
		t.Errorf("expected payload %s, got %s", payload, got.Payload)
	}
	expectSilence(t, admin)
}

func TestPublishRoutesByEventType(t *testing.T) {
	tests := []struct {
		event        string
		wantOrdering bool
		wantAdmin    bool
	}{
		{enum.EventMenuUpdated, true, true},
		{enum.EventCartUpdated, true, false},
		{enum.EventOrderCompleted, true, true},
		{"unknown.event", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.event, func(t *testing.T) {
			hub := runHub(t)
			ordering := mockClient(hub, enum.ViewOrdering)
			admin := mockClient(hub, enum.ViewAdmin)
			hub.register <- ordering
			hub.register <- admin
			time.Sleep(10 * time.Millisecond)

			hub.Publish(tt.event, map[string]string{"orderId": "ORD1"})

			if tt.wantOrdering {
				if got := receive(t, ordering); got.Type != tt.event {
					t.Errorf("ordering got %q", got.Type)
				}
			} else {
				expectSilence(t, ordering)
			}
			if tt.wantAdmin {
				if got := receive(t, admin); got.Type != tt.event {
					t.Errorf("admin got %q", got.Type)
				}
			} else {
				expectSilence(t, admin)
			}
		})
	}
}

func TestPublishWithoutPayload(t *testing.T) {
	hub := runHub(t)
	client := mockClient(hub, enum.ViewOrdering)
	hub.register <- client
	time.Sleep(10 * time.Millisecond)

	hub.Publish(enum.EventCartUpdated, nil)

	got := receive(t, client)
	if len(got.Payload) != 0 {
		t.Errorf("expected no payload, got %s", got.Payload)
	}
}

func TestBroadcastEvictsSlowClient(t *testing.T) {
	hub := runHub(t)
	slow := &Client{hub: hub, view: enum.ViewAdmin, send: make(chan []byte)}
	hub.register <- slow
	time.Sleep(10 * time.Millisecond)

	hub.BroadcastToView(enum.ViewAdmin, Event{Type: enum.EventOrderCompleted})
	time.Sleep(10 * time.Millisecond)

	hub.mu.RLock()
	defer hub.mu.RUnlock()
	if hub.rooms[enum.ViewAdmin] != nil {
		t.Fatal("client with a full buffer should be removed")
	}
	if _, open := <-slow.send; open {
		t.Fatal("slow client's channel should be closed")
	}
}

func TestRunClosesClientsOnShutdown(t *testing.T) {
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(done)
	}()

	client := mockClient(hub, enum.ViewOrdering)
	hub.register <- client
	time.Sleep(10 * time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(100 * time.Millisecond):
		t.Fatal("Run did not return after cancel")
	}
	if _, open := <-client.send; open {
		t.Fatal("client channel should be closed on shutdown")
	}
}

// stoppedHub returns a hub whose Run loop has already returned.
func stoppedHub(t *testing.T) *Hub {
	t.Helper()
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(done)
	}()
	cancel()
	<-done
	return hub
}

func TestRegisterAfterShutdownDoesNotBlock(t *testing.T) {
	hub := stoppedHub(t)
	client := mockClient(hub, enum.ViewOrdering)

	finished := make(chan bool, 1)
	go func() {
		ok := hub.Register(client)
		hub.Unregister(client)
		finished <- ok
	}()

	select {
	case ok := <-finished:
		if ok {
			t.Error("Register must report false once the hub has stopped")
		}
	case <-time.After(100 * time.Millisecond):
		t.Fatal("Register/Unregister blocked after shutdown")
	}
}

func TestServeWSAfterShutdownClosesConnection(t *testing.T) {
	hub := stoppedHub(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ServeWS(hub, w, r)
	}))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?view=admin"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(time.Second))
	_, _, err = conn.ReadMessage()
	if !websocket.IsCloseError(err, websocket.CloseGoingAway) {
		t.Fatalf("expected going-away close, got %v", err)
	}
}

func TestViewFromRequest(t *testing.T) {
	tests := []struct {
		query  string
		want   string
		wantOK bool
	}{
		{"", enum.ViewOrdering, true},
		{"?view=ordering", enum.ViewOrdering, true},
		{"?view=admin", enum.ViewAdmin, true},
		{"?view=kitchen", "kitchen", false},
	}
	for _, tt := range tests {
		r := httptest.NewRequest("GET", "/ws"+tt.query, nil)
		got, ok := ViewFromRequest(r)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("%q: got (%q, %v), want (%q, %v)", tt.query, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestServeWSRejectsUnknownView(t *testing.T) {
	hub := runHub(t)
	rr := httptest.NewRecorder()
	ServeWS(hub, rr, httptest.NewRequest("GET", "/ws?view=kitchen", nil))
	if rr.Code != 400 {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}
