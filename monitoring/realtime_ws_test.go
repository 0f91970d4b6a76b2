package monitoring

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

func dialHub(t *testing.T, hub *Hub) *websocket.Conn {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(hub.HandleWebSocket))
	t.Cleanup(server.Close)

	url := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("condition not met before deadline")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestHubPublishesToClients(t *testing.T) {
	hub := NewHub(zap.NewNop())
	go hub.Start()
	defer hub.Stop()

	conn := dialHub(t, hub)
	waitFor(t, func() bool { return hub.ClientCount() == 1 })

	if err := hub.Publish(RegressionEvent, map[string]float64{"expected_claim_cost": 2439.6}); err != nil {
		t.Fatalf("publish: %v", err)
	}

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if msg.Type != RegressionEvent || msg.ID == "" {
		t.Fatalf("unexpected message %+v", msg)
	}
	if !strings.Contains(string(msg.Data), "2439.6") {
		t.Fatalf("unexpected payload %s", msg.Data)
	}
}

func TestHubHonoursSubscriptions(t *testing.T) {
	hub := NewHub(zap.NewNop())
	go hub.Start()
	defer hub.Stop()

	conn := dialHub(t, hub)
	waitFor(t, func() bool { return hub.ClientCount() == 1 })

	if err := conn.WriteJSON(ClientMessage{Type: "subscribe", Topic: string(ClassificationEvent)}); err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	// Let the read pump apply the subscription before publishing.
	var client *Client
	waitFor(t, func() bool {
		hub.mu.RLock()
		defer hub.mu.RUnlock()
		for c := range hub.clients {
			client = c
		}
		return client != nil && !client.wants(RegressionEvent)
	})

	hub.Publish(RegressionEvent, map[string]float64{"expected_claim_cost": 1})
	hub.Publish(ClassificationEvent, map[string]int{"risk_category": 1})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var msg Message
	json.Unmarshal(data, &msg)
	if msg.Type != ClassificationEvent {
		t.Fatalf("expected only classification events, got %s", msg.Type)
	}
}

func TestHubStopClosesClients(t *testing.T) {
	hub := NewHub(nil)
	go hub.Start()

	dialHub(t, hub)
	waitFor(t, func() bool { return hub.ClientCount() == 1 })
	hub.Stop()
	hub.Stop()
	waitFor(t, func() bool { return hub.ClientCount() == 0 })
}
