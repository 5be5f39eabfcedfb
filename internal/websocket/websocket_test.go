package websocket

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	gorilla "github.com/gorilla/websocket"
)

func newServer(t *testing.T, hub *Hub) *httptest.Server {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/ws/rides/:ride_id", hub.Handler(nil))
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func dial(t *testing.T, srv *httptest.Server, path string) *gorilla.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + path
	conn, _, err := gorilla.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial %s: %v", path, err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func waitForClients(t *testing.T, hub *Hub, rideID uint, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if hub.ClientCount(rideID) == want {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("ride %d: expected %d clients, got %d", rideID, want, hub.ClientCount(rideID))
}

func TestBroadcastReachesOnlyRideRoom(t *testing.T) {
	hub := NewHub(nil)
	srv := newServer(t, hub)

	watcher := dial(t, srv, "/ws/rides/7")
	other := dial(t, srv, "/ws/rides/8")
	waitForClients(t, hub, 7, 1)
	waitForClients(t, hub, 8, 1)

	hub.BroadcastToRide(7, &Message{
		Type:    RideLocationUpdateType,
		Payload: map[string]interface{}{"ride_id": 7, "latitude": 11.24},
	})

	_ = watcher.SetReadDeadline(time.Now().Add(2 * time.Second))
	var got Message
	if err := watcher.ReadJSON(&got); err != nil {
		t.Fatalf("read: %v", err)
	}
	if got.Type != RideLocationUpdateType {
		t.Errorf("unexpected type %q", got.Type)
	}

	_ = other.SetReadDeadline(time.Now().Add(200 * time.Millisecond))
	if _, _, err := other.ReadMessage(); err == nil {
		t.Error("client of another ride should not receive the message")
	}
}

func TestPingGetsPong(t *testing.T) {
	hub := NewHub(nil)
	srv := newServer(t, hub)

	conn := dial(t, srv, "/ws/rides/3")
	waitForClients(t, hub, 3, 1)

	if err := conn.WriteJSON(map[string]string{"type": "ping"}); err != nil {
		t.Fatalf("write: %v", err)
	}
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, raw, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var msg map[string]interface{}
	if err := json.Unmarshal(raw, &msg); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if msg["type"] != "pong" {
		t.Errorf("expected pong, got %v", msg)
	}
}

func TestDisconnectUnregisters(t *testing.T) {
	hub := NewHub(nil)
	srv := newServer(t, hub)

	conn := dial(t, srv, "/ws/rides/5")
	waitForClients(t, hub, 5, 1)

	conn.Close()
	waitForClients(t, hub, 5, 0)
}

func TestHandlerRejectsPlainRequests(t *testing.T) {
	hub := NewHub(nil)
	srv := newServer(t, hub)

	resp, err := srv.Client().Get(srv.URL + "/ws/rides/abc")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != 400 {
		t.Errorf("expected 400, got %d", resp.StatusCode)
	}
}

func TestHandlerRejectsUnknownRide(t *testing.T) {
	hub := NewHub(nil)
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/ws/rides/:ride_id", hub.Handler(func(rideID uint) (bool, error) {
		return rideID == 7, nil
	}))
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/rides/8"
	_, resp, err := gorilla.DefaultDialer.Dial(url, nil)
	if err == nil {
		t.Fatal("expected dial to unknown ride to fail")
	}
	if resp == nil || resp.StatusCode != 404 {
		t.Fatalf("expected 404, got %+v", resp)
	}

	dial(t, srv, "/ws/rides/7")
	waitForClients(t, hub, 7, 1)
}
