package websocket

import (
	"encoding/json"
	"net/http"
	"strconv"
	"sync"
	"time"

	"rideaxis/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Message types pushed to riders.
const (
	RideLocationUpdateType = "RIDE_LOCATION_UPDATE"
	RideStatusUpdateType   = "RIDE_STATUS_UPDATE"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	sendBuffer = 16
)

type Message struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// Hub keeps the websocket clients watching each ride.
type Hub struct {
	mu    sync.RWMutex
	rooms map[uint]map[*Client]struct{}
	log   *zap.Logger
}

// Client is one browser tab following one ride.
type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	rideID uint
	send   chan []byte
	once   sync.Once
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

func NewHub(log *zap.Logger) *Hub {
	if log == nil {
		log = zap.NewNop()
	}
	return &Hub{
		rooms: make(map[uint]map[*Client]struct{}),
		log:   log,
	}
}

func (h *Hub) register(c *Client) {
	h.mu.Lock()
	room, ok := h.rooms[c.rideID]
	if !ok {
		room = make(map[*Client]struct{})
		h.rooms[c.rideID] = room
	}
	room[c] = struct{}{}
	h.mu.Unlock()

	middleware.WSClients.Inc()
	h.log.Debug("websocket client registered", zap.Uint("ride_id", c.rideID))
}

func (h *Hub) unregister(c *Client) {
	h.mu.Lock()
	room, ok := h.rooms[c.rideID]
	if ok {
		if _, exists := room[c]; exists {
			delete(room, c)
			if len(room) == 0 {
				delete(h.rooms, c.rideID)
			}
		} else {
			ok = false
		}
	}
	h.mu.Unlock()

	if ok {
		middleware.WSClients.Dec()
		c.close()
		h.log.Debug("websocket client unregistered", zap.Uint("ride_id", c.rideID))
	}
}

// ClientCount is the number of clients following the ride.
func (h *Hub) ClientCount(rideID uint) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[rideID])
}

// BroadcastToRide queues the message for every client of the ride. Clients
// whose buffer is full are dropped.
func (h *Hub) BroadcastToRide(rideID uint, message *Message) {
	data, err := json.Marshal(message)
	if err != nil {
		h.log.Error("encode websocket message", zap.Uint("ride_id", rideID), zap.Error(err))
		return
	}

	var slow []*Client
	h.mu.RLock()
	for c := range h.rooms[rideID] {
		select {
		case c.send <- data:
		default:
			slow = append(slow, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range slow {
		h.log.Warn("dropping slow websocket client", zap.Uint("ride_id", rideID))
		h.unregister(c)
	}
}

// sendTo queues data for a single client that is still registered.
func (h *Hub) sendTo(c *Client, data []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if _, ok := h.rooms[c.rideID][c]; !ok {
		return
	}
	select {
	case c.send <- data:
	default:
	}
}

// RideLookup reports whether a ride exists.
type RideLookup func(rideID uint) (bool, error)

// Handler upgrades GET /ws/rides/:ride_id. Unknown rides get 404 when exists
// is set.
func (h *Hub) Handler(exists RideLookup) gin.HandlerFunc {
	return func(c *gin.Context) {
		rideID, err := strconv.ParseUint(c.Param("ride_id"), 10, 64)
		if err != nil || rideID == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid ride id"})
			return
		}
		if exists != nil {
			ok, err := exists(uint(rideID))
			if err != nil {
				h.log.Error("look up ride", zap.Uint64("ride_id", rideID), zap.Error(err))
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
				return
			}
			if !ok {
				c.JSON(http.StatusNotFound, gin.H{"error": "Ride not found"})
				return
			}
		}
		if !websocket.IsWebSocketUpgrade(c.Request) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "WebSocket connection required"})
			return
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			h.log.Warn("websocket upgrade failed", zap.Error(err))
			return
		}

		client := &Client{
			hub:    h,
			conn:   conn,
			rideID: uint(rideID),
			send:   make(chan []byte, sendBuffer),
		}
		h.register(client)

		go client.writePump()
		go client.readPump()
	}
}

func (c *Client) close() {
	c.once.Do(func() { close(c.send) })
}

// readPump answers application pings and detects disconnects.
func (c *Client) readPump() {
	defer c.hub.unregister(c)

	c.conn.SetReadLimit(4096)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			return
		}

		var msg struct {
			Type string `json:"type"`
		}
		if json.Unmarshal(raw, &msg) != nil || msg.Type != "ping" {
			continue
		}
		pong, _ := json.Marshal(map[string]interface{}{
			"type": "pong",
			"time": time.Now().Unix(),
		})
		c.hub.sendTo(c, pong)
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case data, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				c.hub.unregister(c)
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.hub.unregister(c)
				return
			}
		}
	}
}
