package notify

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// Event is a notification pushed to connected clients of a tenant
type Event struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload,omitempty"`
	SentAt  time.Time   `json:"sent_at"`
}

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 54 * time.Second
	sendBufferSize = 16
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

// Hub multiplexes notification events to connected sockets, one room
// per tenant. Delivery is fire-and-forget: a client whose buffer is
// full misses the event.
type Hub struct {
	mu    sync.RWMutex
	rooms map[uuid.UUID]map[*client]bool
}

// NewHub creates a notification hub
func NewHub() *Hub {
	return &Hub{rooms: make(map[uuid.UUID]map[*client]bool)}
}

// Broadcast sends an event to every client in a tenant's room without
// blocking the caller.
func (h *Hub) Broadcast(tenantID uuid.UUID, eventType string, payload interface{}) {
	data, err := json.Marshal(Event{Type: eventType, Payload: payload, SentAt: time.Now().UTC()})
	if err != nil {
		log.Warn().Err(err).Str("event", eventType).Msg("Failed to encode notification")
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.rooms[tenantID] {
		select {
		case c.send <- data:
		default:
			// Slow consumer; drop rather than block the mutation path.
		}
	}
}

// ServeWS upgrades an HTTP request and joins the client to the
// tenant's room.
func (h *Hub) ServeWS(tenantID uuid.UUID, w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Msg("WebSocket upgrade failed")
		return
	}

	c := &client{conn: conn, send: make(chan []byte, sendBufferSize)}

	h.mu.Lock()
	if h.rooms[tenantID] == nil {
		h.rooms[tenantID] = make(map[*client]bool)
	}
	h.rooms[tenantID][c] = true
	h.mu.Unlock()

	go h.writePump(c)
	go h.readPump(tenantID, c)
}

func (h *Hub) readPump(tenantID uuid.UUID, c *client) {
	defer h.drop(tenantID, c)

	c.conn.SetReadLimit(512)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		// Clients only receive; any read error ends the session.
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) writePump(c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
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
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (h *Hub) drop(tenantID uuid.UUID, c *client) {
	h.mu.Lock()
	if room, ok := h.rooms[tenantID]; ok {
		if room[c] {
			delete(room, c)
			close(c.send)
		}
		if len(room) == 0 {
			delete(h.rooms, tenantID)
		}
	}
	h.mu.Unlock()
	_ = c.conn.Close()
}
