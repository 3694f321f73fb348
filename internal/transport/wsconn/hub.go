// Package wsconn is the concrete websocket implementation of
// transport.Transport: a per-document Hub broadcasting Deltas and cursor
// updates between connected clients.
package wsconn

import (
	"encoding/json"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"inkwell/internal/telemetry"
	"inkwell/internal/telemetry/metrics"
)

// envelope is the wire frame carried over the socket: exactly one of Delta
// or Cursor is set, discriminated by Type.
type envelope struct {
	Type      string          `json:"type"`
	Delta     json.RawMessage `json:"delta,omitempty"`
	Cursor    json.RawMessage `json:"cursor,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

const (
	envelopeDelta  = "delta"
	envelopeCursor = "cursor"
)

// Hub fans out envelopes between every client connected to the same
// document room.
type Hub struct {
	mu    sync.RWMutex
	rooms map[string]map[*Client]bool
	conns int

	register   chan *Client
	unregister chan *Client
	broadcast  chan roomMessage
	shutdown   chan struct{}
}

type roomMessage struct {
	docID   string
	payload []byte
	from    *Client
	msgType string
}

// NewHub returns a Hub with no rooms. Call Run in a goroutine before
// accepting connections.
func NewHub() *Hub {
	return &Hub{
		rooms:      make(map[string]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan roomMessage, 256),
		shutdown:   make(chan struct{}),
	}
}

// Run drives the hub's event loop until Shutdown is called.
func (h *Hub) Run() {
	for {
		select {
		case <-h.shutdown:
			h.mu.Lock()
			for _, room := range h.rooms {
				for c := range room {
					close(c.send)
				}
			}
			h.rooms = make(map[string]map[*Client]bool)
			h.mu.Unlock()
			return

		case c := <-h.register:
			h.mu.Lock()
			if h.rooms[c.DocID] == nil {
				h.rooms[c.DocID] = make(map[*Client]bool)
			}
			h.rooms[c.DocID][c] = true
			h.conns++
			metrics.Get().SetWebSocketConnections(h.conns)
			h.mu.Unlock()
			telemetry.S().Infow("wsconn: client joined", "doc_id", c.DocID, "client_id", c.ClientID)

		case c := <-h.unregister:
			h.mu.Lock()
			if room := h.rooms[c.DocID]; room != nil {
				if _, ok := room[c]; ok {
					delete(room, c)
					close(c.send)
					h.conns--
					metrics.Get().SetWebSocketConnections(h.conns)
					if len(room) == 0 {
						delete(h.rooms, c.DocID)
					}
				}
			}
			h.mu.Unlock()

		case m := <-h.broadcast:
			h.mu.RLock()
			room := h.rooms[m.docID]
			h.mu.RUnlock()
			for c := range room {
				if c == m.from {
					continue
				}
				select {
				case c.send <- m.payload:
					metrics.Get().RecordWebSocketMessage(m.msgType, "out")
				default:
					telemetry.S().Warnw("wsconn: client send buffer full, dropping", "client_id", c.ClientID)
				}
			}
		}
	}
}

// Shutdown stops Run and closes every connected client's send channel.
func (h *Hub) Shutdown() { close(h.shutdown) }

// RoomSize returns how many clients are connected to docID's room.
func (h *Hub) RoomSize(docID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[docID])
}

// upgrader applies an explicit origin allow-list from CORS_ALLOWED_ORIGINS,
// falling back to localhost dev origins, with empty Origin only permitted
// outside production.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		origin := r.Header.Get("Origin")

		allowedOriginsEnv := os.Getenv("CORS_ALLOWED_ORIGINS")
		var allowed []string
		if allowedOriginsEnv != "" {
			allowed = strings.Split(allowedOriginsEnv, ",")
		} else {
			allowed = []string{
				"http://localhost:3000",
				"http://localhost:5173",
				"http://127.0.0.1:3000",
				"http://127.0.0.1:5173",
			}
		}
		for _, a := range allowed {
			if strings.TrimSpace(a) == origin {
				return true
			}
		}
		return origin == "" && os.Getenv("ENVIRONMENT") != "production"
	},
}

// HandleWebSocket upgrades an HTTP request to a websocket connection and
// registers a new Client for docID/clientID on the hub.
func (h *Hub) HandleWebSocket(c *gin.Context, docID, clientID string) (*Client, error) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return nil, err
	}
	client := newClient(h, conn, docID, clientID)
	h.register <- client
	go client.writePump()
	go client.readPump()
	return client, nil
}
