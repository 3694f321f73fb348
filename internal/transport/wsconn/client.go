package wsconn

import (
	"bytes"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"inkwell/internal/delta"
	"inkwell/internal/telemetry"
	"inkwell/internal/telemetry/metrics"
	"inkwell/internal/transport"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 1 << 20 // 1MiB, generous for a coalesced batch
	sendBufferSize = 256
)

// Client is one document-room participant's live connection. It satisfies
// transport.Transport directly, so the editor facade can treat a single
// socket exactly like any other transport.
type Client struct {
	hub  *Hub
	conn *websocket.Conn

	DocID    string
	ClientID string

	send chan []byte

	mu             sync.Mutex
	onReceive      func(delta.Delta)
	onCursorUpdate func(transport.CursorInfo)
}

func newClient(hub *Hub, conn *websocket.Conn, docID, clientID string) *Client {
	return &Client{
		hub:      hub,
		conn:     conn,
		DocID:    docID,
		ClientID: clientID,
		send:     make(chan []byte, sendBufferSize),
	}
}

// Send implements transport.Transport by broadcasting d to every other
// client in the document's room.
func (c *Client) Send(d delta.Delta) error {
	raw, err := json.Marshal(d)
	if err != nil {
		return err
	}
	env := envelope{Type: envelopeDelta, Delta: raw, Timestamp: time.Now()}
	payload, err := json.Marshal(env)
	if err != nil {
		return err
	}
	c.hub.broadcast <- roomMessage{docID: c.DocID, payload: payload, from: c, msgType: envelopeDelta}
	return nil
}

// OnReceive registers the callback invoked for every Delta read off this
// client's socket.
func (c *Client) OnReceive(cb func(delta.Delta)) {
	c.mu.Lock()
	c.onReceive = cb
	c.mu.Unlock()
}

// SendCursor broadcasts a cursor update to the rest of the room.
func (c *Client) SendCursor(cur transport.CursorInfo) error {
	raw, err := json.Marshal(cur)
	if err != nil {
		return err
	}
	env := envelope{Type: envelopeCursor, Cursor: raw, Timestamp: time.Now()}
	payload, err := json.Marshal(env)
	if err != nil {
		return err
	}
	c.hub.broadcast <- roomMessage{docID: c.DocID, payload: payload, from: c, msgType: envelopeCursor}
	return nil
}

// OnCursorUpdate registers the callback invoked for every cursor update
// read off this client's socket.
func (c *Client) OnCursorUpdate(cb func(transport.CursorInfo)) {
	c.mu.Lock()
	c.onCursorUpdate = cb
	c.mu.Unlock()
}

// Connect is a no-op: the socket is already open by the time HandleWebSocket
// returns a Client.
func (c *Client) Connect() error { return nil }

// Disconnect closes the underlying socket, which unwinds both pumps and
// unregisters the client from its room.
func (c *Client) Disconnect() error {
	return c.conn.Close()
}

// readPump reads envelopes off the socket and dispatches them to whichever
// callback is registered, until the connection errors or closes.
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				telemetry.S().Warnw("wsconn: unexpected close", "client_id", c.ClientID, "error", err)
			}
			return
		}

		// A frame may carry more than one newline-delimited envelope: the
		// writer's coalescedWrite combines whatever was queued at flush time.
		for _, frame := range bytes.Split(raw, []byte{'\n'}) {
			if len(frame) == 0 {
				continue
			}
			c.dispatchEnvelope(frame)
		}
	}
}

// dispatchEnvelope decodes a single envelope frame and routes it to
// whichever callback is registered for its type.
func (c *Client) dispatchEnvelope(raw []byte) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		telemetry.S().Warnw("wsconn: malformed envelope", "client_id", c.ClientID, "error", err)
		return
	}

	switch env.Type {
	case envelopeDelta:
		var d delta.Delta
		if err := json.Unmarshal(env.Delta, &d); err != nil {
			telemetry.S().Warnw("wsconn: malformed delta", "client_id", c.ClientID, "error", err)
			return
		}
		metrics.Get().RecordWebSocketMessage(envelopeDelta, "in")
		c.mu.Lock()
		cb := c.onReceive
		c.mu.Unlock()
		if cb != nil {
			cb(d)
		}
	case envelopeCursor:
		var cur transport.CursorInfo
		if err := json.Unmarshal(env.Cursor, &cur); err != nil {
			telemetry.S().Warnw("wsconn: malformed cursor", "client_id", c.ClientID, "error", err)
			return
		}
		metrics.Get().RecordWebSocketMessage(envelopeCursor, "in")
		c.mu.Lock()
		cb := c.onCursorUpdate
		c.mu.Unlock()
		if cb != nil {
			cb(cur)
		}
	default:
		telemetry.S().Warnw("wsconn: unknown envelope type", "type", env.Type)
	}
}

// writePump drains c.send to the socket and keeps the connection alive with
// periodic pings, until send is closed by the hub on unregister.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case payload, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.coalescedWrite(payload); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// coalescedWrite writes payload, then drains any additional envelopes
// already queued in c.send without blocking, joining each with a newline
// before issuing a single underlying write. dispatchEnvelope splits frames
// back out on the read side.
func (c *Client) coalescedWrite(first []byte) error {
	buf := append([]byte(nil), first...)
drain:
	for {
		select {
		case extra, ok := <-c.send:
			if !ok {
				break drain
			}
			buf = append(buf, '\n')
			buf = append(buf, extra...)
		default:
			break drain
		}
	}
	return c.conn.WriteMessage(websocket.TextMessage, buf)
}
