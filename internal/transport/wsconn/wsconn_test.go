package wsconn

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"inkwell/internal/delta"
	"inkwell/internal/ops"
)

func startTestServer(t *testing.T, hub *Hub) *httptest.Server {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/ws/:docID/:clientID", func(c *gin.Context) {
		client, err := hub.HandleWebSocket(c, c.Param("docID"), c.Param("clientID"))
		if err != nil {
			c.String(http.StatusInternalServerError, err.Error())
			return
		}
		_ = client
	})
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func dial(t *testing.T, srv *httptest.Server, docID, clientID string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/" + docID + "/" + clientID
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestHubBroadcastsDeltaToOtherRoomMembers(t *testing.T) {
	hub := NewHub()
	go hub.Run()
	t.Cleanup(hub.Shutdown)

	srv := startTestServer(t, hub)

	a := dial(t, srv, "doc-1", "alice")
	b := dial(t, srv, "doc-1", "bob")

	waitForRoomSize(t, hub, "doc-1", 2)

	d := delta.Delta{
		BaseVersion: 1,
		ClientID:    "alice",
		Operations:  []ops.Operation{{Type: ops.InsertText, Path: []int{0}, Offset: 0, Data: "hi"}},
	}
	raw, err := json.Marshal(d)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	env := envelope{Type: envelopeDelta, Delta: raw, Timestamp: time.Now()}
	payload, err := json.Marshal(env)
	if err != nil {
		t.Fatalf("marshal envelope: %v", err)
	}
	if err := a.WriteMessage(websocket.TextMessage, payload); err != nil {
		t.Fatalf("write: %v", err)
	}

	b.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, got, err := b.ReadMessage()
	if err != nil {
		t.Fatalf("bob did not receive broadcast: %v", err)
	}
	if !strings.Contains(string(got), `"insert_text"`) {
		t.Fatalf("expected relayed delta in payload, got %s", got)
	}

	a.SetReadDeadline(time.Now().Add(200 * time.Millisecond))
	if _, _, err := a.ReadMessage(); err == nil {
		t.Fatal("expected sender not to receive its own broadcast")
	}
}

func TestHubRoomsAreIsolatedByDocID(t *testing.T) {
	hub := NewHub()
	go hub.Run()
	t.Cleanup(hub.Shutdown)

	srv := startTestServer(t, hub)

	dial(t, srv, "doc-a", "alice")
	other := dial(t, srv, "doc-b", "carol")

	waitForRoomSize(t, hub, "doc-a", 1)
	waitForRoomSize(t, hub, "doc-b", 1)

	d := delta.Delta{Operations: []ops.Operation{{Type: ops.InsertText, Path: []int{0}, Data: "x"}}}
	raw, _ := json.Marshal(d)
	env := envelope{Type: envelopeDelta, Delta: raw, Timestamp: time.Now()}
	payload, _ := json.Marshal(env)

	// Write on doc-a's socket; doc-b's client must not receive anything.
	aConn := dial(t, srv, "doc-a", "alice2")
	waitForRoomSize(t, hub, "doc-a", 2)
	if err := aConn.WriteMessage(websocket.TextMessage, payload); err != nil {
		t.Fatalf("write: %v", err)
	}

	other.SetReadDeadline(time.Now().Add(200 * time.Millisecond))
	if _, _, err := other.ReadMessage(); err == nil {
		t.Fatal("expected doc-b client to receive nothing from doc-a's broadcast")
	}
}

func waitForRoomSize(t *testing.T, hub *Hub, docID string, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if hub.RoomSize(docID) >= n {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("room %s never reached size %d (got %d)", docID, n, hub.RoomSize(docID))
}
