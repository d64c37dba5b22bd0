package websocket

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_EnqueueWhenFullOrClosed(t *testing.T) {
	h, _, _ := newTestHub(t)
	h.SetSendBuffer(2)
	c := NewClient(h, newMockConn())

	require.NoError(t, c.enqueue([]byte("1")))
	require.NoError(t, c.enqueue([]byte("2")))
	assert.ErrorIs(t, c.enqueue([]byte("3")), ErrSendBufferFull)

	c.close()
	assert.ErrorIs(t, c.enqueue([]byte("4")), ErrClientDisconnected)
}

func TestClient_PumpsRoundTrip(t *testing.T) {
	h, rooms, _ := newTestHub(t)
	conn := newMockConn()
	c := NewClient(h, conn)
	h.Register(c)

	go c.writePump()
	go c.readPump()

	conn.inbound <- encodeFrame(MessageTypeJoin, JoinData{AnonymousID: "anon_a", Room: "general"})

	require.Eventually(t, func() bool {
		for _, raw := range conn.getMessages() {
			var msg Message
			if json.Unmarshal(raw, &msg) == nil && msg.Type == MessageTypeRoomStats {
				return true
			}
		}
		return false
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, 1, rooms.MemberCount("general"))

	conn.Close()

	require.Eventually(t, func() bool {
		return h.ClientCount() == 0
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, 0, rooms.MemberCount("general"))
	assert.True(t, c.isClosed())
}

func TestClient_CloseShutsDownPumps(t *testing.T) {
	h, _, _ := newTestHub(t)
	conn := newMockConn()
	c := NewClient(h, conn)
	h.Register(c)

	go c.writePump()
	go c.readPump()

	c.close()

	require.Eventually(t, func() bool {
		return conn.isClosed() && h.ClientCount() == 0
	}, time.Second, 5*time.Millisecond)
}

func TestServeWS_EndToEnd(t *testing.T) {
	h, _, _ := newTestHub(t)
	upgrader := NewUpgrader(nil)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ServeWS(h, upgrader, w, r)
	}))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.WriteMessage(websocket.TextMessage,
		encodeFrame(MessageTypeJoin, JoinData{AnonymousID: "anon_a", Room: "general", Mood: "calm"})))

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, raw, err := conn.ReadMessage()
	require.NoError(t, err)

	var msg Message
	require.NoError(t, json.Unmarshal(raw, &msg))
	require.Equal(t, MessageTypeRoomStats, msg.Type)
	assert.Equal(t, 1, decodeData[RoomStatsData](t, msg).ActiveUsers)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage,
		encodeFrame(MessageTypeMessage, map[string]string{"content": "hello", "senderId": "anon_a", "room": "general"})))

	_, raw, err = conn.ReadMessage()
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, &msg))
	require.Equal(t, MessageTypeMessage, msg.Type)

	conn.Close()
	require.Eventually(t, func() bool {
		return h.ClientCount() == 0
	}, 2*time.Second, 10*time.Millisecond)
}

func TestNewUpgrader_CheckOrigin(t *testing.T) {
	u := NewUpgrader([]string{"https://chat.example.org", " "})

	tests := []struct {
		origin string
		want   bool
	}{
		{origin: "", want: true},
		{origin: "https://chat.example.org", want: true},
		{origin: "http://localhost:5173", want: true},
		{origin: "http://127.0.0.1:8080", want: true},
		{origin: "http://[::1]:3000", want: true},
		{origin: "https://evil.example.com", want: false},
		{origin: "https://localhost.evil.com", want: false},
		{origin: "https://evil.com/?r=127.0.0.1", want: false},
		{origin: "://bad", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.origin, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/ws", nil)
			if tt.origin != "" {
				r.Header.Set("Origin", tt.origin)
			}
			assert.Equal(t, tt.want, u.CheckOrigin(r))
		})
	}

	open := NewUpgrader([]string{"*"})
	r := httptest.NewRequest(http.MethodGet, "/ws", nil)
	r.Header.Set("Origin", "https://anywhere.example.com")
	assert.True(t, open.CheckOrigin(r))
}
