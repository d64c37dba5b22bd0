package websocket

import (
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// ErrClosedConnection is returned when a mockConn is used after Close.
var ErrClosedConnection = errors.New("connection closed")

// mockConn implements Conn for tests. Frames pushed to inbound are returned
// by ReadMessage; written text frames are recorded.
type mockConn struct {
	mu       sync.Mutex
	messages [][]byte
	inbound  chan []byte
	done     chan struct{}
	once     sync.Once
}

func newMockConn() *mockConn {
	return &mockConn{
		inbound: make(chan []byte, 16),
		done:    make(chan struct{}),
	}
}

func (m *mockConn) ReadMessage() (int, []byte, error) {
	select {
	case data := <-m.inbound:
		return websocket.TextMessage, data, nil
	case <-m.done:
		return 0, nil, ErrClosedConnection
	}
}

func (m *mockConn) WriteMessage(messageType int, data []byte) error {
	select {
	case <-m.done:
		return ErrClosedConnection
	default:
	}

	if messageType != websocket.TextMessage {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, data)
	return nil
}

func (m *mockConn) SetReadLimit(int64) {}

func (m *mockConn) SetReadDeadline(time.Time) error { return nil }

func (m *mockConn) SetWriteDeadline(time.Time) error { return nil }

func (m *mockConn) SetPongHandler(func(string) error) {}

func (m *mockConn) Close() error {
	m.once.Do(func() { close(m.done) })
	return nil
}

func (m *mockConn) isClosed() bool {
	select {
	case <-m.done:
		return true
	default:
		return false
	}
}

func (m *mockConn) getMessages() [][]byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([][]byte, len(m.messages))
	copy(result, m.messages)
	return result
}

// drainClient empties a client's outbound queue without running writePump.
func drainClient(c *Client) []Message {
	var out []Message
	for {
		select {
		case data := <-c.send:
			var msg Message
			if err := json.Unmarshal(data, &msg); err == nil {
				out = append(out, msg)
			}
		default:
			return out
		}
	}
}

func filterType(msgs []Message, msgType MessageType) []Message {
	var out []Message
	for _, m := range msgs {
		if m.Type == msgType {
			out = append(out, m)
		}
	}
	return out
}

func encodeFrame(msgType MessageType, data any) []byte {
	payload, _ := json.Marshal(data)
	frame, _ := json.Marshal(Message{Type: msgType, Data: payload, Timestamp: time.Now()})
	return frame
}
