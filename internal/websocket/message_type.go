package websocket

import (
	"encoding/json"
	"time"

	"safespace-chat/internal/chat"
)

// MessageType names a WebSocket event.
type MessageType string

// Client to server events
const (
	MessageTypeJoin       MessageType = "join"
	MessageTypeLeave      MessageType = "leave"
	MessageTypeMessage    MessageType = "message"
	MessageTypeTyping     MessageType = "typing"
	MessageTypeChangeID   MessageType = "change-id"
	MessageTypeGetHistory MessageType = "get-history"
)

// Server to client events. "message" and "typing" are shared with the
// inbound set.
const (
	MessageTypeUserJoined     MessageType = "user-joined"
	MessageTypeUserLeft       MessageType = "user-left"
	MessageTypeRoomStats      MessageType = "room-stats"
	MessageTypeUserIDChanged  MessageType = "user-id-changed"
	MessageTypeHistory        MessageType = "history"
	MessageTypeCrisisDetected MessageType = "crisis-detected"
	MessageTypeHeartbeat      MessageType = "system:heartbeat"
)

func (mt MessageType) String() string {
	return string(mt)
}

// IsInbound reports whether clients may send this event.
func (mt MessageType) IsInbound() bool {
	switch mt {
	case MessageTypeJoin, MessageTypeLeave, MessageTypeMessage,
		MessageTypeTyping, MessageTypeChangeID, MessageTypeGetHistory:
		return true
	default:
		return false
	}
}

// Message is the frame envelope in both directions.
type Message struct {
	Type      MessageType     `json:"type"`
	Data      json.RawMessage `json:"data"`
	Timestamp time.Time       `json:"timestamp"`
}

type outboundMessage struct {
	Type      MessageType `json:"type"`
	Data      any         `json:"data"`
	Timestamp time.Time   `json:"timestamp"`
}

func encodeMessage(msgType MessageType, payload any, at time.Time) ([]byte, error) {
	return json.Marshal(outboundMessage{Type: msgType, Data: payload, Timestamp: at})
}

/** -------------------- Inbound payloads -------------------- */

type JoinData struct {
	AnonymousID string `json:"anonymousId" validate:"required"`
	Room        string `json:"room" validate:"required"`
	Mood        string `json:"mood"`
}

type LeaveData struct {
	AnonymousID string `json:"anonymousId"`
	Room        string `json:"room" validate:"required"`
}

// ChatMessageData is validated by the message pipeline, which drops
// incomplete messages itself.
type ChatMessageData struct {
	ID        string          `json:"id"`
	Content   string          `json:"content"`
	SenderID  string          `json:"senderId"`
	Room      string          `json:"room"`
	Mood      string          `json:"mood"`
	Timestamp json.RawMessage `json:"timestamp"`
}

type TypingData struct {
	SenderID string `json:"senderId" validate:"required"`
	Room     string `json:"room" validate:"required"`
	IsTyping bool   `json:"isTyping"`
}

type ChangeIDData struct {
	OldID string `json:"oldId"`
	NewID string `json:"newId" validate:"required"`
	Room  string `json:"room"`
}

type HistoryRequestData struct {
	Room string `json:"room" validate:"required"`
}

/** -------------------- Outbound payloads -------------------- */

type UserJoinedData struct {
	AnonymousID string    `json:"anonymousId"`
	Mood        chat.Mood `json:"mood"`
	Timestamp   time.Time `json:"timestamp"`
}

type UserLeftData struct {
	AnonymousID string    `json:"anonymousId"`
	Timestamp   time.Time `json:"timestamp"`
}

// RoomStatsData never carries member identities.
type RoomStatsData struct {
	Room        string `json:"room"`
	ActiveUsers int    `json:"activeUsers"`
}

type TypingEventData struct {
	SenderID  string    `json:"senderId"`
	IsTyping  bool      `json:"isTyping"`
	Timestamp time.Time `json:"timestamp"`
}

type UserIDChangedData struct {
	OldID     string    `json:"oldId"`
	NewID     string    `json:"newId"`
	Timestamp time.Time `json:"timestamp"`
}

type HistoryData struct {
	Room     string         `json:"room"`
	Messages []chat.Message `json:"messages"`
}

type HeartbeatData struct {
	Timestamp   time.Time `json:"timestamp"`
	ActiveUsers int       `json:"activeUsers"`
}
