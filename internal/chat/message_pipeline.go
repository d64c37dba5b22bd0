package chat

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// previewLength is how much of a message body goes into log lines.
const previewLength = 50

// CrisisScanner reports whether a text contains crisis language.
type CrisisScanner interface {
	Scan(text string) bool
}

// Submission is an inbound message as received from a connection.
type Submission struct {
	ID        string
	RoomID    string
	SenderID  string
	Content   string
	Mood      string
	Timestamp json.RawMessage
}

// Result is an accepted message ready for broadcast.
type Result struct {
	Message Message
	Crisis  bool
}

// MessagePipeline validates, stores and scans inbound messages.
type MessagePipeline struct {
	rooms      *RoomRegistry
	directory  *ParticipantDirectory
	scanner    CrisisScanner
	maxContent int
	log        *slog.Logger
	now        func() time.Time
	newID      func() string
}

// NewMessagePipeline wires the pipeline. A maxContent <= 0 falls back to
// MaxContentLength.
func NewMessagePipeline(rooms *RoomRegistry, directory *ParticipantDirectory, scanner CrisisScanner, maxContent int, log *slog.Logger) *MessagePipeline {
	if maxContent <= 0 {
		maxContent = MaxContentLength
	}
	if log == nil {
		log = slog.Default()
	}
	return &MessagePipeline{
		rooms:      rooms,
		directory:  directory,
		scanner:    scanner,
		maxContent: maxContent,
		log:        log,
		now:        time.Now,
		newID:      func() string { return uuid.New().String() },
	}
}

// Submit runs a message from connectionID through validation, storage and
// crisis scanning. The boolean is false when the message was dropped;
// rejected messages produce no error for the client.
func (p *MessagePipeline) Submit(connectionID string, s Submission) (Result, bool) {
	if s.Content == "" || s.SenderID == "" || s.RoomID == "" {
		p.log.Debug("Dropping incomplete message", "connectionID", connectionID, "room", s.RoomID)
		return Result{}, false
	}

	participant, ok := p.directory.Lookup(connectionID)
	if !ok || participant.Room != s.RoomID || !p.rooms.IsMember(s.RoomID, participant.AnonymousID) {
		p.log.Debug("Dropping message for a room the connection has not joined",
			"connectionID", connectionID, "room", s.RoomID)
		return Result{}, false
	}
	if participant.AnonymousID != s.SenderID {
		p.log.Debug("Dropping message sent under another id", "connectionID", connectionID, "room", s.RoomID)
		return Result{}, false
	}

	id := s.ID
	if id == "" {
		id = p.newID()
	}
	ts, ok := ParseClientTimestamp(s.Timestamp)
	if !ok {
		ts = p.now()
	}

	msg := Message{
		ID:           id,
		Content:      Truncate(s.Content, p.maxContent),
		SenderID:     participant.AnonymousID,
		Room:         s.RoomID,
		Mood:         ParseMood(s.Mood),
		Timestamp:    ts,
		ConnectionID: connectionID,
	}
	if !p.rooms.AppendMessage(msg.Room, msg) {
		p.log.Debug("Dropping message for unknown room", "connectionID", connectionID, "room", s.RoomID)
		return Result{}, false
	}
	p.log.Info("Anonymous message", "room", msg.Room, "preview", Truncate(msg.Content, previewLength))

	crisis := msg.Room == CrisisRoom
	if !crisis && p.scanner != nil {
		crisis = p.scanner.Scan(msg.Content)
	}
	return Result{Message: msg, Crisis: crisis}, true
}

// Truncate keeps the first n characters of s.
func Truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}

// ParseClientTimestamp accepts an RFC 3339 string or a number of Unix
// milliseconds. Missing or unparseable values report false.
func ParseClientTimestamp(raw json.RawMessage) (time.Time, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return time.Time{}, false
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		s = strings.TrimSpace(s)
		if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
			return t, true
		}
		if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
			return time.UnixMilli(ms), true
		}
		return time.Time{}, false
	}

	var ms float64
	if err := json.Unmarshal(raw, &ms); err == nil && ms >= math.MinInt64 && ms < math.MaxInt64 {
		return time.UnixMilli(int64(ms)), true
	}
	return time.Time{}, false
}
