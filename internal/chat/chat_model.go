package chat

import (
	"strings"
	"time"
)

const (
	// MaxHistory is the number of messages a room keeps in memory.
	MaxHistory = 100

	// MaxContentLength is the number of characters kept from a message body.
	MaxContentLength = 500

	// HistoryPageSize is the number of messages returned by a history request.
	HistoryPageSize = 20

	// RecentActivitySize is the number of messages included in room stats.
	RecentActivitySize = 10

	// CrisisRoom receives crisis resources for every message posted to it.
	CrisisRoom = "crisis"
)

// DefaultRooms always exist, even when empty, and are never swept.
var DefaultRooms = []string{
	"general",
	"mental-health",
	"coming-out",
	"family",
	"workplace",
	CrisisRoom,
}

/** --------------------ENTITIES-------------------- */

// Mood is the self-reported mood tag attached to participants and messages.
type Mood string

const (
	MoodHappy   Mood = "happy"
	MoodSad     Mood = "sad"
	MoodAnxious Mood = "anxious"
	MoodAngry   Mood = "angry"
	MoodNeutral Mood = "neutral"
)

// ParseMood maps a client supplied mood onto the known set. Anything
// unrecognised becomes MoodNeutral.
func ParseMood(s string) Mood {
	switch m := Mood(strings.ToLower(strings.TrimSpace(s))); m {
	case MoodHappy, MoodSad, MoodAnxious, MoodAngry, MoodNeutral:
		return m
	default:
		return MoodNeutral
	}
}

// Participant is the anonymous identity bound to one connection.
type Participant struct {
	ConnectionID string    `json:"-"`
	AnonymousID  string    `json:"anonymousId"`
	Room         string    `json:"room"`
	Mood         Mood      `json:"mood"`
	JoinedAt     time.Time `json:"joinedAt"`
}

// Message is an accepted chat message. It is never mutated after it has
// been appended to a room.
type Message struct {
	ID        string    `json:"id"`
	Content   string    `json:"content"`
	SenderID  string    `json:"senderId"`
	Room      string    `json:"room"`
	Mood      Mood      `json:"mood"`
	Timestamp time.Time `json:"timestamp"`

	// ConnectionID identifies the socket that posted the message. It is
	// kept for diagnostics only and never sent to clients.
	ConnectionID string `json:"-"`
}

/** -------------------- DTOs -------------------- */

// RoomInfo is a point-in-time summary of a room.
type RoomInfo struct {
	ID           string    `json:"id"`
	ActiveUsers  int       `json:"activeUsers"`
	MessageCount int       `json:"messageCount"`
	CreatedAt    time.Time `json:"createdAt"`
	Default      bool      `json:"default"`
}

// RoomStats extends RoomInfo with the most recent messages.
type RoomStats struct {
	RoomInfo
	RecentActivity []Message `json:"recentActivity"`
}

// SweepResult reports what a retention sweep removed.
type SweepResult struct {
	MessagesRemoved int
	RoomsRemoved    []string
}
