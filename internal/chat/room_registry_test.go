package chat

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestMessage(room string, i int, at time.Time) Message {
	return Message{
		ID:        fmt.Sprintf("msg-%d", i),
		Content:   fmt.Sprintf("message %d", i),
		SenderID:  "anon_1",
		Room:      room,
		Mood:      MoodNeutral,
		Timestamp: at,
	}
}

func TestRoomRegistry_DefaultRooms(t *testing.T) {
	r := NewRoomRegistry(0)

	for _, id := range DefaultRooms {
		assert.True(t, r.Exists(id), "default room %s should exist", id)
		assert.Equal(t, 0, r.MemberCount(id))
	}
	assert.Equal(t, len(DefaultRooms), r.RoomCount())
}

func TestRoomRegistry_JoinIsIdempotent(t *testing.T) {
	r := NewRoomRegistry(0)

	assert.Equal(t, 1, r.Join("general", "anon_x"))
	assert.Equal(t, 1, r.Join("general", "anon_x"))
	assert.Equal(t, 1, r.MemberCount("general"))
	assert.True(t, r.IsMember("general", "anon_x"))
}

func TestRoomRegistry_LeaveIsIdempotent(t *testing.T) {
	r := NewRoomRegistry(0)
	r.Join("general", "anon_x")
	r.Join("general", "anon_y")

	assert.Equal(t, 1, r.Leave("general", "anon_x"))
	assert.False(t, r.IsMember("general", "anon_x"))

	assert.Equal(t, 1, r.Leave("general", "anon_x"))
	assert.Equal(t, 0, r.Leave("unknown-room", "anon_x"))
	assert.Equal(t, 1, r.MemberCount("general"))
}

func TestRoomRegistry_JoinCreatesAdHocRoom(t *testing.T) {
	r := NewRoomRegistry(0)

	assert.False(t, r.Exists("spontaneous-42"))
	r.Join("spontaneous-42", "anon_1")
	assert.True(t, r.Exists("spontaneous-42"))

	assert.True(t, r.EnsureRoom("another"))
	assert.False(t, r.EnsureRoom("another"))
}

func TestRoomRegistry_UnknownRoomReads(t *testing.T) {
	r := NewRoomRegistry(0)

	assert.Equal(t, 0, r.MemberCount("nope"))
	assert.Empty(t, r.RecentHistory("nope", 20))
	assert.NotNil(t, r.RecentHistory("nope", 20))
	assert.False(t, r.IsMember("nope", "anon_x"))

	_, ok := r.Stats("nope")
	assert.False(t, ok)
	assert.False(t, r.AppendMessage("nope", newTestMessage("nope", 1, time.Now())))
}

func TestRoomRegistry_HistoryIsCapped(t *testing.T) {
	r := NewRoomRegistry(0)
	now := time.Now()

	for i := 0; i < 250; i++ {
		require.True(t, r.AppendMessage("general", newTestMessage("general", i, now)))
		require.LessOrEqual(t, len(r.RecentHistory("general", 1000)), MaxHistory)
	}

	history := r.RecentHistory("general", 1000)
	require.Len(t, history, MaxHistory)
	assert.Equal(t, "msg-150", history[0].ID)
	assert.Equal(t, "msg-249", history[MaxHistory-1].ID)

	last := r.RecentHistory("general", HistoryPageSize)
	require.Len(t, last, HistoryPageSize)
	assert.Equal(t, "msg-230", last[0].ID)
}

func TestRoomRegistry_SwapMember(t *testing.T) {
	r := NewRoomRegistry(0)
	r.Join("family", "anon_1")

	r.SwapMember("family", "anon_1", "anon_2")

	assert.False(t, r.IsMember("family", "anon_1"))
	assert.True(t, r.IsMember("family", "anon_2"))
	assert.Equal(t, 1, r.MemberCount("family"))
}

func TestRoomRegistry_SweepPrunesOldMessages(t *testing.T) {
	r := NewRoomRegistry(0)
	now := time.Now()

	for i := 0; i < 3; i++ {
		r.AppendMessage("general", newTestMessage("general", i, now.Add(-2*time.Hour)))
	}
	r.AppendMessage("general", newTestMessage("general", 3, now.Add(-time.Minute)))

	result := r.Sweep(time.Hour, now)

	assert.Equal(t, 3, result.MessagesRemoved)
	history := r.RecentHistory("general", 100)
	require.Len(t, history, 1)
	assert.Equal(t, "msg-3", history[0].ID)
}

func TestRoomRegistry_SweepRemovesEmptyAdHocRooms(t *testing.T) {
	r := NewRoomRegistry(0)
	r.Join("spontaneous-42", "anon_1")
	r.Leave("spontaneous-42", "anon_1")
	r.Join("busy-room", "anon_2")

	result := r.Sweep(time.Hour, time.Now())

	assert.Equal(t, []string{"spontaneous-42"}, result.RoomsRemoved)
	assert.False(t, r.Exists("spontaneous-42"))
	assert.True(t, r.Exists("busy-room"))
	assert.True(t, r.Exists("general"), "default rooms survive sweeps with zero members")
}

func TestRoomRegistry_RoomsAndStats(t *testing.T) {
	r := NewRoomRegistry(0)
	now := time.Now()
	r.Join("general", "anon_1")
	r.Join("general", "anon_2")
	for i := 0; i < 15; i++ {
		r.AppendMessage("general", newTestMessage("general", i, now))
	}

	rooms := r.Rooms()
	require.Len(t, rooms, len(DefaultRooms))
	for i := 1; i < len(rooms); i++ {
		assert.Less(t, rooms[i-1].ID, rooms[i].ID)
	}

	stats, ok := r.Stats("general")
	require.True(t, ok)
	assert.Equal(t, 2, stats.ActiveUsers)
	assert.Equal(t, 15, stats.MessageCount)
	assert.True(t, stats.Default)
	require.Len(t, stats.RecentActivity, RecentActivitySize)
	assert.Equal(t, "msg-14", stats.RecentActivity[RecentActivitySize-1].ID)
}

func TestRoomRegistry_ConcurrentAccess(t *testing.T) {
	r := NewRoomRegistry(0)
	now := time.Now()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := fmt.Sprintf("anon_%d", i)
			r.Join("general", id)
			for j := 0; j < 20; j++ {
				r.AppendMessage("general", newTestMessage("general", j, now))
			}
			r.Sweep(time.Hour, now)
			_ = r.MemberCount("general")
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 20, r.MemberCount("general"))
	assert.Len(t, r.RecentHistory("general", 1000), MaxHistory)
}
