package chat

import (
	"sort"
	"sync"
	"time"

	"github.com/samber/lo"
)

type room struct {
	id        string
	members   map[string]struct{}
	messages  []Message
	createdAt time.Time
	isDefault bool
}

func (r *room) info() RoomInfo {
	return RoomInfo{
		ID:           r.id,
		ActiveUsers:  len(r.members),
		MessageCount: len(r.messages),
		CreatedAt:    r.createdAt,
		Default:      r.isDefault,
	}
}

// RoomRegistry owns every room, its member set and its bounded history.
// All methods are safe for concurrent use.
type RoomRegistry struct {
	mu         sync.RWMutex
	rooms      map[string]*room
	historyCap int
	now        func() time.Time
}

// NewRoomRegistry creates a registry holding the default rooms. A
// historyCap <= 0 falls back to MaxHistory.
func NewRoomRegistry(historyCap int) *RoomRegistry {
	if historyCap <= 0 {
		historyCap = MaxHistory
	}
	r := &RoomRegistry{
		rooms:      make(map[string]*room),
		historyCap: historyCap,
		now:        time.Now,
	}
	for _, id := range DefaultRooms {
		r.rooms[id] = r.newRoom(id, true)
	}
	return r
}

func (r *RoomRegistry) newRoom(id string, isDefault bool) *room {
	return &room{
		id:        id,
		members:   make(map[string]struct{}),
		createdAt: r.now(),
		isDefault: isDefault,
	}
}

// EnsureRoom creates the room if it does not exist yet and reports whether
// it was created.
func (r *RoomRegistry) EnsureRoom(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, created := r.ensureLocked(id)
	return created
}

func (r *RoomRegistry) ensureLocked(id string) (*room, bool) {
	if rm, ok := r.rooms[id]; ok {
		return rm, false
	}
	rm := r.newRoom(id, false)
	r.rooms[id] = rm
	return rm, true
}

// Join adds participantID to the room, creating the room on first join.
// Joining twice is a no-op. It returns the member count after the call.
func (r *RoomRegistry) Join(roomID, participantID string) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	rm, _ := r.ensureLocked(roomID)
	rm.members[participantID] = struct{}{}
	return len(rm.members)
}

// Leave removes participantID from the room. Leaving a room the
// participant is not in, or an unknown room, is a no-op. It returns the
// member count after the call.
func (r *RoomRegistry) Leave(roomID, participantID string) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	rm, ok := r.rooms[roomID]
	if !ok {
		return 0
	}
	delete(rm.members, participantID)
	return len(rm.members)
}

// SwapMember replaces oldID with newID in the room's member set.
func (r *RoomRegistry) SwapMember(roomID, oldID, newID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rm, ok := r.rooms[roomID]
	if !ok {
		return
	}
	delete(rm.members, oldID)
	rm.members[newID] = struct{}{}
}

// MemberCount returns the number of members, zero for unknown rooms.
func (r *RoomRegistry) MemberCount(roomID string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if rm, ok := r.rooms[roomID]; ok {
		return len(rm.members)
	}
	return 0
}

// IsMember reports whether participantID is currently in the room.
func (r *RoomRegistry) IsMember(roomID, participantID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rm, ok := r.rooms[roomID]
	if !ok {
		return false
	}
	_, ok = rm.members[participantID]
	return ok
}

// AppendMessage stores msg at the end of the room history, evicting the
// oldest entries beyond the history cap. Unknown rooms are ignored and
// false is returned.
func (r *RoomRegistry) AppendMessage(roomID string, msg Message) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	rm, ok := r.rooms[roomID]
	if !ok {
		return false
	}
	rm.messages = append(rm.messages, msg)
	if over := len(rm.messages) - r.historyCap; over > 0 {
		// Copy so the evicted prefix can be collected.
		kept := make([]Message, r.historyCap)
		copy(kept, rm.messages[over:])
		rm.messages = kept
	}
	return true
}

// RecentHistory returns up to n of the newest messages in arrival order.
func (r *RoomRegistry) RecentHistory(roomID string, n int) []Message {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rm, ok := r.rooms[roomID]
	if !ok || n <= 0 {
		return []Message{}
	}
	return lastN(rm.messages, n)
}

func lastN(messages []Message, n int) []Message {
	start := len(messages) - n
	if start < 0 {
		start = 0
	}
	out := make([]Message, len(messages)-start)
	copy(out, messages[start:])
	return out
}

// Sweep removes messages older than maxAge relative to now from every room,
// then deletes non-default rooms without members.
func (r *RoomRegistry) Sweep(maxAge time.Duration, now time.Time) SweepResult {
	r.mu.Lock()
	defer r.mu.Unlock()

	cutoff := now.Add(-maxAge)
	var result SweepResult
	for id, rm := range r.rooms {
		kept := lo.Filter(rm.messages, func(m Message, _ int) bool {
			return m.Timestamp.After(cutoff)
		})
		result.MessagesRemoved += len(rm.messages) - len(kept)
		rm.messages = kept

		if len(rm.members) == 0 && !rm.isDefault {
			delete(r.rooms, id)
			result.RoomsRemoved = append(result.RoomsRemoved, id)
		}
	}
	sort.Strings(result.RoomsRemoved)
	return result
}

// Exists reports whether the room is currently registered.
func (r *RoomRegistry) Exists(roomID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.rooms[roomID]
	return ok
}

// RoomCount returns the number of registered rooms.
func (r *RoomRegistry) RoomCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms)
}

// Rooms returns a summary of every room ordered by id.
func (r *RoomRegistry) Rooms() []RoomInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()

	infos := lo.MapToSlice(r.rooms, func(_ string, rm *room) RoomInfo {
		return rm.info()
	})
	sort.Slice(infos, func(i, j int) bool { return infos[i].ID < infos[j].ID })
	return infos
}

// Stats returns the summary and recent activity of one room.
func (r *RoomRegistry) Stats(roomID string) (RoomStats, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rm, ok := r.rooms[roomID]
	if !ok {
		return RoomStats{}, false
	}
	return RoomStats{
		RoomInfo:       rm.info(),
		RecentActivity: lastN(rm.messages, RecentActivitySize),
	}, true
}
