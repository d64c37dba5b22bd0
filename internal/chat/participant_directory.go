package chat

import (
	"sort"
	"sync"
	"time"
)

// MemberSwapper keeps a room's member set in line with identity changes.
type MemberSwapper interface {
	SwapMember(roomID, oldID, newID string)
}

// ParticipantDirectory maps live connections to their anonymous identity.
// It does not join or leave rooms itself; callers pair Bind and Unbind with
// the matching RoomRegistry calls.
type ParticipantDirectory struct {
	mu     sync.RWMutex
	byConn map[string]Participant
	rooms  MemberSwapper
	now    func() time.Time
}

func NewParticipantDirectory(rooms MemberSwapper) *ParticipantDirectory {
	return &ParticipantDirectory{
		byConn: make(map[string]Participant),
		rooms:  rooms,
		now:    time.Now,
	}
}

// Bind records the identity of a connection, replacing any previous
// binding. The replaced participant is returned so the caller can leave
// its old room.
func (d *ParticipantDirectory) Bind(connectionID, anonymousID, room string, mood Mood) (Participant, Participant, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	prev, hadPrev := d.byConn[connectionID]
	p := Participant{
		ConnectionID: connectionID,
		AnonymousID:  anonymousID,
		Room:         room,
		Mood:         mood,
		JoinedAt:     d.now(),
	}
	d.byConn[connectionID] = p
	return p, prev, hadPrev
}

// Rebind changes the anonymous id of a bound connection while keeping its
// room and mood, and swaps the member key in the room. It returns the
// participant as it was before the change.
func (d *ParticipantDirectory) Rebind(connectionID, newAnonymousID string) (Participant, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	p, ok := d.byConn[connectionID]
	if !ok {
		return Participant{}, false
	}
	old := p
	p.AnonymousID = newAnonymousID
	d.byConn[connectionID] = p

	if d.rooms != nil && old.AnonymousID != newAnonymousID {
		d.rooms.SwapMember(p.Room, old.AnonymousID, newAnonymousID)
	}
	return old, true
}

// Unbind removes and returns the binding of a connection. Because the
// returned value is read under the same lock that deletes it, callers get
// the last known room and id without a separate Lookup.
func (d *ParticipantDirectory) Unbind(connectionID string) (Participant, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	p, ok := d.byConn[connectionID]
	if ok {
		delete(d.byConn, connectionID)
	}
	return p, ok
}

func (d *ParticipantDirectory) Lookup(connectionID string) (Participant, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	p, ok := d.byConn[connectionID]
	return p, ok
}

// ConnectionsInRoom returns the ids of connections bound to room, sorted.
func (d *ParticipantDirectory) ConnectionsInRoom(room string) []string {
	d.mu.RLock()
	defer d.mu.RUnlock()

	var ids []string
	for connID, p := range d.byConn {
		if p.Room == room {
			ids = append(ids, connID)
		}
	}
	sort.Strings(ids)
	return ids
}

// Count returns the number of bound connections.
func (d *ParticipantDirectory) Count() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.byConn)
}
