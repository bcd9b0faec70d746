package registry

import "github.com/verse-labs/presence-server/internal/domain"

// Room routing: rooms are not stored objects, membership is the set of
// sessions whose Room field matches. The room index lives inside the
// registry lock so it can never drift from the sessions themselves.

// MembersOf returns the ids of every session currently in the room. The
// slice is a copy taken under the read lock; callers may do I/O with it.
func (r *Registry) MembersOf(room string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rs := r.rooms[room]
	if len(rs) == 0 {
		return nil
	}
	out := make([]string, 0, len(rs))
	for id := range rs {
		out = append(out, id)
	}
	return out
}

// SnapshotRoom returns copies of every session in the room.
func (r *Registry) SnapshotRoom(room string) []domain.Info {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rs := r.rooms[room]
	out := make([]domain.Info, 0, len(rs))
	for id := range rs {
		if s, ok := r.sessions[id]; ok {
			out = append(out, snapshot(s))
		}
	}
	return out
}

// Move reassigns a session to another room and reports the room it left.
// Moving to the current room is a no-op with moved == false, so callers
// can suppress the redundant broadcast.
func (r *Registry) Move(id, toRoom string) (from string, moved bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[id]
	if !ok || s.Room == toRoom {
		return "", false
	}
	from = s.Room
	r.unindex(from, id)
	s.Room = toRoom
	r.index(toRoom, id)
	return from, true
}

// RoomCounts reports member counts per room, для админского /rooms.
func (r *Registry) RoomCounts() map[string]int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string]int, len(r.rooms))
	for room, rs := range r.rooms {
		out[room] = len(rs)
	}
	return out
}
