package registry

import (
	"sync"
	"time"

	"github.com/verse-labs/presence-server/internal/domain"
)

// Registry is the single source of truth for connected sessions. A session
// is visible from Add until Remove; mutations to session fields go through
// the registry so one RWMutex guards both the session map and the room
// index. Critical sections do map work only, никакого I/O под локом.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*domain.Session
	rooms    map[string]map[string]struct{} // roomID -> set of session ids
}

func New() *Registry {
	return &Registry{
		sessions: make(map[string]*domain.Session),
		rooms:    make(map[string]map[string]struct{}),
	}
}

// Add registers a session under its ID and indexes it in its room.
func (r *Registry) Add(s *domain.Session) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if old, ok := r.sessions[s.ID]; ok {
		r.unindex(old.Room, s.ID)
	}
	r.sessions[s.ID] = s
	r.index(s.Room, s.ID)
}

// Remove deregisters a session and returns its final snapshot so the
// caller can announce the departure. Removing an absent id is a no-op.
func (r *Registry) Remove(id string) (domain.Info, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[id]
	if !ok {
		return domain.Info{}, false
	}
	delete(r.sessions, id)
	r.unindex(s.Room, id)
	return snapshot(s), true
}

// Get returns a read-only snapshot of the session.
func (r *Registry) Get(id string) (domain.Info, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.sessions[id]
	if !ok {
		return domain.Info{}, false
	}
	return snapshot(s), true
}

// Conn returns the outbound handle for a session.
func (r *Registry) Conn(id string) (domain.Conn, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.sessions[id]
	if !ok {
		return nil, false
	}
	return s.Conn, true
}

// SetIdentity records the display name and user-store id set by a join.
func (r *Registry) SetIdentity(id, name, userID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[id]
	if !ok {
		return false
	}
	s.Name = name
	s.UserID = userID
	return true
}

func (r *Registry) UpdateLocation(id string, loc domain.Vector3) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[id]
	if !ok {
		return false
	}
	s.Location = loc
	return true
}

func (r *Registry) UpdateStatus(id string, st domain.Status) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[id]
	if !ok {
		return false
	}
	s.Status = st
	return true
}

// Touch refreshes the liveness timestamp on each received message.
func (r *Registry) Touch(id string, at time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if s, ok := r.sessions[id]; ok {
		s.LastSeen = at
	}
}

// ForEachInRoom calls fn with a snapshot of every session in the room.
// fn runs under the read lock and must not perform I/O.
func (r *Registry) ForEachInRoom(room string, fn func(domain.Info)) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for id := range r.rooms[room] {
		if s, ok := r.sessions[id]; ok {
			fn(snapshot(s))
		}
	}
}

// Snapshot returns copies of all registered sessions.
func (r *Registry) Snapshot() []domain.Info {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.Info, 0, len(r.sessions))
	for _, s := range r.sessions {
		out = append(out, snapshot(s))
	}
	return out
}

// Len reports the number of live sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

func (r *Registry) index(room, id string) {
	rs, ok := r.rooms[room]
	if !ok {
		rs = make(map[string]struct{})
		r.rooms[room] = rs
	}
	rs[id] = struct{}{}
}

func (r *Registry) unindex(room, id string) {
	if rs, ok := r.rooms[room]; ok {
		delete(rs, id)
		if len(rs) == 0 {
			delete(r.rooms, room)
		}
	}
}

func snapshot(s *domain.Session) domain.Info {
	return domain.Info{
		ID:       s.ID,
		UserID:   s.UserID,
		Name:     s.Name,
		Location: s.Location,
		Status:   s.Status,
		Room:     s.Room,
		LastSeen: s.LastSeen,
	}
}
