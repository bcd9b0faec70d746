package domain

import "time"

// Status is the presence state a session advertises to its room.
type Status string

const (
	StatusOnline  Status = "online"
	StatusAway    Status = "away"
	StatusBusy    Status = "busy"
	StatusOffline Status = "offline"
)

func (s Status) Valid() bool {
	switch s {
	case StatusOnline, StatusAway, StatusBusy, StatusOffline:
		return true
	}
	return false
}

// Vector3 is a world-space position.
type Vector3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Conn is the outbound side of a client connection. Send must not block on
// network I/O; a slow client is reported as a send error, not a stall.
type Conn interface {
	Send(data []byte) error
	Close() error
}

// Session is the authoritative server-side state for one connected client.
// Mutable fields are guarded by the registry; only the registry package may
// touch them after Add.
type Session struct {
	ID       string
	Conn     Conn
	UserID   string // user-store id; empty for guests
	Name     string
	Location Vector3
	Status   Status
	Room     string
	LastSeen time.Time
}

// Info is a read-only snapshot of a session, safe to use outside the
// registry lock.
type Info struct {
	ID       string
	UserID   string
	Name     string
	Location Vector3
	Status   Status
	Room     string
	LastSeen time.Time
}
