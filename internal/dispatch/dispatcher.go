package dispatch

import (
	"log/slog"
	"sync"

	"github.com/verse-labs/presence-server/internal/wire"
)

// HandlerFunc processes one inbound envelope on behalf of the sending
// session. A returned error terminates only this message, never the
// connection.
type HandlerFunc func(senderID string, env wire.Envelope) error

// Dispatcher maps message-type tags to handlers.
type Dispatcher struct {
	mu       sync.RWMutex
	handlers map[string]HandlerFunc
}

func New() *Dispatcher {
	return &Dispatcher{handlers: make(map[string]HandlerFunc)}
}

func (d *Dispatcher) Register(msgType string, h HandlerFunc) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers[msgType] = h
}

// Dispatch routes env to its handler. Unknown types are ignored with a
// debug log; an unsupported type must never cost a client its connection.
func (d *Dispatcher) Dispatch(senderID string, env wire.Envelope) {
	d.mu.RLock()
	h, ok := d.handlers[env.Type]
	d.mu.RUnlock()

	if !ok {
		slog.Debug("ignoring unknown message type", "session", senderID, "type", env.Type)
		return
	}
	if err := h(senderID, env); err != nil {
		slog.Warn("handler failed", "session", senderID, "type", env.Type, "err", err)
	}
}
