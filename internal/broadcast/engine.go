package broadcast

import (
	"log/slog"

	"github.com/verse-labs/presence-server/internal/domain"
	"github.com/verse-labs/presence-server/internal/metrics"
	"github.com/verse-labs/presence-server/internal/wire"
)

// Directory is the read side of the registry the engine fans out over.
type Directory interface {
	Conn(id string) (domain.Conn, bool)
	MembersOf(room string) []string
}

// Engine delivers envelopes to sessions. Delivery is enqueue-only: the
// per-connection write pump does the socket I/O, so a slow client fails
// its own send without stalling the room.
type Engine struct {
	codec wire.Codec
	dir   Directory
	m     *metrics.Metrics
}

func New(codec wire.Codec, dir Directory, m *metrics.Metrics) *Engine {
	return &Engine{codec: codec, dir: dir, m: m}
}

// Send delivers one envelope to a single session.
func (e *Engine) Send(id string, env wire.Envelope) error {
	conn, ok := e.dir.Conn(id)
	if !ok {
		return domain.ErrSessionNotFound
	}
	data, err := e.codec.Encode(env)
	if err != nil {
		return err
	}
	if err := conn.Send(data); err != nil {
		e.fail(id, env.Type, conn, err)
		return err
	}
	e.m.MessagesOut.Add(1)
	e.m.BytesOut.Add(int64(len(data)))
	return nil
}

// Broadcast delivers env to every member of the room except excludeID.
// A failed send is logged and counted, never aborts the loop, and kicks
// off the failing target's teardown asynchronously.
func (e *Engine) Broadcast(room string, env wire.Envelope, excludeID string) {
	data, err := e.codec.Encode(env)
	if err != nil {
		slog.Error("broadcast encode failed", "room", room, "type", env.Type, "err", err)
		return
	}

	for _, id := range e.dir.MembersOf(room) {
		if id == excludeID {
			continue
		}
		conn, ok := e.dir.Conn(id)
		if !ok {
			continue // left between snapshot and send
		}
		if err := conn.Send(data); err != nil {
			e.fail(id, env.Type, conn, err)
			continue
		}
		e.m.MessagesOut.Add(1)
		e.m.BytesOut.Add(int64(len(data)))
	}
	e.m.Broadcasts.Add(1)
}

// fail records a delivery failure and closes the target's transport, which
// unwinds its read loop and runs the normal disconnect path.
func (e *Engine) fail(id, msgType string, conn domain.Conn, err error) {
	e.m.SendFailures.Add(1)
	slog.Warn("send failed", "session", id, "type", msgType, "err", err)
	go func() { _ = conn.Close() }()
}
