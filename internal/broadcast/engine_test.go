package broadcast

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verse-labs/presence-server/internal/domain"
	"github.com/verse-labs/presence-server/internal/metrics"
	"github.com/verse-labs/presence-server/internal/registry"
	"github.com/verse-labs/presence-server/internal/wire"
)

// mockConn records sends and can be told to fail.
type mockConn struct {
	mu      sync.Mutex
	frames  [][]byte
	sendErr error
	closed  bool
}

func (c *mockConn) Send(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sendErr != nil {
		return c.sendErr
	}
	c.frames = append(c.frames, data)
	return nil
}

func (c *mockConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *mockConn) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.frames)
}

func (c *mockConn) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func addSession(t *testing.T, reg *registry.Registry, id, room string) *mockConn {
	t.Helper()
	conn := &mockConn{}
	reg.Add(&domain.Session{ID: id, Conn: conn, Room: room, Status: domain.StatusOnline})
	return conn
}

func mustEnvelope(t *testing.T, msgType, sender string, payload any) wire.Envelope {
	t.Helper()
	env, err := wire.New(msgType, sender, payload)
	require.NoError(t, err)
	return env
}

func TestEngine_Send(t *testing.T) {
	reg := registry.New()
	conn := addSession(t, reg, "a", "lobby")
	e := New(wire.Codec{}, reg, metrics.New())

	env := mustEnvelope(t, wire.TypeWelcome, "", wire.WelcomePayload{ID: "a"})
	require.NoError(t, e.Send("a", env))
	assert.Equal(t, 1, conn.count())

	err := e.Send("ghost", env)
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestEngine_BroadcastRoomIsolation(t *testing.T) {
	reg := registry.New()
	a := addSession(t, reg, "a", "lobby")
	b := addSession(t, reg, "b", "lobby")
	c := addSession(t, reg, "c", "garden")
	e := New(wire.Codec{}, reg, metrics.New())

	env := mustEnvelope(t, wire.TypeMessage, "a", wire.ChatPayload{Content: "hi"})
	e.Broadcast("lobby", env, "")

	assert.Equal(t, 1, a.count())
	assert.Equal(t, 1, b.count())
	assert.Equal(t, 0, c.count(), "other rooms must not receive")
}

func TestEngine_BroadcastExcludesSender(t *testing.T) {
	reg := registry.New()
	a := addSession(t, reg, "a", "lobby")
	b := addSession(t, reg, "b", "lobby")
	e := New(wire.Codec{}, reg, metrics.New())

	env := mustEnvelope(t, wire.TypeMovement, "a", wire.MovementPayload{ID: "a", X: 1})
	e.Broadcast("lobby", env, "a")

	assert.Equal(t, 0, a.count())
	assert.Equal(t, 1, b.count())
}

func TestEngine_BroadcastPartialFailure(t *testing.T) {
	reg := registry.New()
	a := addSession(t, reg, "a", "lobby")
	b := addSession(t, reg, "b", "lobby")
	c := addSession(t, reg, "c", "lobby")
	b.sendErr = errors.New("queue full")

	m := metrics.New()
	e := New(wire.Codec{}, reg, m)

	env := mustEnvelope(t, wire.TypeMessage, "a", wire.ChatPayload{Content: "hi"})
	e.Broadcast("lobby", env, "")

	// one bad target never costs the others their delivery
	assert.Equal(t, 1, a.count())
	assert.Equal(t, 0, b.count())
	assert.Equal(t, 1, c.count())
	assert.Equal(t, int64(1), m.SendFailures.Load())

	// teardown of the failed target is async
	assert.Eventually(t, b.isClosed, time.Second, 5*time.Millisecond)
}

func TestEngine_BroadcastEmptyRoom(t *testing.T) {
	reg := registry.New()
	m := metrics.New()
	e := New(wire.Codec{}, reg, m)

	env := mustEnvelope(t, wire.TypeMessage, "a", wire.ChatPayload{Content: "hi"})
	e.Broadcast("nowhere", env, "")

	assert.Equal(t, int64(0), m.MessagesOut.Load())
	assert.Equal(t, int64(1), m.Broadcasts.Load())
}

func TestEngine_SendFailureCountsAndCloses(t *testing.T) {
	reg := registry.New()
	conn := addSession(t, reg, "a", "lobby")
	conn.sendErr = errors.New("queue full")

	m := metrics.New()
	e := New(wire.Codec{}, reg, m)

	env := mustEnvelope(t, wire.TypePong, "", wire.PongPayload{Echo: 1})
	require.Error(t, e.Send("a", env))
	assert.Equal(t, int64(1), m.SendFailures.Load())
	assert.Eventually(t, conn.isClosed, time.Second, 5*time.Millisecond)
}
