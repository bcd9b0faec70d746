package server

import (
	"errors"
	"io"
	"log/slog"
	"net"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/verse-labs/presence-server/internal/broadcast"
	"github.com/verse-labs/presence-server/internal/dispatch"
	"github.com/verse-labs/presence-server/internal/domain"
	"github.com/verse-labs/presence-server/internal/metrics"
	"github.com/verse-labs/presence-server/internal/registry"
	"github.com/verse-labs/presence-server/internal/wire"
)

const (
	DefaultRoom      = "lobby"
	DefaultSendQueue = 256
)

// Config carries the per-connection knobs; zero values get defaults.
type Config struct {
	DefaultRoom   string
	SendQueueSize int
	IdleTimeout   time.Duration // 0 disables the liveness deadline
	Codec         wire.Codec
}

// Server owns the accept loop and the lifecycle of every connection.
type Server struct {
	cfg  Config
	reg  *registry.Registry
	disp *dispatch.Dispatcher
	bc   *broadcast.Engine
	m    *metrics.Metrics
}

func New(cfg Config, reg *registry.Registry, disp *dispatch.Dispatcher, bc *broadcast.Engine, m *metrics.Metrics) *Server {
	if cfg.DefaultRoom == "" {
		cfg.DefaultRoom = DefaultRoom
	}
	if cfg.SendQueueSize <= 0 {
		cfg.SendQueueSize = DefaultSendQueue
	}
	return &Server{cfg: cfg, reg: reg, disp: disp, bc: bc, m: m}
}

// Serve accepts connections until the listener closes and hands each one
// its own goroutine.
func (s *Server) Serve(lis net.Listener) error {
	for {
		conn, err := lis.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			return err
		}
		go s.HandleConn(conn)
	}
}

type readDeadliner interface {
	SetReadDeadline(t time.Time) error
}

// HandleConn runs one connection's full lifecycle: register, welcome,
// announce, read loop, teardown. It returns when the transport is done.
// The transport may be a TCP conn or anything else presenting an ordered
// byte stream.
func (s *Server) HandleConn(t io.ReadWriteCloser) {
	id := uuid.New().String()
	conn := newSessionConn(t, s.cfg.SendQueueSize)
	go conn.writePump()

	sess := &domain.Session{
		ID:       id,
		Conn:     conn,
		Status:   domain.StatusOnline,
		Room:     s.cfg.DefaultRoom,
		LastSeen: time.Now(),
	}
	s.reg.Add(sess)
	s.m.ConnectionsTotal.Add(1)
	s.m.ConnectionsCurrent.Add(1)
	slog.Info("session connected", "session", id, "room", s.cfg.DefaultRoom)

	defer func() {
		info, ok := s.reg.Remove(id)
		_ = conn.Close()
		s.m.ConnectionsCurrent.Add(-1)
		if !ok {
			return
		}
		if env, err := wire.New(wire.TypeLeft, "", wire.PresencePayload{ID: id, Name: info.Name, Room: info.Room}); err == nil {
			s.bc.Broadcast(info.Room, env, "")
		}
		slog.Info("session disconnected", "session", id, "room", info.Room)
	}()

	if env, err := wire.New(wire.TypeWelcome, "", wire.WelcomePayload{ID: id}); err == nil {
		if err := s.bc.Send(id, env); err != nil {
			return
		}
	}
	if env, err := wire.New(wire.TypeJoined, "", wire.PresencePayload{ID: id, Room: s.cfg.DefaultRoom}); err == nil {
		s.bc.Broadcast(s.cfg.DefaultRoom, env, id)
	}

	dl, hasDeadline := t.(readDeadliner)
	r := &countingReader{r: t, n: &s.m.BytesIn}

	for {
		if s.cfg.IdleTimeout > 0 && hasDeadline {
			_ = dl.SetReadDeadline(time.Now().Add(s.cfg.IdleTimeout))
		}
		env, err := s.cfg.Codec.Read(r)
		if err != nil {
			var de *wire.DecodeError
			if errors.As(err, &de) {
				// Framing survived; drop the message, keep the stream.
				s.m.DecodeErrors.Add(1)
				slog.Warn("dropping malformed message", "session", id, "err", err)
				continue
			}
			if !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, net.ErrClosed) {
				slog.Warn("read failed", "session", id, "err", err)
			}
			return
		}
		s.m.MessagesIn.Add(1)
		s.reg.Touch(id, time.Now())
		s.disp.Dispatch(id, env)
	}
}

type countingReader struct {
	r io.Reader
	n *atomic.Int64
}

func (cr *countingReader) Read(p []byte) (int, error) {
	n, err := cr.r.Read(p)
	cr.n.Add(int64(n))
	return n, err
}
