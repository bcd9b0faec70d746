package server

import (
	"io"
	"net"
	"sync"

	"github.com/verse-labs/presence-server/internal/domain"
)

// sessionConn wraps a transport with a buffered send queue drained by a
// single write pump, so broadcast never does socket I/O inline and the
// per-target delivery order is the enqueue order.
type sessionConn struct {
	transport io.ReadWriteCloser
	send      chan []byte
	done      chan struct{}
	closeOnce sync.Once
	closeErr  error
}

func newSessionConn(t io.ReadWriteCloser, queueSize int) *sessionConn {
	return &sessionConn{
		transport: t,
		send:      make(chan []byte, queueSize),
		done:      make(chan struct{}),
	}
}

// Send enqueues one framed message. A full queue fails immediately: a
// client that cannot drain its socket is treated as a delivery failure.
func (c *sessionConn) Send(data []byte) error {
	select {
	case <-c.done:
		return net.ErrClosed
	default:
	}
	select {
	case c.send <- data:
		return nil
	default:
		return domain.ErrSendQueueFull
	}
}

// Close shuts the transport and stops the write pump. Safe to call from
// any goroutine, any number of times.
func (c *sessionConn) Close() error {
	c.closeOnce.Do(func() {
		close(c.done)
		c.closeErr = c.transport.Close()
	})
	return c.closeErr
}

func (c *sessionConn) writePump() {
	defer c.Close()
	for {
		select {
		case <-c.done:
			return
		case data := <-c.send:
			if _, err := c.transport.Write(data); err != nil {
				return
			}
		}
	}
}
