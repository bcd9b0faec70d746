// Package ws presents a WebSocket connection as the same ordered byte
// stream the TCP listener produces, so browser clients share one codec
// and one connection handler with native ones.
package ws

import (
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

const writeWait = 10 * time.Second

// Handler upgrades GET /ws requests and runs the supplied connection
// handler on the adapted stream. handle blocks until the client is done.
type Handler struct {
	upgrader websocket.Upgrader
	handle   func(io.ReadWriteCloser)
}

func NewHandler(handle func(io.ReadWriteCloser)) *Handler {
	return &Handler{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		handle: handle,
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("ws upgrade failed", "err", err)
		return
	}
	h.handle(newStreamConn(conn))
}

// streamConn chains binary WebSocket messages into one continuous reader
// and emits each Write as one binary message. Only the single write pump
// calls Write, which keeps gorilla's one-writer rule intact.
type streamConn struct {
	ws *websocket.Conn
	r  io.Reader
}

func newStreamConn(ws *websocket.Conn) *streamConn {
	return &streamConn{ws: ws}
}

func (c *streamConn) Read(p []byte) (int, error) {
	for {
		if c.r == nil {
			_, r, err := c.ws.NextReader()
			if err != nil {
				return 0, err
			}
			c.r = r
		}
		n, err := c.r.Read(p)
		if err == io.EOF {
			c.r = nil
			if n > 0 {
				return n, nil
			}
			continue
		}
		return n, err
	}
}

func (c *streamConn) Write(p []byte) (int, error) {
	_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
	if err := c.ws.WriteMessage(websocket.BinaryMessage, p); err != nil {
		return 0, err
	}
	return len(p), nil
}

func (c *streamConn) Close() error {
	return c.ws.Close()
}

// SetReadDeadline lets the connection handler apply its idle timeout.
func (c *streamConn) SetReadDeadline(t time.Time) error {
	return c.ws.SetReadDeadline(t)
}
