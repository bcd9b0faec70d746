package ws

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dialTest(t *testing.T, handle func(io.ReadWriteCloser)) *websocket.Conn {
	t.Helper()

	srv := httptest.NewServer(NewHandler(handle))
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func TestStreamConn_EchoRoundTrip(t *testing.T) {
	conn := dialTest(t, func(rwc io.ReadWriteCloser) {
		defer rwc.Close()
		buf := make([]byte, 64)
		for {
			n, err := rwc.Read(buf)
			if err != nil {
				return
			}
			if _, err := rwc.Write(buf[:n]); err != nil {
				return
			}
		}
	})

	require.NoError(t, conn.WriteMessage(websocket.BinaryMessage, []byte("hello")))
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), msg)
}

func TestStreamConn_ChainsMessagesIntoOneStream(t *testing.T) {
	got := make(chan []byte, 1)
	conn := dialTest(t, func(rwc io.ReadWriteCloser) {
		defer rwc.Close()
		// read across message boundaries as a single stream
		buf := make([]byte, 10)
		if _, err := io.ReadFull(rwc, buf); err != nil {
			return
		}
		got <- buf
	})

	require.NoError(t, conn.WriteMessage(websocket.BinaryMessage, []byte("hello")))
	require.NoError(t, conn.WriteMessage(websocket.BinaryMessage, []byte("world")))

	select {
	case buf := <-got:
		assert.Equal(t, []byte("helloworld"), buf)
	case <-time.After(2 * time.Second):
		t.Fatal("handler never assembled the stream")
	}
}

func TestStreamConn_EachWriteIsOneBinaryMessage(t *testing.T) {
	conn := dialTest(t, func(rwc io.ReadWriteCloser) {
		defer rwc.Close()
		_, _ = rwc.Write([]byte("first"))
		_, _ = rwc.Write([]byte("second"))
		// hold the connection open until the client is done
		_, _ = rwc.Read(make([]byte, 1))
	})

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	typ, msg, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.Equal(t, websocket.BinaryMessage, typ)
	assert.Equal(t, []byte("first"), msg)

	_, msg, err = conn.ReadMessage()
	require.NoError(t, err)
	assert.Equal(t, []byte("second"), msg)
}
