package wire

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// DefaultMaxFrame bounds the serialized envelope size.
const DefaultMaxFrame = 1 << 20

// ErrFrameTooLarge is a framing error: the declared length cannot be
// trusted, so the stream is unrecoverable and the connection must close.
var ErrFrameTooLarge = errors.New("wire: frame exceeds size limit")

// DecodeError marks a body that framed cleanly but did not parse. The
// length prefix was honored, so subsequent frames are still readable and
// the caller may drop the message instead of closing the connection.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string { return "wire: decode envelope: " + e.Err.Error() }
func (e *DecodeError) Unwrap() error { return e.Err }

// Codec frames envelopes as a 4-byte big-endian length followed by that
// many bytes of JSON. The zero value uses DefaultMaxFrame.
type Codec struct {
	MaxFrame uint32
}

func (c Codec) limit() uint32 {
	if c.MaxFrame == 0 {
		return DefaultMaxFrame
	}
	return c.MaxFrame
}

// Encode serializes env into a single length-prefixed frame.
func (c Codec) Encode(env Envelope) ([]byte, error) {
	body, err := json.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("wire: encode envelope: %w", err)
	}
	if uint32(len(body)) > c.limit() {
		return nil, ErrFrameTooLarge
	}
	buf := make([]byte, 4+len(body))
	binary.BigEndian.PutUint32(buf[:4], uint32(len(body)))
	copy(buf[4:], body)
	return buf, nil
}

// Write encodes env and writes the frame in one call.
func (c Codec) Write(w io.Writer, env Envelope) error {
	buf, err := c.Encode(env)
	if err != nil {
		return err
	}
	_, err = w.Write(buf)
	return err
}

// Read blocks until one full frame arrives. A short read is never treated
// as a complete message: both the length prefix and the body are read with
// io.ReadFull.
func (c Codec) Read(r io.Reader) (Envelope, error) {
	var lenBuf [4]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		return Envelope{}, err
	}
	n := binary.BigEndian.Uint32(lenBuf[:])
	if n > c.limit() {
		return Envelope{}, ErrFrameTooLarge
	}
	if n == 0 {
		return Envelope{}, &DecodeError{Err: errors.New("zero-length frame")}
	}
	body := make([]byte, n)
	if _, err := io.ReadFull(r, body); err != nil {
		return Envelope{}, err
	}
	var env Envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return Envelope{}, &DecodeError{Err: err}
	}
	if env.Type == "" {
		return Envelope{}, &DecodeError{Err: errors.New("missing type tag")}
	}
	return env, nil
}
