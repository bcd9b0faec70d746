package wire

import (
	"encoding/json"
	"errors"
	"time"
)

// Client→server message types.
const (
	TypeJoin     = "join"
	TypeMove     = "move"
	TypeMessage  = "message"
	TypeWhisper  = "whisper"
	TypeStatus   = "status"
	TypeRoom     = "room"
	TypePing     = "ping"
	TypeUserList = "userlist" // request from client, snapshot from server
)

// Server→client message types.
const (
	TypeWelcome      = "welcome"
	TypeMovement     = "movement"
	TypeStatusUpdate = "statusupdate"
	TypeJoined       = "joined"
	TypeLeft         = "left"
	TypePong         = "pong"
	TypeError        = "error"
)

var ErrEmptyPayload = errors.New("wire: empty payload")

// Envelope is the unit of one wire message. SenderID is empty for
// server-originated announcements; Timestamp is epoch milliseconds.
type Envelope struct {
	Type      string          `json:"type"`
	SenderID  string          `json:"senderId,omitempty"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	Timestamp int64           `json:"timestamp"`
}

// New builds an envelope around a marshaled payload, stamped with the
// current time. A nil payload produces an envelope without one.
func New(msgType, senderID string, payload any) (Envelope, error) {
	env := Envelope{
		Type:      msgType,
		SenderID:  senderID,
		Timestamp: time.Now().UnixMilli(),
	}
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return Envelope{}, err
		}
		env.Payload = raw
	}
	return env, nil
}

// DecodePayload unmarshals the payload into dst.
func (e Envelope) DecodePayload(dst any) error {
	if len(e.Payload) == 0 {
		return ErrEmptyPayload
	}
	return json.Unmarshal(e.Payload, dst)
}
