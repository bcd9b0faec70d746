package dispatch

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/verse-labs/presence-server/internal/broadcast"
	"github.com/verse-labs/presence-server/internal/domain"
	"github.com/verse-labs/presence-server/internal/registry"
	"github.com/verse-labs/presence-server/internal/userstore"
	"github.com/verse-labs/presence-server/internal/wire"
)

const storeTimeout = 5 * time.Second

// Handlers implements every recognized client message type against the
// registry and the broadcast engine.
type Handlers struct {
	reg   *registry.Registry
	bc    *broadcast.Engine
	users userstore.Store // nil means guests only
}

func NewHandlers(reg *registry.Registry, bc *broadcast.Engine, users userstore.Store) *Handlers {
	return &Handlers{reg: reg, bc: bc, users: users}
}

// Register wires all handlers into the dispatcher.
func (h *Handlers) Register(d *Dispatcher) {
	d.Register(wire.TypeJoin, h.Join)
	d.Register(wire.TypeMove, h.Move)
	d.Register(wire.TypeMessage, h.Message)
	d.Register(wire.TypeWhisper, h.Whisper)
	d.Register(wire.TypeStatus, h.Status)
	d.Register(wire.TypeRoom, h.Room)
	d.Register(wire.TypePing, h.Ping)
	d.Register(wire.TypeUserList, h.UserList)
}

// Join sets the session's identity and location. When a credential is
// supplied it goes through the user store: authenticate, or register on
// first sight. The whole room (sender included) gets a fresh userlist.
func (h *Handlers) Join(senderID string, env wire.Envelope) error {
	var p wire.JoinPayload
	if err := env.DecodePayload(&p); err != nil {
		return err
	}
	name := strings.TrimSpace(p.Name)
	if name == "" {
		return domain.ErrNameRequired
	}

	userID := ""
	if p.Credential != "" && h.users != nil {
		uid, err := h.authenticate(name, p.Credential)
		if err != nil {
			h.answerError(senderID, "auth_failed", "invalid credentials")
			return err
		}
		userID = uid
	}

	if !h.reg.SetIdentity(senderID, name, userID) {
		return domain.ErrSessionNotFound
	}
	h.reg.UpdateLocation(senderID, domain.Vector3{X: p.X, Y: p.Y, Z: p.Z})

	info, ok := h.reg.Get(senderID)
	if !ok {
		return domain.ErrSessionNotFound
	}
	h.broadcastUserList(info.Room)
	return nil
}

// Move updates the sender's location and fans the delta out to the room,
// excluding the sender: clients predict their own movement locally.
func (h *Handlers) Move(senderID string, env wire.Envelope) error {
	var p wire.MovePayload
	if err := env.DecodePayload(&p); err != nil {
		return err
	}
	if !h.reg.UpdateLocation(senderID, domain.Vector3{X: p.X, Y: p.Y, Z: p.Z}) {
		return domain.ErrSessionNotFound
	}
	info, _ := h.reg.Get(senderID)

	out, err := wire.New(wire.TypeMovement, senderID, wire.MovementPayload{ID: senderID, X: p.X, Y: p.Y, Z: p.Z})
	if err != nil {
		return err
	}
	h.bc.Broadcast(info.Room, out, senderID)
	return nil
}

// Message relays chat to the sender's room, sender included.
func (h *Handlers) Message(senderID string, env wire.Envelope) error {
	info, ok := h.reg.Get(senderID)
	if !ok {
		return domain.ErrSessionNotFound
	}
	if info.Name == "" {
		return domain.ErrNameNotSet
	}

	var p wire.ChatPayload
	if err := env.DecodePayload(&p); err != nil {
		return err
	}
	text := strings.TrimSpace(p.Content)
	if text == "" {
		return nil
	}

	out, err := wire.New(wire.TypeMessage, senderID, wire.ChatPayload{Content: text})
	if err != nil {
		return err
	}
	h.bc.Broadcast(info.Room, out, "")
	return nil
}

// Whisper delivers chat to a single target. An absent target drops the
// message silently; the sender is not told.
func (h *Handlers) Whisper(senderID string, env wire.Envelope) error {
	var p wire.WhisperPayload
	if err := env.DecodePayload(&p); err != nil {
		return err
	}
	if p.Target == "" {
		return errors.New("whisper without target")
	}

	out, err := wire.New(wire.TypeWhisper, senderID, wire.WhisperPayload{Target: p.Target, Content: p.Content})
	if err != nil {
		return err
	}
	if err := h.bc.Send(p.Target, out); err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			slog.Debug("whisper target absent", "session", senderID, "target", p.Target)
			return nil
		}
		return err
	}
	return nil
}

// Status updates the sender's presence status and announces the delta to
// the room, excluding the sender.
func (h *Handlers) Status(senderID string, env wire.Envelope) error {
	var p wire.StatusPayload
	if err := env.DecodePayload(&p); err != nil {
		return err
	}
	st := domain.Status(strings.ToLower(strings.TrimSpace(p.Status)))
	if !st.Valid() {
		return domain.ErrInvalidStatus
	}
	if !h.reg.UpdateStatus(senderID, st) {
		return domain.ErrSessionNotFound
	}
	info, _ := h.reg.Get(senderID)

	out, err := wire.New(wire.TypeStatusUpdate, senderID, wire.StatusUpdatePayload{ID: senderID, Status: string(st)})
	if err != nil {
		return err
	}
	h.bc.Broadcast(info.Room, out, senderID)
	return nil
}

// Room moves the sender to another room. Old room members see a left
// delta, the new room sees joined plus a fresh userlist. Switching to the
// current room does nothing, including the redundant broadcast.
func (h *Handlers) Room(senderID string, env wire.Envelope) error {
	var p wire.RoomPayload
	if err := env.DecodePayload(&p); err != nil {
		return err
	}
	toRoom := strings.TrimSpace(p.Room)
	if toRoom == "" {
		return errors.New("room switch without room id")
	}

	from, moved := h.reg.Move(senderID, toRoom)
	if !moved {
		return nil
	}
	info, ok := h.reg.Get(senderID)
	if !ok {
		return domain.ErrSessionNotFound
	}

	if out, err := wire.New(wire.TypeLeft, "", wire.PresencePayload{ID: senderID, Name: info.Name, Room: from}); err == nil {
		h.bc.Broadcast(from, out, "")
	}
	if out, err := wire.New(wire.TypeJoined, "", wire.PresencePayload{ID: senderID, Name: info.Name, Room: toRoom}); err == nil {
		h.bc.Broadcast(toRoom, out, senderID)
	}
	h.broadcastUserList(toRoom)
	return nil
}

// Ping answers the sender with a pong echoing the ping's timestamp.
func (h *Handlers) Ping(senderID string, env wire.Envelope) error {
	out, err := wire.New(wire.TypePong, "", wire.PongPayload{Echo: env.Timestamp})
	if err != nil {
		return err
	}
	return h.bc.Send(senderID, out)
}

// UserList answers the sender with a snapshot of its current room.
func (h *Handlers) UserList(senderID string, env wire.Envelope) error {
	info, ok := h.reg.Get(senderID)
	if !ok {
		return domain.ErrSessionNotFound
	}
	out, err := wire.New(wire.TypeUserList, "", h.userListPayload(info.Room))
	if err != nil {
		return err
	}
	return h.bc.Send(senderID, out)
}

func (h *Handlers) authenticate(username, credential string) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()

	uid, err := h.users.Authenticate(ctx, username, credential)
	if errors.Is(err, userstore.ErrNotFound) {
		uid, err = h.users.Register(ctx, username, credential)
	}
	return uid, err
}

func (h *Handlers) answerError(senderID, code, message string) {
	out, err := wire.New(wire.TypeError, "", wire.ErrorPayload{Code: code, Message: message})
	if err != nil {
		return
	}
	_ = h.bc.Send(senderID, out)
}

func (h *Handlers) userListPayload(room string) wire.UserListPayload {
	infos := h.reg.SnapshotRoom(room)
	users := make([]wire.UserInfo, 0, len(infos))
	for _, in := range infos {
		users = append(users, wire.UserInfo{
			ID:     in.ID,
			Name:   in.Name,
			Status: string(in.Status),
			X:      in.Location.X,
			Y:      in.Location.Y,
			Z:      in.Location.Z,
		})
	}
	return wire.UserListPayload{Room: room, Users: users}
}

func (h *Handlers) broadcastUserList(room string) {
	out, err := wire.New(wire.TypeUserList, "", h.userListPayload(room))
	if err != nil {
		return
	}
	h.bc.Broadcast(room, out, "")
}
