package wire

// One payload struct per recognized message type. The dispatcher decodes
// these explicitly before invoking a handler; unknown types never reach a
// handler at all.

type JoinPayload struct {
	Name       string  `json:"name"`
	Credential string  `json:"credential,omitempty"`
	X          float64 `json:"x,omitempty"`
	Y          float64 `json:"y,omitempty"`
	Z          float64 `json:"z,omitempty"`
}

type MovePayload struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

type ChatPayload struct {
	Content string `json:"content"`
}

// WhisperPayload carries the target and content as separate fields; the
// single-string "target|content" form some clients used is not supported.
type WhisperPayload struct {
	Target  string `json:"target"`
	Content string `json:"content"`
}

type StatusPayload struct {
	Status string `json:"status"`
}

type RoomPayload struct {
	Room string `json:"room"`
}

type WelcomePayload struct {
	ID string `json:"id"`
}

type UserInfo struct {
	ID     string  `json:"id"`
	Name   string  `json:"name"`
	Status string  `json:"status"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Z      float64 `json:"z"`
}

type UserListPayload struct {
	Room  string     `json:"room"`
	Users []UserInfo `json:"users"`
}

type MovementPayload struct {
	ID string  `json:"id"`
	X  float64 `json:"x"`
	Y  float64 `json:"y"`
	Z  float64 `json:"z"`
}

type StatusUpdatePayload struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// PresencePayload announces joined/left deltas.
type PresencePayload struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
	Room string `json:"room,omitempty"`
}

// PongPayload echoes the timestamp of the ping it answers, so clients can
// measure round-trip time.
type PongPayload struct {
	Echo int64 `json:"echo"`
}

type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
