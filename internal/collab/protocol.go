package collab

import (
	"encoding/json"

	"github.com/inkboard/inkboard/backend-go/internal/engine"
)

type Message struct {
	Type     string          `json:"type"`
	BoardID  string          `json:"boardId,omitempty"`
	ClientID string          `json:"clientId,omitempty"`
	Payload  json.RawMessage `json:"payload,omitempty"`
}

const (
	TypePresenceUpdate = "presence.update"
	TypePresenceState  = "presence.state"
	TypePresenceJoin   = "presence.join"
	TypePresenceLeave  = "presence.leave"
	TypeError          = "error"

	// Connection
	TypeWelcome = "welcome"

	// Board input
	TypePointer = "input.pointer"
	TypeKey     = "input.key"
	TypeResize  = "view.resize"

	// Board output
	TypeDraw       = "draw"
	TypeExportJSON = "export.json"
)

// --- Presence ---

type PresencePayload struct {
	Cursor      *CursorPos `json:"cursor,omitempty"`
	DisplayName string     `json:"displayName,omitempty"`
}

type CursorPos struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type PresenceStatePayload struct {
	Presences map[string]*PresencePayload `json:"presences"` // clientID -> presence
}

type PresenceJoinPayload struct {
	ClientID    string `json:"clientId"`
	DisplayName string `json:"displayName"`
}

type PresenceLeavePayload struct {
	ClientID string `json:"clientId"`
}

// --- Input ---

// PointerPayload is a pointer event in canvas coordinates.
// Kind is one of "down", "move", "up" or "leave".
type PointerPayload struct {
	Kind   string  `json:"kind"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Button int     `json:"button"`
}

// KeyPayload is a key event. Kind is "down" or "up".
type KeyPayload struct {
	Kind string `json:"kind"`
	Key  string `json:"key"`
	Ctrl bool   `json:"ctrl"`
}

type ResizePayload struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// --- Output ---

type WelcomePayload struct {
	ClientID string         `json:"clientId"`
	BoardID  string         `json:"boardId"`
	CanEdit  bool           `json:"canEdit"`
	Palette  engine.Palette `json:"palette"`
	Width    float64        `json:"width"`
	Height   float64        `json:"height"`
}

type DrawPayload struct {
	Commands []engine.DrawCommand `json:"commands"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}

func newMessage(msgType string, payload any) (*Message, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return &Message{Type: msgType, Payload: data}, nil
}

func errorMessage(text string) *Message {
	data, _ := json.Marshal(ErrorPayload{Message: text})
	return &Message{Type: TypeError, Payload: data}
}
