package collab

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/inkboard/inkboard/backend-go/internal/engine"
	"github.com/inkboard/inkboard/backend-go/internal/geom"
)

var ErrInvalidInput = errors.New("invalid input")

// applyInput feeds one input message to the engine. It returns a reply
// for the sender when a key binding asks for one.
func applyInput(e *engine.Engine, msg *Message) (*Message, error) {
	switch msg.Type {
	case TypePointer:
		var p PointerPayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			return nil, fmt.Errorf("%w: pointer: %v", ErrInvalidInput, err)
		}
		return nil, applyPointer(e, p)

	case TypeKey:
		var k KeyPayload
		if err := json.Unmarshal(msg.Payload, &k); err != nil {
			return nil, fmt.Errorf("%w: key: %v", ErrInvalidInput, err)
		}
		return applyKey(e, k)

	case TypeResize:
		var r ResizePayload
		if err := json.Unmarshal(msg.Payload, &r); err != nil {
			return nil, fmt.Errorf("%w: resize: %v", ErrInvalidInput, err)
		}
		if r.Width <= 0 || r.Height <= 0 {
			return nil, fmt.Errorf("%w: resize to %vx%v", ErrInvalidInput, r.Width, r.Height)
		}
		e.Resize(r.Width, r.Height)
		return nil, nil
	}
	return nil, fmt.Errorf("%w: message type %q", ErrInvalidInput, msg.Type)
}

func applyPointer(e *engine.Engine, p PointerPayload) error {
	ev := engine.PointerEvent{Pos: geom.Pt(p.X, p.Y), Button: engine.Button(p.Button)}
	switch p.Kind {
	case "down":
		e.PointerDown(ev)
	case "move":
		e.PointerMove(ev)
	case "up":
		e.PointerUp(ev)
	case "leave":
		e.PointerLeave()
	default:
		return fmt.Errorf("%w: pointer kind %q", ErrInvalidInput, p.Kind)
	}
	return nil
}

func applyKey(e *engine.Engine, k KeyPayload) (*Message, error) {
	ev := engine.KeyEvent{Key: k.Key, Ctrl: k.Ctrl}
	switch k.Kind {
	case "down":
		if e.KeyDown(ev) == engine.ActionExportJSON {
			return newMessage(TypeExportJSON, e.Export())
		}
	case "up":
		e.KeyUp(ev)
	default:
		return nil, fmt.Errorf("%w: key kind %q", ErrInvalidInput, k.Kind)
	}
	return nil, nil
}

// pointerPos returns the position carried by a pointer message. Leave
// events carry none.
func pointerPos(msg *Message) (geom.Point, bool) {
	if msg.Type != TypePointer {
		return geom.Point{}, false
	}
	var p PointerPayload
	if err := json.Unmarshal(msg.Payload, &p); err != nil || p.Kind == "leave" {
		return geom.Point{}, false
	}
	return geom.Pt(p.X, p.Y), true
}
