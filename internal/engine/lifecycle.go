package engine

import (
	"strings"

	"github.com/inkboard/inkboard/backend-go/internal/document"
	"github.com/inkboard/inkboard/backend-go/internal/geom"
	"github.com/inkboard/inkboard/backend-go/internal/history"
)

// Mode is the current interaction mode. Every mode other than Idle can
// only be entered from Idle.
type Mode int

const (
	ModeIdle Mode = iota
	ModeDrawing
	ModeErasing
	ModePanning
	ModeZooming
)

func (m Mode) String() string {
	switch m {
	case ModeIdle:
		return "idle"
	case ModeDrawing:
		return "drawing"
	case ModeErasing:
		return "erasing"
	case ModePanning:
		return "panning"
	case ModeZooming:
		return "zooming"
	default:
		return "unknown"
	}
}

// Button identifies a pointer button, numbered as in DOM mouse events.
type Button int

const (
	ButtonPrimary   Button = 0
	ButtonSecondary Button = 2
)

// PointerEvent is a pointer position in canvas coordinates.
type PointerEvent struct {
	Pos    geom.Point
	Button Button
}

// KeyEvent is a key press or release. Key uses DOM key names
// ("Shift", " ", "z").
type KeyEvent struct {
	Key  string
	Ctrl bool
}

// Action is work a key binding asks of the host.
type Action int

const (
	ActionNone Action = iota
	ActionExportJSON
)

const keyShift = "Shift"

// --- Pointer ---

// PointerDown starts a drawing, panning or zooming gesture.
func (e *Engine) PointerDown(ev PointerEvent) {
	if e.mode != ModeIdle {
		return
	}
	switch ev.Button {
	case ButtonPrimary:
		e.mode = ModeDrawing
		e.current = nil
		e.lastPos = ev.Pos
		e.appendPoint(ev.Pos)
	case ButtonSecondary:
		if geom.PointInRect(ev.Pos, e.ZoomStrip()) {
			e.mode = ModeZooming
		} else {
			e.mode = ModePanning
		}
		e.lastPos = ev.Pos
	}
}

// PointerMove advances the current gesture. The previous pointer
// position is updated in every mode.
func (e *Engine) PointerMove(ev PointerEvent) {
	switch e.mode {
	case ModeDrawing:
		e.appendPoint(ev.Pos)
	case ModeErasing:
		e.eraseAlong(e.lastPos, ev.Pos)
	case ModePanning:
		e.Pan(ev.Pos.X-e.lastPos.X, ev.Pos.Y-e.lastPos.Y)
	case ModeZooming:
		e.Zoom(ZoomFactor(ev.Pos.Y - e.lastPos.Y))
	}
	e.lastPos = ev.Pos
}

// PointerUp ends the gesture started by the same button.
func (e *Engine) PointerUp(ev PointerEvent) {
	switch ev.Button {
	case ButtonPrimary:
		if e.mode == ModeDrawing {
			e.finishStroke()
			e.mode = ModeIdle
		}
	case ButtonSecondary:
		if e.mode == ModePanning || e.mode == ModeZooming {
			e.mode = ModeIdle
		}
	}
}

// MovePointer sets the position the next gesture continues from. It
// does nothing while a gesture is active.
func (e *Engine) MovePointer(p geom.Point) {
	if e.mode == ModeIdle {
		e.lastPos = p
	}
}

// PointerLeave cancels any gesture in progress.
func (e *Engine) PointerLeave() {
	e.Cancel()
}

// Cancel abandons the current gesture without recording anything. A
// partial stroke is discarded and a partial erase is rolled back.
func (e *Engine) Cancel() {
	switch e.mode {
	case ModeDrawing:
		e.current = nil
		e.Redraw()
	case ModeErasing:
		if len(e.erasures) > 0 {
			for _, id := range e.erasures {
				e.mustTransfer(id, e.removed, e.live)
			}
			e.Redraw()
		}
		e.erasures = nil
	}
	e.mode = ModeIdle
}

// --- Keyboard ---

// KeyDown applies a key binding.
func (e *Engine) KeyDown(ev KeyEvent) Action {
	if ev.Key == keyShift {
		if e.mode == ModeIdle {
			e.mode = ModeErasing
			e.erasures = nil
		}
		return ActionNone
	}

	if ev.Ctrl {
		switch strings.ToLower(ev.Key) {
		case "z":
			e.Undo()
		case "y":
			e.Redo()
		case "s":
			return ActionExportJSON
		}
		return ActionNone
	}

	switch ev.Key {
	case " ":
		e.EraseAll()
	case "f":
		e.SetForeground(e.palette.Default())
	case "r":
		e.SetForeground(document.ColorRed)
	case "g":
		e.SetForeground(document.ColorGreen)
	case "b":
		e.SetForeground(document.ColorBlue)
	case "d":
		e.ToggleDarkMode()
	}
	return ActionNone
}

// KeyUp ends an erase gesture when Shift is released.
func (e *Engine) KeyUp(ev KeyEvent) {
	if ev.Key == keyShift && e.mode == ModeErasing {
		e.finishErase()
		e.mode = ModeIdle
	}
}

// --- Gestures ---

func (e *Engine) appendPoint(p geom.Point) {
	from := p
	if n := len(e.current); n > 0 {
		from = e.current[n-1]
	}
	e.current = append(e.current, p)
	e.surface.DrawLine(from, p, e.palette.Foreground)
}

func (e *Engine) finishStroke() {
	if len(e.current) == 0 {
		return
	}
	id := e.allocID()
	e.live.Set(id, document.Stroke{ID: id, Points: e.current, Color: e.palette.Foreground})
	e.log.Record(history.CreateStroke{ID: id})
	e.current = nil
}

// eraseAlong removes every live stroke touched by the eraser moving from
// one position to the next.
func (e *Engine) eraseAlong(from, to geom.Point) {
	r := geom.BoundingRect(from, to)
	r.Expand(e.opts.EraserWidth / 2)

	erased := false
	e.live.ForEach(func(id document.StrokeID, s document.Stroke) {
		if geom.RectIntersectsPath(r, s.Points) {
			e.mustTransfer(id, e.live, e.removed)
			e.erasures = append(e.erasures, id)
			erased = true
		}
	})
	if erased {
		e.Redraw()
	}
}

func (e *Engine) finishErase() {
	if len(e.erasures) > 0 {
		e.log.Record(history.DeleteStrokes{IDs: e.erasures})
	}
	e.erasures = nil
}

// EraseAll removes every live stroke as one undoable command. It does
// nothing on an empty board or during an erase gesture.
func (e *Engine) EraseAll() {
	if e.live.Len() == 0 || e.mode == ModeErasing {
		return
	}
	e.log.Record(history.DeleteStrokes{IDs: e.live.Keys()})
	e.removed = e.removed.Merge(e.live)
	e.live.Clear()
	e.Redraw()
}
