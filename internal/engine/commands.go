package engine

import (
	"encoding/json"

	"github.com/inkboard/inkboard/backend-go/internal/document"
	"github.com/inkboard/inkboard/backend-go/internal/geom"
)

// Surface is the render target the engine paints on.
// A front end implements it directly or replays a CommandBuffer.
type Surface interface {
	Clear()
	DrawLine(from, to geom.Point, c document.Color)
}

// DrawCommand is one drawing operation for a Canvas2D front end.
type DrawCommand struct {
	Op    string         `json:"op"`              // "clear" or "line"
	From  *geom.Point    `json:"from,omitempty"`  // line start
	To    *geom.Point    `json:"to,omitempty"`    // line end
	Color document.Color `json:"color,omitempty"` // stroke color
}

const (
	OpClear = "clear"
	OpLine  = "line"
)

// CommandBuffer is a Surface that records draw commands until flushed.
type CommandBuffer struct {
	commands []DrawCommand
}

// NewCommandBuffer creates an empty buffer.
func NewCommandBuffer() *CommandBuffer {
	return &CommandBuffer{}
}

// Clear records a clear. Anything buffered before it would be painted over,
// so it is dropped.
func (b *CommandBuffer) Clear() {
	b.commands = append(b.commands[:0], DrawCommand{Op: OpClear})
}

// DrawLine records a line segment. A zero-length segment renders as a dot
// with a round line cap.
func (b *CommandBuffer) DrawLine(from, to geom.Point, c document.Color) {
	b.commands = append(b.commands, DrawCommand{Op: OpLine, From: &from, To: &to, Color: c})
}

// Len returns the number of buffered commands.
func (b *CommandBuffer) Len() int {
	return len(b.commands)
}

// Flush returns the buffered commands and empties the buffer.
func (b *CommandBuffer) Flush() []DrawCommand {
	out := b.commands
	b.commands = nil
	return out
}

// Replay paints the commands onto s.
func Replay(commands []DrawCommand, s Surface) {
	for _, cmd := range commands {
		switch cmd.Op {
		case OpClear:
			s.Clear()
		case OpLine:
			if cmd.From != nil && cmd.To != nil {
				s.DrawLine(*cmd.From, *cmd.To, cmd.Color)
			}
		}
	}
}

// DrawCommandsToJSON serializes draw commands to JSON.
func DrawCommandsToJSON(commands []DrawCommand) (string, error) {
	if commands == nil {
		return "[]", nil
	}
	data, err := json.Marshal(commands)
	if err != nil {
		return "[]", err
	}
	return string(data), nil
}

type discardSurface struct{}

func (discardSurface) Clear()                                      {}
func (discardSurface) DrawLine(_, _ geom.Point, _ document.Color) {}
