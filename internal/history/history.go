// Package history records reversible board commands and replays them for
// undo and redo.
package history

import (
	"errors"
	"fmt"
	"slices"

	"github.com/inkboard/inkboard/backend-go/internal/document"
)

// ErrUnknownCommand is the panic value (wrapped) when a command variant
// has no dispatch case.
var ErrUnknownCommand = errors.New("unknown command")

// Command is a recorded, reversible board action.
// The set of variants is closed: CreateStroke and DeleteStrokes.
type Command interface {
	Kind() string
	isCommand()
}

// CreateStroke records a finished stroke.
type CreateStroke struct {
	ID document.StrokeID `json:"id"`
}

// DeleteStrokes records one erase gesture or an erase-all.
type DeleteStrokes struct {
	IDs []document.StrokeID `json:"ids"`
}

const (
	KindCreateStroke  = "CREATE_STROKE"
	KindDeleteStrokes = "DELETE_STROKES"
)

func (CreateStroke) Kind() string  { return KindCreateStroke }
func (DeleteStrokes) Kind() string { return KindDeleteStrokes }

func (CreateStroke) isCommand()  {}
func (DeleteStrokes) isCommand() {}

// Handler applies the inverse and forward effect of each command kind.
// Binding a Handler when creating the Log is the registration step: every
// kind has both handlers by construction.
type Handler interface {
	UndoCreateStroke(id document.StrokeID)
	RedoCreateStroke(id document.StrokeID)
	UndoDeleteStrokes(ids []document.StrokeID)
	RedoDeleteStrokes(ids []document.StrokeID)
}

// Log holds the undo history and the redo stack.
// It is not safe for concurrent use.
type Log struct {
	handler Handler
	history []Command
	redo    []Command
}

// New creates a Log that dispatches to h.
func New(h Handler) *Log {
	if h == nil {
		panic("history: nil handler")
	}
	return &Log{handler: h}
}

// Record pushes cmd onto the history and clears the redo stack.
func (l *Log) Record(cmd Command) {
	if d, ok := cmd.(DeleteStrokes); ok {
		// The caller's accumulator is reused after recording.
		d.IDs = slices.Clone(d.IDs)
		cmd = d
	}
	l.history = append(l.history, cmd)
	l.redo = nil
}

// Undo reverts the most recent command. It returns false, doing nothing,
// when there is nothing to undo.
func (l *Log) Undo() bool {
	if len(l.history) == 0 {
		return false
	}
	cmd := l.history[len(l.history)-1]
	l.history = l.history[:len(l.history)-1]

	switch c := cmd.(type) {
	case CreateStroke:
		l.handler.UndoCreateStroke(c.ID)
	case DeleteStrokes:
		l.handler.UndoDeleteStrokes(c.IDs)
	default:
		panic(fmt.Errorf("history: undo %T: %w", cmd, ErrUnknownCommand))
	}

	l.redo = append(l.redo, cmd)
	return true
}

// Redo reapplies the most recently undone command. It returns false,
// doing nothing, when the redo stack is empty.
func (l *Log) Redo() bool {
	if len(l.redo) == 0 {
		return false
	}
	cmd := l.redo[len(l.redo)-1]
	l.redo = l.redo[:len(l.redo)-1]

	switch c := cmd.(type) {
	case CreateStroke:
		l.handler.RedoCreateStroke(c.ID)
	case DeleteStrokes:
		l.handler.RedoDeleteStrokes(c.IDs)
	default:
		panic(fmt.Errorf("history: redo %T: %w", cmd, ErrUnknownCommand))
	}

	l.history = append(l.history, cmd)
	return true
}

// Reset drops both stacks.
func (l *Log) Reset() {
	l.history = nil
	l.redo = nil
}

// Len returns the sizes of the history and redo stacks.
func (l *Log) Len() (history, redo int) {
	return len(l.history), len(l.redo)
}

// CanUndo reports whether Undo would do anything.
func (l *Log) CanUndo() bool { return len(l.history) > 0 }

// CanRedo reports whether Redo would do anything.
func (l *Log) CanRedo() bool { return len(l.redo) > 0 }

// History returns a copy of the history stack, oldest first.
func (l *Log) History() []Command {
	return slices.Clone(l.history)
}
