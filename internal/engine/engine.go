package engine

import (
	"fmt"

	"github.com/inkboard/inkboard/backend-go/internal/document"
	"github.com/inkboard/inkboard/backend-go/internal/geom"
	"github.com/inkboard/inkboard/backend-go/internal/history"
	"github.com/inkboard/inkboard/backend-go/internal/pathstore"
)

// Options configures a board.
type Options struct {
	Width         float64 // canvas width in pixels
	Height        float64 // canvas height in pixels
	EraserWidth   float64 // side of the square eraser
	ExportMargin  float64 // blank border around a rendered export
	MaxExportSide int     // largest rendered width or height in pixels
	DarkMode      bool    // start on a black background
}

// DefaultOptions returns the stock board settings.
func DefaultOptions() Options {
	return Options{
		Width:         1280,
		Height:        720,
		EraserWidth:   12,
		ExportMargin:  100,
		MaxExportSide: 8192,
		DarkMode:      true,
	}
}

// Engine is one board session: the live and removed stroke stores, the
// command log, the color state and the current pointer gesture.
//
// It is single-threaded. Every method runs to completion before the
// next may start; hosts that receive events concurrently must serialize
// them (see collab.Hub).
type Engine struct {
	opts    Options
	surface Surface

	// Stroke state. Every id is in exactly one of live and removed.
	live    *pathstore.Store
	removed *pathstore.Store
	log     *history.Log
	nextID  document.StrokeID

	palette Palette

	// Gesture state
	mode     Mode
	lastPos  geom.Point
	current  []geom.Point
	erasures []document.StrokeID

	// View state
	width  float64
	height float64
	origin geom.Point
}

// NewEngine creates an empty board painting on s. A nil surface discards
// all drawing.
func NewEngine(opts Options, s Surface) *Engine {
	if s == nil {
		s = discardSurface{}
	}
	if opts.EraserWidth <= 0 {
		opts.EraserWidth = DefaultOptions().EraserWidth
	}
	if opts.ExportMargin < 0 {
		opts.ExportMargin = 0
	}
	if opts.MaxExportSide <= 0 {
		opts.MaxExportSide = DefaultOptions().MaxExportSide
	}

	e := &Engine{
		opts:    opts,
		surface: s,
		live:    pathstore.New(),
		removed: pathstore.New(),
		palette: NewPalette(opts.DarkMode),
	}
	e.log = history.New(commandHandlers{e})
	e.setSize(opts.Width, opts.Height)
	return e
}

// --- Undo / redo ---

// Undo reverts the most recent stroke or erasure. It does nothing while
// an erase gesture is in progress or when there is nothing to undo.
func (e *Engine) Undo() bool {
	if e.mode == ModeErasing {
		return false
	}
	return e.log.Undo()
}

// Redo reapplies the most recently undone command, with the same
// restrictions as Undo.
func (e *Engine) Redo() bool {
	if e.mode == ModeErasing {
		return false
	}
	return e.log.Redo()
}

// commandHandlers applies recorded commands to the stores. It is bound to
// the log once, in NewEngine.
type commandHandlers struct {
	e *Engine
}

func (h commandHandlers) UndoCreateStroke(id document.StrokeID) {
	h.e.mustTransfer(id, h.e.live, h.e.removed)
	h.e.Redraw()
}

func (h commandHandlers) RedoCreateStroke(id document.StrokeID) {
	h.e.mustTransfer(id, h.e.removed, h.e.live)
	h.e.Redraw()
}

func (h commandHandlers) UndoDeleteStrokes(ids []document.StrokeID) {
	for _, id := range ids {
		h.e.mustTransfer(id, h.e.removed, h.e.live)
	}
	h.e.Redraw()
}

func (h commandHandlers) RedoDeleteStrokes(ids []document.StrokeID) {
	for _, id := range ids {
		h.e.mustTransfer(id, h.e.live, h.e.removed)
	}
	h.e.Redraw()
}

// mustTransfer moves id between stores. A failure means the partition
// between live and removed is already broken, which is a bug.
func (e *Engine) mustTransfer(id document.StrokeID, from, to *pathstore.Store) {
	if err := from.Transfer(id, to); err != nil {
		panic(fmt.Errorf("engine: %w", err))
	}
}

func (e *Engine) allocID() document.StrokeID {
	id := e.nextID
	e.nextID++
	return id
}

// --- Queries ---

// Mode returns the current interaction mode.
func (e *Engine) Mode() Mode {
	return e.mode
}

// Live returns the visible strokes in paint order.
func (e *Engine) Live() []document.Stroke {
	return e.live.Values()
}

// LiveIDs returns the ids of the visible strokes in paint order.
func (e *Engine) LiveIDs() []document.StrokeID {
	return e.live.Keys()
}

// RemovedIDs returns the ids of erased strokes kept for undo.
func (e *Engine) RemovedIDs() []document.StrokeID {
	return e.removed.Keys()
}

// Stroke looks up a stroke in either store.
func (e *Engine) Stroke(id document.StrokeID) (document.Stroke, bool) {
	if s, ok := e.live.Get(id); ok {
		return s, true
	}
	return e.removed.Get(id)
}

// HistoryLen returns the sizes of the undo and redo stacks.
func (e *Engine) HistoryLen() (history, redo int) {
	return e.log.Len()
}

// CanUndo reports whether Undo would do anything.
func (e *Engine) CanUndo() bool {
	return e.mode != ModeErasing && e.log.CanUndo()
}

// CanRedo reports whether Redo would do anything.
func (e *Engine) CanRedo() bool {
	return e.mode != ModeErasing && e.log.CanRedo()
}

// Palette returns the current color state.
func (e *Engine) Palette() Palette {
	return e.palette
}

// Size returns the canvas size.
func (e *Engine) Size() (width, height float64) {
	return e.width, e.height
}

// CheckPartition verifies that no stroke id is both live and removed.
func (e *Engine) CheckPartition() error {
	for _, id := range e.live.Keys() {
		if e.removed.Has(id) {
			return fmt.Errorf("stroke %d is both live and removed", id)
		}
	}
	return nil
}
