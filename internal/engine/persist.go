package engine

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"time"

	"github.com/inkboard/inkboard/backend-go/internal/document"
	"github.com/inkboard/inkboard/backend-go/internal/geom"
)

var (
	// ErrEmptyBoard is returned when rendering a board with no live strokes.
	ErrEmptyBoard = errors.New("board is empty")
	// ErrFrameTooLarge is returned when the cropped board exceeds
	// Options.MaxExportSide.
	ErrFrameTooLarge = errors.New("board too large to render")
)

// Export captures the live strokes and the dark-mode flag. Removed
// strokes and the command log are not part of a snapshot.
func (e *Engine) Export() *document.Snapshot {
	snap := document.NewEmptySnapshot(time.Now().UnixMilli(), e.palette.DarkMode())
	e.live.ForEach(func(_ document.StrokeID, s document.Stroke) {
		snap.Paths = append(snap.Paths, document.PathRecord{
			Points: slices.Clone(s.Points),
			Color:  s.Color,
		})
	})
	return snap
}

// Import replaces the board with snap. The snapshot is validated first;
// on error the board is unchanged. Any gesture in progress is cancelled,
// both stores and the command log are cleared and every path gets a
// fresh id.
func (e *Engine) Import(snap *document.Snapshot) error {
	if snap == nil {
		return fmt.Errorf("%w: no snapshot", document.ErrMalformed)
	}
	if err := snap.Validate(); err != nil {
		return err
	}

	e.Cancel()
	e.live.Clear()
	e.removed.Clear()
	e.log.Reset()

	for _, p := range snap.Paths {
		id := e.allocID()
		e.live.Set(id, document.Stroke{ID: id, Points: slices.Clone(p.Points), Color: p.Color})
	}

	if snap.DarkMode != e.palette.DarkMode() {
		e.ToggleDarkMode()
		return nil
	}
	e.Redraw()
	return nil
}

// Frame is a board cropped to its content, ready to rasterize.
type Frame struct {
	Width      int
	Height     int
	Background document.Color
	Strokes    []document.Stroke
}

// Frame crops the live strokes to their bounds plus the export margin.
func (e *Engine) Frame() (Frame, error) {
	var all []geom.Point
	e.live.ForEach(func(_ document.StrokeID, s document.Stroke) {
		all = append(all, s.Points...)
	})
	bounds, ok := geom.Bounds(all...)
	if !ok {
		return Frame{}, ErrEmptyBoard
	}

	m := e.opts.ExportMargin
	w := math.Ceil(bounds.Width() + 2*m)
	h := math.Ceil(bounds.Height() + 2*m)
	limit := float64(e.opts.MaxExportSide)
	// Checked before the int conversion; the comparison also rejects +Inf.
	if !(w <= limit && h <= limit) {
		return Frame{}, fmt.Errorf("%w: %.0fx%.0f exceeds %d", ErrFrameTooLarge, w, h, e.opts.MaxExportSide)
	}

	dx, dy := -bounds.Left+m, -bounds.Bottom+m
	frame := Frame{
		Width:      int(w),
		Height:     int(h),
		Background: e.palette.Background,
	}
	// A lone dot with no margin still needs a pixel.
	frame.Width = max(frame.Width, 1)
	frame.Height = max(frame.Height, 1)

	e.live.ForEach(func(_ document.StrokeID, s document.Stroke) {
		frame.Strokes = append(frame.Strokes, s.WithPoints(func(p geom.Point) geom.Point {
			return geom.Translate(p, dx, dy)
		}))
	})
	return frame, nil
}

// PaintTo clears s and paints the frame's strokes on it, the same way
// the engine paints the live board.
func (f Frame) PaintTo(s Surface) {
	s.Clear()
	for _, st := range f.Strokes {
		paintStroke(s, st.Points, st.Color)
	}
}
