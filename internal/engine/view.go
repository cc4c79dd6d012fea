package engine

import (
	"github.com/inkboard/inkboard/backend-go/internal/document"
	"github.com/inkboard/inkboard/backend-go/internal/geom"
)

const (
	zoomStripWidth  = 75
	zoomStripBottom = 100
	zoomStripTop    = 350

	maxZoomStep = 90
)

// ZoomFactor converts a vertical drag distance into a scale factor.
// Dragging down shrinks, dragging up grows. The step is capped so the
// factor never drops below 0.1.
func ZoomFactor(dy float64) float64 {
	return 1 - min(dy, maxZoomStep)/100
}

// Pan translates every live stroke by (dx, dy). View changes are baked
// into stroke coordinates and are not undoable.
func (e *Engine) Pan(dx, dy float64) {
	e.live = e.live.MapValues(func(s document.Stroke) document.Stroke {
		return s.WithPoints(func(p geom.Point) geom.Point {
			return geom.Translate(p, dx, dy)
		})
	})
	e.Redraw()
}

// Zoom scales every live stroke by factor about the canvas centre.
func (e *Engine) Zoom(factor float64) {
	e.live = e.live.MapValues(func(s document.Stroke) document.Stroke {
		return s.WithPoints(func(p geom.Point) geom.Point {
			return geom.Scale(p, factor, e.origin)
		})
	})
	e.Redraw()
}

// Resize sets the canvas size. The zoom pivot moves to the new centre.
func (e *Engine) Resize(width, height float64) {
	e.setSize(width, height)
	e.Redraw()
}

func (e *Engine) setSize(width, height float64) {
	e.width, e.height = max(width, 0), max(height, 0)
	e.origin = geom.Pt(e.width/2, e.height/2)
}

// ZoomStrip is the control area on the right edge where a secondary drag
// zooms instead of panning.
func (e *Engine) ZoomStrip() geom.Rect {
	return geom.Rect{
		Left:   e.width - zoomStripWidth,
		Right:  e.width,
		Bottom: zoomStripBottom,
		Top:    zoomStripTop,
	}
}

// Redraw clears the surface and paints every live stroke in insertion
// order, followed by the stroke being drawn, if any.
func (e *Engine) Redraw() {
	e.PaintTo(e.surface)
}

// PaintTo paints the whole board onto s, which need not be the engine's
// own surface. Hosts use it to bring a newly attached viewer up to date.
func (e *Engine) PaintTo(s Surface) {
	s.Clear()
	e.live.ForEach(func(_ document.StrokeID, st document.Stroke) {
		paintStroke(s, st.Points, st.Color)
	})
	if e.mode == ModeDrawing {
		paintStroke(s, e.current, e.palette.Foreground)
	}
}

func paintStroke(s Surface, points []geom.Point, c document.Color) {
	switch len(points) {
	case 0:
		return
	case 1:
		s.DrawLine(points[0], points[0], c)
		return
	}
	for i := 1; i < len(points); i++ {
		s.DrawLine(points[i-1], points[i], c)
	}
}
