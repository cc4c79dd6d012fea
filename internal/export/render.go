// Package export rasterizes boards and serves board downloads.
package export

import (
	"fmt"
	"image/color"
	"io"

	"github.com/gogpu/gg"

	"github.com/inkboard/inkboard/backend-go/internal/document"
	"github.com/inkboard/inkboard/backend-go/internal/engine"
	"github.com/inkboard/inkboard/backend-go/internal/geom"
)

// DefaultLineWidth matches the stroke width of the drawing front ends.
const DefaultLineWidth = 4

// Canvas is an engine.Surface backed by a gg raster context.
type Canvas struct {
	dc         *gg.Context
	background color.RGBA
	lineWidth  float64
	err        error
}

// NewCanvas creates a width x height raster cleared to background.
func NewCanvas(width, height int, background document.Color, lineWidth float64) (*Canvas, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("export: invalid canvas size %dx%d", width, height)
	}
	bg, ok := background.RGBA()
	if !ok {
		return nil, fmt.Errorf("export: unknown background color %q", background)
	}
	if lineWidth <= 0 {
		lineWidth = DefaultLineWidth
	}

	c := &Canvas{
		dc:         gg.NewContext(width, height),
		background: bg,
		lineWidth:  lineWidth,
	}
	c.dc.SetLineCap(gg.LineCapRound)
	c.dc.SetLineWidth(lineWidth)
	c.Clear()
	return c, nil
}

// Clear fills the canvas with the background color.
func (c *Canvas) Clear() {
	c.dc.ClearWithColor(gg.FromColor(c.background))
}

// DrawLine strokes one segment with round caps. A zero-length segment
// is filled as a dot of the line width.
func (c *Canvas) DrawLine(from, to geom.Point, col document.Color) {
	if c.err != nil {
		return
	}
	rgba, ok := col.RGBA()
	if !ok {
		c.err = fmt.Errorf("export: unknown stroke color %q", col)
		return
	}
	c.dc.SetColor(rgba)

	if from == to {
		c.dc.DrawCircle(from.X, from.Y, c.lineWidth/2)
		c.err = c.dc.Fill()
		return
	}
	c.dc.DrawLine(from.X, from.Y, to.X, to.Y)
	c.err = c.dc.Stroke()
}

// Err returns the first drawing error.
func (c *Canvas) Err() error {
	return c.err
}

// EncodePNG writes the canvas as PNG.
func (c *Canvas) EncodePNG(w io.Writer) error {
	if c.err != nil {
		return c.err
	}
	return c.dc.EncodePNG(w)
}

// Close releases the raster context.
func (c *Canvas) Close() error {
	return c.dc.Close()
}

// RenderPNG rasterizes frame and writes it to w as PNG.
func RenderPNG(w io.Writer, frame engine.Frame, lineWidth float64) error {
	c, err := NewCanvas(frame.Width, frame.Height, frame.Background, lineWidth)
	if err != nil {
		return err
	}
	defer c.Close()

	frame.PaintTo(c)
	if err := c.Err(); err != nil {
		return err
	}
	return c.EncodePNG(w)
}
