package engine

import (
	"github.com/inkboard/inkboard/backend-go/internal/document"
)

// Palette is the board's color state.
type Palette struct {
	Foreground document.Color `json:"foreground"`
	Background document.Color `json:"background"`
}

// NewPalette returns the starting colors for a dark or light board. The
// foreground starts on the default tone.
func NewPalette(dark bool) Palette {
	p := Palette{Background: document.ColorWhite}
	if dark {
		p.Background = document.ColorBlack
	}
	p.Foreground = p.Default()
	return p
}

// Default is the tone that contrasts with the background.
func (p Palette) Default() document.Color {
	if p.Background == document.ColorWhite {
		return document.ColorBlack
	}
	return document.ColorWhite
}

// DarkMode reports whether the background is black.
func (p Palette) DarkMode() bool {
	return p.Background == document.ColorBlack
}

// SetForeground selects the color for strokes drawn from now on.
func (e *Engine) SetForeground(c document.Color) {
	e.palette.Foreground = c
}

// ToggleDarkMode swaps the background with the default tone. Strokes in
// either store drawn in the old default tone switch to the new one, so
// they stay visible.
func (e *Engine) ToggleDarkMode() {
	oldDefault := e.palette.Default()
	e.palette.Background = oldDefault
	newDefault := e.palette.Default()

	invert := func(s document.Stroke) document.Stroke {
		if s.Color == oldDefault {
			s.Color = newDefault
		}
		return s
	}
	e.live = e.live.MapValues(invert)
	e.removed = e.removed.MapValues(invert)

	if e.palette.Foreground == oldDefault {
		e.palette.Foreground = newDefault
	}
	e.Redraw()
}
