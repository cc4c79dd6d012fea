package export

import (
	"bytes"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inkboard/inkboard/backend-go/internal/document"
	"github.com/inkboard/inkboard/backend-go/internal/engine"
	"github.com/inkboard/inkboard/backend-go/internal/geom"
)

func TestRenderPNG(t *testing.T) {
	frame := engine.Frame{
		Width:      50,
		Height:     40,
		Background: document.ColorBlack,
		Strokes: []document.Stroke{
			{Points: []geom.Point{geom.Pt(10, 20), geom.Pt(40, 20)}, Color: document.ColorWhite},
			{Points: []geom.Point{geom.Pt(25, 32)}, Color: document.ColorWhite},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, RenderPNG(&buf, frame, 4))

	img, err := png.Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, 50, img.Bounds().Dx())
	assert.Equal(t, 40, img.Bounds().Dy())

	bright := func(x, y int) bool {
		r, g, b, _ := img.At(x, y).RGBA()
		return r > 0xc000 && g > 0xc000 && b > 0xc000
	}
	assert.True(t, bright(25, 20), "line is painted")
	assert.True(t, bright(25, 32), "dot is painted")
	assert.False(t, bright(25, 5), "background stays dark")
	assert.False(t, bright(2, 38), "background stays dark")
}

func TestRenderPNGErrors(t *testing.T) {
	var buf bytes.Buffer

	err := RenderPNG(&buf, engine.Frame{Width: 0, Height: 10, Background: document.ColorBlack}, 4)
	assert.Error(t, err)

	err = RenderPNG(&buf, engine.Frame{Width: 10, Height: 10, Background: "nope"}, 4)
	assert.Error(t, err)

	err = RenderPNG(&buf, engine.Frame{
		Width:      10,
		Height:     10,
		Background: document.ColorBlack,
		Strokes:    []document.Stroke{{Points: []geom.Point{geom.Pt(1, 1)}, Color: "nope"}},
	}, 4)
	assert.Error(t, err)
	assert.Zero(t, buf.Len(), "nothing written on failure")
}
