package document

import (
	"math"
	"time"

	"github.com/inkboard/inkboard/backend-go/internal/geom"
)

// NewSampleSnapshot returns a small dark-mode board used by the demo
// build: a wave, a circle, a checkmark and a dot.
func NewSampleSnapshot() *Snapshot {
	wave := make([]geom.Point, 0, 41)
	for i := 0; i <= 40; i++ {
		x := 200 + float64(i)*10
		wave = append(wave, geom.Pt(x, 200+40*math.Sin(float64(i)/4)))
	}

	circle := make([]geom.Point, 0, 37)
	for i := 0; i <= 36; i++ {
		a := float64(i) * math.Pi / 18
		circle = append(circle, geom.Pt(640+80*math.Cos(a), 400+80*math.Sin(a)))
	}

	check := []geom.Point{geom.Pt(900, 380), geom.Pt(940, 430), geom.Pt(1020, 320)}

	return &Snapshot{
		Timestamp: time.Now().UnixMilli(),
		DarkMode:  true,
		Paths: []PathRecord{
			{Points: wave, Color: ColorWhite},
			{Points: circle, Color: ColorRed},
			{Points: check, Color: ColorGreen},
			{Points: []geom.Point{geom.Pt(640, 400)}, Color: ColorBlue},
		},
	}
}
