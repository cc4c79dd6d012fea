package document

import (
	"encoding/json"
	"errors"
	"fmt"
	"image/color"
	"strconv"
	"strings"

	"golang.org/x/image/colornames"

	"github.com/inkboard/inkboard/backend-go/internal/geom"
)

// ErrMalformed is returned when persisted board data does not have the
// expected shape.
var ErrMalformed = errors.New("malformed board data")

// StrokeID identifies a stroke within one board. Ids are not persisted;
// they are reallocated on import.
type StrokeID uint64

// Color is a CSS color value, normally a name ("black", "red").
type Color string

const (
	ColorBlack Color = "black"
	ColorWhite Color = "white"
	ColorRed   Color = "red"
	ColorGreen Color = "green"
	ColorBlue  Color = "blue"
)

// RGBA resolves the color to an sRGB value. Named colors go through the
// CSS color table; "#rgb" and "#rrggbb" hex forms are also accepted.
func (c Color) RGBA() (color.RGBA, bool) {
	s := strings.ToLower(strings.TrimSpace(string(c)))
	if rgba, ok := colornames.Map[s]; ok {
		return rgba, true
	}
	if !strings.HasPrefix(s, "#") {
		return color.RGBA{}, false
	}

	hex := s[1:]
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	if len(hex) != 6 {
		return color.RGBA{}, false
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color.RGBA{}, false
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xff}, true
}

// Stroke is one continuous drawn line.
// Points is never empty; a single click produces a one-point stroke.
type Stroke struct {
	ID     StrokeID     `json:"id"`
	Points []geom.Point `json:"points"`
	Color  Color        `json:"color"`
}

// WithPoints returns a copy of s with every point mapped through fn.
// The id and color are kept.
func (s Stroke) WithPoints(fn func(geom.Point) geom.Point) Stroke {
	pts := make([]geom.Point, len(s.Points))
	for i, p := range s.Points {
		pts[i] = fn(p)
	}
	return Stroke{ID: s.ID, Points: pts, Color: s.Color}
}

// PathRecord is a stroke as persisted: no id.
type PathRecord struct {
	Points []geom.Point `json:"points"`
	Color  Color        `json:"color"`
}

// Snapshot is the persisted board format.
type Snapshot struct {
	Timestamp int64        `json:"timestamp"` // unix millis
	DarkMode  bool         `json:"darkMode"`
	Paths     []PathRecord `json:"paths"`
}

// Validate checks the invariants an imported snapshot must satisfy.
func (s *Snapshot) Validate() error {
	for i, p := range s.Paths {
		if len(p.Points) == 0 {
			return fmt.Errorf("%w: path %d has no points", ErrMalformed, i)
		}
		if _, ok := p.Color.RGBA(); !ok {
			return fmt.Errorf("%w: path %d has unknown color %q", ErrMalformed, i, p.Color)
		}
	}
	return nil
}

// ParseSnapshot decodes and validates a persisted board.
// Nothing is applied anywhere; callers import the result only on success.
func ParseSnapshot(data []byte) (*Snapshot, error) {
	var raw struct {
		Timestamp *int64       `json:"timestamp"`
		DarkMode  *bool        `json:"darkMode"`
		Paths     []PathRecord `json:"paths"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if raw.DarkMode == nil || raw.Paths == nil {
		return nil, fmt.Errorf("%w: missing darkMode or paths", ErrMalformed)
	}

	snap := &Snapshot{DarkMode: *raw.DarkMode, Paths: raw.Paths}
	if raw.Timestamp != nil {
		snap.Timestamp = *raw.Timestamp
	}
	if err := snap.Validate(); err != nil {
		return nil, err
	}
	return snap, nil
}

// Marshal encodes the snapshot as JSON.
func (s *Snapshot) Marshal() ([]byte, error) {
	if s.Paths == nil {
		s.Paths = []PathRecord{}
	}
	return json.Marshal(s)
}

// NewEmptySnapshot creates the snapshot a new board starts from.
func NewEmptySnapshot(timestamp int64, darkMode bool) *Snapshot {
	return &Snapshot{
		Timestamp: timestamp,
		DarkMode:  darkMode,
		Paths:     []PathRecord{},
	}
}
