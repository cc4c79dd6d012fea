package geom

import (
	"encoding/json"
	"fmt"
)

// Point is a position in canvas-local space.
// There is no separate camera transform: pan and zoom are baked into
// stored points, so canvas space and world space are the same thing.
type Point struct {
	X float64
	Y float64
}

// Pt is shorthand for Point{x, y}.
func Pt(x, y float64) Point {
	return Point{X: x, Y: y}
}

// MarshalJSON encodes the point as a two element array, [x, y].
func (p Point) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]float64{p.X, p.Y})
}

// UnmarshalJSON decodes a two element array.
func (p *Point) UnmarshalJSON(data []byte) error {
	var xy []float64
	if err := json.Unmarshal(data, &xy); err != nil {
		return fmt.Errorf("point: %w", err)
	}
	if len(xy) != 2 {
		return fmt.Errorf("point: want 2 coordinates, got %d", len(xy))
	}
	p.X, p.Y = xy[0], xy[1]
	return nil
}

// Rect is an axis-aligned rectangle with Left <= Right and Bottom <= Top.
// Bottom and Top are the numeric min and max of Y; they say nothing about
// which way the screen's Y axis points.
type Rect struct {
	Left   float64
	Right  float64
	Bottom float64
	Top    float64
}

// RelativeTo returns pt expressed relative to origin.
func RelativeTo(pt, origin Point) Point {
	return Point{pt.X - origin.X, pt.Y - origin.Y}
}

// UnrelativeTo undoes RelativeTo.
func UnrelativeTo(pt, origin Point) Point {
	return Point{pt.X + origin.X, pt.Y + origin.Y}
}

// Scale scales pt by factor about origin.
// Any factor is accepted, including zero and negatives; callers that
// zoom are expected to keep it positive (see engine.ZoomFactor).
func Scale(pt Point, factor float64, origin Point) Point {
	rel := RelativeTo(pt, origin)
	return UnrelativeTo(Point{rel.X * factor, rel.Y * factor}, origin)
}

// Translate moves pt by (dx, dy).
func Translate(pt Point, dx, dy float64) Point {
	return Point{pt.X + dx, pt.Y + dy}
}

// BoundingRect returns the rectangle spanned by two arbitrary points.
func BoundingRect(a, b Point) Rect {
	return Rect{
		Left:   min(a.X, b.X),
		Right:  max(a.X, b.X),
		Bottom: min(a.Y, b.Y),
		Top:    max(a.Y, b.Y),
	}
}

// Bounds returns the tight bounding rectangle of pts.
// ok is false when pts is empty.
func Bounds(pts ...Point) (r Rect, ok bool) {
	if len(pts) == 0 {
		return Rect{}, false
	}
	r = Rect{Left: pts[0].X, Right: pts[0].X, Bottom: pts[0].Y, Top: pts[0].Y}
	for _, p := range pts[1:] {
		r.Left = min(r.Left, p.X)
		r.Right = max(r.Right, p.X)
		r.Bottom = min(r.Bottom, p.Y)
		r.Top = max(r.Top, p.Y)
	}
	return r, true
}

// RectsOverlap reports whether a and b overlap, using the corner test:
// either a contains the (Left, Bottom) corner of b, or b contains the
// (Left, Bottom) corner of a. All comparisons are strict, so rectangles
// that only touch do not overlap.
//
// This is an approximation kept on purpose; erasure behaviour depends on
// it exactly.
func RectsOverlap(a, b Rect) bool {
	return (a.Left < b.Left &&
		a.Right > b.Left &&
		a.Bottom < b.Bottom &&
		a.Top > b.Bottom) ||
		(b.Left < a.Left &&
			b.Right > a.Left &&
			b.Bottom < a.Bottom &&
			b.Top > a.Bottom)
}

// PointInRect reports whether pt lies strictly inside r.
// Points on the boundary are outside.
func PointInRect(pt Point, r Rect) bool {
	return pt.X > r.Left &&
		pt.X < r.Right &&
		pt.Y > r.Bottom &&
		pt.Y < r.Top
}

// Expand grows r by margin on every side and returns r.
func (r *Rect) Expand(margin float64) *Rect {
	r.Left -= margin
	r.Bottom -= margin
	r.Right += margin
	r.Top += margin
	return r
}

// Width returns Right - Left.
func (r Rect) Width() float64 { return r.Right - r.Left }

// Height returns Top - Bottom.
func (r Rect) Height() float64 { return r.Top - r.Bottom }

// Center returns the center point of the rect.
func (r Rect) Center() Point {
	return Point{(r.Left + r.Right) / 2, (r.Bottom + r.Top) / 2}
}

// RectIntersectsPath reports whether r hits the polyline through points.
//
// A single point path is tested with PointInRect. Otherwise segments are
// scanned start to end and the first segment whose bounding rect overlaps
// r wins. Segment geometry is never tested exactly, so a diagonal segment
// that passes near r can still report a hit.
func RectIntersectsPath(r Rect, points []Point) bool {
	switch len(points) {
	case 0:
		return false
	case 1:
		return PointInRect(points[0], r)
	}

	last := points[0]
	for _, curr := range points[1:] {
		if RectsOverlap(r, BoundingRect(last, curr)) {
			return true
		}
		last = curr
	}
	return false
}
