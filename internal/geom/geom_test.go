package geom

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScaleAboutOrigin(t *testing.T) {
	origin := Pt(100, 50)

	assert.Equal(t, Pt(120, 70), Scale(Pt(110, 60), 2, origin))
	assert.Equal(t, origin, Scale(origin, 3, origin))
	assert.Equal(t, Pt(100, 50), Scale(Pt(140, 10), 0, origin), "zero factor collapses onto origin")
	assert.Equal(t, Pt(90, 60), Scale(Pt(110, 40), -1, origin), "negative factor is accepted")
}

func TestTranslateInverse(t *testing.T) {
	p := Pt(3.25, -7.5)
	for _, d := range []Point{{0, 0}, {1, 2}, {-1e6, 3.5}, {0.1, 0.2}} {
		moved := Translate(p, d.X, d.Y)
		assert.Equal(t, p, Translate(moved, -d.X, -d.Y))
	}
}

func TestBoundingRectOrdersAxes(t *testing.T) {
	want := Rect{Left: 1, Right: 5, Bottom: 2, Top: 8}
	assert.Equal(t, want, BoundingRect(Pt(1, 8), Pt(5, 2)))
	assert.Equal(t, want, BoundingRect(Pt(5, 2), Pt(1, 8)))
	assert.Equal(t, want, BoundingRect(Pt(5, 8), Pt(1, 2)))
}

func TestBounds(t *testing.T) {
	_, ok := Bounds()
	assert.False(t, ok)

	r, ok := Bounds(Pt(3, 4), Pt(-1, 10), Pt(7, 0))
	require.True(t, ok)
	assert.Equal(t, Rect{Left: -1, Right: 7, Bottom: 0, Top: 10}, r)
	assert.Equal(t, 8.0, r.Width())
	assert.Equal(t, 10.0, r.Height())
	assert.Equal(t, Pt(3, 5), r.Center())
}

func TestRectsOverlap(t *testing.T) {
	base := Rect{Left: 0, Right: 10, Bottom: 0, Top: 10}

	tests := []struct {
		name string
		b    Rect
		want bool
	}{
		{"b corner inside a", Rect{5, 15, 5, 15}, true},
		{"a corner inside b", Rect{-5, 5, -5, 5}, true},
		{"disjoint", Rect{20, 30, 20, 30}, false},
		{"touching edge", Rect{10, 20, 0, 10}, false},
		{"touching corner", Rect{10, 20, 10, 20}, false},
		{"identical", base, false},
		// The corner test only looks at (Left, Bottom) corners, so two
		// bars crossing like a plus sign are not reported.
		{"crossing bars", Rect{4, 6, -5, 15}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, RectsOverlap(base, tt.b))
		})
	}
}

func TestPointInRectIsStrict(t *testing.T) {
	r := Rect{Left: 0, Right: 10, Bottom: 0, Top: 10}

	assert.True(t, PointInRect(Pt(5, 5), r))
	assert.False(t, PointInRect(Pt(0, 5), r))
	assert.False(t, PointInRect(Pt(10, 5), r))
	assert.False(t, PointInRect(Pt(5, 0), r))
	assert.False(t, PointInRect(Pt(5, 10), r))
	assert.False(t, PointInRect(Pt(11, 5), r))
}

func TestExpandMutatesReceiver(t *testing.T) {
	r := BoundingRect(Pt(10, 10), Pt(10, 10))
	got := r.Expand(6)

	assert.Same(t, &r, got)
	assert.Equal(t, Rect{Left: 4, Right: 16, Bottom: 4, Top: 16}, r)
}

func TestRectIntersectsPath(t *testing.T) {
	r := Rect{Left: 4, Right: 16, Bottom: 4, Top: 16}

	t.Run("empty path", func(t *testing.T) {
		assert.False(t, RectIntersectsPath(r, nil))
	})

	t.Run("single point inside", func(t *testing.T) {
		assert.True(t, RectIntersectsPath(r, []Point{{10, 10}}))
	})

	t.Run("single point on boundary", func(t *testing.T) {
		assert.False(t, RectIntersectsPath(r, []Point{{16, 10}}))
	})

	t.Run("segment starting inside", func(t *testing.T) {
		assert.True(t, RectIntersectsPath(r, []Point{{10, 10}, {40, 40}}))
	})

	t.Run("diagonal through", func(t *testing.T) {
		assert.True(t, RectIntersectsPath(r, []Point{{0, 0}, {20, 20}}))
	})

	t.Run("later segment hits", func(t *testing.T) {
		assert.True(t, RectIntersectsPath(r, []Point{{100, 100}, {90, 90}, {0, 0}}))
	})

	t.Run("far away", func(t *testing.T) {
		assert.False(t, RectIntersectsPath(r, []Point{{100, 100}, {200, 150}}))
	})

	t.Run("near miss diagonal is a false positive", func(t *testing.T) {
		// The segment's bounding box covers r's corner although the
		// segment itself passes well clear of r.
		assert.True(t, RectIntersectsPath(r, []Point{{0, 100}, {100, 0}}))
	})

	t.Run("flat segment through middle is missed", func(t *testing.T) {
		// A perfectly horizontal segment has a zero-height bounding box,
		// which never satisfies the strict corner test.
		assert.False(t, RectIntersectsPath(r, []Point{{0, 10}, {20, 10}}))
	})
}

func TestPointJSON(t *testing.T) {
	data, err := json.Marshal([]Point{{1, 2}, {3.5, -4}})
	require.NoError(t, err)
	assert.JSONEq(t, `[[1,2],[3.5,-4]]`, string(data))

	var p Point
	require.NoError(t, json.Unmarshal([]byte(`[7,8]`), &p))
	assert.Equal(t, Pt(7, 8), p)

	assert.Error(t, json.Unmarshal([]byte(`[7]`), &p))
	assert.Error(t, json.Unmarshal([]byte(`{"x":1}`), &p))
}
