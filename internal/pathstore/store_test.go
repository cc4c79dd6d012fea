package pathstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inkboard/inkboard/backend-go/internal/document"
	"github.com/inkboard/inkboard/backend-go/internal/geom"
)

func stroke(id document.StrokeID, c document.Color, pts ...geom.Point) document.Stroke {
	return document.Stroke{ID: id, Points: pts, Color: c}
}

func fill(ids ...document.StrokeID) *Store {
	s := New()
	for _, id := range ids {
		s.Set(id, stroke(id, document.ColorWhite, geom.Pt(float64(id), float64(id))))
	}
	return s
}

func TestSetKeepsInsertionOrder(t *testing.T) {
	s := fill(3, 1, 2)
	assert.Equal(t, []document.StrokeID{3, 1, 2}, s.Keys())
	assert.Equal(t, 3, s.Len())

	s.Set(1, stroke(1, document.ColorRed, geom.Pt(0, 0)))
	assert.Equal(t, []document.StrokeID{3, 1, 2}, s.Keys(), "replacing keeps position")

	got, ok := s.Get(1)
	require.True(t, ok)
	assert.Equal(t, document.ColorRed, got.Color)
}

func TestDelete(t *testing.T) {
	s := fill(1, 2, 3)

	assert.True(t, s.Delete(2))
	assert.False(t, s.Delete(2))
	assert.Equal(t, []document.StrokeID{1, 3}, s.Keys())
	assert.False(t, s.Has(2))

	s.Set(2, stroke(2, document.ColorBlue, geom.Pt(0, 0)))
	assert.Equal(t, []document.StrokeID{1, 3, 2}, s.Keys(), "reinserted key goes last")
}

func TestValuesAndForEach(t *testing.T) {
	s := fill(5, 4)

	values := s.Values()
	require.Len(t, values, 2)
	assert.Equal(t, document.StrokeID(5), values[0].ID)

	var seen []document.StrokeID
	s.ForEach(func(id document.StrokeID, st document.Stroke) {
		assert.Equal(t, id, st.ID)
		seen = append(seen, id)
	})
	assert.Equal(t, []document.StrokeID{5, 4}, seen)
}

func TestForEachToleratesTransferDuringIteration(t *testing.T) {
	live, removed := fill(1, 2, 3, 4), New()

	live.ForEach(func(id document.StrokeID, _ document.Stroke) {
		if id%2 == 0 {
			require.NoError(t, live.Transfer(id, removed))
		}
	})

	assert.Equal(t, []document.StrokeID{1, 3}, live.Keys())
	assert.Equal(t, []document.StrokeID{2, 4}, removed.Keys())
}

func TestClear(t *testing.T) {
	s := fill(1, 2)
	s.Clear()
	assert.Zero(t, s.Len())
	assert.Empty(t, s.Keys())
	assert.False(t, s.Has(1))
}

func TestMapValues(t *testing.T) {
	s := fill(2, 1)
	moved := s.MapValues(func(st document.Stroke) document.Stroke {
		return st.WithPoints(func(p geom.Point) geom.Point { return geom.Translate(p, 100, 0) })
	})

	assert.Equal(t, s.Keys(), moved.Keys())
	got, _ := moved.Get(2)
	assert.Equal(t, []geom.Point{{X: 102, Y: 2}}, got.Points)

	orig, _ := s.Get(2)
	assert.Equal(t, []geom.Point{{X: 2, Y: 2}}, orig.Points, "source store is unchanged")

	moved.Set(9, stroke(9, document.ColorRed, geom.Pt(0, 0)))
	assert.False(t, s.Has(9), "stores do not share state")
}

func TestMergeOrderAndCollision(t *testing.T) {
	a := fill(1, 2)
	b := New()
	b.Set(3, stroke(3, document.ColorGreen, geom.Pt(0, 0)))
	b.Set(1, stroke(1, document.ColorRed, geom.Pt(9, 9)))

	m := a.Merge(b)

	assert.Equal(t, []document.StrokeID{1, 2, 3}, m.Keys())
	got, _ := m.Get(1)
	assert.Equal(t, document.ColorRed, got.Color, "other store wins a collision")
	assert.Equal(t, 2, a.Len(), "inputs are not modified")
	assert.Equal(t, 2, b.Len())
}

func TestTransfer(t *testing.T) {
	live, removed := fill(1, 2), New()

	require.NoError(t, live.Transfer(1, removed))
	assert.Equal(t, []document.StrokeID{2}, live.Keys())
	assert.Equal(t, []document.StrokeID{1}, removed.Keys())

	got, ok := removed.Get(1)
	require.True(t, ok)
	assert.Equal(t, []geom.Point{{X: 1, Y: 1}}, got.Points)

	require.NoError(t, removed.Transfer(1, live))
	assert.Equal(t, []document.StrokeID{2, 1}, live.Keys())
	assert.Zero(t, removed.Len())
}

func TestTransferFailuresLeaveStoresUntouched(t *testing.T) {
	live, removed := fill(1, 2), fill(2)

	err := live.Transfer(7, removed)
	assert.ErrorIs(t, err, ErrNotFound)

	err = live.Transfer(2, removed)
	assert.ErrorIs(t, err, ErrDuplicate)

	assert.Equal(t, []document.StrokeID{1, 2}, live.Keys())
	assert.Equal(t, []document.StrokeID{2}, removed.Keys())
}
