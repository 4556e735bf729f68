package geo

import (
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPointIndexNearest(t *testing.T) {
	idx, err := NewPointIndex([]IndexedPoint{
		{ID: 0, Coord: orb.Point{0, 0}},
		{ID: 1, Coord: orb.Point{100, 0}},
		{ID: 2, Coord: orb.Point{100, 100}},
	}, Planar{})
	require.NoError(t, err)
	assert.Equal(t, 3, idx.Size())

	id, dist, ok := idx.Nearest(orb.Point{90, 5})
	require.True(t, ok)
	assert.Equal(t, 1, id)
	assert.InDelta(t, 11.18, dist, 0.01)
}

func TestPointIndexNearestGeodesic(t *testing.T) {
	// at 60N a degree of longitude is half a degree of latitude
	idx, err := NewPointIndex([]IndexedPoint{
		{ID: 0, Coord: orb.Point{0, 60.6}},
		{ID: 1, Coord: orb.Point{0.9, 60}},
	}, Geodesic{})
	require.NoError(t, err)

	q := orb.Point{0, 60}
	id, dist, ok := idx.Nearest(q)
	require.True(t, ok)
	assert.Equal(t, 1, id)
	assert.InDelta(t, Geodesic{}.Distance(q, orb.Point{0.9, 60}), dist, 1e-6)
	assert.Less(t, dist, Geodesic{}.Distance(q, orb.Point{0, 60.6}))
}

func TestPointIndexEmpty(t *testing.T) {
	idx, err := NewPointIndex(nil, Planar{})
	require.NoError(t, err)
	_, _, ok := idx.Nearest(orb.Point{1, 1})
	assert.False(t, ok)
}

func TestPointIndexNearestWithin(t *testing.T) {
	idx := NewIncrementalPointIndex(orb.Bound{Min: orb.Point{-10, -10}, Max: orb.Point{10, 10}}, Planar{})
	require.NoError(t, idx.Add(IndexedPoint{ID: 4, Coord: orb.Point{1, 1}}))
	require.NoError(t, idx.Add(IndexedPoint{ID: 2, Coord: orb.Point{1, 1}}))

	id, ok := idx.NearestWithin(orb.Point{1.0005, 1}, 0.001)
	require.True(t, ok)
	assert.Equal(t, 2, id)

	_, ok = idx.NearestWithin(orb.Point{1.01, 1}, 0.001)
	assert.False(t, ok)

	assert.Error(t, idx.Add(IndexedPoint{ID: 9, Coord: orb.Point{50, 50}}))
}
