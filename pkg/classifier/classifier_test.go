package classifier

import (
	"testing"

	"github.com/lintang-b-s/bike-route-planner/pkg/datastructure"
	"github.com/lintang-b-s/bike-route-planner/pkg/geo"
	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestGraph(t *testing.T) *datastructure.Graph {
	t.Helper()
	vertices := []*datastructure.Vertex{
		datastructure.NewVertex(0, orb.Point{0, 0}),
		datastructure.NewVertex(1, orb.Point{100, 0}),
		datastructure.NewVertex(2, orb.Point{100, 100}),
		datastructure.NewVertex(3, orb.Point{0, 100}),
	}
	edges := []*datastructure.Edge{
		datastructure.NewEdge(0, 0, 1, orb.LineString{{0, 0}, {100, 0}}, 100, "", ""),
		datastructure.NewEdge(1, 1, 2, orb.LineString{{100, 0}, {100, 100}}, 100, "", ""),
		datastructure.NewEdge(2, 2, 3, orb.LineString{{100, 100}, {0, 100}}, 100, "", ""),
		datastructure.NewEdge(3, 3, 0, orb.LineString{{0, 100}, {0, 0}}, 100, "", ""),
	}
	g, err := datastructure.NewGraph(vertices, edges)
	require.NoError(t, err)
	return g
}

func newTestLayers(t *testing.T) Layers {
	t.Helper()
	highways, err := geo.NewLayerIndex([]orb.Geometry{
		orb.LineString{{20, -9}, {80, -9}},
	}, geo.Planar{}, 0)
	require.NoError(t, err)

	structures, err := geo.NewLayerIndex([]orb.Geometry{
		orb.Polygon{{{90, 40}, {110, 40}, {110, 60}, {90, 60}, {90, 40}}},
	}, geo.Planar{}, 0)
	require.NoError(t, err)

	bikeLanes, err := geo.NewLayerIndex([]orb.Geometry{
		orb.LineString{{10, 105}, {90, 105}},
		orb.LineString{{95, 45}, {95, 55}},
	}, geo.Planar{}, 0)
	require.NoError(t, err)

	return Layers{Highways: highways, Structures: structures, BikeLanes: bikeLanes}
}

func flagsOf(g *datastructure.Graph) [][3]bool {
	flags := make([][3]bool, 0, g.NumberOfEdges())
	g.ForEachEdges(func(e *datastructure.Edge, _ datastructure.Index) {
		flags = append(flags, [3]bool{e.IsHighway(), e.IsStructure(), e.IsBikeLane()})
	})
	return flags
}

func TestClassify(t *testing.T) {
	g := newTestGraph(t)
	c := NewClassifier(newTestLayers(t), DefaultOptions(), nil)

	stats, err := c.Classify(g)
	require.NoError(t, err)

	assert.Equal(t, Stats{Highway: 1, Structure: 1, BikeLane: 2}, stats)
	assert.Equal(t, [][3]bool{
		{true, false, false},
		{false, true, true},
		{false, false, true},
		{false, false, false},
	}, flagsOf(g))
}

func TestClassifyIsIdempotent(t *testing.T) {
	g := newTestGraph(t)
	c := NewClassifier(newTestLayers(t), Options{ProximityThreshold: 10, Workers: 3}, nil)

	_, err := c.Classify(g)
	require.NoError(t, err)
	first := flagsOf(g)

	_, err = c.Classify(g)
	require.NoError(t, err)
	assert.Equal(t, first, flagsOf(g))
}

func TestClassifyOverwritesStaleFlags(t *testing.T) {
	g := newTestGraph(t)
	g.GetEdge(3).SetFlags(true, true, true)

	_, err := NewClassifier(Layers{}, DefaultOptions(), nil).Classify(g)
	require.NoError(t, err)
	assert.Equal(t, [3]bool{false, false, false}, flagsOf(g)[3])
}

func TestClassifyRejectsInvalidThreshold(t *testing.T) {
	_, err := NewClassifier(Layers{}, Options{ProximityThreshold: 0}, nil).Classify(newTestGraph(t))
	assert.ErrorIs(t, err, ErrInvalidOptions)
}
