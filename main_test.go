package main

import (
	"testing"

	"github.com/lintang-b-s/bike-route-planner/pkg/datastructure"
	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePoint(t *testing.T) {
	p, err := parsePoint("-43.9378, -19.9191")
	require.NoError(t, err)
	assert.Equal(t, orb.Point{-43.9378, -19.9191}, p)

	for _, bad := range []string{"", "1", "1,2,3", "a,2", "1,b"} {
		_, err := parsePoint(bad)
		assert.Error(t, err, bad)
	}
}

func TestDescribe(t *testing.T) {
	vertices := []*datastructure.Vertex{
		datastructure.NewVertex(0, orb.Point{0, 0}),
		datastructure.NewVertex(1, orb.Point{1, 0}),
		datastructure.NewVertex(2, orb.Point{5, 5}),
		datastructure.NewVertex(3, orb.Point{6, 5}),
	}
	vertices[0].SetElevation(800)
	edges := []*datastructure.Edge{
		datastructure.NewEdge(0, 0, 1, orb.LineString{{0, 0}, {1, 0}}, 1, "", ""),
		datastructure.NewEdge(1, 2, 3, orb.LineString{{5, 5}, {6, 5}}, 1, "", ""),
	}
	edges[0].SetFlags(true, true, false)
	edges[1].SetFlags(false, false, true)
	g, err := datastructure.NewGraph(vertices, edges)
	require.NoError(t, err)

	assert.Equal(t, graphInfo{
		Vertices:          4,
		Edges:             2,
		Components:        2,
		VerticesElevation: 1,
		HighwayEdges:      1,
		StructureEdges:    1,
		BikeLaneEdges:     1,
	}, describe(g))
}
