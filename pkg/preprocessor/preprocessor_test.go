package preprocessor

import (
	"errors"
	"math"
	"testing"

	"github.com/lintang-b-s/bike-route-planner/pkg/datastructure"
	"github.com/lintang-b-s/bike-route-planner/pkg/elevation"
	"github.com/lintang-b-s/bike-route-planner/pkg/geo"
	"github.com/lintang-b-s/bike-route-planner/pkg/network"
	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"
)

func sampleInput() Input {
	return Input{
		Segments: []network.RawSegment{
			{Geometry: orb.LineString{{0, 0}, {100, 0}}, Name: "Rua A", RoadType: "Rua"},
			{Geometry: orb.LineString{{100, 0}, {200, 0}}, Name: "Rua A", RoadType: "Rua"},
			{Geometry: orb.LineString{{100, 0}, {100, 100}}, Name: "Rua B", RoadType: "Avenida"},
		},
		Contours: []elevation.ContourLine{
			{Geometry: orb.LineString{{0, -5}, {0, 5}}, Elevation: 700},
			{Geometry: orb.LineString{{100, -5}, {100, 5}}, Elevation: 710},
			{Geometry: orb.LineString{{200, -5}, {200, 5}}, Elevation: 730},
			{Geometry: orb.LineString{{100, 95}, {100, 105}}, Elevation: 750},
		},
		Structures: []orb.Geometry{
			orb.Polygon{{{140, -5}, {160, -5}, {160, 5}, {140, 5}, {140, -5}}},
		},
		BikeLanes: []orb.Geometry{
			orb.LineString{{103, 30}, {103, 70}},
		},
	}
}

func TestBuildGraph(t *testing.T) {
	g, stats, err := BuildGraph(sampleInput(), DefaultOptions(), nil)
	require.NoError(t, err)

	assert.Equal(t, 4, g.NumberOfVertices())
	assert.Equal(t, 3, g.NumberOfEdges())
	assert.Equal(t, 1, g.NumberOfComponents())
	assert.Equal(t, 4, stats.Elevation.Assigned)
	assert.Equal(t, 1, stats.Classes.Structure)
	assert.Equal(t, 1, stats.Classes.BikeLane)
	assert.Equal(t, 0, stats.Classes.Highway)

	wantElevations := [][2]float64{{700, 710}, {710, 730}, {710, 750}}
	wantFlags := [][3]bool{{false, false, false}, {false, true, false}, {false, false, true}}
	wantCosts := [][2]float64{{256.25, 60}, {36250, 2000}, {0, 0}}

	g.ForEachEdges(func(e *datastructure.Edge, eId datastructure.Index) {
		assert.NotEqual(t, e.GetSource(), e.GetTarget())

		es, et := e.GetElevations()
		assert.Equal(t, wantElevations[eId], [2]float64{es, et}, "edge %d", eId)
		assert.Equal(t, wantFlags[eId], [3]bool{e.IsHighway(), e.IsStructure(), e.IsBikeLane()}, "edge %d", eId)

		forward, reverse := e.GetCosts()
		assert.InDelta(t, wantCosts[eId][0], forward, 1e-6, "edge %d", eId)
		assert.InDelta(t, wantCosts[eId][1], reverse, 1e-6, "edge %d", eId)
		assert.False(t, math.IsInf(forward, 0) || math.IsNaN(forward))
		assert.False(t, math.IsInf(reverse, 0) || math.IsNaN(reverse))
	})
}

func TestBuildGraphWithoutOptionalLayers(t *testing.T) {
	input := Input{Segments: sampleInput().Segments}

	g, stats, err := BuildGraph(input, DefaultOptions(), nil)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Elevation.Assigned)

	for _, e := range g.GetEdges() {
		forward, reverse := e.GetCosts()
		assert.Equal(t, e.GetLength(), forward)
		assert.Equal(t, e.GetLength(), reverse)
	}
}

func TestBuildGraphScalesLengths(t *testing.T) {
	opts := DefaultOptions()
	opts.LengthScale = 2.5

	g, _, err := BuildGraph(Input{Segments: sampleInput().Segments}, opts, nil)
	require.NoError(t, err)
	for _, e := range g.GetEdges() {
		assert.InDelta(t, 250.0, e.GetLength(), 1e-9)
	}
}

func TestBuildGraphAggregatesValidationErrors(t *testing.T) {
	opts := DefaultOptions()
	opts.SnapTolerance = -1
	opts.LengthScale = 0
	opts.ProximityThreshold = 0

	g, _, err := BuildGraph(Input{}, opts, nil)
	require.Error(t, err)
	assert.Nil(t, g)

	var ce *ConstructionError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, STAGE_VALIDATE, ce.Stage)
	assert.ErrorIs(t, err, ErrConstruction)
	assert.ErrorIs(t, err, ErrNoSegments)
	assert.ErrorIs(t, err, network.ErrInvalidOptions)
	assert.Len(t, multierr.Errors(ce.Err), 4)
}

func TestBuildGraphRejectsMalformedInput(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(in *Input)
		stage   string
		wantErr error
	}{
		{
			name: "point street",
			mutate: func(in *Input) {
				in.Segments = append(in.Segments, network.RawSegment{Geometry: orb.Point{5, 5}})
			},
			stage:   STAGE_NETWORK,
			wantErr: network.ErrUnsupportedGeometry,
		},
		{
			name: "only degenerate streets",
			mutate: func(in *Input) {
				in.Segments = []network.RawSegment{{Geometry: orb.LineString{{1, 1}, {1, 1}}}}
			},
			stage:   STAGE_NETWORK,
			wantErr: network.ErrNoEdges,
		},
		{
			name: "polygon contour",
			mutate: func(in *Input) {
				in.Contours = append(in.Contours, elevation.ContourLine{
					Geometry: orb.Polygon{{{0, 0}, {1, 0}, {1, 1}, {0, 0}}}, Elevation: 700,
				})
			},
			stage:   STAGE_ELEVATION,
			wantErr: elevation.ErrUnsupportedGeometry,
		},
		{
			name: "point structure",
			mutate: func(in *Input) {
				in.Structures = append(in.Structures, orb.Point{150, 0})
			},
			stage:   STAGE_LAYERS,
			wantErr: geo.ErrUnsupportedGeometry,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := sampleInput()
			tt.mutate(&in)

			g, _, err := BuildGraph(in, DefaultOptions(), nil)
			assert.Nil(t, g)

			var ce *ConstructionError
			require.True(t, errors.As(err, &ce))
			assert.Equal(t, tt.stage, ce.Stage)
			assert.ErrorIs(t, err, ErrConstruction)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}
