package cost

import (
	"math"
	"testing"

	"github.com/lintang-b-s/bike-route-planner/pkg/datastructure"
	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func singleEdgeGraph(t *testing.T, length, es, et float64) *datastructure.Graph {
	t.Helper()
	vertices := []*datastructure.Vertex{
		datastructure.NewVertex(0, orb.Point{0, 0}),
		datastructure.NewVertex(1, orb.Point{length, 0}),
	}
	vertices[0].SetElevation(es)
	vertices[1].SetElevation(et)
	edges := []*datastructure.Edge{
		datastructure.NewEdge(0, 0, 1, orb.LineString{{0, 0}, {length, 0}}, length, "", ""),
	}
	g, err := datastructure.NewGraph(vertices, edges)
	require.NoError(t, err)
	g.PropagateElevation()
	return g
}

func TestClimbAndDescentCosts(t *testing.T) {
	g := singleEdgeGraph(t, 100, 10, 30)

	_, err := Apply(g)
	require.NoError(t, err)

	forward, reverse := g.GetEdge(0).GetCosts()
	assert.InDelta(t, 100*(1+6.25), forward, 1e-9)
	assert.InDelta(t, 40.0, reverse, 1e-9)
	assert.NoError(t, Validate(g))
}

func TestBikeLaneIsFree(t *testing.T) {
	g := singleEdgeGraph(t, 100, 10, 30)
	g.GetEdge(0).SetFlags(false, false, true)

	_, err := Apply(g)
	require.NoError(t, err)

	forward, reverse := g.GetEdge(0).GetCosts()
	assert.Equal(t, 0.0, forward)
	assert.Equal(t, 0.0, reverse)
}

func TestBikeLaneDominatesOtherFlags(t *testing.T) {
	for _, flags := range [][2]bool{{true, false}, {false, true}, {true, true}} {
		forward, reverse := SafeCosts(250, 700, 760, flags[0], flags[1], true)
		assert.Equal(t, 0.0, forward)
		assert.Equal(t, 0.0, reverse)
	}
}

func TestSafeCosts(t *testing.T) {
	tests := []struct {
		name                  string
		length, es, et        float64
		highway, structure    bool
		wantForward, wantBack float64
	}{
		{name: "flat unknown elevation", length: 50, wantForward: 50, wantBack: 50},
		{name: "one end unknown", length: 50, es: 0, et: 700, wantForward: 50, wantBack: 50},
		{name: "level known", length: 80, es: 700, et: 700, wantForward: 80, wantBack: 80},
		{name: "length floor", length: 0.01, wantForward: 0.1, wantBack: 0.1},
		{name: "highway", length: 10, highway: true, wantForward: 1000, wantBack: 1000},
		{name: "structure", length: 10, structure: true, wantForward: 500, wantBack: 500},
		{name: "highway on structure", length: 10, highway: true, structure: true, wantForward: 50000, wantBack: 50000},
		{name: "gentle descent", length: 100, es: 705, et: 700, wantForward: 80, wantBack: 100 * (1 + math.Pow(5.0/8, 2))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			forward, reverse := SafeCosts(tt.length, tt.es, tt.et, tt.highway, tt.structure, false)
			assert.InDelta(t, tt.wantForward, forward, 1e-9)
			assert.InDelta(t, tt.wantBack, reverse, 1e-9)
		})
	}
}

func TestSlopeMultiplier(t *testing.T) {
	assert.InDelta(t, 1.0, SlopeMultiplier(0), 1e-12)
	assert.InDelta(t, 2.0, SlopeMultiplier(8), 1e-12)
	assert.InDelta(t, 0.6, SlopeMultiplier(-10), 1e-12)
	assert.InDelta(t, 0.4, SlopeMultiplier(-40), 1e-12)
}

func TestProfiles(t *testing.T) {
	g := singleEdgeGraph(t, 0.05, 10, 30)
	_, err := Apply(g)
	require.NoError(t, err)
	e := g.GetEdge(0)

	forward, reverse := Fast{}.Costs(e)
	assert.Equal(t, 0.1, forward)
	assert.Equal(t, 0.1, reverse)

	p, err := ProfileByName("safe")
	require.NoError(t, err)
	sf, sr := p.Costs(e)
	wantF, wantR := e.GetCosts()
	assert.Equal(t, wantF, sf)
	assert.Equal(t, wantR, sr)

	_, err = ProfileByName("scenic")
	assert.ErrorIs(t, err, ErrUnknownProfile)
}

func TestValidateRejectsZeroCostWithoutBikeLane(t *testing.T) {
	g := singleEdgeGraph(t, 10, 0, 0)
	g.GetEdge(0).SetCosts(0, 10)
	assert.ErrorIs(t, Validate(g), ErrInvalidCost)

	g.GetEdge(0).SetCosts(math.Inf(1), 10)
	assert.ErrorIs(t, Validate(g), ErrInvalidCost)
}
