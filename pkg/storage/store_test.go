package storage

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/lintang-b-s/bike-route-planner/pkg/datastructure"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleGraph(t *testing.T) *datastructure.Graph {
	t.Helper()
	points := []orb.Point{{0, 0}, {100, 0}, {100, 80.5}}
	vertices := make([]*datastructure.Vertex, len(points))
	for i, p := range points {
		vertices[i] = datastructure.NewVertex(datastructure.Index(i), p)
		vertices[i].SetElevation(float64(700 + 10*i))
	}
	edges := []*datastructure.Edge{
		datastructure.NewEdge(0, 0, 1, orb.LineString{{0, 0}, {50, 1}, {100, 0}}, 100.02, "Rua da Bahia", "RUA"),
		datastructure.NewEdge(1, 2, 1, orb.LineString{{100, 80.5}, {100, 0}}, 80.5, "Viaduto \"Santa\" Tereza", "VDT"),
	}
	edges[0].SetFlags(true, false, false)
	edges[1].SetFlags(false, true, true)
	g, err := datastructure.NewGraph(vertices, edges)
	require.NoError(t, err)
	g.PropagateElevation()
	edges[0].SetCosts(10002.5, 4000.8)
	edges[1].SetCosts(0, 0)
	return g
}

func assertSameGraph(t *testing.T, want, got *datastructure.Graph) {
	t.Helper()
	require.Equal(t, want.NumberOfVertices(), got.NumberOfVertices())
	require.Equal(t, want.NumberOfEdges(), got.NumberOfEdges())
	assert.Equal(t, want.NumberOfComponents(), got.NumberOfComponents())

	for i, v := range want.GetVertices() {
		gv := got.GetVertex(datastructure.Index(i))
		assert.Equal(t, v.GetPoint(), gv.GetPoint())
		assert.Equal(t, v.GetElevation(), gv.GetElevation())
		assert.Equal(t, v.GetOutEdges(), gv.GetOutEdges())
		assert.Equal(t, v.GetInEdges(), gv.GetInEdges())
	}
	for i, e := range want.GetEdges() {
		ge := got.GetEdge(datastructure.Index(i))
		assert.Equal(t, e.GetSource(), ge.GetSource())
		assert.Equal(t, e.GetTarget(), ge.GetTarget())
		assert.Equal(t, e.GetLength(), ge.GetLength())
		assert.Equal(t, e.GetGeometry(), ge.GetGeometry())
		assert.Equal(t, e.GetName(), ge.GetName())
		assert.Equal(t, e.GetRoadType(), ge.GetRoadType())
		wes, wet := e.GetElevations()
		ges, get := ge.GetElevations()
		assert.Equal(t, [2]float64{wes, wet}, [2]float64{ges, get})
		wf, wr := e.GetCosts()
		gf, gr := ge.GetCosts()
		assert.Equal(t, [2]float64{wf, wr}, [2]float64{gf, gr})
		assert.Equal(t, [3]bool{e.IsHighway(), e.IsStructure(), e.IsBikeLane()},
			[3]bool{ge.IsHighway(), ge.IsStructure(), ge.IsBikeLane()})
	}
}

func TestFileStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "network.graph.bz2")
	store := NewFileStore(path)
	g := sampleGraph(t)

	require.NoError(t, store.Save(context.Background(), g))
	loaded, err := store.Load(context.Background())
	require.NoError(t, err)
	assertSameGraph(t, g, loaded)

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary file left behind")
}

func TestFileStoreMissingGraph(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "absent.graph.bz2"))
	_, err := store.Load(context.Background())
	assert.ErrorIs(t, err, ErrGraphNotFound)
}

func TestFileStoreCorruptGraph(t *testing.T) {
	path := filepath.Join(t.TempDir(), "corrupt.graph.bz2")
	require.NoError(t, os.WriteFile(path, []byte("not bzip2"), 0o644))

	_, err := NewFileStore(path).Load(context.Background())
	assert.Error(t, err)
}

func TestFileStoreCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	store := NewFileStore(filepath.Join(t.TempDir(), "g.bz2"))
	assert.ErrorIs(t, store.Save(ctx, sampleGraph(t)), context.Canceled)
}

func TestEdgeRowRoundTrip(t *testing.T) {
	g := sampleGraph(t)
	for _, e := range g.GetEdges() {
		row, err := edgeRow(e)
		require.NoError(t, err)
		require.Len(t, row, len(edgeColumns))

		stored := storedEdge{
			id: row[0].(int64), source: row[1].(int64), target: row[2].(int64),
			length: row[3].(float64), elevSource: row[4].(float64), elevTarget: row[5].(float64),
			highway: row[6].(bool), structure: row[7].(bool), bikeLane: row[8].(bool),
			forwardCost: row[9].(float64), reverseCost: row[10].(float64),
			name: row[11].(string), roadType: row[12].(string), geometry: row[13].([]byte),
		}
		back, err := stored.toEdge()
		require.NoError(t, err)
		assert.Equal(t, e.GetGeometry(), back.GetGeometry())
		assert.Equal(t, e.GetName(), back.GetName())
	}

	assert.Len(t, vertexRow(g.GetVertex(0)), len(vertexColumns))
}

func TestRowsKeepFullIndexRange(t *testing.T) {
	high := datastructure.Index(math.MaxUint32)
	v := datastructure.NewVertex(high, orb.Point{1, 2})
	assert.Equal(t, int64(math.MaxUint32), vertexRow(v)[0])

	e := datastructure.NewEdge(high, high-1, high, orb.LineString{{0, 0}, {1, 0}}, 1, "", "")
	row, err := edgeRow(e)
	require.NoError(t, err)
	assert.Equal(t, []any{int64(math.MaxUint32), int64(math.MaxUint32 - 1), int64(math.MaxUint32)}, row[:3])

	// int4 columns would overflow above 2^31-1
	assert.NotContains(t, schema, "INTEGER")
}

func TestStoredEdgeRejectsNonLinearGeometry(t *testing.T) {
	geom, err := wkb.Marshal(orb.Point{1, 2})
	require.NoError(t, err)

	_, err = storedEdge{geometry: geom}.toEdge()
	assert.ErrorIs(t, err, ErrNotLineString)
}

func TestPostgresStoreRoundTrip(t *testing.T) {
	dsn := os.Getenv("BIKEROUTE_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("BIKEROUTE_TEST_POSTGRES_DSN not set")
	}
	ctx := context.Background()

	pool, err := Connect(ctx, dsn)
	require.NoError(t, err)
	defer pool.Close()

	store := NewPostgresStore(pool, nil)
	g := sampleGraph(t)
	require.NoError(t, store.Save(ctx, g))

	loaded, err := store.Load(ctx)
	require.NoError(t, err)
	assertSameGraph(t, g, loaded)
}
