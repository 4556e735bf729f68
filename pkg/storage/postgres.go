package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lintang-b-s/bike-route-planner/pkg/datastructure"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkb"
	"go.uber.org/zap"
)

const (
	VERTEX_TABLE = "network_vertices"
	EDGE_TABLE   = "network_edges"
)

var ErrNotLineString = errors.New("stored edge geometry is not a LineString")

var (
	vertexColumns = []string{"id", "x", "y", "elevation"}
	edgeColumns   = []string{
		"id", "source", "target", "length", "elevation_source", "elevation_target",
		"is_highway", "is_structure", "is_bike_lane", "forward_cost", "reverse_cost",
		"name", "road_type", "geometry",
	}
)

const schema = `
CREATE TABLE IF NOT EXISTS network_vertices (
	id        BIGINT PRIMARY KEY,
	x         DOUBLE PRECISION NOT NULL,
	y         DOUBLE PRECISION NOT NULL,
	elevation DOUBLE PRECISION NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS network_edges (
	id               BIGINT PRIMARY KEY,
	source           BIGINT NOT NULL,
	target           BIGINT NOT NULL,
	length           DOUBLE PRECISION NOT NULL,
	elevation_source DOUBLE PRECISION NOT NULL DEFAULT 0,
	elevation_target DOUBLE PRECISION NOT NULL DEFAULT 0,
	is_highway       BOOLEAN NOT NULL DEFAULT FALSE,
	is_structure     BOOLEAN NOT NULL DEFAULT FALSE,
	is_bike_lane     BOOLEAN NOT NULL DEFAULT FALSE,
	forward_cost     DOUBLE PRECISION NOT NULL,
	reverse_cost     DOUBLE PRECISION NOT NULL,
	name             TEXT NOT NULL DEFAULT '',
	road_type        TEXT NOT NULL DEFAULT '',
	geometry         BYTEA NOT NULL
);
`

// PostgresStore keeps the vertex and edge tables in PostgreSQL. Geometry is
// stored as WKB.
type PostgresStore struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

// Connect opens a pool for dsn and verifies it with a ping.
func Connect(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse connection string: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return pool, nil
}

func NewPostgresStore(pool *pgxpool.Pool, logger *zap.Logger) *PostgresStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PostgresStore{pool: pool, logger: logger}
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, schema)
	return err
}

// Save replaces both tables in one transaction.
func (s *PostgresStore) Save(ctx context.Context, g *datastructure.Graph) error {
	if err := s.Migrate(ctx); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, "TRUNCATE "+EDGE_TABLE+", "+VERTEX_TABLE); err != nil {
		return err
	}

	vertices := g.GetVertices()
	n, err := tx.CopyFrom(ctx, pgx.Identifier{VERTEX_TABLE}, vertexColumns,
		pgx.CopyFromSlice(len(vertices), func(i int) ([]any, error) {
			return vertexRow(vertices[i]), nil
		}))
	if err != nil {
		return fmt.Errorf("copy vertices: %w", err)
	}
	s.logger.Sugar().Infof("copied %d vertices", n)

	edges := g.GetEdges()
	n, err = tx.CopyFrom(ctx, pgx.Identifier{EDGE_TABLE}, edgeColumns,
		pgx.CopyFromSlice(len(edges), func(i int) ([]any, error) {
			return edgeRow(edges[i])
		}))
	if err != nil {
		return fmt.Errorf("copy edges: %w", err)
	}
	s.logger.Sugar().Infof("copied %d edges", n)

	return tx.Commit(ctx)
}

func (s *PostgresStore) Load(ctx context.Context) (*datastructure.Graph, error) {
	vertices, err := s.loadVertices(ctx)
	if err != nil {
		return nil, err
	}
	if len(vertices) == 0 {
		return nil, ErrGraphNotFound
	}
	edges, err := s.loadEdges(ctx)
	if err != nil {
		return nil, err
	}
	return datastructure.NewGraph(vertices, edges)
}

func (s *PostgresStore) loadVertices(ctx context.Context) ([]*datastructure.Vertex, error) {
	rows, err := s.pool.Query(ctx, "SELECT id, x, y, elevation FROM "+VERTEX_TABLE+" ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	vertices := make([]*datastructure.Vertex, 0)
	for rows.Next() {
		var id int64
		var x, y, elevation float64
		if err := rows.Scan(&id, &x, &y, &elevation); err != nil {
			return nil, err
		}
		v := datastructure.NewVertex(datastructure.Index(id), orb.Point{x, y})
		v.SetElevation(elevation)
		vertices = append(vertices, v)
	}
	return vertices, rows.Err()
}

func (s *PostgresStore) loadEdges(ctx context.Context) ([]*datastructure.Edge, error) {
	rows, err := s.pool.Query(ctx, "SELECT id, source, target, length, elevation_source, elevation_target, "+
		"is_highway, is_structure, is_bike_lane, forward_cost, reverse_cost, name, road_type, geometry FROM "+
		EDGE_TABLE+" ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	edges := make([]*datastructure.Edge, 0)
	for rows.Next() {
		var r storedEdge
		if err := rows.Scan(&r.id, &r.source, &r.target, &r.length, &r.elevSource, &r.elevTarget,
			&r.highway, &r.structure, &r.bikeLane, &r.forwardCost, &r.reverseCost,
			&r.name, &r.roadType, &r.geometry); err != nil {
			return nil, err
		}
		e, err := r.toEdge()
		if err != nil {
			return nil, fmt.Errorf("edge %d: %w", r.id, err)
		}
		edges = append(edges, e)
	}
	return edges, rows.Err()
}

type storedEdge struct {
	id, source, target       int64
	length                   float64
	elevSource, elevTarget   float64
	highway, structure       bool
	bikeLane                 bool
	forwardCost, reverseCost float64
	name, roadType           string
	geometry                 []byte
}

func (r storedEdge) toEdge() (*datastructure.Edge, error) {
	geom, err := wkb.Unmarshal(r.geometry)
	if err != nil {
		return nil, err
	}
	ls, ok := geom.(orb.LineString)
	if !ok {
		return nil, fmt.Errorf("%s: %w", geom.GeoJSONType(), ErrNotLineString)
	}
	e := datastructure.NewEdge(datastructure.Index(r.id), datastructure.Index(r.source), datastructure.Index(r.target),
		ls, r.length, r.name, r.roadType)
	e.SetElevations(r.elevSource, r.elevTarget)
	e.SetFlags(r.highway, r.structure, r.bikeLane)
	e.SetCosts(r.forwardCost, r.reverseCost)
	return e, nil
}

func vertexRow(v *datastructure.Vertex) []any {
	p := v.GetPoint()
	return []any{int64(v.GetID()), p.X(), p.Y(), v.GetElevation()}
}

func edgeRow(e *datastructure.Edge) ([]any, error) {
	geom, err := wkb.Marshal(e.GetGeometry())
	if err != nil {
		return nil, fmt.Errorf("edge %d geometry: %w", e.GetID(), err)
	}
	es, et := e.GetElevations()
	forward, reverse := e.GetCosts()
	return []any{
		int64(e.GetID()), int64(e.GetSource()), int64(e.GetTarget()),
		e.GetLength(), es, et,
		e.IsHighway(), e.IsStructure(), e.IsBikeLane(),
		forward, reverse,
		e.GetName(), e.GetRoadType(), geom,
	}, nil
}
