package routing

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/lintang-b-s/bike-route-planner/pkg"
	"github.com/lintang-b-s/bike-route-planner/pkg/cost"
	"github.com/lintang-b-s/bike-route-planner/pkg/datastructure"
	"github.com/lintang-b-s/bike-route-planner/pkg/geo"
	"github.com/lintang-b-s/bike-route-planner/pkg/route"
	"github.com/paulmach/orb"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type Options struct {
	// MaxSnapDistance rejects query points farther than this (metric units)
	// from every vertex. 0 disables the limit.
	MaxSnapDistance float64
	Metric          geo.Metric
}

func DefaultOptions() Options {
	return Options{
		MaxSnapDistance: pkg.DEFAULT_MAX_SNAP_DISTANCE,
		Metric:          geo.Planar{},
	}
}

// Result holds one route per profile. A profile without a path is nil and
// its error is kept alongside.
type Result struct {
	Origin      datastructure.Index
	Destination datastructure.Index
	Fast        *route.Route
	Safe        *route.Route
	FastErr     error
	SafeErr     error
}

// Router answers route queries over a read-only graph. It is safe for
// concurrent use.
type Router struct {
	graph  *datastructure.Graph
	index  *geo.PointIndex
	opts   Options
	logger *zap.Logger
}

func NewRouter(g *datastructure.Graph, opts Options, logger *zap.Logger) (*Router, error) {
	if opts.Metric == nil {
		opts.Metric = geo.Planar{}
	}
	if opts.MaxSnapDistance < 0 {
		return nil, fmt.Errorf("max snap distance %v is negative", opts.MaxSnapDistance)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	points := make([]geo.IndexedPoint, 0, g.NumberOfVertices())
	g.ForEachVertices(func(v *datastructure.Vertex, vId datastructure.Index) {
		points = append(points, geo.IndexedPoint{ID: int(vId), Coord: v.GetPoint()})
	})
	index, err := geo.NewPointIndex(points, opts.Metric)
	if err != nil {
		return nil, err
	}

	return &Router{graph: g, index: index, opts: opts, logger: logger}, nil
}

func (r *Router) Graph() *datastructure.Graph {
	return r.graph
}

// Snap maps p to its nearest vertex.
func (r *Router) Snap(p orb.Point) (datastructure.Index, float64, error) {
	id, dist, ok := r.index.Nearest(p)
	if !ok {
		return datastructure.INVALID_INDEX, math.Inf(1), newError(CODE_SNAP_FAILURE, ErrSnapFailure,
			"no vertex near (%v, %v)", p.X(), p.Y())
	}
	if r.opts.MaxSnapDistance > 0 && dist > r.opts.MaxSnapDistance {
		return datastructure.INVALID_INDEX, dist, newError(CODE_SNAP_FAILURE, ErrSnapFailure,
			"(%v, %v) is %.1f from the nearest vertex, limit %.1f", p.X(), p.Y(), dist, r.opts.MaxSnapDistance)
	}
	return datastructure.Index(id), dist, nil
}

// ShortestPath runs Dijkstra from s to t under profile.
func (r *Router) ShortestPath(ctx context.Context, profile cost.Profile, s, t datastructure.Index) (PathResult, error) {
	n := datastructure.Index(r.graph.NumberOfVertices())
	if s >= n || t >= n {
		return PathResult{}, fmt.Errorf("%d -> %d: %w", s, t, datastructure.ErrUnknownVertex)
	}
	if s == t {
		return PathResult{}, newError(CODE_IDENTICAL_ENDPOINT, ErrIdenticalEndpoints, "both points snap to vertex %d", s)
	}
	if !r.graph.VerticesConnected(s, t) {
		return PathResult{}, newError(CODE_NO_PATH, ErrNoPath, "%s: %d and %d are in different components", profile.Name(), s, t)
	}

	sr := newSearch(r.graph, profile)
	if err := sr.run(ctx, s, t); err != nil {
		return PathResult{}, err
	}
	if math.IsInf(sr.dist[t], 1) {
		return PathResult{}, newError(CODE_NO_PATH, ErrNoPath, "%s: %d unreachable from %d", profile.Name(), t, s)
	}

	return PathResult{
		Profile: profile.Name(),
		Steps:   sr.path(s, t),
		Cost:    sr.dist[t],
	}, nil
}

// FindRoute snaps both points and computes the fast and safe routes
// concurrently.
func (r *Router) FindRoute(ctx context.Context, origin, destination orb.Point) (*Result, error) {
	s, _, err := r.Snap(origin)
	if err != nil {
		return nil, err
	}
	t, _, err := r.Snap(destination)
	if err != nil {
		return nil, err
	}
	if s == t {
		return nil, newError(CODE_IDENTICAL_ENDPOINT, ErrIdenticalEndpoints, "both points snap to vertex %d", s)
	}

	res := &Result{Origin: s, Destination: t}
	profiles := []cost.Profile{cost.Fast{}, cost.Safe{}}
	routes := make([]*route.Route, len(profiles))
	routeErrs := make([]error, len(profiles))

	eg, egCtx := errgroup.WithContext(ctx)
	for i, profile := range profiles {
		i, profile := i, profile
		eg.Go(func() error {
			path, err := r.ShortestPath(egCtx, profile, s, t)
			if errors.Is(err, ErrNoPath) {
				routeErrs[i] = err
				return nil
			}
			if err != nil {
				return err
			}
			routes[i] = route.Build(r.graph, path.Profile, path.Cost, path.EdgeIDs())
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	res.Fast, res.Safe = routes[0], routes[1]
	res.FastErr, res.SafeErr = routeErrs[0], routeErrs[1]

	if res.Fast == nil && res.Safe == nil {
		return nil, newError(CODE_UNREACHABLE_BOTH, ErrUnreachableBoth, "no path from vertex %d to %d", s, t)
	}

	r.logger.Debug("route found",
		zap.Uint32("origin", uint32(s)),
		zap.Uint32("destination", uint32(t)),
		zap.Bool("fast", res.Fast != nil),
		zap.Bool("safe", res.Safe != nil),
	)
	return res, nil
}
