package network

import (
	"errors"
	"fmt"

	"github.com/lintang-b-s/bike-route-planner/pkg"
	"github.com/lintang-b-s/bike-route-planner/pkg/datastructure"
	"github.com/lintang-b-s/bike-route-planner/pkg/geo"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

var (
	ErrUnsupportedGeometry = errors.New("street geometry must be a LineString or MultiLineString")
	ErrNoEdges             = errors.New("street network has no edges")
	ErrInvalidOptions      = errors.New("invalid network options")
)

// RawSegment is one street record as read from a source.
type RawSegment struct {
	Geometry orb.Geometry
	Name     string
	RoadType string
}

type Options struct {
	// SnapTolerance is in coordinate units.
	SnapTolerance float64
	// LengthScale multiplies every metric length.
	LengthScale float64
	Metric      geo.Metric
}

func DefaultOptions() Options {
	return Options{
		SnapTolerance: pkg.DEFAULT_SNAP_TOLERANCE,
		LengthScale:   1,
		Metric:        geo.Planar{},
	}
}

func (o Options) Validate() error {
	var err error
	if o.SnapTolerance < 0 {
		err = multierr.Append(err, fmt.Errorf("snap tolerance %v is negative: %w", o.SnapTolerance, ErrInvalidOptions))
	}
	if o.LengthScale <= 0 {
		err = multierr.Append(err, fmt.Errorf("length scale %v is not positive: %w", o.LengthScale, ErrInvalidOptions))
	}
	return err
}

type Stats struct {
	Segments     int
	Parts        int
	DroppedParts int
	SubPaths     int
	SplitRings   int
	ZeroLength   int
	SelfLoops    int
	Vertices     int
	Edges        int
}

type subPath struct {
	line     orb.LineString
	name     string
	roadType string
}

type Builder struct {
	opts   Options
	logger *zap.Logger
	stats  Stats
}

func NewBuilder(opts Options, logger *zap.Logger) *Builder {
	if opts.Metric == nil {
		opts.Metric = geo.Planar{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Builder{opts: opts, logger: logger}
}

// Build turns raw street segments into a directed multigraph. Each segment is
// decomposed into parts and line-merged at degree-2 nodes; rings are split in
// two; zero-length sub-paths and self-loops are dropped.
func (b *Builder) Build(segments []RawSegment) (*datastructure.Graph, Stats, error) {
	b.stats = Stats{Segments: len(segments)}
	if err := b.opts.Validate(); err != nil {
		return nil, b.stats, err
	}

	subPaths := make([]subPath, 0, len(segments))
	for i, seg := range segments {
		parts, err := decompose(seg.Geometry)
		if err != nil {
			return nil, b.stats, fmt.Errorf("segment %d: %w", i, err)
		}
		b.stats.Parts += len(parts)

		cleaned := make([]orb.LineString, 0, len(parts))
		for _, part := range parts {
			part = removeRepeatedPoints(part)
			if len(part) < 2 {
				b.stats.DroppedParts++
				continue
			}
			cleaned = append(cleaned, part)
		}

		for _, line := range mergeLines(cleaned) {
			for _, sub := range b.splitRing(line) {
				subPaths = append(subPaths, subPath{line: sub, name: seg.Name, roadType: seg.RoadType})
			}
		}
	}
	b.stats.SubPaths = len(subPaths)

	b.logger.Sugar().Infof("line-merged %d street segments into %d sub-paths", len(segments), len(subPaths))

	graph, err := b.assemble(subPaths)
	if err != nil {
		return nil, b.stats, err
	}

	b.logger.Sugar().Infof("network graph: %d vertices, %d edges, %d components (%d self-loops, %d zero-length dropped)",
		graph.NumberOfVertices(), graph.NumberOfEdges(), graph.NumberOfComponents(),
		b.stats.SelfLoops, b.stats.ZeroLength)
	return graph, b.stats, nil
}

// splitRing cuts a closed line at its middle vertex.
func (b *Builder) splitRing(line orb.LineString) []orb.LineString {
	first, last := line[0], line[len(line)-1]
	if planar.Distance(first, last) > b.opts.SnapTolerance {
		return []orb.LineString{line}
	}
	if len(line) < 3 {
		// both ends collapse on one vertex, nothing to split
		return []orb.LineString{line}
	}
	b.stats.SplitRings++
	mid := (len(line) - 1) / 2
	if mid < 1 {
		mid = 1
	}
	return []orb.LineString{line[:mid+1], line[mid:]}
}

func (b *Builder) assemble(subPaths []subPath) (*datastructure.Graph, error) {
	type candidate struct {
		sub    subPath
		length float64
	}
	candidates := make([]candidate, 0, len(subPaths))
	var bound orb.Bound
	for _, sp := range subPaths {
		length := b.opts.Metric.Length(sp.line) * b.opts.LengthScale
		if !(length > 0) {
			b.stats.ZeroLength++
			continue
		}
		if len(candidates) == 0 {
			bound = sp.line[0].Bound()
		}
		bound = bound.Extend(sp.line[0]).Extend(sp.line[len(sp.line)-1])
		candidates = append(candidates, candidate{sub: sp, length: length})
	}

	if len(candidates) == 0 {
		return nil, ErrNoEdges
	}

	tolerance := b.opts.SnapTolerance
	index := geo.NewIncrementalPointIndex(bound.Pad(tolerance), geo.Planar{})
	vertices := make([]*datastructure.Vertex, 0)
	edges := make([]*datastructure.Edge, 0, len(candidates))

	addVertex := func(p orb.Point) (datastructure.Index, error) {
		id := datastructure.Index(len(vertices))
		if err := index.Add(geo.IndexedPoint{ID: int(id), Coord: p}); err != nil {
			return 0, err
		}
		vertices = append(vertices, datastructure.NewVertex(id, p))
		return id, nil
	}

	for _, c := range candidates {
		first, last := c.sub.line[0], c.sub.line[len(c.sub.line)-1]

		sID, sFound := index.NearestWithin(first, tolerance)
		tID, tFound := index.NearestWithin(last, tolerance)

		switch {
		case sFound && tFound && sID == tID:
			b.stats.SelfLoops++
			continue
		case !sFound && !tFound && planar.Distance(first, last) <= tolerance:
			b.stats.SelfLoops++
			continue
		}

		var source, target datastructure.Index
		var err error
		if sFound {
			source = datastructure.Index(sID)
		} else if source, err = addVertex(first); err != nil {
			return nil, err
		}
		if tFound {
			target = datastructure.Index(tID)
		} else if target, err = addVertex(last); err != nil {
			return nil, err
		}

		edges = append(edges, datastructure.NewEdge(datastructure.Index(len(edges)), source, target,
			c.sub.line, c.length, c.sub.name, c.sub.roadType))
	}

	if len(edges) == 0 {
		return nil, ErrNoEdges
	}

	b.stats.Vertices = len(vertices)
	b.stats.Edges = len(edges)
	return datastructure.NewGraph(vertices, edges)
}

func decompose(g orb.Geometry) ([]orb.LineString, error) {
	switch geom := g.(type) {
	case orb.LineString:
		return []orb.LineString{geom}, nil
	case orb.MultiLineString:
		return []orb.LineString(geom), nil
	case nil:
		return nil, fmt.Errorf("nil geometry: %w", ErrUnsupportedGeometry)
	default:
		return nil, fmt.Errorf("%s: %w", g.GeoJSONType(), ErrUnsupportedGeometry)
	}
}

func removeRepeatedPoints(ls orb.LineString) orb.LineString {
	out := make(orb.LineString, 0, len(ls))
	for i, p := range ls {
		if i > 0 && p.Equal(out[len(out)-1]) {
			continue
		}
		out = append(out, p)
	}
	return out
}
