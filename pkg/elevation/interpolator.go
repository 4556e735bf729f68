package elevation

import (
	"errors"
	"fmt"
	"math"
	"runtime"

	"github.com/lintang-b-s/bike-route-planner/pkg"
	"github.com/lintang-b-s/bike-route-planner/pkg/concurrent"
	"github.com/lintang-b-s/bike-route-planner/pkg/datastructure"
	"github.com/lintang-b-s/bike-route-planner/pkg/geo"
	"github.com/paulmach/orb"
	"go.uber.org/zap"
)

var (
	ErrUnsupportedGeometry = errors.New("contour geometry must be linear")
	ErrInvalidOptions      = errors.New("invalid elevation options")
)

// ContourLine is an isoline carrying one elevation value.
type ContourLine struct {
	Geometry  orb.Geometry
	Elevation float64
}

// Sample is a point on a contour line. Samples live only while vertices are
// being assigned.
type Sample struct {
	Point     orb.Point
	Elevation float64
}

type Options struct {
	// SampleInterval adds points spaced this far apart along each contour, in
	// metric units. 0 samples contour vertices only.
	SampleInterval float64
	Metric         geo.Metric
	Workers        int
}

func (o Options) Validate() error {
	if o.SampleInterval < 0 {
		return fmt.Errorf("sample interval %v is negative: %w", o.SampleInterval, ErrInvalidOptions)
	}
	return nil
}

type Stats struct {
	Samples  int
	Assigned int
	Min      float64
	Max      float64
}

type Interpolator struct {
	opts   Options
	logger *zap.Logger
}

func NewInterpolator(opts Options, logger *zap.Logger) *Interpolator {
	if opts.Metric == nil {
		opts.Metric = geo.Planar{}
	}
	if opts.Workers < 1 {
		opts.Workers = runtime.NumCPU()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Interpolator{opts: opts, logger: logger}
}

// SampleContours turns contour lines into samples. Repeated coordinates keep
// the first sample seen.
func (ip *Interpolator) SampleContours(contours []ContourLine) ([]Sample, error) {
	if err := ip.opts.Validate(); err != nil {
		return nil, err
	}

	seen := make(map[orb.Point]struct{})
	samples := make([]Sample, 0)
	add := func(p orb.Point, elevation float64) {
		if _, ok := seen[p]; ok {
			return
		}
		seen[p] = struct{}{}
		samples = append(samples, Sample{Point: p, Elevation: elevation})
	}

	for i, c := range contours {
		lines, err := linearParts(c.Geometry)
		if err != nil {
			return nil, fmt.Errorf("contour %d: %w", i, err)
		}
		for _, ls := range lines {
			for _, p := range geo.Densify(ls, ip.opts.Metric, ip.opts.SampleInterval) {
				add(p, c.Elevation)
			}
		}
	}
	return samples, nil
}

// Interpolate gives every vertex the elevation of its nearest contour sample
// and copies vertex elevations onto edge endpoints. Without samples every
// vertex is left unknown.
func (ip *Interpolator) Interpolate(g *datastructure.Graph, contours []ContourLine) (Stats, error) {
	samples, err := ip.SampleContours(contours)
	if err != nil {
		return Stats{}, err
	}
	stats := Stats{Samples: len(samples)}
	ip.logger.Sugar().Infof("extracted %d elevation samples from %d contour lines", len(samples), len(contours))

	if len(samples) == 0 {
		g.ForEachVertices(func(v *datastructure.Vertex, _ datastructure.Index) {
			v.SetElevation(pkg.UNKNOWN_ELEVATION)
		})
		g.PropagateElevation()
		ip.logger.Warn("no contour samples, every vertex keeps an unknown elevation")
		return stats, nil
	}

	points := make([]geo.IndexedPoint, len(samples))
	for i, s := range samples {
		points[i] = geo.IndexedPoint{ID: i, Coord: s.Point}
	}
	index, err := geo.NewPointIndex(points, ip.opts.Metric)
	if err != nil {
		return stats, err
	}

	elevations := make([]float64, len(samples))
	for i, s := range samples {
		elevations[i] = s.Elevation
	}
	AssignNearest(g, index, elevations, ip.opts.Workers)
	g.PropagateElevation()

	stats.Min, stats.Max = math.Inf(1), math.Inf(-1)
	g.ForEachVertices(func(v *datastructure.Vertex, _ datastructure.Index) {
		elev := v.GetElevation()
		if elev == pkg.UNKNOWN_ELEVATION {
			return
		}
		stats.Assigned++
		stats.Min = math.Min(stats.Min, elev)
		stats.Max = math.Max(stats.Max, elev)
	})
	if stats.Assigned == 0 {
		stats.Min, stats.Max = 0, 0
	}

	ip.logger.Sugar().Infof("%d vertices with elevation, range %.0f - %.0f", stats.Assigned, stats.Min, stats.Max)
	return stats, nil
}

// AssignNearest sets each vertex elevation to elevations[id] of its nearest
// point in finder. Vertices are split into disjoint chunks across workers.
func AssignNearest(g *datastructure.Graph, finder geo.NearestFinder, elevations []float64, workers int) {
	vertices := g.GetVertices()
	concurrent.ForEachChunk(len(vertices), workers, func(c concurrent.Chunk) int {
		assigned := 0
		for i := c.Lo; i < c.Hi; i++ {
			v := vertices[i]
			id, _, ok := finder.Nearest(v.GetPoint())
			if !ok {
				v.SetElevation(pkg.UNKNOWN_ELEVATION)
				continue
			}
			v.SetElevation(elevations[id])
			assigned++
		}
		return assigned
	})
}

func linearParts(g orb.Geometry) ([]orb.LineString, error) {
	switch geom := g.(type) {
	case orb.LineString:
		return []orb.LineString{geom}, nil
	case orb.MultiLineString:
		return []orb.LineString(geom), nil
	case orb.Ring:
		return []orb.LineString{orb.LineString(geom)}, nil
	case nil:
		return nil, fmt.Errorf("nil geometry: %w", ErrUnsupportedGeometry)
	default:
		return nil, fmt.Errorf("%s: %w", g.GeoJSONType(), ErrUnsupportedGeometry)
	}
}
