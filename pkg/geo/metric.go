package geo

import (
	"errors"
	"fmt"
	"math"

	"github.com/paulmach/orb"
	orbgeo "github.com/paulmach/orb/geo"
	"github.com/paulmach/orb/planar"
)

const (
	METRIC_PLANAR   = "planar"
	METRIC_GEODESIC = "geodesic"
)

var ErrUnknownMetric = errors.New("unknown metric")

// Metric measures distances in the units of a coordinate reference system.
// Planar works on projected coordinates (metres for UTM), Geodesic on lon/lat
// degrees and reports metres.
type Metric interface {
	Name() string
	Distance(a, b orb.Point) float64
	Length(ls orb.LineString) float64
	PointSegmentDistance(p, a, b orb.Point) float64
	// LineDistance is 0 when the lines cross or touch.
	LineDistance(a, b orb.LineString) float64
	PadBound(b orb.Bound, d float64) orb.Bound
	DistanceFunc() orb.DistanceFunc
}

func MetricByName(name string) (Metric, error) {
	switch name {
	case METRIC_PLANAR, "":
		return Planar{}, nil
	case METRIC_GEODESIC:
		return Geodesic{}, nil
	}
	return nil, fmt.Errorf("%q: %w", name, ErrUnknownMetric)
}

type Planar struct{}

func (Planar) Name() string { return METRIC_PLANAR }

func (Planar) Distance(a, b orb.Point) float64 {
	return planar.Distance(a, b)
}

func (Planar) Length(ls orb.LineString) float64 {
	return planar.Length(ls)
}

func (Planar) PointSegmentDistance(p, a, b orb.Point) float64 {
	return planar.DistanceFromSegment(a, b, p)
}

func (m Planar) LineDistance(a, b orb.LineString) float64 {
	return lineDistance(a, b, planarSegmentsIntersect, m.PointSegmentDistance)
}

func (Planar) PadBound(b orb.Bound, d float64) orb.Bound {
	return b.Pad(d)
}

func (Planar) DistanceFunc() orb.DistanceFunc {
	return planar.Distance
}

type Geodesic struct{}

func (Geodesic) Name() string { return METRIC_GEODESIC }

func (Geodesic) Distance(a, b orb.Point) float64 {
	return orbgeo.DistanceHaversine(a, b)
}

func (Geodesic) Length(ls orb.LineString) float64 {
	return orbgeo.LengthHaversine(ls)
}

func (Geodesic) PointSegmentDistance(p, a, b orb.Point) float64 {
	return sphereSegmentDistance(p, a, b)
}

func (m Geodesic) LineDistance(a, b orb.LineString) float64 {
	return lineDistance(a, b, sphereSegmentsIntersect, m.PointSegmentDistance)
}

func (Geodesic) PadBound(b orb.Bound, d float64) orb.Bound {
	return orbgeo.BoundPad(b, d)
}

func (Geodesic) DistanceFunc() orb.DistanceFunc {
	return orbgeo.DistanceHaversine
}

type segmentsIntersectFunc func(a1, a2, b1, b2 orb.Point) bool
type pointSegmentFunc func(p, a, b orb.Point) float64

// lineDistance is the minimum distance between two polylines. Without a
// crossing the minimum is attained at an endpoint of some segment.
func lineDistance(a, b orb.LineString, intersects segmentsIntersectFunc, pointSegment pointSegmentFunc) float64 {
	if len(a) == 0 || len(b) == 0 {
		return math.Inf(1)
	}
	if len(a) == 1 {
		return pointLineDistance(a[0], b, pointSegment)
	}
	if len(b) == 1 {
		return pointLineDistance(b[0], a, pointSegment)
	}

	best := math.Inf(1)
	for i := 0; i+1 < len(a); i++ {
		for j := 0; j+1 < len(b); j++ {
			if intersects(a[i], a[i+1], b[j], b[j+1]) {
				return 0
			}
			best = math.Min(best, pointSegment(a[i], b[j], b[j+1]))
			best = math.Min(best, pointSegment(a[i+1], b[j], b[j+1]))
			best = math.Min(best, pointSegment(b[j], a[i], a[i+1]))
			best = math.Min(best, pointSegment(b[j+1], a[i], a[i+1]))
		}
	}
	return best
}

func pointLineDistance(p orb.Point, ls orb.LineString, pointSegment pointSegmentFunc) float64 {
	if len(ls) == 1 {
		return pointSegment(p, ls[0], ls[0])
	}
	best := math.Inf(1)
	for i := 0; i+1 < len(ls); i++ {
		best = math.Min(best, pointSegment(p, ls[i], ls[i+1]))
	}
	return best
}

func orientation(a, b, c orb.Point) float64 {
	return (b[0]-a[0])*(c[1]-a[1]) - (b[1]-a[1])*(c[0]-a[0])
}

func onSegment(a, b, p orb.Point) bool {
	return math.Min(a[0], b[0]) <= p[0] && p[0] <= math.Max(a[0], b[0]) &&
		math.Min(a[1], b[1]) <= p[1] && p[1] <= math.Max(a[1], b[1])
}

// planarSegmentsIntersect reports whether segments a1a2 and b1b2 share at least one point.
func planarSegmentsIntersect(a1, a2, b1, b2 orb.Point) bool {
	d1 := orientation(b1, b2, a1)
	d2 := orientation(b1, b2, a2)
	d3 := orientation(a1, a2, b1)
	d4 := orientation(a1, a2, b2)

	if ((d1 > 0 && d2 < 0) || (d1 < 0 && d2 > 0)) &&
		((d3 > 0 && d4 < 0) || (d3 < 0 && d4 > 0)) {
		return true
	}

	switch {
	case d1 == 0 && onSegment(b1, b2, a1):
		return true
	case d2 == 0 && onSegment(b1, b2, a2):
		return true
	case d3 == 0 && onSegment(a1, a2, b1):
		return true
	case d4 == 0 && onSegment(a1, a2, b2):
		return true
	}
	return false
}
