package geo

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
	"github.com/paulmach/orb/quadtree"
)

const (
	DEFAULT_LAYER_SPACING = 10.0
	intersectEpsilon      = 1e-9
)

var ErrUnsupportedGeometry = errors.New("unsupported layer geometry")

// LayerIndex answers proximity and intersection queries against an auxiliary
// layer of line and polygon features. A nil *LayerIndex is an empty layer.
type LayerIndex struct {
	metric  Metric
	spacing float64

	lines    []orb.LineString
	lineTree *quadtree.Quadtree

	polygons      []orb.Polygon
	polygonBounds []orb.Bound
}

// NewLayerIndex decomposes features into line and polygon parts. Line parts
// are densified every spacing units (metric units) into a quadtree.
func NewLayerIndex(features []orb.Geometry, metric Metric, spacing float64) (*LayerIndex, error) {
	if metric == nil {
		metric = Planar{}
	}
	if spacing <= 0 {
		spacing = DEFAULT_LAYER_SPACING
	}
	li := &LayerIndex{metric: metric, spacing: spacing}

	for i, f := range features {
		if err := li.addFeature(f); err != nil {
			return nil, fmt.Errorf("feature %d: %w", i, err)
		}
	}

	if len(li.lines) == 0 {
		return li, nil
	}

	samples := make([]IndexedPoint, 0)
	var bound orb.Bound
	for id, ls := range li.lines {
		for _, p := range Densify(ls, metric, spacing) {
			if len(samples) == 0 {
				bound = p.Bound()
			} else {
				bound = bound.Extend(p)
			}
			samples = append(samples, IndexedPoint{ID: id, Coord: p})
		}
	}

	li.lineTree = quadtree.New(bound)
	for _, s := range samples {
		if err := li.lineTree.Add(s); err != nil {
			return nil, err
		}
	}
	return li, nil
}

func (li *LayerIndex) addFeature(g orb.Geometry) error {
	switch geom := g.(type) {
	case orb.LineString:
		if len(geom) > 0 {
			li.lines = append(li.lines, geom)
		}
	case orb.MultiLineString:
		for _, ls := range geom {
			if err := li.addFeature(ls); err != nil {
				return err
			}
		}
	case orb.Ring:
		return li.addFeature(orb.Polygon{geom})
	case orb.Polygon:
		if len(geom) > 0 && len(geom[0]) > 0 {
			li.polygons = append(li.polygons, geom)
			li.polygonBounds = append(li.polygonBounds, geom.Bound())
		}
	case orb.MultiPolygon:
		for _, p := range geom {
			if err := li.addFeature(p); err != nil {
				return err
			}
		}
	default:
		if g == nil {
			return fmt.Errorf("nil geometry: %w", ErrUnsupportedGeometry)
		}
		return fmt.Errorf("%s: %w", g.GeoJSONType(), ErrUnsupportedGeometry)
	}
	return nil
}

// Len is the number of line and polygon parts.
func (li *LayerIndex) Len() int {
	if li == nil {
		return 0
	}
	return len(li.lines) + len(li.polygons)
}

// WithinDistance reports whether any feature lies within threshold of ls.
func (li *LayerIndex) WithinDistance(ls orb.LineString, threshold float64) bool {
	if li.Len() == 0 || len(ls) == 0 {
		return false
	}
	for _, id := range li.lineCandidates(ls, threshold) {
		if li.metric.LineDistance(ls, li.lines[id]) <= threshold {
			return true
		}
	}
	for _, id := range li.polygonCandidates(ls, threshold) {
		if li.polygonDistance(ls, li.polygons[id]) <= threshold {
			return true
		}
	}
	return false
}

// Intersects reports whether ls crosses or touches a line feature, or enters
// or lies inside a polygon feature.
func (li *LayerIndex) Intersects(ls orb.LineString) bool {
	if li.Len() == 0 || len(ls) == 0 {
		return false
	}
	for _, id := range li.lineCandidates(ls, 0) {
		if li.metric.LineDistance(ls, li.lines[id]) <= intersectEpsilon {
			return true
		}
	}
	for _, id := range li.polygonCandidates(ls, 0) {
		if li.polygonDistance(ls, li.polygons[id]) <= intersectEpsilon {
			return true
		}
	}
	return false
}

// lineCandidates returns, in ascending order, the ids of line parts with a
// sample inside the query bound. Samples are at most spacing apart, so every
// part within d of ls has one within d + spacing.
func (li *LayerIndex) lineCandidates(ls orb.LineString, d float64) []int {
	if li.lineTree == nil {
		return nil
	}
	bound := li.metric.PadBound(ls.Bound(), d+li.spacing)
	seen := make(map[int]struct{})
	ids := make([]int, 0)
	for _, p := range li.lineTree.InBound(nil, bound) {
		id := p.(IndexedPoint).ID
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

func (li *LayerIndex) polygonCandidates(ls orb.LineString, d float64) []int {
	bound := li.metric.PadBound(ls.Bound(), d)
	ids := make([]int, 0)
	for id, pb := range li.polygonBounds {
		if pb.Intersects(bound) {
			ids = append(ids, id)
		}
	}
	return ids
}

func (li *LayerIndex) polygonDistance(ls orb.LineString, poly orb.Polygon) float64 {
	for _, p := range ls {
		if planar.PolygonContains(poly, p) {
			return 0
		}
	}
	best := math.Inf(1)
	for _, ring := range poly {
		best = math.Min(best, li.metric.LineDistance(ls, orb.LineString(ring)))
		if best == 0 {
			return 0
		}
	}
	return best
}
