package geo

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/quadtree"
)

// IndexedPoint is a point tagged with the id of whatever owns it.
type IndexedPoint struct {
	ID    int
	Coord orb.Point
}

func (p IndexedPoint) Point() orb.Point {
	return p.Coord
}

// PointIndex answers nearest-neighbour queries over id-tagged points.
type PointIndex struct {
	tree   *quadtree.Quadtree
	metric Metric
	size   int
}

func NewPointIndex(points []IndexedPoint, metric Metric) (*PointIndex, error) {
	bound := orb.Bound{Min: orb.Point{0, 0}, Max: orb.Point{0, 0}}
	for i, p := range points {
		if i == 0 {
			bound = p.Coord.Bound()
			continue
		}
		bound = bound.Extend(p.Coord)
	}

	idx := NewIncrementalPointIndex(bound, metric)
	for _, p := range points {
		if err := idx.Add(p); err != nil {
			return nil, err
		}
	}
	return idx, nil
}

// NewIncrementalPointIndex creates an empty index; every point added later must lie inside bound.
func NewIncrementalPointIndex(bound orb.Bound, metric Metric) *PointIndex {
	if metric == nil {
		metric = Planar{}
	}
	return &PointIndex{
		tree:   quadtree.New(bound),
		metric: metric,
	}
}

func (idx *PointIndex) Add(p IndexedPoint) error {
	if err := idx.tree.Add(p); err != nil {
		return err
	}
	idx.size++
	return nil
}

func (idx *PointIndex) Size() int {
	return idx.size
}

// Nearest returns the id of the point closest to p under the index's metric
// and that distance. The tree finds the closest point in coordinate space;
// for non-planar metrics the candidates inside the metric ball around it are
// re-ranked, since degrees of longitude shrink away from the equator.
func (idx *PointIndex) Nearest(p orb.Point) (int, float64, bool) {
	found := idx.tree.Find(p)
	if found == nil {
		return 0, math.Inf(1), false
	}
	best := found.(IndexedPoint)
	bestDist := idx.metric.Distance(p, best.Coord)
	if _, planar := idx.metric.(Planar); planar || bestDist == 0 {
		return best.ID, bestDist, true
	}

	for _, c := range idx.tree.InBound(nil, idx.metric.PadBound(p.Bound(), bestDist)) {
		ip := c.(IndexedPoint)
		d := idx.metric.Distance(p, ip.Coord)
		if d < bestDist || (d == bestDist && ip.ID < best.ID) {
			best, bestDist = ip, d
		}
	}
	return best.ID, bestDist, true
}

// NearestWithin returns the closest point whose coordinate distance to p is at
// most tolerance, preferring the smallest id among equally close points.
func (idx *PointIndex) NearestWithin(p orb.Point, tolerance float64) (int, bool) {
	bound := p.Bound().Pad(tolerance)
	candidates := idx.tree.InBound(nil, bound)

	bestID := -1
	bestDist := math.Inf(1)
	for _, c := range candidates {
		ip := c.(IndexedPoint)
		d := Planar{}.Distance(p, ip.Coord)
		if d > tolerance {
			continue
		}
		if d < bestDist || (d == bestDist && ip.ID < bestID) {
			bestID = ip.ID
			bestDist = d
		}
	}
	return bestID, bestID >= 0
}
