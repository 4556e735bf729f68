package geo

import "github.com/paulmach/orb"

// NearestFinder maps a coordinate to the id of the closest indexed point.
type NearestFinder interface {
	Nearest(p orb.Point) (id int, dist float64, ok bool)
}

// Proximity answers the two layer predicates used to classify edges.
type Proximity interface {
	WithinDistance(ls orb.LineString, threshold float64) bool
	Intersects(ls orb.LineString) bool
}

var (
	_ NearestFinder = (*PointIndex)(nil)
	_ Proximity     = (*LayerIndex)(nil)
)
