package geo

import (
	"github.com/golang/geo/s2"
	"github.com/paulmach/orb"
)

func toS2(p orb.Point) s2.Point {
	return s2.PointFromLatLng(s2.LatLngFromDegrees(p.Lat(), p.Lon()))
}

// sphereSegmentDistance returns the distance in metres from p to the great-circle
// segment ab.
func sphereSegmentDistance(p, a, b orb.Point) float64 {
	if a.Equal(b) {
		return s2.LatLngFromDegrees(p.Lat(), p.Lon()).
			Distance(s2.LatLngFromDegrees(a.Lat(), a.Lon())).Radians() * orb.EarthRadius
	}
	return s2.DistanceFromSegment(toS2(p), toS2(a), toS2(b)).Radians() * orb.EarthRadius
}

// sphereSegmentsIntersect treats a shared vertex as an intersection.
func sphereSegmentsIntersect(a1, a2, b1, b2 orb.Point) bool {
	return s2.CrossingSign(toS2(a1), toS2(a2), toS2(b1), toS2(b2)) != s2.DoNotCross
}
