package geo

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/resample"
)

// Densify returns every vertex of ls followed by points spaced about interval
// apart along it (metric units). interval <= 0 yields the vertices only.
func Densify(ls orb.LineString, metric Metric, interval float64) []orb.Point {
	points := make([]orb.Point, 0, len(ls))
	points = append(points, ls...)
	if interval <= 0 || len(ls) < 2 {
		return points
	}
	resampled := resample.ToInterval(ls.Clone(), metric.DistanceFunc(), interval)
	if len(resampled) <= 2 {
		return points
	}
	// the resampled line starts and ends on the original endpoints
	return append(points, resampled[1:len(resampled)-1]...)
}
