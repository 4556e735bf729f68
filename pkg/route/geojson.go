package route

import (
	"github.com/paulmach/orb/geojson"
)

// FeatureCollection renders the rounded route, one feature per segment,
// with the summary as foreign members.
func (r *Route) FeatureCollection() *geojson.FeatureCollection {
	rounded := r.Rounded()

	fc := geojson.NewFeatureCollection()
	for _, seg := range rounded.Segments {
		if len(seg.Geometry) == 0 {
			continue
		}
		f := geojson.NewFeature(seg.Geometry)
		f.Properties["seq"] = seg.Seq
		f.Properties["edge"] = seg.EdgeID
		f.Properties["name"] = seg.Name
		f.Properties["road_type"] = seg.RoadType
		f.Properties["length"] = seg.Length
		f.Properties["elevation_in"] = seg.ElevationIn
		f.Properties["elevation_out"] = seg.ElevationOut
		f.Properties["rise"] = seg.Rise
		f.Properties["slope"] = seg.Slope
		f.Properties["highway"] = seg.Highway
		f.Properties["structure"] = seg.Structure
		f.Properties["bike_lane"] = seg.BikeLane
		fc.Append(f)
	}

	fc.ExtraMembers = geojson.Properties{
		"profile": rounded.Profile,
		"summary": rounded.Summary,
	}
	return fc
}
