package geo

import (
	"github.com/paulmach/orb"
	"github.com/twpayne/go-polyline"
)

// EncodePolyline encodes a lon/lat line as a Google polyline (lat, lon order).
func EncodePolyline(ls orb.LineString) string {
	coords := make([][]float64, 0, len(ls))
	for _, p := range ls {
		coords = append(coords, []float64{p.Lat(), p.Lon()})
	}
	return string(polyline.EncodeCoords(coords))
}

func DecodePolyline(s string) (orb.LineString, error) {
	coords, _, err := polyline.DecodeCoords([]byte(s))
	if err != nil {
		return nil, err
	}
	ls := make(orb.LineString, 0, len(coords))
	for _, c := range coords {
		ls = append(ls, orb.Point{c[1], c[0]})
	}
	return ls, nil
}
