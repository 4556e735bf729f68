package route

import (
	"math"

	"github.com/lintang-b-s/bike-route-planner/pkg"
	"github.com/lintang-b-s/bike-route-planner/pkg/datastructure"
	"github.com/lintang-b-s/bike-route-planner/pkg/geo"
	"github.com/lintang-b-s/bike-route-planner/pkg/util"
	"github.com/paulmach/orb"
)

const DISPLAY_PRECISION = 1

// Segment is one traversed edge with its elevations oriented along the route.
type Segment struct {
	Seq          int                 `json:"seq"`
	EdgeID       datastructure.Index `json:"edge"`
	Geometry     orb.LineString      `json:"-"`
	Name         string              `json:"name"`
	RoadType     string              `json:"road_type"`
	Length       float64             `json:"length"`
	ElevationIn  float64             `json:"elevation_in"`
	ElevationOut float64             `json:"elevation_out"`
	Rise         float64             `json:"rise"`
	Slope        float64             `json:"slope"`
	Highway      bool                `json:"highway"`
	Structure    bool                `json:"structure"`
	BikeLane     bool                `json:"bike_lane"`
}

type CategoryTotals struct {
	Count  int     `json:"count"`
	Length float64 `json:"length"`
}

func (c CategoryTotals) add(length float64) CategoryTotals {
	return CategoryTotals{Count: c.Count + 1, Length: c.Length + length}
}

type Summary struct {
	Distance  float64        `json:"distance"`
	Ascent    float64        `json:"ascent"`
	Descent   float64        `json:"descent"`
	Segments  int            `json:"segments"`
	Highway   CategoryTotals `json:"highway"`
	Structure CategoryTotals `json:"structure"`
	BikeLane  CategoryTotals `json:"bike_lane"`
}

type Route struct {
	Profile  string    `json:"profile"`
	Cost     float64   `json:"cost"`
	Segments []Segment `json:"segments"`
	Summary  Summary   `json:"summary"`
}

// accumulator carries the elevation the route left the previous segment at
// and the running summary.
type accumulator struct {
	prevElevation float64
	prevKnown     bool
	summary       Summary
}

func known(elevation float64) bool {
	return elevation != pkg.UNKNOWN_ELEVATION
}

// orient picks which endpoint elevation the route entered the edge at. With a
// known previous elevation the endpoint closer to it is the entry (ties go
// to the source); otherwise the stored source/target order is used.
func (a accumulator) orient(atSource, atTarget float64) (in, out float64) {
	if a.prevKnown && known(atSource) && known(atTarget) {
		if math.Abs(atTarget-a.prevElevation) < math.Abs(atSource-a.prevElevation) {
			return atTarget, atSource
		}
	}
	return atSource, atTarget
}

func (a accumulator) step(seq int, e *datastructure.Edge) (accumulator, Segment) {
	atSource, atTarget := e.GetElevations()
	in, out := a.orient(atSource, atTarget)

	length := e.GetLength()
	rise := out - in
	slope := 0.0
	if length > 0 {
		slope = rise / length * 100
	}

	seg := Segment{
		Seq:          seq,
		EdgeID:       e.GetID(),
		Geometry:     e.GetGeometry(),
		Name:         e.GetName(),
		RoadType:     e.GetRoadType(),
		Length:       length,
		ElevationIn:  in,
		ElevationOut: out,
		Rise:         rise,
		Slope:        slope,
		Highway:      e.IsHighway(),
		Structure:    e.IsStructure(),
		BikeLane:     e.IsBikeLane(),
	}

	next := a
	next.prevElevation = out
	next.prevKnown = known(out)

	s := &next.summary
	s.Distance += length
	s.Segments++
	if rise > 0 {
		s.Ascent += rise
	} else {
		s.Descent += -rise
	}
	if seg.Highway {
		s.Highway = s.Highway.add(length)
	}
	if seg.Structure {
		s.Structure = s.Structure.add(length)
	}
	if seg.BikeLane {
		s.BikeLane = s.BikeLane.add(length)
	}
	return next, seg
}

// Build folds the edge sequence of one path into an annotated route.
func Build(g *datastructure.Graph, profile string, cost float64, edgeIDs []datastructure.Index) *Route {
	r := &Route{
		Profile:  profile,
		Cost:     cost,
		Segments: make([]Segment, 0, len(edgeIDs)),
	}

	acc := accumulator{}
	for seq, eID := range edgeIDs {
		var seg Segment
		acc, seg = acc.step(seq+1, g.GetEdge(eID))
		r.Segments = append(r.Segments, seg)
	}
	r.Summary = acc.summary
	return r
}

func round(v float64) float64 {
	return util.RoundFloat(v, DISPLAY_PRECISION)
}

func (c CategoryTotals) rounded() CategoryTotals {
	return CategoryTotals{Count: c.Count, Length: round(c.Length)}
}

// Rounded returns a copy with lengths, elevations, rises, slopes and totals
// rounded to one decimal.
func (r *Route) Rounded() *Route {
	out := &Route{
		Profile:  r.Profile,
		Cost:     round(r.Cost),
		Segments: make([]Segment, len(r.Segments)),
		Summary: Summary{
			Distance:  round(r.Summary.Distance),
			Ascent:    round(r.Summary.Ascent),
			Descent:   round(r.Summary.Descent),
			Segments:  r.Summary.Segments,
			Highway:   r.Summary.Highway.rounded(),
			Structure: r.Summary.Structure.rounded(),
			BikeLane:  r.Summary.BikeLane.rounded(),
		},
	}
	for i, seg := range r.Segments {
		seg.Length = round(seg.Length)
		seg.ElevationIn = round(seg.ElevationIn)
		seg.ElevationOut = round(seg.ElevationOut)
		seg.Rise = round(seg.Rise)
		seg.Slope = round(seg.Slope)
		out.Segments[i] = seg
	}
	return out
}

// Geometry joins the segment geometries in travel order, reversing a
// segment when its end, not its start, touches the previous one.
func (r *Route) Geometry() orb.LineString {
	line := orb.LineString{}
	for i, seg := range r.Segments {
		part := seg.Geometry
		if len(part) == 0 {
			continue
		}
		switch {
		case len(line) > 0:
			last := line[len(line)-1]
			if part[len(part)-1].Equal(last) && !part[0].Equal(last) {
				part = reversed(part)
			}
		case i+1 < len(r.Segments) && len(r.Segments[i+1].Geometry) > 0:
			next := r.Segments[i+1].Geometry
			if touches(part[0], next) && !touches(part[len(part)-1], next) {
				part = reversed(part)
			}
		}
		for j, p := range part {
			if j == 0 && len(line) > 0 && p.Equal(line[len(line)-1]) {
				continue
			}
			line = append(line, p)
		}
	}
	return line
}

func touches(p orb.Point, ls orb.LineString) bool {
	return p.Equal(ls[0]) || p.Equal(ls[len(ls)-1])
}

func reversed(ls orb.LineString) orb.LineString {
	out := ls.Clone()
	util.ReverseG(out)
	return out
}

// Polyline encodes the route geometry. Meaningful for lon/lat graphs only.
func (r *Route) Polyline() string {
	return geo.EncodePolyline(r.Geometry())
}
