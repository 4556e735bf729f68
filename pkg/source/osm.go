package source

import (
	"context"
	"fmt"
	"io"
	"os"
	"runtime"

	"github.com/lintang-b-s/bike-route-planner/pkg/network"
	"github.com/lintang-b-s/bike-route-planner/pkg/preprocessor"
	"github.com/paulmach/orb"
	"github.com/paulmach/osm"
	"github.com/paulmach/osm/osmpbf"
	"go.uber.org/zap"
)

type NodeType int

const (
	END_NODE NodeType = iota
	BETWEEN_NODE
	JUNCTION_NODE
)

var (
	// https://wiki.openstreetmap.org/wiki/Key:highway
	acceptedHighway = map[string]struct{}{
		"motorway":       {},
		"motorway_link":  {},
		"trunk":          {},
		"trunk_link":     {},
		"primary":        {},
		"primary_link":   {},
		"secondary":      {},
		"secondary_link": {},
		"tertiary":       {},
		"tertiary_link":  {},
		"residential":    {},
		"service":        {},
		"road":           {},
		"track":          {},
		"unclassified":   {},
		"living_street":  {},
		"cycleway":       {},
	}

	motorHighway = map[string]struct{}{
		"motorway":      {},
		"motorway_link": {},
		"trunk":         {},
		"trunk_link":    {},
	}

	cyclewayKeys = []string{"cycleway", "cycleway:left", "cycleway:right", "cycleway:both"}

	dedicatedCycleway = map[string]struct{}{
		"lane":     {},
		"track":    {},
		"separate": {},
	}
)

type osmWay struct {
	nodes     []osm.NodeID
	name      string
	roadType  string
	street    bool
	highway   bool
	bikeLane  bool
	structure bool
	area      bool
}

// OSMReader turns an OpenStreetMap extract into construction input: street
// ways split at junction nodes, plus highway, bike lane and structure
// layers. OSM carries no contours.
type OSMReader struct {
	wayNodeMap map[osm.NodeID]NodeType
	needed     map[osm.NodeID]struct{}
	coords     map[osm.NodeID]orb.Point
	ways       []osmWay
	logger     *zap.Logger
}

func NewOSMReader(logger *zap.Logger) *OSMReader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OSMReader{
		wayNodeMap: make(map[osm.NodeID]NodeType),
		needed:     make(map[osm.NodeID]struct{}),
		coords:     make(map[osm.NodeID]orb.Point),
		logger:     logger,
	}
}

func (r *OSMReader) ReadFile(ctx context.Context, path string) (preprocessor.Input, error) {
	f, err := os.Open(path)
	if err != nil {
		return preprocessor.Input{}, err
	}
	defer f.Close()
	return r.Read(ctx, f)
}

// Read scans the PBF twice: ways first, then the coordinates of the nodes
// those ways use.
func (r *OSMReader) Read(ctx context.Context, rs io.ReadSeeker) (preprocessor.Input, error) {
	countWays := 0
	err := r.scan(ctx, rs, func(o osm.Object) {
		way, ok := o.(*osm.Way)
		if !ok {
			return
		}
		if r.addWay(way) {
			countWays++
			if countWays%50000 == 0 {
				r.logger.Sugar().Infof("scanning openstreetmap ways: %d...", countWays)
			}
		}
	})
	if err != nil {
		return preprocessor.Input{}, err
	}

	if _, err := rs.Seek(0, io.SeekStart); err != nil {
		return preprocessor.Input{}, err
	}

	countNodes := 0
	err = r.scan(ctx, rs, func(o osm.Object) {
		node, ok := o.(*osm.Node)
		if !ok {
			return
		}
		if r.addNode(node) {
			countNodes++
			if countNodes%50000 == 0 {
				r.logger.Sugar().Infof("processing openstreetmap nodes: %d...", countNodes)
			}
		}
	})
	if err != nil {
		return preprocessor.Input{}, err
	}

	in := r.Input()
	r.logger.Sugar().Infof("openstreetmap: %d street segments, %d highway, %d structure, %d bike lane features",
		len(in.Segments), len(in.Highways), len(in.Structures), len(in.BikeLanes))
	return in, nil
}

func (r *OSMReader) scan(ctx context.Context, in io.Reader, handle func(o osm.Object)) error {
	scanner := osmpbf.New(ctx, in, runtime.GOMAXPROCS(-1))
	defer scanner.Close()
	for scanner.Scan() {
		handle(scanner.Object())
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("scan openstreetmap data: %w", err)
	}
	return nil
}

func isBikeLane(way *osm.Way) bool {
	if way.Tags.Find("highway") == "cycleway" {
		return true
	}
	for _, key := range cyclewayKeys {
		if _, ok := dedicatedCycleway[way.Tags.Find(key)]; ok {
			return true
		}
	}
	return false
}

func isStructure(way *osm.Way) (structure, area bool) {
	if b := way.Tags.Find("bridge"); b != "" && b != "no" {
		return true, false
	}
	if way.Tags.Find("man_made") == "bridge" && len(way.Nodes) > 3 && way.Nodes[0].ID == way.Nodes[len(way.Nodes)-1].ID {
		return true, true
	}
	return false, false
}

// addWay keeps ways that belong to any layer and reports whether the way
// is a street.
func (r *OSMReader) addWay(way *osm.Way) bool {
	if len(way.Nodes) < 2 {
		return false
	}

	highwayTag := way.Tags.Find("highway")
	_, street := acceptedHighway[highwayTag]
	_, motor := motorHighway[highwayTag]
	structure, area := isStructure(way)
	w := osmWay{
		name:      way.Tags.Find("name"),
		roadType:  highwayTag,
		street:    street,
		highway:   motor,
		bikeLane:  street && isBikeLane(way),
		structure: structure,
		area:      area,
	}
	if !w.street && !w.structure {
		return false
	}

	w.nodes = make([]osm.NodeID, len(way.Nodes))
	for i, n := range way.Nodes {
		w.nodes[i] = n.ID
		r.needed[n.ID] = struct{}{}
		if !street {
			continue
		}
		if _, ok := r.wayNodeMap[n.ID]; !ok {
			if i == 0 || i == len(way.Nodes)-1 {
				r.wayNodeMap[n.ID] = END_NODE
			} else {
				r.wayNodeMap[n.ID] = BETWEEN_NODE
			}
		} else {
			r.wayNodeMap[n.ID] = JUNCTION_NODE
		}
	}
	r.ways = append(r.ways, w)
	return street
}

func (r *OSMReader) addNode(node *osm.Node) bool {
	if _, ok := r.needed[node.ID]; !ok {
		return false
	}
	r.coords[node.ID] = orb.Point{node.Lon, node.Lat}
	return true
}

func (r *OSMReader) isJunctionNode(id osm.NodeID) bool {
	return r.wayNodeMap[id] == JUNCTION_NODE
}

// line resolves node ids to coordinates, skipping nodes missing from the
// extract.
func (r *OSMReader) line(nodes []osm.NodeID) orb.LineString {
	ls := make(orb.LineString, 0, len(nodes))
	for _, id := range nodes {
		if p, ok := r.coords[id]; ok {
			ls = append(ls, p)
		}
	}
	return ls
}

// splitAtJunctions cuts a street way wherever another street shares one of
// its interior nodes, so ways crossing mid-way meet at an endpoint.
func (r *OSMReader) splitAtJunctions(nodes []osm.NodeID) [][]osm.NodeID {
	pieces := make([][]osm.NodeID, 0, 1)
	start := 0
	for i := 1; i < len(nodes)-1; i++ {
		if r.isJunctionNode(nodes[i]) {
			pieces = append(pieces, nodes[start:i+1])
			start = i
		}
	}
	return append(pieces, nodes[start:])
}

// Input assembles the layers from the scanned ways and nodes.
func (r *OSMReader) Input() preprocessor.Input {
	var in preprocessor.Input
	for _, w := range r.ways {
		full := r.line(w.nodes)
		if len(full) < 2 {
			continue
		}

		if w.structure {
			if w.area {
				in.Structures = append(in.Structures, orb.Polygon{orb.Ring(full)})
			} else {
				in.Structures = append(in.Structures, full)
			}
		}
		if !w.street {
			continue
		}
		if w.highway {
			in.Highways = append(in.Highways, full)
		}
		if w.bikeLane {
			in.BikeLanes = append(in.BikeLanes, full)
		}

		for _, piece := range r.splitAtJunctions(w.nodes) {
			ls := r.line(piece)
			if len(ls) < 2 {
				continue
			}
			in.Segments = append(in.Segments, network.RawSegment{
				Geometry: ls,
				Name:     w.name,
				RoadType: w.roadType,
			})
		}
	}
	return in
}
