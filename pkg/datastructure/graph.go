package datastructure

import (
	"errors"
	"fmt"
	"math"

	"github.com/paulmach/orb"
)

type Index uint32

const INVALID_INDEX Index = math.MaxUint32

var (
	ErrSelfLoop        = errors.New("edge source and target are the same vertex")
	ErrUnknownVertex   = errors.New("edge references an unknown vertex")
	ErrNonSequentialID = errors.New("ids must be sequential from zero")
)

type Vertex struct {
	id        Index
	point     orb.Point
	elevation float64
	outEdges  []Index // edges whose source is this vertex
	inEdges   []Index // edges whose target is this vertex
	component Index
}

func NewVertex(id Index, point orb.Point) *Vertex {
	return &Vertex{
		id:        id,
		point:     point,
		component: INVALID_INDEX,
	}
}

func (v *Vertex) GetID() Index {
	return v.id
}

func (v *Vertex) GetPoint() orb.Point {
	return v.point
}

// Point implements orb.Pointer so vertices can go straight into a quadtree.
func (v *Vertex) Point() orb.Point {
	return v.point
}

func (v *Vertex) GetElevation() float64 {
	return v.elevation
}

func (v *Vertex) SetElevation(elevation float64) {
	v.elevation = elevation
}

func (v *Vertex) GetOutEdges() []Index {
	return v.outEdges
}

func (v *Vertex) GetInEdges() []Index {
	return v.inEdges
}

func (v *Vertex) GetOutDegree() int {
	return len(v.outEdges)
}

func (v *Vertex) GetInDegree() int {
	return len(v.inEdges)
}

func (v *Vertex) GetComponent() Index {
	return v.component
}

type Edge struct {
	id                Index
	geometry          orb.LineString
	length            float64
	source            Index
	target            Index
	elevationAtSource float64
	elevationAtTarget float64
	highway           bool
	structure         bool
	bikeLane          bool
	forwardCost       float64
	reverseCost       float64
	name              string
	roadType          string
}

func NewEdge(id, source, target Index, geometry orb.LineString, length float64, name, roadType string) *Edge {
	return &Edge{
		id:          id,
		geometry:    geometry,
		length:      length,
		source:      source,
		target:      target,
		name:        name,
		roadType:    roadType,
		forwardCost: length,
		reverseCost: length,
	}
}

func (e *Edge) GetID() Index {
	return e.id
}

func (e *Edge) GetGeometry() orb.LineString {
	return e.geometry
}

func (e *Edge) GetLength() float64 {
	return e.length
}

func (e *Edge) GetSource() Index {
	return e.source
}

func (e *Edge) GetTarget() Index {
	return e.target
}

// GetOtherEnd returns the endpoint of e that is not u.
func (e *Edge) GetOtherEnd(u Index) Index {
	if e.source == u {
		return e.target
	}
	return e.source
}

func (e *Edge) GetElevations() (float64, float64) {
	return e.elevationAtSource, e.elevationAtTarget
}

func (e *Edge) SetElevations(atSource, atTarget float64) {
	e.elevationAtSource = atSource
	e.elevationAtTarget = atTarget
}

func (e *Edge) IsHighway() bool {
	return e.highway
}

func (e *Edge) IsStructure() bool {
	return e.structure
}

func (e *Edge) IsBikeLane() bool {
	return e.bikeLane
}

func (e *Edge) SetFlags(highway, structure, bikeLane bool) {
	e.highway = highway
	e.structure = structure
	e.bikeLane = bikeLane
}

func (e *Edge) GetCosts() (float64, float64) {
	return e.forwardCost, e.reverseCost
}

func (e *Edge) SetCosts(forward, reverse float64) {
	e.forwardCost = forward
	e.reverseCost = reverse
}

func (e *Edge) GetName() string {
	return e.name
}

func (e *Edge) GetRoadType() string {
	return e.roadType
}

// Graph is an arena of vertices and edges indexed by id. Vertices hold id lists
// into the edge arena, never pointers.
type Graph struct {
	vertices      []*Vertex
	edges         []*Edge
	numComponents int
}

// NewGraph registers every edge on its endpoints' incident lists and labels
// connected components. vertices[i] and edges[i] must carry id i.
func NewGraph(vertices []*Vertex, edges []*Edge) (*Graph, error) {
	for i, v := range vertices {
		if v.id != Index(i) {
			return nil, fmt.Errorf("vertex %d at position %d: %w", v.id, i, ErrNonSequentialID)
		}
		v.outEdges = v.outEdges[:0]
		v.inEdges = v.inEdges[:0]
	}

	for i, e := range edges {
		if e.id != Index(i) {
			return nil, fmt.Errorf("edge %d at position %d: %w", e.id, i, ErrNonSequentialID)
		}
		if int(e.source) >= len(vertices) || int(e.target) >= len(vertices) {
			return nil, fmt.Errorf("edge %d (%d->%d): %w", e.id, e.source, e.target, ErrUnknownVertex)
		}
		if e.source == e.target {
			return nil, fmt.Errorf("edge %d at vertex %d: %w", e.id, e.source, ErrSelfLoop)
		}
		vertices[e.source].outEdges = append(vertices[e.source].outEdges, e.id)
		vertices[e.target].inEdges = append(vertices[e.target].inEdges, e.id)
	}

	g := &Graph{vertices: vertices, edges: edges}
	g.labelComponents()
	return g, nil
}

func (g *Graph) NumberOfVertices() int {
	return len(g.vertices)
}

func (g *Graph) NumberOfEdges() int {
	return len(g.edges)
}

func (g *Graph) NumberOfComponents() int {
	return g.numComponents
}

func (g *Graph) GetVertex(u Index) *Vertex {
	return g.vertices[u]
}

func (g *Graph) GetEdge(e Index) *Edge {
	return g.edges[e]
}

func (g *Graph) GetVertices() []*Vertex {
	return g.vertices
}

func (g *Graph) GetEdges() []*Edge {
	return g.edges
}

func (g *Graph) GetVertexCoordinates(u Index) orb.Point {
	return g.vertices[u].point
}

func (g *Graph) ForEachVertices(handle func(v *Vertex, vId Index)) {
	for id, v := range g.vertices {
		handle(v, Index(id))
	}
}

func (g *Graph) ForEachEdges(handle func(e *Edge, eId Index)) {
	for id, e := range g.edges {
		handle(e, Index(id))
	}
}

// ForOutEdgesOf calls handle for every edge leaving u (u is the source).
func (g *Graph) ForOutEdgesOf(u Index, handle func(e *Edge)) {
	for _, eId := range g.vertices[u].outEdges {
		handle(g.edges[eId])
	}
}

// ForInEdgesOf calls handle for every edge entering v (v is the target).
func (g *Graph) ForInEdgesOf(v Index, handle func(e *Edge)) {
	for _, eId := range g.vertices[v].inEdges {
		handle(g.edges[eId])
	}
}

// VerticesConnected reports whether u and v are in the same weakly connected component.
func (g *Graph) VerticesConnected(u, v Index) bool {
	return g.vertices[u].component == g.vertices[v].component
}

// PropagateElevation copies vertex elevations onto the endpoints of every edge.
func (g *Graph) PropagateElevation() {
	for _, e := range g.edges {
		e.SetElevations(g.vertices[e.source].elevation, g.vertices[e.target].elevation)
	}
}

// labelComponents runs a BFS over incident lists ignoring direction.
func (g *Graph) labelComponents() {
	for _, v := range g.vertices {
		v.component = INVALID_INDEX
	}

	queue := make([]Index, 0)
	component := Index(0)
	for s := range g.vertices {
		if g.vertices[s].component != INVALID_INDEX {
			continue
		}
		g.vertices[s].component = component
		queue = append(queue[:0], Index(s))
		for len(queue) > 0 {
			u := queue[0]
			queue = queue[1:]
			visit := func(e *Edge) {
				w := e.GetOtherEnd(u)
				if g.vertices[w].component == INVALID_INDEX {
					g.vertices[w].component = component
					queue = append(queue, w)
				}
			}
			g.ForOutEdgesOf(u, visit)
			g.ForInEdgesOf(u, visit)
		}
		component++
	}
	g.numComponents = int(component)
}
