package routing

import (
	"context"
	"math"

	"github.com/lintang-b-s/bike-route-planner/pkg/cost"
	"github.com/lintang-b-s/bike-route-planner/pkg/datastructure"
	"github.com/lintang-b-s/bike-route-planner/pkg/util"
)

// ctx is polled every CONTEXT_CHECK_INTERVAL settled vertices
const CONTEXT_CHECK_INTERVAL = 1024

type PathStep struct {
	Seq    int
	EdgeID datastructure.Index
}

// PathResult is the edge sequence of one profile's shortest path.
type PathResult struct {
	Profile string
	Steps   []PathStep
	Cost    float64
}

func (p PathResult) EdgeIDs() []datastructure.Index {
	ids := make([]datastructure.Index, len(p.Steps))
	for i, s := range p.Steps {
		ids[i] = s.EdgeID
	}
	return ids
}

// search holds the per-query state so concurrent queries share nothing but
// the read-only graph.
type search struct {
	graph      *datastructure.Graph
	profile    cost.Profile
	dist       []float64
	parent     []datastructure.Index
	parentEdge []datastructure.Index
	pq         *datastructure.MinHeap[datastructure.Index]
}

func newSearch(g *datastructure.Graph, profile cost.Profile) *search {
	n := g.NumberOfVertices()
	s := &search{
		graph:      g,
		profile:    profile,
		dist:       make([]float64, n),
		parent:     make([]datastructure.Index, n),
		parentEdge: make([]datastructure.Index, n),
		pq:         datastructure.NewMinHeap[datastructure.Index](),
	}
	for i := range s.dist {
		s.dist[i] = math.Inf(1)
		s.parent[i] = datastructure.INVALID_INDEX
		s.parentEdge[i] = datastructure.INVALID_INDEX
	}
	return s
}

func (s *search) relax(u, v, eId datastructure.Index, w float64) error {
	newDist := s.dist[u] + w
	if newDist < s.dist[v] {
		s.dist[v] = newDist
		s.parent[v] = u
		s.parentEdge[v] = eId
		return s.pq.Upsert(datastructure.NewPriorityQueueNode(newDist, v))
	}
	return nil
}

// run settles vertices from source until target is extracted. Edges leaving u
// are traversed forward, edges entering u in reverse.
func (s *search) run(ctx context.Context, source, target datastructure.Index) error {
	s.dist[source] = 0
	s.pq.Insert(datastructure.NewPriorityQueueNode(0, source))

	for settled := 0; s.pq.Size() > 0; settled++ {
		if settled%CONTEXT_CHECK_INTERVAL == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}

		node, err := s.pq.ExtractMin()
		if err != nil {
			return err
		}
		u := node.GetItem()
		if u == target {
			return nil
		}

		var relaxErr error
		s.graph.ForOutEdgesOf(u, func(e *datastructure.Edge) {
			forward, _ := s.profile.Costs(e)
			if err := s.relax(u, e.GetTarget(), e.GetID(), forward); err != nil {
				relaxErr = err
			}
		})
		s.graph.ForInEdgesOf(u, func(e *datastructure.Edge) {
			_, reverse := s.profile.Costs(e)
			if err := s.relax(u, e.GetSource(), e.GetID(), reverse); err != nil {
				relaxErr = err
			}
		})
		if relaxErr != nil {
			return relaxErr
		}
	}
	return nil
}

func (s *search) path(source, target datastructure.Index) []PathStep {
	edges := make([]datastructure.Index, 0)
	for v := target; v != source; v = s.parent[v] {
		edges = append(edges, s.parentEdge[v])
	}
	util.ReverseG(edges)

	steps := make([]PathStep, len(edges))
	for i, eId := range edges {
		steps[i] = PathStep{Seq: i + 1, EdgeID: eId}
	}
	return steps
}
