package cost

import (
	"errors"
	"fmt"
	"math"

	"github.com/lintang-b-s/bike-route-planner/pkg"
	"github.com/lintang-b-s/bike-route-planner/pkg/datastructure"
)

var (
	ErrUnknownProfile = errors.New("unknown profile")
	ErrInvalidCost    = errors.New("edge cost is negative or not finite")
)

// Profile gives the cost of traversing an edge from source to target
// (forward) and from target to source (reverse).
type Profile interface {
	Name() string
	Costs(e *datastructure.Edge) (forward, reverse float64)
}

// Fast ranks edges by length only.
type Fast struct{}

func (Fast) Name() string { return pkg.PROFILE_FAST }

func (Fast) Costs(e *datastructure.Edge) (float64, float64) {
	c := math.Max(e.GetLength(), pkg.MIN_EDGE_COST_LENGTH)
	return c, c
}

// Safe uses the costs stored on the edge by Apply.
type Safe struct{}

func (Safe) Name() string { return pkg.PROFILE_SAFE }

func (Safe) Costs(e *datastructure.Edge) (float64, float64) {
	return e.GetCosts()
}

func ProfileByName(name string) (Profile, error) {
	switch name {
	case pkg.PROFILE_FAST:
		return Fast{}, nil
	case pkg.PROFILE_SAFE:
		return Safe{}, nil
	}
	return nil, fmt.Errorf("%q: %w", name, ErrUnknownProfile)
}

func elevationKnown(elevation float64) bool {
	return elevation != pkg.UNKNOWN_ELEVATION
}

// SlopeMultiplier penalises climbs quadratically in the percent grade and
// discounts descents linearly down to a floor.
func SlopeMultiplier(grade float64) float64 {
	if grade > 0 {
		return 1 + math.Pow(grade/pkg.CLIMB_GRADE_DIVISOR, 2)
	}
	return math.Max(pkg.MIN_DESCENT_FACTOR, 1-math.Abs(grade)/pkg.DESCENT_GRADE_DIVISOR)
}

// CategoryMultiplier stacks the highway, structure and bike lane factors. The
// bike lane factor is applied last.
func CategoryMultiplier(highway, structure, bikeLane bool) float64 {
	m := 1.0
	if highway {
		m *= pkg.HIGHWAY_MULTIPLIER
	}
	if structure {
		m *= pkg.STRUCTURE_MULTIPLIER
	}
	if bikeLane {
		m *= pkg.BIKE_LANE_MULTIPLIER
	}
	return m
}

// SafeCosts returns the forward and reverse safe-profile costs of an edge of
// the given length between elevations atSource and atTarget (0 = unknown).
func SafeCosts(length, atSource, atTarget float64, highway, structure, bikeLane bool) (float64, float64) {
	forwardBase, reverseBase := 1.0, 1.0
	if elevationKnown(atSource) && elevationKnown(atTarget) && length > 0 {
		forwardBase = SlopeMultiplier((atTarget - atSource) / length * 100)
		reverseBase = SlopeMultiplier((atSource - atTarget) / length * 100)
	}

	base := math.Max(length, pkg.MIN_EDGE_COST_LENGTH)
	category := CategoryMultiplier(highway, structure, bikeLane)
	return base * forwardBase * category, base * reverseBase * category
}

type Stats struct {
	Edges    int
	FreeEdge int
	Min      float64
	Max      float64
}

// Apply stores safe-profile costs on every edge.
func Apply(g *datastructure.Graph) (Stats, error) {
	stats := Stats{Min: math.Inf(1), Max: math.Inf(-1)}
	var err error
	g.ForEachEdges(func(e *datastructure.Edge, eId datastructure.Index) {
		if err != nil {
			return
		}
		atSource, atTarget := e.GetElevations()
		forward, reverse := SafeCosts(e.GetLength(), atSource, atTarget,
			e.IsHighway(), e.IsStructure(), e.IsBikeLane())
		if !validCost(forward) || !validCost(reverse) {
			err = fmt.Errorf("edge %d: forward %v, reverse %v: %w", eId, forward, reverse, ErrInvalidCost)
			return
		}
		e.SetCosts(forward, reverse)

		stats.Edges++
		if forward == 0 && reverse == 0 {
			stats.FreeEdge++
		}
		stats.Min = math.Min(stats.Min, math.Min(forward, reverse))
		stats.Max = math.Max(stats.Max, math.Max(forward, reverse))
	})
	if err != nil {
		return Stats{}, err
	}
	if stats.Edges == 0 {
		stats.Min, stats.Max = 0, 0
	}
	return stats, nil
}

func validCost(c float64) bool {
	return c >= 0 && !math.IsInf(c, 0) && !math.IsNaN(c)
}

// Validate checks every stored cost is finite and non-negative and positive
// on edges that are not bike lanes.
func Validate(g *datastructure.Graph) error {
	for _, e := range g.GetEdges() {
		forward, reverse := e.GetCosts()
		if !validCost(forward) || !validCost(reverse) {
			return fmt.Errorf("edge %d: forward %v, reverse %v: %w", e.GetID(), forward, reverse, ErrInvalidCost)
		}
		if !e.IsBikeLane() && (forward == 0 || reverse == 0) {
			return fmt.Errorf("edge %d has zero cost without a bike lane: %w", e.GetID(), ErrInvalidCost)
		}
	}
	return nil
}
