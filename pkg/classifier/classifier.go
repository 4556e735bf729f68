package classifier

import (
	"errors"
	"fmt"
	"runtime"

	"github.com/lintang-b-s/bike-route-planner/pkg"
	"github.com/lintang-b-s/bike-route-planner/pkg/concurrent"
	"github.com/lintang-b-s/bike-route-planner/pkg/datastructure"
	"github.com/lintang-b-s/bike-route-planner/pkg/geo"
	"go.uber.org/zap"
)

var ErrInvalidOptions = errors.New("invalid classifier options")

// Layers holds the auxiliary layers. A nil layer flags nothing.
type Layers struct {
	Highways   geo.Proximity
	Structures geo.Proximity
	BikeLanes  geo.Proximity
}

type Options struct {
	ProximityThreshold float64
	Workers            int
}

func DefaultOptions() Options {
	return Options{
		ProximityThreshold: pkg.DEFAULT_PROXIMITY_THRESHOLD,
		Workers:            runtime.NumCPU(),
	}
}

func (o Options) Validate() error {
	if o.ProximityThreshold <= 0 {
		return fmt.Errorf("proximity threshold %v is not positive: %w", o.ProximityThreshold, ErrInvalidOptions)
	}
	return nil
}

type Stats struct {
	Highway   int
	Structure int
	BikeLane  int
}

func (s Stats) add(other Stats) Stats {
	return Stats{
		Highway:   s.Highway + other.Highway,
		Structure: s.Structure + other.Structure,
		BikeLane:  s.BikeLane + other.BikeLane,
	}
}

type Classifier struct {
	layers Layers
	opts   Options
	logger *zap.Logger
}

func NewClassifier(layers Layers, opts Options, logger *zap.Logger) *Classifier {
	if opts.Workers < 1 {
		opts.Workers = runtime.NumCPU()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Classifier{layers: layers, opts: opts, logger: logger}
}

// Classify sets the three flags of every edge. Flags are overwritten, never
// merged with previous values, so repeated runs give the same result.
func (c *Classifier) Classify(g *datastructure.Graph) (Stats, error) {
	if err := c.opts.Validate(); err != nil {
		return Stats{}, err
	}

	edges := g.GetEdges()
	partial := concurrent.ForEachChunk(len(edges), c.opts.Workers, func(chunk concurrent.Chunk) Stats {
		var s Stats
		for i := chunk.Lo; i < chunk.Hi; i++ {
			e := edges[i]
			highway, structure, bikeLane := c.classifyEdge(e)
			e.SetFlags(highway, structure, bikeLane)
			if highway {
				s.Highway++
			}
			if structure {
				s.Structure++
			}
			if bikeLane {
				s.BikeLane++
			}
		}
		return s
	})

	var stats Stats
	for _, s := range partial {
		stats = stats.add(s)
	}

	c.logger.Sugar().Infof("%d edges on highways, %d on structures, %d on bike lanes",
		stats.Highway, stats.Structure, stats.BikeLane)
	return stats, nil
}

func (c *Classifier) classifyEdge(e *datastructure.Edge) (highway, structure, bikeLane bool) {
	geom := e.GetGeometry()
	if c.layers.Highways != nil {
		highway = c.layers.Highways.WithinDistance(geom, c.opts.ProximityThreshold)
	}
	if c.layers.Structures != nil {
		structure = c.layers.Structures.Intersects(geom)
	}
	if c.layers.BikeLanes != nil {
		bikeLane = c.layers.BikeLanes.WithinDistance(geom, c.opts.ProximityThreshold)
	}
	return highway, structure, bikeLane
}
