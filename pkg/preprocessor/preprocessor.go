package preprocessor

import (
	"errors"
	"fmt"
	"runtime"

	"github.com/lintang-b-s/bike-route-planner/pkg"
	"github.com/lintang-b-s/bike-route-planner/pkg/classifier"
	"github.com/lintang-b-s/bike-route-planner/pkg/cost"
	"github.com/lintang-b-s/bike-route-planner/pkg/datastructure"
	"github.com/lintang-b-s/bike-route-planner/pkg/elevation"
	"github.com/lintang-b-s/bike-route-planner/pkg/geo"
	"github.com/lintang-b-s/bike-route-planner/pkg/network"
	"github.com/paulmach/orb"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

const (
	STAGE_VALIDATE  = "validate"
	STAGE_NETWORK   = "network"
	STAGE_ELEVATION = "elevation"
	STAGE_LAYERS    = "layers"
	STAGE_CLASSIFY  = "classify"
	STAGE_COST      = "cost"
)

var (
	ErrConstruction = errors.New("graph construction failed")
	ErrNoSegments   = errors.New("no street segments")
)

// ConstructionError reports the build stage that failed. It matches
// ErrConstruction and unwraps to the stage error.
type ConstructionError struct {
	Stage string
	Err   error
}

func (e *ConstructionError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrConstruction.Error(), e.Stage, e.Err)
}

func (e *ConstructionError) Unwrap() error {
	return e.Err
}

func (e *ConstructionError) Is(target error) bool {
	return target == ErrConstruction
}

func fail(stage string, err error) error {
	return &ConstructionError{Stage: stage, Err: err}
}

// Input is everything read from the sources. Only Segments is required.
type Input struct {
	Segments   []network.RawSegment
	Contours   []elevation.ContourLine
	Highways   []orb.Geometry
	Structures []orb.Geometry
	BikeLanes  []orb.Geometry
}

type Options struct {
	SnapTolerance      float64
	LengthScale        float64
	ProximityThreshold float64
	SampleInterval     float64
	LayerSpacing       float64
	Metric             geo.Metric
	Workers            int
}

func DefaultOptions() Options {
	return Options{
		SnapTolerance:      pkg.DEFAULT_SNAP_TOLERANCE,
		LengthScale:        1,
		ProximityThreshold: pkg.DEFAULT_PROXIMITY_THRESHOLD,
		SampleInterval:     0,
		LayerSpacing:       geo.DEFAULT_LAYER_SPACING,
		Metric:             geo.Planar{},
		Workers:            runtime.NumCPU(),
	}
}

func (o Options) networkOptions() network.Options {
	return network.Options{
		SnapTolerance: o.SnapTolerance,
		LengthScale:   o.LengthScale,
		Metric:        o.Metric,
	}
}

func (o Options) elevationOptions() elevation.Options {
	return elevation.Options{
		SampleInterval: o.SampleInterval,
		Metric:         o.Metric,
		Workers:        o.Workers,
	}
}

func (o Options) classifierOptions() classifier.Options {
	return classifier.Options{
		ProximityThreshold: o.ProximityThreshold,
		Workers:            o.Workers,
	}
}

// Validate collects every invalid option instead of stopping at the first.
func (o Options) Validate() error {
	return multierr.Combine(
		o.networkOptions().Validate(),
		o.elevationOptions().Validate(),
		o.classifierOptions().Validate(),
	)
}

type Stats struct {
	Network   network.Stats
	Elevation elevation.Stats
	Classes   classifier.Stats
	Costs     cost.Stats
}

// BuildGraph runs the whole construction pipeline: network assembly,
// elevation interpolation, edge classification and cost computation. On
// error no graph is returned.
func BuildGraph(input Input, opts Options, logger *zap.Logger) (*datastructure.Graph, Stats, error) {
	var stats Stats
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Metric == nil {
		opts.Metric = geo.Planar{}
	}
	if opts.Workers < 1 {
		opts.Workers = runtime.NumCPU()
	}

	var invalid error
	if len(input.Segments) == 0 {
		invalid = multierr.Append(invalid, ErrNoSegments)
	}
	invalid = multierr.Append(invalid, opts.Validate())
	if invalid != nil {
		return nil, stats, fail(STAGE_VALIDATE, invalid)
	}

	logger.Sugar().Infof("building street network from %d segments...", len(input.Segments))
	g, netStats, err := network.NewBuilder(opts.networkOptions(), logger).Build(input.Segments)
	stats.Network = netStats
	if err != nil {
		return nil, stats, fail(STAGE_NETWORK, err)
	}

	logger.Sugar().Infof("interpolating elevation from %d contour lines...", len(input.Contours))
	stats.Elevation, err = elevation.NewInterpolator(opts.elevationOptions(), logger).Interpolate(g, input.Contours)
	if err != nil {
		return nil, stats, fail(STAGE_ELEVATION, err)
	}

	layers, err := buildLayers(input, opts)
	if err != nil {
		return nil, stats, fail(STAGE_LAYERS, err)
	}

	logger.Sugar().Infof("classifying %d edges...", g.NumberOfEdges())
	stats.Classes, err = classifier.NewClassifier(layers, opts.classifierOptions(), logger).Classify(g)
	if err != nil {
		return nil, stats, fail(STAGE_CLASSIFY, err)
	}

	stats.Costs, err = cost.Apply(g)
	if err != nil {
		return nil, stats, fail(STAGE_COST, err)
	}
	if err := cost.Validate(g); err != nil {
		return nil, stats, fail(STAGE_COST, err)
	}

	logger.Info("graph built",
		zap.Int("vertices", g.NumberOfVertices()),
		zap.Int("edges", g.NumberOfEdges()),
		zap.Int("components", g.NumberOfComponents()),
		zap.Int("free_edges", stats.Costs.FreeEdge),
	)
	return g, stats, nil
}

// buildLayers indexes the three auxiliary layers, reporting every malformed
// layer at once.
func buildLayers(input Input, opts Options) (classifier.Layers, error) {
	var layers classifier.Layers
	var errs error

	index := func(name string, features []orb.Geometry) geo.Proximity {
		if len(features) == 0 {
			return nil
		}
		li, err := geo.NewLayerIndex(features, opts.Metric, opts.LayerSpacing)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("%s layer: %w", name, err))
			return nil
		}
		return li
	}

	layers.Highways = index("highway", input.Highways)
	layers.Structures = index("structure", input.Structures)
	layers.BikeLanes = index("bike lane", input.BikeLanes)
	return layers, errs
}
