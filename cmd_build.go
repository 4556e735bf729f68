package main

import (
	"context"

	"github.com/lintang-b-s/bike-route-planner/pkg/config"
	"github.com/lintang-b-s/bike-route-planner/pkg/preprocessor"
	"github.com/lintang-b-s/bike-route-planner/pkg/source"
	"github.com/paulmach/orb"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Build the routing graph from the configured sources and store it",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		input, err := readInput(ctx)
		if err != nil {
			return err
		}

		opts, err := cfg.PreprocessorOptions()
		if err != nil {
			return err
		}
		g, stats, err := preprocessor.BuildGraph(input, opts, log)
		if err != nil {
			return err
		}

		store, release, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer release()
		if err := store.Save(ctx, g); err != nil {
			return err
		}

		log.Info("graph stored",
			zap.String("storage", cfg.Storage.Kind),
			zap.Int("segments", stats.Network.Segments),
			zap.Int("dropped_self_loops", stats.Network.SelfLoops),
			zap.Int("dropped_zero_length", stats.Network.ZeroLength),
			zap.Int("elevation_samples", stats.Elevation.Samples),
			zap.Int("highway_edges", stats.Classes.Highway),
			zap.Int("structure_edges", stats.Classes.Structure),
			zap.Int("bike_lane_edges", stats.Classes.BikeLane),
		)
		return nil
	},
}

func readInput(ctx context.Context) (preprocessor.Input, error) {
	src := cfg.Source
	if src.Kind == config.SOURCE_OSM {
		return source.NewOSMReader(log).ReadFile(ctx, src.OSMFile)
	}

	var in preprocessor.Input
	var err error

	streets := source.StreetLayer(src.Streets)
	streets.Encoding = src.Encoding
	if in.Segments, err = streets.ReadSegments(); err != nil {
		return in, err
	}
	log.Sugar().Infof("read %d street segments from %s", len(in.Segments), src.Streets)

	if src.Contours != "" {
		contours := source.ContourLayer(src.Contours)
		contours.Encoding = src.Encoding
		if in.Contours, err = contours.ReadContours(); err != nil {
			return in, err
		}
		log.Sugar().Infof("read %d contour lines from %s", len(in.Contours), src.Contours)
	}

	for _, layer := range []struct {
		path string
		dst  *[]orb.Geometry
	}{
		{src.Highways, &in.Highways},
		{src.Structures, &in.Structures},
		{src.BikeLanes, &in.BikeLanes},
	} {
		if layer.path == "" {
			continue
		}
		features := source.FeatureLayer(layer.path)
		features.Encoding = src.Encoding
		if *layer.dst, err = features.ReadFeatures(); err != nil {
			return in, err
		}
		log.Sugar().Infof("read %d features from %s", len(*layer.dst), layer.path)
	}
	return in, nil
}
