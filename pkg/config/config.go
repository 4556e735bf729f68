package config

import (
	"errors"
	"fmt"
	"runtime"
	"strings"

	"github.com/lintang-b-s/bike-route-planner/pkg"
	"github.com/lintang-b-s/bike-route-planner/pkg/geo"
	"github.com/lintang-b-s/bike-route-planner/pkg/preprocessor"
	"github.com/lintang-b-s/bike-route-planner/pkg/routing"
	"github.com/spf13/viper"
	"go.uber.org/multierr"
)

const (
	ENV_PREFIX = "BIKEROUTE"

	SOURCE_CSV = "csv"
	SOURCE_OSM = "osm"

	STORAGE_FILE     = "file"
	STORAGE_POSTGRES = "postgres"
)

var ErrInvalidConfig = errors.New("invalid configuration")

type SourceConfig struct {
	Kind       string `mapstructure:"kind"`
	Streets    string `mapstructure:"streets"`
	Contours   string `mapstructure:"contours"`
	Highways   string `mapstructure:"highways"`
	Structures string `mapstructure:"structures"`
	BikeLanes  string `mapstructure:"bike_lanes"`
	OSMFile    string `mapstructure:"osm_file"`
	Encoding   string `mapstructure:"encoding"`
}

type BuildConfig struct {
	SnapTolerance      float64 `mapstructure:"snap_tolerance"`
	LengthScale        float64 `mapstructure:"length_scale"`
	ProximityThreshold float64 `mapstructure:"proximity_threshold"`
	SampleInterval     float64 `mapstructure:"sample_interval"`
	LayerSpacing       float64 `mapstructure:"layer_spacing"`
	Metric             string  `mapstructure:"metric"`
	Workers            int     `mapstructure:"workers"`
}

type RoutingConfig struct {
	MaxSnapDistance float64 `mapstructure:"max_snap_distance"`
}

type StorageConfig struct {
	Kind        string `mapstructure:"kind"`
	GraphPath   string `mapstructure:"graph_path"`
	PostgresDSN string `mapstructure:"postgres_dsn"`
}

type Config struct {
	Source  SourceConfig  `mapstructure:"source"`
	Build   BuildConfig   `mapstructure:"build"`
	Routing RoutingConfig `mapstructure:"routing"`
	Storage StorageConfig `mapstructure:"storage"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("source.kind", SOURCE_CSV)
	v.SetDefault("source.streets", "./data/CIRCULACAO_VIARIA.csv")
	v.SetDefault("source.contours", "./data/CURVA_DE_NIVEL_5M.csv")
	v.SetDefault("source.highways", "./data/FAIXA_RODAGEM_RODOVIA.csv")
	v.SetDefault("source.structures", "./data/LOGRADOURO_OBRA_DE_ARTE.csv")
	v.SetDefault("source.bike_lanes", "./data/ROTA_CICLOVIARIA.csv")
	v.SetDefault("source.osm_file", "")
	v.SetDefault("source.encoding", "auto")

	v.SetDefault("build.snap_tolerance", pkg.DEFAULT_SNAP_TOLERANCE)
	v.SetDefault("build.length_scale", 1.0)
	v.SetDefault("build.proximity_threshold", pkg.DEFAULT_PROXIMITY_THRESHOLD)
	v.SetDefault("build.sample_interval", 0.0)
	v.SetDefault("build.layer_spacing", geo.DEFAULT_LAYER_SPACING)
	v.SetDefault("build.metric", geo.METRIC_PLANAR)
	v.SetDefault("build.workers", runtime.NumCPU())

	v.SetDefault("routing.max_snap_distance", pkg.DEFAULT_MAX_SNAP_DISTANCE)

	v.SetDefault("storage.kind", STORAGE_FILE)
	v.SetDefault("storage.graph_path", "./data/network.graph.bz2")
	v.SetDefault("storage.postgres_dsn", "")
}

// Load reads the optional config file at path, then environment variables
// such as BIKEROUTE_BUILD_SNAP_TOLERANCE, on top of the defaults.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(ENV_PREFIX)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), ErrInvalidConfig)
}

func (c *Config) Validate() error {
	var err error
	if _, merr := geo.MetricByName(c.Build.Metric); merr != nil {
		err = multierr.Append(err, invalid("build.metric: %v", merr))
	}
	switch c.Source.Kind {
	case SOURCE_CSV:
		if c.Source.Streets == "" {
			err = multierr.Append(err, invalid("source.streets is required for csv sources"))
		}
	case SOURCE_OSM:
		if c.Source.OSMFile == "" {
			err = multierr.Append(err, invalid("source.osm_file is required for osm sources"))
		}
	default:
		err = multierr.Append(err, invalid("source.kind %q", c.Source.Kind))
	}
	switch c.Storage.Kind {
	case STORAGE_FILE:
		if c.Storage.GraphPath == "" {
			err = multierr.Append(err, invalid("storage.graph_path is required for file storage"))
		}
	case STORAGE_POSTGRES:
		if c.Storage.PostgresDSN == "" {
			err = multierr.Append(err, invalid("storage.postgres_dsn is required for postgres storage"))
		}
	default:
		err = multierr.Append(err, invalid("storage.kind %q", c.Storage.Kind))
	}
	if c.Routing.MaxSnapDistance < 0 {
		err = multierr.Append(err, invalid("routing.max_snap_distance %v is negative", c.Routing.MaxSnapDistance))
	}
	return err
}

func (c *Config) PreprocessorOptions() (preprocessor.Options, error) {
	metric, err := geo.MetricByName(c.Build.Metric)
	if err != nil {
		return preprocessor.Options{}, err
	}
	return preprocessor.Options{
		SnapTolerance:      c.Build.SnapTolerance,
		LengthScale:        c.Build.LengthScale,
		ProximityThreshold: c.Build.ProximityThreshold,
		SampleInterval:     c.Build.SampleInterval,
		LayerSpacing:       c.Build.LayerSpacing,
		Metric:             metric,
		Workers:            c.Build.Workers,
	}, nil
}

func (c *Config) RouterOptions() (routing.Options, error) {
	metric, err := geo.MetricByName(c.Build.Metric)
	if err != nil {
		return routing.Options{}, err
	}
	return routing.Options{
		MaxSnapDistance: c.Routing.MaxSnapDistance,
		Metric:          metric,
	}, nil
}
