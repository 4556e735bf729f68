package logger

import (
	"time"

	"github.com/lintang-b-s/bike-route-planner/pkg/logger/config"
	myZap "github.com/lintang-b-s/bike-route-planner/pkg/logger/zap"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const (
	levelKey      = "log_level"
	timeFormatKey = "log_time_format"
)

// New reads LOG_LEVEL and LOG_TIME_FORMAT (or their BIKEROUTE_ prefixed forms)
// from the environment.
func New() (*zap.Logger, error) {
	v := viper.New()
	v.SetDefault(levelKey, config.INFO_LEVEL)
	v.SetDefault(timeFormatKey, time.RFC3339Nano)
	_ = v.BindEnv(levelKey, "BIKEROUTE_LOG_LEVEL", "LOG_LEVEL")
	_ = v.BindEnv(timeFormatKey, "BIKEROUTE_LOG_TIME_FORMAT", "LOG_TIME_FORMAT")

	return NewWithConfig(config.Configuration{
		Level:      v.GetInt(levelKey),
		TimeFormat: v.GetString(timeFormatKey),
	})
}

func NewWithConfig(cfg config.Configuration) (*zap.Logger, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return myZap.New(cfg)
}
