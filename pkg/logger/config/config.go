package config

import (
	"errors"
	"fmt"
)

// zapcore level numbering
const (
	DEBUG_LEVEL = -1
	INFO_LEVEL  = 0
	WARN_LEVEL  = 1
	ERROR_LEVEL = 2
)

var ErrInvalidLoggerConfig = errors.New("invalid logger configuration")

type Configuration struct {
	Level      int
	TimeFormat string
}

func (c Configuration) Validate() error {
	if c.Level < DEBUG_LEVEL || c.Level > ERROR_LEVEL {
		return fmt.Errorf("log level %d outside [%d, %d]: %w", c.Level, DEBUG_LEVEL, ERROR_LEVEL, ErrInvalidLoggerConfig)
	}
	if c.TimeFormat == "" {
		return fmt.Errorf("empty log time format: %w", ErrInvalidLoggerConfig)
	}
	return nil
}
